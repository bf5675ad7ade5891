package orchestration

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/taskcoord/internal/errors"
	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/tracing"
)

// Phases recorded on operation spans.
const (
	phaseConcurrent = "concurrent"
	phaseSequential = "sequential"
)

// FetchReport holds the timings of one fetch demonstration.
type FetchReport struct {
	Concurrent time.Duration
	Sequential time.Duration
	// ConcurrentResults and Results hold the values of the concurrent and
	// sequential phases, opA first.
	ConcurrentResults [2]string
	Results           [2]string
}

// FormatFetchReport renders the report as the two-line NewData payload.
// Durations are truncated to whole milliseconds.
func FormatFetchReport(r FetchReport) string {
	return fmt.Sprintf("fetched async in %d ms\nsequential in: %d ms\n",
		r.Concurrent.Milliseconds(), r.Sequential.Milliseconds())
}

func formatResults(r [2]string) string {
	return fmt.Sprintf("result1: %s, result2: %s", r[0], r[1])
}

// FetchData launches the fetch demonstration in the background and returns
// immediately. It does not interact with the long-running task.
func (c *Coordinator) FetchData() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCoordinatorClosed
	}
	c.fetches.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.fetches.Done()
		_, _ = c.RunFetch(c.baseCtx)
	}()
	return nil
}

// RunFetch runs both phases synchronously and emits the outcome. A failed
// operation emits OperationFailed. A context cancellation ends the fetch
// without emitting anything.
func (c *Coordinator) RunFetch(ctx context.Context) (FetchReport, error) {
	ctx, span := tracing.Start(ctx, c.tracer, "coordinator.fetch")

	report, err := c.fetch(ctx)
	switch {
	case err == nil:
		c.emit(state.NewData(FormatFetchReport(report)))
		c.recorder.FetchCompleted(report.Concurrent, report.Sequential)
		c.logger.Info("fetch completed",
			logging.Int("async_ms", int(report.Concurrent.Milliseconds())),
			logging.Int("sequential_ms", int(report.Sequential.Milliseconds())),
			logging.String("async_results", formatResults(report.ConcurrentResults)),
			logging.String("sequential_results", formatResults(report.Results)))
	case apperrors.IsContextError(err):
		c.logger.Debug("fetch aborted")
	default:
		c.emit(state.OperationFailed(err))
		c.recorder.FetchFailed()
		c.logger.Error("fetch failed", err)
	}
	tracing.End(span, err)
	return report, err
}

func (c *Coordinator) fetch(ctx context.Context) (FetchReport, error) {
	var report FetchReport

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, op := range []Operation{c.opA, c.opB} {
		g.Go(func() error {
			res, err := c.call(gctx, op, phaseConcurrent)
			report.ConcurrentResults[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Concurrent = time.Since(start)

	start = time.Now()
	for i, op := range []Operation{c.opA, c.opB} {
		res, err := c.call(ctx, op, phaseSequential)
		if err != nil {
			return report, err
		}
		report.Results[i] = res
	}
	report.Sequential = time.Since(start)
	return report, nil
}

// call runs one operation inside its own span. Non-context errors are
// wrapped in an OperationError naming the operation.
func (c *Coordinator) call(ctx context.Context, op Operation, phase string) (string, error) {
	ctx, span := tracing.Start(ctx, c.tracer, "operation."+op.Name(),
		tracing.KeyOperation.String(op.Name()),
		tracing.KeyPhase.String(phase))

	res, err := op.Do(ctx)
	if err != nil && !apperrors.IsContextError(err) {
		err = &apperrors.OperationError{Op: op.Name(), Cause: err}
	}
	tracing.End(span, err)
	return res, err
}
