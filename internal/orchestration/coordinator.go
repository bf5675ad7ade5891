package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/taskcoord/internal/errors"
	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/statebus"
	"github.com/agbru/taskcoord/internal/tracing"
)

// Long-running task defaults.
const (
	DefaultIterations = 10
	DefaultStepDelay  = 1000 * time.Millisecond
)

// ErrCoordinatorClosed is returned by operations invoked after Close.
var ErrCoordinatorClosed = errors.New("orchestration: coordinator closed")

// taskHandle is the single live reference to a running task instance.
// done is closed once the task has emitted its terminal state.
type taskHandle struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *taskHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Option configures a Coordinator during construction.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithIterations sets the number of task iterations. Values below 1 are ignored.
func WithIterations(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// WithStepDelay sets the pause after each iteration.
func WithStepDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.stepDelay = d
		}
	}
}

// WithSleeper replaces the suspension primitive used between iterations.
func WithSleeper(s Sleeper) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithOperations replaces the two operations of the fetch demonstration.
func WithOperations(a, b Operation) Option {
	return func(c *Coordinator) {
		if a != nil && b != nil {
			c.opA, c.opB = a, b
		}
	}
}

// Coordinator owns the lifecycle of at most one long-running task and runs
// fetch demonstrations on demand. Every transition is emitted on the bus.
//
// Start, cancel and Close are serialized by mu. The task goroutine never
// acquires mu, which lets Start wait for the previous task to settle while
// holding it.
type Coordinator struct {
	bus        *statebus.Bus
	logger     logging.Logger
	recorder   Recorder
	tracer     trace.Tracer
	sleep      Sleeper
	iterations int
	stepDelay  time.Duration
	opA, opB   Operation

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	active  *taskHandle
	closed  bool
	fetches sync.WaitGroup
}

// NewCoordinator creates a coordinator publishing on bus.
func NewCoordinator(bus *statebus.Bus, opts ...Option) *Coordinator {
	c := &Coordinator{
		bus:        bus,
		logger:     logging.NopLogger{},
		recorder:   NullRecorder{},
		tracer:     tracing.Tracer(),
		sleep:      SleepContext,
		iterations: DefaultIterations,
		stepDelay:  DefaultStepDelay,
		opA:        NewOpA(DefaultOpALatency),
		opB:        NewOpB(DefaultOpBLatency),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseCtx, c.baseCancel = context.WithCancel(context.Background())
	return c
}

// StartLongRunningTask supersedes any active task and starts a fresh one.
// The previous task is cancelled and its terminal state emitted before the
// new Clear and Running states, so at most one task is ever mid-flight.
func (c *Coordinator) StartLongRunningTask() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCoordinatorClosed
	}
	c.settleLocked()

	c.emit(state.Clear())
	c.emit(state.Running())

	ctx, cancel := context.WithCancel(c.baseCtx)
	h := &taskHandle{id: uuid.New(), cancel: cancel, done: make(chan struct{})}
	c.active = h
	c.recorder.TaskStarted()
	c.logger.Info("task started",
		logging.String("task_id", h.id.String()),
		logging.Int("iterations", c.iterations),
		logging.Duration("step_delay", c.stepDelay))

	go c.runTask(ctx, h)
	return nil
}

// CancelLongRunningTask requests cancellation of the active task. It emits
// nothing itself; the task reports Cancelled from its own exit path.
// Calling it with no active task, or repeatedly, is a no-op.
func (c *Coordinator) CancelLongRunningTask() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.finished() {
		return
	}
	c.logger.Debug("task cancellation requested", logging.String("task_id", c.active.id.String()))
	c.active.cancel()
}

// ClearText emits a single Clear. The active task is not affected.
func (c *Coordinator) ClearText() {
	c.emit(state.Clear())
}

// Active reports whether a task is currently mid-flight.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && !c.active.finished()
}

// TaskID returns the ID of the most recent task and whether it is still running.
// The zero UUID is returned when no task has been started.
func (c *Coordinator) TaskID() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return uuid.Nil, false
	}
	return c.active.id, !c.active.finished()
}

// Close tears the coordinator down: the active task is cancelled and
// awaited, in-flight fetches are aborted and awaited, and later Start or
// Fetch calls return ErrCoordinatorClosed. Close is idempotent.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.settleLocked()
	c.mu.Unlock()

	c.baseCancel()
	c.fetches.Wait()
	c.logger.Debug("coordinator closed")
}

// settleLocked cancels the active task and waits for its terminal emission.
// Callers hold c.mu.
func (c *Coordinator) settleLocked() {
	h := c.active
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
	c.active = nil
}

func (c *Coordinator) runTask(ctx context.Context, h *taskHandle) {
	defer close(h.done)
	defer h.cancel()

	ctx, span := tracing.Start(ctx, c.tracer, "coordinator.long_running_task",
		tracing.KeyTaskID.String(h.id.String()),
		tracing.KeyIterations.Int(c.iterations))

	completed, err := c.iterate(ctx)
	span.SetAttributes(tracing.KeyCompleted.Int(completed))

	fields := []logging.Field{
		logging.String("task_id", h.id.String()),
		logging.Int("completed", completed),
	}
	switch {
	case err == nil:
		c.emit(state.Finished())
		c.recorder.TaskFinished()
		c.logger.Info("task finished", fields...)
	case apperrors.IsContextError(err):
		c.emit(state.Cancelled())
		c.recorder.TaskCancelled()
		c.logger.Info("task cancelled", fields...)
	default:
		c.emit(state.OperationFailed(err))
		c.recorder.TaskFailed()
		c.logger.Error("task failed", err, fields...)
	}
	tracing.End(span, err)
}

// iterate runs the counted loop. It returns the number of iterations
// reported to observers and the error that stopped the loop, if any.
func (c *Coordinator) iterate(ctx context.Context) (completed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("long-running task panicked: %v", r)
		}
	}()

	for i := 1; i <= c.iterations; i++ {
		c.emit(state.NewData(fmt.Sprintf("Running task %d\n", i)))
		c.recorder.Iteration()
		completed = i

		if err := c.sleep(ctx, c.stepDelay); err != nil {
			return completed, err
		}
		// A cancellation racing with the timer still stops the loop here.
		if err := ctx.Err(); err != nil {
			return completed, err
		}
	}
	return completed, nil
}

func (c *Coordinator) emit(s state.State) {
	c.bus.Emit(s)
	c.logger.Debug("state emitted", logging.String("state", s.Kind.String()))
}
