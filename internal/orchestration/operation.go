package orchestration

import (
	"context"
	"time"
)

// Default latencies and results of the two demonstration operations.
const (
	DefaultOpALatency = 500 * time.Millisecond
	DefaultOpBLatency = 1500 * time.Millisecond
	OpAResult         = "Hello"
	OpBResult         = "World"
)

// Sleeper suspends the caller for d or until ctx is done, whichever comes
// first. It is the only point where the long-running task observes
// cancellation.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper backed by a timer.
// A context that is already done wins over an expired timer.
func SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DelayedOperation returns a fixed result after a fixed latency.
type DelayedOperation struct {
	OpName  string
	Latency time.Duration
	Result  string
	// Sleep defaults to SleepContext.
	Sleep Sleeper
}

// Name returns the operation name.
func (o DelayedOperation) Name() string { return o.OpName }

// Do waits for Latency and returns Result.
func (o DelayedOperation) Do(ctx context.Context) (string, error) {
	sleep := o.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	if err := sleep(ctx, o.Latency); err != nil {
		return "", err
	}
	return o.Result, nil
}

// NewOpA returns the short operation producing "Hello".
func NewOpA(latency time.Duration) DelayedOperation {
	return DelayedOperation{OpName: "opA", Latency: latency, Result: OpAResult}
}

// NewOpB returns the long operation producing "World".
func NewOpB(latency time.Duration) DelayedOperation {
	return DelayedOperation{OpName: "opB", Latency: latency, Result: OpBResult}
}
