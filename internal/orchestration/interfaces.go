//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

package orchestration

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/statebus"
)

// Operation is an opaque asynchronous producer of a string result.
// The fetch demonstration only relies on its latency and result.
type Operation interface {
	// Name identifies the operation in logs, spans and errors.
	Name() string
	// Do blocks until the result is available. The context is only
	// cancelled when the coordinator is torn down.
	Do(ctx context.Context) (string, error)
}

// Recorder receives lifecycle counters. The metrics package provides the
// Prometheus implementation; NullRecorder discards everything.
type Recorder interface {
	TaskStarted()
	TaskFinished()
	TaskCancelled()
	TaskFailed()
	Iteration()
	FetchCompleted(concurrent, sequential time.Duration)
	FetchFailed()
}

// NullRecorder is a no-op Recorder.
type NullRecorder struct{}

func (NullRecorder) TaskStarted()                               {}
func (NullRecorder) TaskFinished()                              {}
func (NullRecorder) TaskCancelled()                             {}
func (NullRecorder) TaskFailed()                                {}
func (NullRecorder) Iteration()                                 {}
func (NullRecorder) FetchCompleted(time.Duration, time.Duration) {}
func (NullRecorder) FetchFailed()                               {}

// Renderer is the presentation collaborator. Implementations turn states
// into visible output (terminal text, TUI messages, SSE frames).
type Renderer interface {
	// Render consumes events until the channel is closed, then calls wg.Done.
	Render(wg *sync.WaitGroup, events <-chan state.State, out io.Writer)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(wg *sync.WaitGroup, events <-chan state.State, out io.Writer)

// Render calls the underlying function.
func (f RendererFunc) Render(wg *sync.WaitGroup, events <-chan state.State, out io.Writer) {
	f(wg, events, out)
}

// NullRenderer drains events without output. Useful for quiet mode or testing.
type NullRenderer struct{}

// Render drains the channel silently.
func (NullRenderer) Render(wg *sync.WaitGroup, events <-chan state.State, _ io.Writer) {
	defer wg.Done()
	for range events {
	}
}

// Observe subscribes r to bus until ctx is done or the returned stop
// function is called. stop blocks until the renderer has returned.
func Observe(ctx context.Context, bus *statebus.Bus, r Renderer, out io.Writer) (stop func()) {
	sub := bus.Subscribe(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go r.Render(&wg, sub.Events(), out)
	return func() {
		sub.Close()
		wg.Wait()
	}
}
