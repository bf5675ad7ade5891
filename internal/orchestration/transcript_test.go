package orchestration

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/taskcoord/internal/orchestration/mocks"
	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/statebus"
)

func TestRenderLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   state.State
		want string
	}{
		{"running", state.Running(), "Task started\n"},
		{"finished", state.Finished(), "Task finished\n"},
		{"cancelled", state.Cancelled(), "Task was cancelled\n"},
		{"clear", state.Clear(), ""},
		{"new data verbatim", state.NewData("Running task 4\n"), "Running task 4\n"},
		{"new data without newline", state.NewData("partial"), "partial"},
		{"operation failed", state.OperationFailed(errors.New("opB timed out")), "Operation failed: opB timed out\n"},
		{"unknown kind", state.State{Kind: state.Kind(99)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RenderLine(tt.in); got != tt.want {
				t.Errorf("RenderLine(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTranscriptCancelScenario(t *testing.T) {
	t.Parallel()
	var tr Transcript
	for _, s := range []state.State{
		state.Clear(), state.Running(),
		iteration(1), iteration(2), iteration(3),
		state.Cancelled(),
	} {
		tr.Apply(s)
	}

	want := "Task started\nRunning task 1\nRunning task 2\nRunning task 3\nTask was cancelled\n"
	if tr.String() != want {
		t.Errorf("transcript = %q, want %q", tr.String(), want)
	}
	if lines := tr.Lines(); len(lines) != 5 || lines[4] != "Task was cancelled" {
		t.Errorf("Lines() = %q", lines)
	}
}

func TestTranscriptClearResets(t *testing.T) {
	t.Parallel()
	var tr Transcript
	tr.Apply(state.Running())
	if delta := tr.Apply(state.Clear()); delta != "" {
		t.Errorf("Clear delta = %q, want empty", delta)
	}
	if tr.String() != "" || tr.Lines() != nil {
		t.Errorf("transcript not empty after Clear: %q", tr.String())
	}

	tr.Apply(state.NewData("x\n"))
	tr.Reset()
	if tr.String() != "" {
		t.Error("Reset should empty the transcript")
	}
}

func TestTranscriptProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	kinds := gen.IntRange(int(state.KindRunning), int(state.KindOperationFailed))

	properties.Property("transcript equals concatenated deltas since the last Clear", prop.ForAll(
		func(ks []int) bool {
			var tr Transcript
			var want strings.Builder
			for _, k := range ks {
				s := state.State{Kind: state.Kind(k), Text: "t\n"}
				delta := tr.Apply(s)
				if s.Kind == state.KindClear {
					want.Reset()
					continue
				}
				if delta != RenderLine(s) {
					return false
				}
				want.WriteString(delta)
			}
			return tr.String() == want.String()
		},
		gen.SliceOf(kinds),
	))

	properties.TestingRun(t)
}

func TestObserveDeliversToRenderer(t *testing.T) {
	t.Parallel()
	bus := statebus.New()
	defer bus.Close()

	var (
		mu  sync.Mutex
		got []state.State
	)
	seen := make(chan struct{}, 8)
	stop := Observe(context.Background(), bus, RendererFunc(func(wg *sync.WaitGroup, events <-chan state.State, _ io.Writer) {
		defer wg.Done()
		for s := range events {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
			seen <- struct{}{}
		}
	}), io.Discard)

	bus.Emit(state.Running())
	bus.Emit(state.Finished())
	<-seen
	<-seen
	stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0].Kind != state.KindRunning || got[1].Kind != state.KindFinished {
		t.Errorf("renderer saw %v", got)
	}
	if bus.Subscribers() != 0 {
		t.Errorf("stop should detach the subscription, %d left", bus.Subscribers())
	}
}

func TestObserveWithMockRenderer(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	bus := statebus.New()
	defer bus.Close()

	r := mocks.NewMockRenderer(ctrl)
	r.EXPECT().Render(gomock.Any(), gomock.Any(), io.Discard).Do(
		func(wg *sync.WaitGroup, events <-chan state.State, _ io.Writer) {
			NullRenderer{}.Render(wg, events, nil)
		})

	stop := Observe(context.Background(), bus, r, io.Discard)
	bus.Emit(state.Clear())
	stop()
}
