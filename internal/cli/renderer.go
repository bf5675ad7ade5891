package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/ui"
)

// clearedLine marks a Clear in a scrolling terminal, where the previous
// text cannot actually be erased.
const clearedLine = "── cleared ──\n"

// Renderer prints transcript deltas to a line-oriented terminal. A spinner
// animates between Running and the terminal state of each task.
type Renderer struct {
	mu         sync.Mutex
	transcript orchestration.Transcript
	spinner    Spinner
	spinning   bool
}

var _ orchestration.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer whose spinner writes to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{spinner: newSpinner(out)}
}

// Render consumes events until the channel is closed.
func (r *Renderer) Render(wg *sync.WaitGroup, events <-chan state.State, out io.Writer) {
	defer wg.Done()
	defer r.stopSpinner()
	for s := range events {
		r.handle(s, out)
	}
}

func (r *Renderer) handle(s state.State, out io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The spinner redraws its own line; pause it so text lands cleanly.
	if r.spinning {
		r.spinner.Stop()
	}

	theme := ui.GetCurrentTheme()
	delta := r.transcript.Apply(s)
	switch s.Kind {
	case state.KindClear:
		fmt.Fprint(out, theme.Colorize(theme.Secondary, clearedLine))
	case state.KindNewData:
		fmt.Fprint(out, delta)
	default:
		fmt.Fprint(out, theme.Colorize(theme.StateColor(s.Kind), delta))
	}

	switch {
	case s.Kind == state.KindRunning:
		r.spinning = true
		r.spinner.UpdateSuffix(" task running")
	case s.IsTerminal(), s.Kind == state.KindOperationFailed:
		r.spinning = false
	}
	if r.spinning {
		r.spinner.Start()
	}
}

func (r *Renderer) stopSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinning {
		r.spinner.Stop()
		r.spinning = false
	}
}

// Transcript returns the text accumulated since the last Clear.
func (r *Renderer) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript.String()
}
