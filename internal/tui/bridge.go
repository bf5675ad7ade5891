package tui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/state"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the bridge goroutine can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
// It is a no-op when no program is attached.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// stateBridge implements orchestration.Renderer by forwarding every bus
// state to the program as a StateMsg.
type stateBridge struct {
	ref *programRef
}

var _ orchestration.Renderer = (*stateBridge)(nil)

// Render drains events and reports the end of the stream with BusClosedMsg.
func (b *stateBridge) Render(wg *sync.WaitGroup, events <-chan state.State, _ io.Writer) {
	defer wg.Done()
	for s := range events {
		b.ref.Send(StateMsg{State: s})
	}
	b.ref.Send(BusClosedMsg{})
}
