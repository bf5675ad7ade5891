package tui

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/taskcoord/internal/statebus"
	"github.com/agbru/taskcoord/internal/sysmon"
)

// fakeController records the commands it receives.
type fakeController struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeController) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeController) StartLongRunningTask() error { return f.record("start") }
func (f *fakeController) CancelLongRunningTask()      { _ = f.record("cancel") }
func (f *fakeController) ClearText()                  { _ = f.record("clear") }
func (f *fakeController) FetchData() error            { return f.record("fetch") }

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestModel(t *testing.T, ctrl Controller) (Model, *statebus.Bus) {
	t.Helper()
	bus := statebus.New()
	t.Cleanup(bus.Close)
	m := NewModel(t.Context(), ctrl, bus, "v1.0.0")
	m.sample = func() sysmon.Stats { return sysmon.Stats{CPUPercent: 42, MemPercent: 17, Goroutines: 7, HeapAlloc: 2048} }
	return m, bus
}

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

var errFake = errors.New("fake failure")
