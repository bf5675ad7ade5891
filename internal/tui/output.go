package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/state"
)

// outputLine is one rendered transcript line and the kind that wrote it.
type outputLine struct {
	text string
	kind state.Kind
}

// OutputModel is the scrollable transcript panel. It follows new output
// unless the user has scrolled up.
type OutputModel struct {
	viewport   viewport.Model
	transcript orchestration.Transcript
	lines      []outputLine
	width      int
	height     int
}

// NewOutputModel creates an empty output panel.
func NewOutputModel() OutputModel {
	return OutputModel{viewport: viewport.New(0, 0)}
}

// Apply folds a bus state into the panel.
func (o *OutputModel) Apply(s state.State) {
	delta := o.transcript.Apply(s)
	if s.Kind == state.KindClear {
		o.lines = o.lines[:0]
		o.refresh(true)
		return
	}
	if delta == "" {
		return
	}
	follow := o.viewport.AtBottom()
	for _, l := range strings.Split(strings.TrimSuffix(delta, "\n"), "\n") {
		o.lines = append(o.lines, outputLine{text: l, kind: s.Kind})
	}
	o.refresh(follow)
}

// Text returns the plain transcript.
func (o *OutputModel) Text() string { return o.transcript.String() }

// SetSize updates the panel dimensions, borders included.
func (o *OutputModel) SetSize(w, h int) {
	o.width, o.height = w, h
	o.viewport.Width = max(0, w-2)
	o.viewport.Height = max(0, h-3)
	o.refresh(true)
}

// Update forwards scroll keys to the viewport.
func (o *OutputModel) Update(msg tea.Msg) {
	o.viewport, _ = o.viewport.Update(msg)
}

func (o *OutputModel) refresh(follow bool) {
	rendered := make([]string, len(o.lines))
	for i, l := range o.lines {
		rendered[i] = lineStyle(l.kind).Render(l.text)
	}
	o.viewport.SetContent(strings.Join(rendered, "\n"))
	if follow {
		o.viewport.GotoBottom()
	}
}

// View renders the panel.
func (o OutputModel) View() string {
	title := panelTitleStyle.Render("Output")
	return panelStyle.Width(max(0, o.width-2)).Render(title + "\n" + o.viewport.View())
}
