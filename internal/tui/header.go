package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/taskcoord/internal/errors"
	"github.com/agbru/taskcoord/internal/format"
	"github.com/agbru/taskcoord/internal/state"
)

// Task status labels shown in the header.
const (
	statusIdle      = "IDLE"
	statusRunning   = "RUNNING"
	statusFinished  = "FINISHED"
	statusCancelled = "CANCELLED"
	statusFailed    = "FAILED"
)

// HeaderModel renders the top bar: title, version, task elapsed time and
// task status.
type HeaderModel struct {
	startTime time.Time
	endTime   time.Time
	version   string
	status    string
	width     int
	now       func() time.Time
}

// NewHeaderModel creates a header for an idle session.
func NewHeaderModel(version string) HeaderModel {
	return HeaderModel{version: version, status: statusIdle, now: time.Now}
}

// Observe updates the status and the elapsed timer from a bus state.
func (h *HeaderModel) Observe(s state.State) {
	switch s.Kind {
	case state.KindRunning:
		h.startTime = h.now()
		h.endTime = time.Time{}
		h.status = statusRunning
	case state.KindFinished:
		h.stop(statusFinished)
	case state.KindCancelled:
		h.stop(statusCancelled)
	case state.KindOperationFailed:
		if h.status != statusRunning {
			h.status = statusFailed
			return
		}
		// Fetch failures carry an OperationError and do not end the task.
		var opErr *apperrors.OperationError
		if errors.As(s.Err, &opErr) {
			return
		}
		h.stop(statusFailed)
	}
}

func (h *HeaderModel) stop(status string) {
	h.endTime = h.now()
	h.status = status
}

// Status returns the current status label.
func (h HeaderModel) Status() string { return h.status }

// Elapsed returns the duration of the current or last task.
func (h HeaderModel) Elapsed() time.Duration {
	switch {
	case h.startTime.IsZero():
		return 0
	case h.endTime.IsZero():
		return h.now().Sub(h.startTime)
	default:
		return h.endTime.Sub(h.startTime)
	}
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) {
	h.width = w
}

// View renders the header.
func (h HeaderModel) View() string {
	titleText := "taskcoord"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	left := titleStyle.Render(titleText) +
		versionStyle.Render(" | ") +
		elapsedStyle.Render("Elapsed: "+format.FormatElapsed(h.Elapsed()))
	right := h.statusStyle().Render(h.status)

	gap := max(0, h.width-2-lipgloss.Width(left)-lipgloss.Width(right))
	return headerStyle.Width(h.width).Render(left + spaces(gap) + right)
}

func (h HeaderModel) statusStyle() lipgloss.Style {
	switch h.status {
	case statusRunning:
		return statusRunningStyle
	case statusFinished:
		return statusDoneStyle
	case statusCancelled:
		return statusCancelStyle
	case statusFailed:
		return statusErrorStyle
	default:
		return statusIdleStyle
	}
}

// spaces returns a string of n space characters.
func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
