package orchestration

import (
	"strings"

	"github.com/agbru/taskcoord/internal/state"
)

// Transcript lines written for payload-free states.
const (
	TaskStartedLine   = "Task started\n"
	TaskFinishedLine  = "Task finished\n"
	TaskCancelledLine = "Task was cancelled\n"
	opFailedPrefix    = "Operation failed: "
)

// RenderLine returns the text a state appends to a transcript. Clear and
// unknown kinds append nothing.
func RenderLine(s state.State) string {
	switch s.Kind {
	case state.KindRunning:
		return TaskStartedLine
	case state.KindFinished:
		return TaskFinishedLine
	case state.KindCancelled:
		return TaskCancelledLine
	case state.KindNewData:
		return s.Text
	case state.KindOperationFailed:
		return opFailedPrefix + s.Text + "\n"
	default:
		return ""
	}
}

// Transcript accumulates the visible text of a session. Both the CLI and the
// TUI feed it states so they render identically.
// A Transcript is not safe for concurrent use.
type Transcript struct {
	b strings.Builder
}

// Apply folds s into the transcript and returns the text appended.
// Clear empties the transcript and returns "".
func (t *Transcript) Apply(s state.State) string {
	if s.Kind == state.KindClear {
		t.b.Reset()
		return ""
	}
	line := RenderLine(s)
	t.b.WriteString(line)
	return line
}

// String returns the accumulated text.
func (t *Transcript) String() string {
	return t.b.String()
}

// Lines splits the transcript on newlines, dropping the trailing empty line.
func (t *Transcript) Lines() []string {
	text := strings.TrimSuffix(t.b.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Reset empties the transcript.
func (t *Transcript) Reset() {
	t.b.Reset()
}
