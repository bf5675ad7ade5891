// Package state defines the lifecycle events published by the task
// coordinator. A State is a closed variant: its Kind selects the case and
// only NewData and OperationFailed carry a payload.
package state

import "fmt"

// Kind identifies the case of a State.
type Kind int

const (
	KindRunning         Kind = iota // Task has just started
	KindFinished                    // Task completed all iterations normally
	KindClear                       // Displayed output should be reset
	KindCancelled                   // Active task was cancelled before completing
	KindNewData                     // Incremental or final textual output
	KindOperationFailed             // An asynchronous operation raised a fault
)

func (k Kind) String() string {
	switch k {
	case KindRunning:
		return "Running"
	case KindFinished:
		return "Finished"
	case KindClear:
		return "Clear"
	case KindCancelled:
		return "Cancelled"
	case KindNewData:
		return "NewData"
	case KindOperationFailed:
		return "OperationFailed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// State is a single lifecycle event. The zero value is not a valid event;
// use the constructors below.
type State struct {
	// Kind selects the variant.
	Kind Kind
	// Text is the payload of NewData, or the error message of OperationFailed.
	Text string
	// Err is the fault carried by OperationFailed. Nil for every other kind.
	Err error
}

// Running returns the event emitted when a task starts.
func Running() State { return State{Kind: KindRunning} }

// Finished returns the event emitted when a task completes all iterations.
func Finished() State { return State{Kind: KindFinished} }

// Clear returns the event asking observers to reset their output.
func Clear() State { return State{Kind: KindClear} }

// Cancelled returns the event emitted when a task observes cancellation.
func Cancelled() State { return State{Kind: KindCancelled} }

// NewData returns an output event carrying text verbatim.
func NewData(text string) State { return State{Kind: KindNewData, Text: text} }

// OperationFailed returns the event reporting an unexpected fault.
func OperationFailed(err error) State {
	s := State{Kind: KindOperationFailed, Err: err}
	if err != nil {
		s.Text = err.Error()
	}
	return s
}

// IsTerminal reports whether s ends a task instance.
func (s State) IsTerminal() bool {
	return s.Kind == KindFinished || s.Kind == KindCancelled
}

// Equal compares kind and text. Errors are compared by message since
// wrapped faults rarely share identity.
func (s State) Equal(o State) bool {
	return s.Kind == o.Kind && s.Text == o.Text
}

func (s State) String() string {
	switch s.Kind {
	case KindNewData:
		return fmt.Sprintf("NewData(%q)", s.Text)
	case KindOperationFailed:
		return fmt.Sprintf("OperationFailed(%q)", s.Text)
	default:
		return s.Kind.String()
	}
}
