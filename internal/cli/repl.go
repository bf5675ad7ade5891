// Package cli provides the line-oriented REPL front-end of the coordinator.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/statebus"
	"github.com/agbru/taskcoord/internal/ui"
)

// Controller is the part of the coordinator driven by user commands.
type Controller interface {
	StartLongRunningTask() error
	CancelLongRunningTask()
	ClearText()
	FetchData() error
	Active() bool
	TaskID() (uuid.UUID, bool)
}

var _ Controller = (*orchestration.Coordinator)(nil)

// REPLConfig holds settings displayed by the status command.
type REPLConfig struct {
	Version    string
	Iterations int
	StepDelay  string
}

// REPL reads commands from in and renders bus states to out.
type REPL struct {
	config REPLConfig
	ctrl   Controller
	bus    *statebus.Bus
	logger logging.Logger
	in     io.Reader
	out    io.Writer
}

// NewREPL creates a REPL bound to stdin and stdout.
func NewREPL(ctrl Controller, bus *statebus.Bus, config REPLConfig) *REPL {
	return &REPL{
		config: config,
		ctrl:   ctrl,
		bus:    bus,
		logger: logging.NopLogger{},
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) { r.in = in }

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) { r.out = out }

// SetLogger sets the logger used for command tracing.
func (r *REPL) SetLogger(l logging.Logger) {
	if l != nil {
		r.logger = l
	}
}

// Start runs the session until quit, end of input or ctx cancellation.
// Only the cancellation case returns an error.
func (r *REPL) Start(ctx context.Context) error {
	out := &lockedWriter{w: r.out}
	renderer := NewRenderer(out)
	stop := orchestration.Observe(ctx, r.bus, renderer, out)
	defer stop()

	r.printBanner(out)
	r.printHelp(out)

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	theme := ui.GetCurrentTheme()
	for {
		fmt.Fprint(out, theme.Colorize(theme.Primary, "task> "))
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				fmt.Fprintln(out, theme.Colorize(theme.Error, fmt.Sprintf("Read error: %v", err)))
			}
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case line := <-lines:
			if !r.processCommand(strings.TrimSpace(line), out) {
				return nil
			}
		}
	}
}

// processCommand executes one command line. It returns false on quit.
func (r *REPL) processCommand(input string, out io.Writer) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return true
	}
	cmd := strings.ToLower(fields[0])
	r.logger.Debug("repl command", logging.String("command", cmd))
	theme := ui.GetCurrentTheme()

	switch cmd {
	case "run", "start", "r":
		r.report(out, r.ctrl.StartLongRunningTask())
	case "cancel", "stop", "x":
		r.ctrl.CancelLongRunningTask()
	case "clear", "c":
		r.ctrl.ClearText()
	case "fetch", "f":
		r.report(out, r.ctrl.FetchData())
	case "status", "st":
		r.printStatus(out)
	case "help", "h", "?":
		r.printHelp(out)
	case "quit", "exit", "q":
		fmt.Fprintln(out, theme.Colorize(theme.Success, "Goodbye!"))
		return false
	default:
		fmt.Fprintln(out, theme.Colorize(theme.Error, "Unknown command: "+cmd))
		fmt.Fprintf(out, "Type %s to see available commands.\n", theme.Colorize(theme.Warning, "help"))
	}
	return true
}

func (r *REPL) report(out io.Writer, err error) {
	if err == nil {
		return
	}
	theme := ui.GetCurrentTheme()
	msg := err.Error()
	if errors.Is(err, orchestration.ErrCoordinatorClosed) {
		msg = "coordinator is shut down"
	}
	fmt.Fprintln(out, theme.Colorize(theme.Error, "Error: "+msg))
}

func (r *REPL) printBanner(out io.Writer) {
	theme := ui.GetCurrentTheme()
	title := "taskcoord interactive mode"
	if r.config.Version != "" {
		title += " " + r.config.Version
	}
	fmt.Fprintln(out, theme.Colorize(theme.Bold, title))
}

func (r *REPL) printHelp(out io.Writer) {
	theme := ui.GetCurrentTheme()
	cmds := []struct{ name, help string }{
		{"run", "start the long-running task (restarts an active one)"},
		{"cancel", "cancel the active task"},
		{"clear", "clear the output"},
		{"fetch", "compare concurrent and sequential fetches"},
		{"status", "show task status"},
		{"help", "show this help"},
		{"quit", "exit"},
	}
	fmt.Fprintln(out, "Commands:")
	for _, c := range cmds {
		fmt.Fprintf(out, "  %s %s\n", theme.Colorize(theme.Warning, fmt.Sprintf("%-7s", c.name)), c.help)
	}
}

func (r *REPL) printStatus(out io.Writer) {
	id, running := r.ctrl.TaskID()
	switch {
	case id == uuid.Nil:
		fmt.Fprintln(out, "Task: idle")
	case running:
		fmt.Fprintf(out, "Task: %s running\n", id)
	default:
		fmt.Fprintf(out, "Task: %s done\n", id)
	}
	if r.config.Iterations > 0 {
		fmt.Fprintf(out, "Iterations: %d, step delay: %s\n", r.config.Iterations, r.config.StepDelay)
	}
	fmt.Fprintf(out, "Subscribers: %d, events emitted: %d, dropped: %d\n",
		r.bus.Subscribers(), r.bus.Emitted(), r.bus.Dropped())
}

// lockedWriter serializes the prompt and the renderer on one terminal.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
