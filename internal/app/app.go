// Package app wires configuration, logging, the state bus and the
// coordinator together and dispatches to the selected front-end.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/agbru/taskcoord/internal/cli"
	"github.com/agbru/taskcoord/internal/config"
	apperrors "github.com/agbru/taskcoord/internal/errors"
	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/metrics"
	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/server"
	"github.com/agbru/taskcoord/internal/statebus"
	"github.com/agbru/taskcoord/internal/tracing"
	"github.com/agbru/taskcoord/internal/tui"
	"github.com/agbru/taskcoord/internal/ui"
)

// Application represents the taskcoord application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer
	In        io.Reader
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithInput sets the command input of REPL mode.
func WithInput(r io.Reader) AppOption {
	return func(a *Application) { a.In = r }
}

// New creates a new Application instance by parsing command-line arguments.
// args includes the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, In: os.Stdin}
	for _, opt := range opts {
		opt(app)
	}

	programName := "taskcoord"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// traceShutdownTimeout bounds the final span flush on exit.
const traceShutdownTimeout = 5 * time.Second

// session holds the components shared by every front-end.
type session struct {
	bus       *statebus.Bus
	collector *metrics.Collector
	coord     *orchestration.Coordinator
	logger    logging.Logger

	// Set when spans are exported to --trace-file.
	shutdownTrace func(context.Context) error
	traceFile     *os.File
}

func newSession(cfg config.AppConfig, logger logging.Logger) (*session, error) {
	s := &session{logger: logger}
	if cfg.TraceFile != "" {
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening trace file: %w", err)
		}
		shutdown, err := tracing.Install(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		s.shutdownTrace, s.traceFile = shutdown, f
	}

	bus := statebus.New(statebus.WithBufferSize(cfg.BusBuffer))
	collector := metrics.NewCollector(bus)
	coord := orchestration.NewCoordinator(bus,
		orchestration.WithLogger(logger),
		orchestration.WithRecorder(collector),
		orchestration.WithTracer(tracing.Tracer()),
		orchestration.WithIterations(cfg.Iterations),
		orchestration.WithStepDelay(cfg.StepDelay),
		orchestration.WithOperations(
			orchestration.NewOpA(cfg.OpALatency),
			orchestration.NewOpB(cfg.OpBLatency)))
	s.bus, s.collector, s.coord = bus, collector, coord
	return s, nil
}

// close tears the coordinator down, then the bus, then flushes spans so the
// terminal span of a cancelled task reaches the trace file.
func (s *session) close() {
	s.coord.Close()
	s.bus.Close()
	if s.shutdownTrace == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), traceShutdownTimeout)
	defer cancel()
	if err := s.shutdownTrace(ctx); err != nil {
		s.logger.Error("trace shutdown failed", err)
	}
	_ = s.traceFile.Close()
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	zerolog.SetGlobalLevel(logging.ParseLevel(a.Config.LogLevel))
	ui.InitTheme(a.Config.NoColor)

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	logger, closeLog, err := a.newLogger()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error opening log file: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	defer closeLog()

	s, err := newSession(a.Config, logger)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	defer s.close()
	logger.Debug("session ready",
		logging.String("mode", a.Config.Mode),
		logging.Int("iterations", a.Config.Iterations),
		logging.Duration("step_delay", a.Config.StepDelay))

	switch a.Config.Mode {
	case config.ModeREPL:
		return a.runREPL(ctx, out, s, logger)
	case config.ModeServe:
		return a.runServer(ctx, s, logger)
	default:
		if !isTerminal(a.In) || !isTerminal(out) {
			fmt.Fprintln(a.ErrWriter, "Not a terminal, falling back to repl mode.")
			return a.runREPL(ctx, out, s, logger)
		}
		return tui.Run(ctx, s.coord, s.bus, tui.Config{Version: Version, Logger: logger})
	}
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newLogger builds the application logger. Interactive modes own the
// terminal, so they log to --log-file or nowhere.
func (a *Application) newLogger() (logging.Logger, func(), error) {
	if a.Config.LogFile != "" {
		f, err := os.OpenFile(a.Config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return logging.NewLogger(f, "taskcoord"), func() { _ = f.Close() }, nil
	}
	if a.Config.Mode == config.ModeServe {
		return logging.NewLogger(a.ErrWriter, "taskcoord"), func() {}, nil
	}
	return logging.NopLogger{}, func() {}, nil
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, "taskcoord"); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runREPL runs the line-oriented front-end until quit or a signal.
func (a *Application) runREPL(ctx context.Context, out io.Writer, s *session, logger logging.Logger) int {
	repl := cli.NewREPL(s.coord, s.bus, cli.REPLConfig{
		Version:    Version,
		Iterations: a.Config.Iterations,
		StepDelay:  a.Config.StepDelay.String(),
	})
	repl.SetInput(a.In)
	repl.SetOutput(out)
	repl.SetLogger(logger)
	if err := repl.Start(ctx); err != nil {
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

// runServer serves the HTTP control surface until a signal arrives.
func (a *Application) runServer(ctx context.Context, s *session, logger logging.Logger) int {
	srv := server.New(s.coord, s.bus, s.collector,
		server.WithAddr(a.Config.Addr),
		server.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		logger.Error("server failed", err)
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, pflag.ErrHelp)
}
