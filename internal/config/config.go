// Package config parses command-line flags, TASKCOORD_ environment
// variables and an optional YAML file into an AppConfig.
package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/taskcoord/internal/errors"
	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/statebus"
)

// EnvPrefix prefixes every environment variable read by the application.
const EnvPrefix = "TASKCOORD_"

// Front-end modes.
const (
	ModeTUI   = "tui"
	ModeREPL  = "repl"
	ModeServe = "serve"
)

// Defaults that are not owned by another package.
const (
	DefaultAddr     = "127.0.0.1:8080"
	DefaultLogLevel = "info"
)

// Modes lists the accepted values of --mode.
var Modes = []string{ModeTUI, ModeREPL, ModeServe}

// Shells lists the accepted values of --completion.
var Shells = []string{"bash", "zsh", "fish"}

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Mode selects the front-end: tui, repl or serve.
	Mode string
	// Iterations is the number of steps of the long-running task.
	Iterations int
	// StepDelay is the pause after each iteration.
	StepDelay time.Duration
	// OpALatency and OpBLatency are the latencies of the fetch operations.
	OpALatency time.Duration
	OpBLatency time.Duration
	// BusBuffer is the per-subscription event buffer.
	BusBuffer int
	// Addr is the listen address of serve mode.
	Addr string
	// LogLevel is a zerolog level name.
	LogLevel string
	// LogFile receives logs in TUI mode. Empty discards them.
	LogFile string
	// TraceFile receives finished spans as JSON. Empty disables tracing.
	TraceFile string
	// NoColor disables colored output.
	NoColor bool
	// ConfigFile is the YAML file the other settings were read from.
	ConfigFile string
	// Completion names a shell whose completion script is printed instead
	// of running a front-end.
	Completion string
}

// Default returns the configuration used when no flag or variable is set.
func Default() AppConfig {
	return AppConfig{
		Mode:       ModeTUI,
		Iterations: orchestration.DefaultIterations,
		StepDelay:  orchestration.DefaultStepDelay,
		OpALatency: orchestration.DefaultOpALatency,
		OpBLatency: orchestration.DefaultOpBLatency,
		BusBuffer:  statebus.DefaultBufferSize,
		Addr:       DefaultAddr,
		LogLevel:   DefaultLogLevel,
	}
}

// ParseConfig parses args (without the program name) into an AppConfig.
// Priority is CLI flags, then environment variables, then the YAML file
// named by --config or TASKCOORD_CONFIG, then defaults.
// Help requests return pflag.ErrHelp.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	fs := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.SortFlags = false

	config := Default()
	fs.StringVarP(&config.Mode, "mode", "m", config.Mode, "Front-end to run: "+strings.Join(Modes, ", "))
	fs.IntVarP(&config.Iterations, "iterations", "n", config.Iterations, "Number of iterations of the long-running task")
	fs.DurationVar(&config.StepDelay, "step-delay", config.StepDelay, "Pause after each iteration")
	fs.DurationVar(&config.OpALatency, "op-a-latency", config.OpALatency, "Latency of the first fetch operation")
	fs.DurationVar(&config.OpBLatency, "op-b-latency", config.OpBLatency, "Latency of the second fetch operation")
	fs.IntVar(&config.BusBuffer, "bus-buffer", config.BusBuffer, "Per-subscriber event buffer")
	fs.StringVarP(&config.Addr, "addr", "a", config.Addr, "Listen address in serve mode")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&config.LogFile, "log-file", config.LogFile, "Write logs to this file (TUI mode discards logs otherwise)")
	fs.StringVar(&config.TraceFile, "trace-file", config.TraceFile, "Export OpenTelemetry spans to this file")
	fs.BoolVar(&config.NoColor, "no-color", config.NoColor, "Disable colored output")
	fs.StringVar(&config.ConfigFile, "config", "", "Read settings from this YAML file")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script for "+strings.Join(Shells, ", ")+" and exit")
	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [flags]\n\n", programName)
		fmt.Fprintln(errWriter, "Runs a cancellable long-running task and a concurrent fetch demonstration.")
		fmt.Fprintln(errWriter)
		fs.PrintDefaults()
		fmt.Fprintf(errWriter, "\nEvery flag can also be set through %s<FLAG> (e.g. %sSTEP_DELAY=250ms).\n", EnvPrefix, EnvPrefix)
	}

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		err := apperrors.NewConfigError("unexpected argument %q", fs.Arg(0))
		fmt.Fprintln(errWriter, err)
		return AppConfig{}, err
	}

	if config.ConfigFile == "" {
		config.ConfigFile = os.Getenv(EnvPrefix + "CONFIG")
	}
	if config.ConfigFile != "" {
		fc, err := loadFile(config.ConfigFile)
		if err != nil {
			fmt.Fprintln(errWriter, err)
			return AppConfig{}, err
		}
		fc.apply(&config, fs)
	}
	applyEnvOverrides(&config, fs)
	config.Mode = strings.ToLower(strings.TrimSpace(config.Mode))

	if err := config.Validate(); err != nil {
		fmt.Fprintln(errWriter, err)
		return AppConfig{}, err
	}
	return config, nil
}

// Validate checks the configuration for semantic errors.
func (c AppConfig) Validate() error {
	switch {
	case c.Completion != "" && !slices.Contains(Shells, c.Completion):
		return apperrors.ValidationError{Field: "completion", Message: fmt.Sprintf("must be one of %s", strings.Join(Shells, ", "))}
	case !slices.Contains(Modes, c.Mode):
		return apperrors.ValidationError{Field: "mode", Message: fmt.Sprintf("must be one of %s", strings.Join(Modes, ", "))}
	case c.Iterations < 1:
		return apperrors.ValidationError{Field: "iterations", Message: "must be at least 1"}
	case c.StepDelay < 0:
		return apperrors.ValidationError{Field: "step-delay", Message: "must not be negative"}
	case c.OpALatency < 0:
		return apperrors.ValidationError{Field: "op-a-latency", Message: "must not be negative"}
	case c.OpBLatency < 0:
		return apperrors.ValidationError{Field: "op-b-latency", Message: "must not be negative"}
	case c.BusBuffer < 1:
		return apperrors.ValidationError{Field: "bus-buffer", Message: "must be at least 1"}
	case c.Mode == ModeServe && strings.TrimSpace(c.Addr) == "":
		return apperrors.ValidationError{Field: "addr", Message: "is required in serve mode"}
	}
	return nil
}
