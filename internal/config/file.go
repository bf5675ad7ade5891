package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/taskcoord/internal/errors"
)

// fileConfig is the YAML layout of a configuration file. Keys mirror the
// long flag names with underscores. Absent keys keep the current value.
type fileConfig struct {
	Mode       *string `yaml:"mode"`
	Iterations *int    `yaml:"iterations"`
	StepDelay  *string `yaml:"step_delay"`
	OpALatency *string `yaml:"op_a_latency"`
	OpBLatency *string `yaml:"op_b_latency"`
	BusBuffer  *int    `yaml:"bus_buffer"`
	Addr       *string `yaml:"addr"`
	LogLevel   *string `yaml:"log_level"`
	LogFile    *string `yaml:"log_file"`
	TraceFile  *string `yaml:"trace_file"`
	NoColor    *bool   `yaml:"no_color"`
}

// loadFile reads a YAML configuration file. Unknown keys and malformed
// durations are reported as configuration errors.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("reading config file: %v", err)
	}
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewConfigError("parsing config file %s: %v", path, err)
	}
	durations := []struct {
		key string
		val *string
	}{
		{"step_delay", fc.StepDelay},
		{"op_a_latency", fc.OpALatency},
		{"op_b_latency", fc.OpBLatency},
	}
	for _, d := range durations {
		if d.val == nil {
			continue
		}
		if _, err := time.ParseDuration(*d.val); err != nil {
			return nil, apperrors.NewConfigError("config file %s: invalid %s %q", path, d.key, *d.val)
		}
	}
	return &fc, nil
}

// apply copies every key present in the file onto config, skipping the
// settings whose flag was given on the command line.
func (fc *fileConfig) apply(config *AppConfig, fs *pflag.FlagSet) {
	setString := func(flag string, src *string, dst *string) {
		if src != nil && !fs.Changed(flag) {
			*dst = *src
		}
	}
	setInt := func(flag string, src *int, dst *int) {
		if src != nil && !fs.Changed(flag) {
			*dst = *src
		}
	}
	setDuration := func(flag string, src *string, dst *time.Duration) {
		if src == nil || fs.Changed(flag) {
			return
		}
		// Validated by loadFile.
		d, _ := time.ParseDuration(*src)
		*dst = d
	}

	setString("mode", fc.Mode, &config.Mode)
	setInt("iterations", fc.Iterations, &config.Iterations)
	setDuration("step-delay", fc.StepDelay, &config.StepDelay)
	setDuration("op-a-latency", fc.OpALatency, &config.OpALatency)
	setDuration("op-b-latency", fc.OpBLatency, &config.OpBLatency)
	setInt("bus-buffer", fc.BusBuffer, &config.BusBuffer)
	setString("addr", fc.Addr, &config.Addr)
	setString("log-level", fc.LogLevel, &config.LogLevel)
	setString("log-file", fc.LogFile, &config.LogFile)
	setString("trace-file", fc.TraceFile, &config.TraceFile)
	if fc.NoColor != nil && !fs.Changed("no-color") {
		config.NoColor = *fc.NoColor
	}
}
