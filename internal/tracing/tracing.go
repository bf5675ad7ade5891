// Package tracing exposes the OpenTelemetry tracer used by the coordinator.
// Until Install registers an SDK provider, otel hands out a no-op tracer.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/taskcoord/internal/errors"
)

// InstrumentationName identifies spans produced by this module.
const InstrumentationName = "github.com/agbru/taskcoord"

// Attribute keys shared by coordinator spans.
const (
	KeyTaskID     = attribute.Key("task.id")
	KeyIterations = attribute.Key("task.iterations")
	KeyCompleted  = attribute.Key("task.completed_iterations")
	KeyOperation  = attribute.Key("operation.name")
	KeyPhase      = attribute.Key("fetch.phase")
)

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// NewProvider builds an SDK provider exporting finished spans to w as
// JSON, one span per document.
func NewProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("creating span exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp)), nil
}

// Install builds a provider on w and registers it globally. The returned
// function flushes pending spans and shuts the provider down.
func Install(w io.Writer) (shutdown func(context.Context) error, err error) {
	tp, err := NewProvider(w)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Start opens a span named name on tracer.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End closes span, recording err unless it is nil. Cancellation is an
// expected outcome and is recorded as an event rather than an error status.
func End(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case apperrors.IsContextError(err):
		span.AddEvent("cancelled")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
