package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func TestTracerNotNil(t *testing.T) {
	if Tracer() == nil {
		t.Fatal("Tracer() returned nil")
	}
}

func TestStartEnd(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvent  string
	}{
		{"ok", nil, codes.Ok, ""},
		{"cancelled", context.Canceled, codes.Unset, "cancelled"},
		{"failed", errors.New("boom"), codes.Error, "exception"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr, tp := newRecorder()
			tracer := tp.Tracer(InstrumentationName)

			ctx, span := Start(context.Background(), tracer, "test", KeyTaskID.String("t-1"), KeyIterations.Int(10))
			if ctx == nil || span == nil {
				t.Fatal("Start returned nil context or span")
			}
			End(span, tt.err)

			ended := sr.Ended()
			if len(ended) != 1 {
				t.Fatalf("ended spans = %d, want 1", len(ended))
			}
			got := ended[0]
			if got.Status().Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", got.Status().Code, tt.wantStatus)
			}
			var attrs []string
			for _, kv := range got.Attributes() {
				attrs = append(attrs, string(kv.Key)+"="+kv.Value.Emit())
			}
			joined := strings.Join(attrs, ",")
			if !strings.Contains(joined, "task.id=t-1") || !strings.Contains(joined, "task.iterations=10") {
				t.Errorf("attributes = %s", joined)
			}
			if tt.wantEvent == "" {
				if len(got.Events()) != 0 {
					t.Errorf("unexpected events %v", got.Events())
				}
				return
			}
			if len(got.Events()) != 1 || got.Events()[0].Name != tt.wantEvent {
				t.Errorf("events = %v, want one %q", got.Events(), tt.wantEvent)
			}
		})
	}
}

func TestProviderExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider(&buf)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	_, span := Start(context.Background(), tp.Tracer(InstrumentationName), "coordinator.fetch")
	End(span, nil)
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), `"Name":"coordinator.fetch"`) {
		t.Errorf("exported spans should name the span:\n%s", buf.String())
	}
}

func TestInstallRegistersGlobalProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := Install(&buf)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	_, span := Start(context.Background(), Tracer(), "coordinator.long_running_task")
	End(span, nil)
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "coordinator.long_running_task") {
		t.Errorf("global tracer did not export:\n%s", buf.String())
	}
}
