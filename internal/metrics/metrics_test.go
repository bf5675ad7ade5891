package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/statebus"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()
	c := NewCollector(nil)
	if c == nil || c.handler == nil || c.Registry() == nil {
		t.Fatal("NewCollector returned an incomplete collector")
	}
	// A second collector must not collide with the first one.
	_ = NewCollector(nil)
}

func TestTaskCounters(t *testing.T) {
	t.Parallel()
	c := NewCollector(nil)

	c.TaskStarted()
	c.TaskStarted()
	c.TaskFinished()
	c.TaskCancelled()
	c.TaskFailed()
	for i := 0; i < 3; i++ {
		c.Iteration()
	}

	tests := []struct {
		outcome string
		want    float64
	}{
		{OutcomeStarted, 2},
		{OutcomeFinished, 1},
		{OutcomeCancelled, 1},
		{OutcomeFailed, 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(c.tasks.WithLabelValues(tt.outcome)); got != tt.want {
			t.Errorf("tasks{outcome=%q} = %v, want %v", tt.outcome, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(c.iterations); got != 3 {
		t.Errorf("iterations = %v, want 3", got)
	}
}

func TestFetchMetrics(t *testing.T) {
	t.Parallel()
	c := NewCollector(nil)

	c.FetchCompleted(1500*time.Millisecond, 2*time.Second)
	c.FetchFailed()

	if got := testutil.ToFloat64(c.fetches.WithLabelValues("ok")); got != 1 {
		t.Errorf("fetches{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.fetches.WithLabelValues("failed")); got != 1 {
		t.Errorf("fetches{failed} = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(c.fetchDuration); n != 2 {
		t.Errorf("fetch duration series = %d, want 2", n)
	}
}

func TestBusMetrics(t *testing.T) {
	t.Parallel()
	bus := statebus.New(statebus.WithBufferSize(1))
	defer bus.Close()
	sub := bus.Subscribe(t.Context())
	defer sub.Close()

	c := NewCollector(bus)
	bus.Emit(state.Running())
	bus.Emit(state.Finished())

	body := scrape(t, c)
	for _, want := range []string{
		"taskcoord_bus_events_emitted_total 2",
		"taskcoord_bus_events_dropped_total 1",
		"taskcoord_bus_subscribers 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %q", want)
		}
	}
}

func TestRequestMetrics(t *testing.T) {
	t.Parallel()
	c := NewCollector(nil)

	c.IncrementActiveRequests()
	c.IncrementActiveRequests()
	c.DecrementActiveRequests()
	c.ObserveRequest(http.MethodPost, http.StatusAccepted)

	if got := testutil.ToFloat64(c.activeRequests); got != 1 {
		t.Errorf("active requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "202")); got != 1 {
		t.Errorf("requests{POST,202} = %v, want 1", got)
	}
}

func TestWritePrometheus(t *testing.T) {
	t.Parallel()
	c := NewCollector(nil)
	c.TaskStarted()

	body := scrape(t, c)
	for _, want := range []string{
		"taskcoord_tasks_total",
		"taskcoord_active_requests",
		"taskcoord_host_memory_percent",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %q", want)
		}
	}
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	c.WritePrometheus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	return rec.Body.String()
}
