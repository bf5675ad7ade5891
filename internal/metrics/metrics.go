// Package metrics exports coordinator, bus, HTTP and host metrics in the
// Prometheus format. Each Collector owns its registry so several can coexist
// in one process.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/statebus"
	"github.com/agbru/taskcoord/internal/sysmon"
)

// Namespace prefixes every metric name.
const Namespace = "taskcoord"

// Task outcome label values.
const (
	OutcomeStarted   = "started"
	OutcomeFinished  = "finished"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Collector implements orchestration.Recorder on top of Prometheus.
type Collector struct {
	registry *prometheus.Registry
	handler  http.Handler

	tasks          *prometheus.CounterVec
	iterations     prometheus.Counter
	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	activeRequests prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
}

var _ orchestration.Recorder = (*Collector)(nil)

// NewCollector registers the application metrics on a fresh registry.
// When bus is non-nil its counters are exported as well.
func NewCollector(bus *statebus.Bus) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tasks_total",
			Help:      "Long-running task transitions by outcome.",
		}, []string{"outcome"}),
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "task_iterations_total",
			Help:      "Iterations started by long-running tasks.",
		}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetches_total",
			Help:      "Fetch demonstrations by result.",
		}, []string{"result"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_phase_duration_seconds",
			Help:      "Duration of the concurrent and sequential fetch phases.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5, 10},
		}, []string{"phase"}),
		activeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_requests",
			Help:      "HTTP requests currently being served.",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "code"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "host_cpu_percent",
		Help:      "Host CPU usage percentage.",
	}, func() float64 { return sysmon.Sample().CPUPercent })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "host_memory_percent",
		Help:      "Host memory usage percentage.",
	}, func() float64 { return sysmon.Sample().MemPercent })

	if bus != nil {
		registerBus(factory, bus)
	}

	c.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return c
}

func registerBus(factory promauto.Factory, bus *statebus.Bus) {
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "bus_events_emitted_total",
		Help:      "States emitted on the bus.",
	}, func() float64 { return float64(bus.Emitted()) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "bus_events_dropped_total",
		Help:      "Deliveries skipped because a subscriber buffer was full.",
	}, func() float64 { return float64(bus.Dropped()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "bus_subscribers",
		Help:      "Live bus subscriptions.",
	}, func() float64 { return float64(bus.Subscribers()) })
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler { return c.handler }

// WritePrometheus writes the metrics to w.
func (c *Collector) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}

func (c *Collector) TaskStarted()   { c.tasks.WithLabelValues(OutcomeStarted).Inc() }
func (c *Collector) TaskFinished()  { c.tasks.WithLabelValues(OutcomeFinished).Inc() }
func (c *Collector) TaskCancelled() { c.tasks.WithLabelValues(OutcomeCancelled).Inc() }
func (c *Collector) TaskFailed()    { c.tasks.WithLabelValues(OutcomeFailed).Inc() }
func (c *Collector) Iteration()     { c.iterations.Inc() }

// FetchCompleted records a successful fetch and both phase durations.
func (c *Collector) FetchCompleted(concurrent, sequential time.Duration) {
	c.fetches.WithLabelValues("ok").Inc()
	c.fetchDuration.WithLabelValues("concurrent").Observe(concurrent.Seconds())
	c.fetchDuration.WithLabelValues("sequential").Observe(sequential.Seconds())
}

// FetchFailed records a fetch that ended with an operation error.
func (c *Collector) FetchFailed() { c.fetches.WithLabelValues("failed").Inc() }

// IncrementActiveRequests marks the start of an HTTP request.
func (c *Collector) IncrementActiveRequests() { c.activeRequests.Inc() }

// DecrementActiveRequests marks the end of an HTTP request.
func (c *Collector) DecrementActiveRequests() { c.activeRequests.Dec() }

// ObserveRequest counts a completed HTTP request.
func (c *Collector) ObserveRequest(method string, status int) {
	c.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
