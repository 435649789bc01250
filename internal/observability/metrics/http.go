package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains all Prometheus metrics related to the vitals
// HTTP API, including the live waveform stream.
type HTTPMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ActiveSSEClients prometheus.Gauge
	SSEEventsSent    prometheus.Counter
	SSEEventsDropped prometheus.Counter

	registry *prometheus.Registry
}

// NewHTTPMetrics creates a new instance of HTTPMetrics and registers
// it on the given registry.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for HTTPMetrics.
func (m *HTTPMetrics) initMetrics() error {
	m.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests partitioned by method, path and status code",
		},
		[]string{"method", "path", "code"},
	)

	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency partitioned by method and path",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"method", "path"},
	)

	m.ActiveSSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_active_clients",
		Help: "Number of currently connected waveform stream clients",
	})

	m.SSEEventsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sse_events_sent_total",
		Help: "Total number of stream events delivered to clients",
	})

	m.SSEEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sse_events_dropped_total",
		Help: "Total number of stream events dropped on slow clients",
	})

	return nil
}

// RecordRequest records a completed HTTP request.
func (m *HTTPMetrics) RecordRequest(method, path, code string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(method, path, code).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// ClientConnected increments the active stream client gauge.
func (m *HTTPMetrics) ClientConnected() {
	m.ActiveSSEClients.Inc()
}

// ClientDisconnected decrements the active stream client gauge.
func (m *HTTPMetrics) ClientDisconnected() {
	m.ActiveSSEClients.Dec()
}

// IncrementSSEEventsSent increments the delivered event counter.
func (m *HTTPMetrics) IncrementSSEEventsSent() {
	m.SSEEventsSent.Inc()
}

// IncrementSSEEventsDropped increments the dropped event counter.
func (m *HTTPMetrics) IncrementSSEEventsDropped() {
	m.SSEEventsDropped.Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RequestsTotal.Describe(ch)
	m.RequestDuration.Describe(ch)
	ch <- m.ActiveSSEClients.Desc()
	ch <- m.SSEEventsSent.Desc()
	ch <- m.SSEEventsDropped.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RequestsTotal.Collect(ch)
	m.RequestDuration.Collect(ch)
	ch <- m.ActiveSSEClients
	ch <- m.SSEEventsSent
	ch <- m.SSEEventsDropped
}
