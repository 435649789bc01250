package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PulseMetrics contains all Prometheus metrics related to heart rate
// estimation.
type PulseMetrics struct {
	EstimateCycles   *prometheus.CounterVec
	SamplesIngested  prometheus.Counter
	SamplesDropped   prometheus.Counter
	CurrentBPM       prometheus.Gauge
	BufferFill       prometheus.Gauge
	SessionResets    prometheus.Counter
	EstimateDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewPulseMetrics creates a new instance of PulseMetrics and registers
// it on the given registry.
func NewPulseMetrics(registry *prometheus.Registry) (*PulseMetrics, error) {
	m := &PulseMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize pulse metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pulse metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for PulseMetrics.
func (m *PulseMetrics) initMetrics() error {
	m.EstimateCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurascan_estimate_cycles_total",
			Help: "Total number of estimation cycles partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	m.SamplesIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aurascan_samples_ingested_total",
		Help: "Total number of samples accepted into the analysis window.",
	})

	m.SamplesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aurascan_samples_dropped_total",
		Help: "Total number of non-finite samples rejected before buffering.",
	})

	m.CurrentBPM = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aurascan_heart_rate_bpm",
		Help: "Most recent heart rate estimate in beats per minute.",
	})

	m.BufferFill = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aurascan_buffer_fill_ratio",
		Help: "Fill level of the sample window, 0 to 1.",
	})

	m.SessionResets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aurascan_session_resets_total",
		Help: "Total number of monitoring session resets.",
	})

	m.EstimateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aurascan_estimate_duration_seconds",
		Help:    "Time spent in a full estimation cycle.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12),
	})

	return nil
}

// RecordCycle increments the cycle counter for the given outcome and
// updates the buffer fill gauge.
func (m *PulseMetrics) RecordCycle(outcome string, bufferFill float64) {
	m.EstimateCycles.WithLabelValues(outcome).Inc()
	m.BufferFill.Set(bufferFill)
}

// IncrementSamplesIngested increments the accepted sample counter.
func (m *PulseMetrics) IncrementSamplesIngested() {
	m.SamplesIngested.Inc()
}

// IncrementSamplesDropped increments the rejected sample counter.
func (m *PulseMetrics) IncrementSamplesDropped() {
	m.SamplesDropped.Inc()
}

// SetCurrentBPM updates the heart rate gauge.
func (m *PulseMetrics) SetCurrentBPM(bpm float64) {
	m.CurrentBPM.Set(bpm)
}

// IncrementSessionResets increments the reset counter.
func (m *PulseMetrics) IncrementSessionResets() {
	m.SessionResets.Inc()
}

// ObserveEstimateDuration records the duration of one estimation
// cycle.
func (m *PulseMetrics) ObserveEstimateDuration(duration time.Duration) {
	m.EstimateDuration.Observe(duration.Seconds())
}

// Describe implements the prometheus.Collector interface.
func (m *PulseMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.EstimateCycles.Describe(ch)
	ch <- m.SamplesIngested.Desc()
	ch <- m.SamplesDropped.Desc()
	ch <- m.CurrentBPM.Desc()
	ch <- m.BufferFill.Desc()
	ch <- m.SessionResets.Desc()
	ch <- m.EstimateDuration.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *PulseMetrics) Collect(ch chan<- prometheus.Metric) {
	m.EstimateCycles.Collect(ch)
	ch <- m.SamplesIngested
	ch <- m.SamplesDropped
	ch <- m.CurrentBPM
	ch <- m.BufferFill
	ch <- m.SessionResets
	ch <- m.EstimateDuration
}
