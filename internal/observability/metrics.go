// Package observability provides Prometheus metrics for monitoring
// the AuraScan application. Sentry error telemetry lives in the
// telemetry package.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aanishnithin07/Project-Aura/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Pulse    *metrics.PulseMetrics
	MQTT     *metrics.MQTTMetrics
	HTTP     *metrics.HTTPMetrics
}

// NewMetrics creates a new Metrics instance with all collectors
// registered on a private registry. It returns an error if any
// collector fails to register.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	pulseMetrics, err := metrics.NewPulseMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pulse metrics: %w", err)
	}

	mqttMetrics, err := metrics.NewMQTTMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create MQTT metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Pulse:    pulseMetrics,
		MQTT:     mqttMetrics,
		HTTP:     httpMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided
// http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
