// endpoint.go: Prometheus compatible telemetry endpoint
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/observability/metrics"
)

// Endpoint serves the metrics registry over HTTP on its own listener,
// separate from the vitals API.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint creates a telemetry Endpoint from the settings and a
// previously initialized Metrics instance. It returns an error when
// telemetry is not enabled.
func NewEndpoint(settings *conf.Settings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Realtime.Telemetry.Enabled {
		return nil, fmt.Errorf("telemetry not enabled in settings")
	}

	return &Endpoint{
		listenAddress: settings.Realtime.Telemetry.Listen,
		metrics:       metrics,
	}, nil
}

// Start runs the HTTP server in a goroutine tracked by wg and shuts
// it down gracefully when quitChan closes.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)
	RegisterDebugHandlers(mux)

	e.server = &http.Server{
		Addr:    e.listenAddress,
		Handler: mux,
	}

	wg.Go(func() {
		getLogger().Info("Telemetry endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			getLogger().Error("Telemetry HTTP server error", "error", err)
		}
	})

	go e.gracefulShutdown(quitChan)
}

// gracefulShutdown waits for the quit signal and shuts the server
// down.
func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	<-quitChan
	getLogger().Info("Stopping telemetry server")
	ctx, cancel := context.WithTimeout(context.Background(), metrics.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		getLogger().Error("Telemetry server shutdown error", "error", err)
	}
}

// GetMetrics returns the Metrics instance served by this endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
