// Package analysis wires the sample sources, the pulse estimator, the
// HTTP API, MQTT publishing and the metrics endpoint into the two
// operating modes of the application: a long-running realtime pipeline
// and a one-shot offline trace analysis.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/httpcontroller"
	"github.com/Aanishnithin07/Project-Aura/internal/mqtt"
	"github.com/Aanishnithin07/Project-Aura/internal/observability"
	"github.com/Aanishnithin07/Project-Aura/internal/pulse"
	"github.com/Aanishnithin07/Project-Aura/internal/sampler"
	"github.com/Aanishnithin07/Project-Aura/internal/telemetry"
)

const (
	// estimateChannelBuffer absorbs bursts between the ingest loop and
	// the SSE broadcaster. Sends never block, overflow is dropped
	// because API readers poll the monitor directly anyway.
	estimateChannelBuffer = 100

	// sampleChannelBuffer decouples source pacing from estimation.
	sampleChannelBuffer = 64

	mqttConnectTimeout = 30 * time.Second
	mqttPublishTimeout = 10 * time.Second
	sentryFlushTimeout = 3 * time.Second
)

// pulseConfig maps the loaded settings onto the estimator
// configuration. Validation happens in NewMonitor, not here.
func pulseConfig(settings *conf.Settings) pulse.Config {
	return pulse.Config{
		BufferSize:   settings.Pulse.BufferSize,
		WaveformSize: settings.Pulse.WaveformSize,
		SampleRate:   settings.Pulse.SampleRate,
		LowCut:       settings.Pulse.LowCut,
		HighCut:      settings.Pulse.HighCut,
		FilterOrder:  settings.Pulse.FilterOrder,
	}
}

// RealtimeAnalysis starts the streaming pipeline and blocks until a
// termination signal arrives. Shutdown is ordered: the sample source
// stops first, then the web server, the MQTT publisher and finally
// the telemetry flush.
func RealtimeAnalysis(settings *conf.Settings) error {
	// Get system details with gopsutil
	info, err := host.Info()
	if err != nil {
		fmt.Printf("❌ Error retrieving host info: %v\n", err)
	} else {
		fmt.Printf("System details: %s %s %s\n", info.OS, info.Platform, info.PlatformVersion)
	}

	fmt.Printf("Starting %s %s in realtime mode. Source: %s, rate: %g Hz, band: %g-%g Hz, window: %d samples\n",
		settings.Main.Name,
		settings.Version,
		settings.Realtime.Source.Type,
		settings.Pulse.SampleRate,
		settings.Pulse.LowCut,
		settings.Pulse.HighCut,
		settings.Pulse.BufferSize)

	monitor, err := pulse.NewMonitor(pulseConfig(settings))
	if err != nil {
		return err
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("error initializing metrics: %w", err)
	}

	source, err := sampler.New(settings)
	if err != nil {
		return err
	}

	// quitChan signals all goroutines to stop, sourceCtx cancels the
	// blocking source stream and in-flight publishes.
	quitChan := make(chan struct{})
	sourceCtx, cancelSource := context.WithCancel(context.Background())
	defer cancelSource()

	estimateChan := make(chan pulse.Estimate, estimateChannelBuffer)

	var wg sync.WaitGroup

	if settings.WebServer.Enabled {
		httpServer := httpcontroller.New(settings, monitor, estimateChan, metrics)
		httpServer.Start(&wg, quitChan)
	}

	startSamplePump(sourceCtx, &wg, source, monitor, metrics, estimateChan)
	startTelemetryEndpoint(&wg, settings, metrics, quitChan)
	startVitalsPublisher(sourceCtx, &wg, settings, monitor, metrics, quitChan)
	startStatusLogger(&wg, settings, monitor, quitChan)

	monitorShutdownSignals(quitChan)

	<-quitChan
	cancelSource()
	wg.Wait()
	telemetry.Flush(sentryFlushTimeout)
	getLogger().Info("realtime pipeline stopped", "session_id", monitor.SessionID())
	return nil
}

// startSamplePump starts the producer goroutine streaming raw samples
// from the source and the consumer goroutine feeding them into the
// monitor, recording per-cycle metrics and fanning fresh estimates out
// to the SSE broadcaster.
func startSamplePump(ctx context.Context, wg *sync.WaitGroup, source sampler.Source,
	monitor *pulse.Monitor, metrics *observability.Metrics, estimateChan chan<- pulse.Estimate,
) {
	samples := make(chan float64, sampleChannelBuffer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(samples)
		if err := source.Stream(ctx, samples); err != nil && !errors.Is(err, context.Canceled) {
			getLogger().Error("sample source failed", "source", source.Name(), "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for x := range samples {
			cycleStart := time.Now()
			est := monitor.SubmitSample(x)
			metrics.Pulse.ObserveEstimateDuration(time.Since(cycleStart))
			recordCycle(metrics, &est)

			select {
			case estimateChan <- est:
			default:
				metrics.HTTP.IncrementSSEEventsDropped()
			}
		}
		// A drained source (stdin EOF, trace end) is not a shutdown,
		// the API keeps serving the sticky estimate.
		getLogger().Info("sample source drained", "source", source.Name())
	}()
}

// recordCycle translates one estimate snapshot into metric updates.
func recordCycle(metrics *observability.Metrics, est *pulse.Estimate) {
	if est.Cycle == pulse.CycleDropped {
		metrics.Pulse.IncrementSamplesDropped()
	} else {
		metrics.Pulse.IncrementSamplesIngested()
	}
	metrics.Pulse.RecordCycle(string(est.Cycle), est.BufferFill)
	if est.Cycle == pulse.CycleNew {
		metrics.Pulse.SetCurrentBPM(est.BPM)
	}
}

// startTelemetryEndpoint starts the Prometheus endpoint if enabled.
func startTelemetryEndpoint(wg *sync.WaitGroup, settings *conf.Settings,
	metrics *observability.Metrics, quitChan chan struct{},
) {
	if !settings.Realtime.Telemetry.Enabled {
		return
	}
	endpoint, err := observability.NewEndpoint(settings, metrics)
	if err != nil {
		getLogger().Error("error initializing telemetry endpoint", "error", err)
		return
	}
	endpoint.Start(wg, quitChan)
}

// startVitalsPublisher publishes the vitals DTO to the configured MQTT
// topic on a fixed interval. Connection failures are retried by the
// client's own backoff, a failed publish only logs.
func startVitalsPublisher(ctx context.Context, wg *sync.WaitGroup, settings *conf.Settings,
	monitor *pulse.Monitor, metrics *observability.Metrics, quitChan chan struct{},
) {
	if !settings.Realtime.MQTT.Enabled {
		return
	}

	client, err := mqtt.NewClient(settings, metrics)
	if err != nil {
		getLogger().Error("error initializing MQTT client", "error", err)
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer client.Disconnect()

		connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
		if err := client.Connect(connectCtx); err != nil {
			getLogger().Warn("initial MQTT connect failed, reconnect runs in background", "error", err)
		}
		cancel()

		interval := time.Duration(settings.Realtime.MQTT.Interval) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-quitChan:
				return
			case <-ticker.C:
				publishVitals(ctx, client, settings, monitor)
			}
		}
	}()
}

func publishVitals(ctx context.Context, client mqtt.Client, settings *conf.Settings, monitor *pulse.Monitor) {
	est := monitor.Read()
	if !est.Valid && est.Cycle == pulse.CycleFilling {
		return // nothing worth publishing during the initial fill
	}

	accepted, dropped := monitor.Stats()
	dto := mqtt.NewVitalsDTO(settings.Main.Name, monitor.SessionID(), est, accepted, dropped)
	payload, err := json.Marshal(dto)
	if err != nil {
		getLogger().Error("error marshaling vitals payload", "error", err)
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, mqttPublishTimeout)
	defer cancel()
	if err := client.Publish(publishCtx, settings.Realtime.MQTT.Topic, string(payload)); err != nil {
		getLogger().Error("vitals publish failed", "topic", settings.Realtime.MQTT.Topic, "error", err)
	}
}

// startStatusLogger emits a periodic status line so an operator
// tailing the log sees the pipeline heartbeat without the web UI.
func startStatusLogger(wg *sync.WaitGroup, settings *conf.Settings,
	monitor *pulse.Monitor, quitChan chan struct{},
) {
	interval := time.Duration(settings.Realtime.Interval) * time.Second
	if interval <= 0 {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-quitChan:
				return
			case <-ticker.C:
				est := monitor.Read()
				accepted, dropped := monitor.Stats()
				getLogger().Info("status",
					"bpm", est.BPM,
					"valid", est.Valid,
					"cycle", string(est.Cycle),
					"buffer_fill", est.BufferFill,
					"accepted", accepted,
					"dropped", dropped,
					"generation", est.Generation)
			}
		}
	}()
}

// monitorShutdownSignals listens for SIGINT and SIGTERM and triggers
// the application shutdown process.
func monitorShutdownSignals(quitChan chan struct{}) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		sig := <-sigChan

		getLogger().Info("received shutdown signal", "signal", sig.String())
		close(quitChan)
	}()
}
