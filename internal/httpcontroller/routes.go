// routes.go: vitals API route registration and handlers.
package httpcontroller

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Aanishnithin07/Project-Aura/internal/mqtt"
)

// Rate limit for stream connection attempts, 10 per minute per client.
const (
	streamRateLimitRate   = 10.0 / 60.0
	streamRateLimitWindow = 1 * time.Minute
)

// signalStaleAfter is how long the API keeps reporting the signal as
// active after the last sample arrived. Two seconds is sixty missed
// frames at the default capture rate, well past any scheduling jitter.
const signalStaleAfter = 2 * time.Second

// initRoutes registers all API routes.
func (s *Server) initRoutes() {
	v1 := s.Echo.Group("/api/v1")

	v1.GET("/health", s.handleHealth)
	v1.GET("/status", s.handleStatus)
	v1.GET("/vitals", s.handleVitals)
	v1.GET("/vitals/waveform", s.handleWaveform)
	v1.POST("/vitals/reset", s.handleReset)
	v1.POST("/mqtt/test", s.handleMQTTTest)

	v1.GET("/vitals/stream", s.StreamVitals,
		middleware.RateLimiterWithConfig(s.streamRateLimiter()))
}

// streamRateLimiter guards the stream endpoint against connection
// churn from misbehaving clients.
func (s *Server) streamRateLimiter() middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      streamRateLimitRate,
				ExpiresIn: streamRateLimitWindow,
			},
		),
		IdentifierExtractor: middleware.DefaultRateLimiterConfig.IdentifierExtractor,
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded for vitals stream",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many stream connection attempts, please wait before trying again",
			})
		},
	}
}

// VitalsResponse is the JSON shape of the current estimate. BPM is a
// pointer so the field encodes as null until the first validated
// computation, consumers must not mistake "no estimate yet" for zero.
type VitalsResponse struct {
	BPM          *float64   `json:"bpm"`
	Valid        bool       `json:"valid"`
	Cycle        string     `json:"cycle"`
	BufferFill   float64    `json:"buffer_fill"`
	Generation   uint64     `json:"generation"`
	SessionID    string     `json:"session_id"`
	Accepted     uint64     `json:"samples_accepted"`
	Dropped      uint64     `json:"samples_dropped"`
	SignalActive bool       `json:"signal_active"`
	LastSampleAt *time.Time `json:"last_sample_at,omitempty"`
}

// WaveformResponse carries the filtered display history.
type WaveformResponse struct {
	Samples []float64 `json:"samples"`
	Length  int       `json:"length"`
}

// StatusResponse describes the running instance.
type StatusResponse struct {
	Instance      string  `json:"instance"`
	Version       string  `json:"version"`
	BuildDate     string  `json:"build_date"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	SessionID     string  `json:"session_id"`
	SourceType    string  `json:"source_type"`
	SampleRate    float64 `json:"sample_rate"`
	BufferSize    int     `json:"buffer_size"`
	LowCutHz      float64 `json:"low_cut_hz"`
	HighCutHz     float64 `json:"high_cut_hz"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(c echo.Context) error {
	cfg := s.Monitor.Config()
	return c.JSON(http.StatusOK, StatusResponse{
		Instance:      s.Settings.Main.Name,
		Version:       s.Settings.Version,
		BuildDate:     s.Settings.BuildDate,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		SessionID:     s.Monitor.SessionID(),
		SourceType:    s.Settings.Realtime.Source.Type,
		SampleRate:    cfg.SampleRate,
		BufferSize:    cfg.BufferSize,
		LowCutHz:      cfg.LowCut,
		HighCutHz:     cfg.HighCut,
	})
}

func (s *Server) handleVitals(c echo.Context) error {
	est := s.Monitor.Read()
	accepted, dropped := s.Monitor.Stats()

	resp := VitalsResponse{
		Valid:      est.Valid,
		Cycle:      string(est.Cycle),
		BufferFill: sanitizeFloat64(est.BufferFill),
		Generation: est.Generation,
		SessionID:  s.Monitor.SessionID(),
		Accepted:   accepted,
		Dropped:    dropped,
	}
	if est.Valid {
		bpm := sanitizeFloat64(est.BPM)
		resp.BPM = &bpm
	}
	if last := s.Monitor.LastSampleAt(); !last.IsZero() {
		resp.LastSampleAt = &last
		resp.SignalActive = time.Since(last) <= signalStaleAfter
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleWaveform(c echo.Context) error {
	samples := s.Monitor.WaveformTail()
	for i, v := range samples {
		samples[i] = sanitizeFloat64(v)
	}
	return c.JSON(http.StatusOK, WaveformResponse{
		Samples: samples,
		Length:  len(samples),
	})
}

func (s *Server) handleReset(c echo.Context) error {
	sessionID := s.Monitor.Reset()
	if s.metrics != nil {
		s.metrics.Pulse.IncrementSessionResets()
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "ok",
		"session_id": sessionID,
	})
}

// handleMQTTTest runs the staged MQTT connectivity test and returns
// the collected stage results.
func (s *Server) handleMQTTTest(c echo.Context) error {
	if !s.Settings.Realtime.MQTT.Enabled {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "MQTT is not enabled",
		})
	}

	client, err := mqtt.NewClient(s.Settings, s.metrics)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}
	defer client.Disconnect()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	resultChan := make(chan mqtt.TestResult, 8)
	go func() {
		client.TestConnection(ctx, resultChan)
		close(resultChan)
	}()

	results := make([]mqtt.TestResult, 0, 4)
	for result := range resultChan {
		results = append(results, result)
	}

	return c.JSON(http.StatusOK, results)
}

// sanitizeFloat64 replaces NaN and Inf with zero so encoding to JSON
// never fails.
func sanitizeFloat64(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
