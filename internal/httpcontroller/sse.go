// sse.go: live vitals streaming over Server-Sent Events with a fan-out
// broadcaster so any number of clients can follow one estimator.
package httpcontroller

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Aanishnithin07/Project-Aura/internal/observability"
	"github.com/Aanishnithin07/Project-Aura/internal/pulse"
)

// Stream configuration constants.
const (
	streamMaxDuration       = 30 * time.Minute // cap per connection to prevent resource leaks
	streamHeartbeatInterval = 10 * time.Second // keep-alive interval
	streamChannelBuffer     = 100              // per subscriber buffer
)

// VitalsSSEData is the stream event payload, one per estimation cycle.
type VitalsSSEData struct {
	Type       string  `json:"type"`
	BPM        float64 `json:"bpm"`
	Valid      bool    `json:"valid"`
	Cycle      string  `json:"cycle"`
	BufferFill float64 `json:"buffer_fill"`
	Generation uint64  `json:"generation"`
	Sample     float64 `json:"sample"` // newest filtered waveform value
}

// streamManager owns the subscriber set and the broadcaster goroutine
// fanning estimates out to connected clients.
type streamManager struct {
	// one concurrent stream per client IP
	activeConnections sync.Map
	totalConnections  atomic.Int64

	subscribers   map[chan pulse.Estimate]struct{}
	subscribersMu sync.RWMutex

	metrics *observability.Metrics

	runOnce  sync.Once
	stopOnce sync.Once
	cancel   context.CancelFunc
}

func newStreamManager(metrics *observability.Metrics) *streamManager {
	return &streamManager{
		subscribers: make(map[chan pulse.Estimate]struct{}),
		metrics:     metrics,
	}
}

// run starts the broadcaster reading from the estimate source. Called
// once during server construction, before requests are accepted.
func (m *streamManager) run(source <-chan pulse.Estimate) {
	m.runOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		go m.broadcast(ctx, source)
	})
}

// stop shuts the broadcaster down.
func (m *streamManager) stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
	})
}

// broadcast fans estimates out to all subscribers. Sends never block,
// a slow client misses updates instead of stalling the rest.
func (m *streamManager) broadcast(ctx context.Context, source <-chan pulse.Estimate) {
	for {
		select {
		case <-ctx.Done():
			return
		case est, ok := <-source:
			if !ok {
				m.subscribersMu.Lock()
				for ch := range m.subscribers {
					close(ch)
					delete(m.subscribers, ch)
				}
				m.subscribersMu.Unlock()
				return
			}

			m.subscribersMu.RLock()
			for ch := range m.subscribers {
				select {
				case ch <- est:
					if m.metrics != nil {
						m.metrics.HTTP.IncrementSSEEventsSent()
					}
				default:
					if m.metrics != nil {
						m.metrics.HTTP.IncrementSSEEventsDropped()
					}
				}
			}
			m.subscribersMu.RUnlock()
		}
	}
}

// subscribe registers a new subscriber channel. The caller must call
// unsubscribe when done.
func (m *streamManager) subscribe() chan pulse.Estimate {
	ch := make(chan pulse.Estimate, streamChannelBuffer)
	m.subscribersMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subscribersMu.Unlock()
	return ch
}

// unsubscribe removes a subscriber. The channel is left open, buffered
// data may still be draining on the handler side.
func (m *streamManager) unsubscribe(ch chan pulse.Estimate) {
	m.subscribersMu.Lock()
	delete(m.subscribers, ch)
	m.subscribersMu.Unlock()
}

// StreamVitals handles SSE connections for the live vitals stream.
func (s *Server) StreamVitals(c echo.Context) error {
	// RemoteAddr, not forwarded headers, so a proxy cannot spoof its
	// way past the duplicate connection check.
	clientIP, _, _ := net.SplitHostPort(c.Request().RemoteAddr)

	if _, exists := s.streams.activeConnections.LoadOrStore(clientIP, time.Now()); exists {
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "Only one vitals stream connection per client is allowed",
		})
	}

	subscriber := s.streams.subscribe()
	s.streams.totalConnections.Add(1)
	if s.metrics != nil {
		s.metrics.HTTP.ClientConnected()
	}

	defer func() {
		s.streams.unsubscribe(subscriber)
		s.streams.activeConnections.Delete(clientIP)
		s.streams.totalConnections.Add(-1)
		if s.metrics != nil {
			s.metrics.HTTP.ClientDisconnected()
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(c.Request().Context(), streamMaxDuration)
	defer cancel()

	c.Response().Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	getLogger().Info("Vitals stream client connected",
		"client_ip", clientIP,
		"total_connections", s.streams.totalConnections.Load())

	// Establish the stream with the current state right away.
	if err := s.sendVitalsEvent(c, s.Monitor.Read()); err != nil {
		return err
	}

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-timeoutCtx.Done():
			getLogger().Info("Vitals stream connection closed", "client_ip", clientIP)
			return nil
		case est, ok := <-subscriber:
			if !ok {
				return nil
			}
			if err := s.sendVitalsEvent(c, est); err != nil {
				return err
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprintf(c.Response(), ":heartbeat\n\n"); err != nil {
				return err
			}
			c.Response().Flush()
		}
	}
}

// sendVitalsEvent writes one estimate as an SSE event and flushes.
func (s *Server) sendVitalsEvent(c echo.Context, est pulse.Estimate) error {
	data := VitalsSSEData{
		Type:       "vitals",
		BPM:        sanitizeFloat64(est.BPM),
		Valid:      est.Valid,
		Cycle:      string(est.Cycle),
		BufferFill: sanitizeFloat64(est.BufferFill),
		Generation: est.Generation,
	}
	if n := len(est.Filtered); n > 0 {
		data.Sample = sanitizeFloat64(est.Filtered[n-1])
	}

	payload, err := json.Marshal(&data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
