package pulse

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Monitor wraps one Estimator behind a single mutex so a capture-side
// producer and any number of readers on independent schedules never
// observe torn state. The lock is intentionally coarse, one estimation
// cycle on a bounded window is cheap enough that finer granularity
// would only add complexity.
type Monitor struct {
	mu  sync.Mutex
	est *Estimator

	sessionID  string
	startedAt  time.Time
	lastSample time.Time
}

// NewMonitor builds the estimator for the given configuration and
// assigns the session a fresh identifier. Construction fails only on
// invalid configuration.
func NewMonitor(cfg Config) (*Monitor, error) {
	est, err := NewEstimator(cfg)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		est:       est,
		sessionID: uuid.New().String(),
		startedAt: time.Now(),
	}, nil
}

// SubmitSample ingests one raw sample and returns the resulting
// estimate snapshot so the producer can record the cycle outcome.
// Readers on other goroutines still pick up state through Read on
// their own cadence.
func (m *Monitor) SubmitSample(x float64) Estimate {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSample = time.Now()
	return m.est.Ingest(x)
}

// Read returns the latest estimate snapshot. Staleness is fine, a
// reader polling faster than the producer simply sees the same
// snapshot twice; generations never go backwards.
func (m *Monitor) Read() Estimate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.est.Current()
}

// WaveformTail returns the display history, oldest first.
func (m *Monitor) WaveformTail() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.est.WaveformTail()
}

// Reset clears the sample window, the waveform history and the sticky
// estimate, returning the monitor to its initial filling state under a
// fresh session identifier. The filter configuration is untouched. The
// new session ID is returned.
func (m *Monitor) Reset() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	previous := m.sessionID
	m.est.Reset()
	m.sessionID = uuid.New().String()
	m.startedAt = time.Now()
	m.lastSample = time.Time{}
	logger().Info("monitor reset", "previous_session", previous, "session_id", m.sessionID)
	return m.sessionID
}

// Config returns the immutable estimator configuration.
func (m *Monitor) Config() Config {
	return m.est.Config()
}

// SessionID identifies this monitoring session in published payloads.
func (m *Monitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// StartedAt returns the session start time.
func (m *Monitor) StartedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedAt
}

// LastSampleAt returns the arrival time of the most recent sample, the
// zero time when nothing has been submitted yet.
func (m *Monitor) LastSampleAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSample
}

// Stats returns the cumulative accepted and dropped sample counts.
func (m *Monitor) Stats() (accepted, dropped uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.est.Accepted(), m.est.Dropped()
}
