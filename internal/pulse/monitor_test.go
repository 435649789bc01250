package pulse

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("testing.(*T).Run"),
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

func TestNewMonitor_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.BufferSize = 0
	m, err := NewMonitor(cfg)
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestMonitor_SessionLifecycle(t *testing.T) {
	t.Parallel()

	m, err := NewMonitor(DefaultConfig())
	require.NoError(t, err)

	_, err = uuid.Parse(m.SessionID())
	require.NoError(t, err, "session identifiers are UUIDs")
	assert.False(t, m.StartedAt().IsZero())
	assert.True(t, m.LastSampleAt().IsZero(), "no sample has arrived yet")

	before := time.Now()
	m.SubmitSample(0.5)
	at := m.LastSampleAt()
	assert.False(t, at.IsZero())
	assert.WithinDuration(t, before, at, time.Second)

	accepted, dropped := m.Stats()
	assert.Equal(t, uint64(1), accepted)
	assert.Zero(t, dropped)

	m.SubmitSample(math.NaN())
	accepted, dropped = m.Stats()
	assert.Equal(t, uint64(1), accepted)
	assert.Equal(t, uint64(1), dropped)
}

func TestMonitor_SubmitAndRead(t *testing.T) {
	t.Parallel()

	m, err := NewMonitor(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), m.Config())

	for _, x := range sineWave(150, 1.2, 30) {
		m.SubmitSample(x)
	}

	est := m.Read()
	require.True(t, est.Valid)
	assert.InDelta(t, 72.0, est.BPM, 1e-9)
	assert.Equal(t, CycleNew, est.Cycle)
	assert.NotEmpty(t, m.WaveformTail())
}

func TestMonitor_ResetStartsNewSession(t *testing.T) {
	t.Parallel()

	m, err := NewMonitor(DefaultConfig())
	require.NoError(t, err)
	for _, x := range sineWave(150, 1.2, 30) {
		m.SubmitSample(x)
	}
	require.True(t, m.Read().Valid)

	old := m.SessionID()
	fresh := m.Reset()
	assert.NotEqual(t, old, fresh)
	assert.Equal(t, fresh, m.SessionID())

	est := m.Read()
	assert.False(t, est.Valid)
	assert.Equal(t, CycleFilling, est.Cycle)
	assert.Zero(t, est.BufferFill)
	assert.Empty(t, m.WaveformTail())
	assert.True(t, m.LastSampleAt().IsZero())

	accepted, _ := m.Stats()
	assert.Equal(t, uint64(150), accepted, "cumulative counts survive a reset")
}

func TestMonitor_ConcurrentProducerAndReaders(t *testing.T) {
	t.Parallel()

	m, err := NewMonitor(DefaultConfig())
	require.NoError(t, err)

	wave := sineWave(450, 1.2, 30)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, x := range wave {
			m.SubmitSample(x)
		}
	}()

	for reader := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastGen uint64
			for range 300 {
				est := m.Read()
				assert.GreaterOrEqual(t, est.Generation, lastGen, "reader %d saw the generation go backwards", reader)
				lastGen = est.Generation
				assert.Len(t, est.Filtered, 150)
				assert.GreaterOrEqual(t, est.BufferFill, 0.0)
				assert.LessOrEqual(t, est.BufferFill, 1.0)
				if est.Valid {
					assert.GreaterOrEqual(t, est.BPM, 42.0)
					assert.LessOrEqual(t, est.BPM, 240.0)
				}
			}
		}()
	}

	wg.Wait()

	accepted, dropped := m.Stats()
	assert.Equal(t, uint64(450), accepted)
	assert.Zero(t, dropped)

	est := m.Read()
	require.True(t, est.Valid)
	assert.InDelta(t, 72.0, est.BPM, 1e-9)
}

func TestMonitor_ConcurrentResetKeepsGenerationMonotonic(t *testing.T) {
	t.Parallel()

	m, err := NewMonitor(DefaultConfig())
	require.NoError(t, err)
	initial := m.SessionID()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, x := range sineWave(900, 1.2, 30) {
			m.SubmitSample(x)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 5 {
			time.Sleep(2 * time.Millisecond)
			m.Reset()
		}
	}()

	var lastGen uint64
	for range 500 {
		est := m.Read()
		assert.GreaterOrEqual(t, est.Generation, lastGen, "generation must be monotonic even across resets")
		lastGen = est.Generation
	}

	wg.Wait()
	assert.NotEqual(t, initial, m.SessionID())
}

func BenchmarkMonitorSubmitSample(b *testing.B) {
	m, err := NewMonitor(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	wave := sineWave(1024, 1.2, 30)
	for _, x := range wave[:150] {
		m.SubmitSample(x)
	}

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		m.SubmitSample(wave[i%len(wave)])
		i++
	}
}
