package pulse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ingestAll feeds every sample in order and returns the last snapshot.
func ingestAll(e *Estimator, samples []float64) Estimate {
	var est Estimate
	for _, x := range samples {
		est = e.Ingest(x)
	}
	return est
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, 150, cfg.BufferSize)
	assert.Equal(t, 150, cfg.WaveformSize)
	assert.Equal(t, 30.0, cfg.SampleRate)
	assert.Equal(t, 0.7, cfg.LowCut)
	assert.Equal(t, 4.0, cfg.HighCut)
	assert.Equal(t, 4, cfg.FilterOrder)
	require.NoError(t, cfg.Validate())
}

func TestNewEstimator_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"zero_buffer_size", func(c *Config) { c.BufferSize = 0 }, "buffer size must be positive"},
		{"zero_waveform_size", func(c *Config) { c.WaveformSize = 0 }, "waveform size must be positive"},
		{"zero_sample_rate", func(c *Config) { c.SampleRate = 0 }, "sample rate must be positive"},
		{"zero_low_cut", func(c *Config) { c.LowCut = 0 }, "low cutoff must be above 0 Hz"},
		{"high_cut_at_nyquist", func(c *Config) { c.HighCut = 15 }, "below the Nyquist frequency"},
		{"inverted_band", func(c *Config) { c.LowCut, c.HighCut = 4.0, 0.7 }, "below high cutoff"},
		{"odd_filter_order", func(c *Config) { c.FilterOrder = 5 }, "positive even number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			e, err := NewEstimator(cfg)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestEstimator_WindowFillsBeforeFirstEstimate(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	wave := sineWave(150, 1.2, 30)
	for i, x := range wave[:149] {
		est := e.Ingest(x)
		assert.Equal(t, CycleFilling, est.Cycle)
		assert.False(t, est.Valid)
		assert.InDelta(t, float64(i+1)/150, est.BufferFill, 1e-12)
	}

	est := e.Ingest(wave[149])
	assert.Equal(t, CycleNew, est.Cycle, "the window-completing sample triggers the first estimate")
	assert.True(t, est.Valid)
	assert.InDelta(t, 1.0, est.BufferFill, 1e-12)
	assert.Equal(t, uint64(150), est.Generation)
}

func TestEstimator_ExactBinFrequencies(t *testing.T) {
	t.Parallel()

	// At 30 Hz over a 150-sample window the spectral bins fall on
	// multiples of 0.2 Hz, so tones placed on a bin convert to an exact
	// BPM with no leakage into neighbours.
	tests := []struct {
		name    string
		freq    float64
		wantBPM float64
	}{
		{"resting_48", 0.8, 48.0},
		{"typical_72", 1.2, 72.0},
		{"elevated_120", 2.0, 120.0},
		{"near_ceiling_228", 3.8, 228.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := NewEstimator(DefaultConfig())
			require.NoError(t, err)

			est := ingestAll(e, sineWave(150, tt.freq, 30))
			require.Equal(t, CycleNew, est.Cycle)
			require.True(t, est.Valid)
			assert.InDelta(t, tt.wantBPM, est.BPM, 1e-9)
		})
	}
}

func TestEstimator_RoundsToOneDecimal(t *testing.T) {
	t.Parallel()

	// A 64-sample window at 30 Hz puts bin 3 at 1.40625 Hz, which is
	// 84.375 BPM before rounding.
	cfg := Config{
		BufferSize:   64,
		WaveformSize: 64,
		SampleRate:   30,
		LowCut:       0.7,
		HighCut:      4.0,
		FilterOrder:  4,
	}
	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	est := ingestAll(e, sineWave(64, 1.40625, 30))
	require.True(t, est.Valid)
	assert.InDelta(t, 84.4, est.BPM, 1e-9)
}

func TestEstimator_ConstantWindowHolds(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	samples := make([]float64, 150)
	for i := range samples {
		samples[i] = 0.5
	}

	est := ingestAll(e, samples)
	assert.Equal(t, CycleHeld, est.Cycle, "a flat window carries no frequency information")
	assert.False(t, est.Valid)
	assert.Zero(t, est.BPM)
	assert.Equal(t, uint64(150), est.Generation, "constant samples still enter the window")
	assert.Equal(t, uint64(0), e.Dropped())
}

func TestEstimator_NonFiniteSamplesDropped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bad  float64
	}{
		{"nan", math.NaN()},
		{"positive_inf", math.Inf(1)},
		{"negative_inf", math.Inf(-1)},
	}

	wave := sineWave(151, 1.2, 30)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := NewEstimator(DefaultConfig())
			require.NoError(t, err)

			est := ingestAll(e, wave[:150])
			require.Equal(t, CycleNew, est.Cycle)
			require.InDelta(t, 72.0, est.BPM, 1e-9)

			est = e.Ingest(tt.bad)
			assert.Equal(t, CycleDropped, est.Cycle)
			assert.True(t, est.Valid, "the sticky estimate survives a dropped sample")
			assert.InDelta(t, 72.0, est.BPM, 1e-9)
			assert.Equal(t, uint64(150), est.Generation, "dropped samples do not advance the generation")
			assert.Equal(t, uint64(1), e.Dropped())

			// The window was not poisoned; the next good sample slides
			// it and recomputes normally.
			est = e.Ingest(wave[150])
			assert.Equal(t, CycleNew, est.Cycle)
			assert.InDelta(t, 72.0, est.BPM, 1e-9)
			assert.Equal(t, uint64(151), est.Generation)
		})
	}
}

func TestEstimator_HoldsWhenNoBinInBand(t *testing.T) {
	t.Parallel()

	// A four-sample window at 30 Hz has bins at 0, 7.5 and 15 Hz, none
	// of which fall inside the pass-band, so the spectral search finds
	// no candidate at all.
	cfg := Config{
		BufferSize:   4,
		WaveformSize: 4,
		SampleRate:   30,
		LowCut:       0.7,
		HighCut:      4.0,
		FilterOrder:  4,
	}
	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	est := ingestAll(e, []float64{0, 1, 0.5, -0.25})
	assert.Equal(t, CycleHeld, est.Cycle)
	assert.False(t, est.Valid)
	assert.Zero(t, est.BPM)
}

func TestEstimator_ResetClearsStateKeepsGeneration(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	wave := sineWave(150, 1.2, 30)
	est := ingestAll(e, wave)
	require.True(t, est.Valid)

	e.Reset()

	cur := e.Current()
	assert.False(t, cur.Valid)
	assert.Zero(t, cur.BPM)
	assert.Equal(t, CycleFilling, cur.Cycle)
	assert.Zero(t, cur.BufferFill)
	assert.Empty(t, cur.WaveformTail)
	assert.Equal(t, uint64(150), cur.Generation, "the generation survives a reset so readers never observe it going backwards")

	est = ingestAll(e, wave)
	assert.True(t, est.Valid)
	assert.InDelta(t, 72.0, est.BPM, 1e-9)
	assert.Equal(t, uint64(300), est.Generation)
}

func TestEstimator_SnapshotShape(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	pre := e.Current()
	require.Len(t, pre.Filtered, 150, "the filtered signal has a fixed shape even before the first computation")
	for _, v := range pre.Filtered {
		assert.Zero(t, v)
	}
	assert.Empty(t, pre.WaveformTail)
	assert.Equal(t, CycleFilling, pre.Cycle)

	est := ingestAll(e, sineWave(150, 1.2, 30))
	require.Len(t, est.Filtered, 150)
	assert.Len(t, est.WaveformTail, 1, "one waveform point per full-window cycle")

	est = ingestAll(e, sineWave(30, 1.2, 30))
	assert.Len(t, est.WaveformTail, 31)
	assert.Equal(t, est.Filtered[149], est.WaveformTail[30], "the newest waveform point is the newest filtered sample")
}

func TestEstimator_WaveformHistoryCapped(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.WaveformSize = 10
	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	est := ingestAll(e, sineWave(200, 1.2, 30))
	assert.Len(t, est.WaveformTail, 10, "the display history keeps only the most recent cycles")
}

func TestEstimator_SnapshotReturnsCopies(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)
	ingestAll(e, sineWave(150, 1.2, 30))

	est := e.Current()
	est.Filtered[0] = 1e9
	est.WaveformTail[0] = 1e9

	again := e.Current()
	assert.NotEqual(t, 1e9, again.Filtered[0], "mutating a snapshot must not reach internal state")
	assert.NotEqual(t, 1e9, again.WaveformTail[0])
}

func TestEstimator_StickyThroughDegenerateCycles(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	est := ingestAll(e, sineWave(150, 1.2, 30))
	require.True(t, est.Valid)

	// Flood the window with a constant until every sample is flat. The
	// final cycle is degenerate, yet the estimate must stay valid and
	// inside the physiological band rather than clearing or going NaN.
	flat := make([]float64, 150)
	for i := range flat {
		flat[i] = 0.5
	}
	est = ingestAll(e, flat)

	assert.Equal(t, CycleHeld, est.Cycle)
	assert.True(t, est.Valid, "a degenerate cycle must not clear the sticky estimate")
	assert.False(t, math.IsNaN(est.BPM))
	assert.GreaterOrEqual(t, est.BPM, 42.0)
	assert.LessOrEqual(t, est.BPM, 240.0)
	assert.Equal(t, uint64(300), est.Generation)
	for _, v := range est.WaveformTail {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestEstimator_DeterministicAcrossInstances(t *testing.T) {
	t.Parallel()

	// Two estimators with the same configuration fed the same samples
	// must emit identical snapshots at every step, the peak-pick
	// tie-break and rounding leave no room for drift.
	samples := make([]float64, 200)
	for i := range samples {
		ts := float64(i) / 30
		samples[i] = math.Sin(2*math.Pi*1.2*ts) +
			0.25*math.Sin(2*math.Pi*2.6*ts+0.7) +
			0.002*float64(i)
	}

	a, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)
	b, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	for i, x := range samples {
		ea := a.Ingest(x)
		eb := b.Ingest(x)
		require.Equal(t, ea.BPM, eb.BPM, "sample %d", i)
		require.Equal(t, ea.Valid, eb.Valid, "sample %d", i)
		require.Equal(t, ea.Cycle, eb.Cycle, "sample %d", i)
		require.Equal(t, ea.Generation, eb.Generation, "sample %d", i)
	}

	final := a.Current()
	assert.InDelta(t, 72.0, final.BPM, 1e-9, "the dominant component sits on an exact bin")
	assert.Equal(t, final.Filtered, b.Current().Filtered)
	assert.Equal(t, final.WaveformTail, b.Current().WaveformTail)
}

func TestDominantFrequency_ClosedBandEdges(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	tone := func(bin int) []float64 {
		x := make([]float64, 150)
		for i := range x {
			x[i] = math.Cos(2 * math.Pi * float64(bin) * float64(i) / 150)
		}
		return x
	}

	t.Run("lowest_in_band_bin", func(t *testing.T) {
		freq, ok := e.dominantFrequency(tone(4))
		require.True(t, ok)
		assert.InDelta(t, 0.8, freq, 1e-9)
	})

	t.Run("upper_edge_is_inclusive", func(t *testing.T) {
		// Bin 20 sits exactly on the 4.0 Hz cutoff and must still be a
		// candidate, the pass-band is a closed interval.
		freq, ok := e.dominantFrequency(tone(20))
		require.True(t, ok)
		assert.InDelta(t, 4.0, freq, 1e-9)
	})
}

func BenchmarkEstimatorIngest(b *testing.B) {
	e, err := NewEstimator(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	// Steady state: the window is full, every ingest runs a complete
	// detrend, filter and FFT cycle.
	wave := sineWave(1024, 1.2, 30)
	for _, x := range wave[:150] {
		e.Ingest(x)
	}

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		e.Ingest(wave[i%len(wave)])
		i++
	}
}
