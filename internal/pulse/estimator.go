// Package pulse implements the heart rate estimation pipeline: a
// sliding window of per-frame skin-tone samples is detrended,
// normalized, bandpass filtered with zero phase lag and searched for
// its dominant in-band frequency, which converts directly to beats
// per minute. The last valid estimate is sticky, a cycle that cannot
// produce a better value returns the previous one unchanged.
package pulse

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/Aanishnithin07/Project-Aura/internal/errors"
)

// stdFloor is the numerical noise floor for the normalization step. A
// window whose standard deviation falls below it carries no frequency
// information and must not emit an estimate.
const stdFloor = 1e-10

// CycleResult classifies what a single ingest cycle produced.
type CycleResult string

const (
	// CycleFilling means the sample window is not yet full, no
	// estimation was attempted.
	CycleFilling CycleResult = "filling"
	// CycleNew means the cycle produced a fresh validated BPM.
	CycleNew CycleResult = "new"
	// CycleHeld means the cycle was degenerate or out of band and the
	// previous estimate was returned unchanged.
	CycleHeld CycleResult = "held"
	// CycleDropped means the sample was non-finite and rejected before
	// touching the window.
	CycleDropped CycleResult = "dropped"
)

// Config holds the construction parameters of an Estimator. All values
// are immutable for the estimator's lifetime.
type Config struct {
	BufferSize   int     // sample window length, the unit of temporal context
	WaveformSize int     // capacity of the display waveform history
	SampleRate   float64 // capture rate in Hz (frames per second)
	LowCut       float64 // lower pass-band edge in Hz
	HighCut      float64 // upper pass-band edge in Hz
	FilterOrder  int     // Butterworth prototype order, must be even
}

// DefaultConfig returns the standard monitoring configuration: a five
// second window at 30 frames per second and a 0.7-4.0 Hz pass-band
// covering 42-240 BPM.
func DefaultConfig() Config {
	return Config{
		BufferSize:   150,
		WaveformSize: 150,
		SampleRate:   30,
		LowCut:       0.7,
		HighCut:      4.0,
		FilterOrder:  4,
	}
}

// Validate checks the configuration rules that are fatal at
// construction. Values are never clamped, a misconfigured pass-band
// must refuse to start.
func (c *Config) Validate() error {
	var problems []string
	if c.BufferSize < 1 {
		problems = append(problems, "buffer size must be positive")
	}
	if c.WaveformSize < 1 {
		problems = append(problems, "waveform size must be positive")
	}
	if c.SampleRate <= 0 {
		problems = append(problems, "sample rate must be positive")
	}
	if c.LowCut <= 0 {
		problems = append(problems, "low cutoff must be above 0 Hz")
	}
	if c.SampleRate > 0 && c.HighCut >= c.SampleRate/2 {
		problems = append(problems, "high cutoff must be below the Nyquist frequency")
	}
	if c.LowCut >= c.HighCut {
		problems = append(problems, "low cutoff must be below high cutoff")
	}
	if c.FilterOrder < 2 || c.FilterOrder%2 != 0 {
		problems = append(problems, "filter order must be a positive even number")
	}
	if len(problems) > 0 {
		return errors.Newf("invalid estimator configuration: %v", problems).
			Component("pulse").
			Category(errors.CategoryConfiguration).
			Context("buffer_size", c.BufferSize).
			Context("sample_rate", c.SampleRate).
			Context("low_cut", c.LowCut).
			Context("high_cut", c.HighCut).
			Build()
	}
	return nil
}

// Estimate is the snapshot handed to consumers. Every slice it carries
// is a copy, internal buffers never cross the boundary by reference.
type Estimate struct {
	// BPM is the sticky last-good heart rate, rounded to one decimal.
	// It is meaningful only when Valid is true.
	BPM float64
	// Valid is false until the first successful computation and from
	// then on true until a reset.
	Valid bool
	// Cycle classifies the ingest cycle that produced this snapshot.
	Cycle CycleResult
	// Filtered is the zero-phase filtered window, always BufferSize
	// long. All zeros until the first full-window computation so
	// consumers always receive a fixed-shape signal.
	Filtered []float64
	// WaveformTail is the display history, oldest first, one value per
	// estimation cycle, up to WaveformSize entries.
	WaveformTail []float64
	// BufferFill is the window fill fraction in [0, 1].
	BufferFill float64
	// Generation counts accepted samples and is monotonically
	// non-decreasing across reads.
	Generation uint64
}

// Estimator owns the sample window, the filter, the waveform history
// and the sticky estimate. It is not safe for concurrent use, Monitor
// wraps it behind a single lock.
type Estimator struct {
	cfg      Config
	filter   *Bandpass
	samples  *Ring
	waveform *Ring

	bpm          float64
	hasBPM       bool
	lastFiltered []float64
	lastCycle    CycleResult
	accepted     uint64
	dropped      uint64
}

// NewEstimator validates the configuration, derives the filter
// coefficients once and returns an estimator with empty buffers.
func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	filter, err := NewBandpass(cfg.FilterOrder, cfg.SampleRate, cfg.LowCut, cfg.HighCut)
	if err != nil {
		return nil, err
	}
	return &Estimator{
		cfg:       cfg,
		filter:    filter,
		samples:   NewRing(cfg.BufferSize),
		waveform:  NewRing(cfg.WaveformSize),
		lastCycle: CycleFilling,
	}, nil
}

// Config returns the immutable construction parameters.
func (e *Estimator) Config() Config { return e.cfg }

// Ingest appends one raw sample and, once the window is full,
// recomputes the estimate. Recomputing on every sample keeps the
// window sliding smoothly instead of stepping once per fill. Non-finite
// samples are rejected before they can poison the window. Ingest never
// fails, a cycle that cannot produce a new value returns the previous
// estimate unchanged.
func (e *Estimator) Ingest(x float64) Estimate {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		e.dropped++
		logger().Debug("dropped non-finite sample",
			"value", x,
			"dropped_total", e.dropped)
		e.lastCycle = CycleDropped
		return e.snapshot()
	}

	e.samples.Push(x)
	e.accepted++

	if !e.samples.Full() {
		e.lastCycle = CycleFilling
		return e.snapshot()
	}

	if e.compute() {
		e.lastCycle = CycleNew
	} else {
		e.lastCycle = CycleHeld
	}
	return e.snapshot()
}

// compute runs one estimation cycle over the full window and reports
// whether a fresh BPM was accepted. On any degeneracy the sticky state
// is left untouched.
func (e *Estimator) compute() bool {
	window := e.samples.Values()

	detrend(window)
	if !normalize(window) {
		logger().Debug("constant signal window, holding previous estimate",
			"generation", e.accepted)
		return false
	}

	filtered := e.filter.Apply(window)
	e.lastFiltered = filtered
	e.waveform.Push(filtered[len(filtered)-1])

	freq, ok := e.dominantFrequency(filtered)
	if !ok {
		logger().Debug("no spectral energy inside pass-band, holding previous estimate",
			"generation", e.accepted)
		return false
	}

	bpm := freq * 60
	// The search interval already restricts candidates to the
	// pass-band, so this acceptance check cannot fail today. It stays
	// because the search window and the acceptance window could be
	// reconfigured independently.
	if math.IsNaN(bpm) || bpm < e.cfg.LowCut*60 || bpm > e.cfg.HighCut*60 {
		logger().Warn("estimate outside acceptance range, holding previous estimate",
			"bpm", bpm,
			"low_bpm", e.cfg.LowCut*60,
			"high_bpm", e.cfg.HighCut*60)
		return false
	}

	e.bpm = math.Round(bpm*10) / 10
	e.hasBPM = true
	return true
}

// dominantFrequency returns the frequency of the strongest magnitude
// bin of the real FFT inside the closed pass-band interval. Ties break
// toward the lowest frequency because the scan runs in ascending bin
// order and only a strictly greater magnitude replaces the candidate.
func (e *Estimator) dominantFrequency(x []float64) (float64, bool) {
	spectrum := fft.FFTReal(x)
	binHz := e.cfg.SampleRate / float64(len(x))

	bestFreq := 0.0
	bestMag := -1.0
	for i := 0; i <= len(x)/2; i++ {
		f := float64(i) * binHz
		if f < e.cfg.LowCut || f > e.cfg.HighCut {
			continue
		}
		if mag := cmplx.Abs(spectrum[i]); mag > bestMag {
			bestFreq, bestMag = f, mag
		}
	}
	if bestMag < 0 {
		return 0, false
	}
	return bestFreq, true
}

// Current returns the latest snapshot without ingesting anything.
func (e *Estimator) Current() Estimate { return e.snapshot() }

// WaveformTail returns the display history, oldest first.
func (e *Estimator) WaveformTail() []float64 { return e.waveform.Values() }

// Accepted returns the number of samples admitted into the window
// since construction.
func (e *Estimator) Accepted() uint64 { return e.accepted }

// Dropped returns the number of non-finite samples rejected since
// construction.
func (e *Estimator) Dropped() uint64 { return e.dropped }

// Reset empties the window and the waveform history and clears the
// sticky estimate. The filter keeps its coefficients, the configured
// pass-band is immutable for the estimator's lifetime. The generation
// counter keeps running so readers still observe a monotonic sequence
// across the reset.
func (e *Estimator) Reset() {
	e.samples.Clear()
	e.waveform.Clear()
	e.bpm = 0
	e.hasBPM = false
	e.lastFiltered = nil
	e.lastCycle = CycleFilling
}

func (e *Estimator) snapshot() Estimate {
	filtered := make([]float64, e.cfg.BufferSize)
	copy(filtered, e.lastFiltered)
	return Estimate{
		BPM:          e.bpm,
		Valid:        e.hasBPM,
		Cycle:        e.lastCycle,
		Filtered:     filtered,
		WaveformTail: e.waveform.Values(),
		BufferFill:   float64(e.samples.Len()) / float64(e.samples.Cap()),
		Generation:   e.accepted,
	}
}

// detrend removes the least-squares linear trend in place, taking slow
// illumination and motion drift out before it can dominate the low
// frequency bins.
func detrend(x []float64) {
	n := len(x)
	if n < 2 {
		return
	}

	tMean := float64(n-1) / 2
	var xMean float64
	for _, v := range x {
		xMean += v
	}
	xMean /= float64(n)

	var num, den float64
	for i, v := range x {
		dt := float64(i) - tMean
		num += dt * (v - xMean)
		den += dt * dt
	}
	slope := num / den
	intercept := xMean - slope*tMean

	for i := range x {
		x[i] -= intercept + slope*float64(i)
	}
}

// normalize standardizes the window to zero mean and unit variance in
// place. It reports false without touching x further when the standard
// deviation is below the noise floor.
func normalize(x []float64) bool {
	n := float64(len(x))
	if n == 0 {
		return false
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= n

	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / n)
	if std < stdFloor {
		return false
	}

	for i := range x {
		x[i] = (x[i] - mean) / std
	}
	return true
}
