// synthetic.go: simulated photoplethysmography source for development
// and demos without a camera.
package sampler

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
)

// SyntheticSource generates a plausible PPG waveform at a fixed heart
// rate with gaussian noise and slow baseline drift mixed in.
type SyntheticSource struct {
	bpm    float64
	noise  float64
	drift  float64
	rate   float64
	rng    *rand.Rand
	phase  float64
	sample uint64
}

// NewSynthetic creates a synthetic source from the settings. A zero
// seed picks a random sequence, any other value is reproducible.
func NewSynthetic(settings conf.SyntheticSettings, sampleRate float64) *SyntheticSource {
	seed := settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticSource{
		bpm:   settings.BPM,
		noise: settings.Noise,
		drift: settings.Drift,
		rate:  sampleRate,
		rng:   rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1)),
	}
}

func (s *SyntheticSource) Name() string { return "synthetic" }

// Stream emits samples paced at the capture rate until the context is
// cancelled.
func (s *SyntheticSource) Stream(ctx context.Context, out chan<- float64) error {
	interval := time.Duration(float64(time.Second) / s.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	getLogger().Info("Synthetic source started",
		"bpm", s.bpm, "sample_rate", s.rate, "noise", s.noise)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			select {
			case out <- s.Next():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Next returns the next sample of the simulated waveform.
func (s *SyntheticSource) Next() float64 {
	t := float64(s.sample) / s.rate
	s.sample++

	value := pulseShape(s.phase)
	s.phase += s.bpm / 60.0 / s.rate
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}

	// Slow respiratory style baseline wander at roughly 0.1 Hz, well
	// below the filter pass band.
	value += s.drift * math.Sin(2*math.Pi*0.1*t)
	value += s.noise * s.rng.NormFloat64()

	return value
}

// pulseShape maps a cycle phase in [0,1) to an idealized PPG pulse
// with a systolic peak followed by a smaller dicrotic bump.
func pulseShape(phase float64) float64 {
	systolic := math.Exp(-squared((phase - 0.18) / 0.06))
	dicrotic := 0.35 * math.Exp(-squared((phase-0.42)/0.10))
	return systolic + dicrotic
}

func squared(x float64) float64 { return x * x }
