package pulse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineWave returns n samples of a unit sine at freq Hz sampled at rate Hz.
func sineWave(n int, freq, rate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestNewBandpass_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		order      int
		sampleRate float64
		lowCut     float64
		highCut    float64
		wantMsg    string
	}{
		{"zero_sample_rate", 4, 0, 0.7, 4.0, "sample rate must be positive"},
		{"negative_sample_rate", 4, -30, 0.7, 4.0, "sample rate must be positive"},
		{"zero_low_cut", 4, 30, 0, 4.0, "low cutoff must be above 0 Hz"},
		{"negative_low_cut", 4, 30, -0.7, 4.0, "low cutoff must be above 0 Hz"},
		{"high_cut_at_nyquist", 4, 30, 0.7, 15.0, "below the Nyquist frequency"},
		{"high_cut_above_nyquist", 4, 30, 0.7, 20.0, "below the Nyquist frequency"},
		{"inverted_band", 4, 30, 4.0, 0.7, "must be below high cutoff"},
		{"empty_band", 4, 30, 2.0, 2.0, "must be below high cutoff"},
		{"odd_order", 3, 30, 0.7, 4.0, "positive even number"},
		{"zero_order", 0, 30, 0.7, 4.0, "positive even number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewBandpass(tt.order, tt.sampleRate, tt.lowCut, tt.highCut)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNewBandpass_DesignShape(t *testing.T) {
	t.Parallel()

	f, err := NewBandpass(4, 30, 0.7, 4.0)
	require.NoError(t, err)

	assert.Equal(t, 4, f.Order())
	assert.Equal(t, 30.0, f.SampleRate())
	assert.Equal(t, 0.7, f.LowCut())
	assert.Equal(t, 4.0, f.HighCut())

	// An order-N prototype yields N second-order sections, an order-2N
	// transfer function overall.
	assert.Len(t, f.sections, 4)
	assert.Equal(t, 27, f.padLen)
}

func TestBandpass_SectionsStable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		order      int
		sampleRate float64
		lowCut     float64
		highCut    float64
	}{
		{"monitoring_default", 4, 30, 0.7, 4.0},
		{"second_order", 2, 30, 0.7, 4.0},
		{"eighth_order", 8, 30, 0.7, 4.0},
		{"narrow_band", 4, 30, 1.0, 1.5},
		{"high_rate_capture", 4, 60, 0.8, 3.5},
		{"band_near_nyquist", 4, 30, 0.7, 14.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewBandpass(tt.order, tt.sampleRate, tt.lowCut, tt.highCut)
			require.NoError(t, err)
			require.Len(t, f.sections, tt.order)
			for i := range f.sections {
				assert.True(t, f.sections[i].stable(), "section %d has a pole on or outside the unit circle", i)
			}
		})
	}
}

func TestBandpass_PassbandUnityGain(t *testing.T) {
	t.Parallel()

	f, err := NewBandpass(4, 30, 0.7, 4.0)
	require.NoError(t, err)

	// Mid-band tones must come through at essentially full amplitude.
	// The middle of a long record keeps edge transients out of the
	// measurement.
	for _, freq := range []float64{1.0, 1.2, 2.0, 3.0} {
		in := sineWave(600, freq, 30)
		out := f.Apply(in)
		ratio := rms(out[100:500]) / rms(in[100:500])
		assert.InDelta(t, 1.0, ratio, 0.1, "gain at %g Hz", freq)
	}
}

func TestBandpass_StopbandAttenuation(t *testing.T) {
	t.Parallel()

	f, err := NewBandpass(4, 30, 0.7, 4.0)
	require.NoError(t, err)

	t.Run("slow_drift_rejected", func(t *testing.T) {
		in := sineWave(600, 0.2, 30)
		out := f.Apply(in)
		ratio := rms(out[100:500]) / rms(in[100:500])
		assert.Less(t, ratio, 0.05, "0.2 Hz drift must be strongly attenuated")
	})

	t.Run("fast_flicker_rejected", func(t *testing.T) {
		in := sineWave(600, 6.0, 30)
		out := f.Apply(in)
		ratio := rms(out[100:500]) / rms(in[100:500])
		assert.Less(t, ratio, 0.1, "6 Hz flicker must be strongly attenuated")
	})
}

func TestBandpass_ZeroPhaseAlignment(t *testing.T) {
	t.Parallel()

	f, err := NewBandpass(4, 30, 0.7, 4.0)
	require.NoError(t, err)

	in := sineWave(600, 1.2, 30)
	out := f.Apply(in)

	// The forward-backward pass cancels the filter's phase response, so
	// the cross-correlation between input and output must peak at lag
	// zero. A single-pass filter of this order would be several samples
	// late.
	corr := func(lag int) float64 {
		var sum float64
		for i := 100; i < 500; i++ {
			sum += in[i] * out[i+lag]
		}
		return sum
	}

	at0 := corr(0)
	for lag := -3; lag <= 3; lag++ {
		if lag == 0 {
			continue
		}
		assert.Greater(t, at0, corr(lag), "correlation at lag 0 must beat lag %d", lag)
	}
}

func TestBandpass_ConstantInputSettlesToZero(t *testing.T) {
	t.Parallel()

	f, err := NewBandpass(4, 30, 0.7, 4.0)
	require.NoError(t, err)

	in := make([]float64, 300)
	for i := range in {
		in[i] = 0.4375
	}

	out := f.Apply(in)
	require.Len(t, out, len(in))
	for i, v := range out {
		assert.InDelta(t, 0, v, 1e-9, "sample %d", i)
	}
}

func TestBandpass_ApplyPreservesInput(t *testing.T) {
	t.Parallel()

	f, err := NewBandpass(4, 30, 0.7, 4.0)
	require.NoError(t, err)

	in := sineWave(150, 1.2, 30)
	orig := make([]float64, len(in))
	copy(orig, in)

	out := f.Apply(in)

	assert.Equal(t, orig, in, "Apply must not modify its input")
	assert.Len(t, out, len(in))
}

func TestBandpass_ApplyEdgeCases(t *testing.T) {
	t.Parallel()

	f, err := NewBandpass(4, 30, 0.7, 4.0)
	require.NoError(t, err)

	t.Run("empty_input", func(t *testing.T) {
		assert.Nil(t, f.Apply(nil))
		assert.Nil(t, f.Apply([]float64{}))
	})

	t.Run("input_shorter_than_padding", func(t *testing.T) {
		// Ten samples is well under the 27-sample edge padding; the pad
		// clamps to the available length instead of reading out of range.
		in := sineWave(10, 1.2, 30)
		out := f.Apply(in)
		require.Len(t, out, 10)
		for i, v := range out {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "sample %d is not finite", i)
		}
	})
}

func BenchmarkBandpassApply(b *testing.B) {
	f, err := NewBandpass(4, 30, 0.7, 4.0)
	if err != nil {
		b.Fatal(err)
	}
	window := sineWave(150, 1.2, 30)

	b.ReportAllocs()
	for b.Loop() {
		f.Apply(window)
	}
}
