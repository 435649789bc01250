package pulse

import (
	"math"
	"math/cmplx"

	"github.com/Aanishnithin07/Project-Aura/internal/errors"
)

// section is a single second-order filter stage with coefficients
// normalized so a0 == 1.
type section struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Bandpass is a Butterworth bandpass filter applied with zero phase
// lag. Coefficients are derived once at construction; Apply is a pure
// function of the coefficients and its input, no state survives
// between calls.
type Bandpass struct {
	sections   []section
	sampleRate float64
	lowCut     float64
	highCut    float64
	order      int
	padLen     int
}

// NewBandpass designs a bandpass filter of the given Butterworth
// prototype order for signals sampled at sampleRate Hz. The pass-band
// is the closed interval [lowCut, highCut] Hz. Construction fails on
// any cutoff misconfiguration, such a filter cannot be recovered at
// runtime and the caller must refuse to start.
func NewBandpass(order int, sampleRate, lowCut, highCut float64) (*Bandpass, error) {
	nyquist := sampleRate / 2
	switch {
	case sampleRate <= 0:
		return nil, errors.Newf("sample rate must be positive, got %g Hz", sampleRate).
			Component("pulse").
			Category(errors.CategoryConfiguration).
			Context("operation", "design-bandpass").
			Build()
	case lowCut <= 0:
		return nil, errors.Newf("low cutoff must be above 0 Hz, got %g Hz", lowCut).
			Component("pulse").
			Category(errors.CategoryConfiguration).
			Context("operation", "design-bandpass").
			Build()
	case highCut >= nyquist:
		return nil, errors.Newf("high cutoff %g Hz must be below the Nyquist frequency %g Hz", highCut, nyquist).
			Component("pulse").
			Category(errors.CategoryConfiguration).
			Context("operation", "design-bandpass").
			Build()
	case lowCut >= highCut:
		return nil, errors.Newf("low cutoff %g Hz must be below high cutoff %g Hz", lowCut, highCut).
			Component("pulse").
			Category(errors.CategoryConfiguration).
			Context("operation", "design-bandpass").
			Build()
	case order < 2 || order%2 != 0:
		return nil, errors.Newf("filter order must be a positive even number, got %d", order).
			Component("pulse").
			Category(errors.CategoryConfiguration).
			Context("operation", "design-bandpass").
			Build()
	}

	sections, err := designBandpass(order, sampleRate, lowCut, highCut)
	if err != nil {
		return nil, err
	}

	return &Bandpass{
		sections:   sections,
		sampleRate: sampleRate,
		lowCut:     lowCut,
		highCut:    highCut,
		order:      order,
		// Edge padding for the forward-backward pass, three times the
		// effective transfer function length of the cascade.
		padLen: 3 * (2*order + 1),
	}, nil
}

// designBandpass maps an order-N Butterworth lowpass prototype onto a
// bandpass pole set via the standard lowpass-to-bandpass transform and
// discretizes each conjugate pole pair with the bilinear transform.
// The result is N second-order sections, an order-2N transfer function.
func designBandpass(order int, fs, low, high float64) ([]section, error) {
	// Pre-warped analog edge frequencies.
	w1 := 2 * fs * math.Tan(math.Pi*low/fs)
	w2 := 2 * fs * math.Tan(math.Pi*high/fs)
	w0 := math.Sqrt(w1 * w2)
	bw := w2 - w1

	k := complex(2*fs, 0)
	sections := make([]section, 0, order)

	for i := 0; i < order/2; i++ {
		// Upper half-plane prototype pole on the unit circle.
		theta := math.Pi * float64(2*i+1) / float64(2*order)
		proto := complex(-math.Sin(theta), math.Cos(theta))

		// Each prototype pole splits into two bandpass poles.
		a := complex(bw/2, 0) * proto
		d := cmplx.Sqrt(a*a - complex(w0*w0, 0))
		for _, s := range [2]complex128{a + d, a - d} {
			z := (k + s) / (k - s)
			sec := section{
				// Bandpass zeros sit at z = +1 and z = -1.
				b0: 1, b1: 0, b2: -1,
				a1: -2 * real(z),
				a2: real(z)*real(z) + imag(z)*imag(z),
			}
			if !sec.stable() {
				return nil, errors.Newf("unstable filter section for pass-band %g-%g Hz at %g Hz sample rate", low, high, fs).
					Component("pulse").
					Category(errors.CategoryConfiguration).
					Context("operation", "design-bandpass").
					Build()
			}
			sections = append(sections, sec)
		}
	}

	normalizeGain(sections, fs, math.Sqrt(low*high))
	return sections, nil
}

// stable reports whether both poles of the section lie strictly inside
// the unit circle.
func (s *section) stable() bool {
	return math.Abs(s.a2) < 1 && math.Abs(s.a1) < 1+s.a2
}

// normalizeGain scales the cascade so the magnitude response is unity
// at the pass-band center frequency, distributing the correction
// evenly across sections to keep intermediate values well conditioned.
func normalizeGain(sections []section, fs, center float64) {
	z := cmplx.Exp(complex(0, 2*math.Pi*center/fs))
	z2 := z * z

	resp := complex(1, 0)
	for i := range sections {
		s := &sections[i]
		num := complex(s.b0, 0)*z2 + complex(s.b1, 0)*z + complex(s.b2, 0)
		den := z2 + complex(s.a1, 0)*z + complex(s.a2, 0)
		resp *= num / den
	}

	g := math.Pow(1/cmplx.Abs(resp), 1/float64(len(sections)))
	for i := range sections {
		sections[i].b0 *= g
		sections[i].b1 *= g
		sections[i].b2 *= g
	}
}

// Order returns the Butterworth prototype order.
func (f *Bandpass) Order() int { return f.order }

// SampleRate returns the design sample rate in Hz.
func (f *Bandpass) SampleRate() float64 { return f.sampleRate }

// LowCut returns the lower pass-band edge in Hz.
func (f *Bandpass) LowCut() float64 { return f.lowCut }

// HighCut returns the upper pass-band edge in Hz.
func (f *Bandpass) HighCut() float64 { return f.highCut }

// Apply filters x forward and then backward so the output is
// time-aligned with the input. The last output sample corresponds to
// the newest input sample, which is what makes it usable as the live
// waveform point. The input slice is not modified; the returned slice
// has the same length.
func (f *Bandpass) Apply(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	pad := f.padLen
	if pad >= n {
		pad = n - 1
	}

	// Odd extension at both edges suppresses start-up transients of
	// the forward and backward passes.
	ext := make([]float64, pad+n+pad)
	for i := 0; i < pad; i++ {
		ext[i] = 2*x[0] - x[pad-i]
		ext[pad+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)

	f.run(ext)
	reverse(ext)
	f.run(ext)
	reverse(ext)

	out := make([]float64, n)
	copy(out, ext[pad:pad+n])
	return out
}

// run pushes the signal through every section in place, direct form I
// with fresh state per call. State is primed so a constant input
// starts in steady state, which for a bandpass means zero output.
func (f *Bandpass) run(x []float64) {
	for si := range f.sections {
		s := &f.sections[si]
		in1, in2 := x[0], x[0]
		out1, out2 := 0.0, 0.0
		for i, v := range x {
			y := s.b0*v + s.b1*in1 + s.b2*in2 - s.a1*out1 - s.a2*out2
			in2, in1 = in1, v
			out2, out1 = out1, y
			x[i] = y
		}
	}
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
