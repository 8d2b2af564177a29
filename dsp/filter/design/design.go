package design

import (
	"math"

	"github.com/cwbudde/tubecity/dsp/filter/biquad"
)

// ButterworthQ is the quality factor of a maximally flat second-order section.
const ButterworthQ = 1 / math.Sqrt2

// Lowpass designs an RBJ lowpass biquad at freq (Hz) with quality factor q.
// Invalid frequencies yield zero coefficients.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * normalizedQ(q))

	b1 := 1 - cw
	b0 := b1 / 2

	return normalizeBiquad(b0, b1, b0, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs an RBJ highpass biquad at freq (Hz) with quality factor q.
// Invalid frequencies yield zero coefficients.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * normalizedQ(q))

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)

	return normalizeBiquad(b0, b1, b0, 1+alpha, -2*cw, 1-alpha)
}

// ValidFrequency reports whether freq lies strictly between 0 and Nyquist.
func ValidFrequency(freq, sampleRate float64) bool {
	_, ok := normalizedW0(freq, sampleRate)
	return ok
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return ButterworthQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
