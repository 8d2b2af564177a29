package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine wave starting at phase zero.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude)
// from a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// DC returns length samples of value.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Ones returns n samples of 1.
func Ones(n int) []float64 {
	return DC(1, n)
}

// Planar builds a multichannel block by calling fn once per channel.
func Planar(channels int, fn func(ch int) []float64) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = fn(ch)
	}

	return out
}

// Silence returns a zeroed planar block.
func Silence(channels, frames int) [][]float64 {
	return Planar(channels, func(int) []float64 { return make([]float64, frames) })
}
