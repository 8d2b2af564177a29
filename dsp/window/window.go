// Package window generates the analysis windows used by harmonic
// measurements.
package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeBlackmanHarris
	TypeFlatTop
)

// Metadata holds spectral properties of a window type.
type Metadata struct {
	Name string
	// ENBW is the equivalent noise bandwidth in bins.
	ENBW float64
	// MainLobeBins is the distance from the peak to the first null in bins.
	MainLobeBins int
}

var metadata = map[Type]Metadata{
	TypeRectangular:    {Name: "Rectangular", ENBW: 1, MainLobeBins: 1},
	TypeHann:           {Name: "Hann", ENBW: 1.5, MainLobeBins: 2},
	TypeBlackmanHarris: {Name: "Blackman-Harris", ENBW: 2.0044, MainLobeBins: 4},
	TypeFlatTop:        {Name: "Flat Top", ENBW: 3.7702, MainLobeBins: 5},
}

var cosineTerms = map[Type][]float64{
	TypeRectangular:    {1},
	TypeHann:           {0.5, 0.5},
	TypeBlackmanHarris: {0.35875, 0.48829, 0.14128, 0.01168},
	TypeFlatTop:        {0.21557895, 0.41663158, 0.277263158, 0.083578947, 0.006947368},
}

// Types returns every supported window type.
func Types() []Type {
	return []Type{TypeRectangular, TypeHann, TypeBlackmanHarris, TypeFlatTop}
}

// Info returns metadata for t. Unknown types report an empty name.
func Info(t Type) Metadata {
	return metadata[t]
}

func (t Type) String() string {
	if m, ok := metadata[t]; ok {
		return m.Name
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Parse resolves a window name case-insensitively. Spaces and dashes are
// ignored, so "blackman-harris" and "BlackmanHarris" both match.
func Parse(name string) (Type, error) {
	key := normalizeName(name)
	for _, t := range Types() {
		if normalizeName(metadata[t].Name) == key {
			return t, nil
		}
	}

	return 0, fmt.Errorf("window: unknown type %q", name)
}

func normalizeName(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic form used for FFT framing instead of the
// symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length. Unknown types
// and non-positive lengths return nil.
func Generate(t Type, length int, opts ...Option) []float64 {
	terms, ok := cosineTerms[t]
	if !ok || length <= 0 {
		return nil
	}

	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make([]float64, length)
	if length == 1 {
		out[0] = 1
		return out
	}

	denom := float64(length - 1)
	if cfg.periodic {
		denom = float64(length)
	}

	for n := range out {
		out[n] = cosineSum(2*math.Pi*float64(n)/denom, terms)
	}

	return out
}

// Apply multiplies buf in place by a window of type t.
func Apply(t Type, buf []float64, opts ...Option) {
	coeffs := Generate(t, len(buf), opts...)
	if coeffs == nil {
		return
	}

	vecmath.MulBlockInPlace(buf, coeffs)
}

// CoherentGain returns the mean coefficient, the amplitude scale a window
// applies to a bin-centred sinusoid.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}

	return vecmath.Sum(coeffs) / float64(len(coeffs))
}

// cosineSum evaluates a0 - a1 cos(x) + a2 cos(2x) - ...
func cosineSum(x float64, terms []float64) float64 {
	sum := 0.0
	sign := 1.0

	for k, a := range terms {
		sum += sign * a * math.Cos(float64(k)*x)
		sign = -sign
	}

	return sum
}
