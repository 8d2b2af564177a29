package tube

import (
	"fmt"
	"math"
)

// Voicing selects one of the three saturation curves.
type Voicing int

const (
	VoicingNeutral Voicing = iota
	VoicingWarm
	VoicingAggressive
)

const (
	neutralDrive    = 0.5
	warmDrive       = 0.8
	aggressiveDrive = 1.6
)

// Voicings returns every voicing from mildest to strongest.
func Voicings() []Voicing {
	return []Voicing{VoicingNeutral, VoicingWarm, VoicingAggressive}
}

func (v Voicing) String() string {
	switch v {
	case VoicingNeutral:
		return "neutral"
	case VoicingWarm:
		return "warm"
	case VoicingAggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("Voicing(%d)", int(v))
	}
}

// Shape applies the voicing's static transfer curve to x.
func (v Voicing) Shape(x float64) float64 {
	switch v {
	case VoicingNeutral:
		return neutralShape(x)
	case VoicingWarm:
		return warmShape(x)
	case VoicingAggressive:
		return aggressiveShape(x)
	default:
		return x
	}
}

// Ceiling returns the output magnitude the curve approaches for large input.
func (v Voicing) Ceiling() float64 {
	switch v {
	case VoicingNeutral:
		return 1 / neutralDrive
	case VoicingWarm:
		return 1 / warmDrive
	case VoicingAggressive:
		return 1 / aggressiveDrive
	default:
		return math.Inf(1)
	}
}

// neutralShape is a gently driven tanh: tanh(k*x)/k.
func neutralShape(x float64) float64 {
	return mathTanh(neutralDrive*x) / neutralDrive
}

// warmShape is an arctangent curve with a rounder knee than tanh.
func warmShape(x float64) float64 {
	const scale = math.Pi * warmDrive / 2
	return math.Atan(scale*x) / scale
}

// aggressiveShape is the algebraic clipper x/sqrt(1+(k*x)^2), which bends
// earliest of the three.
func aggressiveShape(x float64) float64 {
	kx := aggressiveDrive * x
	return x / mathSqrt(1+kx*kx)
}
