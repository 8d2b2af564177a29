package core

import "math"

const defaultEpsilon = 1e-12

// DenormalThreshold is the magnitude below which FlushDenormals returns zero.
const DenormalThreshold = 1e-15

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether x is neither NaN nor an infinity.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FlushDenormals converts values smaller than DenormalThreshold to exact zero.
// Recursive filter and envelope state decaying on silence would otherwise
// drift into the subnormal range where many CPUs slow down sharply.
func FlushDenormals(x float64) float64 {
	return FlushBelow(x, DenormalThreshold)
}

// FlushBelow returns 0 when |x| < threshold, x otherwise.
func FlushBelow(x, threshold float64) float64 {
	if x > -threshold && x < threshold {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
