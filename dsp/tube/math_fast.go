//go:build fastmath

package tube

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

// tanhSaturation is the magnitude above which tanh is 1 in float64.
const tanhSaturation = 19.0

// mathTanh computes tanh(x) from a fast exponential. The curve is evaluated
// on |x| and the sign restored so odd symmetry is exact.
func mathTanh(x float64) float64 {
	ax := math.Abs(x)
	if ax >= tanhSaturation {
		return math.Copysign(1, x)
	}

	e := approx.FastExp(2 * ax)

	return math.Copysign((e-1)/(e+1), x)
}

// mathSqrt computes sqrt(x) using fast approximation.
func mathSqrt(x float64) float64 {
	return approx.FastSqrt(x)
}
