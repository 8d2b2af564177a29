package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair differs by more than eps. eps 0 demands bit equality up
// to the sign of zero.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > eps || math.IsNaN(diff) {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireBlocksNearlyEqual applies RequireSliceNearlyEqual per channel.
func RequireBlocksNearlyEqual(t *testing.T, got, want [][]float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("channel mismatch: got %d, want %d", len(got), len(want))
	}

	for ch := range got {
		RequireSliceNearlyEqual(t, got[ch], want[ch], eps)
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
