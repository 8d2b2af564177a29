package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 0.5, 48)
	if s[0] != 0 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}

	if math.Abs(s[12]-0.5) > 1e-12 {
		t.Fatalf("quarter period = %v, want 0.5", s[12])
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 0.5, 256)
	b := DeterministicNoise(42, 0.5, 256)
	c := DeterministicNoise(43, 0.5, 256)

	same := true

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d not reproducible", i)
		}

		if a[i] < -0.5 || a[i] >= 0.5 {
			t.Fatalf("index %d out of range: %v", i, a[i])
		}

		same = same && a[i] == c[i]
	}

	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestDCAndOnes(t *testing.T) {
	for i, v := range DC(-0.25, 4) {
		if v != -0.25 {
			t.Fatalf("DC[%d] = %v", i, v)
		}
	}

	if o := Ones(3); len(o) != 3 || o[2] != 1 {
		t.Fatalf("Ones(3) = %v", o)
	}
}

func TestPlanarAndSilence(t *testing.T) {
	p := Planar(3, func(ch int) []float64 { return DC(float64(ch), 2) })
	if len(p) != 3 || p[2][1] != 2 {
		t.Fatalf("Planar() = %v", p)
	}

	s := Silence(2, 5)
	if len(s) != 2 || len(s[1]) != 5 || s[1][4] != 0 {
		t.Fatalf("Silence() = %v", s)
	}
}
