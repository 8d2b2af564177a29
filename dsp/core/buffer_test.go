package core

import "testing"

func TestZero(t *testing.T) {
	buf := []float64{1, -2, 3}
	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}

	Zero(nil)
}

func TestCopyInto(t *testing.T) {
	dst := make([]float64, 2)
	if n := CopyInto(dst, []float64{1, 2, 3}); n != 2 || dst[1] != 2 {
		t.Fatalf("CopyInto() = %d, dst = %v", n, dst)
	}

	dst = make([]float64, 4)
	if n := CopyInto(dst, []float64{5}); n != 1 || dst[0] != 5 || dst[1] != 0 {
		t.Fatalf("CopyInto() = %d, dst = %v", n, dst)
	}
}
