package buffer

import "testing"

func TestNewZeroFilled(t *testing.T) {
	b := New(8)
	if b.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", b.Len())
	}

	for i, v := range b.Samples() {
		if v != 0 {
			t.Fatalf("Samples()[%d] = %v, want 0", i, v)
		}
	}

	if New(-1).Len() != 0 {
		t.Fatal("negative length must yield an empty buffer")
	}
}

func TestResizeWithinCapacityZeroesStaleSamples(t *testing.T) {
	b := New(4)
	for i := range b.Samples() {
		b.Samples()[i] = float64(i + 1)
	}

	b.Resize(2)
	b.Resize(4)

	want := []float64{1, 2, 0, 0}
	for i, v := range b.Samples() {
		if v != want[i] {
			t.Fatalf("Samples()[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestResizeGrowPreservesData(t *testing.T) {
	b := New(2)
	b.Samples()[1] = 7

	b.Resize(16)

	if b.Len() != 16 || b.Samples()[1] != 7 || b.Samples()[15] != 0 {
		t.Fatalf("unexpected buffer after grow: len=%d %v", b.Len(), b.Samples())
	}
}

func TestRelease(t *testing.T) {
	b := New(4)
	b.Release()

	if b.Len() != 0 || b.Samples() != nil {
		t.Fatal("Release must drop storage")
	}
}

func TestPlanarView(t *testing.T) {
	p := NewPlanar(3, 8)

	if p.Channels() != 3 || p.Frames() != 8 {
		t.Fatalf("Channels()=%d Frames()=%d", p.Channels(), p.Frames())
	}

	v := p.View(2, 5)
	if len(v) != 2 || len(v[0]) != 5 || len(v[1]) != 5 {
		t.Fatalf("View(2, 5) shape = %d x %d", len(v), len(v[0]))
	}

	v[1][4] = 3
	if p.View(3, 8)[1][4] != 3 {
		t.Fatal("views must alias channel storage")
	}

	if got := p.View(10, 100); len(got) != 3 || len(got[0]) != 8 {
		t.Fatalf("View must clamp, got %d x %d", len(got), len(got[0]))
	}

	if got := p.View(-1, 4); len(got) != 0 {
		t.Fatalf("View(-1, 4) returned %d channels", len(got))
	}
}

func TestPlanarViewDoesNotAllocate(t *testing.T) {
	p := NewPlanar(2, 256)

	allocs := testing.AllocsPerRun(100, func() {
		v := p.View(2, 128)
		v[0][0] = 1
	})
	if allocs != 0 {
		t.Fatalf("View allocated %.1f times", allocs)
	}
}

func TestPlanarZeroAndRelease(t *testing.T) {
	p := NewPlanar(2, 4)
	p.View(2, 4)[0][2] = 5

	p.Zero()

	if p.View(2, 4)[0][2] != 0 {
		t.Fatal("Zero did not clear samples")
	}

	p.Release()

	if p.Frames() != 0 || len(p.View(2, 4)[0]) != 0 {
		t.Fatal("Release must drop storage")
	}
}
