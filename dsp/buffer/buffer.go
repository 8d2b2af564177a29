package buffer

import "github.com/cwbudde/tubecity/dsp/core"

// Buffer owns the sample storage of one channel.
type Buffer struct {
	samples []float64
}

// New returns a zero-filled Buffer of the given length.
func New(length int) *Buffer {
	return &Buffer{samples: make([]float64, max(length, 0))}
}

// Samples returns the underlying slice.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Len returns the current number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Resize sets the length to n. It only allocates when n exceeds the current
// capacity. Newly exposed samples are zeroed.
func (b *Buffer) Resize(n int) {
	n = max(n, 0)
	old := len(b.samples)

	if n > cap(b.samples) {
		grown := make([]float64, n)
		copy(grown, b.samples)
		b.samples = grown

		return
	}

	b.samples = b.samples[:n]
	if n > old {
		core.Zero(b.samples[old:])
	}
}

// Zero sets every sample to 0.
func (b *Buffer) Zero() {
	core.Zero(b.samples)
}

// Release drops the storage so it can be collected.
func (b *Buffer) Release() {
	b.samples = nil
}
