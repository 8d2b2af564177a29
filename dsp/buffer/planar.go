package buffer

// Planar is a fixed set of channel buffers with a reusable slice of
// per-channel views, so handing out a block never allocates.
type Planar struct {
	channels []*Buffer
	views    [][]float64
}

// NewPlanar allocates channels buffers of frames samples each.
func NewPlanar(channels, frames int) *Planar {
	channels = max(channels, 0)

	p := &Planar{
		channels: make([]*Buffer, channels),
		views:    make([][]float64, channels),
	}
	for ch := range p.channels {
		p.channels[ch] = New(frames)
	}

	return p
}

// Channels returns the number of channel buffers.
func (p *Planar) Channels() int {
	return len(p.channels)
}

// Frames returns the per-channel length.
func (p *Planar) Frames() int {
	if len(p.channels) == 0 {
		return 0
	}

	return p.channels[0].Len()
}

// Resize sets every channel to frames samples.
func (p *Planar) Resize(frames int) {
	for _, b := range p.channels {
		b.Resize(frames)
	}
}

// View returns the first channels buffers cut to frames samples. Both
// counts are clamped to the allocated size. The returned slice is reused by
// the next call.
func (p *Planar) View(channels, frames int) [][]float64 {
	channels = min(max(channels, 0), len(p.channels))
	frames = min(max(frames, 0), p.Frames())

	for ch := range channels {
		p.views[ch] = p.channels[ch].Samples()[:frames]
	}

	return p.views[:channels]
}

// Zero clears every channel.
func (p *Planar) Zero() {
	for _, b := range p.channels {
		b.Zero()
	}
}

// Release drops every channel's storage.
func (p *Planar) Release() {
	for ch, b := range p.channels {
		b.Release()
		p.views[ch] = nil
	}
}
