package bus

import (
	"errors"
	"fmt"

	"github.com/cwbudde/tubecity/dsp/buffer"
	"github.com/cwbudde/tubecity/dsp/core"
)

// MaxChannels is the hard cap on bus channels.
const MaxChannels = 8

var (
	// ErrTooManyChannels is returned for channel counts outside [1, MaxChannels]
	// or above the bus's configured maximum.
	ErrTooManyChannels = errors.New("bus: unsupported channel count")
	// ErrInvalidFormat is returned for formats with a non-positive or
	// non-finite sample rate.
	ErrInvalidFormat = errors.New("bus: invalid format")
	// ErrNotAllocated is returned when rendering before AllocateRenderResources.
	ErrNotAllocated = errors.New("bus: render resources not allocated")
	// ErrFrameCountExceeded is returned when a block exceeds the allocated size.
	ErrFrameCountExceeded = errors.New("bus: frame count exceeds allocated maximum")
	// ErrPullFailed is returned when the upstream source failed or is missing.
	// The prepared block is silent.
	ErrPullFailed = errors.New("bus: upstream pull failed")
	// ErrNoSource is recorded as the last pull error when no source is set.
	ErrNoSource = errors.New("bus: no upstream source")
)

// Format describes the stream carried by a bus.
type Format struct {
	SampleRate float64
	Channels   int
}

// Validate checks the format against the global channel cap.
func (f Format) Validate() error {
	if f.Channels < 1 || f.Channels > MaxChannels {
		return fmt.Errorf("%w: %d (supported 1..%d)", ErrTooManyChannels, f.Channels, MaxChannels)
	}

	if f.SampleRate <= 0 || !core.IsFinite(f.SampleRate) {
		return fmt.Errorf("%w: sample rate %g", ErrInvalidFormat, f.SampleRate)
	}

	return nil
}

// Source produces upstream audio. Pull fills frames samples into each slice
// of dst. It runs on the render goroutine and must not block.
type Source interface {
	Pull(dst [][]float64, frames int) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(dst [][]float64, frames int) error

// Pull calls f.
func (f SourceFunc) Pull(dst [][]float64, frames int) error {
	return f(dst, frames)
}

// InputBus owns the input storage of one render cycle.
type InputBus struct {
	format      Format
	maxChannels int
	maxFrames   int
	allocated   bool

	storage *buffer.Planar
	block   [][]float64

	source  Source
	lastErr error
}

// NewInputBus returns an uninitialized bus.
func NewInputBus() *InputBus {
	return &InputBus{}
}

// Initialize sets the stream format and the largest channel count the bus
// will ever carry. Existing render resources are released.
func (b *InputBus) Initialize(format Format, maxChannels int) error {
	if maxChannels < 1 || maxChannels > MaxChannels {
		return fmt.Errorf("%w: maximum %d (supported 1..%d)", ErrTooManyChannels, maxChannels, MaxChannels)
	}

	if err := format.Validate(); err != nil {
		return err
	}

	if format.Channels > maxChannels {
		return fmt.Errorf("%w: %d above maximum %d", ErrTooManyChannels, format.Channels, maxChannels)
	}

	b.DeallocateRenderResources()
	b.format = format
	b.maxChannels = maxChannels
	b.storage = buffer.NewPlanar(maxChannels, 0)

	return nil
}

// SetFormat changes the stream format within the initialized channel
// maximum. It does not allocate.
func (b *InputBus) SetFormat(format Format) error {
	if b.storage == nil {
		return fmt.Errorf("%w: bus not initialized", ErrNotAllocated)
	}

	if err := format.Validate(); err != nil {
		return err
	}

	if format.Channels > b.maxChannels {
		return fmt.Errorf("%w: %d above maximum %d", ErrTooManyChannels, format.Channels, b.maxChannels)
	}

	b.format = format
	b.block = nil

	return nil
}

// Format returns the current stream format.
func (b *InputBus) Format() Format { return b.format }

// MaxFrames returns the allocated per-channel capacity, or 0.
func (b *InputBus) MaxFrames() int { return b.maxFrames }

// Allocated reports whether render resources are in place.
func (b *InputBus) Allocated() bool { return b.allocated }

// AllocateRenderResources reserves maxFrames samples for every channel up to
// the initialized maximum. Calling it again with the same size is a no-op.
func (b *InputBus) AllocateRenderResources(maxFrames int) error {
	if b.storage == nil {
		return fmt.Errorf("%w: bus not initialized", ErrNotAllocated)
	}

	if maxFrames < 1 {
		return fmt.Errorf("%w: %d", ErrFrameCountExceeded, maxFrames)
	}

	if b.allocated && b.maxFrames == maxFrames {
		return nil
	}

	b.storage.Resize(maxFrames)
	b.maxFrames = maxFrames
	b.allocated = true
	b.block = nil

	return nil
}

// DeallocateRenderResources drops the render storage. It is safe to call
// repeatedly.
func (b *InputBus) DeallocateRenderResources() {
	if b.storage != nil {
		b.storage.Release()
	}

	b.allocated = false
	b.maxFrames = 0
	b.block = nil
}

// SetSource installs the upstream source. A nil source makes every pull
// yield silence.
func (b *InputBus) SetSource(src Source) {
	b.source = src
}

// PrepareInputBuffer pulls frames samples per channel into the bus. On an
// upstream failure the block is zero-filled and ErrPullFailed is returned;
// LastPullError holds the cause.
func (b *InputBus) PrepareInputBuffer(frames int) error {
	if !b.allocated {
		b.block = nil
		return ErrNotAllocated
	}

	if frames < 0 || frames > b.maxFrames {
		b.block = nil
		return ErrFrameCountExceeded
	}

	b.block = b.storage.View(b.format.Channels, frames)

	if b.source == nil {
		b.fail(ErrNoSource)
		return ErrPullFailed
	}

	if err := b.source.Pull(b.block, frames); err != nil {
		b.fail(err)
		return ErrPullFailed
	}

	b.lastErr = nil

	return nil
}

// Buffers returns the block prepared by the last PrepareInputBuffer call,
// one slice per channel. It is nil when no block is prepared.
func (b *InputBus) Buffers() [][]float64 {
	return b.block
}

// LastPullError returns the cause of the most recent failed pull, or nil.
func (b *InputBus) LastPullError() error {
	return b.lastErr
}

func (b *InputBus) fail(err error) {
	b.lastErr = err
	for _, ch := range b.block {
		core.Zero(ch)
	}
}
