package render

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/tubecity/dsp/bus"
	"github.com/cwbudde/tubecity/dsp/core"
	"github.com/cwbudde/tubecity/dsp/tube"
)

// Status is the outcome of one Render call.
type Status int

const (
	// StatusOK means the block was processed.
	StatusOK Status = iota
	// StatusFrameCountExceeded means the request was larger than the
	// allocated maximum or the output slices. Silence was written.
	StatusFrameCountExceeded
	// StatusUninitialized means the dispatcher was used before channel
	// wiring or resource allocation, or bus, kernel and wiring disagree on
	// the channel count. Silence was written.
	StatusUninitialized
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFrameCountExceeded:
		return "frame count exceeded"
	case StatusUninitialized:
		return "uninitialized"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Stats is a snapshot of render counters.
type Stats struct {
	Blocks       uint64
	Errors       uint64
	PullFailures uint64
}

// Dispatcher wires an InputBus to a Kernel.
type Dispatcher struct {
	bus    *bus.InputBus
	kernel *tube.Kernel

	inChannels  int
	outChannels int

	blocks       atomic.Uint64
	errors       atomic.Uint64
	pullFailures atomic.Uint64
}

// NewDispatcher returns a dispatcher with no channel wiring.
func NewDispatcher(in *bus.InputBus, kernel *tube.Kernel) *Dispatcher {
	return &Dispatcher{bus: in, kernel: kernel}
}

// SetChannelCount configures the wiring between bus and kernel. The bus
// format is switched to in channels, and an initialized kernel must already
// run with the same count. It must only be called while no Render call is
// in flight.
func (d *Dispatcher) SetChannelCount(in, out int) error {
	if in != out {
		return fmt.Errorf("%w: %d in, %d out", tube.ErrChannelMismatch, in, out)
	}

	if in < 1 || in > bus.MaxChannels {
		return fmt.Errorf("%w: %d", bus.ErrTooManyChannels, in)
	}

	if d.kernel.Initialized() && d.kernel.Channels() != out {
		return fmt.Errorf("%w: kernel runs %d channels, wiring %d", tube.ErrChannelMismatch, d.kernel.Channels(), out)
	}

	format := d.bus.Format()
	format.Channels = in

	if err := d.bus.SetFormat(format); err != nil {
		return fmt.Errorf("render: input bus: %w", err)
	}

	d.inChannels = in
	d.outChannels = out

	return nil
}

// Reset clears the channel wiring; Render reports StatusUninitialized
// until SetChannelCount succeeds again.
func (d *Dispatcher) Reset() {
	d.inChannels = 0
	d.outChannels = 0
}

// Channels returns the wired input and output channel counts.
func (d *Dispatcher) Channels() (in, out int) {
	return d.inChannels, d.outChannels
}

// Render processes frames samples into output. Upstream pull failures are
// counted and rendered from a silent input block; they never change the
// returned Status.
func (d *Dispatcher) Render(output [][]float64, frames int) Status {
	if !d.wired() {
		d.errors.Add(1)
		silence(output, frames)

		return StatusUninitialized
	}

	if !d.fits(output, frames) {
		d.errors.Add(1)
		silence(output, frames)

		return StatusFrameCountExceeded
	}

	if err := d.bus.PrepareInputBuffer(frames); err != nil {
		d.pullFailures.Add(1)
	}

	d.kernel.Process(d.bus.Buffers(), output, frames)
	d.blocks.Add(1)

	return StatusOK
}

// Blocks returns the number of successfully rendered blocks.
func (d *Dispatcher) Blocks() uint64 { return d.blocks.Load() }

// Errors returns the number of blocks answered with silence.
func (d *Dispatcher) Errors() uint64 { return d.errors.Load() }

// PullFailures returns the number of blocks rendered from a silent input
// because the upstream pull failed.
func (d *Dispatcher) PullFailures() uint64 { return d.pullFailures.Load() }

// Stats returns all counters at once.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Blocks:       d.Blocks(),
		Errors:       d.Errors(),
		PullFailures: d.PullFailures(),
	}
}

func (d *Dispatcher) wired() bool {
	if d.outChannels == 0 || !d.bus.Allocated() || !d.kernel.Initialized() {
		return false
	}

	return d.bus.Format().Channels == d.inChannels && d.kernel.Channels() == d.outChannels
}

func (d *Dispatcher) fits(output [][]float64, frames int) bool {
	if frames < 0 || frames > d.bus.MaxFrames() || frames > d.kernel.MaximumFramesToRender() {
		return false
	}

	if len(output) < d.outChannels {
		return false
	}

	for ch := range d.outChannels {
		if len(output[ch]) < frames {
			return false
		}
	}

	return true
}

func silence(output [][]float64, frames int) {
	if frames <= 0 {
		return
	}

	for _, ch := range output {
		core.Zero(ch[:min(frames, len(ch))])
	}
}
