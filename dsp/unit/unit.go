package unit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/tubecity/dsp/bus"
	"github.com/cwbudde/tubecity/dsp/core"
	"github.com/cwbudde/tubecity/dsp/meter"
	"github.com/cwbudde/tubecity/dsp/param"
	"github.com/cwbudde/tubecity/dsp/render"
	"github.com/cwbudde/tubecity/dsp/tube"
)

// ErrUnsupportedLayout is returned for channel layouts outside
// ChannelCapabilities.
var ErrUnsupportedLayout = errors.New("unit: unsupported channel layout")

// Capability is a supported input/output channel pair.
type Capability struct {
	In  int
	Out int
}

var capabilities = []Capability{{In: 1, Out: 1}, {In: 2, Out: 2}}

// Unit is one effect instance.
type Unit struct {
	logger *slog.Logger

	kernel     *tube.Kernel
	bus        *bus.InputBus
	dispatcher *render.Dispatcher
	tree       *param.Tree

	processor     core.ProcessorConfig
	maxFrames     int
	meterInterval time.Duration

	meterMu   sync.Mutex
	meterStop context.CancelFunc
	meterDone chan struct{}
}

// New builds an instance and pushes every writable parameter default into
// the kernel.
func New(opts ...Option) (*Unit, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	kernel, err := tube.NewKernel(cfg.kernelOptions...)
	if err != nil {
		return nil, fmt.Errorf("unit: %w", err)
	}

	in := bus.NewInputBus()
	u := &Unit{
		logger:        cfg.logger,
		kernel:        kernel,
		bus:           in,
		dispatcher:    render.NewDispatcher(in, kernel),
		tree:          param.NewTree(),
		processor:     cfg.processor,
		maxFrames:     cfg.processor.BlockSize,
		meterInterval: cfg.meterInterval,
	}

	u.tree.Apply(kernel)
	kernel.SetMaximumFramesToRender(u.maxFrames)

	return u, nil
}

// ChannelCapabilities returns the supported channel layouts.
func (u *Unit) ChannelCapabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)

	return out
}

// MaximumFramesToRender returns the render block capacity.
func (u *Unit) MaximumFramesToRender() int { return u.maxFrames }

// SetMaximumFramesToRender sets the capacity used by the next
// AllocateRenderResources. Non-positive values are ignored.
func (u *Unit) SetMaximumFramesToRender(n int) {
	if n > 0 {
		u.maxFrames = n
	}
}

// AllocateRenderResources initializes the kernel, allocates the input bus
// and wires the dispatcher. On any failure the unit is left deallocated.
func (u *Unit) AllocateRenderResources(inChannels, outChannels int, sampleRate float64) error {
	u.DeallocateRenderResources()

	if err := u.allocate(inChannels, outChannels, sampleRate); err != nil {
		u.DeallocateRenderResources()
		u.logger.Error("allocate render resources failed",
			"in_channels", inChannels, "out_channels", outChannels,
			"sample_rate", sampleRate, "error", err)

		return err
	}

	u.logger.Info("render resources allocated",
		"channels", inChannels, "sample_rate", sampleRate,
		"max_frames", u.maxFrames, "oversampling", u.kernel.Oversampling())

	return nil
}

// AllocateDefault allocates render resources for the stream configured with
// WithProcessorOptions, 44.1 kHz stereo unless overridden.
func (u *Unit) AllocateDefault() error {
	return u.AllocateRenderResources(u.processor.Channels, u.processor.Channels, u.processor.SampleRate)
}

func (u *Unit) allocate(inChannels, outChannels int, sampleRate float64) error {
	u.kernel.SetMaximumFramesToRender(u.maxFrames)

	if err := u.kernel.Initialize(inChannels, outChannels, sampleRate); err != nil {
		return fmt.Errorf("unit: %w", err)
	}

	if !supported(inChannels, outChannels) {
		return fmt.Errorf("%w: [%d, %d]", ErrUnsupportedLayout, inChannels, outChannels)
	}

	format := bus.Format{SampleRate: sampleRate, Channels: inChannels}
	if err := u.bus.Initialize(format, bus.MaxChannels); err != nil {
		return fmt.Errorf("unit: %w", err)
	}

	if err := u.bus.AllocateRenderResources(u.maxFrames); err != nil {
		return fmt.Errorf("unit: %w", err)
	}

	if err := u.dispatcher.SetChannelCount(inChannels, outChannels); err != nil {
		return fmt.Errorf("unit: %w", err)
	}

	return nil
}

// DeallocateRenderResources releases render state. It is safe to call
// repeatedly.
func (u *Unit) DeallocateRenderResources() {
	wasAllocated := u.kernel.Initialized()

	u.dispatcher.Reset()
	u.bus.DeallocateRenderResources()
	u.kernel.Deinitialize()

	if wasAllocated {
		u.logger.Info("render resources deallocated", "stats", u.dispatcher.Stats())
	}
}

// SetSource installs the upstream audio source.
func (u *Unit) SetSource(src bus.Source) {
	u.bus.SetSource(src)
}

// Render processes one block into output. It is the only method meant for
// the render goroutine.
func (u *Unit) Render(output [][]float64, frames int) render.Status {
	return u.dispatcher.Render(output, frames)
}

// Stats returns the render counters.
func (u *Unit) Stats() render.Stats {
	return u.dispatcher.Stats()
}

// SetParameter clamps and stores a parameter value.
func (u *Unit) SetParameter(a param.Address, value float32) {
	u.kernel.SetParameter(a, value)
}

// Parameter returns a parameter value, or 0 for unknown addresses.
func (u *Unit) Parameter(a param.Address) float32 {
	return u.kernel.Parameter(a)
}

// ParameterString formats the current value of a for display.
func (u *Unit) ParameterString(a param.Address) string {
	return u.tree.Display(u.kernel, a)
}

// Parameters returns the parameter tree in address order.
func (u *Unit) Parameters() []param.Spec {
	return u.tree.All()
}

// SetBypass switches bypass on or off.
func (u *Unit) SetBypass(bypass bool) {
	u.kernel.SetBypass(bypass)
}

// IsBypassed reports whether the unit is bypassed.
func (u *Unit) IsBypassed() bool {
	return u.kernel.IsBypassed()
}

// SignalLevel returns the smoothed output meter.
func (u *Unit) SignalLevel() float32 {
	return u.kernel.SignalLevel()
}

// FlickerLevel returns the fast flicker meter.
func (u *Unit) FlickerLevel() float32 {
	return u.kernel.FlickerLevel()
}

// Kernel exposes the underlying kernel.
func (u *Unit) Kernel() *tube.Kernel {
	return u.kernel
}

// StartMeter polls the meters at the configured interval and calls fn from a
// new goroutine until ctx is done or StopMeter is called. A running poller
// is replaced.
func (u *Unit) StartMeter(ctx context.Context, fn func(meter.Reading)) {
	u.meterMu.Lock()
	defer u.meterMu.Unlock()

	u.stopMeterLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	poller := meter.NewPoller(u.kernel, u.meterInterval)

	u.meterStop = cancel
	u.meterDone = done

	u.logger.Debug("meter polling started", "interval", poller.Interval())

	go func() {
		defer close(done)

		_ = poller.Run(ctx, fn)
	}()
}

// StopMeter stops the meter poller and waits for it to exit. It is a no-op
// when no poller runs. fn passed to StartMeter must not call it.
func (u *Unit) StopMeter() {
	u.meterMu.Lock()
	defer u.meterMu.Unlock()

	u.stopMeterLocked()
}

func (u *Unit) stopMeterLocked() {
	if u.meterStop == nil {
		return
	}

	u.meterStop()
	<-u.meterDone
	u.meterStop, u.meterDone = nil, nil

	u.logger.Debug("meter polling stopped")
}

func supported(in, out int) bool {
	for _, c := range capabilities {
		if c.In == in && c.Out == out {
			return true
		}
	}

	return false
}
