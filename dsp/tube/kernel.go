package tube

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/tubecity/dsp/core"
	"github.com/cwbudde/tubecity/dsp/filter/biquad"
	"github.com/cwbudde/tubecity/dsp/filter/design"
	"github.com/cwbudde/tubecity/dsp/meter"
	"github.com/cwbudde/tubecity/dsp/param"
)

// MaxChannels is the largest channel count the kernel supports.
const MaxChannels = 8

const (
	minSampleRate = 8000.0
	maxSampleRate = 768000.0
)

var (
	// ErrChannelMismatch is returned when input and output channel counts differ.
	ErrChannelMismatch = errors.New("tube: input and output channel counts differ")
	// ErrUnsupportedChannelCount is returned for channel counts outside [1, MaxChannels].
	ErrUnsupportedChannelCount = errors.New("tube: unsupported channel count")
	// ErrUnsupportedSampleRate is returned for sample rates the kernel cannot run at.
	ErrUnsupportedSampleRate = errors.New("tube: unsupported sample rate")
)

type channelState struct {
	lowCut  biquad.Section
	highCut biquad.Section
	last    float64
}

type weights struct {
	volume     float64
	neutral    float64
	warm       float64
	aggressive float64
}

// Kernel is the per-instance tube saturation processor.
type Kernel struct {
	params *param.Table
	meters *meter.Ballistics

	oversampling int
	osStep       float64
	lowCutHz     float64
	highCutHz    float64

	sampleRate  float64
	channels    int
	maxFrames   int
	initialized bool
	lowCut      bool
	highCut     bool

	state   [MaxChannels]channelState
	applied weights

	musicalContext MusicalContextFunc
}

// NewKernel creates a kernel with validated options. The kernel must be
// initialized before it renders.
func NewKernel(opts ...KernelOption) (*Kernel, error) {
	cfg := defaultKernelConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	meters, err := meter.NewBallistics(44100, cfg.signalRelease, cfg.flickerRelease)
	if err != nil {
		return nil, fmt.Errorf("tube: %w", err)
	}

	k := &Kernel{
		params:       param.NewTable(),
		meters:       meters,
		oversampling: cfg.oversampling,
		osStep:       1 / float64(cfg.oversampling),
		lowCutHz:     cfg.lowCutHz,
		highCutHz:    cfg.highCutHz,
		sampleRate:   44100,
		maxFrames:    defaultMaxFramesToRender,
	}
	k.applied = k.targets()

	return k, nil
}

// Initialize prepares per-channel state for rendering. On failure the kernel
// stays uninitialized and renders silence until a later call succeeds.
func (k *Kernel) Initialize(inputChannels, outputChannels int, sampleRate float64) error {
	k.initialized = false

	if inputChannels != outputChannels {
		return fmt.Errorf("%w: %d in, %d out", ErrChannelMismatch, inputChannels, outputChannels)
	}

	if inputChannels < 1 || inputChannels > MaxChannels {
		return fmt.Errorf("%w: %d (supported 1..%d)", ErrUnsupportedChannelCount, inputChannels, MaxChannels)
	}

	if !(sampleRate >= minSampleRate && sampleRate <= maxSampleRate) {
		return fmt.Errorf("%w: %g Hz (supported %g..%g)", ErrUnsupportedSampleRate, sampleRate, minSampleRate, maxSampleRate)
	}

	if k.highCutHz > 0 && !design.ValidFrequency(k.highCutHz, sampleRate) {
		return fmt.Errorf("%w: high cut %g Hz is above Nyquist at %g Hz", ErrUnsupportedSampleRate, k.highCutHz, sampleRate)
	}

	if err := k.meters.SetSampleRate(sampleRate); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedSampleRate, err)
	}

	var lowCut, highCut biquad.Coefficients

	k.lowCut = k.lowCutHz > 0
	if k.lowCut {
		lowCut = design.Highpass(k.lowCutHz, design.ButterworthQ, sampleRate)
	}

	k.highCut = k.highCutHz > 0
	if k.highCut {
		highCut = design.Lowpass(k.highCutHz, design.ButterworthQ, sampleRate)
	}

	for ch := range k.state {
		k.state[ch] = channelState{
			lowCut:  biquad.Section{Coefficients: lowCut},
			highCut: biquad.Section{Coefficients: highCut},
		}
	}

	k.sampleRate = sampleRate
	k.channels = inputChannels
	k.applied = k.targets()
	k.meters.Reset()
	k.publishMeters()
	k.initialized = true

	return nil
}

// Deinitialize releases per-channel state. It is safe to call repeatedly.
func (k *Kernel) Deinitialize() {
	k.initialized = false
	k.channels = 0
	k.state = [MaxChannels]channelState{}
	k.meters.Reset()
	k.publishMeters()
}

// Initialized reports whether the kernel is ready to render.
func (k *Kernel) Initialized() bool { return k.initialized }

// Channels returns the initialized channel count, or 0.
func (k *Kernel) Channels() int { return k.channels }

// SampleRate returns the sample rate of the last successful Initialize.
func (k *Kernel) SampleRate() float64 { return k.sampleRate }

// Oversampling returns the wet-path oversampling factor.
func (k *Kernel) Oversampling() int { return k.oversampling }

// MaximumFramesToRender returns the largest block Process accepts.
func (k *Kernel) MaximumFramesToRender() int { return k.maxFrames }

// SetMaximumFramesToRender sets the largest block Process accepts.
// Non-positive values are ignored.
func (k *Kernel) SetMaximumFramesToRender(n int) {
	if n > 0 {
		k.maxFrames = n
	}
}

// IsBypassed reports whether the bypass parameter is on.
func (k *Kernel) IsBypassed() bool {
	return k.params.Bool(param.Bypass)
}

// SetBypass switches bypass on or off.
func (k *Kernel) SetBypass(bypass bool) {
	v := float32(0)
	if bypass {
		v = 1
	}

	k.params.Set(param.Bypass, v)
}

// SetParameter clamps value to the parameter's range and stores it.
// Unknown and read-only addresses are ignored.
func (k *Kernel) SetParameter(a param.Address, value float32) {
	k.params.Set(a, value)
}

// Parameter returns the current value of a, including the meter outputs.
// Unknown addresses return 0.
func (k *Kernel) Parameter(a param.Address) float32 {
	return k.params.Get(a)
}

// OnParameterChanged implements param.Observer.
func (k *Kernel) OnParameterChanged(a param.Address, value float32) {
	k.SetParameter(a, value)
}

// OnParameterQueried implements param.Observer.
func (k *Kernel) OnParameterQueried(a param.Address) float32 {
	return k.Parameter(a)
}

// SignalLevel returns the smoothed output level in [0, 1].
func (k *Kernel) SignalLevel() float32 {
	return k.params.Get(param.SignalLevel)
}

// FlickerLevel returns the fast flicker level in [0, 1].
func (k *Kernel) FlickerLevel() float32 {
	return k.params.Get(param.FlickerLevel)
}

// SetMusicalContext stores the host transport callback. The saturation is
// tempo independent, so the kernel only keeps it for callers that need it.
func (k *Kernel) SetMusicalContext(fn MusicalContextFunc) {
	k.musicalContext = fn
}

// MusicalContext returns the stored host transport callback, or nil.
func (k *Kernel) MusicalContext() MusicalContextFunc {
	return k.musicalContext
}

// HandleEvent applies a host render event. Non-parameter events are ignored.
func (k *Kernel) HandleEvent(e Event) {
	switch e.Kind {
	case EventParameter, EventParameterRamp:
		k.SetParameter(e.Address, e.Value)
	default:
	}
}

// Process renders frames samples from in to out. in and out hold one slice
// per channel. If the kernel is not initialized, frames exceeds
// MaximumFramesToRender, or a buffer is too short, out is filled with
// silence instead. Process does not allocate.
func (k *Kernel) Process(in, out [][]float64, frames int) {
	if !k.canProcess(in, out, frames) {
		silence(out, frames)
		return
	}

	if frames == 0 {
		return
	}

	if k.params.Bool(param.Bypass) {
		k.bypass(in, out, frames)
		return
	}

	from := k.applied
	to := k.targets()
	inv := 1 / float64(frames)

	for ch := range k.channels {
		k.processChannel(&k.state[ch], in[ch][:frames], out[ch][:frames], from, to, inv)
	}

	k.applied = to

	k.meters.Update(out[:k.channels], frames)
	k.publishMeters()
}

func (k *Kernel) canProcess(in, out [][]float64, frames int) bool {
	if !k.initialized || frames < 0 || frames > k.maxFrames {
		return false
	}

	if len(in) < k.channels || len(out) < k.channels {
		return false
	}

	for ch := range k.channels {
		if len(in[ch]) < frames || len(out[ch]) < frames {
			return false
		}
	}

	return true
}

func (k *Kernel) bypass(in, out [][]float64, frames int) {
	for ch := range k.channels {
		copy(out[ch][:frames], in[ch][:frames])

		st := &k.state[ch]
		for _, x := range in[ch][:frames] {
			if !core.IsFinite(x) {
				x = 0
			}

			st.last = k.tone(st, x)
		}

		st.lowCut.FlushDenormals()
		st.highCut.FlushDenormals()
		st.last = core.FlushDenormals(st.last)
	}

	k.applied = k.targets()

	k.meters.Decay(frames)
	k.publishMeters()
}

func (k *Kernel) processChannel(st *channelState, src, dst []float64, from, to weights, inv float64) {
	ramping := from.neutral != to.neutral || from.warm != to.warm || from.aggressive != to.aggressive
	n, w, a := to.neutral, to.warm, to.aggressive

	for i, x := range src {
		if ramping {
			t := float64(i+1) * inv
			n = math.Max(from.neutral+(to.neutral-from.neutral)*t, 0)
			w = math.Max(from.warm+(to.warm-from.warm)*t, 0)
			a = math.Max(from.aggressive+(to.aggressive-from.aggressive)*t, 0)
		}

		if !core.IsFinite(x) {
			x = 0
		}

		y := k.blend(st, x, k.tone(st, x), n, w, a)
		if !core.IsFinite(y) {
			y = 0
		}

		dst[i] = core.FlushDenormals(y)
	}

	st.lowCut.FlushDenormals()
	st.highCut.FlushDenormals()
	st.last = core.FlushDenormals(st.last)

	applyVolume(dst, from.volume, to.volume, inv)
}

// tone runs the optional filters that shape the signal entering the voicings.
func (k *Kernel) tone(st *channelState, x float64) float64 {
	if k.lowCut {
		x = st.lowCut.ProcessSample(x)
	}

	if k.highCut {
		x = st.highCut.ProcessSample(x)
	}

	return x
}

// blend mixes the dry sample with the oversampled, weighted voicing output.
// The wet path interpolates linearly from the previous wet input and
// averages the shaped sub-samples.
func (k *Kernel) blend(st *channelState, dry, wetIn, n, w, a float64) float64 {
	prev := st.last
	st.last = wetIn

	total := n + w + a
	if total <= 0 {
		return dry
	}

	norm := 1 / total
	n *= norm
	w *= norm
	a *= norm

	step := (wetIn - prev) * k.osStep
	wet := 0.0

	for j := 1; j < k.oversampling; j++ {
		wet += shapeWeighted(prev+step*float64(j), n, w, a)
	}

	wet += shapeWeighted(wetIn, n, w, a)
	wet *= k.osStep

	amount := math.Min(total, 1)

	return dry + amount*(wet-dry)
}

func (k *Kernel) targets() weights {
	return weights{
		volume:     float64(k.params.Get(param.OutputVolume)),
		neutral:    float64(k.params.Get(param.NeutralTube)),
		warm:       float64(k.params.Get(param.WarmTube)),
		aggressive: float64(k.params.Get(param.AggressiveTube)),
	}
}

func (k *Kernel) publishMeters() {
	k.params.Store(param.SignalLevel, float32(k.meters.Signal()))
	k.params.Store(param.FlickerLevel, float32(k.meters.Flicker()))
}

func shapeWeighted(x, n, w, a float64) float64 {
	y := 0.0

	if n > 0 {
		y += n * neutralShape(x)
	}

	if w > 0 {
		y += w * warmShape(x)
	}

	if a > 0 {
		y += a * aggressiveShape(x)
	}

	return y
}

func applyVolume(dst []float64, from, to, inv float64) {
	if from == to {
		if to != 1 {
			vecmath.ScaleBlockInPlace(dst, to)
		}

		return
	}

	for i := range dst {
		dst[i] *= from + (to-from)*float64(i+1)*inv
	}
}

func silence(out [][]float64, frames int) {
	if frames <= 0 {
		return
	}

	for _, ch := range out {
		core.Zero(ch[:min(frames, len(ch))])
	}
}
