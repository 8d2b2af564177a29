package meter

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/tubecity/dsp/core"
)

const (
	// DefaultSignalRelease matches a per-sample decay of 0.9995 at 44.1 kHz.
	DefaultSignalRelease = 0.045
	// DefaultFlickerRelease is the flicker meter's release time in seconds.
	DefaultFlickerRelease = 0.008

	minRelease = 0.0005
	maxRelease = 5.0

	flickerLevelWeight     = 0.6
	flickerTransientWeight = 2.0
)

// Ballistics tracks a smoothed peak level and a fast flicker level. It is
// owned by a single render goroutine and does no synchronisation.
type Ballistics struct {
	sampleRate     float64
	signalRelease  float64
	flickerRelease float64

	signal   float64
	flicker  float64
	prevPeak float64
}

// NewBallistics returns ballistics with the given release times in seconds.
// The flicker release must be strictly shorter than the signal release.
func NewBallistics(sampleRate, signalRelease, flickerRelease float64) (*Ballistics, error) {
	b := &Ballistics{}

	if err := b.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}

	if err := validateReleases(signalRelease, flickerRelease); err != nil {
		return nil, err
	}

	b.signalRelease = signalRelease
	b.flickerRelease = flickerRelease

	return b, nil
}

// SetSampleRate updates the rate used to convert block lengths to time.
func (b *Ballistics) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("meter sample rate must be > 0 and finite: %f", sampleRate)
	}

	b.sampleRate = sampleRate

	return nil
}

// Update feeds one rendered block. Only the first frames samples of each
// channel are read.
func (b *Ballistics) Update(channels [][]float64, frames int) {
	if frames <= 0 {
		return
	}

	peak := 0.0

	for _, ch := range channels {
		p := vecmath.MaxAbs(ch[:frames])
		if !core.IsFinite(p) {
			p = 0
		}

		if p > peak {
			peak = p
		}
	}

	peak = math.Min(peak, 1)

	signalCoeff, flickerCoeff := b.coefficients(frames)

	b.signal = core.FlushDenormals(math.Max(peak, b.signal*signalCoeff))

	target := flickerLevelWeight*peak + flickerTransientWeight*math.Max(peak-b.prevPeak, 0)
	target = core.Clamp(target, 0, 1)
	b.flicker = core.FlushDenormals(math.Max(target, b.flicker*flickerCoeff))

	b.prevPeak = peak
}

// Decay lets both meters fall toward zero over frames samples without
// observing a signal.
func (b *Ballistics) Decay(frames int) {
	if frames <= 0 {
		return
	}

	signalCoeff, flickerCoeff := b.coefficients(frames)

	b.signal = core.FlushDenormals(b.signal * signalCoeff)
	b.flicker = core.FlushDenormals(b.flicker * flickerCoeff)
	b.prevPeak = 0
}

// Reset clears both meters.
func (b *Ballistics) Reset() {
	b.signal = 0
	b.flicker = 0
	b.prevPeak = 0
}

// Signal returns the smoothed level in [0, 1].
func (b *Ballistics) Signal() float64 { return b.signal }

// Flicker returns the flicker level in [0, 1].
func (b *Ballistics) Flicker() float64 { return b.flicker }

// SignalRelease returns the signal release time in seconds.
func (b *Ballistics) SignalRelease() float64 { return b.signalRelease }

// FlickerRelease returns the flicker release time in seconds.
func (b *Ballistics) FlickerRelease() float64 { return b.flickerRelease }

func (b *Ballistics) coefficients(frames int) (float64, float64) {
	n := float64(frames)

	return math.Exp(-n / (b.signalRelease * b.sampleRate)),
		math.Exp(-n / (b.flickerRelease * b.sampleRate))
}

func validateReleases(signalRelease, flickerRelease float64) error {
	if signalRelease < minRelease || signalRelease > maxRelease || !core.IsFinite(signalRelease) {
		return fmt.Errorf("meter signal release must be in [%g, %g]: %f", minRelease, maxRelease, signalRelease)
	}

	if flickerRelease < minRelease || flickerRelease > maxRelease || !core.IsFinite(flickerRelease) {
		return fmt.Errorf("meter flicker release must be in [%g, %g]: %f", minRelease, maxRelease, flickerRelease)
	}

	if flickerRelease >= signalRelease {
		return fmt.Errorf("meter flicker release %g must be shorter than signal release %g",
			flickerRelease, signalRelease)
	}

	return nil
}
