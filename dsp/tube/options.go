package tube

import (
	"fmt"
	"math"

	"github.com/cwbudde/tubecity/dsp/meter"
)

const (
	defaultOversampling      = 4
	defaultMaxFramesToRender = 1024

	minLowCutHz  = 10.0
	maxLowCutHz  = 1000.0
	minHighCutHz = 1000.0
	maxHighCutHz = 40000.0
)

// KernelOption mutates construction-time parameters.
type KernelOption func(*kernelConfig) error

type kernelConfig struct {
	oversampling   int
	lowCutHz       float64
	highCutHz      float64
	signalRelease  float64
	flickerRelease float64
}

func defaultKernelConfig() kernelConfig {
	return kernelConfig{
		oversampling:   defaultOversampling,
		signalRelease:  meter.DefaultSignalRelease,
		flickerRelease: meter.DefaultFlickerRelease,
	}
}

// WithOversampling sets the wet-path oversampling factor. Allowed values: 1, 2, 4.
func WithOversampling(factor int) KernelOption {
	return func(cfg *kernelConfig) error {
		if factor != 1 && factor != 2 && factor != 4 {
			return fmt.Errorf("tube oversampling factor must be one of {1,2,4}: %d", factor)
		}

		cfg.oversampling = factor

		return nil
	}
}

// WithLowCut enables a second-order high-pass ahead of the voicings at freq
// Hz in [10, 1000]. Zero disables it.
func WithLowCut(freq float64) KernelOption {
	return func(cfg *kernelConfig) error {
		if freq == 0 {
			cfg.lowCutHz = 0
			return nil
		}

		if freq < minLowCutHz || freq > maxLowCutHz || math.IsNaN(freq) || math.IsInf(freq, 0) {
			return fmt.Errorf("tube low cut must be 0 or in [%g, %g]: %f", minLowCutHz, maxLowCutHz, freq)
		}

		cfg.lowCutHz = freq

		return nil
	}
}

// WithHighCut enables a second-order low-pass ahead of the voicings at freq
// Hz in [1000, 40000]. Zero disables it.
func WithHighCut(freq float64) KernelOption {
	return func(cfg *kernelConfig) error {
		if freq == 0 {
			cfg.highCutHz = 0
			return nil
		}

		if freq < minHighCutHz || freq > maxHighCutHz || math.IsNaN(freq) || math.IsInf(freq, 0) {
			return fmt.Errorf("tube high cut must be 0 or in [%g, %g]: %f", minHighCutHz, maxHighCutHz, freq)
		}

		cfg.highCutHz = freq

		return nil
	}
}

// WithSignalRelease sets the signal meter release time in seconds.
func WithSignalRelease(seconds float64) KernelOption {
	return func(cfg *kernelConfig) error {
		cfg.signalRelease = seconds
		return nil
	}
}

// WithFlickerRelease sets the flicker meter release time in seconds. It must
// stay shorter than the signal release.
func WithFlickerRelease(seconds float64) KernelOption {
	return func(cfg *kernelConfig) error {
		cfg.flickerRelease = seconds
		return nil
	}
}
