package unit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/tubecity/dsp/core"
	"github.com/cwbudde/tubecity/dsp/meter"
	"github.com/cwbudde/tubecity/dsp/tube"
)

// Option mutates unit construction parameters.
type Option func(*config) error

type config struct {
	logger        *slog.Logger
	kernelOptions []tube.KernelOption
	meterInterval time.Duration
	processor     core.ProcessorConfig
}

func defaultConfig() config {
	return config{
		logger:        slog.Default(),
		meterInterval: meter.DefaultPollInterval,
		processor:     core.DefaultProcessorConfig(),
	}
}

// WithLogger sets the logger for lifecycle events. A nil logger discards
// them.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) error {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}

		cfg.logger = logger

		return nil
	}
}

// WithKernelOptions forwards options to tube.NewKernel.
func WithKernelOptions(opts ...tube.KernelOption) Option {
	return func(cfg *config) error {
		cfg.kernelOptions = append(cfg.kernelOptions, opts...)
		return nil
	}
}

// WithMeterInterval sets the meter polling period used by StartMeter.
func WithMeterInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("unit meter interval must be > 0: %s", d)
		}

		cfg.meterInterval = d

		return nil
	}
}

// WithProcessorOptions sets the default stream used by AllocateDefault.
// The block size becomes the initial render block capacity.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(cfg *config) error {
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.processor)
			}
		}

		return nil
	}
}

// WithMaxFramesToRender sets the initial render block capacity.
func WithMaxFramesToRender(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("unit max frames to render must be > 0: %d", n)
		}

		cfg.processor.BlockSize = n

		return nil
	}
}
