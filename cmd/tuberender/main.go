// Command tuberender runs a WAV file through the tube saturation unit.
//
// Usage:
//
//	tuberender -in in.wav -out out.wav [flags]
//
// The input is fed to the unit block by block as an upstream source, the
// way a host would pull it. Meter readings are sampled at display rate and
// logged at debug level together with the final render statistics.
//
// Examples:
//
//	tuberender -in dry.wav -out wet.wav -warm 0.6
//	tuberender -in dry.wav -out wet.wav -neutral 0.3 -aggressive 0.5 -volume 0.8 -block 256
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/cwbudde/tubecity/dsp/buffer"
	"github.com/cwbudde/tubecity/dsp/core"
	"github.com/cwbudde/tubecity/dsp/meter"
	"github.com/cwbudde/tubecity/dsp/param"
	"github.com/cwbudde/tubecity/dsp/render"
	"github.com/cwbudde/tubecity/dsp/tube"
	"github.com/cwbudde/tubecity/dsp/unit"
)

type options struct {
	in           string
	out          string
	neutral      float64
	warm         float64
	aggressive   float64
	volume       float64
	block        int
	bypass       bool
	oversampling int
	lowCut       float64
	highCut      float64
}

func main() {
	var opts options

	flag.StringVar(&opts.in, "in", "", "input WAV file")
	flag.StringVar(&opts.out, "out", "", "output WAV file")
	flag.Float64Var(&opts.neutral, "neutral", 0, "neutral tube amount (0..1)")
	flag.Float64Var(&opts.warm, "warm", 0, "warm tube amount (0..1)")
	flag.Float64Var(&opts.aggressive, "aggressive", 0, "aggressive tube amount (0..1)")
	flag.Float64Var(&opts.volume, "volume", 1, "output volume (0..2)")
	flag.IntVar(&opts.block, "block", 512, "render block size in frames")
	flag.BoolVar(&opts.bypass, "bypass", false, "bypass the effect")
	flag.IntVar(&opts.oversampling, "oversampling", 4, "wet path oversampling factor (1, 2, 4)")
	flag.Float64Var(&opts.lowCut, "lowcut", 0, "high-pass ahead of the tubes in Hz (0 disables)")
	flag.Float64Var(&opts.highCut, "highcut", 0, "low-pass ahead of the tubes in Hz (0 disables)")
	verbose := flag.Bool("v", false, "log meter readings")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, opts, logger)

	stop()

	if err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	if opts.in == "" || opts.out == "" {
		return errors.New("both -in and -out are required")
	}

	if opts.block < 1 {
		return fmt.Errorf("block size must be > 0: %d", opts.block)
	}

	src, err := readWAV(opts.in)
	if err != nil {
		return err
	}

	logger.Info("decoded input",
		"path", opts.in,
		"sample_rate", src.sampleRate,
		"channels", len(src.channels),
		"bit_depth", src.bitDepth,
		"frames", src.frames(),
	)

	u, err := unit.New(
		unit.WithLogger(logger),
		unit.WithMaxFramesToRender(opts.block),
		unit.WithKernelOptions(
			tube.WithOversampling(opts.oversampling),
			tube.WithLowCut(opts.lowCut),
			tube.WithHighCut(opts.highCut),
		),
	)
	if err != nil {
		return err
	}

	u.SetParameter(param.NeutralTube, float32(opts.neutral))
	u.SetParameter(param.WarmTube, float32(opts.warm))
	u.SetParameter(param.AggressiveTube, float32(opts.aggressive))
	u.SetParameter(param.OutputVolume, float32(opts.volume))
	u.SetBypass(opts.bypass)

	nch := len(src.channels)
	if err := u.AllocateRenderResources(nch, nch, float64(src.sampleRate)); err != nil {
		return err
	}
	defer u.DeallocateRenderResources()

	for _, s := range u.Parameters() {
		logger.Debug("parameter", "name", s.Name, "value", u.ParameterString(s.Address))
	}

	var (
		peakMu   sync.Mutex
		peakRead meter.Reading
	)

	u.StartMeter(ctx, func(r meter.Reading) {
		peakMu.Lock()
		if r.Signal > peakRead.Signal {
			peakRead = r
		}
		peakMu.Unlock()

		logger.Debug("meter", "signal", r.Signal, "flicker", r.Flicker)
	})
	defer u.StopMeter()

	dst, err := renderTrack(ctx, u, src, opts.block)
	if err != nil {
		return err
	}

	u.StopMeter()

	if err := writeWAV(opts.out, dst); err != nil {
		return err
	}

	stats := u.Stats()
	logger.Info("render complete",
		"path", opts.out,
		"blocks", stats.Blocks,
		"errors", stats.Errors,
		"pull_failures", stats.PullFailures,
		"signal_level", u.SignalLevel(),
		"peak_polled_signal", peakRead.Signal,
	)

	return nil
}

// renderTrack pulls src through u block by block and collects the output.
func renderTrack(ctx context.Context, u *unit.Unit, src *track, block int) (*track, error) {
	nch := len(src.channels)
	total := src.frames()
	feed := &trackSource{track: src}
	u.SetSource(feed)

	out := &track{
		sampleRate: src.sampleRate,
		bitDepth:   src.bitDepth,
		channels:   make([][]float64, nch),
	}
	for ch := range out.channels {
		out.channels[ch] = make([]float64, total)
	}

	scratch := buffer.NewPlanar(nch, block)

	for pos := 0; pos < total; pos += block {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := min(block, total-pos)
		view := scratch.View(nch, n)

		if status := u.Render(view, n); status != render.StatusOK {
			return nil, fmt.Errorf("render block at frame %d: %s", pos, status)
		}

		for ch := range nch {
			core.CopyInto(out.channels[ch][pos:pos+n], view[ch])
		}
	}

	return out, nil
}

// trackSource feeds a decoded track to the input bus as an upstream source.
type trackSource struct {
	track *track
	pos   int
}

func (s *trackSource) Pull(dst [][]float64, frames int) error {
	if len(dst) != len(s.track.channels) {
		return fmt.Errorf("source has %d channels, bus wants %d", len(s.track.channels), len(dst))
	}

	n := max(min(frames, s.track.frames()-s.pos), 0)
	for ch := range dst {
		copy(dst[ch][:n], s.track.channels[ch][s.pos:s.pos+n])
		core.Zero(dst[ch][n:frames])
	}

	s.pos += n

	return nil
}
