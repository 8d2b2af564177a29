package main

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/tubecity/dsp/core"
	"github.com/cwbudde/tubecity/dsp/param"
	"github.com/cwbudde/tubecity/dsp/tube"
	"github.com/cwbudde/tubecity/dsp/window"
	"github.com/cwbudde/tubecity/measure/thd"
)

type config struct {
	sampleRate   float64
	size         int
	bin          int
	oversampling int
	levels       []float64
	window       window.Type
	voicings     []tube.Voicing
}

type row struct {
	voicing       tube.Voicing
	level         float64
	outPeak       float64
	compressionDB float64
	thd           float64
	odd           float64
	even          float64
}

var voicingAddress = map[tube.Voicing]param.Address{
	tube.VoicingNeutral:    param.NeutralTube,
	tube.VoicingWarm:       param.WarmTube,
	tube.VoicingAggressive: param.AggressiveTube,
}

func analyze(cfg config) ([]row, error) {
	if cfg.bin < 1 || cfg.bin*2 >= cfg.size {
		return nil, fmt.Errorf("tone bin %d out of range for size %d", cfg.bin, cfg.size)
	}

	freq := float64(cfg.bin) * cfg.sampleRate / float64(cfg.size)

	calc, err := thd.NewCalculator(thd.Config{
		SampleRate:      cfg.sampleRate,
		FundamentalFreq: freq,
		RangeUpperFreq:  cfg.sampleRate / 2,
		WindowType:      cfg.window,
	}, cfg.size)
	if err != nil {
		return nil, err
	}

	in := make([]float64, cfg.size)
	out := make([]float64, cfg.size)
	rows := make([]row, 0, len(cfg.voicings)*len(cfg.levels))

	for _, v := range cfg.voicings {
		for _, level := range cfg.levels {
			for i := range in {
				in[i] = level * math.Sin(2*math.Pi*freq*float64(i)/cfg.sampleRate)
			}

			if err := renderVoicing(cfg, v, in, out); err != nil {
				return nil, err
			}

			res, err := calc.AnalyzeSignal(out)
			if err != nil {
				return nil, err
			}

			peak := vecmath.MaxAbs(out)
			rows = append(rows, row{
				voicing:       v,
				level:         level,
				outPeak:       peak,
				compressionDB: core.LinearToDB(level) - core.LinearToDB(peak),
				thd:           res.THD,
				odd:           res.OddHD,
				even:          res.EvenHD,
			})
		}
	}

	return rows, nil
}

// renderVoicing runs in through a fresh kernel twice so the measured pass
// starts from steady state.
func renderVoicing(cfg config, v tube.Voicing, in, out []float64) error {
	k, err := tube.NewKernel(tube.WithOversampling(cfg.oversampling))
	if err != nil {
		return err
	}

	k.SetParameter(voicingAddress[v], 1)
	k.SetMaximumFramesToRender(len(in))

	if err := k.Initialize(1, 1, cfg.sampleRate); err != nil {
		return err
	}

	src := [][]float64{in}
	dst := [][]float64{out}

	k.Process(src, dst, len(in))
	k.Process(src, dst, len(in))

	return nil
}
