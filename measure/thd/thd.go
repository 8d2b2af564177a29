// Package thd measures the harmonic content of a single-tone signal. It is
// used to characterise the saturation voicings: odd-symmetric curves must
// produce odd harmonics only.
package thd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/tubecity/dsp/window"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
	defaultMaxHarmonics = 9
)

// ErrEmptySignal is returned when there is nothing to analyse.
var ErrEmptySignal = errors.New("thd: empty signal")

// Config holds analysis parameters. Zero fields select defaults: a 20 Hz to
// 20 kHz search range, nine harmonics and a Hann window. FundamentalFreq 0
// selects the strongest bin in range.
type Config struct {
	SampleRate      float64
	FundamentalFreq float64
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	MaxHarmonics    int
	WindowType      window.Type
}

// Result holds one measurement. Ratios are relative to the fundamental
// amplitude.
//
//nolint:revive
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	THD              float64
	THDN             float64
	THD_dB           float64
	THDN_dB          float64
	OddHD            float64
	EvenHD           float64
	// Harmonics holds the ratio of harmonic k at index k-2.
	Harmonics []float64
}

// Calculator analyses blocks of one fixed size and reuses its FFT plan and
// scratch buffers between calls. It is not safe for concurrent use.
type Calculator struct {
	cfg     Config
	size    int
	coeffs  []float64
	energy  float64
	plan    *algofft.Plan[complex128]
	in      []complex128
	out     []complex128
	re, im  []float64
	power   []float64
	capture int
}

// NewCalculator prepares a calculator for signals of length size. size is
// rounded up to a power of two for the FFT; shorter signals are zero padded.
func NewCalculator(cfg Config, size int) (*Calculator, error) {
	if size < 2 {
		return nil, fmt.Errorf("thd: size must be >= 2: %d", size)
	}

	cfg = normalizeConfig(cfg)
	fftSize := nextPowerOf2(size)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("thd: %w", err)
	}

	coeffs := window.Generate(cfg.WindowType, size, window.WithPeriodic())
	bins := fftSize/2 + 1

	return &Calculator{
		cfg:     cfg,
		size:    size,
		coeffs:  coeffs,
		energy:  vecmath.DotProduct(coeffs, coeffs),
		plan:    plan,
		in:      make([]complex128, fftSize),
		out:     make([]complex128, fftSize),
		re:      make([]float64, bins),
		im:      make([]float64, bins),
		power:   make([]float64, bins),
		capture: window.Info(cfg.WindowType).MainLobeBins,
	}, nil
}

// AnalyzeSignal is a one-shot analysis of signal.
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if len(signal) == 0 {
		return Result{}, ErrEmptySignal
	}

	c, err := NewCalculator(cfg, len(signal))
	if err != nil {
		return Result{}, err
	}

	return c.AnalyzeSignal(signal)
}

// AnalyzeSignal windows signal, transforms it and measures its harmonics.
// Samples beyond the calculator size are ignored.
func (c *Calculator) AnalyzeSignal(signal []float64) (Result, error) {
	if len(signal) == 0 {
		return Result{}, ErrEmptySignal
	}

	n := min(len(signal), c.size)
	for i := range c.in {
		c.in[i] = 0
	}

	for i := range n {
		c.in[i] = complex(signal[i]*c.coeffs[i], 0)
	}

	if err := c.plan.Forward(c.out, c.in); err != nil {
		return Result{}, fmt.Errorf("thd: %w", err)
	}

	for k := range c.power {
		c.re[k] = real(c.out[k])
		c.im[k] = imag(c.out[k])
	}

	vecmath.Power(c.power, c.re, c.im)

	return c.fromPower(c.power), nil
}

func (c *Calculator) fromPower(power []float64) Result {
	cfg := c.cfg
	fftSize := len(c.in)
	maxBin := len(power) - 1
	binHz := cfg.SampleRate / float64(fftSize)

	lowerBin := clampInt(int(math.Round(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Round(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := c.findFundamentalBin(power, lowerBin, upperBin, binHz)
	capture := min(c.capture, fundamentalBin/2)

	fundamentalPower := lobePower(power, fundamentalBin, capture)
	res := Result{
		FundamentalFreq:  float64(fundamentalBin) * binHz,
		FundamentalLevel: c.amplitude(fundamentalPower),
	}

	if fundamentalPower <= 0 {
		return res
	}

	var harmonicPower, oddPower, evenPower float64

	res.Harmonics = make([]float64, 0, cfg.MaxHarmonics)

	for k := 2; k < cfg.MaxHarmonics+2; k++ {
		bin := k * fundamentalBin
		if bin > upperBin {
			break
		}

		p := lobePower(power, bin, capture)
		harmonicPower += p

		if k%2 == 0 {
			evenPower += p
		} else {
			oddPower += p
		}

		res.Harmonics = append(res.Harmonics, math.Sqrt(p/fundamentalPower))
	}

	totalPower := 0.0
	for _, p := range power[lowerBin : upperBin+1] {
		totalPower += p
	}

	res.THD = math.Sqrt(harmonicPower / fundamentalPower)
	res.THDN = math.Sqrt(math.Max(totalPower-fundamentalPower, 0) / fundamentalPower)
	res.OddHD = math.Sqrt(oddPower / fundamentalPower)
	res.EvenHD = math.Sqrt(evenPower / fundamentalPower)
	res.THD_dB = ratioToDB(res.THD)
	res.THDN_dB = ratioToDB(res.THDN)

	return res
}

// amplitude converts the power of one positive-frequency lobe to the peak
// amplitude of the sinusoid that produced it.
func (c *Calculator) amplitude(lobe float64) float64 {
	if lobe <= 0 || c.energy <= 0 {
		return 0
	}

	return 2 * math.Sqrt(lobe/(float64(len(c.in))*c.energy))
}

func (c *Calculator) findFundamentalBin(power []float64, lowerBin, upperBin int, binHz float64) int {
	if c.cfg.FundamentalFreq > 0 {
		return clampInt(int(math.Round(c.cfg.FundamentalFreq/binHz)), lowerBin, upperBin)
	}

	best := lowerBin
	for i := lowerBin + 1; i <= upperBin; i++ {
		if power[i] > power[best] {
			best = i
		}
	}

	return best
}

func normalizeConfig(cfg Config) Config {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}

	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultRangeLowerHz
	}

	if cfg.RangeUpperFreq <= 0 {
		cfg.RangeUpperFreq = defaultRangeUpperHz
	}

	cfg.RangeUpperFreq = math.Max(cfg.RangeUpperFreq, cfg.RangeLowerFreq)

	if cfg.MaxHarmonics <= 0 {
		cfg.MaxHarmonics = defaultMaxHarmonics
	}

	if cfg.WindowType == window.TypeRectangular {
		cfg.WindowType = window.TypeHann
	}

	return cfg
}

func lobePower(power []float64, bin, capture int) float64 {
	lo := max(bin-capture, 0)
	hi := min(bin+capture, len(power)-1)

	sum := 0.0
	for _, p := range power[lo : hi+1] {
		sum += p
	}

	return sum
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	return min(max(val, lo), hi)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
