package thd

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/tubecity/dsp/window"
)

const (
	testRate = 48000.0
	testSize = 4096
)

// binFreq returns a frequency that lands exactly on an FFT bin.
func binFreq(bin int) float64 {
	return float64(bin) * testRate / testSize
}

func tone(partials map[int]float64, fundamental float64) []float64 {
	out := make([]float64, testSize)
	for i := range out {
		t := float64(i) / testRate
		for k, amp := range partials {
			out[i] += amp * math.Sin(2*math.Pi*float64(k)*fundamental*t)
		}
	}

	return out
}

func TestAnalyzePureSine(t *testing.T) {
	f := binFreq(64)

	res, err := AnalyzeSignal(tone(map[int]float64{1: 0.5}, f), Config{SampleRate: testRate})
	if err != nil {
		t.Fatalf("AnalyzeSignal() error = %v", err)
	}

	if math.Abs(res.FundamentalFreq-f) > 1e-9 {
		t.Fatalf("FundamentalFreq = %v, want %v", res.FundamentalFreq, f)
	}

	if math.Abs(res.FundamentalLevel-0.5) > 1e-6 {
		t.Fatalf("FundamentalLevel = %v, want 0.5", res.FundamentalLevel)
	}

	if res.THD > 1e-6 || res.THDN > 1e-6 {
		t.Fatalf("THD = %v, THDN = %v for a pure sine", res.THD, res.THDN)
	}
}

func TestAnalyzeOddAndEvenHarmonics(t *testing.T) {
	f := binFreq(50)
	signal := tone(map[int]float64{1: 1, 2: 0.05, 3: 0.1}, f)

	for _, w := range []window.Type{window.TypeHann, window.TypeBlackmanHarris, window.TypeFlatTop} {
		t.Run(w.String(), func(t *testing.T) {
			res, err := AnalyzeSignal(signal, Config{SampleRate: testRate, FundamentalFreq: f, WindowType: w})
			if err != nil {
				t.Fatalf("AnalyzeSignal() error = %v", err)
			}

			if math.Abs(res.OddHD-0.1) > 1e-6 {
				t.Fatalf("OddHD = %v, want 0.1", res.OddHD)
			}

			if math.Abs(res.EvenHD-0.05) > 1e-6 {
				t.Fatalf("EvenHD = %v, want 0.05", res.EvenHD)
			}

			want := math.Hypot(0.1, 0.05)
			if math.Abs(res.THD-want) > 1e-6 {
				t.Fatalf("THD = %v, want %v", res.THD, want)
			}

			if math.Abs(res.Harmonics[0]-0.05) > 1e-6 || math.Abs(res.Harmonics[1]-0.1) > 1e-6 {
				t.Fatalf("Harmonics = %v", res.Harmonics[:2])
			}

			if math.Abs(res.THD_dB-20*math.Log10(want)) > 1e-4 {
				t.Fatalf("THD_dB = %v", res.THD_dB)
			}
		})
	}
}

func TestAnalyzeFindsFundamental(t *testing.T) {
	f := binFreq(100)

	res, err := AnalyzeSignal(tone(map[int]float64{1: 0.8, 3: 0.01}, f), Config{SampleRate: testRate})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.FundamentalFreq-f) > 1e-9 {
		t.Fatalf("FundamentalFreq = %v, want %v", res.FundamentalFreq, f)
	}
}

func TestMaxHarmonicsLimitsOutput(t *testing.T) {
	f := binFreq(32)

	res, err := AnalyzeSignal(tone(map[int]float64{1: 1}, f), Config{SampleRate: testRate, FundamentalFreq: f, MaxHarmonics: 3})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Harmonics) != 3 {
		t.Fatalf("len(Harmonics) = %d, want 3", len(res.Harmonics))
	}
}

func TestCalculatorReuse(t *testing.T) {
	f := binFreq(64)

	c, err := NewCalculator(Config{SampleRate: testRate, FundamentalFreq: f}, testSize)
	if err != nil {
		t.Fatal(err)
	}

	first, err := c.AnalyzeSignal(tone(map[int]float64{1: 1, 3: 0.2}, f))
	if err != nil {
		t.Fatal(err)
	}

	second, err := c.AnalyzeSignal(tone(map[int]float64{1: 1}, f))
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(first.THD-0.2) > 1e-6 || second.THD > 1e-6 {
		t.Fatalf("THD first=%v second=%v", first.THD, second.THD)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	if _, err := AnalyzeSignal(nil, Config{}); !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("AnalyzeSignal(nil) error = %v", err)
	}

	if _, err := NewCalculator(Config{}, 1); err == nil {
		t.Fatal("expected error for size 1")
	}
}

func TestAnalyzeSilence(t *testing.T) {
	res, err := AnalyzeSignal(make([]float64, testSize), Config{SampleRate: testRate, FundamentalFreq: 1000})
	if err != nil {
		t.Fatal(err)
	}

	if res.FundamentalLevel != 0 || res.THD != 0 || res.Harmonics != nil {
		t.Fatalf("unexpected result for silence: %+v", res)
	}
}
