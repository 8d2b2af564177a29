package thd_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/tubecity/measure/thd"
)

func ExampleAnalyzeSignal() {
	sampleRate := 48000.0
	size := 4096
	fundamentalBin := 64
	fundamental := float64(fundamentalBin) * sampleRate / float64(size)

	signal := make([]float64, size)
	for i := range signal {
		t := float64(i) / sampleRate
		signal[i] = math.Sin(2*math.Pi*fundamental*t) + 0.02*math.Sin(2*math.Pi*3*fundamental*t)
	}

	res, err := thd.AnalyzeSignal(signal, thd.Config{
		SampleRate:      sampleRate,
		FundamentalFreq: fundamental,
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("THD: %.2f%%\n", res.THD*100)
	fmt.Printf("odd: %.2f%% even: %.2f%%\n", res.OddHD*100, res.EvenHD*100)
	// Output:
	// THD: 2.00%
	// odd: 2.00% even: 0.00%
}
