package tube_test

import (
	"fmt"

	"github.com/cwbudde/tubecity/dsp/param"
	"github.com/cwbudde/tubecity/dsp/tube"
)

func ExampleKernel() {
	k, err := tube.NewKernel(tube.WithOversampling(4))
	if err != nil {
		panic(err)
	}

	k.SetParameter(param.AggressiveTube, 1)

	if err := k.Initialize(2, 2, 44100); err != nil {
		panic(err)
	}

	in := [][]float64{make([]float64, 64), make([]float64, 64)}
	out := [][]float64{make([]float64, 64), make([]float64, 64)}

	for ch := range in {
		for i := range in[ch] {
			in[ch][i] = 1
		}
	}

	for range 2 {
		k.Process(in, out, 64)
	}

	fmt.Printf("out=%.4f\n", out[0][63])
	// Output:
	// out=0.5300
}

func ExampleVoicing_Shape() {
	for _, v := range tube.Voicings() {
		fmt.Printf("%s %.3f\n", v, v.Shape(1))
	}
	// Output:
	// neutral 0.924
	// warm 0.715
	// aggressive 0.530
}
