package biquad_test

import (
	"fmt"

	"github.com/cwbudde/tubecity/dsp/filter/biquad"
)

func ExampleSection_ProcessBlock() {
	s := biquad.NewSection(biquad.Coefficients{B0: 0.5, B1: 0.5})

	buf := []float64{1, 0, 0, 0}
	s.ProcessBlock(buf)

	fmt.Println(buf)
	// Output:
	// [0.5 0.5 0 0]
}
