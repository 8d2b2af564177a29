// Package design provides the RBJ biquad designers used for the tone
// filters ahead of the tube voicings.
//
// The functions produce [biquad.Coefficients] consumable by
// dsp/filter/biquad. Callers check frequencies with [ValidFrequency]; the
// designers return zero coefficients for frequencies at or above Nyquist.
package design
