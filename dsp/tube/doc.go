// Package tube implements the real-time tube saturation kernel.
//
// Three voicings (neutral, warm, aggressive) are odd-symmetric, monotonic
// soft-clip curves with unity slope at the origin. Each compresses peaks
// relative to a linear pass-through; neutral is the mildest and aggressive
// the strongest. The kernel blends them by their parameter weights on an
// oversampled wet path, mixes against the untouched dry signal by the total
// weight, and applies output volume. With every weight at zero the output
// is the input scaled by volume, so the effect never mutes the signal.
//
// Kernel methods split into two groups. Initialize, Deinitialize and
// SetMaximumFramesToRender must only be called while no Process call is in
// flight. Parameter access and meter reads are lock-free and may be called
// from any goroutine at any time.
//
// Build with the fastmath tag to evaluate tanh and sqrt through algo-approx.
package tube
