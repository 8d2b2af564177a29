// Package meter provides the level and flicker ballistics that drive the
// tube processor's visual feedback, and a control-thread poller that samples
// them at a fixed display cadence.
//
// Ballistics runs on the render thread at block rate: the block peak across
// all channels is taken with an instant attack and decays exponentially with
// a release time constant. The flicker meter uses a much shorter release and
// adds a rising-transient term, so it jumps on attacks and falls to
// zero within a few blocks of silence.
package meter
