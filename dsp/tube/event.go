package tube

import "github.com/cwbudde/tubecity/dsp/param"

// EventKind identifies a render event delivered by the host.
type EventKind int

const (
	EventParameter EventKind = iota
	EventParameterRamp
	EventMIDI
)

// Event is a host render event. Only parameter events are acted on; the
// value is applied immediately regardless of SampleOffset.
type Event struct {
	Kind         EventKind
	SampleOffset int
	Address      param.Address
	Value        float32
}

// MusicalContext carries host transport information.
type MusicalContext struct {
	Tempo                    float64
	TimeSignatureNumerator   int
	TimeSignatureDenominator int
	BeatPosition             float64
	SampleOffsetToNextBeat   int
	MeasureDownbeatPosition  float64
}

// MusicalContextFunc is supplied by a host to report transport state. It
// returns false when the host has no context to offer.
type MusicalContextFunc func() (MusicalContext, bool)
