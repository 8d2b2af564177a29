package param

import (
	"fmt"
	"math"
)

// Unit describes how a parameter value is presented.
type Unit int

const (
	UnitGeneric Unit = iota
	UnitLinearGain
	UnitBoolean
)

// Flags for parameters.
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsMeter     uint32 = 1 << 2
)

// Spec describes one parameter: identity, range, default and presentation.
type Spec struct {
	Address Address
	Name    string
	Unit    Unit
	Min     float32
	Max     float32
	Default float32
	Flags   uint32
}

// Clamp limits v to [Min, Max]. NaN maps to Default.
func (s Spec) Clamp(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return s.Default
	}

	if v < s.Min {
		return s.Min
	}

	if v > s.Max {
		return s.Max
	}

	return v
}

// ReadOnly reports whether hosts may not write the parameter.
func (s Spec) ReadOnly() bool {
	return s.Flags&IsReadOnly != 0
}

// Format renders v the way the host shows it next to a control.
func (s Spec) Format(v float32) string {
	switch s.Unit {
	case UnitBoolean:
		if v >= 0.5 {
			return "On"
		}

		return "Off"
	case UnitLinearGain:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.f", v)
	}
}

var specs = [Count]Spec{
	OutputVolume: {
		Address: OutputVolume, Name: "Output Volume", Unit: UnitLinearGain,
		Min: 0, Max: 2, Default: 1, Flags: CanAutomate,
	},
	Bypass: {
		Address: Bypass, Name: "Bypass", Unit: UnitBoolean,
		Min: 0, Max: 1, Default: 0, Flags: CanAutomate,
	},
	NeutralTube: {
		Address: NeutralTube, Name: "Neutral Tube", Unit: UnitGeneric,
		Min: 0, Max: 1, Default: 0, Flags: CanAutomate,
	},
	WarmTube: {
		Address: WarmTube, Name: "Warm Tube", Unit: UnitGeneric,
		Min: 0, Max: 1, Default: 0, Flags: CanAutomate,
	},
	AggressiveTube: {
		Address: AggressiveTube, Name: "Aggressive Tube", Unit: UnitGeneric,
		Min: 0, Max: 1, Default: 0, Flags: CanAutomate,
	},
	SignalLevel: {
		Address: SignalLevel, Name: "Signal Level", Unit: UnitGeneric,
		Min: 0, Max: 1, Default: 0, Flags: IsReadOnly | IsMeter,
	},
	FlickerLevel: {
		Address: FlickerLevel, Name: "Flicker Level", Unit: UnitGeneric,
		Min: 0, Max: 1, Default: 0, Flags: IsReadOnly | IsMeter,
	},
}

// SpecFor returns the spec of a defined address.
func SpecFor(a Address) (Spec, bool) {
	if !a.Valid() {
		return Spec{}, false
	}

	return specs[a], true
}

// Specs returns all parameter specs in address order.
func Specs() []Spec {
	out := make([]Spec, Count)
	copy(out, specs[:])

	return out
}
