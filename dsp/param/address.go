package param

// Address identifies a parameter. Values are stable across releases because
// hosts persist them in automation lanes.
type Address uint32

const (
	OutputVolume Address = iota
	Bypass
	NeutralTube
	WarmTube
	AggressiveTube
	SignalLevel
	FlickerLevel

	// Count is the number of defined addresses.
	Count = int(FlickerLevel) + 1
)

var addressNames = [Count]string{
	OutputVolume:   "outputVolume",
	Bypass:         "bypass",
	NeutralTube:    "neutralTube",
	WarmTube:       "warmTube",
	AggressiveTube: "aggressiveTube",
	SignalLevel:    "signalLevel",
	FlickerLevel:   "flickerLevel",
}

// Valid reports whether a is a defined address.
func (a Address) Valid() bool {
	return int(a) < Count
}

// String returns the parameter identifier, or "unknown" for undefined addresses.
func (a Address) String() string {
	if !a.Valid() {
		return "unknown"
	}

	return addressNames[a]
}

// Lookup returns the address for a parameter identifier.
func Lookup(identifier string) (Address, bool) {
	for i, name := range addressNames {
		if name == identifier {
			return Address(i), true
		}
	}

	return 0, false
}
