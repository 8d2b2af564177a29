package param

import (
	"math"
	"sync/atomic"
)

// Table holds the current value of every parameter. The zero value is not
// ready for use; call NewTable.
//
// Set and Get are safe to call concurrently from any goroutine and never
// block. Read-only parameters (the meters) are written through Store, which
// skips the host-facing read-only check.
type Table struct {
	values [Count]atomic.Uint32
}

// NewTable returns a table with every parameter at its default.
func NewTable() *Table {
	t := &Table{}
	t.Reset()

	return t
}

// Reset restores every parameter to its default.
func (t *Table) Reset() {
	for i := range t.values {
		t.values[i].Store(math.Float32bits(specs[i].Default))
	}
}

// Set clamps v to the parameter's range and stores it. Unknown and read-only
// addresses are ignored; hosts probe the address space speculatively.
func (t *Table) Set(a Address, v float32) {
	if !a.Valid() || specs[a].ReadOnly() {
		return
	}

	t.values[a].Store(math.Float32bits(specs[a].Clamp(v)))
}

// Store clamps and stores v for any defined address, including read-only ones.
func (t *Table) Store(a Address, v float32) {
	if !a.Valid() {
		return
	}

	t.values[a].Store(math.Float32bits(specs[a].Clamp(v)))
}

// Get returns the current value, or 0 for unknown addresses.
func (t *Table) Get(a Address) float32 {
	if !a.Valid() {
		return 0
	}

	return math.Float32frombits(t.values[a].Load())
}

// Bool reports whether a boolean parameter is on.
func (t *Table) Bool(a Address) bool {
	return t.Get(a) >= 0.5
}
