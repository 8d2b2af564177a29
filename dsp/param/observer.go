package param

// Observer is the capability a host parameter bridge needs from the DSP
// side: push a changed value, and pull the current one when the host
// refreshes its view.
type Observer interface {
	OnParameterChanged(a Address, value float32)
	OnParameterQueried(a Address) float32
}

// Tree is the flat, named parameter list exposed to a host.
type Tree struct {
	specs []Spec
}

// NewTree returns a tree holding every defined parameter.
func NewTree() *Tree {
	return &Tree{specs: Specs()}
}

// All returns the parameters in address order.
func (t *Tree) All() []Spec {
	return t.specs
}

// Parameter returns the spec registered at a.
func (t *Tree) Parameter(a Address) (Spec, bool) {
	for _, s := range t.specs {
		if s.Address == a {
			return s, true
		}
	}

	return Spec{}, false
}

// Apply pushes every writable default into o. Hosts call this once before
// wiring value callbacks so the DSP side starts from the tree's state.
func (t *Tree) Apply(o Observer) {
	for _, s := range t.specs {
		if s.ReadOnly() {
			continue
		}

		o.OnParameterChanged(s.Address, s.Default)
	}
}

// Display returns the formatted current value of a as seen through o.
func (t *Tree) Display(o Observer, a Address) string {
	s, ok := t.Parameter(a)
	if !ok {
		return "-"
	}

	return s.Format(o.OnParameterQueried(a))
}
