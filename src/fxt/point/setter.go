package point

// Setter is an internally-owned point used to seed another point's value
// and validity at the start of every chassis cycle. A Setter is itself a
// locked internal Point (never exposed to the outside world); applying
// it to its target is "update from setter" — a single value+validity
// copy, independent of the target's own lock state, repeated on every
// ApplyTo call so a locked-and-invalid setter keeps forcing its target
// invalid cycle after cycle rather than only seeding it once.
type Setter struct {
	value *Point
}

// NewSetter wraps an internal point as a Setter. The wrapped point
// should be constructed from the node's general arena and never
// registered in the point database.
func NewSetter(value *Point) *Setter {
	value.SetLockState(Lock)
	return &Setter{value: value}
}

// SetValue updates the setter's internal value from raw JSON (the
// point-level to_json/from_json format); it takes effect on the setter's
// next ApplyTo, same as every other cycle.
func (s *Setter) SetValue(raw []byte) error {
	return s.value.FromJSON(raw, Lock)
}

// ApplyTo copies the setter's value and validity onto target,
// unconditionally with respect to target's lock state (a setter write is
// a configuration-time seed, not a runtime write). Called once per
// target at the start of every Chain.Execute, not just at node start.
func (s *Setter) ApplyTo(target *Point) {
	if s.value.IsNotValid() {
		target.valid = false
		return
	}
	copy(target.mem, s.value.mem)
	target.valid = true
}
