// Package component implements the Component contract and catalog:
// pure(ish) per-cycle transforms over Points, wired together by a Logic
// Chain. Every component in the catalog except Wire honors the same rule
// — any invalid input makes every output invalid for that cycle, with no
// partial results — so callers never need to special-case a component
// that "mostly" ran. Wire copies each input to its paired output on its
// own, so only the outputs whose input is invalid become invalid.
package component

import "jasper-mate-utils/src/fxt/point"

// Component is the contract every catalog entry satisfies. resolve_references
// happens once at node construction (components receive their Point
// pointers up front, never looking them up again); Start runs once per
// node start; Execute runs once per logic-chain iteration.
type Component interface {
	// ID returns the component's unique identifier within its logic chain.
	ID() uint32
	// Start resets any internal state (timers, latches) to its
	// power-up default. Called once when the owning chassis starts.
	Start() error
	// Execute reads its input points and writes its output points. If
	// any input is currently invalid, every output is marked invalid and
	// no other side effect occurs (Wire instead invalidates per index).
	Execute() error
}

// anyInvalid reports whether any of ins is currently invalid — the
// shared guard every catalog component runs first in Execute.
func anyInvalid(ins ...*point.Point) bool {
	for _, p := range ins {
		if p.IsNotValid() {
			return true
		}
	}
	return false
}

// invalidateAll marks every output invalid, the shared fallback when
// anyInvalid is true.
func invalidateAll(outs ...*point.Point) {
	for _, p := range outs {
		p.SetInvalid(point.NoRequest)
	}
}

// Base carries the identity every concrete component shares.
type Base struct {
	id uint32
}

func NewBase(id uint32) Base { return Base{id: id} }

func (b Base) ID() uint32 { return b.id }
