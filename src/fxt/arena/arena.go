// Package arena implements the three append-only bump allocators the core
// uses to back Point storage and metadata: general, card-stateful and
// HA-stateful. Every object allocated from an Arena lives for the lifetime
// of the owning Node; there is no free-of-single-object, only bulk Reset at
// node teardown. Handles are plain Go values (slices into the arena's
// backing array), not pointers into a manually managed heap — Go's GC
// already gives us memory safety, so the arenas exist to mirror the
// teacher's append-only/bulk-release discipline and to bound how much
// config-time allocation a Node can do, not to dodge garbage collection.
package arena

import "fmt"

// Kind names the three arenas a Node owns, for error messages and metrics.
type Kind int

const (
	General Kind = iota
	CardStateful
	HAStateful
)

func (k Kind) String() string {
	switch k {
	case General:
		return "general"
	case CardStateful:
		return "card-stateful"
	case HAStateful:
		return "ha-stateful"
	default:
		return "unknown"
	}
}

// Arena is a single append-only byte heap with a fixed capacity, set aside
// at Node-build time. Allocate never shrinks or frees; Reset drops every
// outstanding allocation at once (node teardown only).
type Arena struct {
	kind Kind
	buf  []byte
	used int
}

// New creates an Arena with the given byte capacity.
func New(kind Kind, capacityBytes int) *Arena {
	if capacityBytes < 0 {
		capacityBytes = 0
	}
	return &Arena{kind: kind, buf: make([]byte, capacityBytes)}
}

// Kind reports which of the three arenas this is.
func (a *Arena) Kind() Kind { return a.kind }

// Capacity returns the total byte capacity of the arena.
func (a *Arena) Capacity() int { return len(a.buf) }

// Used returns the number of bytes allocated so far.
func (a *Arena) Used() int { return a.used }

// Remaining returns the number of bytes still available.
func (a *Arena) Remaining() int { return len(a.buf) - a.used }

// ErrOutOfMemory is returned by Allocate when the arena's capacity is
// exhausted. Construction code should latch this into the owning entity's
// error cell (xerr), per spec's "arena OOM" construction-time error.
type ErrOutOfMemory struct {
	Kind      Kind
	Requested int
	Remaining int
}

func (e *ErrOutOfMemory) Error() string {
	return fmt.Sprintf("arena(%s): out of memory: requested %d bytes, %d remaining", e.Kind, e.Requested, e.Remaining)
}

// Allocate reserves n bytes and returns a zeroed slice backed by the
// arena. The slice is stable for the arena's lifetime: no other Allocate
// call will ever alias it, and nothing but Reset invalidates it.
func (a *Arena) Allocate(n int) ([]byte, error) {
	if n < 0 {
		n = 0
	}
	if a.Remaining() < n {
		return nil, &ErrOutOfMemory{Kind: a.kind, Requested: n, Remaining: a.Remaining()}
	}
	start := a.used
	a.used += n
	return a.buf[start : start+n : start+n], nil
}

// MustAllocate is a convenience for call sites that already checked
// capacity (e.g. tests) and want to skip the error return.
func (a *Arena) MustAllocate(n int) []byte {
	b, err := a.Allocate(n)
	if err != nil {
		panic(err)
	}
	return b
}

// Reset discards every allocation made from the arena. Only the owning
// Node may call this, and only at node teardown: every slice previously
// returned by Allocate must be considered dangling (logically, not
// memory-unsafe) after Reset.
func (a *Arena) Reset() {
	a.used = 0
	for i := range a.buf {
		a.buf[i] = 0
	}
}

// Set is the three arenas a Node owns: General, CardStateful and
// HAStateful. Only Point value storage is carved from them, from
// whichever arena a point's Spec names (General by default); components,
// cards, logic chains and chassis are ordinary Go heap objects.
type Set struct {
	GeneralArena      *Arena
	CardStatefulArena *Arena
	HAStatefulArena   *Arena
}

// NewSet builds the three node-lifetime arenas with the given capacities.
func NewSet(generalBytes, cardStatefulBytes, haStatefulBytes int) *Set {
	return &Set{
		GeneralArena:      New(General, generalBytes),
		CardStatefulArena: New(CardStateful, cardStatefulBytes),
		HAStatefulArena:   New(HAStateful, haStatefulBytes),
	}
}

// ResetAll bulk-releases all three arenas. Called exactly once, at node
// destruction.
func (s *Set) ResetAll() {
	s.GeneralArena.Reset()
	s.CardStatefulArena.Reset()
	s.HAStatefulArena.Reset()
}
