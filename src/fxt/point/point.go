// Package point implements the Point system: typed, validity-bearing,
// optionally-locked data cells, the dense Point Database that owns them,
// the per-type factory registry, and the Setter mechanism used to seed
// initial values.
//
// Points are modeled as a single sum type (Kind tag + backing byte slice)
// rather than one Go type per kind, per the core's "typed-but-uniform
// collection" design: every Point shares the same struct and lock/valid
// state machine, and type-specific behavior (numeric arithmetic, bit ops,
// string truncation) dispatches on Kind.
package point

import (
	"fmt"

	"jasper-mate-utils/src/fxt/arena"
)

// LockRequest is the tri-state lock transition accompanying a write or
// invalidate: leave the lock state alone, force-lock, or force-unlock.
type LockRequest uint8

const (
	NoRequest LockRequest = iota
	Lock
	Unlock
)

func (lr LockRequest) String() string {
	switch lr {
	case Lock:
		return "lock"
	case Unlock:
		return "unlock"
	default:
		return "no_request"
	}
}

// Kind identifies a Point's concrete payload type.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindString
)

// TypeGUID strings. These are opaque, package-unique identifiers (per
// spec's "type GUID"); they are written as readable dotted names rather
// than literal UUIDs for legibility.
const (
	GUIDBool    = "fxt.point.bool"
	GUIDInt8    = "fxt.point.int8"
	GUIDUint8   = "fxt.point.uint8"
	GUIDInt16   = "fxt.point.int16"
	GUIDUint16  = "fxt.point.uint16"
	GUIDInt32   = "fxt.point.int32"
	GUIDUint32  = "fxt.point.uint32"
	GUIDInt64   = "fxt.point.int64"
	GUIDUint64  = "fxt.point.uint64"
	GUIDFloat32 = "fxt.point.float32"
	GUIDFloat64 = "fxt.point.float64"
	GUIDString  = "fxt.point.string"
)

// GUIDForKind returns the canonical type GUID for a Kind.
func GUIDForKind(k Kind) string {
	switch k {
	case KindBool:
		return GUIDBool
	case KindInt8:
		return GUIDInt8
	case KindUint8:
		return GUIDUint8
	case KindInt16:
		return GUIDInt16
	case KindUint16:
		return GUIDUint16
	case KindInt32:
		return GUIDInt32
	case KindUint32:
		return GUIDUint32
	case KindInt64:
		return GUIDInt64
	case KindUint64:
		return GUIDUint64
	case KindFloat32:
		return GUIDFloat32
	case KindFloat64:
		return GUIDFloat64
	case KindString:
		return GUIDString
	default:
		return ""
	}
}

// KindForGUID is the inverse of GUIDForKind; ok is false for an unknown
// GUID.
func KindForGUID(guid string) (Kind, bool) {
	switch guid {
	case GUIDBool:
		return KindBool, true
	case GUIDInt8:
		return KindInt8, true
	case GUIDUint8:
		return KindUint8, true
	case GUIDInt16:
		return KindInt16, true
	case GUIDUint16:
		return KindUint16, true
	case GUIDInt32:
		return KindInt32, true
	case GUIDUint32:
		return KindUint32, true
	case GUIDInt64:
		return KindInt64, true
	case GUIDUint64:
		return KindUint64, true
	case GUIDFloat32:
		return KindFloat32, true
	case GUIDFloat64:
		return KindFloat64, true
	case GUIDString:
		return KindString, true
	default:
		return 0, false
	}
}

// FixedSize returns the storage size in bytes for fixed-size (scalar)
// kinds, or 0 for KindString (whose size is set at construction from
// Spec.Size).
func FixedSize(k Kind) int {
	switch k {
	case KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// IsInteger reports whether the kind supports bit-mask and bit-set/clear
// operations.
func IsInteger(k Kind) bool {
	switch k {
	case KindInt8, KindUint8, KindInt16, KindUint16, KindInt32, KindUint32, KindInt64, KindUint64:
		return true
	default:
		return false
	}
}

// Point is a uniquely identified, typed, validity-bearing data cell. Its
// value lives in a byte slice carved at construction out of the node
// arena its Spec names and is never reallocated; that is the general
// arena unless the Spec selects "card" or "ha", and the factory never
// picks a stateful arena by itself. A Point's identity (id, kind, name)
// is immutable after construction.
//
// Points are NOT thread-safe: the chassis thread owns virtual points and
// components, driver threads own their own card's IO registers, and
// nothing else touches a Point concurrently except through the Database's
// mutex-guarded JSON path.
type Point struct {
	id       uint32
	kind     Kind
	name     string
	valid    bool
	locked   bool
	setter   *Setter
	mem      []byte // backing bytes from a node arena
	strMaxLen int   // only meaningful for KindString: capacity of the text payload
}

// New constructs a Point whose value memory is carved from the given
// arena. For KindString, size is the maxLen of the text payload (arena
// storage reserves 2 extra bytes for a length prefix); for every other
// kind size must equal FixedSize(kind) or the point is malformed.
func New(id uint32, kind Kind, name string, size int, a *arena.Arena) (*Point, error) {
	var memSize int
	switch kind {
	case KindString:
		memSize = size + 2
	default:
		want := FixedSize(kind)
		if size != want {
			return nil, fmt.Errorf("point %d: kind %v requires size %d, got %d", id, kind, want, size)
		}
		memSize = want
	}
	mem, err := a.Allocate(memSize)
	if err != nil {
		return nil, err
	}
	p := &Point{id: id, kind: kind, name: name, mem: mem}
	if kind == KindString {
		p.strMaxLen = size
	}
	return p, nil
}

// ID returns the point's unique numeric identifier.
func (p *Point) ID() uint32 { return p.id }

// Kind returns the point's payload kind.
func (p *Point) Kind() Kind { return p.kind }

// TypeGUID returns the point's type GUID string.
func (p *Point) TypeGUID() string { return GUIDForKind(p.kind) }

// Name returns the point's human-readable name (metadata only).
func (p *Point) Name() string { return p.name }

// Size returns the RAM size, in bytes, of the point's data.
func (p *Point) Size() int { return len(p.mem) }

// IsNotValid reports whether the point's current value is invalid.
func (p *Point) IsNotValid() bool { return !p.valid }

// IsValid reports whether the point's current value is valid.
func (p *Point) IsValid() bool { return p.valid }

// IsLocked reports whether the point is currently locked.
func (p *Point) IsLocked() bool { return p.locked }

// Setter returns the point's attached Setter, or nil.
func (p *Point) Setter() *Setter { return p.setter }

// SetSetter attaches a Setter to the point (config-build time only).
func (p *Point) SetSetter(s *Setter) { p.setter = s }

// accept implements the lock truth table shared by write and invalidate:
// a write against a locked point with NoRequest is silently dropped;
// every other combination is admitted and the lock state transitions per
// lockRequest.
func (p *Point) accept(lockRequest LockRequest) bool {
	if p.locked && lockRequest == NoRequest {
		return false
	}
	switch lockRequest {
	case Lock:
		p.locked = true
	case Unlock:
		p.locked = false
	}
	return true
}

// SetLockState transitions the lock state unconditionally (Lock/Unlock
// always take effect; NoRequest is a no-op).
func (p *Point) SetLockState(lockRequest LockRequest) {
	switch lockRequest {
	case Lock:
		p.locked = true
	case Unlock:
		p.locked = false
	}
}

// SetInvalid marks the point invalid, subject to the same lock gating as
// write.
func (p *Point) SetInvalid(lockRequest LockRequest) {
	if !p.accept(lockRequest) {
		return
	}
	p.valid = false
}

// rawBytes returns the mutable backing slice for fixed-size kinds (not
// valid for KindString, which has its own length-prefixed layout).
func (p *Point) rawBytes() []byte { return p.mem }
