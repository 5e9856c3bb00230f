package point

import (
	"encoding/json"
	"fmt"

	"jasper-mate-utils/src/fxt/arena"
	"jasper-mate-utils/src/fxt/xerr"
)

// Spec is the JSON configuration shape for constructing one point, as
// used by the node factory's point-construction pass: each card,
// component, and logic chain declares the points it owns this way, and
// the factory database turns each Spec into a live *Point carved from
// the node's arenas.
type Spec struct {
	ID      uint32          `json:"id"`
	Type    string          `json:"type"` // type GUID, e.g. "fxt.point.int32"
	Name    string          `json:"name"`
	Size    int             `json:"size,omitempty"` // required only for KindString (maxLen)
	Arena   string          `json:"arena,omitempty"` // "general" (default), "card", or "ha"
	Initial json.RawMessage `json:"initial,omitempty"`
}

// FactoryDatabase builds Points from Specs against a node's arena set and
// registers each into the node's point Database, so construction and
// registration always happen together (a Point that exists but isn't in
// the database, or vice versa, is a bug by construction).
type FactoryDatabase struct {
	arenas *arena.Set
	db     *Database
}

// NewFactoryDatabase binds a FactoryDatabase to the arenas and point
// database it will populate.
func NewFactoryDatabase(arenas *arena.Set, db *Database) *FactoryDatabase {
	return &FactoryDatabase{arenas: arenas, db: db}
}

func (f *FactoryDatabase) arenaFor(spec Spec) *arena.Arena {
	switch spec.Arena {
	case "card":
		return f.arenas.CardStatefulArena
	case "ha":
		return f.arenas.HAStatefulArena
	default:
		return f.arenas.GeneralArena
	}
}

// Create constructs one point from spec, registers it in the database,
// and — if spec.Initial is present — applies it immediately as the
// point's starting value/validity (config-time seeding, not the runtime
// Setter reapplication path; see setter.go for that). The envelope's
// "locked" field is not applied: the point starts unlocked.
func (f *FactoryDatabase) Create(spec Spec) (*Point, error) {
	kind, ok := KindForGUID(spec.Type)
	if !ok {
		return nil, xerrUnknownTypeGUID(spec.Type)
	}
	size := spec.Size
	if kind != KindString {
		size = FixedSize(kind)
	}
	p, err := New(spec.ID, kind, spec.Name, size, f.arenaFor(spec))
	if err != nil {
		return nil, err
	}
	if err := f.db.Add(p); err != nil {
		f.db.CleanupAfterNodeCreateFailure()
		return nil, fmt.Errorf("point %d (%s): %w", spec.ID, spec.Name, err)
	}
	if spec.Initial != nil {
		if err := p.FromJSON(spec.Initial, NoRequest); err != nil {
			f.db.CleanupAfterNodeCreateFailure()
			return nil, fmt.Errorf("point %d (%s) initial value: %w", spec.ID, spec.Name, err)
		}
	}
	return p, nil
}

// CreateSetter builds an internal, arena-backed Setter point of the same
// kind/size as target from spec (spec.ID is ignored and not registered
// in the database — setters are never independently addressable), seeds
// it from spec.Initial if present, and attaches it to target.
func (f *FactoryDatabase) CreateSetter(spec Spec, target *Point) (*Setter, error) {
	kind, ok := KindForGUID(spec.Type)
	if !ok {
		return nil, xerrUnknownTypeGUID(spec.Type)
	}
	size := spec.Size
	if kind != KindString {
		size = FixedSize(kind)
	}
	internal, err := New(0, kind, spec.Name+".setter", size, f.arenaFor(spec))
	if err != nil {
		return nil, err
	}
	s := NewSetter(internal)
	if spec.Initial != nil {
		if err := s.SetValue(spec.Initial); err != nil {
			return nil, err
		}
	}
	target.SetSetter(s)
	return s, nil
}

func xerrUnknownTypeGUID(guid string) error {
	return xerr.Wrap(ErrUnknownType, fmt.Sprintf("unknown point type GUID %q", guid))
}
