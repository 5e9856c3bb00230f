package point

import (
	"encoding/json"
	"sync"

	"jasper-mate-utils/src/fxt/xerr"
)

// Database is the node-wide table of every Point constructed for that
// node, keyed by id. Points themselves are single-threaded (chassis
// thread or a card's driver thread owns each one); the database adds a
// mutex only around the slower, cross-thread JSON command path so the
// hot scan/execute/flush cycle never takes a lock.
type Database struct {
	mu     sync.Mutex
	points map[uint32]*Point
	order  []uint32 // insertion order, for deterministic dumps
}

// NewDatabase returns an empty point database.
func NewDatabase() *Database {
	return &Database{points: make(map[uint32]*Point)}
}

// Add registers a newly constructed point. Returns ErrAlreadyExists if
// the id is already registered.
func (d *Database) Add(p *Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.points[p.id]; exists {
		return xerr.Of(ErrAlreadyExists)
	}
	d.points[p.id] = p
	d.order = append(d.order, p.id)
	return nil
}

// LookupByID returns the point with the given id, or nil if none exists.
func (d *Database) LookupByID(id uint32) *Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.points[id]
}

// Len returns the number of registered points.
func (d *Database) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.points)
}

// Clear empties the database. Used at node teardown, after the backing
// arenas have been reset.
func (d *Database) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.points = make(map[uint32]*Point)
	d.order = nil
}

// CleanupAfterNodeCreateFailure is Clear's construction-time counterpart:
// called when the node factory aborts partway through a load, so any
// points registered before the failing component are dropped along with
// the rest of the partially-built node.
func (d *Database) CleanupAfterNodeCreateFailure() {
	d.Clear()
}

// pointCommand is the runtime point-command JSON envelope: id is
// required; the presence of "locked" (vs its absence) is what
// distinguishes a lock-state change from a plain write, and "valid"
// absent or true with "val" present is a write, while "valid":false is
// an invalidate.
type pointCommand struct {
	ID     uint32          `json:"id"`
	Valid  *bool           `json:"valid,omitempty"`
	Val    json.RawMessage `json:"val,omitempty"`
	Locked *bool           `json:"locked,omitempty"`
}

func (c pointCommand) lockRequest() LockRequest {
	if c.Locked == nil {
		return NoRequest
	}
	if *c.Locked {
		return Lock
	}
	return Unlock
}

// ApplyCommand applies one runtime point-command JSON object: looks the
// point up by id, derives a LockRequest from the optional "locked"
// field, then either invalidates (valid:false) or writes (val present)
// the point, subject to the point's own lock truth table.
func (d *Database) ApplyCommand(raw []byte) error {
	var cmd pointCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return xerr.Wrap(ErrJSONBadSyntax, err.Error())
	}
	p := d.LookupByID(cmd.ID)
	if p == nil {
		return xerr.Of(ErrNotFound)
	}
	lr := cmd.lockRequest()
	if cmd.Valid != nil && !*cmd.Valid {
		p.SetInvalid(lr)
		return nil
	}
	if cmd.Val == nil {
		if cmd.Locked != nil {
			p.SetLockState(lr)
			return nil
		}
		return xerr.Wrap(ErrJSONMissingField, "val")
	}
	return p.decodeValue(cmd.Val, lr)
}

// DumpAll renders every registered point as a to_json envelope array, in
// insertion order.
func (d *Database) DumpAll() ([]byte, error) {
	d.mu.Lock()
	ids := append([]uint32(nil), d.order...)
	pts := make([]*Point, 0, len(ids))
	for _, id := range ids {
		pts = append(pts, d.points[id])
	}
	d.mu.Unlock()

	out := make([]json.RawMessage, 0, len(pts))
	for _, p := range pts {
		raw, err := p.ToJSON()
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}
