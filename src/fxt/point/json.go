package point

import (
	"encoding/json"
	"fmt"

	"jasper-mate-utils/src/fxt/xerr"
)

// The per-kind value encoding below is used by both the point-level
// to_json/from_json pair (config load/export) and the database's runtime
// point-command JSON (see database.go). Integers serialize as a
// zero-padded hex string sized to the kind's byte width so a value round
// trips without floating-point or sign-extension surprises; bools and
// floats serialize as JSON literals; strings as {"maxLen","text"}.
type stringValue struct {
	MaxLen int    `json:"maxLen"`
	Text   string `json:"text"`
}

// encodeValue renders the point's current value (ignoring validity) as a
// JSON value per the wire encoding above.
func (p *Point) encodeValue() (json.RawMessage, error) {
	switch p.kind {
	case KindBool:
		v, _ := p.ReadBool()
		return json.Marshal(v)
	case KindFloat32:
		v, _ := p.ReadFloat32()
		return json.Marshal(v)
	case KindFloat64:
		v, _ := p.ReadFloat64()
		return json.Marshal(v)
	case KindString:
		s, _ := p.ReadString()
		return json.Marshal(stringValue{MaxLen: p.strMaxLen, Text: s})
	default:
		if !IsInteger(p.kind) {
			return nil, xerrUnknownType(p.kind)
		}
		v, _ := p.ReadUint64()
		width := FixedSize(p.kind) * 2
		return json.Marshal(fmt.Sprintf("0x%0*x", width, v))
	}
}

// decodeValue parses raw per the wire encoding and writes it to the
// point, subject to lockRequest. Returns ErrJSONTypeMismatch-style errors
// via the package's own xerr codes.
func (p *Point) decodeValue(raw json.RawMessage, lockRequest LockRequest) error {
	switch p.kind {
	case KindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return xerr.Wrap(ErrJSONTypeMismatch, err.Error())
		}
		p.WriteBool(v, lockRequest)
		return nil
	case KindFloat32:
		var v float32
		if err := json.Unmarshal(raw, &v); err != nil {
			return xerr.Wrap(ErrJSONTypeMismatch, err.Error())
		}
		p.WriteFloat32(v, lockRequest)
		return nil
	case KindFloat64:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return xerr.Wrap(ErrJSONTypeMismatch, err.Error())
		}
		p.WriteFloat64(v, lockRequest)
		return nil
	case KindString:
		var sv stringValue
		if err := json.Unmarshal(raw, &sv); err != nil {
			return xerr.Wrap(ErrJSONTypeMismatch, err.Error())
		}
		p.WriteString(sv.Text, lockRequest)
		return nil
	default:
		if !IsInteger(p.kind) {
			return xerr.Wrap(ErrUnknownType, fmt.Sprintf("kind %d", p.kind))
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return xerr.Wrap(ErrJSONTypeMismatch, err.Error())
		}
		var v uint64
		if _, err := fmt.Sscanf(s, "0x%x", &v); err != nil {
			return xerr.Wrap(ErrJSONOutOfRange, fmt.Sprintf("bad hex integer %q", s))
		}
		p.WriteUint64(v, lockRequest)
		return nil
	}
}

func xerrUnknownType(k Kind) error {
	return xerr.Wrap(ErrUnknownType, fmt.Sprintf("kind %d", k))
}

// CopyValue copies src's value and validity onto dst, subject to dst's
// own lock truth table via lockRequest. Unlike FromJSON this ignores
// identity (ids and names), so it is safe between two distinct points
// of the same Kind; a Kind or size mismatch invalidates dst instead of
// copying — the primitive components and cards use to move a
// value from one point to another without exposing raw memory outside
// this package.
func CopyValue(dst, src *Point, lockRequest LockRequest) {
	if src.IsNotValid() {
		dst.SetInvalid(lockRequest)
		return
	}
	if dst.kind != src.kind || len(dst.mem) != len(src.mem) {
		dst.SetInvalid(lockRequest)
		return
	}
	if !dst.accept(lockRequest) {
		return
	}
	copy(dst.mem, src.mem)
	dst.valid = true
}

// wirePoint is the full to_json/from_json envelope: identity, type,
// validity/lock state, and the kind-specific value.
type wirePoint struct {
	ID     uint32          `json:"id"`
	Type   string          `json:"type"`
	Name   string          `json:"name,omitempty"`
	Valid  bool            `json:"valid"`
	Locked bool            `json:"locked"`
	Val    json.RawMessage `json:"val,omitempty"`
}

// ToJSON renders the point's full state (identity, type, validity, lock
// state, value). Val is omitted entirely when the point is invalid —
// an invalid point's stored bytes are stale/zero and not part of its
// observable state.
func (p *Point) ToJSON() ([]byte, error) {
	var val json.RawMessage
	if p.valid {
		v, err := p.encodeValue()
		if err != nil {
			return nil, err
		}
		val = v
	}
	return json.Marshal(wirePoint{
		ID:     p.id,
		Type:   p.TypeGUID(),
		Name:   p.name,
		Valid:  p.valid,
		Locked: p.locked,
		Val:    val,
	})
}

// FromJSON applies a full to_json envelope to the point: if valid is
// false the point is invalidated (subject to the lock truth table via
// lockRequest); otherwise val is decoded and written (also subject to
// the lock truth table). The envelope's own "locked" field is
// informational only — callers pass the LockRequest for this operation
// explicitly, matching the write/set_invalid contract.
func (p *Point) FromJSON(raw []byte, lockRequest LockRequest) error {
	var wp wirePoint
	if err := json.Unmarshal(raw, &wp); err != nil {
		return xerr.Wrap(ErrJSONBadSyntax, err.Error())
	}
	if wp.ID != 0 && wp.ID != p.id {
		return xerr.Wrap(ErrJSONTypeMismatch, fmt.Sprintf("id mismatch: point is %d, envelope is %d", p.id, wp.ID))
	}
	if !wp.Valid {
		p.SetInvalid(lockRequest)
		return nil
	}
	if wp.Val == nil {
		return xerr.Wrap(ErrJSONMissingField, "val")
	}
	return p.decodeValue(wp.Val, lockRequest)
}
