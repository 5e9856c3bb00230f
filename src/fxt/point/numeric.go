package point

import (
	"encoding/binary"
	"math"
)

// numeric points store their value little-endian in p.mem; Read*/Write*
// below convert to/from the wire representation on every access rather
// than caching a decoded copy, keeping Point free of per-kind fields.

// ReadInt64 returns the point's value widened to int64, and whether the
// point is currently valid. Works for any signed or unsigned integer
// kind except KindUint64 (use ReadUint64 to avoid sign-extension loss).
func (p *Point) ReadInt64() (int64, bool) {
	switch p.kind {
	case KindBool:
		if p.mem[0] != 0 {
			return 1, p.valid
		}
		return 0, p.valid
	case KindInt8:
		return int64(int8(p.mem[0])), p.valid
	case KindUint8:
		return int64(p.mem[0]), p.valid
	case KindInt16:
		return int64(int16(binary.LittleEndian.Uint16(p.mem))), p.valid
	case KindUint16:
		return int64(binary.LittleEndian.Uint16(p.mem)), p.valid
	case KindInt32:
		return int64(int32(binary.LittleEndian.Uint32(p.mem))), p.valid
	case KindUint32:
		return int64(binary.LittleEndian.Uint32(p.mem)), p.valid
	case KindInt64:
		return int64(binary.LittleEndian.Uint64(p.mem)), p.valid
	case KindUint64:
		return int64(binary.LittleEndian.Uint64(p.mem)), p.valid
	default:
		return 0, false
	}
}

// WriteInt64 narrows v to the point's kind and stores it, subject to the
// lock truth table. Returns false if the write was rejected by the lock.
func (p *Point) WriteInt64(v int64, lockRequest LockRequest) bool {
	if !p.accept(lockRequest) {
		return false
	}
	switch p.kind {
	case KindBool:
		if v != 0 {
			p.mem[0] = 1
		} else {
			p.mem[0] = 0
		}
	case KindInt8, KindUint8:
		p.mem[0] = byte(v)
	case KindInt16, KindUint16:
		binary.LittleEndian.PutUint16(p.mem, uint16(v))
	case KindInt32, KindUint32:
		binary.LittleEndian.PutUint32(p.mem, uint32(v))
	case KindInt64, KindUint64:
		binary.LittleEndian.PutUint64(p.mem, uint64(v))
	default:
		return false
	}
	p.valid = true
	return true
}

// ReadUint64 is ReadInt64's unsigned counterpart, needed to read a full
// 64-bit unsigned value without sign-extension.
func (p *Point) ReadUint64() (uint64, bool) {
	if p.kind != KindUint64 {
		v, valid := p.ReadInt64()
		return uint64(v), valid
	}
	return binary.LittleEndian.Uint64(p.mem), p.valid
}

// WriteUint64 is WriteInt64's unsigned counterpart.
func (p *Point) WriteUint64(v uint64, lockRequest LockRequest) bool {
	return p.WriteInt64(int64(v), lockRequest)
}

// ReadBool reads a KindBool point.
func (p *Point) ReadBool() (bool, bool) {
	v, valid := p.ReadInt64()
	return v != 0, valid
}

// WriteBool writes a KindBool point.
func (p *Point) WriteBool(v bool, lockRequest LockRequest) bool {
	var i int64
	if v {
		i = 1
	}
	return p.WriteInt64(i, lockRequest)
}

// ReadFloat32 reads a KindFloat32 point.
func (p *Point) ReadFloat32() (float32, bool) {
	if p.kind != KindFloat32 {
		return 0, false
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p.mem)), p.valid
}

// WriteFloat32 writes a KindFloat32 point.
func (p *Point) WriteFloat32(v float32, lockRequest LockRequest) bool {
	if p.kind != KindFloat32 {
		return false
	}
	if !p.accept(lockRequest) {
		return false
	}
	binary.LittleEndian.PutUint32(p.mem, math.Float32bits(v))
	p.valid = true
	return true
}

// ReadFloat64 reads a KindFloat64 point.
func (p *Point) ReadFloat64() (float64, bool) {
	if p.kind != KindFloat64 {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p.mem)), p.valid
}

// WriteFloat64 writes a KindFloat64 point.
func (p *Point) WriteFloat64(v float64, lockRequest LockRequest) bool {
	if p.kind != KindFloat64 {
		return false
	}
	if !p.accept(lockRequest) {
		return false
	}
	binary.LittleEndian.PutUint64(p.mem, math.Float64bits(v))
	p.valid = true
	return true
}

// Increment adds delta to an integer-kind point's current value, subject
// to the lock truth table. No-op (returns false) on non-integer kinds or
// a rejected lock.
func (p *Point) Increment(delta int64, lockRequest LockRequest) bool {
	if !IsInteger(p.kind) {
		return false
	}
	cur, _ := p.ReadInt64()
	return p.WriteInt64(cur+delta, lockRequest)
}

// Decrement subtracts delta from an integer-kind point's current value.
func (p *Point) Decrement(delta int64, lockRequest LockRequest) bool {
	return p.Increment(-delta, lockRequest)
}

// TestBit reports whether bit n (0-indexed, LSB first) is set in an
// integer-kind point's value. Always false for non-integer kinds or an
// out-of-range bit index.
func (p *Point) TestBit(n uint) bool {
	if !IsInteger(p.kind) {
		return false
	}
	v, _ := p.ReadUint64()
	if int(n) >= len(p.mem)*8 {
		return false
	}
	return v&(1<<n) != 0
}

// SetBit sets bit n of an integer-kind point, subject to the lock truth
// table.
func (p *Point) SetBit(n uint, lockRequest LockRequest) bool {
	if !IsInteger(p.kind) || int(n) >= len(p.mem)*8 {
		return false
	}
	v, _ := p.ReadUint64()
	return p.WriteUint64(v|(1<<n), lockRequest)
}

// ClearBit clears bit n of an integer-kind point, subject to the lock
// truth table.
func (p *Point) ClearBit(n uint, lockRequest LockRequest) bool {
	if !IsInteger(p.kind) || int(n) >= len(p.mem)*8 {
		return false
	}
	v, _ := p.ReadUint64()
	return p.WriteUint64(v&^(1<<n), lockRequest)
}

// ToggleBit flips bit n of an integer-kind point, subject to the lock
// truth table.
func (p *Point) ToggleBit(n uint, lockRequest LockRequest) bool {
	if !IsInteger(p.kind) || int(n) >= len(p.mem)*8 {
		return false
	}
	v, _ := p.ReadUint64()
	return p.WriteUint64(v^(1<<n), lockRequest)
}

// Or bitwise-ORs mask into an integer-kind point's whole value, subject
// to the lock truth table.
func (p *Point) Or(mask uint64, lockRequest LockRequest) bool {
	if !IsInteger(p.kind) {
		return false
	}
	v, _ := p.ReadUint64()
	return p.WriteUint64(v|mask, lockRequest)
}

// And bitwise-ANDs mask into an integer-kind point's whole value, subject
// to the lock truth table.
func (p *Point) And(mask uint64, lockRequest LockRequest) bool {
	if !IsInteger(p.kind) {
		return false
	}
	v, _ := p.ReadUint64()
	return p.WriteUint64(v&mask, lockRequest)
}

// Xor bitwise-XORs mask into an integer-kind point's whole value, subject
// to the lock truth table.
func (p *Point) Xor(mask uint64, lockRequest LockRequest) bool {
	if !IsInteger(p.kind) {
		return false
	}
	v, _ := p.ReadUint64()
	return p.WriteUint64(v^mask, lockRequest)
}
