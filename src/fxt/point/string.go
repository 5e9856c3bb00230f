package point

import "encoding/binary"

// KindString points store a 2-byte little-endian length prefix followed
// by up to strMaxLen bytes of text; unused tail bytes are left as-is and
// ignored on read.

// ReadString returns the point's current text and validity. Only valid
// for KindString points.
func (p *Point) ReadString() (string, bool) {
	if p.kind != KindString {
		return "", false
	}
	n := binary.LittleEndian.Uint16(p.mem[:2])
	if int(n) > p.strMaxLen {
		n = uint16(p.strMaxLen)
	}
	return string(p.mem[2 : 2+int(n)]), p.valid
}

// WriteString stores s truncated to the point's strMaxLen, subject to
// the lock truth table. Only valid for KindString points.
func (p *Point) WriteString(s string, lockRequest LockRequest) bool {
	if p.kind != KindString {
		return false
	}
	if !p.accept(lockRequest) {
		return false
	}
	if len(s) > p.strMaxLen {
		s = s[:p.strMaxLen]
	}
	binary.LittleEndian.PutUint16(p.mem[:2], uint16(len(s)))
	copy(p.mem[2:2+len(s)], s)
	p.valid = true
	return true
}

// MaxLen returns the maximum text length a KindString point can hold.
func (p *Point) MaxLen() int { return p.strMaxLen }
