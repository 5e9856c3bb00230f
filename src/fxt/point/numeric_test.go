package point

import (
	"testing"

	"jasper-mate-utils/src/fxt/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt32ReadWrite(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindInt32, "n", 4, a)
	require.NoError(t, err)

	assert.True(t, p.WriteInt64(-42, NoRequest))
	v, valid := p.ReadInt64()
	assert.True(t, valid)
	assert.Equal(t, int64(-42), v)
}

func TestWriteRejectedWhenLocked(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindUint8, "n", 1, a)
	require.NoError(t, err)

	p.WriteInt64(5, Lock)
	ok := p.WriteInt64(9, NoRequest)
	assert.False(t, ok)
	v, _ := p.ReadInt64()
	assert.Equal(t, int64(5), v)

	assert.True(t, p.WriteInt64(9, Unlock))
	v, _ = p.ReadInt64()
	assert.Equal(t, int64(9), v)
}

func TestFloat32RoundTrip(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindFloat32, "f", 4, a)
	require.NoError(t, err)

	require.True(t, p.WriteFloat32(3.5, NoRequest))
	v, valid := p.ReadFloat32()
	assert.True(t, valid)
	assert.Equal(t, float32(3.5), v)
}

func TestIncrementDecrement(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindInt16, "c", 2, a)
	require.NoError(t, err)

	p.WriteInt64(10, NoRequest)
	require.True(t, p.Increment(5, NoRequest))
	v, _ := p.ReadInt64()
	assert.Equal(t, int64(15), v)

	require.True(t, p.Decrement(20, NoRequest))
	v, _ = p.ReadInt64()
	assert.Equal(t, int64(-5), v)
}

func TestIncrementRejectedOnNonInteger(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindFloat32, "f", 4, a)
	require.NoError(t, err)
	assert.False(t, p.Increment(1, NoRequest))
}

func TestBitOps(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindUint16, "bits", 2, a)
	require.NoError(t, err)

	require.True(t, p.SetBit(3, NoRequest))
	assert.True(t, p.TestBit(3))
	assert.False(t, p.TestBit(4))

	require.True(t, p.ClearBit(3, NoRequest))
	assert.False(t, p.TestBit(3))
}

func TestBitMaskOps(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindUint16, "mask", 2, a)
	require.NoError(t, err)

	p.WriteUint64(0x0F0F, NoRequest)
	require.True(t, p.Or(0xF000, NoRequest))
	v, _ := p.ReadUint64()
	assert.Equal(t, uint64(0xFF0F), v)

	require.True(t, p.And(0x00FF, NoRequest))
	v, _ = p.ReadUint64()
	assert.Equal(t, uint64(0x000F), v)

	require.True(t, p.Xor(0x00FF, NoRequest))
	v, _ = p.ReadUint64()
	assert.Equal(t, uint64(0x00F0), v)
}

func TestToggleBit(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindUint16, "bits", 2, a)
	require.NoError(t, err)

	require.True(t, p.ToggleBit(3, NoRequest))
	assert.True(t, p.TestBit(3))

	require.True(t, p.ToggleBit(3, NoRequest))
	assert.False(t, p.TestBit(3))
}

func TestStringTruncation(t *testing.T) {
	a := arena.New(arena.General, 64)
	p, err := New(1, KindString, "s", 5, a)
	require.NoError(t, err)

	require.True(t, p.WriteString("hello world", NoRequest))
	s, valid := p.ReadString()
	assert.True(t, valid)
	assert.Equal(t, "hello", s)
}
