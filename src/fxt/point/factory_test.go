package point

import (
	"testing"

	"jasper-mate-utils/src/fxt/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreateWithInitialValue(t *testing.T) {
	arenas := arena.NewSet(256, 256, 256)
	db := NewDatabase()
	f := NewFactoryDatabase(arenas, db)

	p, err := f.Create(Spec{
		ID:      1,
		Type:    GUIDInt32,
		Name:    "setpoint",
		Initial: []byte(`{"id":1,"valid":true,"locked":false,"val":"0x0000002a"}`),
	})
	require.NoError(t, err)
	assert.Same(t, p, db.LookupByID(1))

	v, valid := p.ReadInt64()
	assert.True(t, valid)
	assert.Equal(t, int64(42), v)
}

func TestFactoryCreateStringRequiresSize(t *testing.T) {
	arenas := arena.NewSet(256, 256, 256)
	db := NewDatabase()
	f := NewFactoryDatabase(arenas, db)

	p, err := f.Create(Spec{ID: 2, Type: GUIDString, Name: "label", Size: 16})
	require.NoError(t, err)
	assert.Equal(t, 18, p.Size())
}

func TestFactoryCreateUnknownType(t *testing.T) {
	arenas := arena.NewSet(256, 256, 256)
	db := NewDatabase()
	f := NewFactoryDatabase(arenas, db)
	_, err := f.Create(Spec{ID: 3, Type: "not.a.type"})
	assert.Error(t, err)
}

func TestFactoryCreateSetterAndApply(t *testing.T) {
	arenas := arena.NewSet(256, 256, 256)
	db := NewDatabase()
	f := NewFactoryDatabase(arenas, db)

	target, err := f.Create(Spec{ID: 4, Type: GUIDUint8, Name: "mode"})
	require.NoError(t, err)

	s, err := f.CreateSetter(Spec{
		Type:    GUIDUint8,
		Name:    "mode",
		Initial: []byte(`{"valid":true,"val":"0x05"}`),
	}, target)
	require.NoError(t, err)

	s.ApplyTo(target)
	v, valid := target.ReadInt64()
	assert.True(t, valid)
	assert.Equal(t, int64(5), v)

	// ApplyTo reapplies every call, not just the first — a setter keeps
	// forcing its value every cycle, it doesn't fire once and go quiet.
	target.WriteInt64(99, NoRequest)
	s.ApplyTo(target)
	v, valid = target.ReadInt64()
	assert.True(t, valid)
	assert.Equal(t, int64(5), v)
}
