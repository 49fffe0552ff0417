package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/1ureka/rtno/internal/errors"
)

func newTestProfile(t *testing.T) *Profile {
	t.Helper()
	p := New()
	opts := DefaultPortOptions()
	require.NoError(t, p.AddInPort(NewPort("in0", TypeLong, opts)))
	require.NoError(t, p.AddInPort(NewPort("in1", TypeFloat, opts)))
	require.NoError(t, p.AddOutPort(NewPort("out0", TypeLong, opts)))
	return p
}

func TestProfileIndexLookup(t *testing.T) {
	p := newTestProfile(t)
	assert.Equal(t, 2, p.NumInPorts())
	assert.Equal(t, 1, p.NumOutPorts())

	port, err := p.InPort(1)
	require.NoError(t, err)
	assert.Equal(t, "in1", port.Name())
	assert.Equal(t, In, port.Direction())

	port, err = p.OutPort(0)
	require.NoError(t, err)
	assert.Equal(t, Out, port.Direction())
	assert.Equal(t, TypeLong, port.TypeCode())

	_, err = p.InPort(2)
	assert.ErrorIs(t, err, errs.ErrNoSuchPort)
	assert.True(t, errs.Is(err, errs.RoutingMiss))

	_, err = p.OutPort(-1)
	assert.ErrorIs(t, err, errs.ErrNoSuchPort)
}

func TestProfileNameLookup(t *testing.T) {
	p := newTestProfile(t)

	i, port, ok := p.InPortByName([]byte("in1"))
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, "in1", port.Name())

	_, _, ok = p.InPortByName([]byte("out0"))
	assert.False(t, ok)

	i, _, ok = p.OutPortByName([]byte("out0"))
	assert.True(t, ok)
	assert.Zero(t, i)
}

func TestProfileRejectsInvalidPorts(t *testing.T) {
	p := newTestProfile(t)
	opts := DefaultPortOptions()

	assert.ErrorIs(t, p.AddInPort(NewPort("", TypeLong, opts)), errs.ErrInvalidPort)
	assert.ErrorIs(t, p.AddInPort(NewPort("in0", TypeLong, opts)), errs.ErrInvalidPort)
	assert.ErrorIs(t, p.AddInPort(nil), errs.ErrInvalidPort)

	// Same name in the other direction is fine.
	assert.NoError(t, p.AddOutPort(NewPort("in0", TypeLong, opts)))
}

func TestProfileFrozen(t *testing.T) {
	p := newTestProfile(t)
	p.Freeze()
	assert.True(t, p.Frozen())

	err := p.AddOutPort(NewPort("late", TypeLong, DefaultPortOptions()))
	assert.ErrorIs(t, err, errs.ErrRegistrationClosed)
	assert.Equal(t, 1, p.NumOutPorts())
}

func TestPortReadWrite(t *testing.T) {
	port := NewPort("out", TypeOctetSeq, DefaultPortOptions())
	assert.False(t, port.IsNew())

	require.NoError(t, port.Write([]byte{1, 2}))
	assert.True(t, port.IsNew())

	buf := make([]byte, 8)
	n, err := port.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, buf[:n])
}
