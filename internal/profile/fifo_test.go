package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/1ureka/rtno/internal/errors"
)

func popAll(t *testing.T, f *Fifo) []string {
	t.Helper()
	var out []string
	buf := make([]byte, f.MaxItemSize())
	for f.HasNext() {
		n, err := f.Pop(buf)
		require.NoError(t, err)
		out = append(out, string(buf[:n]))
	}
	return out
}

func TestFifoOrdering(t *testing.T) {
	f := NewFifo(3, 8, DropOldest)
	require.NoError(t, f.Push([]byte("A")))
	require.NoError(t, f.Push([]byte("BB")))
	require.NoError(t, f.Push([]byte("CCC")))

	assert.Equal(t, 3, f.Size())
	assert.Equal(t, 1, f.NextSize())
	assert.Equal(t, []string{"A", "BB", "CCC"}, popAll(t, f))
	assert.False(t, f.HasNext())
	assert.Zero(t, f.NextSize())
}

func TestFifoOverflowPolicies(t *testing.T) {
	cases := []struct {
		policy OverflowPolicy
		want   []string
	}{
		{DropOldest, []string{"B", "C", "D"}},
		{DropNewest, []string{"A", "B", "C"}},
	}

	for _, tc := range cases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			f := NewFifo(3, 4, tc.policy)
			for _, s := range []string{"A", "B", "C", "D"} {
				require.NoError(t, f.Push([]byte(s)))
			}
			assert.Equal(t, uint64(1), f.Drops())
			assert.Equal(t, tc.want, popAll(t, f))
		})
	}
}

func TestFifoWrapsAround(t *testing.T) {
	f := NewFifo(2, 4, DropOldest)
	buf := make([]byte, 4)
	for i := 0; i < 10; i++ {
		require.NoError(t, f.Push([]byte{byte(i)}))
		n, err := f.Pop(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, buf[:n])
	}
}

func TestFifoRejectsOversizeItem(t *testing.T) {
	f := NewFifo(2, 4, DropOldest)
	err := f.Push([]byte("toolong"))
	assert.ErrorIs(t, err, errs.ErrItemTooLarge)
	assert.Zero(t, f.Size())
}

func TestFifoPopShortBufferKeepsItem(t *testing.T) {
	f := NewFifo(2, 8, DropOldest)
	require.NoError(t, f.Push([]byte("abcd")))

	_, err := f.Pop(make([]byte, 2))
	assert.ErrorIs(t, err, errs.ErrShortBuffer)
	assert.Equal(t, 1, f.Size())

	n, err := f.Pop(make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestFifoPopEmpty(t *testing.T) {
	f := NewFifo(2, 8, DropOldest)
	n, err := f.Pop(make([]byte, 8))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestFifoPushCopiesItem(t *testing.T) {
	f := NewFifo(2, 8, DropOldest)
	item := []byte("abc")
	require.NoError(t, f.Push(item))
	item[0] = 'z'
	assert.Equal(t, []string{"abc"}, popAll(t, f))
}

func TestParseOverflowPolicy(t *testing.T) {
	p, err := ParseOverflowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DropOldest, p)

	p, err = ParseOverflowPolicy("drop-newest")
	require.NoError(t, err)
	assert.Equal(t, DropNewest, p)

	_, err = ParseOverflowPolicy("block")
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}
