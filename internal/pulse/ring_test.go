package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_PartialFill(t *testing.T) {
	t.Parallel()

	r := NewRing(5)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 5, r.Cap())
	assert.False(t, r.Full())

	r.Push(1.5)
	r.Push(2.5)

	assert.Equal(t, 2, r.Len())
	assert.False(t, r.Full())
	assert.Equal(t, []float64{1.5, 2.5}, r.Values())
}

func TestRing_EvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	r := NewRing(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r.Push(v)
	}

	assert.True(t, r.Full())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []float64{3, 4, 5}, r.Values())
}

func TestRing_ValuesOrderAcrossManyWraps(t *testing.T) {
	t.Parallel()

	r := NewRing(4)
	for i := range 23 {
		r.Push(float64(i))
	}

	// The window must always hold the most recent capacity-many values
	// in arrival order, regardless of where the write cursor sits.
	assert.Equal(t, []float64{19, 20, 21, 22}, r.Values())
}

func TestRing_Last(t *testing.T) {
	t.Parallel()

	r := NewRing(3)

	_, ok := r.Last()
	assert.False(t, ok, "empty buffer has no last value")

	r.Push(7)
	v, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, 7.0, v)

	for _, x := range []float64{8, 9, 10, 11} {
		r.Push(x)
	}
	v, ok = r.Last()
	require.True(t, ok)
	assert.Equal(t, 11.0, v, "last must follow the newest push across wraps")
}

func TestRing_Clear(t *testing.T) {
	t.Parallel()

	r := NewRing(3)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Full())
	assert.Empty(t, r.Values())
	_, ok := r.Last()
	assert.False(t, ok)

	// The buffer must be immediately reusable after a clear.
	r.Push(42)
	assert.Equal(t, []float64{42}, r.Values())
}

func TestRing_ValuesReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewRing(3)
	r.Push(1)
	r.Push(2)

	got := r.Values()
	got[0] = 99

	assert.Equal(t, []float64{1, 2}, r.Values(), "mutating the returned slice must not touch the buffer")
}
