package bindrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named int64

func TestScalarAccepts(t *testing.T) {
	tests := []struct {
		conv Converter
		v    any
		want bool
	}{
		{Int64, 1, true},
		{Int64, int8(1), true},
		{Int64, uint(1), false},
		{Int64, named(1), false},
		{Int64, 1.0, false},
		{Uint64, uint16(3), true},
		{Uint64, -1, false},
		{Float64, float32(1), true},
		{Float64, 1, false},
		{Bool, true, true},
		{String, "s", true},
		{String, []byte("s"), false},
		{String, nil, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.conv.Accepts(tt.v), "%s accepts %T", tt.conv.Name(), tt.v)
	}
}

func TestScalarNormalize(t *testing.T) {
	w, err := Int64.ToNative(int16(-3))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), w)

	v, err := Float64.FromNative(nil, float32(0.5))
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	_, err = Int64.FromNative(nil, "1")
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "want int64, got string", err.Error())
}

func TestScalarKeys(t *testing.T) {
	c, err := String.(Ordered).Compare("a", "b")
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Bool.(Ordered).Compare(true, false)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	h1, err := String.(Hashed).Hash("x")
	require.NoError(t, err)

	h2, err := String.(Hashed).Hash("x")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	eq, err := Int64.(Hashed).Equal(int32(4), int64(4))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestAs(t *testing.T) {
	v, err := As[int64](int64(3), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = As[int64](Absent, nil)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = As[string](int64(3), nil)
	require.Error(t, err)
}

func TestRef(t *testing.T) {
	r := Ref{Owner: 7}.Child(Step{Kind: StepField, Field: "items"})
	c1 := r.Child(Step{Kind: StepKey, Key: []any{"k"}})
	c2 := r.Child(Step{Kind: StepKey, Key: []any{"k"}})

	assert.Len(t, r.Path, 1, "Child does not alias the parent path")
	assert.True(t, c1.Equal(c2))
	assert.False(t, c1.Equal(r.Child(Step{Kind: StepIndex, Index: 0})))
	assert.Equal(t, "#7.items[0]", r.Child(Step{Kind: StepIndex}).String())
}

func TestNativeErrorPassThrough(t *testing.T) {
	inner := &NativeError{Message: "bad"}

	err := NewNativeError("f", inner)
	assert.Same(t, inner, err)
	assert.Equal(t, "f", inner.Symbol)
	assert.NoError(t, NewNativeError("f", nil))
}

func TestHashSetRemove(t *testing.T) {
	s := NewHashSet(Int64.(Hashed))

	for _, v := range []int64{1, 2, 3} {
		_, err := s.Add(v)
		require.NoError(t, err)
	}

	removed, err := s.Remove(int64(2))
	require.NoError(t, err)
	assert.True(t, removed)

	has, err := s.Has(int64(3))
	require.NoError(t, err)
	assert.True(t, has, "indexes stay valid after removal")
	assert.Equal(t, []any{int64(1), int64(3)}, s.Items())
}

func TestOrderedMapDelete(t *testing.T) {
	m := NewOrderedMap(String.(Ordered))
	require.NoError(t, m.Put("b", 2))
	require.NoError(t, m.Put("a", 1))
	require.NoError(t, m.Put("b", 3))

	ok, err := m.Delete("a")
	require.NoError(t, err)
	assert.True(t, ok)

	var keys []any
	for k, v := range m.All() {
		keys = append(keys, k)
		assert.Equal(t, 3, v)
	}

	assert.Equal(t, []any{"b"}, keys)
}
