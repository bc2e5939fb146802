package bindrt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bindgen/bindrt"
)

func roundTrip(t *testing.T, rt *bindrt.Runtime, conv bindrt.Converter, v any) any {
	t.Helper()

	out, err := rt.Invoke(context.Background(), nil, echo(conv), v)
	require.NoError(t, err)

	return out
}

func TestContainerRoundTrip(t *testing.T) {
	_, rt := world(t)

	t.Run("sequence", func(t *testing.T) {
		out := roundTrip(t, rt, bindrt.SeqOf(bindrt.Int64), []int64{3, 1, 2})
		assert.Equal(t, []int64{3, 1, 2}, out)

		out = roundTrip(t, rt, bindrt.SeqOf(bindrt.Int64), []int64{})
		assert.Equal(t, []int64{}, out)
	})

	t.Run("ordered set", func(t *testing.T) {
		in := bindrt.NewOrderedSet(bindrt.String.(bindrt.Ordered))
		for _, s := range []string{"b", "c", "a", "b"} {
			_, err := in.Add(s)
			require.NoError(t, err)
		}

		out := roundTrip(t, rt, bindrt.OrderedSetOf(bindrt.String), in).(*bindrt.OrderedSet)
		assert.Equal(t, []any{"a", "b", "c"}, out.Items())
	})

	t.Run("hash set of enums", func(t *testing.T) {
		in := bindrt.NewHashSet(PriorityConverter)
		_, _ = in.Add(PriorityHigh)
		_, _ = in.Add(PriorityLow)

		out := roundTrip(t, rt, bindrt.HashSetOf(PriorityConverter), in).(*bindrt.HashSet)
		assert.Equal(t, 2, out.Len())

		has, err := out.Has(PriorityHigh)
		require.NoError(t, err)
		assert.True(t, has)

		_, err = out.Has(ColorBlue)
		require.Error(t, err, "a different enum is not a member")
	})

	t.Run("ordered map of sequences", func(t *testing.T) {
		in := bindrt.NewOrderedMap(bindrt.String.(bindrt.Ordered))
		require.NoError(t, in.Put("y", []int64{2}))
		require.NoError(t, in.Put("x", []int64{1, 1}))

		out := roundTrip(t, rt, bindrt.OrderedMapOf(bindrt.String, bindrt.SeqOf(bindrt.Int64)), in).(*bindrt.OrderedMap)
		assert.Equal(t, []bindrt.Entry{
			{Key: "x", Value: []int64{1, 1}},
			{Key: "y", Value: []int64{2}},
		}, out.Entries())
	})

	t.Run("hash map keyed by enum", func(t *testing.T) {
		in := bindrt.NewHashMap(PriorityConverter)
		require.NoError(t, in.Put(PriorityHigh, 0.5))

		out := roundTrip(t, rt, bindrt.HashMapOf(PriorityConverter, bindrt.Float64), in).(*bindrt.HashMap)

		v, ok, err := out.Get(PriorityHigh)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 0.5, v, 1e-9)
	})

	t.Run("pair", func(t *testing.T) {
		out := roundTrip(t, rt, bindrt.PairOf(bindrt.Int64, bindrt.String), bindrt.Pair{First: 1, Second: "one"})
		assert.Equal(t, bindrt.Pair{First: int64(1), Second: "one"}, out)
	})

	t.Run("optional", func(t *testing.T) {
		conv := bindrt.OptionalOf(bindrt.Int64)

		assert.Equal(t, int64(5), roundTrip(t, rt, conv, int64(5)))
		assert.True(t, bindrt.IsAbsent(roundTrip(t, rt, conv, bindrt.Absent)))
	})

	t.Run("sequence of optional pairs", func(t *testing.T) {
		conv := bindrt.SeqOf(bindrt.OptionalOf(bindrt.PairOf(bindrt.String, PriorityConverter)))
		in := []any{bindrt.Pair{First: "a", Second: PriorityHigh}, bindrt.Absent}

		out := roundTrip(t, rt, conv, in).([]any)
		require.Len(t, out, 2)
		assert.Equal(t, bindrt.Pair{First: "a", Second: PriorityHigh}, out[0])
		assert.True(t, bindrt.IsAbsent(out[1]))
	})
}

func TestContainerKeys(t *testing.T) {
	assert.True(t, bindrt.CanOrder(bindrt.SeqOf(bindrt.String)))
	assert.False(t, bindrt.CanHash(bindrt.SeqOf(bindrt.String)))
	assert.True(t, bindrt.CanHash(bindrt.PairOf(bindrt.Int64, PriorityConverter)))
	assert.True(t, bindrt.CanOrder(bindrt.OptionalOf(bindrt.Float64)))

	conv := bindrt.NewClassConv("Task", func(o *bindrt.Object) *Task { return &Task{Object: o} })
	assert.False(t, bindrt.CanOrder(conv))
	assert.Panics(t, func() { bindrt.OrderedSetOf(conv) })
	assert.Panics(t, func() { bindrt.HashMapOf(bindrt.SeqOf(bindrt.Int64), bindrt.Int64) })

	conv.OrderedBy(func(a, b *Task) (bool, error) {
		x, err := a.Handle()
		if err != nil {
			return false, err
		}

		y, err := b.Handle()

		return x < y, err
	})
	conv.HashedBy(bindrt.AddressHash[*Task], func(a, b *Task) (bool, error) {
		return a.Object == b.Object, nil
	})

	assert.True(t, bindrt.CanOrder(conv))
	assert.True(t, bindrt.CanHash(conv))
	assert.NotPanics(t, func() { bindrt.OrderedSetOf(conv) })

	_, rt := world(t)

	a, b := newTask(t, rt, "a"), newTask(t, rt, "b")
	defer a.Close()
	defer b.Close()

	set := bindrt.NewOrderedSet(conv)
	for _, task := range []*Task{b, a, b} {
		_, err := set.Add(task)
		require.NoError(t, err)
	}

	assert.Equal(t, []any{a, b}, set.Items())
}
