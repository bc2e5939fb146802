package bindrt_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bindgen/bindrt"
)

func TestViewMutationIsVisible(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	tags, err := bindrt.As[*bindrt.View](rt.Invoke(ctx, task.Object, taskTags))
	require.NoError(t, err)

	n, err := tags.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, tags.Index(1).Set(ctx, "z"))

	h, _ := task.Handle()
	assert.Equal(t, []any{"a", "z"}, f.Object(h).Fields["tags"])

	// A second view and a copying accessor both observe the write.
	again, err := bindrt.As[*bindrt.View](rt.Invoke(ctx, task.Object, taskTags))
	require.NoError(t, err)

	got, err := again.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z"}, got)

	copied, err := bindrt.As[[]string](rt.Invoke(ctx, task.Object, taskCopy))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z"}, copied)

	// Mutating a copy leaves native storage alone.
	copied[0] = "local"
	assert.Equal(t, []any{"a", "z"}, f.Object(h).Fields["tags"])
}

func TestViewCannotResize(t *testing.T) {
	_, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	tags, err := bindrt.As[*bindrt.View](rt.Invoke(ctx, task.Object, taskTags))
	require.NoError(t, err)

	require.ErrorIs(t, tags.Append("c"), bindrt.ErrViewResize)
	require.ErrorIs(t, tags.Insert(0, "c"), bindrt.ErrViewResize)
	require.ErrorIs(t, tags.Resize(10), bindrt.ErrViewResize)

	n, err := tags.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = tags.Index(5).Set(ctx, "x")
	var native *bindrt.NativeError
	require.ErrorAs(t, err, &native)
	assert.Contains(t, native.Error(), "out of range")
}

func TestReadOnlyView(t *testing.T) {
	_, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	tags, err := bindrt.As[*bindrt.View](rt.Invoke(ctx, task.Object, taskTags))
	require.NoError(t, err)

	ro := tags.AsReadOnly()
	require.ErrorIs(t, ro.Index(0).Set(ctx, "x"), bindrt.ErrReadOnly)

	v, err := ro.Index(0).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	// A read-only view cannot be passed where a mutable reference is wanted.
	mutable := bindrt.ViewOf(bindrt.SeqOf(bindrt.String), false)
	assert.False(t, mutable.Accepts(ro))
	assert.True(t, bindrt.ViewOf(bindrt.SeqOf(bindrt.String), true).Accepts(ro))
}

func TestDeepNestedMutation(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	leaf := task.Field("grid", grid).Key("a").Index(0).Key(int64(1)).Index(1)
	require.NoError(t, leaf.Err())
	assert.Equal(t, `#1.grid[a][0][1][1]`, leaf.Ref().String())

	require.NoError(t, leaf.Set(ctx, 99))

	h, _ := task.Handle()
	stored := f.Object(h).Fields["grid"].([]bindrt.WireEntry)[0].Value.([]any)[0].([]bindrt.WireEntry)[0].Value.([]any)
	assert.Equal(t, []any{int64(10), int64(99)}, stored)

	whole, err := task.Field("grid", grid).Get(ctx)
	require.NoError(t, err)

	outer := whole.(*bindrt.OrderedMap)
	rows, ok, err := outer.Get("a")
	require.NoError(t, err)
	require.True(t, ok)

	inner := rows.([]*bindrt.OrderedMap)[0]
	cells, ok, err := inner.Get(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int64{10, 99}, cells)
}

func TestViewNavigationErrors(t *testing.T) {
	_, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	title := task.Field("title", bindrt.String)

	_, err := title.Index(0).Get(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a sequence")

	err = title.Key("k").Set(ctx, "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a map")

	_, err = title.Len(ctx)
	require.Error(t, err)

	_, err = task.Field("grid", grid).Key(3).Get(ctx)
	var typeErr *bindrt.TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestNumericView(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	scores, err := bindrt.As[*bindrt.NumericView](rt.Invoke(ctx, task.Object, taskScore))
	require.NoError(t, err)

	n, err := scores.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, scores.SetAt(ctx, 0, 9.0))

	h, _ := task.Handle()
	assert.Equal(t, []any{9.0, 2.5, 3.5}, f.Object(h).Fields["scores"])

	v, err := scores.At(ctx, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, v, 1e-9)

	_, err = scores.At(ctx, 3)
	require.Error(t, err)
	require.Error(t, scores.SetAt(ctx, -1, 1.0))

	require.ErrorIs(t, scores.Append(1.0), bindrt.ErrViewResize)
	require.ErrorIs(t, scores.Resize(0), bindrt.ErrViewResize)
}

func TestBuffer(t *testing.T) {
	conv := bindrt.BufferOf(bindrt.Float64)

	v, err := conv.FromNative(nil, []any{1.5, 2.5})
	require.NoError(t, err)

	buf := v.(*bindrt.Buffer)
	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, []float64{1.5, 2.5}, buf.Values())
	assert.Equal(t, []float64{1.5, 2.5}, buf.Float64s())

	x, err := buf.At(1)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, x, 1e-9)

	_, err = buf.At(2)
	require.Error(t, err)

	w, err := conv.ToNative(buf)
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, 2.5}, w)

	ints, err := bindrt.BufferOf(bindrt.Int64).FromNative(nil, []any{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, ints.(*bindrt.Buffer).Float64s())

	assert.PanicsWithError(t, "bindrt: buffers hold numeric elements only: got string", func() {
		bindrt.BufferOf(bindrt.String)
	})
}

func TestIndexIter(t *testing.T) {
	ctx := context.Background()
	items := []string{"x", "y", "z"}

	it := bindrt.NewIndexIter(
		func(context.Context) (int, error) { return len(items), nil },
		func(_ context.Context, i int) (any, error) { return items[i], nil },
	)

	var got []any
	for i, v := range it.All(ctx) {
		assert.Equal(t, items[i], v)
		got = append(got, v)
	}

	require.NoError(t, it.Err())
	assert.Len(t, got, 3)
	assert.False(t, it.Next(ctx))

	failing := bindrt.NewIndexIter(
		func(context.Context) (int, error) { return 2, nil },
		func(_ context.Context, i int) (any, error) {
			if i == 1 {
				return nil, errors.New("gone")
			}

			return i, nil
		},
	)

	count := 0
	for range failing.All(ctx) {
		count++
	}

	assert.Equal(t, 1, count)
	require.EqualError(t, failing.Err(), "gone")
}

func TestViewOfReleasedOwner(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")

	title := task.Field("title", bindrt.String)
	tags, err := bindrt.As[*bindrt.View](rt.Invoke(ctx, task.Object, taskTags))
	require.NoError(t, err)

	require.NoError(t, task.Close())
	require.Equal(t, 0, f.Live())

	_, err = title.Get(ctx)
	require.ErrorIs(t, err, bindrt.ErrClosed)
	require.ErrorIs(t, title.Set(ctx, "x"), bindrt.ErrClosed)
	require.ErrorIs(t, title.Err(), bindrt.ErrClosed)

	_, err = tags.Len(ctx)
	require.ErrorIs(t, err, bindrt.ErrClosed)
	_, err = tags.Index(0).Get(ctx)
	require.ErrorIs(t, err, bindrt.ErrClosed)

	// Views taken after Close carry the error from the start.
	late := task.Field("title", bindrt.String)
	require.ErrorIs(t, late.Err(), bindrt.ErrClosed)

	var native *bindrt.NativeError
	_, err = late.Get(ctx)
	assert.False(t, errors.As(err, &native), "released handle reached the bridge")

	// Nor can a view of released storage be passed on.
	_, err = rt.Invoke(ctx, nil, echo(bindrt.ViewOf(bindrt.SeqOf(bindrt.String), false)), tags)
	require.ErrorIs(t, err, bindrt.ErrClosed)
}

func TestViewOfMovedOwner(t *testing.T) {
	_, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	title := task.Field("title", bindrt.String)

	_, err := rt.Invoke(ctx, nil, consume, task)
	require.NoError(t, err)

	_, err = title.Get(ctx)
	require.ErrorIs(t, err, bindrt.ErrMoved)
}

func TestLength(t *testing.T) {
	n, err := bindrt.Length(uint64(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = bindrt.Length(int32(0))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = bindrt.Length(uint64(math.MaxUint64))
	require.EqualError(t, err, "bindrt: length 18446744073709551615 out of int range")

	_, err = bindrt.Length(int64(-1))
	require.Error(t, err)
}
