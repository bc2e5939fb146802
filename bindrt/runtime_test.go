package bindrt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bindgen/bindrt"
	"bindgen/bindrt/bindrttest"
)

func TestConstructAndCall(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "write docs")
	defer task.Close()

	title, err := bindrt.As[string](rt.Invoke(ctx, task.Object, taskTitle))
	require.NoError(t, err)
	assert.Equal(t, "write docs", title)
	assert.Equal(t, 1, f.Live())

	_, err = rt.Construct(ctx, taskNew, "")
	var native *bindrt.NativeError
	require.ErrorAs(t, err, &native)
	assert.Equal(t, "Task: empty title", native.Error())
}

func TestNativeErrorMessage(t *testing.T) {
	_, rt := world(t)

	task := newTask(t, rt, "t")
	defer task.Close()

	_, err := rt.Invoke(context.Background(), task.Object, taskFail)
	require.Error(t, err)

	var native *bindrt.NativeError
	require.ErrorAs(t, err, &native)
	assert.Equal(t, "boom: bad input", err.Error())
	assert.Equal(t, "Task::fail", native.Symbol)
}

func TestEnumIdentity(t *testing.T) {
	assert.True(t, PriorityConverter.Accepts(PriorityHigh))
	assert.False(t, PriorityConverter.Accepts(ColorBlue), "same value, different enum")
	assert.False(t, PriorityConverter.Accepts(int64(2)))
	assert.False(t, bindrt.Int64.Accepts(PriorityHigh), "enums do not convert to integers")

	assert.Equal(t, "High", PriorityHigh.String())
	assert.Equal(t, "Priority(7)", Priority(7).String())
	assert.Equal(t, "enum:paint::Color", ColorEnum.Key())
	assert.Equal(t, []string{"paint"}, ColorEnum.Scope())

	_, rt := world(t)

	task := newTask(t, rt, "t")
	defer task.Close()

	_, err := rt.Invoke(context.Background(), task.Object, taskSetPriority[0], ColorBlue)

	var typeErr *bindrt.TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, 0, typeErr.Arg)
	assert.Equal(t, PriorityConverter.Name(), typeErr.Want)
}

func TestDispatchByEnum(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	h, err := task.Handle()
	require.NoError(t, err)

	_, err = rt.Dispatch(ctx, task.Object, taskSetPriority, ColorBlue)
	require.NoError(t, err)
	assert.Equal(t, "color", f.Object(h).Fields["setBy"])
	assert.Equal(t, int64(2), f.Object(h).Fields["color"])

	_, err = rt.Dispatch(ctx, task.Object, taskSetPriority, PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, "priority", f.Object(h).Fields["setBy"])

	_, err = rt.Dispatch(ctx, task.Object, taskSetPriority, 2)

	var typeErr *bindrt.TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Contains(t, err.Error(), "Task::setPriority")
	assert.Contains(t, err.Error(), "(int)")
}

// An enum owned by one module crosses into another: the brushes module
// binds paint::Color through its own converter over the shared identity.
func TestEnumAcrossModules(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	brushColorConv := bindrt.EnumOf[Color](ColorEnum)

	var (
		canvasNew      = &bindrt.Overload{Symbol: "paint::Canvas"}
		canvasColor    = &bindrt.Overload{Symbol: "paint::Canvas::color", Result: ColorConverter, Const: true}
		canvasSetColor = &bindrt.Overload{Symbol: "paint::Canvas::setColor", Params: []bindrt.Converter{ColorConverter}}
		brushNew       = &bindrt.Overload{Symbol: "Brush"}
		brushColor     = &bindrt.Overload{Symbol: "Brush::color", Result: brushColorConv, Const: true}
	)

	withColor := func(v int64) bindrttest.Ctor {
		return func(_ *bindrttest.Fake, self *bindrttest.Instance, _ []any) error {
			self.Fields["color"] = v
			return nil
		}
	}

	f.Define(&bindrttest.Class{
		Name:  "paint::Canvas",
		Ctors: []bindrttest.Ctor{withColor(int64(ColorRed))},
		Methods: map[string][]bindrttest.Method{
			"paint::Canvas::color":    {bindrttest.Field("color")},
			"paint::Canvas::setColor": {bindrttest.SetField("color")},
		},
	})
	f.Define(&bindrttest.Class{
		Name:    "Brush",
		Ctors:   []bindrttest.Ctor{withColor(int64(ColorBlue))},
		Methods: map[string][]bindrttest.Method{"Brush::color": {bindrttest.Field("color")}},
	})

	assert.Equal(t, ColorConverter.Type.Key(), brushColorConv.Type.Key())

	canvas, err := rt.Construct(ctx, canvasNew)
	require.NoError(t, err)
	defer canvas.Close()

	brush, err := rt.Construct(ctx, brushNew)
	require.NoError(t, err)
	defer brush.Close()

	got, err := rt.Invoke(ctx, brush, brushColor)
	require.NoError(t, err)
	require.IsType(t, ColorBlue, got)

	_, err = rt.Invoke(ctx, canvas, canvasSetColor, got)
	require.NoError(t, err)

	back, err := bindrt.As[Color](rt.Invoke(ctx, canvas, canvasColor))
	require.NoError(t, err)
	assert.Equal(t, got, back)
	assert.Equal(t, "Blue", back.String())

	// The value keeps its identity: it is no Priority, whatever its number.
	_, err = rt.Invoke(ctx, canvas, canvasSetColor, PriorityHigh)

	var typeErr *bindrt.TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestCloseReleasesOnce(t *testing.T) {
	f, rt := world(t)

	task := newTask(t, rt, "t")
	h, err := task.Handle()
	require.NoError(t, err)

	require.NoError(t, task.Close())
	require.NoError(t, task.Close())

	assert.Equal(t, []bindrt.Handle{h}, f.Released)
	assert.Equal(t, 0, f.Live())

	_, err = task.Handle()
	require.ErrorIs(t, err, bindrt.ErrClosed)

	_, err = rt.Invoke(context.Background(), task.Object, taskTitle)
	require.ErrorIs(t, err, bindrt.ErrClosed)
}

func TestMovedOwnership(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	h, err := task.Handle()
	require.NoError(t, err)

	_, err = rt.Invoke(ctx, nil, consume, task)
	require.NoError(t, err)
	assert.Equal(t, true, f.Object(h).Fields["consumed"])

	_, err = task.Handle()
	require.ErrorIs(t, err, bindrt.ErrMoved)

	_, err = rt.Invoke(ctx, nil, consume, task)
	require.ErrorIs(t, err, bindrt.ErrMoved)

	require.NoError(t, task.Close())
	assert.Empty(t, f.Released, "moved objects belong to native code")
}

func TestBorrowedReadOnly(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	ro, err := bindrt.As[*Task](rt.Invoke(ctx, task.Object, taskSelf))
	require.NoError(t, err)
	assert.True(t, ro.ReadOnly())
	assert.False(t, ro.Owned())

	_, err = rt.Invoke(ctx, ro.Object, taskSetPriority[0], PriorityHigh)
	require.ErrorIs(t, err, bindrt.ErrReadOnly)

	title, err := bindrt.As[string](rt.Invoke(ctx, ro.Object, taskTitle))
	require.NoError(t, err)
	assert.Equal(t, "t", title)

	require.NoError(t, ro.Close())
	assert.Empty(t, f.Released)

	_, err = rt.Invoke(ctx, nil, consume, ro)
	require.Error(t, err, "borrowed objects cannot be moved")
}

func TestPointerResults(t *testing.T) {
	_, rt := world(t)
	ctx := context.Background()

	found, err := bindrt.As[*Task](rt.Invoke(ctx, nil, find, "x"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.Owned())

	missing, err := rt.Invoke(ctx, nil, find, "missing")
	require.NoError(t, err)
	assert.True(t, bindrt.IsAbsent(missing))

	typed, err := bindrt.As[*Task](missing, nil)
	require.NoError(t, err)
	assert.Nil(t, typed)
}

func TestSharedReferences(t *testing.T) {
	f, rt := world(t)

	sh, err := bindrt.As[*bindrt.Shared](rt.Invoke(context.Background(), nil, share))
	require.NoError(t, err)

	second, err := sh.Clone()
	require.NoError(t, err)

	h1, _ := sh.Handle()
	h2, _ := second.Handle()
	assert.Equal(t, h1, h2)

	conv := bindrt.SharedOf(TaskConverter, false).(bindrt.Hashed)
	eq, err := conv.Equal(sh, second)
	require.NoError(t, err)
	assert.True(t, eq)

	require.NoError(t, sh.Close())
	assert.Equal(t, 1, f.Live())

	require.NoError(t, second.Close())
	assert.Equal(t, 0, f.Live())
	assert.IsType(t, &Task{}, second.Get())
}

func TestClone(t *testing.T) {
	f, rt := world(t)
	ctx := context.Background()

	task := newTask(t, rt, "t")
	defer task.Close()

	o, err := rt.Clone(ctx, task.Object)
	require.NoError(t, err)

	copied := &Task{Object: o}
	defer copied.Close()

	v, err := bindrt.As[*bindrt.View](rt.Invoke(ctx, copied.Object, taskTags))
	require.NoError(t, err)
	require.NoError(t, v.Index(0).Set(ctx, "changed"))

	h, _ := task.Handle()
	assert.Equal(t, []any{"a", "b"}, f.Object(h).Fields["tags"])
}

func TestReleaseLock(t *testing.T) {
	_, rt := world(t)

	task := newTask(t, rt, "t")
	defer task.Close()

	ctx := rt.Lock.Acquire(context.Background())
	defer rt.Lock.Release(ctx)

	heldDuring, err := bindrt.As[bool](rt.Invoke(ctx, task.Object, taskSlow))
	require.NoError(t, err)
	assert.False(t, heldDuring)
	assert.True(t, rt.Lock.Held(ctx), "reacquired after the call")

	heldDuring, err = bindrt.As[bool](rt.Invoke(ctx, task.Object, taskFast))
	require.NoError(t, err)
	assert.True(t, heldDuring)
}

func TestWithoutLockNotHeld(t *testing.T) {
	var l bindrt.Lock

	ctx := context.Background()

	ran := false
	err := l.WithoutLock(ctx, func(context.Context) error {
		ran = true
		return errors.New("x")
	})

	require.EqualError(t, err, "x")
	assert.True(t, ran)
	assert.False(t, l.Held(ctx))

	require.NoError(t, l.With(ctx, func(inner context.Context) error {
		assert.True(t, l.Held(inner))
		assert.False(t, l.Held(ctx))

		// With is reentrant on a holding context.
		return l.With(inner, func(again context.Context) error {
			assert.True(t, l.Held(again))
			return nil
		})
	}))
	assert.False(t, l.Held(ctx))

	assert.Panics(t, func() { l.Release(ctx) })
}

// tryAcquire starts a goroutine taking l and reports on the returned channel
// once it has it. The goroutine releases when done is closed.
func tryAcquire(l *bindrt.Lock, done <-chan struct{}) <-chan struct{} {
	got := make(chan struct{})

	go func() {
		ctx := l.Acquire(context.Background())
		close(got)
		<-done
		l.Release(ctx)
	}()

	return got
}

func TestWithoutLockOtherHolder(t *testing.T) {
	var l bindrt.Lock

	holder := l.Acquire(context.Background())

	done := make(chan struct{})
	defer close(done)

	var got <-chan struct{}

	// A caller not holding the lock must not release someone else's hold.
	err := l.WithoutLock(context.Background(), func(context.Context) error {
		got = tryAcquire(&l, done)

		select {
		case <-got:
			return errors.New("acquired while another goroutine held the lock")
		case <-time.After(100 * time.Millisecond):
			return nil
		}
	})
	require.NoError(t, err)
	assert.True(t, l.Held(holder))

	l.Release(holder)

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("lock not handed over after release")
	}
}

func TestWithoutLockHolder(t *testing.T) {
	var l bindrt.Lock

	holder := l.Acquire(context.Background())

	done := make(chan struct{})

	err := l.WithoutLock(holder, func(ctx context.Context) error {
		assert.False(t, l.Held(ctx))

		// The other goroutine lets go once seen, so the lock can come back.
		defer close(done)

		select {
		case <-tryAcquire(&l, done):
			return nil
		case <-time.After(time.Second):
			return errors.New("lock not released during the call")
		}
	})

	require.NoError(t, err)
	assert.True(t, l.Held(holder), "reacquired once the other goroutine released")
	l.Release(holder)
}
