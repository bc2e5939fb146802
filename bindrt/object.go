package bindrt

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Object is the managed side of one native object. Generated wrappers
// embed it.
type Object struct {
	rt       *Runtime
	class    string
	handle   Handle
	owned    bool
	readOnly bool

	moved  atomic.Bool
	closed atomic.Bool
	once   sync.Once

	// parent keeps the owner of borrowed storage reachable.
	parent *Object
}

// Wrapper is implemented by generated class wrappers.
type Wrapper interface {
	NativeObject() *Object
}

// NativeObject returns o; it lets wrappers embedding *Object satisfy
// Wrapper.
func (o *Object) NativeObject() *Object { return o }

// Runtime returns the runtime the object lives in.
func (o *Object) Runtime() *Runtime { return o.rt }

// Class returns the native class name.
func (o *Object) Class() string { return o.class }

// Owned reports whether Close releases the native object.
func (o *Object) Owned() bool { return o.owned }

// ReadOnly reports whether only const methods may be called.
func (o *Object) ReadOnly() bool { return o.readOnly }

// Handle returns the native handle of a live object.
func (o *Object) Handle() (Handle, error) {
	switch {
	case o == nil:
		return 0, ErrClosed
	case o.moved.Load():
		return 0, fmt.Errorf("%s: %w", o.class, ErrMoved)
	case o.closed.Load():
		return 0, fmt.Errorf("%s: %w", o.class, ErrClosed)
	}

	return o.handle, nil
}

// Close releases an owned native object. It is safe to call more than
// once; only the first call releases. Borrowed and moved objects are
// never released.
func (o *Object) Close() error {
	var err error

	o.once.Do(func() {
		o.closed.Store(true)

		if o.owned && !o.moved.Load() {
			err = o.rt.Bridge.Release(o.handle)
		}
	})

	return err
}

// Field returns a view of a native data member. The view is read-only when
// the object is. Views of a closed or moved object carry its error.
func (o *Object) Field(name string, conv Converter) *View {
	_, err := o.Handle()

	return &View{
		rt:       o.rt,
		ref:      Ref{Owner: o.handle, Path: []Step{{Kind: StepField, Field: name}}},
		elem:     conv,
		readOnly: o.readOnly,
		owner:    o,
		err:      err,
	}
}

// take transfers ownership to the native side.
func (o *Object) take() (Handle, error) {
	h, err := o.Handle()
	if err != nil {
		return 0, err
	}

	if !o.owned {
		return 0, fmt.Errorf("%s: cannot move ownership of a borrowed object", o.class)
	}

	if !o.moved.CompareAndSwap(false, true) {
		return 0, fmt.Errorf("%s: %w", o.class, ErrMoved)
	}

	return h, nil
}

func (o *Object) keepAlive(parent *Object) {
	if !o.owned {
		o.parent = parent
	}
}
