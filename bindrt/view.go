package bindrt

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// View is a reference into native storage. Reads and writes go straight to
// the native side, so mutations through a view are visible to native code
// and to every other view of the same storage. Views never change the size
// of the storage they look at.
//
// Navigation (Index, Key, Field) does not touch the bridge; errors from
// navigation surface on the next Get, Set or Len.
type View struct {
	rt       *Runtime
	ref      Ref
	elem     Converter
	readOnly bool
	owner    *Object
	err      error
}

// NewView returns a view of ref whose value converts with elem.
func NewView(rt *Runtime, ref Ref, elem Converter, readOnly bool) *View {
	return &View{rt: rt, ref: ref, elem: elem, readOnly: readOnly}
}

// Ref returns the native storage address.
func (v *View) Ref() Ref { return v.ref }

// Elem returns the converter of the viewed value.
func (v *View) Elem() Converter { return v.elem }

// ReadOnly reports whether Set is refused.
func (v *View) ReadOnly() bool { return v.readOnly }

// Err returns the navigation error, or the error of a closed or moved
// owner.
func (v *View) Err() error { return v.alive() }

// alive keeps released handles away from the bridge.
func (v *View) alive() error {
	if v.err != nil {
		return v.err
	}

	if v.owner != nil {
		if _, err := v.owner.Handle(); err != nil {
			return err
		}
	}

	return nil
}

// Get reads and converts the current native value.
func (v *View) Get(ctx context.Context) (any, error) {
	if err := v.alive(); err != nil {
		return nil, err
	}

	w, err := v.rt.Bridge.Load(ctx, v.ref)
	if err != nil {
		return nil, NewNativeError(v.ref.String(), err)
	}

	return v.elem.FromNative(v.rt, w)
}

// Set overwrites the native value in place.
func (v *View) Set(ctx context.Context, val any) error {
	if err := v.alive(); err != nil {
		return err
	}

	if v.readOnly {
		return fmt.Errorf("%s: %w", v.ref, ErrReadOnly)
	}

	w, err := v.elem.ToNative(val)
	if err != nil {
		return err
	}

	if err := v.rt.Bridge.Store(ctx, v.ref, w); err != nil {
		return NewNativeError(v.ref.String(), err)
	}

	return nil
}

// Len returns the element count of a viewed container.
func (v *View) Len(ctx context.Context) (int, error) {
	if err := v.alive(); err != nil {
		return 0, err
	}

	if _, ok := v.elem.(composite); !ok {
		return 0, fmt.Errorf("%s: %s has no length", v.ref, v.elem.Name())
	}

	n, err := v.rt.Bridge.Len(ctx, v.ref)
	if err != nil {
		return 0, NewNativeError(v.ref.String(), err)
	}

	return n, nil
}

func (v *View) child(step Step, elem Converter, err error) *View {
	c := &View{
		rt:       v.rt,
		ref:      v.ref.Child(step),
		elem:     elem,
		readOnly: v.readOnly,
		owner:    v.owner,
		err:      v.err,
	}

	if c.err == nil && v.owner != nil {
		_, c.err = v.owner.Handle()
	}

	if c.err == nil {
		c.err = err
	}

	return c
}

// Index views element i of a viewed sequence.
func (v *View) Index(i int) *View {
	var err error

	elem, ok := v.elem.(seqConv)
	if !ok {
		err = fmt.Errorf("%s: %s is not a sequence", v.ref, v.elem.Name())
	} else if i < 0 {
		err = fmt.Errorf("%s: negative index %d", v.ref, i)
	}

	var conv Converter = Void
	if ok {
		conv = elem.elem
	}

	return v.child(Step{Kind: StepIndex, Index: i}, conv, err)
}

// Key views the value stored under k in a viewed map.
func (v *View) Key(k any) *View {
	m, ok := v.elem.(mapConv)
	if !ok {
		err := fmt.Errorf("%s: %s is not a map", v.ref, v.elem.Name())
		return v.child(Step{Kind: StepKey, Key: k}, Void, err)
	}

	w, err := m.key.ToNative(k)

	return v.child(Step{Kind: StepKey, Key: w}, m.value, err)
}

// Field views a data member of a viewed class value.
func (v *View) Field(name string, conv Converter) *View {
	return v.child(Step{Kind: StepField, Field: name}, conv, nil)
}

// Append is refused: views cannot grow native storage.
func (v *View) Append(any) error { return ErrViewResize }

// Insert is refused: views cannot grow native storage.
func (v *View) Insert(int, any) error { return ErrViewResize }

// Resize is refused: views cannot resize native storage.
func (v *View) Resize(int) error { return ErrViewResize }

// AsReadOnly returns a read-only view of the same storage.
func (v *View) AsReadOnly() *View {
	c := *v
	c.readOnly = true

	return &c
}

func (v *View) keepAlive(o *Object) {
	if v.owner == nil {
		v.owner = o
	}
}

type viewConv struct {
	elem     Converter
	readOnly bool
}

// ViewOf returns the converter for lvalue references to non-class values.
// Results are views; arguments accept a view (passing the storage itself)
// or a plain value (passing a copy).
func ViewOf(elem Converter, readOnly bool) Converter {
	return viewConv{elem: elem, readOnly: readOnly}
}

func (c viewConv) Name() string          { return "*bindrt.View[" + c.elem.Name() + "]" }
func (c viewConv) Managed() reflect.Type { return reflect.TypeFor[*View]() }

func (c viewConv) Accepts(v any) bool {
	if view, ok := v.(*View); ok {
		return view != nil && (c.readOnly || !view.readOnly)
	}

	return c.elem.Accepts(v)
}

func (c viewConv) ToNative(v any) (any, error) {
	if view, ok := v.(*View); ok {
		if !c.readOnly && view.readOnly {
			return nil, ErrReadOnly
		}

		return view.ref, view.alive()
	}

	return c.elem.ToNative(v)
}

func (c viewConv) FromNative(rt *Runtime, w any) (any, error) {
	ref, ok := w.(Ref)
	if !ok {
		return nil, typeError(c.Name(), w)
	}

	return NewView(rt, ref, c.elem, c.readOnly), nil
}

// ErrNotNumeric is returned when a buffer is built over a non-numeric element.
var ErrNotNumeric = errors.New("bindrt: buffers hold numeric elements only")
