package bindrt

import (
	"context"
	"fmt"
	"reflect"

	"bindgen/utils"
)

// Buffer is an owning copy of a native numeric sequence.
type Buffer struct {
	elem   scalar
	values reflect.Value
}

// Len returns the element count.
func (b *Buffer) Len() int { return b.values.Len() }

// Elem returns the element converter.
func (b *Buffer) Elem() Converter { return b.elem }

// Values returns the backing slice ([]int64, []uint64 or []float64).
func (b *Buffer) Values() any { return b.values.Interface() }

// At returns element i.
func (b *Buffer) At(i int) (any, error) {
	if !utils.IsInRange(0, i, b.Len()-1) {
		return nil, fmt.Errorf("bindrt: buffer index %d out of range [0, %d)", i, b.Len())
	}

	return b.values.Index(i).Interface(), nil
}

// Float64s returns the elements converted to float64.
func (b *Buffer) Float64s() []float64 {
	out := make([]float64, b.Len())

	for i := range out {
		switch x := b.values.Index(i).Interface().(type) {
		case int64:
			out[i] = float64(x)
		case uint64:
			out[i] = float64(x)
		case float64:
			out[i] = x
		}
	}

	return out
}

func numericElem(elem Converter) scalar {
	s, ok := elem.(scalar)
	if !ok || !s.kind.IsNumber() {
		panic(fmt.Errorf("%w: got %s", ErrNotNumeric, elem.Name()))
	}

	return s
}

type bufferConv struct {
	elem scalar
}

// BufferOf returns the converter exposing a numeric sequence result as an
// owning Buffer. It panics for non-numeric elements.
func BufferOf(elem Converter) Converter {
	return bufferConv{elem: numericElem(elem)}
}

func (c bufferConv) Name() string          { return "*bindrt.Buffer[" + c.elem.Name() + "]" }
func (c bufferConv) Managed() reflect.Type { return reflect.TypeFor[*Buffer]() }

func (c bufferConv) Accepts(v any) bool {
	b, ok := v.(*Buffer)
	return ok && b != nil && b.elem.kind == c.elem.kind
}

func (c bufferConv) ToNative(v any) (any, error) {
	if !c.Accepts(v) {
		return nil, typeError(c.Name(), v)
	}

	b := v.(*Buffer)
	out := make([]any, b.Len())

	for i := range out {
		out[i] = b.values.Index(i).Interface()
	}

	return out, nil
}

func (c bufferConv) FromNative(_ *Runtime, w any) (any, error) {
	list, err := wireList(w, c.Name())
	if err != nil {
		return nil, err
	}

	values := reflect.MakeSlice(reflect.SliceOf(c.elem.typ), len(list), len(list))

	for i, x := range list {
		v, err := c.elem.FromNative(nil, x)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		values.Index(i).Set(reflect.ValueOf(v))
	}

	return &Buffer{elem: c.elem, values: values}, nil
}

// NumericView is a non-owning view of a native numeric sequence. The
// native storage must outlive it; it cannot be resized.
type NumericView struct {
	view *View
}

// View returns the underlying generic view.
func (n *NumericView) View() *View { return n.view }

// ReadOnly reports whether writes are refused.
func (n *NumericView) ReadOnly() bool { return n.view.readOnly }

// Len returns the current element count.
func (n *NumericView) Len(ctx context.Context) (int, error) {
	return n.view.Len(ctx)
}

func (n *NumericView) element(ctx context.Context, i int) (*View, error) {
	size, err := n.Len(ctx)
	if err != nil {
		return nil, err
	}

	if !utils.IsInRange(0, i, size-1) {
		return nil, fmt.Errorf("bindrt: view index %d out of range [0, %d)", i, size)
	}

	return n.view.Index(i), nil
}

// At reads element i.
func (n *NumericView) At(ctx context.Context, i int) (any, error) {
	v, err := n.element(ctx, i)
	if err != nil {
		return nil, err
	}

	return v.Get(ctx)
}

// SetAt overwrites element i in place.
func (n *NumericView) SetAt(ctx context.Context, i int, val any) error {
	if n.view.readOnly {
		return ErrReadOnly
	}

	v, err := n.element(ctx, i)
	if err != nil {
		return err
	}

	return v.Set(ctx, val)
}

// Append is refused: the view cannot grow native storage.
func (n *NumericView) Append(any) error { return ErrViewResize }

// Resize is refused: the view cannot resize native storage.
func (n *NumericView) Resize(int) error { return ErrViewResize }

type numericViewConv struct {
	seq      seqConv
	readOnly bool
}

// NumericViewOf returns the converter exposing a referenced numeric
// sequence as a NumericView. It panics for non-numeric elements.
func NumericViewOf(elem Converter, readOnly bool) Converter {
	numericElem(elem)

	return numericViewConv{seq: SeqOf(elem).(seqConv), readOnly: readOnly}
}

func (c numericViewConv) Name() string          { return "*bindrt.NumericView[" + c.seq.elem.Name() + "]" }
func (c numericViewConv) Managed() reflect.Type { return reflect.TypeFor[*NumericView]() }

func (c numericViewConv) Accepts(v any) bool {
	nv, ok := v.(*NumericView)
	return ok && nv != nil
}

func (c numericViewConv) ToNative(v any) (any, error) {
	if !c.Accepts(v) {
		return nil, typeError(c.Name(), v)
	}

	view := v.(*NumericView).view

	return view.ref, view.alive()
}

func (c numericViewConv) FromNative(rt *Runtime, w any) (any, error) {
	ref, ok := w.(Ref)
	if !ok {
		return nil, typeError(c.Name(), w)
	}

	return &NumericView{view: NewView(rt, ref, c.seq, c.readOnly)}, nil
}

func (n *NumericView) keepAlive(o *Object) {
	n.view.keepAlive(o)
}
