package bindrt

import (
	"reflect"
)

// ClassLike is implemented by converters of wrapped classes.
type ClassLike interface {
	Converter
	// Class returns the native class name.
	Class() string
	// Wrap builds the generated wrapper around o.
	Wrap(o *Object) any
}

// ClassConv converts a generated wrapper type T by value: results are owned
// copies, arguments pass the wrapped handle.
type ClassConv[T Wrapper] struct {
	class string
	wrap  func(*Object) T

	less  func(a, b T) (bool, error)
	hash  func(v T) (uint64, error)
	equal func(a, b T) (bool, error)
}

// NewClassConv returns the converter for wrapper type T of a native class.
func NewClassConv[T Wrapper](class string, wrap func(*Object) T) *ClassConv[T] {
	return &ClassConv[T]{class: class, wrap: wrap}
}

func (c *ClassConv[T]) Name() string          { return reflect.TypeFor[T]().String() }
func (c *ClassConv[T]) Managed() reflect.Type { return reflect.TypeFor[T]() }
func (c *ClassConv[T]) Class() string         { return c.class }
func (c *ClassConv[T]) Wrap(o *Object) any    { return c.wrap(o) }

func (c *ClassConv[T]) Accepts(v any) bool {
	w, ok := v.(T)
	return ok && !isNil(w) && w.NativeObject() != nil
}

func (c *ClassConv[T]) ToNative(v any) (any, error) {
	if !c.Accepts(v) {
		return nil, typeError(c.Name(), v)
	}

	return v.(T).NativeObject().Handle()
}

func (c *ClassConv[T]) FromNative(rt *Runtime, w any) (any, error) {
	h, ok := w.(Handle)
	if !ok || h == 0 {
		return nil, typeError(c.Name(), w)
	}

	return c.wrap(rt.Own(c.class, h)), nil
}

// OrderedBy lets T key ordered containers using the native operator<.
// Generated packages call it from init, after all overloads exist.
func (c *ClassConv[T]) OrderedBy(less func(a, b T) (bool, error)) {
	c.less = less
}

// HashedBy lets T key hash containers using a native hash contributor and
// operator==.
func (c *ClassConv[T]) HashedBy(hash func(v T) (uint64, error), equal func(a, b T) (bool, error)) {
	c.hash, c.equal = hash, equal
}

func (c *ClassConv[T]) ordered() bool { return c.less != nil }
func (c *ClassConv[T]) hashed() bool  { return c.hash != nil && c.equal != nil }

func (c *ClassConv[T]) operands(a, b any) (T, T, error) {
	x, ok := a.(T)
	if !ok {
		return x, x, typeError(c.Name(), a)
	}

	y, ok := b.(T)
	if !ok {
		return x, y, typeError(c.Name(), b)
	}

	return x, y, nil
}

func (c *ClassConv[T]) Compare(a, b any) (int, error) {
	if c.less == nil {
		return 0, ErrNotKey
	}

	x, y, err := c.operands(a, b)
	if err != nil {
		return 0, err
	}

	if lt, err := c.less(x, y); err != nil || lt {
		return -1, err
	}

	if gt, err := c.less(y, x); err != nil || gt {
		return 1, err
	}

	return 0, nil
}

func (c *ClassConv[T]) Hash(a any) (uint64, error) {
	if c.hash == nil {
		return 0, ErrNotKey
	}

	x, ok := a.(T)
	if !ok {
		return 0, typeError(c.Name(), a)
	}

	return c.hash(x)
}

func (c *ClassConv[T]) Equal(a, b any) (bool, error) {
	if c.equal == nil {
		return false, ErrNotKey
	}

	x, y, err := c.operands(a, b)
	if err != nil {
		return false, err
	}

	return c.equal(x, y)
}

// AddressHash hashes a wrapper by the identity of its native object.
func AddressHash[T Wrapper](v T) (uint64, error) {
	h, err := v.NativeObject().Handle()
	return uint64(h), err
}

// borrowed converts class results that alias native storage.
type borrowed struct {
	ClassLike
	readOnly bool
}

// Borrow returns a converter yielding non-owning wrappers. Read-only
// wrappers refuse non-const methods with ErrReadOnly.
func Borrow(c ClassLike, readOnly bool) Converter {
	return borrowed{ClassLike: c, readOnly: readOnly}
}

func (b borrowed) FromNative(rt *Runtime, w any) (any, error) {
	if ref, ok := w.(Ref); ok && len(ref.Path) == 0 {
		w = ref.Owner
	}

	h, ok := w.(Handle)
	if !ok || h == 0 {
		return nil, typeError(b.Name(), w)
	}

	return b.Wrap(rt.Borrow(b.Class(), h, b.readOnly)), nil
}

// owned converts unique ownership: arguments move the object to the native
// side, results are owned.
type owned struct {
	ClassLike
}

// OwnedOf returns the converter for a uniquely owned class payload.
func OwnedOf(c ClassLike) Converter {
	return owned{ClassLike: c}
}

func (o owned) ToNative(v any) (any, error) {
	if !o.Accepts(v) {
		return nil, typeError(o.Name(), v)
	}

	return v.(Wrapper).NativeObject().take()
}

func (o owned) FromNative(rt *Runtime, w any) (any, error) {
	if w == nil {
		return Absent, nil
	}

	return o.ClassLike.FromNative(rt, w)
}

// pointer converts raw pointers: nil maps to Absent.
type pointer struct {
	ClassLike
	owns bool
}

// PointerOf returns the converter for raw pointers to a class. With owns
// set, results are owned by the wrapper and released once on Close.
func PointerOf(c ClassLike, owns bool) Converter {
	return pointer{ClassLike: c, owns: owns}
}

func (p pointer) Accepts(v any) bool {
	return isNil(v) || IsAbsent(v) || p.ClassLike.Accepts(v)
}

func (p pointer) ToNative(v any) (any, error) {
	if isNil(v) || IsAbsent(v) {
		return nil, nil
	}

	return p.ClassLike.ToNative(v)
}

func (p pointer) FromNative(rt *Runtime, w any) (any, error) {
	if w == nil || w == Handle(0) {
		return Absent, nil
	}

	h, ok := w.(Handle)
	if !ok {
		return nil, typeError(p.Name(), w)
	}

	if p.owns {
		return p.Wrap(rt.Own(p.Class(), h)), nil
	}

	return p.Wrap(rt.Borrow(p.Class(), h, false)), nil
}

// Shared is a managed reference to a shared native object. Each Shared
// holds one native reference, dropped by Close.
type Shared struct {
	obj      *Object
	payload  ClassLike
	value    any
	readOnly bool
}

// Get returns the wrapped class value.
func (s *Shared) Get() any { return s.value }

// ReadOnly reports whether the payload is const.
func (s *Shared) ReadOnly() bool { return s.readOnly }

// Handle returns the native handle.
func (s *Shared) Handle() (Handle, error) { return s.obj.Handle() }

// Close drops this reference.
func (s *Shared) Close() error { return s.obj.Close() }

// Clone returns a second reference to the same native object.
func (s *Shared) Clone() (*Shared, error) {
	h, err := s.obj.Handle()
	if err != nil {
		return nil, err
	}

	if err := s.obj.rt.Bridge.Retain(h); err != nil {
		return nil, err
	}

	obj := s.obj.rt.Own(s.obj.class, h)
	obj.readOnly = s.readOnly

	return &Shared{obj: obj, payload: s.payload, value: s.payload.Wrap(obj), readOnly: s.readOnly}, nil
}

type sharedConv struct {
	payload  ClassLike
	readOnly bool
}

// SharedOf returns the converter for shared_ptr<T>; readOnly is set for
// shared_ptr<const T>.
func SharedOf(c ClassLike, readOnly bool) Converter {
	return sharedConv{payload: c, readOnly: readOnly}
}

func (s sharedConv) Name() string          { return "*bindrt.Shared[" + s.payload.Name() + "]" }
func (s sharedConv) Managed() reflect.Type { return reflect.TypeFor[*Shared]() }

func (s sharedConv) Accepts(v any) bool {
	sh, ok := v.(*Shared)
	return ok && sh != nil && sh.obj.class == s.payload.Class() || v == nil || IsAbsent(v)
}

func (s sharedConv) ToNative(v any) (any, error) {
	if v == nil || IsAbsent(v) {
		return nil, nil
	}

	if !s.Accepts(v) {
		return nil, typeError(s.Name(), v)
	}

	return v.(*Shared).Handle()
}

func (s sharedConv) FromNative(rt *Runtime, w any) (any, error) {
	if w == nil || w == Handle(0) {
		return Absent, nil
	}

	h, ok := w.(Handle)
	if !ok {
		return nil, typeError(s.Name(), w)
	}

	obj := rt.Own(s.payload.Class(), h)
	obj.readOnly = s.readOnly

	return &Shared{obj: obj, payload: s.payload, value: s.payload.Wrap(obj), readOnly: s.readOnly}, nil
}

// Shared pointers compare and hash by address, like their native
// counterparts.
func (s sharedConv) Compare(a, b any) (int, error) {
	x, err := s.ToNative(a)
	if err != nil {
		return 0, err
	}

	y, err := s.ToNative(b)
	if err != nil {
		return 0, err
	}

	return Uint64.(Ordered).Compare(uint64(handleOf(x)), uint64(handleOf(y)))
}

func (s sharedConv) Hash(a any) (uint64, error) {
	x, err := s.ToNative(a)
	return uint64(handleOf(x)), err
}

func (s sharedConv) Equal(a, b any) (bool, error) {
	n, err := s.Compare(a, b)
	return n == 0, err
}

func handleOf(w any) Handle {
	h, _ := w.(Handle)
	return h
}

// isNil reports whether v is nil or a typed nil wrapper pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
