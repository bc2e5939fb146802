package bindrt

import (
	"cmp"
	"hash/maphash"
	"math"
	"reflect"

	"bindgen/primitive"
)

// Converter moves values of one native type across the bridge.
type Converter interface {
	// Name is the managed type name used in messages.
	Name() string
	// Managed is the Go type of converted values.
	Managed() reflect.Type
	// Accepts reports whether v converts to the native type. Overload
	// dispatch relies on it.
	Accepts(v any) bool
	// ToNative converts a managed value to wire form.
	ToNative(v any) (any, error)
	// FromNative converts a wire value to its managed form.
	FromNative(rt *Runtime, w any) (any, error)
}

// Ordered is implemented by converters whose values key ordered containers.
type Ordered interface {
	Compare(a, b any) (int, error)
}

// Hashed is implemented by converters whose values key hash containers.
type Hashed interface {
	Hash(a any) (uint64, error)
	Equal(a, b any) (bool, error)
}

// keyCapable is implemented by composite converters whose key support
// depends on their elements.
type keyCapable interface {
	ordered() bool
	hashed() bool
}

// CanOrder reports whether values of c can key ordered containers.
func CanOrder(c Converter) bool {
	if k, ok := c.(keyCapable); ok {
		return k.ordered()
	}

	_, ok := c.(Ordered)

	return ok
}

// CanHash reports whether values of c can key hash containers.
func CanHash(c Converter) bool {
	if k, ok := c.(keyCapable); ok {
		return k.hashed()
	}

	_, ok := c.(Hashed)

	return ok
}

var seed = maphash.MakeSeed()

// scalar converts one primitive kind family.
type scalar struct {
	kind primitive.KindEnum
	typ  reflect.Type
}

var (
	// Int64 converts every signed native integer.
	Int64 Converter = scalar{kind: primitive.KindInt64, typ: reflect.TypeFor[int64]()}
	// Uint64 converts every unsigned native integer.
	Uint64 Converter = scalar{kind: primitive.KindUint64, typ: reflect.TypeFor[uint64]()}
	// Float64 converts float and double.
	Float64 Converter = scalar{kind: primitive.KindFloat64, typ: reflect.TypeFor[float64]()}
	// Bool converts bool.
	Bool Converter = scalar{kind: primitive.KindBool, typ: reflect.TypeFor[bool]()}
	// String converts native strings.
	String Converter = scalar{kind: primitive.KindString, typ: reflect.TypeFor[string]()}
)

func (s scalar) Name() string          { return s.typ.String() }
func (s scalar) Managed() reflect.Type { return s.typ }

// family reports whether k converts with s.
func (s scalar) family(k primitive.KindEnum) bool {
	switch {
	case s.kind.IsSigned():
		return k.IsSigned()
	case s.kind.IsUnsigned():
		return k.IsUnsigned()
	case s.kind.IsFloat():
		return k.IsFloat()
	default:
		return k == s.kind
	}
}

func (s scalar) Accepts(v any) bool {
	if v == nil {
		return false
	}

	t := reflect.TypeOf(v)
	// Named integer types are enums or other distinct types; only the
	// builtin spellings convert implicitly.
	if t.PkgPath() != "" {
		return false
	}

	return s.family(primitive.FromReflectType(t))
}

func (s scalar) ToNative(v any) (any, error) {
	if !s.Accepts(v) {
		return nil, typeError(s.Name(), v)
	}

	return s.normalize(reflect.ValueOf(v)), nil
}

func (s scalar) FromNative(_ *Runtime, w any) (any, error) {
	if w == nil || !s.family(primitive.FromReflectType(reflect.TypeOf(w))) {
		return nil, typeError(s.Name(), w)
	}

	return s.normalize(reflect.ValueOf(w)), nil
}

func (s scalar) normalize(v reflect.Value) any {
	switch {
	case s.kind.IsSigned():
		return v.Int()
	case s.kind.IsUnsigned():
		return v.Uint()
	case s.kind.IsFloat():
		return v.Float()
	case s.kind == primitive.KindBool:
		return v.Bool()
	default:
		return v.String()
	}
}

func (s scalar) Compare(a, b any) (int, error) {
	x, err := s.ToNative(a)
	if err != nil {
		return 0, err
	}

	y, err := s.ToNative(b)
	if err != nil {
		return 0, err
	}

	switch x := x.(type) {
	case int64:
		return cmp.Compare(x, y.(int64)), nil
	case uint64:
		return cmp.Compare(x, y.(uint64)), nil
	case float64:
		return cmp.Compare(x, y.(float64)), nil
	case string:
		return cmp.Compare(x, y.(string)), nil
	case bool:
		yb := y.(bool)
		switch {
		case x == yb:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	}

	return 0, ErrNotKey
}

func (s scalar) Hash(a any) (uint64, error) {
	x, err := s.ToNative(a)
	if err != nil {
		return 0, err
	}

	switch x := x.(type) {
	case int64:
		return uint64(x), nil
	case uint64:
		return x, nil
	case float64:
		return math.Float64bits(x), nil
	case bool:
		if x {
			return 1, nil
		}

		return 0, nil
	case string:
		return maphash.String(seed, x), nil
	}

	return 0, ErrNotKey
}

func (s scalar) Equal(a, b any) (bool, error) {
	c, err := s.Compare(a, b)
	return c == 0, err
}

type void struct{}

// Void is the result converter of callables without a result.
var Void Converter = void{}

func (void) Name() string                          { return "void" }
func (void) Managed() reflect.Type                 { return nil }
func (void) Accepts(v any) bool                    { return v == nil }
func (void) ToNative(any) (any, error)             { return nil, nil }
func (void) FromNative(*Runtime, any) (any, error) { return nil, nil }

// As converts a result of Runtime.Invoke to its static type. Absent and nil
// results become the zero value.
func As[T any](v any, err error) (T, error) {
	var zero T

	if err != nil {
		return zero, err
	}

	if v == nil || IsAbsent(v) {
		return zero, nil
	}

	t, ok := v.(T)
	if !ok {
		return zero, typeError(reflect.TypeFor[T]().String(), v)
	}

	return t, nil
}
