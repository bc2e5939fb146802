package bindrt

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
)

// EnumItem is one enumerator of an EnumType.
type EnumItem struct {
	Name  string
	Value int64
}

// EnumType describes a native enum. Identity is the qualified native name;
// two enum types with identical values are still different types.
type EnumType struct {
	scope []string
	name  string
	items []EnumItem
}

// NewEnumType describes the enum qualified by native name ("Task::TaskStatus").
func NewEnumType(qualified string, items ...EnumItem) *EnumType {
	parts := strings.Split(qualified, "::")

	return &EnumType{
		scope: parts[:len(parts)-1],
		name:  parts[len(parts)-1],
		items: items,
	}
}

// Name returns the unqualified native name.
func (t *EnumType) Name() string { return t.name }

// Scope returns the native scope path.
func (t *EnumType) Scope() []string { return t.scope }

// QualifiedName returns the scope-qualified native name.
func (t *EnumType) QualifiedName() string {
	if len(t.scope) == 0 {
		return t.name
	}

	return strings.Join(t.scope, "::") + "::" + t.name
}

// Key is the identity key, matching the one used in overload signatures.
func (t *EnumType) Key() string {
	return "enum:" + t.QualifiedName()
}

// Items returns the enumerators in declaration order.
func (t *EnumType) Items() []EnumItem {
	return t.items
}

// Lookup returns the value of an enumerator.
func (t *EnumType) Lookup(name string) (int64, bool) {
	for _, it := range t.items {
		if it.Name == name {
			return it.Value, true
		}
	}

	return 0, false
}

// Format returns the enumerator name of v, or "Name(v)" for values outside
// the declared set.
func (t *EnumType) Format(v int64) string {
	for _, it := range t.items {
		if it.Value == v {
			return it.Name
		}
	}

	return fmt.Sprintf("%s(%d)", t.name, v)
}

// Valid reports whether v is a declared enumerator value.
func (t *EnumType) Valid(v int64) bool {
	for _, it := range t.items {
		if it.Value == v {
			return true
		}
	}

	return false
}

// EnumConv converts a generated Go enum type E.
type EnumConv[E ~int64] struct {
	Type *EnumType
}

// EnumOf returns the converter for E described by t.
func EnumOf[E ~int64](t *EnumType) *EnumConv[E] {
	return &EnumConv[E]{Type: t}
}

func (c *EnumConv[E]) Name() string          { return reflect.TypeFor[E]().String() }
func (c *EnumConv[E]) Managed() reflect.Type { return reflect.TypeFor[E]() }

func (c *EnumConv[E]) Accepts(v any) bool {
	_, ok := v.(E)
	return ok
}

func (c *EnumConv[E]) ToNative(v any) (any, error) {
	e, ok := v.(E)
	if !ok {
		return nil, typeError(c.Name(), v)
	}

	return int64(e), nil
}

func (c *EnumConv[E]) FromNative(_ *Runtime, w any) (any, error) {
	switch w := w.(type) {
	case int64:
		return E(w), nil
	case E:
		return w, nil
	default:
		return nil, typeError(c.Name(), w)
	}
}

func (c *EnumConv[E]) Compare(a, b any) (int, error) {
	x, ok := a.(E)
	if !ok {
		return 0, typeError(c.Name(), a)
	}

	y, ok := b.(E)
	if !ok {
		return 0, typeError(c.Name(), b)
	}

	return cmp.Compare(x, y), nil
}

func (c *EnumConv[E]) Hash(a any) (uint64, error) {
	x, ok := a.(E)
	if !ok {
		return 0, typeError(c.Name(), a)
	}

	return uint64(x), nil
}

func (c *EnumConv[E]) Equal(a, b any) (bool, error) {
	n, err := c.Compare(a, b)
	return n == 0, err
}
