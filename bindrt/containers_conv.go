package bindrt

import (
	"fmt"
	"reflect"
)

// composite is implemented by converters with element converters; views
// use it to descend into native storage.
type composite interface {
	Elems() []Converter
}

func assign(dst reflect.Value, v any) error {
	if v == nil || IsAbsent(v) && dst.Kind() != reflect.Interface {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		return typeError(dst.Type().String(), v)
	}

	dst.Set(rv)

	return nil
}

func wireList(w any, name string) ([]any, error) {
	switch w := w.(type) {
	case []any:
		return w, nil
	case nil:
		return nil, nil
	default:
		return nil, typeError(name, w)
	}
}

type seqConv struct {
	elem Converter
	typ  reflect.Type
}

// SeqOf returns the converter for vector, list and deque: a Go slice of the
// element's managed type.
func SeqOf(elem Converter) Converter {
	return seqConv{elem: elem, typ: reflect.SliceOf(elem.Managed())}
}

func (s seqConv) Name() string          { return "[]" + s.elem.Name() }
func (s seqConv) Managed() reflect.Type { return s.typ }
func (s seqConv) Elems() []Converter    { return []Converter{s.elem} }
func (s seqConv) ordered() bool         { return CanOrder(s.elem) }
func (s seqConv) hashed() bool          { return false }

func (s seqConv) Accepts(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return false
	}

	if rv.Type() == s.typ {
		return true
	}

	for i := range rv.Len() {
		if !s.elem.Accepts(rv.Index(i).Interface()) {
			return false
		}
	}

	return rv.Type().Elem().Kind() == reflect.Interface
}

func (s seqConv) ToNative(v any) (any, error) {
	if !s.Accepts(v) {
		return nil, typeError(s.Name(), v)
	}

	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())

	for i := range out {
		w, err := s.elem.ToNative(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		out[i] = w
	}

	return out, nil
}

func (s seqConv) FromNative(rt *Runtime, w any) (any, error) {
	list, err := wireList(w, s.Name())
	if err != nil {
		return nil, err
	}

	out := reflect.MakeSlice(s.typ, len(list), len(list))

	for i, x := range list {
		v, err := s.elem.FromNative(rt, x)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		if err := assign(out.Index(i), v); err != nil {
			return nil, err
		}
	}

	return out.Interface(), nil
}

func (s seqConv) Compare(a, b any) (int, error) {
	key, ok := s.elem.(Ordered)
	if !ok || !CanOrder(s.elem) {
		return 0, ErrNotKey
	}

	x, y := reflect.ValueOf(a), reflect.ValueOf(b)
	if x.Kind() != reflect.Slice || y.Kind() != reflect.Slice {
		return 0, typeError(s.Name(), a)
	}

	for i := 0; i < x.Len() && i < y.Len(); i++ {
		c, err := key.Compare(x.Index(i).Interface(), y.Index(i).Interface())
		if err != nil || c != 0 {
			return c, err
		}
	}

	return x.Len() - y.Len(), nil
}

type setConv struct {
	elem Converter
	hash bool
}

// OrderedSetOf returns the converter for set<T>. It panics when T has no
// ordering; generation rejects such declarations first.
func OrderedSetOf(elem Converter) Converter {
	if !CanOrder(elem) {
		panic("bindrt: set element " + elem.Name() + " has no ordering")
	}

	return setConv{elem: elem}
}

// HashSetOf returns the converter for unordered_set<T>. It panics when T
// cannot be hashed.
func HashSetOf(elem Converter) Converter {
	if !CanHash(elem) {
		panic("bindrt: unordered_set element " + elem.Name() + " is not hashable")
	}

	return setConv{elem: elem, hash: true}
}

func (s setConv) Name() string {
	if s.hash {
		return "*bindrt.HashSet[" + s.elem.Name() + "]"
	}

	return "*bindrt.OrderedSet[" + s.elem.Name() + "]"
}

func (s setConv) Managed() reflect.Type {
	if s.hash {
		return reflect.TypeFor[*HashSet]()
	}

	return reflect.TypeFor[*OrderedSet]()
}

func (s setConv) Elems() []Converter { return []Converter{s.elem} }

// New returns an empty set keyed like the native one.
func (s setConv) New() any {
	if s.hash {
		return NewHashSet(s.elem.(Hashed))
	}

	return NewOrderedSet(s.elem.(Ordered))
}

func (s setConv) Accepts(v any) bool {
	switch v := v.(type) {
	case *HashSet:
		return s.hash && v != nil
	case *OrderedSet:
		return !s.hash && v != nil
	default:
		return false
	}
}

func (s setConv) items(v any) []any {
	if hs, ok := v.(*HashSet); ok {
		return hs.items
	}

	return v.(*OrderedSet).items
}

func (s setConv) ToNative(v any) (any, error) {
	if !s.Accepts(v) {
		return nil, typeError(s.Name(), v)
	}

	items := s.items(v)
	out := make([]any, len(items))

	for i, x := range items {
		w, err := s.elem.ToNative(x)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		out[i] = w
	}

	return out, nil
}

func (s setConv) FromNative(rt *Runtime, w any) (any, error) {
	list, err := wireList(w, s.Name())
	if err != nil {
		return nil, err
	}

	out := s.New()

	for i, x := range list {
		v, err := s.elem.FromNative(rt, x)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		if hs, ok := out.(*HashSet); ok {
			_, err = hs.Add(v)
		} else {
			_, err = out.(*OrderedSet).Add(v)
		}

		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

type mapConv struct {
	key, value Converter
	hash       bool
}

// OrderedMapOf returns the converter for map<K, V>. It panics when K has
// no ordering.
func OrderedMapOf(key, value Converter) Converter {
	if !CanOrder(key) {
		panic("bindrt: map key " + key.Name() + " has no ordering")
	}

	return mapConv{key: key, value: value}
}

// HashMapOf returns the converter for unordered_map<K, V>. It panics when
// K cannot be hashed.
func HashMapOf(key, value Converter) Converter {
	if !CanHash(key) {
		panic("bindrt: unordered_map key " + key.Name() + " is not hashable")
	}

	return mapConv{key: key, value: value, hash: true}
}

func (m mapConv) Name() string {
	kind := "OrderedMap"
	if m.hash {
		kind = "HashMap"
	}

	return "*bindrt." + kind + "[" + m.key.Name() + ", " + m.value.Name() + "]"
}

func (m mapConv) Managed() reflect.Type {
	if m.hash {
		return reflect.TypeFor[*HashMap]()
	}

	return reflect.TypeFor[*OrderedMap]()
}

func (m mapConv) Elems() []Converter { return []Converter{m.key, m.value} }

// New returns an empty map keyed like the native one.
func (m mapConv) New() any {
	if m.hash {
		return NewHashMap(m.key.(Hashed))
	}

	return NewOrderedMap(m.key.(Ordered))
}

func (m mapConv) Accepts(v any) bool {
	switch v := v.(type) {
	case *HashMap:
		return m.hash && v != nil
	case *OrderedMap:
		return !m.hash && v != nil
	default:
		return false
	}
}

func (m mapConv) ToNative(v any) (any, error) {
	if !m.Accepts(v) {
		return nil, typeError(m.Name(), v)
	}

	var entries []Entry
	if hm, ok := v.(*HashMap); ok {
		entries = hm.Entries()
	} else {
		entries = v.(*OrderedMap).Entries()
	}

	out := make([]WireEntry, len(entries))

	for i, e := range entries {
		k, err := m.key.ToNative(e.Key)
		if err != nil {
			return nil, fmt.Errorf("key %v: %w", e.Key, err)
		}

		val, err := m.value.ToNative(e.Value)
		if err != nil {
			return nil, fmt.Errorf("value of %v: %w", e.Key, err)
		}

		out[i] = WireEntry{Key: k, Value: val}
	}

	return out, nil
}

func (m mapConv) FromNative(rt *Runtime, w any) (any, error) {
	var entries []WireEntry

	switch w := w.(type) {
	case []WireEntry:
		entries = w
	case nil:
	default:
		return nil, typeError(m.Name(), w)
	}

	out := m.New()

	for _, e := range entries {
		k, err := m.key.FromNative(rt, e.Key)
		if err != nil {
			return nil, fmt.Errorf("key %v: %w", e.Key, err)
		}

		v, err := m.value.FromNative(rt, e.Value)
		if err != nil {
			return nil, fmt.Errorf("value of %v: %w", e.Key, err)
		}

		if hm, ok := out.(*HashMap); ok {
			err = hm.Put(k, v)
		} else {
			err = out.(*OrderedMap).Put(k, v)
		}

		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

type pairConv struct {
	first, second Converter
}

// PairOf returns the converter for pair<A, B>.
func PairOf(first, second Converter) Converter {
	return pairConv{first: first, second: second}
}

func (p pairConv) Name() string {
	return "bindrt.Pair[" + p.first.Name() + ", " + p.second.Name() + "]"
}

func (p pairConv) Managed() reflect.Type { return reflect.TypeFor[Pair]() }
func (p pairConv) Elems() []Converter    { return []Converter{p.first, p.second} }
func (p pairConv) ordered() bool         { return CanOrder(p.first) && CanOrder(p.second) }
func (p pairConv) hashed() bool          { return CanHash(p.first) && CanHash(p.second) }

func (p pairConv) Accepts(v any) bool {
	pr, ok := v.(Pair)
	return ok && p.first.Accepts(pr.First) && p.second.Accepts(pr.Second)
}

func (p pairConv) ToNative(v any) (any, error) {
	pr, ok := v.(Pair)
	if !ok {
		return nil, typeError(p.Name(), v)
	}

	a, err := p.first.ToNative(pr.First)
	if err != nil {
		return nil, fmt.Errorf("first: %w", err)
	}

	b, err := p.second.ToNative(pr.Second)
	if err != nil {
		return nil, fmt.Errorf("second: %w", err)
	}

	return WirePair{First: a, Second: b}, nil
}

func (p pairConv) FromNative(rt *Runtime, w any) (any, error) {
	wp, ok := w.(WirePair)
	if !ok {
		return nil, typeError(p.Name(), w)
	}

	a, err := p.first.FromNative(rt, wp.First)
	if err != nil {
		return nil, fmt.Errorf("first: %w", err)
	}

	b, err := p.second.FromNative(rt, wp.Second)
	if err != nil {
		return nil, fmt.Errorf("second: %w", err)
	}

	return Pair{First: a, Second: b}, nil
}

func (p pairConv) Compare(a, b any) (int, error) {
	x, ok := a.(Pair)
	if !ok {
		return 0, typeError(p.Name(), a)
	}

	y, ok := b.(Pair)
	if !ok {
		return 0, typeError(p.Name(), b)
	}

	f, ok1 := p.first.(Ordered)
	s, ok2 := p.second.(Ordered)

	if !ok1 || !ok2 || !p.ordered() {
		return 0, ErrNotKey
	}

	if c, err := f.Compare(x.First, y.First); err != nil || c != 0 {
		return c, err
	}

	return s.Compare(x.Second, y.Second)
}

func (p pairConv) Hash(a any) (uint64, error) {
	x, ok := a.(Pair)
	if !ok {
		return 0, typeError(p.Name(), a)
	}

	f, ok1 := p.first.(Hashed)
	s, ok2 := p.second.(Hashed)

	if !ok1 || !ok2 || !p.hashed() {
		return 0, ErrNotKey
	}

	h1, err := f.Hash(x.First)
	if err != nil {
		return 0, err
	}

	h2, err := s.Hash(x.Second)

	return h1*31 + h2, err
}

func (p pairConv) Equal(a, b any) (bool, error) {
	x, ok := a.(Pair)
	if !ok {
		return false, typeError(p.Name(), a)
	}

	y, ok := b.(Pair)
	if !ok {
		return false, typeError(p.Name(), b)
	}

	f, ok1 := p.first.(Hashed)
	s, ok2 := p.second.(Hashed)

	if !ok1 || !ok2 {
		return false, ErrNotKey
	}

	eq, err := f.Equal(x.First, y.First)
	if err != nil || !eq {
		return false, err
	}

	return s.Equal(x.Second, y.Second)
}

type optionalConv struct {
	elem Converter
}

// OptionalOf returns the converter for optional<T>: Absent or a T.
func OptionalOf(elem Converter) Converter {
	return optionalConv{elem: elem}
}

func (o optionalConv) Name() string          { return "optional[" + o.elem.Name() + "]" }
func (o optionalConv) Managed() reflect.Type { return reflect.TypeFor[any]() }
func (o optionalConv) Elems() []Converter    { return []Converter{o.elem} }
func (o optionalConv) ordered() bool         { return CanOrder(o.elem) }
func (o optionalConv) hashed() bool          { return CanHash(o.elem) }

func (o optionalConv) Accepts(v any) bool {
	return v == nil || IsAbsent(v) || o.elem.Accepts(v)
}

func (o optionalConv) ToNative(v any) (any, error) {
	if v == nil || IsAbsent(v) {
		return nil, nil
	}

	return o.elem.ToNative(v)
}

func (o optionalConv) FromNative(rt *Runtime, w any) (any, error) {
	if w == nil {
		return Absent, nil
	}

	return o.elem.FromNative(rt, w)
}

func present(v any) bool { return v != nil && !IsAbsent(v) }

func (o optionalConv) Compare(a, b any) (int, error) {
	key, ok := o.elem.(Ordered)
	if !ok || !o.ordered() {
		return 0, ErrNotKey
	}

	switch {
	case !present(a) && !present(b):
		return 0, nil
	case !present(a):
		return -1, nil
	case !present(b):
		return 1, nil
	}

	return key.Compare(a, b)
}

func (o optionalConv) Hash(a any) (uint64, error) {
	key, ok := o.elem.(Hashed)
	if !ok || !o.hashed() {
		return 0, ErrNotKey
	}

	if !present(a) {
		return 0, nil
	}

	return key.Hash(a)
}

func (o optionalConv) Equal(a, b any) (bool, error) {
	key, ok := o.elem.(Hashed)
	if !ok {
		return false, ErrNotKey
	}

	if !present(a) || !present(b) {
		return present(a) == present(b), nil
	}

	return key.Equal(a, b)
}
