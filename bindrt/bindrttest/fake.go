// Package bindrttest provides an in-memory Bridge for testing generated
// bindings without a native library.
package bindrttest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"bindgen/bindrt"
)

// ErrUnknownHandle is returned for handles the fake never issued or
// already released.
var ErrUnknownHandle = errors.New("bindrttest: unknown handle")

// Method implements one native overload. self is nil for free functions.
type Method func(ctx context.Context, f *Fake, self *Instance, args []any) (any, error)

// Ctor initialises a freshly allocated instance.
type Ctor func(f *Fake, self *Instance, args []any) error

// Class is a fake native class.
type Class struct {
	Name  string
	Ctors []Ctor
	// Methods are keyed by qualified symbol; the slice index is the
	// overload index.
	Methods map[string][]Method
}

// Instance is a fake native object. Fields hold wire values.
type Instance struct {
	Handle bindrt.Handle
	Class  string
	Fields map[string]any
	refs   int
}

// Fake is an in-memory Bridge.
type Fake struct {
	mu      sync.Mutex
	classes map[string]*Class
	funcs   map[string][]Method
	objects map[bindrt.Handle]*Instance
	next    bindrt.Handle

	// Released lists handles in the order they were destroyed.
	Released []bindrt.Handle
	// Calls lists every invoked symbol.
	Calls []string
}

var _ bindrt.Bridge = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		classes: map[string]*Class{},
		funcs:   map[string][]Method{},
		objects: map[bindrt.Handle]*Instance{},
	}
}

// Define registers a class.
func (f *Fake) Define(c *Class) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.classes[c.Name] = c
}

// DefineFunc registers the overloads of a free function.
func (f *Fake) DefineFunc(symbol string, overloads ...Method) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.funcs[symbol] = overloads
}

// Alloc creates an instance natively, as a native function returning a
// new object would.
func (f *Fake) Alloc(class string, fields map[string]any) *Instance {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.alloc(class, fields)
}

func (f *Fake) alloc(class string, fields map[string]any) *Instance {
	if fields == nil {
		fields = map[string]any{}
	}

	f.next++
	inst := &Instance{Handle: f.next, Class: class, Fields: fields, refs: 1}
	f.objects[inst.Handle] = inst

	return inst
}

// Object returns a live instance, or nil.
func (f *Fake) Object(h bindrt.Handle) *Instance {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.objects[h]
}

// Live returns the number of live instances.
func (f *Fake) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.objects)
}

// New implements bindrt.Bridge.
func (f *Fake) New(_ context.Context, class string, overload int, args []any) (bindrt.Handle, error) {
	f.mu.Lock()

	c, ok := f.classes[class]
	if !ok {
		f.mu.Unlock()
		return 0, fmt.Errorf("bindrttest: unknown class %s", class)
	}

	f.Calls = append(f.Calls, class)

	if overload == bindrt.CopyConstructor {
		defer f.mu.Unlock()

		h, _ := args[0].(bindrt.Handle)

		src, ok := f.objects[h]
		if !ok {
			return 0, fmt.Errorf("copy %s: %w", class, ErrUnknownHandle)
		}

		fields := make(map[string]any, len(src.Fields))
		for k, v := range src.Fields {
			fields[k] = Clone(v)
		}

		return f.alloc(class, fields).Handle, nil
	}

	if overload < 0 || overload >= len(c.Ctors) {
		f.mu.Unlock()
		return 0, fmt.Errorf("bindrttest: %s has no constructor %d", class, overload)
	}

	inst := f.alloc(class, nil)
	ctor := c.Ctors[overload]
	f.mu.Unlock()

	if err := ctor(f, inst, args); err != nil {
		_ = f.Release(inst.Handle)
		return 0, err
	}

	return inst.Handle, nil
}

// Call implements bindrt.Bridge.
func (f *Fake) Call(ctx context.Context, target bindrt.Handle, symbol string, overload int, args []any) (any, error) {
	f.mu.Lock()

	var (
		self      *Instance
		overloads []Method
	)

	if target == 0 {
		overloads = f.funcs[symbol]
	} else {
		self = f.objects[target]
		if self == nil {
			f.mu.Unlock()
			return nil, fmt.Errorf("%s: %w %d", symbol, ErrUnknownHandle, target)
		}

		if c := f.classes[self.Class]; c != nil {
			overloads = c.Methods[symbol]
		}
	}

	f.Calls = append(f.Calls, symbol)
	f.mu.Unlock()

	if overload < 0 || overload >= len(overloads) {
		return nil, fmt.Errorf("bindrttest: no overload %d of %s", overload, symbol)
	}

	return overloads[overload](ctx, f, self, args)
}

// Load implements bindrt.Bridge.
func (f *Fake) Load(_ context.Context, ref bindrt.Ref) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	get, _, err := f.resolve(ref)
	if err != nil {
		return nil, err
	}

	return Clone(get()), nil
}

// Store implements bindrt.Bridge.
func (f *Fake) Store(_ context.Context, ref bindrt.Ref, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, set, err := f.resolve(ref)
	if err != nil {
		return err
	}

	if set == nil {
		return fmt.Errorf("bindrttest: %s is not assignable", ref)
	}

	set(Clone(value))

	return nil
}

// Len implements bindrt.Bridge.
func (f *Fake) Len(_ context.Context, ref bindrt.Ref) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	get, _, err := f.resolve(ref)
	if err != nil {
		return 0, err
	}

	switch v := get().(type) {
	case []any:
		return len(v), nil
	case []bindrt.WireEntry:
		return len(v), nil
	default:
		return 0, fmt.Errorf("bindrttest: %s is not a container", ref)
	}
}

// Retain implements bindrt.Bridge.
func (f *Fake) Retain(h bindrt.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	inst, ok := f.objects[h]
	if !ok {
		return fmt.Errorf("retain %d: %w", h, ErrUnknownHandle)
	}

	inst.refs++

	return nil
}

// Release implements bindrt.Bridge.
func (f *Fake) Release(h bindrt.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	inst, ok := f.objects[h]
	if !ok {
		return fmt.Errorf("release %d: %w", h, ErrUnknownHandle)
	}

	inst.refs--
	if inst.refs <= 0 {
		delete(f.objects, h)
		f.Released = append(f.Released, h)
	}

	return nil
}

// resolve walks ref and returns accessors for the addressed storage. The
// accessors must be used with f.mu held.
func (f *Fake) resolve(ref bindrt.Ref) (func() any, func(any), error) {
	inst, ok := f.objects[ref.Owner]
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", ref, ErrUnknownHandle)
	}

	get := func() any { return inst.Handle }

	var set func(any)

	for _, step := range ref.Path {
		switch step.Kind {
		case bindrt.StepField:
			h, ok := get().(bindrt.Handle)
			if !ok || f.objects[h] == nil {
				return nil, nil, fmt.Errorf("bindrttest: %s: field %s of a non-object", ref, step.Field)
			}

			fields := f.objects[h].Fields
			name := step.Field

			if _, ok := fields[name]; !ok {
				return nil, nil, fmt.Errorf("bindrttest: %s: no field %s", ref, name)
			}

			get = func() any { return fields[name] }
			set = func(v any) { fields[name] = v }

		case bindrt.StepIndex:
			list, ok := get().([]any)
			if !ok {
				return nil, nil, fmt.Errorf("bindrttest: %s: index into a non-sequence", ref)
			}

			i := step.Index
			if i < 0 || i >= len(list) {
				return nil, nil, fmt.Errorf("index %d out of range", i)
			}

			get = func() any { return list[i] }
			set = func(v any) { list[i] = v }

		case bindrt.StepKey:
			entries, ok := get().([]bindrt.WireEntry)
			if !ok {
				return nil, nil, fmt.Errorf("bindrttest: %s: key into a non-map", ref)
			}

			j := -1

			for k := range entries {
				if reflect.DeepEqual(entries[k].Key, step.Key) {
					j = k
					break
				}
			}

			if j < 0 {
				return nil, nil, fmt.Errorf("key %v not found", step.Key)
			}

			get = func() any { return entries[j].Value }
			set = func(v any) { entries[j].Value = v }
		}
	}

	return get, set, nil
}

// Clone deep-copies a wire value.
func Clone(v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = Clone(x)
		}

		return out
	case []bindrt.WireEntry:
		out := make([]bindrt.WireEntry, len(v))
		for i, e := range v {
			out[i] = bindrt.WireEntry{Key: Clone(e.Key), Value: Clone(e.Value)}
		}

		return out
	case bindrt.WirePair:
		return bindrt.WirePair{First: Clone(v.First), Second: Clone(v.Second)}
	default:
		return v
	}
}

// Field returns a method returning a copy of a field.
func Field(name string) Method {
	return func(_ context.Context, f *Fake, self *Instance, _ []any) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		return Clone(self.Fields[name]), nil
	}
}

// SetField returns a method storing its single argument in a field.
func SetField(name string) Method {
	return func(_ context.Context, f *Fake, self *Instance, args []any) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		self.Fields[name] = Clone(args[0])

		return nil, nil
	}
}

// FieldRef returns a method returning a reference to a field.
func FieldRef(name string) Method {
	return func(_ context.Context, _ *Fake, self *Instance, _ []any) (any, error) {
		return bindrt.Ref{Owner: self.Handle, Path: []bindrt.Step{{Kind: bindrt.StepField, Field: name}}}, nil
	}
}

// Fail returns a method failing with msg, like a native exception.
func Fail(msg string) Method {
	return func(context.Context, *Fake, *Instance, []any) (any, error) {
		return nil, errors.New(msg)
	}
}

// Return returns a method with a constant result.
func Return(v any) Method {
	return func(context.Context, *Fake, *Instance, []any) (any, error) {
		return Clone(v), nil
	}
}
