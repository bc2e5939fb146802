package bindrt

import (
	"context"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("bindgen.bindrt")

// Runtime binds generated wrappers to a bridge.
type Runtime struct {
	Bridge Bridge
	Lock   *Lock
}

// New returns a runtime calling into b.
func New(b Bridge) *Runtime {
	return &Runtime{Bridge: b, Lock: &Lock{}}
}

// Own wraps a handle the managed side is responsible for releasing.
func (rt *Runtime) Own(class string, h Handle) *Object {
	return &Object{rt: rt, class: class, handle: h, owned: true}
}

// Borrow wraps a handle owned by native code.
func (rt *Runtime) Borrow(class string, h Handle, readOnly bool) *Object {
	return &Object{rt: rt, class: class, handle: h, readOnly: readOnly}
}

// Overload describes one native callable.
type Overload struct {
	// Symbol is the qualified native name ("Task::setStatus"). For
	// constructors it is the class name.
	Symbol string
	// Index is the position within the overload group.
	Index  int
	Params []Converter
	// Result is nil for void callables.
	Result Converter
	// Const methods may be called on read-only objects.
	Const bool
	// ReleaseLock runs the native call without the exclusivity lock.
	ReleaseLock bool
}

// Signature returns the managed parameter list, for messages.
func (ov *Overload) Signature() string {
	names := make([]string, len(ov.Params))
	for i, p := range ov.Params {
		names[i] = p.Name()
	}

	return ov.Symbol + "(" + strings.Join(names, ", ") + ")"
}

// Accepts reports whether args fit the parameter list.
func (ov *Overload) Accepts(args []any) bool {
	if len(args) != len(ov.Params) {
		return false
	}

	for i, p := range ov.Params {
		if !p.Accepts(args[i]) {
			return false
		}
	}

	return true
}

func (ov *Overload) marshal(args []any) ([]any, error) {
	if len(args) != len(ov.Params) {
		return nil, fmt.Errorf("%s: want %d arguments, got %d", ov.Symbol, len(ov.Params), len(args))
	}

	wire := make([]any, len(args))

	for i, p := range ov.Params {
		if !p.Accepts(args[i]) {
			return nil, &TypeError{Symbol: ov.Symbol, Arg: i, Want: p.Name(), Got: args[i]}
		}

		w, err := p.ToNative(args[i])
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", ov.Symbol, i, err)
		}

		wire[i] = w
	}

	return wire, nil
}

// Select picks the overload accepting args. Overload sets are checked for
// ambiguity at generation time, so the first match is the only one.
func Select(set []*Overload, args []any) (*Overload, error) {
	for _, ov := range set {
		if ov.Accepts(args) {
			return ov, nil
		}
	}

	symbol := ""
	if len(set) > 0 {
		symbol = set[0].Symbol
	}

	return nil, &TypeError{Symbol: symbol, Arg: -1, Want: "one of its overloads", Got: args}
}

// Invoke calls a method on self, or a free function when self is nil, and
// converts the result.
func (rt *Runtime) Invoke(ctx context.Context, self *Object, ov *Overload, args ...any) (any, error) {
	var target Handle

	if self != nil {
		h, err := self.Handle()
		if err != nil {
			return nil, err
		}

		if self.readOnly && !ov.Const {
			return nil, fmt.Errorf("%s: %w", ov.Symbol, ErrReadOnly)
		}

		target = h
	}

	wire, err := ov.marshal(args)
	if err != nil {
		return nil, err
	}

	var out any

	call := func(ctx context.Context) error {
		var err error

		out, err = rt.Bridge.Call(ctx, target, ov.Symbol, ov.Index, wire)

		return err
	}

	if ov.ReleaseLock {
		err = rt.Lock.WithoutLock(ctx, call)
	} else {
		err = call(ctx)
	}

	if err != nil {
		log.Debugf("%s failed: %s", ov.Signature(), err)
		return nil, NewNativeError(ov.Symbol, err)
	}

	if ov.Result == nil {
		return nil, nil
	}

	res, err := ov.Result.FromNative(rt, out)
	if err != nil {
		return nil, fmt.Errorf("%s: result: %w", ov.Symbol, err)
	}

	if self != nil {
		if k, ok := res.(interface{ keepAlive(*Object) }); ok {
			k.keepAlive(self)
		} else if w, ok := res.(Wrapper); ok {
			w.NativeObject().keepAlive(self)
		}
	}

	return res, nil
}

// Dispatch selects the overload accepting args and invokes it.
func (rt *Runtime) Dispatch(ctx context.Context, self *Object, set []*Overload, args ...any) (any, error) {
	ov, err := Select(set, args)
	if err != nil {
		return nil, err
	}

	return rt.Invoke(ctx, self, ov, args...)
}

// Construct builds a native object with a constructor overload and returns
// the owning Object.
func (rt *Runtime) Construct(ctx context.Context, ov *Overload, args ...any) (*Object, error) {
	wire, err := ov.marshal(args)
	if err != nil {
		return nil, err
	}

	h, err := rt.Bridge.New(ctx, ov.Symbol, ov.Index, wire)
	if err != nil {
		return nil, NewNativeError(ov.Symbol, err)
	}

	return rt.Own(ov.Symbol, h), nil
}

// ConstructAny selects the constructor overload accepting args.
func (rt *Runtime) ConstructAny(ctx context.Context, set []*Overload, args ...any) (*Object, error) {
	ov, err := Select(set, args)
	if err != nil {
		return nil, err
	}

	return rt.Construct(ctx, ov, args...)
}

// Clone copy-constructs a new owned object from o.
func (rt *Runtime) Clone(ctx context.Context, o *Object) (*Object, error) {
	h, err := o.Handle()
	if err != nil {
		return nil, err
	}

	copied, err := rt.Bridge.New(ctx, o.class, CopyConstructor, []any{h})
	if err != nil {
		return nil, NewNativeError(o.class, err)
	}

	return rt.Own(o.class, copied), nil
}
