package bindrt

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Handle identifies a native object on the bridge. Zero is never a valid
// handle.
type Handle uint64

// StepKind selects how a Step descends into native storage.
type StepKind int

const (
	StepField StepKind = iota
	StepIndex
	StepKey
)

// Step is one hop of a reference path.
type Step struct {
	Kind  StepKind
	Field string
	Index int
	// Key is the wire form of a map key.
	Key any
}

func (s Step) String() string {
	switch s.Kind {
	case StepField:
		return "." + s.Field
	case StepIndex:
		return fmt.Sprintf("[%d]", s.Index)
	default:
		return fmt.Sprintf("[%v]", s.Key)
	}
}

// Ref addresses storage owned by a native object: a field, an element of a
// field, and so on. An empty path addresses the object itself.
type Ref struct {
	Owner Handle
	Path  []Step
}

// Child returns a new reference one step deeper.
func (r Ref) Child(s Step) Ref {
	path := make([]Step, 0, len(r.Path)+1)
	path = append(path, r.Path...)

	return Ref{Owner: r.Owner, Path: append(path, s)}
}

func (r Ref) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "#%d", r.Owner)

	for _, s := range r.Path {
		b.WriteString(s.String())
	}

	return b.String()
}

// Equal reports whether two references address the same storage.
func (r Ref) Equal(o Ref) bool {
	return r.Owner == o.Owner && slices.EqualFunc(r.Path, o.Path, func(a, b Step) bool {
		return a.Kind == b.Kind && a.Field == b.Field && a.Index == b.Index && reflect.DeepEqual(a.Key, b.Key)
	})
}

// WireEntry is one map entry in wire form.
type WireEntry struct {
	Key   any
	Value any
}

// WirePair is a pair in wire form.
type WirePair struct {
	First  any
	Second any
}

// CopyConstructor is the overload index bridges receive for copy
// construction.
const CopyConstructor = -1

// Bridge is the native side of the runtime.
type Bridge interface {
	// New constructs an instance of class with the given constructor overload.
	New(ctx context.Context, class string, overload int, args []any) (Handle, error)
	// Call invokes a method on target, or a free function when target is zero.
	Call(ctx context.Context, target Handle, symbol string, overload int, args []any) (any, error)
	// Load reads the storage ref points at.
	Load(ctx context.Context, ref Ref) (any, error)
	// Store overwrites the storage ref points at.
	Store(ctx context.Context, ref Ref, value any) error
	// Len returns the element count of the container ref points at.
	Len(ctx context.Context, ref Ref) (int, error)
	// Retain adds a reference to a shared native object.
	Retain(h Handle) error
	// Release drops an owned or shared native object.
	Release(h Handle) error
}
