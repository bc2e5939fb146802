package plan

import (
	"fmt"

	"bindgen/internal/decl"
)

// Shape is a type in a callable or field position together with the
// directives of its declaration.
type Shape struct {
	Type       decl.TypeRef
	Directives decl.Directives
	Direction  Direction
}

// Classify picks the ownership strategy of a shape. Rules apply in order:
//  1. values copy; unique_ptr<T> by value moves ownership
//  2. const T& copies, or is a read-only view with the view directive
//  3. T& is a mutable view
//  4. T* is borrowed, or owned with transfer-ownership
//  5. shared_ptr<T> is a shared handle, read-only for shared_ptr<const T>
//
// Parameters (ToNative) never become read-only views: a const reference
// argument is satisfied by a copy.
func Classify(s Shape) (Strategy, error) {
	t := s.Type
	kind, _, isContainer := LookupContainer(t.Name)

	if s.Directives.TransferOwnership && t.Ref != decl.RefPointer {
		return 0, fmt.Errorf("transfer-ownership applies to pointer results, not %s", t)
	}

	if isContainer && kind == ContainerSharedHandle && t.Ref != decl.RefPointer {
		return StrategyShared, nil
	}

	switch t.Ref {
	case decl.RefNone:
		if isContainer && kind == ContainerOwnedHandle {
			return StrategyMovedOwnership, nil
		}

		return StrategyValueCopy, nil

	case decl.RefLValue:
		if isContainer && kind == ContainerOwnedHandle {
			return 0, fmt.Errorf("unique_ptr must be passed by value, not %s", t)
		}

		if !t.Const {
			return StrategyMutableView, nil
		}

		if s.Directives.View && s.Direction == FromNative {
			return StrategyReadOnlyView, nil
		}

		return StrategyValueCopy, nil

	case decl.RefPointer:
		if isContainer {
			return 0, fmt.Errorf("pointers to %s are not bindable", t.Bare())
		}

		if s.Directives.TransferOwnership && s.Direction == FromNative {
			return StrategyPointerOwned, nil
		}

		return StrategyPointerBorrowed, nil
	}

	return 0, fmt.Errorf("unknown reference kind in %s", t)
}
