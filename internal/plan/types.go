package plan

import (
	"strings"

	"bindgen/internal/common"
	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/enums"
	"bindgen/internal/operators"
	"bindgen/primitive"
)

// Direction is the way a value crosses the bridge.
type Direction int

const (
	// FromNative converts results and field reads.
	FromNative Direction = iota
	// ToNative converts arguments and field writes.
	ToNative
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case FromNative:
		return "from_native"
	case ToNative:
		return "to_native"
	default:
		return common.UnknownStr
	}
}

// Category is the broad kind of a resolved type.
type Category int

const (
	CategoryVoid Category = iota
	CategoryPrimitive
	CategoryEnum
	CategoryClass
	CategoryContainer
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategoryVoid:
		return "void"
	case CategoryPrimitive:
		return "primitive"
	case CategoryEnum:
		return "enum"
	case CategoryClass:
		return "class"
	case CategoryContainer:
		return "container"
	default:
		return common.UnknownStr
	}
}

// Strategy is the ownership strategy of one conversion.
type Strategy int

const (
	// StrategyValueCopy converts into an independent managed value.
	StrategyValueCopy Strategy = iota
	// StrategyMovedOwnership moves a uniquely owned object across.
	StrategyMovedOwnership
	// StrategyMutableView aliases native storage, writes visible natively.
	StrategyMutableView
	// StrategyReadOnlyView aliases native storage without write access.
	StrategyReadOnlyView
	// StrategyPointerOwned wraps a raw pointer the wrapper disposes once.
	StrategyPointerOwned
	// StrategyPointerBorrowed wraps a raw pointer owned by native code.
	StrategyPointerBorrowed
	// StrategyShared holds one reference of a shared native object.
	StrategyShared
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyValueCopy:
		return "value_copy"
	case StrategyMovedOwnership:
		return "moved_ownership"
	case StrategyMutableView:
		return "borrowed_mutable_view"
	case StrategyReadOnlyView:
		return "borrowed_readonly_view"
	case StrategyPointerOwned:
		return "raw_pointer_owned"
	case StrategyPointerBorrowed:
		return "raw_pointer_borrowed"
	case StrategyShared:
		return "shared_handle"
	default:
		return common.UnknownStr
	}
}

// IsView reports whether the strategy aliases native storage.
func (s Strategy) IsView() bool {
	return s == StrategyMutableView || s == StrategyReadOnlyView
}

// ContainerKind is the managed container family of a template.
type ContainerKind int

const (
	ContainerNone ContainerKind = iota
	ContainerSequence
	ContainerOrderedSet
	ContainerHashSet
	ContainerOrderedMap
	ContainerHashMap
	ContainerPair
	ContainerOptional
	ContainerOwnedHandle
	ContainerSharedHandle
)

// String returns a human-readable container kind name.
func (k ContainerKind) String() string {
	switch k {
	case ContainerNone:
		return "none"
	case ContainerSequence:
		return "sequence"
	case ContainerOrderedSet:
		return "ordered_set"
	case ContainerHashSet:
		return "hash_set"
	case ContainerOrderedMap:
		return "ordered_map"
	case ContainerHashMap:
		return "hash_map"
	case ContainerPair:
		return "pair"
	case ContainerOptional:
		return "optional"
	case ContainerOwnedHandle:
		return "owned_handle"
	case ContainerSharedHandle:
		return "shared_handle"
	default:
		return common.UnknownStr
	}
}

// BufferKind selects numeric buffer exposure.
type BufferKind int

const (
	BufferNone BufferKind = iota
	// BufferOwning copies the sequence into a bindrt.Buffer.
	BufferOwning
	// BufferView exposes the native storage as a bindrt.NumericView.
	BufferView
)

// ClassInfo is a wrapped class: a plain class, an explicit template
// instance, or a class imported from an identity table.
type ClassInfo struct {
	// Name is the qualified native name; for instances, the instance
	// name.
	Name string
	// Native is the class name the bridge knows ("Holder<int>" for
	// instances).
	Native string
	Unit   string
	// Package is the Go import path of the wrapper.
	Package string
	// Symbol is the Go wrapper type name; the converter variable is
	// Symbol+"Converter".
	Symbol string
	// Decl is the declaration, with template parameters substituted for
	// instances. It is nil for imported classes.
	Decl     *decl.ClassDecl
	Instance *decl.Instantiation
	Ops      operators.Bindings
	Ordered  bool
	Hashed   bool
	Imported bool
}

// Scope returns the scope member types are looked up from.
func (c *ClassInfo) Scope() []string {
	if c.Decl == nil {
		scope, name := decl.SplitQualified(c.Name)
		return append(scope, name)
	}

	return c.Decl.InnerScope()
}

// ConversionPlan is the resolved conversion of one type in one position.
type ConversionPlan struct {
	// Type is the type as written.
	Type      decl.TypeRef
	Direction Direction
	Category  Category
	Strategy  Strategy
	Primitive primitive.KindEnum
	Enum      *enums.Identity
	Class     *ClassInfo
	Container ContainerKind
	// Elems holds one plan per template argument of a container.
	Elems []*ConversionPlan
	// ReadOnly marks const views and shared handles to const payloads.
	ReadOnly bool
	Buffer   BufferKind
}

// IsVoid reports whether the plan converts nothing.
func (p *ConversionPlan) IsVoid() bool {
	return p == nil || p.Category == CategoryVoid
}

// Payload returns the class plan behind a smart pointer, or p itself.
func (p *ConversionPlan) Payload() *ConversionPlan {
	if p.Container == ContainerOwnedHandle || p.Container == ContainerSharedHandle {
		return p.Elems[0]
	}

	return p
}

// Ordered reports whether values of the plan can key ordered containers.
// It mirrors the key capabilities of the bindrt converters.
func (p *ConversionPlan) Ordered() bool {
	if p.Strategy != StrategyValueCopy && p.Strategy != StrategyShared {
		return false
	}

	switch p.Category {
	case CategoryPrimitive:
		return p.Primitive != primitive.KindVoid
	case CategoryEnum:
		return true
	case CategoryClass:
		return p.Class.Ordered
	case CategoryContainer:
		switch p.Container {
		case ContainerSequence:
			return p.Buffer == BufferNone && p.Elems[0].Ordered()
		case ContainerPair:
			return p.Elems[0].Ordered() && p.Elems[1].Ordered()
		case ContainerOptional:
			return p.Elems[0].Ordered()
		case ContainerSharedHandle:
			return true
		}
	}

	return false
}

// Hashed reports whether values of the plan can key hash containers.
func (p *ConversionPlan) Hashed() bool {
	if p.Strategy != StrategyValueCopy && p.Strategy != StrategyShared {
		return false
	}

	switch p.Category {
	case CategoryPrimitive:
		return p.Primitive != primitive.KindVoid
	case CategoryEnum:
		return true
	case CategoryClass:
		return p.Class.Hashed
	case CategoryContainer:
		switch p.Container {
		case ContainerPair:
			return p.Elems[0].Hashed() && p.Elems[1].Hashed()
		case ContainerOptional:
			return p.Elems[0].Hashed()
		case ContainerSharedHandle:
			return true
		}
	}

	return false
}

// NativeKey identifies the native type of the plan: int and long differ.
// Instance registry keys and container registry keys are built from it.
func (p *ConversionPlan) NativeKey() string {
	switch p.Category {
	case CategoryVoid:
		return "void"
	case CategoryPrimitive:
		return strings.ToLower(strings.TrimPrefix(p.Primitive.String(), "Kind"))
	case CategoryEnum:
		return p.Enum.Key()
	case CategoryClass:
		return "class:" + p.Class.Native
	}

	keys := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		keys[i] = e.NativeKey()
	}

	return p.Container.String() + "<" + strings.Join(keys, ",") + ">"
}

// SignatureKey identifies the managed shape of the plan as overload
// dispatch sees it: int and long collide, two enums with equal values
// never do.
func (p *ConversionPlan) SignatureKey() string {
	switch p.Category {
	case CategoryVoid:
		return "void"
	case CategoryPrimitive:
		return p.Primitive.Managed()
	case CategoryEnum:
		return p.Enum.Key()
	case CategoryClass:
		return "class:" + p.Class.Native
	}

	switch p.Container {
	case ContainerOwnedHandle:
		return p.Elems[0].SignatureKey()
	case ContainerSharedHandle:
		return "shared<" + p.Elems[0].SignatureKey() + ">"
	}

	if p.Buffer != BufferNone {
		return "buffer<" + p.Elems[0].SignatureKey() + ">"
	}

	keys := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		keys[i] = e.SignatureKey()
	}

	return p.Container.String() + "<" + strings.Join(keys, ",") + ">"
}

// ParamPlan is one resolved parameter.
type ParamPlan struct {
	Name string
	Plan *ConversionPlan
}

// CallablePlan is one resolved constructor, method or free function.
type CallablePlan struct {
	Decl *decl.MethodDecl
	// Owner is the class declaring the callable; nil for free functions.
	Owner *ClassInfo
	// Symbol is the qualified native name the bridge dispatches on.
	Symbol string
	// Index is the position of the declaration in its native overload
	// group.
	Index  int
	Params []ParamPlan
	// Result is nil for void callables.
	Result      *ConversionPlan
	Const       bool
	Static      bool
	ReleaseLock bool
}

// Signature is the post-conversion signature key of the parameters.
func (c *CallablePlan) Signature() string {
	keys := make([]string, len(c.Params))
	for i, p := range c.Params {
		keys[i] = p.Plan.SignatureKey()
	}

	return strings.Join(keys, ", ")
}

// Group is a set of overloads bound under one Go name.
type Group struct {
	// Name is the native name.
	Name   string
	GoName string
	// From is the class declaring the group, differing from the bound
	// class for inherited groups.
	From      *ClassInfo
	Overloads []*CallablePlan
}

// FieldPlan is one resolved data member.
type FieldPlan struct {
	Decl   *decl.FieldDecl
	GoName string
	// Plan converts reads (value copy).
	Plan *ConversionPlan
	// Write converts writes; nil for const fields.
	Write *ConversionPlan
	// From is the class declaring the field.
	From *ClassInfo
}

// OperatorPlan is a bound operator with its resolved callable.
type OperatorPlan struct {
	Binding operators.Binding
	Call    *CallablePlan
}

// IteratePlan is index-handle iteration over a class.
type IteratePlan struct {
	Size *CallablePlan
	At   *CallablePlan
}

// ClassPlan is everything generated for one wrapped class.
type ClassPlan struct {
	Info  *ClassInfo
	Bases []*ClassInfo
	// Constructors is nil when the class declares none.
	Constructors *Group
	// Methods holds own and inherited groups, own first.
	Methods   []*Group
	Static    []*Group
	Fields    []*FieldPlan
	Operators []*OperatorPlan
	Enums     []*enums.Identity
	// Length backs Len; nil unless a method is designated.
	Length  *CallablePlan
	Hash    *CallablePlan
	Iterate *IteratePlan
}

// UnitPlan is everything generated for one unit.
type UnitPlan struct {
	Unit      *decl.Unit
	Enums     []*enums.Identity
	Classes   []*ClassPlan
	Functions []*Group
}

// ResolvedModel is the output of resolution.
type ResolvedModel struct {
	Units       []*UnitPlan
	Enums       *enums.Registry
	Classes     []*ClassInfo
	Containers  *Containers
	Diagnostics diagnostic.Diagnostics
}

// Failed reports whether a unit has error diagnostics.
func (m *ResolvedModel) Failed(unit string) bool {
	return len(m.Diagnostics.ErrorsFor(unit)) > 0
}

// Unit returns the plan of a unit, or nil.
func (m *ResolvedModel) Unit(name string) *UnitPlan {
	for _, u := range m.Units {
		if u.Unit.Name == name {
			return u
		}
	}

	return nil
}
