package analyze

import (
	"go/types"

	"bindgen/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "example.com/bindings/tasks"
	Name    string // e.g., "Task"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeKind is the role of a type in a generated package.
type TypeKind int

const (
	TypeKindUnknown TypeKind = iota
	TypeKindWrapper          // struct embedding *bindrt.Object
	TypeKindEnum             // int64 type with a <Name>Enum descriptor
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindWrapper:
		return "wrapper"
	case TypeKindEnum:
		return "enum"
	default:
		return common.UnknownStr
	}
}

// FuncInfo describes a function or method.
type FuncInfo struct {
	Name string
	// Signature is the parameter and result list, qualified relative to
	// the declaring package.
	Signature string
	// Context reports whether the first parameter is a context.Context.
	Context bool
	GoType  *types.Signature
}

// TypeInfo describes a wrapper or enum type.
type TypeInfo struct {
	ID      TypeID
	Kind    TypeKind
	Methods []*FuncInfo // Declared methods, sorted by name
	GoType  types.Type
}

// Method returns the method with the given name, or nil.
func (t *TypeInfo) Method(name string) *FuncInfo {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}

	return nil
}

// PackageInfo holds the surface of one loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Types []TypeID // Wrapper and enum types, sorted by name
	Funcs []*FuncInfo
}

// Surface holds every analyzed package.
type Surface struct {
	// Types maps TypeID to TypeInfo for all wrapper and enum types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewSurface creates a new empty Surface.
func NewSurface() *Surface {
	return &Surface{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (s *Surface) GetType(id TypeID) *TypeInfo {
	return s.Types[id]
}

// Count returns the number of wrapper and enum types.
func (s *Surface) Count(kind TypeKind) int {
	n := 0

	for _, t := range s.Types {
		if t.Kind == kind {
			n++
		}
	}

	return n
}
