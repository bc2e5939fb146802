package analyze

import (
	"errors"
	"fmt"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Analyzer loads generated packages and builds their surface.
type Analyzer struct {
	runtime string
	surface *Surface
}

// NewAnalyzer creates an Analyzer recognising wrappers by the Object type
// of the runtime package at import path runtime.
func NewAnalyzer(runtime string) *Analyzer {
	return &Analyzer{
		runtime: runtime,
		surface: NewSurface(),
	}
}

// Load loads the packages matching patterns, resolved from dir, and adds
// them to the surface. Any type error in a loaded package fails the load.
func (a *Analyzer) Load(dir string, patterns ...string) (*Surface, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error

	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	})

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	for _, pkg := range pkgs {
		a.processPackage(pkg)
	}

	return a.surface, nil
}

// Surface returns the current surface.
func (a *Analyzer) Surface() *Surface {
	return a.surface
}

// processPackage extracts the exported wrappers, enums and functions of a
// loaded package.
func (a *Analyzer) processPackage(pkg *packages.Package) {
	info := &PackageInfo{
		Path: pkg.PkgPath,
		Name: pkg.Name,
	}

	scope := pkg.Types.Scope()
	qual := qualifier(pkg.Types)

	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}

		switch obj := obj.(type) {
		case *types.Func:
			info.Funcs = append(info.Funcs, funcInfo(obj, qual))

		case *types.TypeName:
			kind := a.kindOf(obj, scope)
			if kind == TypeKindUnknown {
				continue
			}

			id := TypeID{PkgPath: pkg.PkgPath, Name: name}
			a.surface.Types[id] = &TypeInfo{
				ID:      id,
				Kind:    kind,
				Methods: methods(obj.Type(), qual),
				GoType:  obj.Type(),
			}

			info.Types = append(info.Types, id)
		}
	}

	a.surface.Packages[pkg.PkgPath] = info
}

// kindOf classifies a named type: a struct embedding *Object of the runtime
// is a wrapper; an int64 type with a <Name>Enum variable is an enum.
func (a *Analyzer) kindOf(obj *types.TypeName, scope *types.Scope) TypeKind {
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return TypeKindUnknown
	}

	switch u := named.Underlying().(type) {
	case *types.Struct:
		for f := range u.Fields() {
			if f.Embedded() && a.isObject(f.Type()) {
				return TypeKindWrapper
			}
		}

	case *types.Basic:
		if u.Kind() != types.Int64 {
			break
		}

		if _, ok := scope.Lookup(obj.Name() + "Enum").(*types.Var); ok {
			return TypeKindEnum
		}
	}

	return TypeKindUnknown
}

func (a *Analyzer) isObject(t types.Type) bool {
	ptr, ok := t.(*types.Pointer)
	if !ok {
		return false
	}

	named, ok := ptr.Elem().(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}

	return named.Obj().Pkg().Path() == a.runtime && named.Obj().Name() == "Object"
}

// methods returns the exported methods declared on t or *t, sorted by name.
// Promoted methods of the embedded Object are left out.
func methods(t types.Type, qual types.Qualifier) []*FuncInfo {
	named, ok := t.(*types.Named)
	if !ok {
		return nil
	}

	var out []*FuncInfo

	for m := range named.Methods() {
		if m.Exported() {
			out = append(out, funcInfo(m, qual))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}

func funcInfo(fn *types.Func, qual types.Qualifier) *FuncInfo {
	sig := fn.Type().(*types.Signature)

	info := &FuncInfo{
		Name:      fn.Name(),
		Signature: types.TypeString(sig, qual)[len("func"):],
		GoType:    sig,
	}

	if sig.Params().Len() > 0 {
		if n, ok := sig.Params().At(0).Type().(*types.Named); ok {
			obj := n.Obj()
			info.Context = obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
		}
	}

	return info
}

// qualifier names other packages by their package name, as source does.
func qualifier(pkg *types.Package) types.Qualifier {
	return func(other *types.Package) string {
		if other == pkg {
			return ""
		}

		return other.Name()
	}
}
