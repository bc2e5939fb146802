package gen

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"bindgen/internal/common"
	"bindgen/internal/match"
	"bindgen/internal/plan"
)

// importSpec represents an import statement.
type importSpec struct {
	Alias string
	Path  string
}

// fileScope collects the imports of one generated file and qualifies
// references to other packages.
type fileScope struct {
	pkgPath string
	runtime string
	names   map[string]string
	imports map[string]importSpec
	aliases map[string]string
}

func newFileScope(pkgPath, runtime string, names map[string]string) *fileScope {
	return &fileScope{
		pkgPath: pkgPath,
		runtime: runtime,
		names:   names,
		imports: map[string]importSpec{},
		aliases: map[string]string{},
	}
}

// use imports pkgPath and returns the qualifier for its identifiers, or ""
// for the package being generated.
func (s *fileScope) use(pkgPath string) string {
	if pkgPath == "" || pkgPath == s.pkgPath {
		return ""
	}

	if imp, ok := s.imports[pkgPath]; ok {
		if imp.Alias != "" {
			return imp.Alias + "."
		}

		return s.pkgName(pkgPath) + "."
	}

	name := s.pkgName(pkgPath)
	alias := name

	for i := 2; s.aliases[alias] != ""; i++ {
		alias = fmt.Sprintf("%s%d", name, i)
	}

	s.aliases[alias] = pkgPath

	imp := importSpec{Path: pkgPath}
	if alias != path.Base(pkgPath) {
		imp.Alias = alias
	}

	s.imports[pkgPath] = imp

	return alias + "."
}

func (s *fileScope) pkgName(pkgPath string) string {
	if n, ok := s.names[pkgPath]; ok {
		return n
	}

	return common.PkgAlias(pkgPath)
}

// rt qualifies an identifier of the runtime package.
func (s *fileScope) rt(name string) string {
	return s.use(s.runtime) + name
}

// ctx imports context and returns the context type.
func (s *fileScope) ctx() string {
	return s.use("context") + "Context"
}

// Import groups, in the order goimports lays them out.
const (
	groupStd = iota
	groupThirdParty
	groupLocal
	groupCount
)

// importGroup classifies a path the way goimports does, except that the
// runtime package never counts as standard library.
func (s *fileScope) importGroup(pkgPath, localPrefix string) int {
	for _, prefix := range strings.Split(localPrefix, ",") {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && (pkgPath == prefix || strings.HasPrefix(pkgPath, strings.TrimSuffix(prefix, "/")+"/")) {
			return groupLocal
		}
	}

	first, _, _ := strings.Cut(pkgPath, "/")
	if pkgPath == s.runtime || strings.Contains(first, ".") {
		return groupThirdParty
	}

	return groupStd
}

// grouped returns the non-empty import groups, each ordered by path.
// goimports only sorts within blank-line separated runs, so groups are
// split here.
func (s *fileScope) grouped(localPrefix string) [][]importSpec {
	groups := make([][]importSpec, groupCount)
	for _, imp := range s.imports {
		g := s.importGroup(imp.Path, localPrefix)
		groups[g] = append(groups[g], imp)
	}

	var out [][]importSpec

	for _, g := range groups {
		if len(g) == 0 {
			continue
		}

		sort.Slice(g, func(i, j int) bool {
			return g[i].Path < g[j].Path
		})

		out = append(out, g)
	}

	return out
}

// goType returns the managed Go type of a plan, matching the Managed type
// of the converter convExpr builds for it. It is "" for void.
func (s *fileScope) goType(p *plan.ConversionPlan) string {
	if p.IsVoid() {
		return ""
	}

	switch {
	case p.Buffer == plan.BufferOwning:
		return "*" + s.rt("Buffer")
	case p.Buffer == plan.BufferView:
		return "*" + s.rt("NumericView")
	case p.Strategy.IsView() && p.Category != plan.CategoryClass:
		return "*" + s.rt("View")
	case p.Strategy == plan.StrategyShared:
		return "*" + s.rt("Shared")
	}

	switch p.Category {
	case plan.CategoryPrimitive:
		return p.Primitive.Managed()
	case plan.CategoryEnum:
		return s.use(p.Enum.Package) + p.Enum.Symbol
	case plan.CategoryClass:
		return "*" + s.use(p.Class.Package) + p.Class.Symbol
	}

	switch p.Container {
	case plan.ContainerSequence:
		return "[]" + s.goType(p.Elems[0])
	case plan.ContainerOrderedSet:
		return "*" + s.rt("OrderedSet")
	case plan.ContainerHashSet:
		return "*" + s.rt("HashSet")
	case plan.ContainerOrderedMap:
		return "*" + s.rt("OrderedMap")
	case plan.ContainerHashMap:
		return "*" + s.rt("HashMap")
	case plan.ContainerPair:
		return s.rt("Pair")
	case plan.ContainerOwnedHandle:
		return s.goType(p.Elems[0])
	default:
		return "any"
	}
}

// containerVar is a package-level converter of one container shape,
// shared by every overload using it.
type containerVar struct {
	Name string
	Expr string
}

// converters builds bindrt converter expressions. Container converters are
// deduplicated into package variables built by the bindings file, after the
// key capabilities of local classes are in place.
type converters struct {
	scope  *fileScope
	vars   []containerVar
	byExpr map[string]string
	taken  map[string]bool
}

func newConverters(scope *fileScope) *converters {
	return &converters{scope: scope, byExpr: map[string]string{}, taken: map[string]bool{}}
}

// expr returns the converter expression of p, qualified for file s.
func (c *converters) expr(s *fileScope, p *plan.ConversionPlan) string {
	if p.IsVoid() {
		return s.rt("Void")
	}

	switch p.Buffer {
	case plan.BufferOwning:
		return fmt.Sprintf("%s(%s)", s.rt("BufferOf"), c.expr(s, p.Elems[0]))
	case plan.BufferView:
		return fmt.Sprintf("%s(%s, %t)", s.rt("NumericViewOf"), c.expr(s, p.Elems[0]), p.ReadOnly)
	}

	switch p.Category {
	case plan.CategoryPrimitive:
		return c.view(s, p, s.rt(p.Primitive.Converter()))

	case plan.CategoryEnum:
		return c.view(s, p, s.use(p.Enum.Package)+p.Enum.Symbol+"Converter")

	case plan.CategoryClass:
		cls := s.use(p.Class.Package) + p.Class.Symbol + "Converter"

		switch p.Strategy {
		case plan.StrategyMutableView, plan.StrategyReadOnlyView:
			return fmt.Sprintf("%s(%s, %t)", s.rt("Borrow"), cls, p.ReadOnly)
		case plan.StrategyPointerOwned:
			return fmt.Sprintf("%s(%s, true)", s.rt("PointerOf"), cls)
		case plan.StrategyPointerBorrowed:
			return fmt.Sprintf("%s(%s, false)", s.rt("PointerOf"), cls)
		}

		return cls
	}

	switch p.Container {
	case plan.ContainerOwnedHandle:
		return fmt.Sprintf("%s(%s)", s.rt("OwnedOf"), c.expr(s, p.Elems[0]))
	case plan.ContainerSharedHandle:
		return fmt.Sprintf("%s(%s, %t)", s.rt("SharedOf"), c.expr(s, p.Elems[0]), p.ReadOnly)
	}

	return c.view(s, p, c.container(p))
}

func (c *converters) view(s *fileScope, p *plan.ConversionPlan, conv string) string {
	if !p.Strategy.IsView() {
		return conv
	}

	return fmt.Sprintf("%s(%s, %t)", s.rt("ViewOf"), conv, p.ReadOnly)
}

var containerCtors = map[plan.ContainerKind]string{
	plan.ContainerSequence:   "SeqOf",
	plan.ContainerOrderedSet: "OrderedSetOf",
	plan.ContainerHashSet:    "HashSetOf",
	plan.ContainerOrderedMap: "OrderedMapOf",
	plan.ContainerHashMap:    "HashMapOf",
	plan.ContainerPair:       "PairOf",
	plan.ContainerOptional:   "OptionalOf",
}

// container returns the package variable holding the value converter of a
// container plan, registering it on first use.
func (c *converters) container(p *plan.ConversionPlan) string {
	args := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		args[i] = c.expr(c.scope, e)
	}

	expr := fmt.Sprintf("%s(%s)", c.scope.rt(containerCtors[p.Container]), strings.Join(args, ", "))
	if name, ok := c.byExpr[expr]; ok {
		return name
	}

	base := match.Unexported(shapeName(p))
	name := base

	for i := 2; c.taken[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}

	c.taken[name] = true
	c.byExpr[expr] = name
	c.vars = append(c.vars, containerVar{Name: name, Expr: expr})

	return name
}

// shapeName spells a plan as part of an identifier: "SeqOfInt64",
// "MapOfStringSeqOfTask".
func shapeName(p *plan.ConversionPlan) string {
	switch p.Category {
	case plan.CategoryPrimitive:
		return p.Primitive.Converter()
	case plan.CategoryEnum:
		return p.Enum.Symbol
	case plan.CategoryClass:
		switch p.Strategy {
		case plan.StrategyPointerOwned:
			return p.Class.Symbol + "OwnedPtr"
		case plan.StrategyPointerBorrowed:
			return p.Class.Symbol + "Ptr"
		}

		return p.Class.Symbol
	}

	names := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		names[i] = shapeName(e)
	}

	switch p.Container {
	case plan.ContainerSequence:
		return "SeqOf" + names[0]
	case plan.ContainerOrderedSet:
		return "SetOf" + names[0]
	case plan.ContainerHashSet:
		return "HashSetOf" + names[0]
	case plan.ContainerOrderedMap:
		return "MapOf" + names[0] + names[1]
	case plan.ContainerHashMap:
		return "HashMapOf" + names[0] + names[1]
	case plan.ContainerPair:
		return "PairOf" + names[0] + names[1]
	case plan.ContainerOptional:
		return "OptionalOf" + names[0]
	case plan.ContainerOwnedHandle:
		return "Owned" + names[0]
	case plan.ContainerSharedHandle:
		return "Shared" + names[0]
	default:
		return "Value"
	}
}
