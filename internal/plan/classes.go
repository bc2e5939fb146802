package plan

import (
	"fmt"
	"slices"
	"strings"

	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/match"
	"bindgen/internal/operators"
)

// reserved are the method names every wrapper gets from bindrt.Object or
// the generator. Members binding to one of them take a Native suffix.
var reserved = map[string]bool{
	"NativeObject": true,
	"Runtime":      true,
	"Class":        true,
	"Owned":        true,
	"ReadOnly":     true,
	"Handle":       true,
	"Close":        true,
	"Field":        true,
	"Clone":        true,
	"Len":          true,
	"Hash":         true,
	"Iter":         true,
}

// memberName is the Go method name of a class member.
func memberName(name string) string {
	n := match.Exported(name)
	if reserved[n] {
		return n + "Native"
	}

	return n
}

func exposedName(name string, d decl.Directives) string {
	if d.Rename != "" {
		return d.Rename
	}

	return name
}

// resolveClasses is pass 2 for classes: bases, then every class after all
// of its bases.
func (r *Resolver) resolveClasses() {
	var locals []*ClassInfo

	index := map[*ClassInfo]int{}

	for _, c := range r.order {
		if !c.Imported {
			index[c] = len(locals)
			locals = append(locals, c)
		}
	}

	bases := make([][]*ClassInfo, len(locals))

	for i, c := range locals {
		r.unit = c.Unit
		bases[i] = r.resolveBases(c)
	}

	order, cyclic := topoSortClasses(len(locals), func(i int) []int {
		var out []int

		for _, b := range bases[i] {
			if j, ok := index[b]; ok {
				out = append(out, j)
			}
		}

		return out
	})

	for _, i := range cyclic {
		c := locals[i]
		r.fail(c.Unit, &diagnostic.InvalidDeclError{
			Decl: c.Name, Message: "inheritance cycle through " + c.Name, Location: c.Decl.Pos,
		})
	}

	for _, i := range order {
		c := locals[i]
		r.unit = c.Unit
		r.plans[c] = r.resolveClass(c, bases[i])
	}

	r.unit = ""
}

func (r *Resolver) resolveBases(c *ClassInfo) []*ClassInfo {
	var out []*ClassInfo

	for _, b := range c.Decl.Bases {
		p, err := r.resolveValue(b.Bare(), FromNative, c.Decl.Scope, 0)
		if err == nil && p.Category != CategoryClass {
			err = &diagnostic.InvalidDeclError{Message: fmt.Sprintf("base %s is not a class", b)}
		}

		if err != nil {
			r.fail(c.Unit, locate(err, c.Name, c.Decl.Pos))
			continue
		}

		if p.Class.Imported {
			r.diags.AddWarning(diagnostic.CodeImportedBase,
				fmt.Sprintf("members of imported base %s are not inherited", p.Class.Name), c.Name, c.Decl.Pos)
		}

		out = append(out, p.Class)
	}

	return out
}

// resolveClass builds the plan of one class. Every failure is recorded;
// the returned plan may be partial.
func (r *Resolver) resolveClass(c *ClassInfo, bases []*ClassInfo) *ClassPlan {
	cd := c.Decl
	scope := c.Scope()
	p := &ClassPlan{Info: c, Bases: bases}

	fail := func(err error, name string, loc diagnostic.Location) {
		r.fail(c.Unit, locate(err, name, loc))
	}

	member := func(name string) string {
		return c.Name + "::" + name
	}

	for _, f := range cd.Fields {
		if f.Directives.Ignore {
			r.diags.AddInfo(diagnostic.CodeIgnoredDecl, "field ignored", member(f.Name), f.Pos)
			continue
		}

		fp, err := r.resolveField(c, f, scope)
		if err != nil {
			fail(err, member(f.Name), f.Pos)
			continue
		}

		p.Fields = append(p.Fields, fp)
	}

	if len(cd.Constructors) > 0 {
		g := &Group{Name: cd.Name, GoName: "New" + c.Symbol, From: c}

		for i, m := range cd.Constructors {
			if m.Directives.Ignore {
				r.diags.AddInfo(diagnostic.CodeIgnoredDecl, "constructor ignored", member(m.Signature()), m.Pos)
				continue
			}

			cp, err := r.resolveCallable(c, m, scope, c.Native, i)
			if err != nil {
				fail(err, member(m.Signature()), m.Pos)
				continue
			}

			g.Overloads = append(g.Overloads, cp)
		}

		if len(g.Overloads) > 0 {
			p.Constructors = g
			r.checkGroup(c, g)
		}
	}

	// Index is the position among every declaration of the native name,
	// ignored ones included, since the bridge numbers them that way.
	positions := map[*decl.MethodDecl]int{}
	counts := map[string]int{}

	for _, m := range cd.Methods {
		positions[m] = counts[m.Name]
		counts[m.Name]++
	}

	var (
		groups = map[string]*Group{}
		names  []string
	)

	for _, m := range cd.Methods {
		if operators.IsOperator(m.Name) {
			continue
		}

		if m.Directives.Ignore {
			r.diags.AddInfo(diagnostic.CodeIgnoredDecl, "method ignored", member(m.Signature()), m.Pos)
			continue
		}

		cp, err := r.resolveCallable(c, m, scope, c.Native+"::"+m.Name, positions[m])
		if err != nil {
			fail(err, member(m.Signature()), m.Pos)
			continue
		}

		r.hazards(member(m.Name), cp)

		exposed := exposedName(m.Name, m.Directives)

		key, goName := exposed, memberName(exposed)
		if m.Static {
			key, goName = "static "+exposed, c.Symbol+match.Exported(exposed)
		}

		g, ok := groups[key]
		if !ok {
			g = &Group{Name: m.Name, GoName: goName, From: c}
			groups[key] = g
			names = append(names, key)
		}

		g.Overloads = append(g.Overloads, cp)
	}

	for _, key := range names {
		g := groups[key]
		r.checkGroup(c, g)

		if strings.HasPrefix(key, "static ") {
			p.Static = append(p.Static, g)
		} else {
			p.Methods = append(p.Methods, g)
		}
	}

	for _, b := range c.Ops.Ops {
		cp, err := r.resolveOperator(c, b, scope, positions[b.Method])
		if err != nil {
			fail(err, member(b.Method.Signature()), b.Method.Pos)
			continue
		}

		p.Operators = append(p.Operators, &OperatorPlan{Binding: b, Call: cp})
	}

	r.checkOperators(c, p.Operators)
	r.inherit(c, p)

	p.Length = r.resolveLength(c, p, scope, positions)
	p.Hash = r.resolveHash(c, scope, positions)
	p.Iterate = r.resolveIterate(c, scope, positions)

	for _, id := range r.enums.ForUnit(c.Unit) {
		if id.Owner == c.Name {
			p.Enums = append(p.Enums, id)
		}
	}

	r.checkMemberNames(c, p)

	log.Debugf("class %s: %d methods, %d fields, %d operators", c.Name, len(p.Methods), len(p.Fields), len(p.Operators))

	return p
}

func (r *Resolver) resolveField(c *ClassInfo, f *decl.FieldDecl, scope []string) (*FieldPlan, error) {
	read, err := r.resolveShape(Shape{Type: f.Type, Directives: f.Directives, Direction: FromNative}, scope, 0)
	if err != nil {
		return nil, err
	}

	if read.Strategy != StrategyValueCopy {
		return nil, &diagnostic.InvalidDeclError{Message: fmt.Sprintf("field type %s is not a value", f.Type)}
	}

	fp := &FieldPlan{
		Decl:   f,
		GoName: memberName(exposedName(f.Name, f.Directives)),
		Plan:   read,
		From:   c,
	}

	if !f.Type.Const {
		if fp.Write, err = r.resolveShape(Shape{Type: f.Type, Direction: ToNative}, scope, 0); err != nil {
			return nil, err
		}
	}

	if f.Directives.BoundHint != nil && !isNumber(read) {
		r.diags.AddWarning(diagnostic.CodeUnusedHint, "bound-hint on non-numeric field", c.Name+"::"+f.Name, f.Pos)
	}

	return fp, nil
}

// resolveCallable resolves the parameters and result of a method,
// constructor or free function in scope.
func (r *Resolver) resolveCallable(owner *ClassInfo, m *decl.MethodDecl, scope []string, symbol string, index int) (*CallablePlan, error) {
	cp := &CallablePlan{
		Decl:        m,
		Owner:       owner,
		Symbol:      symbol,
		Index:       index,
		Const:       m.Const,
		Static:      m.Static,
		ReleaseLock: m.Directives.ReleaseLock,
	}

	for i, prm := range m.Params {
		pp, err := r.resolveShape(Shape{Type: prm.Type, Direction: ToNative}, scope, 0)
		if err != nil {
			return nil, err
		}

		if pp.IsVoid() {
			return nil, &diagnostic.InvalidDeclError{Message: fmt.Sprintf("parameter %d is void", i)}
		}

		name := prm.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}

		cp.Params = append(cp.Params, ParamPlan{Name: name, Plan: pp})
	}

	if m.Returns.IsZero() || m.Returns.IsVoid() {
		if m.Directives.TransferOwnership || m.Directives.View || m.Directives.Buffer {
			return nil, &diagnostic.InvalidDeclError{Message: "result directives on a callable without a result"}
		}

		return cp, nil
	}

	res, err := r.resolveShape(Shape{Type: m.Returns, Directives: m.Directives, Direction: FromNative}, scope, 0)
	if err != nil {
		return nil, err
	}

	cp.Result = res

	if m.Directives.BoundHint != nil && !isNumber(res) {
		r.diags.AddWarning(diagnostic.CodeUnusedHint, "bound-hint on non-numeric result", symbol, m.Pos)
	}

	return cp, nil
}

func (r *Resolver) resolveOperator(c *ClassInfo, b operators.Binding, scope []string, index int) (*CallablePlan, error) {
	m := b.Method
	if b.Kind == operators.KindConversion && m.Returns.IsZero() {
		cp := *m
		cp.Returns = b.Target
		m = &cp
	}

	return r.resolveCallable(c, m, scope, c.Native+"::"+b.Method.Name, index)
}

func isNumber(p *ConversionPlan) bool {
	return p != nil && p.Category == CategoryPrimitive && p.Primitive.IsNumber()
}

func isInteger(p *ConversionPlan) bool {
	return p != nil && p.Category == CategoryPrimitive && p.Primitive.IsInteger() && p.Strategy == StrategyValueCopy
}

// hazards documents results that outlive the lock or their owner.
func (r *Resolver) hazards(name string, cp *CallablePlan) {
	if cp.Result == nil || !cp.ReleaseLock {
		return
	}

	if cp.Result.Strategy.IsView() || cp.Result.Strategy == StrategyPointerBorrowed {
		r.diags.AddWarning(diagnostic.CodeLifetimeHazard,
			fmt.Sprintf("%s result aliases native storage while the lock is released", cp.Result.Strategy), name, cp.Decl.Pos)
	}
}

// checkGroup reports overloads indistinguishable after conversion.
func (r *Resolver) checkGroup(c *ClassInfo, g *Group) {
	seen := map[string]*CallablePlan{}

	for _, ov := range g.Overloads {
		sig := ov.Signature()

		prev, dup := seen[sig]
		if !dup {
			seen[sig] = ov
			continue
		}

		reason := "parameters convert to the same managed types"
		if prev.Const != ov.Const {
			reason = "overloads differ only in const qualification"
		}

		className, unit := "", r.unit
		if c != nil {
			className, unit = c.Name, c.Unit
		}

		r.fail(unit, &diagnostic.AmbiguousOverloadError{
			Class:     className,
			Name:      g.Name,
			Signature: sig,
			Reason:    reason + fmt.Sprintf(" (%s and %s)", prev.Decl.Signature(), ov.Decl.Signature()),
			Decl:      qualified(className, g.Name),
			Location:  ov.Decl.Pos,
		})
	}
}

func (r *Resolver) checkOperators(c *ClassInfo, ops []*OperatorPlan) {
	byName := map[string]*Group{}

	var names []string

	for _, op := range ops {
		g, ok := byName[op.Binding.GoName]
		if !ok {
			g = &Group{Name: op.Binding.Method.Name, GoName: op.Binding.GoName, From: c}
			byName[op.Binding.GoName] = g
			names = append(names, op.Binding.GoName)
		}

		g.Overloads = append(g.Overloads, op.Call)
	}

	for _, n := range names {
		r.checkGroup(c, byName[n])
	}
}

// inherit flattens the methods and fields of the bases into p. Local names
// hide inherited ones; a name reached through two bases is ambiguous unless
// both paths lead to the same declaring class.
func (r *Resolver) inherit(c *ClassInfo, p *ClassPlan) {
	local := map[string]bool{}
	for _, g := range p.Methods {
		local[g.GoName] = true
	}

	for _, f := range p.Fields {
		local[f.GoName] = true
	}

	ambiguous := func(name string, a, b *ClassInfo) {
		r.fail(c.Unit, &diagnostic.AmbiguousOverloadError{
			Class:    c.Name,
			Name:     name,
			Reason:   fmt.Sprintf("inherited from both %s and %s", a.Name, b.Name),
			Decl:     c.Name,
			Location: c.Decl.Pos,
		})
	}

	methods := map[string]*Group{}
	fields := map[string]*FieldPlan{}

	for _, b := range p.Bases {
		bp := r.plans[b]
		if bp == nil {
			continue
		}

		for _, g := range bp.Methods {
			if local[g.GoName] {
				continue
			}

			if prev, ok := methods[g.GoName]; ok {
				if prev.From != g.From {
					ambiguous(g.Name, prev.From, g.From)
				}

				continue
			}

			methods[g.GoName] = g
			p.Methods = append(p.Methods, g)
		}

		for _, f := range bp.Fields {
			if local[f.GoName] {
				continue
			}

			if prev, ok := fields[f.GoName]; ok {
				if prev.From != f.From {
					ambiguous(f.Decl.Name, prev.From, f.From)
				}

				continue
			}

			fields[f.GoName] = f
			p.Fields = append(p.Fields, f)
		}
	}
}

// resolveLength binds Len to the designated method, or inherits the
// length of the single base that has one.
func (r *Resolver) resolveLength(c *ClassInfo, p *ClassPlan, scope []string, positions map[*decl.MethodDecl]int) *CallablePlan {
	var designated []*decl.MethodDecl

	for _, m := range c.Decl.Methods {
		if m.Directives.DesignateLength {
			designated = append(designated, m)
		}
	}

	switch len(designated) {
	case 0:
		var from []*ClassInfo

		var found *CallablePlan

		for _, b := range p.Bases {
			if bp := r.plans[b]; bp != nil && bp.Length != nil && (found == nil || bp.Length != found) {
				from = append(from, b)
				found = bp.Length
			}
		}

		if len(from) > 1 {
			r.fail(c.Unit, &diagnostic.AmbiguousOverloadError{
				Class:    c.Name,
				Name:     "Len",
				Reason:   fmt.Sprintf("length inherited from both %s and %s", from[0].Name, from[1].Name),
				Decl:     c.Name,
				Location: c.Decl.Pos,
			})

			return nil
		}

		return found

	case 1:
		m := designated[0]

		cp, err := r.resolveCallable(c, m, scope, c.Native+"::"+m.Name, positions[m])
		if err != nil {
			r.fail(c.Unit, locate(err, c.Name+"::"+m.Name, m.Pos))
			return nil
		}

		if len(cp.Params) != 0 || !isInteger(cp.Result) {
			r.fail(c.Unit, &diagnostic.InvalidDeclError{
				Decl:     c.Name + "::" + m.Name,
				Message:  "designate-length needs a zero-argument method returning an integer",
				Location: m.Pos,
			})

			return nil
		}

		return cp

	default:
		names := make([]string, len(designated))
		for i, m := range designated {
			names[i] = m.Name
		}

		r.fail(c.Unit, &diagnostic.AmbiguousOverloadError{
			Class:    c.Name,
			Name:     "Len",
			Reason:   "more than one method designated as length: " + strings.Join(names, ", "),
			Decl:     c.Name,
			Location: designated[1].Pos,
		})

		return nil
	}
}

func (r *Resolver) resolveHash(c *ClassInfo, scope []string, positions map[*decl.MethodDecl]int) *CallablePlan {
	if c.Ops.Hash == "" || c.Ops.Hash == decl.HashAddress {
		return nil
	}

	for _, m := range c.Decl.MethodsNamed(c.Ops.Hash) {
		if len(m.Params) != 0 {
			continue
		}

		cp, err := r.resolveCallable(c, m, scope, c.Native+"::"+m.Name, positions[m])
		if err != nil {
			r.fail(c.Unit, locate(err, c.Name+"::"+m.Name, m.Pos))
			return nil
		}

		return cp
	}

	return nil
}

func (r *Resolver) resolveIterate(c *ClassInfo, scope []string, positions map[*decl.MethodDecl]int) *IteratePlan {
	it := c.Decl.Directives.Iterate
	if it == nil {
		return nil
	}

	invalid := func(msg string) *IteratePlan {
		r.fail(c.Unit, &diagnostic.InvalidDeclError{Decl: c.Name, Message: "iterate: " + msg, Location: c.Decl.Pos})
		return nil
	}

	find := func(name string, arity int) (*CallablePlan, error) {
		for _, m := range c.Decl.MethodsNamed(name) {
			if len(m.Params) == arity {
				return r.resolveCallable(c, m, scope, c.Native+"::"+m.Name, positions[m])
			}
		}

		return nil, nil
	}

	size, err := find(it.Size, 0)
	if err != nil {
		r.fail(c.Unit, locate(err, c.Name+"::"+it.Size, c.Decl.Pos))
		return nil
	}

	if size == nil || !isInteger(size.Result) {
		return invalid(it.Size + " must be a zero-argument method returning an integer")
	}

	at, err := find(it.At, 1)
	if err != nil {
		r.fail(c.Unit, locate(err, c.Name+"::"+it.At, c.Decl.Pos))
		return nil
	}

	if at == nil || !isInteger(at.Params[0].Plan) || at.Result == nil {
		return invalid(it.At + " must take one integer index and return a value")
	}

	return &IteratePlan{Size: size, At: at}
}

// checkMemberNames reports two members binding to the same Go method.
func (r *Resolver) checkMemberNames(c *ClassInfo, p *ClassPlan) {
	owners := map[string]string{}

	claim := func(goName, what string) {
		if prev, ok := owners[goName]; ok && prev != what {
			r.fail(c.Unit, &diagnostic.InvalidDeclError{
				Decl:     c.Name,
				Message:  fmt.Sprintf("%s and %s both bind as method %s; rename one", prev, what, goName),
				Location: c.Decl.Pos,
			})

			return
		}

		owners[goName] = what
	}

	for _, f := range p.Fields {
		claim(f.GoName, "field "+f.Decl.Name)
		claim(f.GoName+"View", "field "+f.Decl.Name)

		if f.Write != nil {
			claim("Set"+f.GoName, "field "+f.Decl.Name)
		}
	}

	for _, g := range p.Methods {
		claim(g.GoName, "method "+g.Name)
	}

	var ops []string

	for _, op := range p.Operators {
		if !slices.Contains(ops, op.Binding.GoName) {
			ops = append(ops, op.Binding.GoName)
			claim(op.Binding.GoName, "operator"+op.Binding.Operator)
		}
	}
}

func qualified(scope, name string) string {
	if scope == "" {
		return name
	}

	return scope + "::" + name
}
