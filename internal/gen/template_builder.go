package gen

import (
	"bytes"
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"bindgen/internal/decl"
	"bindgen/internal/match"
	"bindgen/internal/plan"
)

// unitGen builds the files of one unit.
type unitGen struct {
	g     *Generator
	up    *plan.UnitPlan
	pkg   string
	name  string
	names map[string]string

	// bind is the scope of the bindings file, where every overload table
	// and container converter lives.
	bind  *fileScope
	convs *converters
	sets  []overloadVar
	keys  []string
}

func (g *Generator) newUnitGen(up *plan.UnitPlan, names map[string]string) *unitGen {
	u := &unitGen{
		g:     g,
		up:    up,
		pkg:   up.Unit.Package,
		name:  names[up.Unit.Package],
		names: names,
	}

	u.bind = u.scope()
	u.convs = newConverters(u.bind)

	return u
}

func (u *unitGen) scope() *fileScope {
	return newFileScope(u.pkg, u.g.config.RuntimeImport, u.names)
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", t.Name(), err)
	}

	return buf.String(), nil
}

// comment renders lines as a // comment block.
func comment(lines ...string) string {
	var b strings.Builder

	for _, l := range lines {
		if l == "" || strings.HasPrefix(l, "\t") {
			b.WriteString("//" + l + "\n")
			continue
		}

		b.WriteString("// " + l + "\n")
	}

	return b.String()
}

// callKind is the shape of a generated callable.
type callKind int

const (
	callMethod callKind = iota
	callConstructor
	callFunction
)

// callSite is where a group of overloads is bound.
type callSite struct {
	kind  callKind
	class *plan.ClassInfo
	recv  string
}

// recvName is the receiver of the methods of a wrapper. Letters used by
// generated bodies are avoided.
func recvName(c *plan.ClassInfo) string {
	r := strings.ToLower(c.Symbol[:1])
	if strings.Contains("hinov", r) {
		return "x"
	}

	return r
}

// overloadTable registers the overload table of a group under name and
// returns name.
func (u *unitGen) overloadTable(name string, cps []*plan.CallablePlan) string {
	entries := make([]string, len(cps))
	for i, cp := range cps {
		entries[i] = u.overloadLit(cp)
	}

	u.sets = append(u.sets, overloadVar{
		Name:    name,
		Type:    "[]*" + u.bind.rt("Overload"),
		Entries: entries,
	})

	return name
}

func (u *unitGen) overloadLit(cp *plan.CallablePlan) string {
	fields := []string{"Symbol: " + strconv.Quote(cp.Symbol)}

	if cp.Index != 0 {
		fields = append(fields, "Index: "+strconv.Itoa(cp.Index))
	}

	if len(cp.Params) > 0 {
		params := make([]string, len(cp.Params))
		for i, p := range cp.Params {
			params[i] = u.convs.expr(u.bind, p.Plan)
		}

		fields = append(fields, fmt.Sprintf("Params: []%s{%s}", u.bind.rt("Converter"), strings.Join(params, ", ")))
	}

	if cp.Result != nil {
		fields = append(fields, "Result: "+u.convs.expr(u.bind, cp.Result))
	}

	if cp.Const {
		fields = append(fields, "Const: true")
	}

	if cp.ReleaseLock {
		fields = append(fields, "ReleaseLock: true")
	}

	return "{" + strings.Join(fields, ", ") + "}"
}

// nativeSignature spells a callable the way the native side declares it.
func nativeSignature(cp *plan.CallablePlan) string {
	types := make([]string, len(cp.Params))
	for i, p := range cp.Params {
		types[i] = p.Plan.Type.String()
	}

	sig := cp.Symbol + "(" + strings.Join(types, ", ") + ")"
	if cp.Const {
		sig += " const"
	}

	return sig
}

// notes are the doc lines describing the behaviour of one callable.
func notes(cp *plan.CallablePlan, recv string) []string {
	var out []string

	d := cp.Decl.Directives
	out = append(out, d.Doc...)

	if h := d.BoundHint; h != nil {
		out = append(out, "Expected values: "+boundRange(h)+"; not enforced.")
	}

	if cp.ReleaseLock {
		out = append(out, "The native call runs without the exclusivity lock.")
	}

	if r := cp.Result; r != nil {
		switch {
		case r.Strategy.IsView() && recv != "":
			out = append(out, "The result aliases native storage owned by "+recv+"; it is not synchronised with native mutation.")
		case r.Strategy.IsView():
			out = append(out, "The result aliases native storage; it is not synchronised with native mutation.")
		case r.Strategy == plan.StrategyPointerOwned:
			out = append(out, "The caller owns the result and must Close it.")
		case r.Strategy == plan.StrategyPointerBorrowed:
			out = append(out, "The result is borrowed from native code; nil when the native pointer is null.")
		}
	}

	return out
}

func boundRange(h *decl.BoundHint) string {
	lo, hi := "-inf", "+inf"

	if h.Lower != nil {
		lo = strconv.FormatFloat(*h.Lower, 'g', -1, 64)
	}

	if h.Upper != nil {
		hi = strconv.FormatFloat(*h.Upper, 'g', -1, 64)
	}

	return "[" + lo + ", " + hi + "]"
}

// params renders the Go parameter list of a callable and the argument
// expressions passing them on.
func (u *unitGen) params(s *fileScope, site callSite, cp *plan.CallablePlan) (string, string) {
	decls := []string{"ctx " + s.ctx()}
	if site.kind != callMethod {
		decls = append(decls, "rt *"+s.rt("Runtime"))
	}

	types := make([]string, len(cp.Params))
	for i, p := range cp.Params {
		types[i] = s.goType(p.Plan)
	}

	if cp.Result != nil {
		s.goType(cp.Result)
	}

	s.use(s.runtime)

	// Bodies refer to imported packages, so parameters must not shadow them.
	taken := map[string]bool{"ctx": true, "rt": true, "err": true, "o": true, site.recv: true}
	for alias := range s.aliases {
		taken[alias] = true
	}

	var args []string

	for i, p := range cp.Params {
		name := match.Unexported(p.Name)
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}

		if token.IsKeyword(name) || taken[name] || !token.IsIdentifier(name) {
			name += "Arg"
		}

		for n := i; taken[name] || !token.IsIdentifier(name); n++ {
			name = fmt.Sprintf("arg%d", n)
		}

		taken[name] = true
		decls = append(decls, name+" "+types[i])
		args = append(args, name)
	}

	if len(args) == 0 {
		return strings.Join(decls, ", "), ""
	}

	return strings.Join(decls, ", "), ", " + strings.Join(args, ", ")
}

// invoke is the runtime call of one overload.
func invoke(site callSite, ov, args string) string {
	if site.kind == callMethod {
		return fmt.Sprintf("%s.Runtime().Invoke(ctx, %s.Object, %s%s)", site.recv, site.recv, ov, args)
	}

	return fmt.Sprintf("rt.Invoke(ctx, nil, %s%s)", ov, args)
}

// returnResult returns the result of call converted to typ.
func returnResult(s *fileScope, typ, call string) []string {
	switch typ {
	case "":
		return []string{"_, err := " + call, "", "return err"}
	case "any":
		return []string{"return " + call}
	default:
		return []string{fmt.Sprintf("return %s[%s](%s)", s.rt("As"), typ, call)}
	}
}

func results(typ string) string {
	if typ == "" {
		return "error"
	}

	return "(" + typ + ", error)"
}

func wrap(class string, construct string) []string {
	return []string{
		"o, err := " + construct,
		"if err != nil {",
		"\treturn nil, err",
		"}",
		"",
		"return &" + class + "{Object: o}, nil",
	}
}

// typedCall binds one overload with a typed Go signature.
func (u *unitGen) typedCall(s *fileScope, site callSite, name, ov string, cp *plan.CallablePlan, lead string) (string, error) {
	params, args := u.params(s, site, cp)

	f := funcData{
		Doc:    comment(append([]string{lead}, notes(cp, site.recv)...)...),
		Name:   name,
		Params: params,
	}

	switch site.kind {
	case callConstructor:
		f.Results = "(*" + site.class.Symbol + ", error)"
		f.Body = wrap(site.class.Symbol, fmt.Sprintf("rt.Construct(ctx, %s%s)", ov, args))

	default:
		typ := ""
		if cp.Result != nil {
			typ = s.goType(cp.Result)
		}

		f.Results = results(typ)
		f.Body = returnResult(s, typ, invoke(site, ov, args))
	}

	if site.kind == callMethod {
		f.Recv = site.recv + " *" + site.class.Symbol
	}

	return execute(funcTemplate, f)
}

// group binds a set of overloads under goName: a typed function for a
// single overload, or a dispatcher plus one typed function per overload.
func (u *unitGen) group(s *fileScope, site callSite, goName, table string, g *plan.Group) ([]string, error) {
	cps := g.Overloads
	u.overloadTable(table, cps)

	if len(cps) == 1 {
		fn, err := u.typedCall(s, site, goName, table+"[0]", cps[0], lead(site, goName, cps[0]))
		if err != nil {
			return nil, err
		}

		return []string{fn}, nil
	}

	out := make([]string, 0, len(cps)+1)

	dispatcher, err := u.dispatcher(s, site, goName, table, cps)
	if err != nil {
		return nil, err
	}

	out = append(out, dispatcher)

	for i, cp := range cps {
		name := goName + strconv.Itoa(i)

		fn, err := u.typedCall(s, site, name, fmt.Sprintf("%s[%d]", table, i), cp, lead(site, name, cp))
		if err != nil {
			return nil, err
		}

		out = append(out, fn)
	}

	return out, nil
}

func lead(site callSite, name string, cp *plan.CallablePlan) string {
	if site.kind == callConstructor {
		return fmt.Sprintf("%s constructs a %s with %s.", name, site.class.Symbol, nativeSignature(cp))
	}

	return fmt.Sprintf("%s calls %s.", name, nativeSignature(cp))
}

// dispatcher binds an overload set behind one variadic function selecting
// the overload by the dynamic types of its arguments.
func (u *unitGen) dispatcher(s *fileScope, site callSite, goName, table string, cps []*plan.CallablePlan) (string, error) {
	doc := []string{goName + " selects one of these overloads by argument types:", ""}

	typ, same := "", true

	for i, cp := range cps {
		doc = append(doc, fmt.Sprintf("\t%s%d: %s", goName, i, nativeSignature(cp)))

		t := ""
		if cp.Result != nil {
			t = s.goType(cp.Result)
		}

		if i == 0 {
			typ = t
		} else if t != typ {
			same = false
		}
	}

	if !same {
		typ = "any"
	}

	f := funcData{Doc: comment(doc...), Name: goName}

	switch site.kind {
	case callMethod:
		f.Recv = site.recv + " *" + site.class.Symbol
		f.Params = "ctx " + s.ctx() + ", args ...any"
		f.Results = results(typ)
		f.Body = returnResult(s, typ, fmt.Sprintf("%s.Runtime().Dispatch(ctx, %s.Object, %s, args...)", site.recv, site.recv, table))

	case callConstructor:
		f.Params = "ctx " + s.ctx() + ", rt *" + s.rt("Runtime") + ", args ...any"
		f.Results = "(*" + site.class.Symbol + ", error)"
		f.Body = wrap(site.class.Symbol, fmt.Sprintf("rt.ConstructAny(ctx, %s, args...)", table))

	case callFunction:
		f.Params = "ctx " + s.ctx() + ", rt *" + s.rt("Runtime") + ", args ...any"
		f.Results = results(typ)
		f.Body = returnResult(s, typ, fmt.Sprintf("rt.Dispatch(ctx, nil, %s, args...)", table))
	}

	return execute(funcTemplate, f)
}

// tableName names the overload table of a member or function.
func tableName(owner *plan.ClassInfo, goName string) string {
	if owner == nil {
		return "ov" + goName
	}

	return "ov" + owner.Symbol + "_" + goName
}
