package gen

import (
	"fmt"
	"strings"

	"bindgen/internal/decl"
	"bindgen/internal/enums"
	"bindgen/internal/plan"
)

// docFile is the package documentation of a unit.
func (u *unitGen) docFile() *fileData {
	unit := u.up.Unit

	lead := fmt.Sprintf("Package %s binds the native module %s.", u.name, unit.Name)
	if unit.Header != "" {
		lead = fmt.Sprintf("Package %s binds the native module %s, declared in %s.", u.name, unit.Name, unit.Header)
	}

	lines := []string{lead}
	if len(unit.Doc) > 0 {
		lines = append(lines, "")
		lines = append(lines, unit.Doc...)
	}

	lines = append(lines,
		"",
		"Every function takes the bindrt.Runtime the native library is reached through;",
		"wrappers created from it keep using it.",
	)

	return &fileData{Doc: comment(lines...), Package: u.name}
}

// enumsFile holds one distinct Go type per native enum of the unit.
func (u *unitGen) enumsFile() (*fileData, error) {
	s := u.scope()
	f := &fileData{Package: u.name}

	for _, id := range u.up.Enums {
		data := enumData{
			Doc:    comment(enumDoc(id)...),
			Name:   id.Symbol,
			Native: id.QualifiedName(),
			RT:     s.use(s.runtime),
		}

		for _, it := range id.Items {
			data.Items = append(data.Items, enumItem{Symbol: it.Symbol, Name: it.Name, Value: it.Value})
		}

		out, err := execute(enumTemplate, data)
		if err != nil {
			return nil, err
		}

		f.Decls = append(f.Decls, out)
	}

	f.Imports = s.grouped(u.g.config.LocalPrefix)

	return f, nil
}

func enumDoc(id *enums.Identity) []string {
	lines := []string{fmt.Sprintf("%s mirrors the native enum %s.", id.Symbol, id.QualifiedName())}

	if id.Owner != "" {
		lines = append(lines, "It is bound under "+id.Owner+".")
	}

	if id.Decl != nil {
		lines = append(lines, id.Decl.Directives.Doc...)
	}

	return lines
}

// functionsFile binds the free functions of the unit as package functions.
func (u *unitGen) functionsFile() (*fileData, error) {
	s := u.scope()
	f := &fileData{Package: u.name}
	site := callSite{kind: callFunction}

	for _, g := range u.up.Functions {
		fns, err := u.group(s, site, g.GoName, tableName(nil, g.GoName), g)
		if err != nil {
			return nil, err
		}

		f.Decls = append(f.Decls, fns...)
	}

	f.Imports = s.grouped(u.g.config.LocalPrefix)

	return f, nil
}

// classFile renders the wrapper of one class.
func (u *unitGen) classFile(cp *plan.ClassPlan) (*fileData, error) {
	s := u.scope()
	c := cp.Info
	site := callSite{kind: callMethod, class: c, recv: recvName(c)}

	wrapper, err := execute(classTemplate, classData{
		Doc:    comment(classDoc(cp)...),
		Name:   c.Symbol,
		Native: c.Native,
		Object: s.rt("Object"),
		Conv:   s.rt("NewClassConv"),
	})
	if err != nil {
		return nil, err
	}

	f := &fileData{Package: u.name, Decls: []string{wrapper}}

	add := func(fns []string, err error) error {
		if err != nil {
			return err
		}

		f.Decls = append(f.Decls, fns...)

		return nil
	}

	if g := cp.Constructors; g != nil {
		ctor := callSite{kind: callConstructor, class: c}
		if err := add(u.group(s, ctor, g.GoName, tableName(c, "New"), g)); err != nil {
			return nil, err
		}
	}

	if c.Decl.Copyable {
		if err := add(u.clone(s, site)); err != nil {
			return nil, err
		}
	}

	for _, fp := range cp.Fields {
		if err := add(u.field(s, site, fp)); err != nil {
			return nil, err
		}
	}

	for _, g := range cp.Methods {
		if err := add(u.group(s, site, g.GoName, tableName(c, g.GoName), g)); err != nil {
			return nil, err
		}
	}

	ops := operatorGroups(cp)
	for _, g := range ops {
		if err := add(u.group(s, site, g.GoName, tableName(c, g.GoName), g)); err != nil {
			return nil, err
		}
	}

	if err := add(u.protocols(s, site, cp)); err != nil {
		return nil, err
	}

	for _, g := range cp.Static {
		if err := add(u.group(s, callSite{kind: callFunction}, g.GoName, tableName(nil, g.GoName), g)); err != nil {
			return nil, err
		}
	}

	u.keyCapabilities(cp, ops)

	f.Imports = s.grouped(u.g.config.LocalPrefix)

	return f, nil
}

func classDoc(cp *plan.ClassPlan) []string {
	c := cp.Info

	lead := fmt.Sprintf("%s wraps the native class %s.", c.Symbol, c.Native)
	if c.Instance != nil {
		lead = fmt.Sprintf("%s wraps the template instance %s.", c.Symbol, c.Native)
	}

	lines := []string{lead}

	if len(cp.Bases) > 0 {
		names := make([]string, len(cp.Bases))
		for i, b := range cp.Bases {
			names[i] = b.Symbol
		}

		lines = append(lines, "It carries the methods and fields of "+strings.Join(names, ", ")+".")
	}

	lines = append(lines, c.Decl.Directives.Doc...)
	lines = append(lines,
		"",
		"Owned wrappers release the native object once, on Close; borrowed",
		"wrappers never release it and must not outlive their owner.",
	)

	return lines
}

// operatorGroups groups the bound operators by Go method name.
func operatorGroups(cp *plan.ClassPlan) []*plan.Group {
	var (
		out    []*plan.Group
		byName = map[string]*plan.Group{}
	)

	for _, op := range cp.Operators {
		g, ok := byName[op.Binding.GoName]
		if !ok {
			g = &plan.Group{Name: op.Binding.Method.Name, GoName: op.Binding.GoName, From: cp.Info}
			byName[op.Binding.GoName] = g
			out = append(out, g)
		}

		g.Overloads = append(g.Overloads, op.Call)
	}

	return out
}

func (u *unitGen) clone(s *fileScope, site callSite) ([]string, error) {
	c := site.class

	fn, err := execute(funcTemplate, funcData{
		Doc:     comment(fmt.Sprintf("Clone copy-constructs an owned %s from %s.", c.Symbol, site.recv)),
		Recv:    site.recv + " *" + c.Symbol,
		Name:    "Clone",
		Params:  "ctx " + s.ctx(),
		Results: "(*" + c.Symbol + ", error)",
		Body:    wrap(c.Symbol, fmt.Sprintf("%s.Runtime().Clone(ctx, %s.Object)", site.recv, site.recv)),
	})
	if err != nil {
		return nil, err
	}

	return []string{fn}, nil
}

// field binds one data member as a getter, an optional setter and a view.
func (u *unitGen) field(s *fileScope, site callSite, fp *plan.FieldPlan) ([]string, error) {
	recv := site.recv + " *" + site.class.Symbol
	name := fp.GoName
	native := fp.Decl.Name
	typ := s.goType(fp.Plan)

	view := fmt.Sprintf("%s.Field(%q, %s)", site.recv, native, u.convs.expr(s, fp.Plan))
	viewDoc := []string{
		fmt.Sprintf("%sView returns a view of the %s field. Writes through it are visible", name, native),
		"natively; it is not synchronised with native mutation.",
	}

	if fp.Write == nil {
		view += ".AsReadOnly()"
		viewDoc = []string{
			fmt.Sprintf("%sView returns a read-only view of the const %s field.", name, native),
		}
	}

	getDoc := []string{fmt.Sprintf("%s reads the %s field.", name, native)}
	if fp.From != nil && fp.From != site.class {
		getDoc = append(getDoc, "It is declared by "+fp.From.Symbol+".")
	}

	getDoc = append(getDoc, fp.Decl.Directives.Doc...)

	if h := fp.Decl.Directives.BoundHint; h != nil {
		getDoc = append(getDoc, "Expected values: "+boundRange(h)+"; not enforced.")
	}

	fns := []funcData{
		{
			Doc:     comment(getDoc...),
			Recv:    recv,
			Name:    name,
			Params:  "ctx " + s.ctx(),
			Results: "(" + typ + ", error)",
			Body:    []string{fmt.Sprintf("return %s[%s](%s.%sView().Get(ctx))", s.rt("As"), typ, site.recv, name)},
		},
	}

	if fp.Write != nil {
		fns = append(fns, funcData{
			Doc:     comment(fmt.Sprintf("Set%s writes the %s field.", name, native)),
			Recv:    recv,
			Name:    "Set" + name,
			Params:  "ctx " + s.ctx() + ", v " + s.goType(fp.Write),
			Results: "error",
			Body:    []string{fmt.Sprintf("return %s.%sView().Set(ctx, v)", site.recv, name)},
		})
	}

	fns = append(fns, funcData{
		Doc:     comment(viewDoc...),
		Recv:    recv,
		Name:    name + "View",
		Results: "*" + s.rt("View"),
		Body:    []string{"return " + view},
	})

	out := make([]string, 0, len(fns))

	for _, f := range fns {
		rendered, err := execute(funcTemplate, f)
		if err != nil {
			return nil, err
		}

		out = append(out, rendered)
	}

	return out, nil
}

// protocols binds Len, Hash and Iter when the class designates them.
func (u *unitGen) protocols(s *fileScope, site callSite, cp *plan.ClassPlan) ([]string, error) {
	c := site.class
	recv := site.recv + " *" + c.Symbol

	var fns []funcData

	if cp.Length != nil {
		table := u.overloadTable(tableName(c, "Len"), []*plan.CallablePlan{cp.Length})

		fns = append(fns, funcData{
			Doc:     comment(fmt.Sprintf("Len returns the length reported by %s.", nativeSignature(cp.Length))),
			Recv:    recv,
			Name:    "Len",
			Params:  "ctx " + s.ctx(),
			Results: "(int, error)",
			Body:    asInt(s, "n", s.goType(cp.Length.Result), invoke(site, table+"[0]", "")),
		})
	}

	if cp.Hash != nil {
		table := u.overloadTable(tableName(c, "Hash"), []*plan.CallablePlan{cp.Hash})
		call := invoke(site, table+"[0]", "")

		body := []string{fmt.Sprintf("return %s[uint64](%s)", s.rt("As"), call)}
		if typ := s.goType(cp.Hash.Result); typ != "uint64" {
			body = []string{
				fmt.Sprintf("h, err := %s[%s](%s)", s.rt("As"), typ, call),
				"",
				"return uint64(h), err",
			}
		}

		fns = append(fns, funcData{
			Doc:     comment(fmt.Sprintf("Hash returns the hash reported by %s.", nativeSignature(cp.Hash))),
			Recv:    recv,
			Name:    "Hash",
			Params:  "ctx " + s.ctx(),
			Results: "(uint64, error)",
			Body:    body,
		})
	}

	if it := cp.Iterate; it != nil {
		size := u.overloadTable(tableName(c, "IterSize"), []*plan.CallablePlan{it.Size})
		at := u.overloadTable(tableName(c, "IterAt"), []*plan.CallablePlan{it.At})
		index := s.goType(it.At.Params[0].Plan)

		body := []string{
			"return " + s.rt("NewIndexIter") + "(",
			"\tfunc(ctx " + s.ctx() + ") (int, error) {",
		}

		for _, l := range asInt(s, "n", s.goType(it.Size.Result), invoke(site, size+"[0]", "")) {
			if l == "" {
				body = append(body, "")
				continue
			}

			body = append(body, "\t\t"+l)
		}

		body = append(body,
			"\t},",
			"\tfunc(ctx "+s.ctx()+", i int) (any, error) {",
			"\t\treturn "+invoke(site, at+"[0]", ", "+index+"(i)"),
			"\t},",
			")",
		)

		fns = append(fns, funcData{
			Doc: comment(
				fmt.Sprintf("Iter walks %s by index through %s and %s.", site.recv, it.Size.Decl.Name, it.At.Decl.Name),
				"No native iterator is held; mutation during the walk shows up in later elements.",
			),
			Recv:    recv,
			Name:    "Iter",
			Results: "*" + s.rt("IndexIter"),
			Body:    body,
		})
	}

	out := make([]string, 0, len(fns))

	for _, f := range fns {
		rendered, err := execute(funcTemplate, f)
		if err != nil {
			return nil, err
		}

		out = append(out, rendered)
	}

	return out, nil
}

// asInt converts an integer result to int, range checked.
func asInt(s *fileScope, v, typ, call string) []string {
	return []string{
		fmt.Sprintf("%s, err := %s[%s](%s)", v, s.rt("As"), typ, call),
		"if err != nil {",
		"\treturn 0, err",
		"}",
		"",
		fmt.Sprintf("return %s(%s)", s.rt("Length"), v),
	}
}

// keyCapabilities registers the init statements letting a class key
// ordered and hash containers.
func (u *unitGen) keyCapabilities(cp *plan.ClassPlan, ops []*plan.Group) {
	c := cp.Info
	if !c.Ordered && !c.Hashed {
		return
	}

	s := u.bind
	bg := func() string { return s.use("context") + "Background()" }
	wrapper := "*" + c.Symbol

	has := func(goName string) bool {
		for _, g := range ops {
			if g.GoName == goName {
				return true
			}
		}

		return false
	}

	compare := func(goName string) string {
		return fmt.Sprintf("func(a, b %s) (bool, error) {\n\t\treturn %s[bool](a.Runtime().Dispatch(%s, a.Object, %s, b))\n\t}",
			wrapper, s.rt("As"), bg(), tableName(c, goName))
	}

	if c.Ordered && has("Less") {
		u.keys = append(u.keys, fmt.Sprintf("%sConverter.OrderedBy(%s)", c.Symbol, compare("Less")))
	}

	if !c.Hashed || !has("Equal") {
		return
	}

	hash := fmt.Sprintf("%s[%s]", s.rt("AddressHash"), wrapper)

	if c.Ops.Hash != decl.HashAddress {
		if cp.Hash == nil {
			return
		}

		hash = fmt.Sprintf("func(v %s) (uint64, error) {\n\t\treturn v.Hash(%s)\n\t}", wrapper, bg())
	}

	u.keys = append(u.keys, fmt.Sprintf("%sConverter.HashedBy(%s, %s)", c.Symbol, hash, compare("Equal")))
}

// bindingsFile declares the overload tables and container converters
// registered while rendering the other files.
func (u *unitGen) bindingsFile() (*fileData, error) {
	if len(u.sets) == 0 && len(u.convs.vars) == 0 && len(u.keys) == 0 {
		return nil, nil
	}

	data := bindingsData{Keys: u.keys, Convs: u.convs.vars, Sets: u.sets}

	for _, v := range u.convs.vars {
		data.Vars = append(data.Vars, bindingVar{Name: v.Name, Type: u.bind.rt("Converter")})
	}

	for _, ov := range u.sets {
		data.Vars = append(data.Vars, bindingVar{Name: ov.Name, Type: ov.Type})
	}

	out, err := execute(bindingsTemplate, data)
	if err != nil {
		return nil, err
	}

	return &fileData{Package: u.name, Imports: u.bind.grouped(u.g.config.LocalPrefix), Decls: []string{out}}, nil
}
