package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/enums"
	"bindgen/internal/idtable"
	"bindgen/internal/match"
	"bindgen/internal/operators"
)

var log = commonlog.GetLogger("bindgen.plan")

// Config holds configuration for the resolution process.
type Config struct {
	// Strict makes Resolve fail when any unit has errors.
	Strict bool
	// MaxDepth limits type nesting depth; 0 means no limit.
	MaxDepth int
	// MaxSuggestions is the maximum number of "did you mean" names.
	MaxSuggestions int
	// ReadTable loads imported identity tables.
	ReadTable func(path string) (*idtable.Table, error)
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() Config {
	return Config{
		Strict:         false,
		MaxSuggestions: 3,
		ReadTable:      idtable.Read,
	}
}

type templateInfo struct {
	decl *decl.ClassDecl
	unit *decl.Unit
}

// Resolver performs the two-pass resolution of one run.
type Resolver struct {
	model  *decl.Model
	config Config

	enums      *enums.Registry
	classes    map[string]*ClassInfo
	templates  map[string]*templateInfo
	instances  map[string]*ClassInfo
	symbols    map[string]string
	containers *Containers
	order      []*ClassInfo

	// cache holds bare value plans by lookup scope, type and direction.
	cache map[string]*ConversionPlan
	plans map[*ClassInfo]*ClassPlan
	diags diagnostic.Diagnostics
	// unit is the unit being resolved, for container bookkeeping.
	unit string
}

// NewResolver creates a Resolver for a model.
func NewResolver(model *decl.Model, config Config) *Resolver {
	if config.ReadTable == nil {
		config.ReadTable = idtable.Read
	}

	return &Resolver{
		model:      model,
		config:     config,
		enums:      enums.NewRegistry(),
		classes:    map[string]*ClassInfo{},
		templates:  map[string]*templateInfo{},
		instances:  map[string]*ClassInfo{},
		symbols:    map[string]string{},
		containers: NewContainers(),
		cache:      map[string]*ConversionPlan{},
		plans:      map[*ClassInfo]*ClassPlan{},
	}
}

// Resolve runs both passes and returns the resolved model. Unit failures
// are reported in the model's diagnostics; the error is only set for
// unusable input, or in strict mode when any unit failed.
func (r *Resolver) Resolve() (*ResolvedModel, error) {
	if r.model == nil {
		return nil, errors.New("declaration model is required")
	}

	r.register()

	out := &ResolvedModel{
		Enums:      r.enums,
		Containers: r.containers,
	}

	r.resolveClasses()

	for _, u := range r.model.Units {
		out.Units = append(out.Units, r.resolveUnit(u))
	}

	for _, c := range r.order {
		if !c.Imported {
			out.Classes = append(out.Classes, c)
		}
	}

	out.Diagnostics = r.diags

	if r.config.Strict && r.diags.HasErrors() {
		return out, fmt.Errorf("strict mode: resolution failed: %w", r.diags.Error())
	}

	return out, nil
}

// register is pass 1: identities and capabilities of every unit.
func (r *Resolver) register() {
	loaded := map[string]bool{}

	for _, u := range r.model.Units {
		for _, path := range u.Imports {
			if u.File != "" && !filepath.IsAbs(path) {
				path = filepath.Join(filepath.Dir(u.File), path)
			}

			if loaded[path] {
				continue
			}

			loaded[path] = true

			if err := r.importTable(path); err != nil {
				r.diags.AddErr(u.Name, fmt.Errorf("import %s: %w", path, err))
			}
		}
	}

	for _, u := range r.model.Units {
		for _, e := range u.Enums {
			r.registerEnum(e, u)
		}

		for _, c := range u.Classes {
			for _, e := range c.Enums {
				r.registerEnum(e, u)
			}

			r.registerClass(c, u)
		}
	}

	r.enums.Seal()

	// Key capabilities of plain classes must be known before instance
	// arguments are resolved.
	for _, c := range r.order {
		r.mapOperators(c)
	}

	r.registerInstances()

	log.Debugf("registered %d classes, %d enums", len(r.order), len(r.enums.All()))
}

func (r *Resolver) importTable(path string) error {
	t, err := r.config.ReadTable(path)
	if err != nil {
		return err
	}

	for _, id := range t.Enums {
		if err := r.enums.RegisterIdentity(id); err != nil {
			return err
		}
	}

	for _, c := range t.Classes {
		if _, dup := r.classes[c.Name]; dup {
			return fmt.Errorf("class %s imported twice", c.Name)
		}

		info := &ClassInfo{
			Name:     c.Name,
			Native:   c.Native,
			Unit:     c.Unit,
			Package:  c.Package,
			Symbol:   c.Symbol,
			Ordered:  c.Ordered,
			Hashed:   c.Hashed,
			Imported: true,
		}

		r.classes[c.Name] = info
		r.order = append(r.order, info)
	}

	log.Debugf("imported %s: %d enums, %d classes", t.Module, len(t.Enums), len(t.Classes))

	return nil
}

func (r *Resolver) registerEnum(e *decl.EnumDecl, u *decl.Unit) {
	if e.Directives.Ignore {
		r.diags.AddInfo(diagnostic.CodeIgnoredDecl, "enum ignored", e.QualifiedName(), e.Pos)
		return
	}

	if _, err := r.enums.Register(e, u); err != nil {
		r.diags.AddErr(u.Name, err)
		return
	}

	r.claimSymbol(u, enums.Symbol(e, u), e.QualifiedName(), e.Pos)
}

func (r *Resolver) registerClass(c *decl.ClassDecl, u *decl.Unit) {
	q := c.QualifiedName()

	if c.Directives.Ignore {
		r.diags.AddInfo(diagnostic.CodeIgnoredDecl, "class ignored", q, c.Pos)
		return
	}

	if prev, dup := r.classes[q]; dup {
		r.diags.AddErr(u.Name, &diagnostic.InvalidDeclError{
			Decl:     q,
			Message:  fmt.Sprintf("class %s already declared by unit %s", q, prev.Unit),
			Location: c.Pos,
		})

		return
	}

	if c.IsTemplate() {
		if _, dup := r.templates[q]; dup {
			r.diags.AddErr(u.Name, &diagnostic.InvalidDeclError{
				Decl: q, Message: "class template " + q + " declared twice", Location: c.Pos,
			})

			return
		}

		r.templates[q] = &templateInfo{decl: c, unit: u}

		return
	}

	info := &ClassInfo{
		Name:    q,
		Native:  q,
		Unit:    u.Name,
		Package: u.Package,
		Symbol:  match.Exported(c.ExposedName()),
		Decl:    c,
	}

	r.claimSymbol(u, info.Symbol, q, c.Pos)
	r.classes[q] = info
	r.order = append(r.order, info)
}

type pendingInstance struct {
	inst *decl.Instantiation
	unit *decl.Unit
	err  error
}

// registerInstances registers every explicit instantiation. Instance
// arguments may name other instances in any order, so rounds repeat while
// some instance registers; what is left is reported.
func (r *Resolver) registerInstances() {
	var pending []*pendingInstance

	for _, u := range r.model.Units {
		for _, inst := range u.Instances {
			pending = append(pending, &pendingInstance{inst: inst, unit: u})
		}
	}

	for len(pending) > 0 {
		var next []*pendingInstance

		for _, p := range pending {
			c, err := r.registerInstance(p.inst, p.unit)
			if err != nil {
				p.err = err
				next = append(next, p)

				continue
			}

			r.mapOperators(c)
		}

		if len(next) == len(pending) {
			for _, p := range next {
				r.diags.AddErr(p.unit.Name, locate(p.err, p.inst.Name, p.inst.Pos))
			}

			return
		}

		pending = next
	}
}

// registerInstance registers an explicit template instantiation.
func (r *Resolver) registerInstance(inst *decl.Instantiation, u *decl.Unit) (*ClassInfo, error) {
	tmpl, ok := r.templates[inst.Of.Name]
	if !ok {
		return nil, &diagnostic.UnresolvedTypeError{
			Type:        inst.Of.String(),
			Name:        inst.Of.Name,
			Reason:      "not a registered class template",
			Suggestions: match.Suggest(inst.Of.Name, r.templateNames(), r.config.MaxSuggestions),
		}
	}

	if err := checkArity(inst.Of, len(tmpl.decl.Template)); err != nil {
		return nil, err
	}

	key, bindings, err := r.instanceKey(tmpl.decl, inst.Of, nil)
	if err != nil {
		return nil, err
	}

	if prev, dup := r.instances[key]; dup {
		return nil, &diagnostic.InvalidDeclError{
			Message: fmt.Sprintf("%s instantiates %s again (already registered as %s)", inst.Name, inst.Of, prev.Name),
		}
	}

	if _, dup := r.classes[inst.Name]; dup {
		return nil, &diagnostic.InvalidDeclError{Message: "instance name " + inst.Name + " is already a class"}
	}

	info := &ClassInfo{
		Name:     inst.Name,
		Native:   inst.Of.String(),
		Unit:     u.Name,
		Package:  u.Package,
		Symbol:   match.Exported(inst.Name),
		Decl:     instantiate(tmpl.decl, bindings),
		Instance: inst,
	}

	r.claimSymbol(u, info.Symbol, inst.Name, inst.Pos)
	r.instances[key] = info
	r.classes[inst.Name] = info
	r.order = append(r.order, info)

	log.Debugf("instance %s := %s (%s)", inst.Name, inst.Of, key)

	return info, nil
}

// instanceKey resolves the template arguments of t and returns the
// registry key and the parameter bindings.
func (r *Resolver) instanceKey(tmpl *decl.ClassDecl, t decl.TypeRef, from []string) (string, map[string]decl.TypeRef, error) {
	keys := make([]string, len(t.Args))
	bindings := make(map[string]decl.TypeRef, len(t.Args))

	for i, arg := range t.Args {
		p, err := r.resolveShape(Shape{Type: arg, Direction: FromNative}, from, 1)
		if err != nil {
			return "", nil, err
		}

		keys[i] = p.NativeKey()
		bindings[tmpl.Template[i]] = arg
	}

	return tmpl.QualifiedName() + "<" + strings.Join(keys, ",") + ">", bindings, nil
}

// instantiate returns a copy of a class template with its parameters
// substituted.
func instantiate(t *decl.ClassDecl, b map[string]decl.TypeRef) *decl.ClassDecl {
	c := *t
	c.Template = nil
	c.Bases = make([]decl.TypeRef, len(t.Bases))

	for i, base := range t.Bases {
		c.Bases[i] = base.Substitute(b)
	}

	c.Fields = make([]*decl.FieldDecl, len(t.Fields))
	for i, f := range t.Fields {
		cp := *f
		cp.Type = f.Type.Substitute(b)
		c.Fields[i] = &cp
	}

	c.Constructors = substituteMethods(t.Constructors, b)
	c.Methods = substituteMethods(t.Methods, b)

	return &c
}

func substituteMethods(in []*decl.MethodDecl, b map[string]decl.TypeRef) []*decl.MethodDecl {
	out := make([]*decl.MethodDecl, len(in))

	for i, m := range in {
		cp := *m
		cp.Returns = m.Returns.Substitute(b)
		cp.Params = make([]decl.Param, len(m.Params))

		for j, p := range m.Params {
			cp.Params[j] = decl.Param{Name: p.Name, Type: p.Type.Substitute(b)}
		}

		out[i] = &cp
	}

	return out
}

func (r *Resolver) mapOperators(c *ClassInfo) {
	if c.Decl == nil {
		return
	}

	b, diags := operators.MapOperators(c.Decl)
	for _, d := range diags {
		d.Unit = c.Unit

		switch d.Severity {
		case diagnostic.DiagnosticError:
			r.diags.Errors = append(r.diags.Errors, d)
		case diagnostic.DiagnosticWarning:
			r.diags.Warnings = append(r.diags.Warnings, d)
		default:
			r.diags.Infos = append(r.diags.Infos, d)
		}
	}

	c.Ops = b
	c.Ordered = b.Ordered
	c.Hashed = b.Hashable()
}

// claimSymbol reserves a package-level Go name in the unit's package.
func (r *Resolver) claimSymbol(u *decl.Unit, symbol, name string, loc diagnostic.Location) {
	key := u.Package + "." + symbol
	if prev, taken := r.symbols[key]; taken && prev != name {
		r.diags.AddErr(u.Name, &diagnostic.InvalidDeclError{
			Decl:     name,
			Message:  fmt.Sprintf("%s and %s both bind as %s; rename one", prev, name, symbol),
			Location: loc,
		})

		return
	}

	r.symbols[key] = name
}

func (r *Resolver) templateNames() []string {
	names := make([]string, 0, len(r.templates))
	for n := range r.templates {
		names = append(names, n)
	}

	return names
}

// knownNames lists every type name suggestions are drawn from.
func (r *Resolver) knownNames() []string {
	names := append(r.templateNames(), r.enums.Names()...)
	for n := range r.classes {
		names = append(names, n)
	}

	return append(names, ContainerNames()...)
}

// fail records an error for the unit being resolved.
func (r *Resolver) fail(unit string, err error) {
	r.diags.AddErr(unit, err)
}

// locate attaches the declaration and location to a typed error that has
// none yet. Untyped errors become InvalidDeclErrors.
func locate(err error, name string, loc diagnostic.Location) error {
	var (
		unresolvedType *diagnostic.UnresolvedTypeError
		unresolvedEnum *diagnostic.UnresolvedEnumError
		ambiguous      *diagnostic.AmbiguousOverloadError
		nesting        *diagnostic.UnsupportedContainerNestingError
		invalid        *diagnostic.InvalidDeclError
	)

	switch {
	case errors.As(err, &unresolvedEnum):
		if unresolvedEnum.Decl == "" {
			unresolvedEnum.Decl, unresolvedEnum.Location = name, loc
		}
	case errors.As(err, &unresolvedType):
		if unresolvedType.Decl == "" {
			unresolvedType.Decl, unresolvedType.Location = name, loc
		}
	case errors.As(err, &ambiguous):
		if ambiguous.Decl == "" {
			ambiguous.Decl, ambiguous.Location = name, loc
		}
	case errors.As(err, &nesting):
		if nesting.Decl == "" {
			nesting.Decl, nesting.Location = name, loc
		}
	case errors.As(err, &invalid):
		if invalid.Decl == "" {
			invalid.Decl, invalid.Location = name, loc
		}
	default:
		return &diagnostic.InvalidDeclError{Decl: name, Message: err.Error(), Location: loc}
	}

	return err
}
