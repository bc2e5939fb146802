package plan

import (
	"fmt"
	"strings"

	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/enums"
	"bindgen/internal/match"
	"bindgen/primitive"
)

// ResolveType resolves a type as written in scope from. It is meant for
// tools inspecting a resolved run; it records no container usage.
func (r *Resolver) ResolveType(t decl.TypeRef, dir Direction, from []string) (*ConversionPlan, error) {
	unit := r.unit
	r.unit = ""

	defer func() { r.unit = unit }()

	return r.resolveShape(Shape{Type: t, Direction: dir}, from, 0)
}

// resolveShape resolves a type in a callable or field position: the bare
// value plan, then the ownership strategy of the markers around it.
func (r *Resolver) resolveShape(s Shape, from []string, depth int) (*ConversionPlan, error) {
	t := s.Type

	if t.IsZero() || t.IsVoid() {
		return &ConversionPlan{Type: decl.Void, Direction: s.Direction, Category: CategoryVoid}, nil
	}

	if isCString(t) {
		return &ConversionPlan{Type: t, Direction: s.Direction, Category: CategoryPrimitive, Primitive: primitive.KindString}, nil
	}

	strategy, err := Classify(s)
	if err != nil {
		return nil, &diagnostic.InvalidDeclError{Message: err.Error()}
	}

	base, err := r.resolveValue(t.Bare(), s.Direction, from, depth)
	if err != nil {
		return nil, err
	}

	if base.IsVoid() {
		return nil, &diagnostic.InvalidDeclError{Message: fmt.Sprintf("%s does not name a value", t)}
	}

	if (strategy == StrategyPointerOwned || strategy == StrategyPointerBorrowed) && base.Category != CategoryClass {
		return nil, &diagnostic.InvalidDeclError{Message: fmt.Sprintf("pointers to %s are not bindable; only wrapped classes", t.Bare())}
	}

	out := *base
	out.Type = t
	out.Strategy = strategy
	out.ReadOnly = base.ReadOnly || strategy == StrategyReadOnlyView

	if s.Directives.Buffer {
		if !isNumericSequence(base) {
			return nil, &diagnostic.InvalidDeclError{Message: fmt.Sprintf("buffer applies to sequences of numbers, not %s", t)}
		}

		switch {
		case strategy == StrategyValueCopy:
			out.Buffer = BufferOwning
		case strategy.IsView():
			out.Buffer = BufferView
		}
	}

	return &out, nil
}

func isCString(t decl.TypeRef) bool {
	return t.Ref == decl.RefPointer && t.Const && len(t.Args) == 0 && primitive.Normalize(t.Name) == "char"
}

func isNumericSequence(p *ConversionPlan) bool {
	if p.Category != CategoryContainer || p.Container != ContainerSequence {
		return false
	}

	e := p.Elems[0]

	return e.Category == CategoryPrimitive && e.Primitive.IsNumber() && e.Strategy == StrategyValueCopy
}

// resolveValue resolves a bare type into a value-copy plan. Plans are
// cached per lookup scope and direction; a cache hit still records the
// containers used by the current unit.
func (r *Resolver) resolveValue(t decl.TypeRef, dir Direction, from []string, depth int) (*ConversionPlan, error) {
	if r.config.MaxDepth > 0 && depth > r.config.MaxDepth {
		return nil, &diagnostic.InvalidDeclError{
			Message: fmt.Sprintf("%s nests deeper than %d levels", t, r.config.MaxDepth),
		}
	}

	key := strings.Join(from, "::") + "|" + t.String() + "|" + dir.String()
	if p, ok := r.cache[key]; ok {
		r.recordContainers(p)
		return p, nil
	}

	p, err := r.lookupValue(t, dir, from, depth)
	if err != nil {
		return nil, err
	}

	r.cache[key] = p
	r.recordContainers(p)

	return p, nil
}

func (r *Resolver) recordContainers(p *ConversionPlan) {
	if p.Category != CategoryContainer || r.unit == "" {
		return
	}

	r.containers.Record(p, r.unit)

	for _, e := range p.Elems {
		r.recordContainers(e)
	}
}

func (r *Resolver) lookupValue(t decl.TypeRef, dir Direction, from []string, depth int) (*ConversionPlan, error) {
	if len(t.Args) == 0 {
		if k, ok := primitive.Lookup(t.Name); ok {
			if k == primitive.KindVoid {
				return &ConversionPlan{Type: t, Direction: dir, Category: CategoryVoid}, nil
			}

			return &ConversionPlan{Type: t, Direction: dir, Category: CategoryPrimitive, Primitive: k}, nil
		}
	}

	if kind, arity, ok := LookupContainer(t.Name); ok && !r.declared(t.Name, from) {
		if err := checkArity(t, arity); err != nil {
			return nil, err
		}

		elems := make([]*ConversionPlan, len(t.Args))

		for i, arg := range t.Args {
			e, err := r.resolveShape(Shape{Type: arg, Direction: dir}, from, depth+1)
			if err != nil {
				return nil, err
			}

			elems[i] = e
		}

		return composeContainer(t, kind, elems, dir)
	}

	for _, scope := range enums.LookupScopes(from) {
		q := decl.JoinQualified(scope, t.Name)

		if c, ok := r.classes[q]; ok {
			if len(t.Args) > 0 {
				return nil, &diagnostic.UnresolvedTypeError{Type: t.String(), Name: t.Name, Reason: q + " is not a class template"}
			}

			return &ConversionPlan{Type: t, Direction: dir, Category: CategoryClass, Class: c}, nil
		}

		if tmpl, ok := r.templates[q]; ok {
			return r.lookupInstance(tmpl, t, dir, from)
		}

		if len(t.Args) == 0 {
			if id, ok := r.enums.Lookup(q, nil); ok {
				return &ConversionPlan{Type: t, Direction: dir, Category: CategoryEnum, Enum: id}, nil
			}
		}
	}

	return nil, r.unresolved(t, from)
}

// lookupInstance maps a template use to its registered instance.
func (r *Resolver) lookupInstance(tmpl *templateInfo, t decl.TypeRef, dir Direction, from []string) (*ConversionPlan, error) {
	if len(t.Args) == 0 {
		return nil, &diagnostic.UnresolvedTypeError{
			Type: t.String(), Name: t.Name, Reason: "class template needs template arguments",
		}
	}

	if err := checkArity(t, len(tmpl.decl.Template)); err != nil {
		return nil, err
	}

	key, _, err := r.instanceKey(tmpl.decl, t, from)
	if err != nil {
		return nil, err
	}

	inst, ok := r.instances[key]
	if !ok {
		return nil, &diagnostic.UnresolvedTypeError{
			Type:   t.String(),
			Name:   t.Name,
			Reason: "template instance " + t.String() + " is not registered; add it to instances",
		}
	}

	return &ConversionPlan{Type: t, Direction: dir, Category: CategoryClass, Class: inst}, nil
}

// declared reports whether a user declaration shadows a container name.
func (r *Resolver) declared(name string, from []string) bool {
	for _, scope := range enums.LookupScopes(from) {
		q := decl.JoinQualified(scope, name)
		if _, ok := r.classes[q]; ok {
			return true
		}

		if _, ok := r.templates[q]; ok {
			return true
		}
	}

	return false
}

// findClass looks a class name up scope-outward.
func (r *Resolver) findClass(name string, from []string) (*ClassInfo, bool) {
	for _, scope := range enums.LookupScopes(from) {
		if c, ok := r.classes[decl.JoinQualified(scope, name)]; ok {
			return c, true
		}
	}

	return nil, false
}

func (r *Resolver) unresolved(t decl.TypeRef, from []string) error {
	scope, last := decl.SplitQualified(t.Name)
	if len(scope) > 0 {
		if _, ok := r.findClass(decl.JoinQualified(scope[:len(scope)-1], scope[len(scope)-1]), from); ok {
			return &diagnostic.UnresolvedEnumError{Scope: scope, Name: last}
		}
	}

	return &diagnostic.UnresolvedTypeError{
		Type:        t.String(),
		Name:        t.Name,
		Reason:      "not a primitive, class, enum or container",
		Suggestions: match.Suggest(t.Name, r.knownNames(), r.config.MaxSuggestions),
	}
}
