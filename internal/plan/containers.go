package plan

import (
	"fmt"
	"slices"
	"strings"

	"bindgen/internal/common"
	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
)

type containerTemplate struct {
	kind  ContainerKind
	arity int
}

var containerTemplates = map[string]containerTemplate{
	"vector":        {ContainerSequence, 1},
	"list":          {ContainerSequence, 1},
	"deque":         {ContainerSequence, 1},
	"set":           {ContainerOrderedSet, 1},
	"unordered_set": {ContainerHashSet, 1},
	"map":           {ContainerOrderedMap, 2},
	"unordered_map": {ContainerHashMap, 2},
	"pair":          {ContainerPair, 2},
	"optional":      {ContainerOptional, 1},
	"unique_ptr":    {ContainerOwnedHandle, 1},
	"shared_ptr":    {ContainerSharedHandle, 1},
}

// LookupContainer returns the container family of a template name. The
// std:: qualifier and the libcpp_ alias prefix are accepted.
func LookupContainer(name string) (ContainerKind, int, bool) {
	name = strings.TrimPrefix(name, "std::")
	name = strings.TrimPrefix(name, "libcpp_")

	t, ok := containerTemplates[name]

	return t.kind, t.arity, ok
}

// ContainerNames lists the accepted container template names.
func ContainerNames() []string {
	return common.SortedKeys(containerTemplates)
}

// ContainerInstantiation is one container shape used by the run.
type ContainerInstantiation struct {
	// Key is the native key: template family and element identities.
	Key   string
	Kind  ContainerKind
	Elems []decl.TypeRef
	Plan  *ConversionPlan
	// Units lists the units using the instantiation.
	Units []string
}

// Containers records every container instantiation of a run, keyed by
// template and argument signature.
type Containers struct {
	byKey map[string]*ContainerInstantiation
}

// NewContainers returns an empty container registry.
func NewContainers() *Containers {
	return &Containers{byKey: map[string]*ContainerInstantiation{}}
}

// Record adds a container plan used by unit. Recording the same
// instantiation twice keeps one entry.
func (c *Containers) Record(p *ConversionPlan, unit string) *ContainerInstantiation {
	key := p.NativeKey()

	inst, ok := c.byKey[key]
	if !ok {
		inst = &ContainerInstantiation{Key: key, Kind: p.Container, Plan: p}
		for _, e := range p.Elems {
			inst.Elems = append(inst.Elems, e.Type)
		}

		c.byKey[key] = inst
	}

	if unit != "" && !slices.Contains(inst.Units, unit) {
		inst.Units = append(inst.Units, unit)
	}

	return inst
}

// Lookup returns a recorded instantiation.
func (c *Containers) Lookup(key string) (*ContainerInstantiation, bool) {
	inst, ok := c.byKey[key]
	return inst, ok
}

// All returns the instantiations sorted by key.
func (c *Containers) All() []*ContainerInstantiation {
	out := make([]*ContainerInstantiation, 0, len(c.byKey))
	for _, k := range common.SortedKeys(c.byKey) {
		out = append(out, c.byKey[k])
	}

	return out
}

// ForUnit returns the instantiations a unit uses, sorted by key.
func (c *Containers) ForUnit(unit string) []*ContainerInstantiation {
	var out []*ContainerInstantiation

	for _, inst := range c.All() {
		if slices.Contains(inst.Units, unit) {
			out = append(out, inst)
		}
	}

	return out
}

// composeContainer checks the element plans of a container and builds its
// plan. t is the bare container type.
func composeContainer(t decl.TypeRef, kind ContainerKind, elems []*ConversionPlan, dir Direction) (*ConversionPlan, error) {
	nesting := func(i int, reason string) error {
		return &diagnostic.UnsupportedContainerNestingError{
			Container: t.String(),
			Element:   t.Args[i].String(),
			Reason:    reason,
		}
	}

	for i, e := range elems {
		if e.IsVoid() {
			return nil, nesting(i, "void elements")
		}

		if e.Strategy.IsView() {
			return nil, nesting(i, "references cannot be stored in containers")
		}
	}

	switch kind {
	case ContainerOrderedSet, ContainerOrderedMap:
		if !elems[0].Ordered() {
			return nil, nesting(0, "key type has no ordering (operator<)")
		}
	case ContainerHashSet, ContainerHashMap:
		if !elems[0].Hashed() {
			return nil, nesting(0, "key type is not hashable (operator== and a hash directive)")
		}
	case ContainerOwnedHandle, ContainerSharedHandle:
		e := elems[0]
		if e.Category != CategoryClass || e.Strategy != StrategyValueCopy {
			return nil, nesting(0, "smart pointers hold wrapped classes only")
		}
	}

	p := &ConversionPlan{
		Type:      t,
		Direction: dir,
		Category:  CategoryContainer,
		Container: kind,
		Elems:     elems,
	}

	switch kind {
	case ContainerOwnedHandle:
		p.Strategy = StrategyMovedOwnership
	case ContainerSharedHandle:
		p.Strategy = StrategyShared
		p.ReadOnly = t.Args[0].Const
	}

	return p, nil
}

// checkArity reports a template argument count that does not match.
func checkArity(t decl.TypeRef, want int) error {
	if len(t.Args) == want {
		return nil
	}

	return &diagnostic.UnresolvedTypeError{
		Type:   t.String(),
		Name:   t.Name,
		Reason: fmt.Sprintf("wrong template arity: want %d arguments, got %d", want, len(t.Args)),
	}
}
