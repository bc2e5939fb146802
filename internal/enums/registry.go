package enums

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tliron/commonlog"

	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/match"
)

var log = commonlog.GetLogger("bindgen.enums")

var (
	// ErrSealed is returned when registering after the first pass.
	ErrSealed = errors.New("enum registry is sealed")
	// ErrNotSealed is returned when resolving before the first pass ended.
	ErrNotSealed = errors.New("enum registry is not sealed yet")
)

// Item is one enumerator of an identity.
type Item struct {
	Name   string `cbor:"name"`
	Value  int64  `cbor:"value"`
	Symbol string `cbor:"symbol"`
}

// Identity is a registered enum.
type Identity struct {
	Scope []string `cbor:"scope"`
	Name  string   `cbor:"name"`
	// Unit is the generation unit declaring the enum.
	Unit string `cbor:"unit"`
	// Package is the Go import path of the package holding the enum table.
	Package string `cbor:"package"`
	// Symbol is the Go type name of the enum; the descriptor and converter
	// variables are Symbol+"Enum" and Symbol+"Converter".
	Symbol string `cbor:"symbol"`
	// Owner is the class the enum is bound under, if any.
	Owner    string `cbor:"owner,omitempty"`
	Attached bool   `cbor:"attached,omitempty"`
	Items    []Item `cbor:"items"`

	Imported bool           `cbor:"-"`
	Decl     *decl.EnumDecl `cbor:"-"`
}

// QualifiedName returns "scope::Name".
func (id *Identity) QualifiedName() string {
	return decl.JoinQualified(id.Scope, id.Name)
}

// Key is the identity key used in overload signatures.
func (id *Identity) Key() string {
	return "enum:" + id.QualifiedName()
}

// Item returns the enumerator with the given name.
func (id *Identity) Item(name string) (Item, bool) {
	for _, it := range id.Items {
		if it.Name == name {
			return it, true
		}
	}

	return Item{}, false
}

// Registry maps qualified enum names to identities.
type Registry struct {
	byName  map[string]*Identity
	symbols map[string]*Identity
	order   []*Identity
	sealed  bool
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  map[string]*Identity{},
		symbols: map[string]*Identity{},
	}
}

// Register records an enum declared in unit. Attached enums, and free enums
// bound to a class with attach-to-owner, are also reachable through their
// owner's name.
func (r *Registry) Register(e *decl.EnumDecl, unit *decl.Unit) (*Identity, error) {
	id := &Identity{
		Scope:    slices.Clone([]string(e.Scope)),
		Name:     e.Name,
		Unit:     unit.Name,
		Package:  unit.Package,
		Symbol:   Symbol(e, unit),
		Owner:    e.Owner,
		Attached: e.Attached,
		Decl:     e,
	}

	for _, it := range e.Items {
		id.Items = append(id.Items, Item{
			Name:   it.Name,
			Value:  it.Value,
			Symbol: id.Symbol + match.PascalCase(it.Name),
		})
	}

	if err := r.add(id, e.Pos); err != nil {
		return nil, err
	}

	return id, nil
}

// RegisterIdentity records an identity read from an identity table.
func (r *Registry) RegisterIdentity(id *Identity) error {
	id.Imported = true

	return r.add(id, diagnostic.Location{})
}

func (r *Registry) add(id *Identity, loc diagnostic.Location) error {
	if r.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrSealed, id.QualifiedName())
	}

	q := id.QualifiedName()
	if prev, dup := r.byName[q]; dup {
		return &diagnostic.InvalidDeclError{
			Decl:     q,
			Message:  fmt.Sprintf("enum %s already registered by unit %s", q, prev.Unit),
			Location: loc,
		}
	}

	sym := id.Package + "." + id.Symbol
	if prev, dup := r.symbols[sym]; dup {
		return &diagnostic.InvalidDeclError{
			Decl:     q,
			Message:  fmt.Sprintf("enum %s and %s both bind as %s", q, prev.QualifiedName(), id.Symbol),
			Location: loc,
		}
	}

	r.byName[q] = id
	r.symbols[sym] = id
	r.order = append(r.order, id)

	// A free enum attached to a class is reachable through the owner too.
	if id.Owner != "" && !id.Attached {
		alias := id.Owner + "::" + id.Name
		if _, taken := r.byName[alias]; !taken {
			r.byName[alias] = id
		}
	}

	log.Debugf("registered enum %s (%s.%s)", q, id.Package, id.Symbol)

	return nil
}

// Seal ends the registration pass.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether the registration pass ended.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// All returns the identities in registration order.
func (r *Registry) All() []*Identity {
	return slices.Clone(r.order)
}

// ForUnit returns the identities declared by a unit of this run.
func (r *Registry) ForUnit(unit string) []*Identity {
	var out []*Identity

	for _, id := range r.order {
		if id.Unit == unit && !id.Imported {
			out = append(out, id)
		}
	}

	return out
}

// Names returns every name an identity is reachable by, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

// Lookup finds name the way native name lookup does: the name (possibly
// qualified) is tried in every scope of from, innermost first, then at the
// global scope.
func (r *Registry) Lookup(name string, from []string) (*Identity, bool) {
	for _, scope := range LookupScopes(from) {
		if id, ok := r.byName[decl.JoinQualified(scope, name)]; ok {
			return id, true
		}
	}

	return nil, false
}

// Resolve is Lookup on a sealed registry, returning an
// UnresolvedEnumError when nothing matches.
func (r *Registry) Resolve(name string, from []string) (*Identity, error) {
	if !r.sealed {
		return nil, ErrNotSealed
	}

	if id, ok := r.Lookup(name, from); ok {
		return id, nil
	}

	scope, last := decl.SplitQualified(name)

	return nil, &diagnostic.UnresolvedEnumError{Scope: scope, Name: last}
}

// LookupScopes lists the scopes searched from inside scope, innermost
// first: [a b c] -> [a b c], [a b], [a], [].
func LookupScopes(scope []string) [][]string {
	out := make([][]string, 0, len(scope)+1)
	for i := len(scope); i >= 0; i-- {
		out = append(out, scope[:i])
	}

	return out
}

// Symbol is the Go name of an enum's table: the exposed name, prefixed by
// the exposed owner class name for enums bound under a class.
func Symbol(e *decl.EnumDecl, unit *decl.Unit) string {
	name := e.Name
	if e.Directives.Rename != "" {
		name = e.Directives.Rename
	}

	if e.Owner == "" {
		return match.Exported(name)
	}

	owner := e.Owner
	if c := unit.Class(e.Owner); c != nil {
		owner = c.ExposedName()
	} else {
		_, owner = decl.SplitQualified(owner)
	}

	return match.Exported(owner) + match.Exported(name)
}
