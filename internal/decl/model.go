package decl

import (
	"strings"

	"bindgen/internal/diagnostic"
)

// Model is the ordered set of generation units of one run.
type Model struct {
	Units []*Unit
}

// Unit returns the unit with the given name, or nil.
func (m *Model) Unit(name string) *Unit {
	for _, u := range m.Units {
		if u.Name == name {
			return u
		}
	}

	return nil
}

// Unit is one interface-description file. Each unit becomes one Go package.
type Unit struct {
	// Name is the native module name ("EnumProvider").
	Name string `yaml:"module"`
	// Package is the Go import path of the generated package.
	Package string `yaml:"package"`
	// PackageName overrides the Go package name (defaults to the last
	// element of Package).
	PackageName string `yaml:"package_name,omitempty"`
	// Header is the native header the declarations come from.
	Header string `yaml:"header,omitempty"`
	// Imports are identity tables of earlier runs this unit refers to.
	Imports   []string         `yaml:"imports,omitempty"`
	Classes   []*ClassDecl     `yaml:"classes,omitempty"`
	Enums     []*EnumDecl      `yaml:"enums,omitempty"`
	Functions []*MethodDecl    `yaml:"functions,omitempty"`
	Instances []*Instantiation `yaml:"instances,omitempty"`
	Doc       StringOrArray    `yaml:"doc,omitempty"`
	File      string           `yaml:"-"`
}

// Class returns the class with the given qualified name, or nil.
func (u *Unit) Class(qualified string) *ClassDecl {
	for _, c := range u.Classes {
		if c.QualifiedName() == qualified {
			return c
		}
	}

	return nil
}

// Scope is a native namespace path. It decodes from "a::b" or [a, b].
type Scope []string

// String joins the path with "::".
func (s Scope) String() string {
	return strings.Join(s, "::")
}

// Append returns a new scope with name appended.
func (s Scope) Append(name string) Scope {
	out := make(Scope, 0, len(s)+1)
	out = append(out, s...)

	return append(out, name)
}

// ClassDecl declares a native class or class template.
type ClassDecl struct {
	Name  string `yaml:"name"`
	Scope Scope  `yaml:"scope,omitempty"`
	// Template lists template parameter names; empty for plain classes.
	Template     []string      `yaml:"template,omitempty"`
	Bases        []TypeRef     `yaml:"bases,omitempty"`
	Fields       []*FieldDecl  `yaml:"fields,omitempty"`
	Constructors []*MethodDecl `yaml:"constructors,omitempty"`
	Methods      []*MethodDecl `yaml:"methods,omitempty"`
	Enums        []*EnumDecl   `yaml:"enums,omitempty"`
	// Copyable marks a class with an accessible copy constructor.
	Copyable   bool                `yaml:"copyable,omitempty"`
	Directives Directives          `yaml:"directives,omitempty"`
	Pos        diagnostic.Location `yaml:"-"`
}

// QualifiedName returns the scope-qualified class name.
func (c *ClassDecl) QualifiedName() string {
	return JoinQualified(c.Scope, c.Name)
}

// IsTemplate reports whether the class is a template.
func (c *ClassDecl) IsTemplate() bool {
	return len(c.Template) > 0
}

// InnerScope is the scope of declarations nested in the class.
func (c *ClassDecl) InnerScope() Scope {
	return c.Scope.Append(c.Name)
}

// ExposedName is the managed name: the rename directive or the native name.
func (c *ClassDecl) ExposedName() string {
	if c.Directives.Rename != "" {
		return c.Directives.Rename
	}

	return c.Name
}

// MethodsNamed returns the overload group of the given name.
func (c *ClassDecl) MethodsNamed(name string) []*MethodDecl {
	var out []*MethodDecl

	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}

	return out
}

// Param is a named callable parameter.
type Param struct {
	Name string  `yaml:"name"`
	Type TypeRef `yaml:"type"`
}

// MethodDecl declares a method, constructor or free function.
// Scope is only meaningful for free functions.
type MethodDecl struct {
	Name    string  `yaml:"name"`
	Scope   Scope   `yaml:"scope,omitempty"`
	Returns TypeRef `yaml:"returns,omitempty"`
	Params  []Param `yaml:"params,omitempty"`
	Const   bool    `yaml:"const,omitempty"`
	Static  bool    `yaml:"static,omitempty"`
	Virtual bool    `yaml:"virtual,omitempty"`
	// Group is the overload-group id, filled by the loader.
	Group      string              `yaml:"-"`
	Directives Directives          `yaml:"directives,omitempty"`
	Pos        diagnostic.Location `yaml:"-"`
}

// ExposedName is the managed name: the rename directive or the native name.
func (m *MethodDecl) ExposedName() string {
	if m.Directives.Rename != "" {
		return m.Directives.Rename
	}

	return m.Name
}

// IsOperator reports whether the method is an operator overload.
func (m *MethodDecl) IsOperator() bool {
	return strings.HasPrefix(m.Name, "operator")
}

// Signature returns the native signature, for messages.
func (m *MethodDecl) Signature() string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = p.Type.String()
	}

	sig := m.Name + "(" + strings.Join(parts, ", ") + ")"
	if m.Const {
		sig += " const"
	}

	return sig
}

// FieldDecl declares a public data member.
type FieldDecl struct {
	Name       string              `yaml:"name"`
	Type       TypeRef             `yaml:"type"`
	Directives Directives          `yaml:"directives,omitempty"`
	Pos        diagnostic.Location `yaml:"-"`
}

// EnumDecl declares a native enumeration.
type EnumDecl struct {
	Name  string       `yaml:"name"`
	Scope Scope        `yaml:"scope,omitempty"`
	Items []Enumerator `yaml:"items"`
	// Attached is set for enums nested inside a class, and Owner names that
	// class. Free enums with attach-to-owner keep Attached false but get
	// an Owner.
	Attached   bool                `yaml:"-"`
	Owner      string              `yaml:"-"`
	Directives Directives          `yaml:"directives,omitempty"`
	Pos        diagnostic.Location `yaml:"-"`
}

// QualifiedName returns the scope-qualified enum name.
func (e *EnumDecl) QualifiedName() string {
	return JoinQualified(e.Scope, e.Name)
}

// Enumerator is one named enum value. Value is always filled after loading;
// Explicit records whether the source spelled it out.
type Enumerator struct {
	Name     string `yaml:"name"`
	Value    int64  `yaml:"value"`
	Explicit bool   `yaml:"-"`
}

// Instantiation registers an explicit template instantiation under a
// managed name.
type Instantiation struct {
	Name string              `yaml:"name"`
	Of   TypeRef             `yaml:"of"`
	Pos  diagnostic.Location `yaml:"-"`
}

// BoundHint documents the expected value range of a declaration.
type BoundHint struct {
	Lower *float64 `yaml:"lower,omitempty"`
	Upper *float64 `yaml:"upper,omitempty"`
}

// Iterate names the size and element-lookup methods used for index-handle
// iteration.
type Iterate struct {
	Size string `yaml:"size"`
	At   string `yaml:"at"`
}

// Directives are per-declaration generation instructions.
type Directives struct {
	// Ignore excludes the declaration from generated bindings.
	Ignore bool `yaml:"ignore,omitempty"`
	// Rename exposes the declaration under another name.
	Rename string `yaml:"rename,omitempty"`
	// AttachToOwner binds a free enum or function under a class.
	AttachToOwner string `yaml:"attach-to-owner,omitempty"`
	// DesignateLength selects the method backing Len.
	DesignateLength bool `yaml:"designate-length,omitempty"`
	// BoundHint documents a value range without enforcing it.
	BoundHint *BoundHint `yaml:"bound-hint,omitempty"`
	// View returns const references as read-only views instead of copies.
	View bool `yaml:"view,omitempty"`
	// TransferOwnership makes a raw pointer result owned by the wrapper.
	TransferOwnership bool `yaml:"transfer-ownership,omitempty"`
	// ReleaseLock invokes the native call without the exclusivity lock.
	ReleaseLock bool `yaml:"release-lock,omitempty"`
	// Hash names the hash contributor of a class: a method or "address".
	Hash string `yaml:"hash,omitempty"`
	// Buffer exposes a numeric sequence result as a buffer or numeric view.
	Buffer  bool          `yaml:"buffer,omitempty"`
	Doc     StringOrArray `yaml:"doc,omitempty"`
	Iterate *Iterate      `yaml:"iterate,omitempty"`
}

// HashAddress is the Hash directive value selecting identity hashing.
const HashAddress = "address"
