package decl

import (
	"fmt"

	"bindgen/internal/diagnostic"
)

// Validate checks the model for declaration errors that do not need type
// resolution: missing names, duplicates and misplaced directives.
func Validate(m *Model) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}

	for _, u := range m.Units {
		validateUnit(u, diags)
	}

	return diags
}

func validateUnit(u *Unit, diags *diagnostic.Diagnostics) {
	seen := map[string]diagnostic.Location{}

	claim := func(kind, name string, loc diagnostic.Location) {
		if prev, dup := seen[name]; dup {
			diags.AddErr(u.Name, &diagnostic.InvalidDeclError{
				Decl:     name,
				Message:  fmt.Sprintf("%s %s already declared at %s", kind, name, prev),
				Location: loc,
			})

			return
		}

		seen[name] = loc
	}

	for _, e := range u.Enums {
		claim("enum", e.QualifiedName(), e.Pos)
		validateEnum(u, e, diags)
	}

	for _, c := range u.Classes {
		claim("class", c.QualifiedName(), c.Pos)
		validateClass(u, c, diags)
	}

	for _, in := range u.Instances {
		claim("instance", in.Name, in.Pos)

		if in.Name == "" || len(in.Of.Args) == 0 {
			diags.AddErr(u.Name, &diagnostic.InvalidDeclError{
				Decl:     in.Name,
				Message:  "instantiation needs a name and a template with arguments",
				Location: in.Pos,
			})
		}
	}

	for _, f := range u.Functions {
		validateCallable(u, "", f, diags)

		if f.Directives.DesignateLength {
			invalid(u, diags, f.Name, f.Pos, "designate-length is only valid on methods")
		}
	}
}

func validateEnum(u *Unit, e *EnumDecl, diags *diagnostic.Diagnostics) {
	if e.Name == "" {
		invalid(u, diags, e.QualifiedName(), e.Pos, "enum without a name")
	}

	if len(e.Items) == 0 {
		invalid(u, diags, e.QualifiedName(), e.Pos, "enum without enumerators")
	}

	names := map[string]bool{}

	for _, it := range e.Items {
		if names[it.Name] {
			invalid(u, diags, e.QualifiedName(), e.Pos, "duplicate enumerator "+it.Name)
		}

		names[it.Name] = true
	}
}

func validateClass(u *Unit, c *ClassDecl, diags *diagnostic.Diagnostics) {
	q := c.QualifiedName()

	if c.Name == "" {
		invalid(u, diags, q, c.Pos, "class without a name")
	}

	if c.Directives.AttachToOwner != "" {
		invalid(u, diags, q, c.Pos, "attach-to-owner is only valid on free enums and functions")
	}

	if c.Directives.DesignateLength {
		invalid(u, diags, q, c.Pos, "designate-length belongs on a method")
	}

	if it := c.Directives.Iterate; it != nil && (it.Size == "" || it.At == "") {
		invalid(u, diags, q, c.Pos, "iterate needs both size and at")
	}

	for _, e := range c.Enums {
		validateEnum(u, e, diags)
	}

	for _, f := range c.Fields {
		if f.Name == "" || f.Type.IsZero() {
			invalid(u, diags, q, f.Pos, "field needs a name and a type")
		}

		checkBoundHint(u, q+"::"+f.Name, f.Pos, f.Directives.BoundHint, diags)
	}

	for _, m := range c.Constructors {
		validateCallable(u, q, m, diags)
	}

	for _, m := range c.Methods {
		validateCallable(u, q, m, diags)
	}
}

func validateCallable(u *Unit, owner string, m *MethodDecl, diags *diagnostic.Diagnostics) {
	name := m.Name
	if owner != "" {
		name = owner + "::" + m.Name
	}

	if m.Name == "" {
		invalid(u, diags, name, m.Pos, "callable without a name")
	}

	for _, p := range m.Params {
		if p.Type.IsZero() {
			invalid(u, diags, name, m.Pos, "parameter "+p.Name+" has no type")
		}

		if p.Type.IsVoid() {
			invalid(u, diags, name, m.Pos, "parameter "+p.Name+" has type void")
		}
	}

	checkBoundHint(u, name, m.Pos, m.Directives.BoundHint, diags)
}

func checkBoundHint(u *Unit, name string, loc diagnostic.Location, h *BoundHint, diags *diagnostic.Diagnostics) {
	if h == nil {
		return
	}

	if h.Lower == nil && h.Upper == nil {
		diags.AddWarning(diagnostic.CodeInvalidDecl, "bound-hint without bounds is ignored", name, loc)
		return
	}

	if h.Lower != nil && h.Upper != nil && *h.Lower > *h.Upper {
		invalid(u, diags, name, loc, fmt.Sprintf("bound-hint lower %v exceeds upper %v", *h.Lower, *h.Upper))
	}
}

func invalid(u *Unit, diags *diagnostic.Diagnostics, name string, loc diagnostic.Location, msg string) {
	diags.AddErr(u.Name, &diagnostic.InvalidDeclError{Decl: name, Message: msg, Location: loc})
}
