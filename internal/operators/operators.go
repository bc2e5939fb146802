package operators

import (
	"fmt"
	"strings"

	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/match"
	"bindgen/primitive"
)

// Kind classifies a mapped operator.
type Kind int

const (
	KindArithmetic Kind = iota
	KindCompound
	KindComparison
	KindConversion
	KindUnary
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindArithmetic:
		return "arithmetic"
	case KindCompound:
		return "compound"
	case KindComparison:
		return "comparison"
	case KindConversion:
		return "conversion"
	case KindUnary:
		return "unary"
	default:
		return "unknown"
	}
}

var binaryNames = map[string]string{
	"+":  "Add",
	"-":  "Sub",
	"*":  "Mul",
	"/":  "Div",
	"%":  "Rem",
	"<<": "Shl",
	">>": "Shr",
	"&":  "And",
	"|":  "Or",
	"^":  "Xor",
}

// Binding is one operator bound as a Go method.
type Binding struct {
	// Operator is the native spelling without the "operator" keyword:
	// "+", "+=", "==", "<", or the conversion target type.
	Operator string
	// GoName is the Go method name.
	GoName string
	Kind   Kind
	Method *decl.MethodDecl
	// Target is the conversion target for conversion operators.
	Target decl.TypeRef
}

// Bindings is the operator table of one class.
type Bindings struct {
	Class string
	Ops   []Binding
	// Ordered is set when the class declares operator<.
	Ordered bool
	// Equatable is set when the class declares operator==.
	Equatable bool
	// Hash is the hash contributor: a method name or decl.HashAddress.
	Hash string
}

// Hashable reports whether the class can key a hash container.
func (b Bindings) Hashable() bool {
	return b.Equatable && b.Hash != ""
}

// Named returns the bindings mapped to a Go method name, in declaration
// order. More than one means an overload set.
func (b Bindings) Named(goName string) []Binding {
	var out []Binding

	for _, op := range b.Ops {
		if op.GoName == goName {
			out = append(out, op)
		}
	}

	return out
}

// GoNames returns the distinct Go method names in declaration order.
func (b Bindings) GoNames() []string {
	var (
		out  []string
		seen = map[string]bool{}
	)

	for _, op := range b.Ops {
		if !seen[op.GoName] {
			seen[op.GoName] = true
			out = append(out, op.GoName)
		}
	}

	return out
}

// IsOperator reports whether a method name spells an operator.
func IsOperator(name string) bool {
	rest, ok := strings.CutPrefix(name, "operator")
	if !ok || rest == "" {
		return false
	}

	r := rest[0]

	return r == ' ' || !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}

// MapOperators builds the operator table of a class. Operators outside the
// eligible set, or with an arity that has no mapping, are skipped with a
// warning; a broken hash directive is an error.
func MapOperators(c *decl.ClassDecl) (Bindings, []diagnostic.Diagnostic) {
	b := Bindings{Class: c.QualifiedName(), Hash: c.Directives.Hash}

	var diags []diagnostic.Diagnostic

	skip := func(m *decl.MethodDecl, why string) {
		diags = append(diags, diagnostic.Diagnostic{
			Severity: diagnostic.DiagnosticWarning,
			Code:     diagnostic.CodeSkippedOperator,
			Message:  fmt.Sprintf("%s skipped: %s", m.Name, why),
			Decl:     b.Class + "::" + m.Name,
			Location: m.Pos,
		})
	}

	for _, m := range c.Methods {
		if !IsOperator(m.Name) {
			continue
		}

		if m.Directives.Ignore {
			diags = append(diags, diagnostic.Diagnostic{
				Severity: diagnostic.DiagnosticInfo,
				Code:     diagnostic.CodeIgnoredDecl,
				Message:  m.Name + " ignored",
				Decl:     b.Class + "::" + m.Name,
				Location: m.Pos,
			})

			continue
		}

		if m.Static {
			skip(m, "static operators have no receiver")
			continue
		}

		binding, why := mapOne(m)
		if why != "" {
			skip(m, why)
			continue
		}

		switch binding.Operator {
		case "<":
			b.Ordered = true
		case "==":
			b.Equatable = true
		}

		b.Ops = append(b.Ops, binding)
	}

	diags = append(diags, checkHash(c, &b)...)

	return b, diags
}

func mapOne(m *decl.MethodDecl) (Binding, string) {
	sym := strings.TrimSpace(strings.TrimPrefix(m.Name, "operator"))
	arity := len(m.Params)
	binding := Binding{Operator: sym, Method: m}

	if name, ok := binaryNames[sym]; ok {
		switch {
		case arity == 1:
			binding.GoName, binding.Kind = name, KindArithmetic
		case arity == 0 && sym == "-":
			binding.GoName, binding.Kind = "Neg", KindUnary
		default:
			return binding, fmt.Sprintf("unary operator%s has no Go mapping", sym)
		}

		return binding, ""
	}

	if base, ok := strings.CutSuffix(sym, "="); ok {
		if name, ok := binaryNames[base]; ok {
			if arity != 1 {
				return binding, "compound assignment needs one operand"
			}

			binding.GoName, binding.Kind = name+"Assign", KindCompound

			return binding, ""
		}
	}

	switch sym {
	case "==":
		if arity != 1 {
			return binding, "operator== needs one operand"
		}

		binding.GoName, binding.Kind = "Equal", KindComparison

		return binding, ""

	case "<":
		if arity != 1 {
			return binding, "operator< needs one operand"
		}

		binding.GoName, binding.Kind = "Less", KindComparison

		return binding, ""
	}

	if word, _, _ := strings.Cut(sym, " "); word == "new" || word == "delete" {
		return binding, "allocation operators are not bindable"
	}

	if sym == "" || !isWordStart(sym[0]) {
		return binding, "operator" + sym + " is not bindable"
	}

	if arity != 0 {
		return binding, "conversion operators take no operands"
	}

	target, err := decl.ParseTypeRef(sym)
	if err != nil {
		return binding, err.Error()
	}

	binding.Target = target
	binding.Kind = KindConversion
	binding.GoName = conversionName(target)

	return binding, ""
}

func conversionName(t decl.TypeRef) string {
	if k, ok := primitive.Lookup(t.Bare().Name); ok && k != primitive.KindVoid {
		return k.Converter()
	}

	_, last := t.SplitName()

	return "To" + match.Exported(last)
}

func isWordStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func checkHash(c *decl.ClassDecl, b *Bindings) []diagnostic.Diagnostic {
	if b.Hash == "" || b.Hash == decl.HashAddress {
		return nil
	}

	fail := func(msg string) []diagnostic.Diagnostic {
		err := &diagnostic.InvalidDeclError{Decl: b.Class, Message: msg, Location: c.Pos}
		b.Hash = ""

		return []diagnostic.Diagnostic{{
			Severity: diagnostic.DiagnosticError,
			Code:     diagnostic.CodeInvalidDecl,
			Message:  msg,
			Decl:     b.Class,
			Location: c.Pos,
			Err:      err,
		}}
	}

	var found *decl.MethodDecl

	for _, m := range c.MethodsNamed(b.Hash) {
		if len(m.Params) == 0 {
			found = m
		}
	}

	if found == nil {
		return fail(fmt.Sprintf("hash method %s is not a zero-argument method of %s", b.Hash, b.Class))
	}

	k, ok := primitive.Lookup(found.Returns.Bare().Name)
	if !ok || !k.IsInteger() {
		return fail(fmt.Sprintf("hash method %s must return an integer, not %s", b.Hash, found.Returns))
	}

	return nil
}
