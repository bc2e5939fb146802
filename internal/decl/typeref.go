package decl

import (
	"fmt"
	"strings"
	"unicode"
)

// RefKind is the reference/pointer marker of a type expression.
type RefKind int

const (
	RefNone RefKind = iota
	RefLValue
	RefPointer
)

// String returns the native marker for the kind.
func (k RefKind) String() string {
	switch k {
	case RefLValue:
		return "&"
	case RefPointer:
		return "*"
	default:
		return ""
	}
}

// TypeRef is a native type expression.
type TypeRef struct {
	// Name is the base name, possibly scope-qualified ("Foo::E", "std::vector").
	Name string
	// Args are the ordered template arguments.
	Args []TypeRef
	// Const is the top-level const qualifier.
	Const bool
	// Ref is the reference/pointer marker.
	Ref RefKind
}

// Void is the type of callables without a result.
var Void = TypeRef{Name: "void"}

// IsZero reports whether the reference is unset.
func (t TypeRef) IsZero() bool {
	return t.Name == ""
}

// IsVoid reports whether the type is a plain void.
func (t TypeRef) IsVoid() bool {
	return t.Name == "void" && t.Ref == RefNone
}

// Bare returns the type with const and reference markers stripped.
// Template arguments are kept as written.
func (t TypeRef) Bare() TypeRef {
	t.Const = false
	t.Ref = RefNone

	return t
}

// SplitName splits the base name into its scope path and final name.
func (t TypeRef) SplitName() ([]string, string) {
	return SplitQualified(t.Name)
}

// String returns the canonical native spelling.
func (t TypeRef) String() string {
	var b strings.Builder
	if t.Const {
		b.WriteString("const ")
	}

	b.WriteString(t.Name)

	if len(t.Args) > 0 {
		b.WriteByte('<')

		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(a.String())
		}

		b.WriteByte('>')
	}

	b.WriteString(t.Ref.String())

	return b.String()
}

// Substitute replaces template parameter names by their bound types.
// Markers on the parameter use site are merged onto the substituted type.
func (t TypeRef) Substitute(bindings map[string]TypeRef) TypeRef {
	if len(bindings) == 0 {
		return t
	}

	if bound, ok := bindings[t.Name]; ok && len(t.Args) == 0 {
		out := bound.clone()
		out.Const = out.Const || t.Const

		if t.Ref != RefNone {
			out.Ref = t.Ref
		}

		return out
	}

	out := t
	out.Args = make([]TypeRef, len(t.Args))

	for i, a := range t.Args {
		out.Args[i] = a.Substitute(bindings)
	}

	return out
}

func (t TypeRef) clone() TypeRef {
	out := t
	if len(t.Args) > 0 {
		out.Args = make([]TypeRef, len(t.Args))
		for i, a := range t.Args {
			out.Args[i] = a.clone()
		}
	}

	return out
}

// SplitQualified splits "a::b::C" into ([a b], C).
func SplitQualified(name string) ([]string, string) {
	parts := strings.Split(name, "::")
	if len(parts) == 1 {
		return nil, name
	}

	return parts[:len(parts)-1], parts[len(parts)-1]
}

// JoinQualified joins a scope path and name with "::".
func JoinQualified(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}

	return strings.Join(scope, "::") + "::" + name
}

// MustParseTypeRef is like ParseTypeRef but panics on error.
func MustParseTypeRef(s string) TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}

	return t
}

// ParseTypeRef parses a native type expression such as
// "const std::map<std::string, std::vector<int>>&".
func ParseTypeRef(s string) (TypeRef, error) {
	p := &typeParser{toks: lexType(s), src: s}

	t, err := p.parseType()
	if err != nil {
		return TypeRef{}, err
	}

	if !p.done() {
		return TypeRef{}, fmt.Errorf("type %q: unexpected %q", s, p.peek())
	}

	return t, nil
}

type typeParser struct {
	toks []string
	pos  int
	src  string
}

func (p *typeParser) done() bool   { return p.pos >= len(p.toks) }
func (p *typeParser) peek() string { return p.toks[p.pos] }

func (p *typeParser) next() string {
	tok := p.toks[p.pos]
	p.pos++

	return tok
}

func (p *typeParser) parseType() (TypeRef, error) {
	var t TypeRef

	if !p.done() && p.peek() == "const" {
		p.next()

		t.Const = true
	}

	var words []string

	for !p.done() && isIdentToken(p.peek()) && p.peek() != "const" {
		words = append(words, p.next())
	}

	if len(words) == 0 {
		if p.done() {
			return TypeRef{}, fmt.Errorf("type %q: missing type name", p.src)
		}

		return TypeRef{}, fmt.Errorf("type %q: unexpected %q", p.src, p.peek())
	}

	t.Name = strings.Join(words, " ")

	if !p.done() && p.peek() == "<" {
		p.next()

		args, err := p.parseArgs()
		if err != nil {
			return TypeRef{}, err
		}

		t.Args = args
	}

	// East const: "Foo const&".
	if !p.done() && p.peek() == "const" {
		p.next()

		t.Const = true
	}

	if !p.done() && (p.peek() == "&" || p.peek() == "*") {
		if p.next() == "&" {
			t.Ref = RefLValue
		} else {
			t.Ref = RefPointer
		}

		if !p.done() && (p.peek() == "&" || p.peek() == "*") {
			return TypeRef{}, fmt.Errorf("type %q: multi-level pointers and references are not supported", p.src)
		}
	}

	return t, nil
}

func (p *typeParser) parseArgs() ([]TypeRef, error) {
	args := []TypeRef{}

	if !p.done() && p.peek() == ">" {
		p.next()
		return args, nil
	}

	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if p.done() {
			return nil, fmt.Errorf("type %q: unterminated template argument list", p.src)
		}

		switch p.next() {
		case ",":
			continue
		case ">":
			return args, nil
		default:
			return nil, fmt.Errorf("type %q: malformed template argument list", p.src)
		}
	}
}

func isIdentToken(tok string) bool {
	r := []rune(tok)[0]
	return unicode.IsLetter(r) || r == '_' || unicode.IsDigit(r)
}

// lexType splits a type expression into identifiers (with "::" kept inside
// them) and the punctuation < > , & *.
func lexType(s string) []string {
	var (
		toks []string
		cur  strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == ':' && i+1 < len(runes) && runes[i+1] == ':':
			cur.WriteString("::")
			i++
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			toks = append(toks, string(r))
		}
	}

	flush()

	return toks
}
