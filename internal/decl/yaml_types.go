package decl

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bindgen/internal/common"
)

// StringOrArray decodes from a single string or a list of strings.
type StringOrArray []string

// UnmarshalYAML accepts either a single string or an array of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("line %d: expected string or array, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or empty string if empty.
func (s StringOrArray) First() string {
	if v, ok := common.First(s); ok {
		return v
	}

	return ""
}

// IsEmpty returns true if the array is empty.
func (s StringOrArray) IsEmpty() bool {
	return common.IsEmpty(s)
}

// --- TypeRef ---

// UnmarshalYAML parses a native type expression from a scalar.
func (t *TypeRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: type must be a string", node.Line)
	}

	parsed, err := ParseTypeRef(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*t = parsed

	return nil
}

// MarshalYAML writes the canonical native spelling.
func (t TypeRef) MarshalYAML() (any, error) {
	return t.String(), nil
}

// --- Scope ---

// UnmarshalYAML accepts "a::b" or [a, b].
func (s *Scope) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			*s = nil
			return nil
		}

		*s = strings.Split(node.Value, "::")

		return nil

	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return err
		}

		*s = parts

		return nil

	default:
		return fmt.Errorf("line %d: scope must be a string or a list", node.Line)
	}
}

// --- Declarations with positions ---

// UnmarshalYAML decodes the class and records its line.
func (c *ClassDecl) UnmarshalYAML(node *yaml.Node) error {
	type raw ClassDecl

	if err := node.Decode((*raw)(c)); err != nil {
		return err
	}

	c.Pos.Line = node.Line

	return nil
}

// UnmarshalYAML decodes the callable and records its line.
func (m *MethodDecl) UnmarshalYAML(node *yaml.Node) error {
	type raw MethodDecl

	if err := node.Decode((*raw)(m)); err != nil {
		return err
	}

	m.Pos.Line = node.Line

	return nil
}

// UnmarshalYAML decodes the field and records its line.
func (f *FieldDecl) UnmarshalYAML(node *yaml.Node) error {
	type raw FieldDecl

	if err := node.Decode((*raw)(f)); err != nil {
		return err
	}

	f.Pos.Line = node.Line

	return nil
}

// UnmarshalYAML decodes the enum and records its line.
func (e *EnumDecl) UnmarshalYAML(node *yaml.Node) error {
	type raw EnumDecl

	if err := node.Decode((*raw)(e)); err != nil {
		return err
	}

	e.Pos.Line = node.Line

	return nil
}

// UnmarshalYAML accepts "x" (type only), or {name: x, type: T}.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return p.Type.UnmarshalYAML(node)
	}

	type raw Param

	return node.Decode((*raw)(p))
}

// UnmarshalYAML accepts "NAME", "NAME = 3" or {name: NAME, value: 3}.
func (e *Enumerator) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		name, value, found := strings.Cut(node.Value, "=")
		e.Name = strings.TrimSpace(name)

		if found {
			v, err := strconv.ParseInt(strings.TrimSpace(value), 0, 64)
			if err != nil {
				return fmt.Errorf("line %d: enumerator %s: invalid value %q", node.Line, e.Name, strings.TrimSpace(value))
			}

			e.Value = v
			e.Explicit = true
		}

		return nil

	case yaml.MappingNode:
		var raw struct {
			Name  string `yaml:"name"`
			Value *int64 `yaml:"value"`
		}

		if err := node.Decode(&raw); err != nil {
			return err
		}

		e.Name = raw.Name
		if raw.Value != nil {
			e.Value = *raw.Value
			e.Explicit = true
		}

		return nil

	default:
		return fmt.Errorf("line %d: enumerator must be a string or a mapping", node.Line)
	}
}

// UnmarshalYAML accepts "Name := Template<args>" or {name: Name, of: T}.
func (in *Instantiation) UnmarshalYAML(node *yaml.Node) error {
	in.Pos.Line = node.Line

	switch node.Kind {
	case yaml.ScalarNode:
		name, of, found := strings.Cut(node.Value, ":=")
		if !found {
			return fmt.Errorf("line %d: instantiation %q: expected \"Name := Template<args>\"", node.Line, node.Value)
		}

		t, err := ParseTypeRef(strings.TrimSpace(of))
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		in.Name = strings.TrimSpace(name)
		in.Of = t

		return nil

	case yaml.MappingNode:
		type raw Instantiation

		if err := node.Decode((*raw)(in)); err != nil {
			return err
		}

		in.Pos.Line = node.Line

		return nil

	default:
		return fmt.Errorf("line %d: instantiation must be a string or a mapping", node.Line)
	}
}

// --- Directives ---

var directiveKeys = []string{
	"attach-to-owner", "bound-hint", "buffer", "designate-length", "doc",
	"hash", "ignore", "iterate", "release-lock", "rename",
	"transfer-ownership", "view",
}

var flagDirectives = map[string]func(*Directives){
	"ignore":             func(d *Directives) { d.Ignore = true },
	"designate-length":   func(d *Directives) { d.DesignateLength = true },
	"view":               func(d *Directives) { d.View = true },
	"transfer-ownership": func(d *Directives) { d.TransferOwnership = true },
	"release-lock":       func(d *Directives) { d.ReleaseLock = true },
	"buffer":             func(d *Directives) { d.Buffer = true },
}

// ErrUnknownDirective is returned for directive names the generator does
// not understand.
var ErrUnknownDirective = errors.New("unknown directive")

// UnmarshalYAML accepts a mapping of directives, or a list of flag
// directive names ([ignore, view]).
func (d *Directives) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			set, ok := flagDirectives[item.Value]
			if item.Kind != yaml.ScalarNode || !ok {
				return fmt.Errorf("line %d: %w %q", item.Line, ErrUnknownDirective, item.Value)
			}

			set(d)
		}

		return nil

	case yaml.MappingNode:
		for i := 0; i < len(node.Content); i += 2 {
			key := node.Content[i]
			if !slices.Contains(directiveKeys, key.Value) {
				return fmt.Errorf("line %d: %w %q", key.Line, ErrUnknownDirective, key.Value)
			}
		}

		type raw Directives

		return node.Decode((*raw)(d))

	default:
		return fmt.Errorf("line %d: directives must be a mapping or a list", node.Line)
	}
}
