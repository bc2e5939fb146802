package decl

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"bindgen/internal/diagnostic"
)

// LoadFile loads and parses an interface-description file.
func LoadFile(filename string) (*Unit, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface file %s: %w", filename, err)
	}

	return Parse(data, filename)
}

// LoadModel loads every file into one model, in order.
func LoadModel(filenames ...string) (*Model, error) {
	m := &Model{}

	for _, f := range filenames {
		u, err := LoadFile(f)
		if err != nil {
			return nil, err
		}

		if m.Unit(u.Name) != nil {
			return nil, fmt.Errorf("%s: module %q declared twice", f, u.Name)
		}

		m.Units = append(m.Units, u)
	}

	return m, nil
}

// Parse parses YAML data into a Unit. filename is only used for locations
// and messages.
func Parse(data []byte, filename string) (*Unit, error) {
	var u Unit

	err := yaml.Unmarshal(data, &u)
	if err != nil {
		return nil, fmt.Errorf("failed to parse interface YAML %s: %w", filename, err)
	}

	u.File = filename

	if err := applyDefaults(&u); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return &u, nil
}

// applyDefaults fills in default values, attaches nested enums to their
// class and assigns implicit enumerator values.
func applyDefaults(u *Unit) error {
	if u.Name == "" {
		return fmt.Errorf("missing module name")
	}

	if u.Package == "" {
		u.Package = strings.ToLower(u.Name)
	}

	if u.PackageName == "" {
		u.PackageName = path.Base(u.Package)
	}

	at := func(loc *diagnostic.Location) {
		loc.File = u.File
	}

	for _, e := range u.Enums {
		at(&e.Pos)
		e.Owner = e.Directives.AttachToOwner
		numberEnumerators(e)
	}

	for _, f := range u.Functions {
		at(&f.Pos)
		defaultCallable(f)
	}

	for _, in := range u.Instances {
		at(&in.Pos)
	}

	for _, c := range u.Classes {
		at(&c.Pos)

		for _, e := range c.Enums {
			at(&e.Pos)

			e.Scope = c.InnerScope()
			e.Attached = true
			e.Owner = c.QualifiedName()
			numberEnumerators(e)
		}

		for _, f := range c.Fields {
			at(&f.Pos)
		}

		for _, m := range c.Constructors {
			at(&m.Pos)
			defaultCallable(m)
			m.Name = c.Name
			m.Group = c.Name
			m.Returns = Void
		}

		for _, m := range c.Methods {
			at(&m.Pos)
			defaultCallable(m)
		}
	}

	return nil
}

func defaultCallable(m *MethodDecl) {
	if m.Returns.IsZero() {
		m.Returns = Void
	}

	m.Group = m.Name

	for i := range m.Params {
		if m.Params[i].Name == "" {
			m.Params[i].Name = fmt.Sprintf("arg%d", i)
		}
	}
}

// numberEnumerators assigns C++-style implicit values: the first
// enumerator defaults to zero, every other to its predecessor plus one.
func numberEnumerators(e *EnumDecl) {
	var next int64

	for i := range e.Items {
		it := &e.Items[i]
		if !it.Explicit {
			it.Value = next
		}

		next = it.Value + 1
	}
}
