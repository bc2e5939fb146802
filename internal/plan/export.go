package plan

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"bindgen/internal/idtable"
)

// Identities returns the identity table a unit publishes for later runs:
// its enums and wrapped classes.
func (m *ResolvedModel) Identities(unit string) *idtable.Table {
	t := &idtable.Table{Version: idtable.Version, Module: unit}

	if up := m.Unit(unit); up != nil {
		t.Package = up.Unit.Package
	}

	t.Enums = m.Enums.ForUnit(unit)

	for _, c := range m.Classes {
		if c.Unit != unit || c.Imported {
			continue
		}

		t.Classes = append(t.Classes, idtable.Class{
			Name:    c.Name,
			Native:  c.Native,
			Unit:    c.Unit,
			Package: c.Package,
			Symbol:  c.Symbol,
			Ordered: c.Ordered,
			Hashed:  c.Hashed,
		})
	}

	return t
}

// Summary is a reviewable description of a resolved run.
type Summary struct {
	Units      []UnitSummary `yaml:"units"`
	Containers []string      `yaml:"containers,omitempty"`
}

// UnitSummary describes one unit.
type UnitSummary struct {
	Module    string          `yaml:"module"`
	Package   string          `yaml:"package"`
	Failed    bool            `yaml:"failed,omitempty"`
	Enums     []string        `yaml:"enums,omitempty"`
	Classes   []ClassSummary  `yaml:"classes,omitempty"`
	Functions []CallableGroup `yaml:"functions,omitempty"`
}

// ClassSummary describes one wrapped class.
type ClassSummary struct {
	Name         string            `yaml:"name"`
	Symbol       string            `yaml:"symbol"`
	Bases        []string          `yaml:"bases,omitempty"`
	Keys         []string          `yaml:"keys,omitempty"`
	Constructors []string          `yaml:"constructors,omitempty"`
	Fields       map[string]string `yaml:"fields,omitempty"`
	Methods      []CallableGroup   `yaml:"methods,omitempty"`
	Operators    []string          `yaml:"operators,omitempty"`
	Length       string            `yaml:"length,omitempty"`
}

// CallableGroup lists the overload signatures bound under one Go name.
type CallableGroup struct {
	Name      string   `yaml:"name"`
	Inherited string   `yaml:"inherited_from,omitempty"`
	Overloads []string `yaml:"overloads"`
}

// ExportSummary describes the plans of a resolved run.
func ExportSummary(m *ResolvedModel) *Summary {
	s := &Summary{}

	for _, up := range m.Units {
		s.Units = append(s.Units, exportUnit(m, up))
	}

	for _, inst := range m.Containers.All() {
		s.Containers = append(s.Containers, inst.Key)
	}

	return s
}

// ExportSummaryYAML renders ExportSummary as YAML.
func ExportSummaryYAML(m *ResolvedModel) ([]byte, error) {
	return yaml.Marshal(ExportSummary(m))
}

func exportUnit(m *ResolvedModel, up *UnitPlan) UnitSummary {
	us := UnitSummary{
		Module:  up.Unit.Name,
		Package: up.Unit.Package,
		Failed:  m.Failed(up.Unit.Name),
	}

	for _, id := range up.Enums {
		us.Enums = append(us.Enums, id.QualifiedName())
	}

	for _, cp := range up.Classes {
		us.Classes = append(us.Classes, exportClass(cp))
	}

	for _, g := range up.Functions {
		us.Functions = append(us.Functions, exportGroup(g, nil))
	}

	return us
}

func exportClass(cp *ClassPlan) ClassSummary {
	cs := ClassSummary{
		Name:   cp.Info.Name,
		Symbol: cp.Info.Symbol,
	}

	for _, b := range cp.Bases {
		cs.Bases = append(cs.Bases, b.Name)
	}

	if cp.Info.Ordered {
		cs.Keys = append(cs.Keys, "ordered")
	}

	if cp.Info.Hashed {
		cs.Keys = append(cs.Keys, "hashed")
	}

	if cp.Constructors != nil {
		cs.Constructors = exportGroup(cp.Constructors, nil).Overloads
	}

	if len(cp.Fields) > 0 {
		cs.Fields = map[string]string{}
		for _, f := range cp.Fields {
			cs.Fields[f.GoName] = describe(f.Plan)
		}
	}

	for _, g := range cp.Methods {
		cs.Methods = append(cs.Methods, exportGroup(g, cp.Info))
	}

	for _, g := range cp.Static {
		cs.Methods = append(cs.Methods, exportGroup(g, cp.Info))
	}

	for _, op := range cp.Operators {
		cs.Operators = append(cs.Operators, fmt.Sprintf("operator%s -> %s", op.Binding.Operator, op.Binding.GoName))
	}

	if cp.Length != nil {
		cs.Length = cp.Length.Symbol
	}

	return cs
}

func exportGroup(g *Group, owner *ClassInfo) CallableGroup {
	cg := CallableGroup{Name: g.GoName}

	if owner != nil && g.From != nil && g.From != owner {
		cg.Inherited = g.From.Name
	}

	for _, ov := range g.Overloads {
		params := make([]string, len(ov.Params))
		for i, p := range ov.Params {
			params[i] = p.Name + " " + describe(p.Plan)
		}

		sig := fmt.Sprintf("%s#%d(%s)", ov.Symbol, ov.Index, strings.Join(params, ", "))
		if ov.Result != nil {
			sig += " " + describe(ov.Result)
		}

		cg.Overloads = append(cg.Overloads, sig)
	}

	return cg
}

// describe renders a plan as "type [strategy]".
func describe(p *ConversionPlan) string {
	if p.IsVoid() {
		return "void"
	}

	s := p.Type.String() + " [" + p.Strategy.String()
	if p.Buffer != BufferNone {
		s += ", buffer"
	}

	return s + "]"
}
