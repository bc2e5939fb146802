package gen

import (
	"text/template"
)

// Header is the first line of every generated Go file.
const Header = "// Code generated by bindgen. DO NOT EDIT."

// fileData is one generated Go file: its imports and rendered declarations.
type fileData struct {
	Header  string
	Doc     string
	Package string
	Imports [][]importSpec
	Decls   []string
}

var fileTemplate = template.Must(template.New("file").Parse(`{{.Header}}

{{.Doc}}package {{.Package}}
{{if .Imports}}
import (
{{range $i, $group := .Imports}}{{if $i}}
{{end}}{{range $group}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}}{{end}})
{{end}}{{range .Decls}}
{{.}}{{end}}`))

// funcData is one generated function or method.
type funcData struct {
	Doc     string
	Recv    string
	Name    string
	Params  string
	Results string
	Body    []string
}

var funcTemplate = template.Must(template.New("func").Parse(`{{.Doc}}func {{if .Recv}}({{.Recv}}) {{end}}{{.Name}}({{.Params}}){{if .Results}} {{.Results}}{{end}} {
{{range .Body}}{{if .}}	{{.}}{{end}}
{{end}}}
`))

// classData is the wrapper type of one class.
type classData struct {
	Doc    string
	Name   string
	Native string
	Object string
	Conv   string
}

var classTemplate = template.Must(template.New("class").Parse(`{{.Doc}}type {{.Name}} struct {
	*{{.Object}}
}

// {{.Name}}Converter converts {{.Name}} values; results are owned copies.
var {{.Name}}Converter = {{.Conv}}("{{.Native}}", func(o *{{.Object}}) *{{.Name}} { return &{{.Name}}{Object: o} })
`))

// enumData is the Go type of one native enum.
type enumData struct {
	Doc    string
	Name   string
	Native string
	Items  []enumItem
	// RT qualifies runtime identifiers ("bindrt.").
	RT string
}

type enumItem struct {
	Symbol string
	Name   string
	Value  int64
}

var enumTemplate = template.Must(template.New("enum").Parse(`{{.Doc}}type {{.Name}} int64

{{if .Items}}const (
{{range .Items}}	{{.Symbol}} {{$.Name}} = {{.Value}}
{{end}})

{{end}}// {{.Name}}Enum describes the native enum {{.Native}}.
var {{.Name}}Enum = {{.RT}}NewEnumType({{printf "%q" .Native}}{{range .Items}},
	{{$.RT}}EnumItem{Name: {{printf "%q" .Name}}, Value: {{.Value}}}{{end}},
)

// {{.Name}}Converter converts {{.Name}} values. It accepts no other enum
// type, whatever its values.
var {{.Name}}Converter = {{.RT}}EnumOf[{{.Name}}]({{.Name}}Enum)

// String returns the enumerator name, or the number for values outside the
// enum.
func (v {{.Name}}) String() string {
	return {{.Name}}Enum.Format(int64(v))
}
`))

// bindingsData is the package-level overload tables and container
// converters of a unit, built in init once key capabilities are set.
type bindingsData struct {
	Vars  []bindingVar
	Keys  []string
	Convs []containerVar
	Sets  []overloadVar
}

type bindingVar struct {
	Name string
	Type string
}

// overloadVar is the overload table of one Go name.
type overloadVar struct {
	Name    string
	Type    string
	Entries []string
}

var bindingsTemplate = template.Must(template.New("bindings").Parse(`var (
{{range .Vars}}	{{.Name}} {{.Type}}
{{end}})

func init() {
{{range .Keys}}	{{.}}
{{end}}{{if and .Keys .Convs}}
{{end}}{{range .Convs}}	{{.Name}} = {{.Expr}}
{{end}}{{if and (or .Keys .Convs) .Sets}}
{{end}}{{range .Sets}}	{{.Name}} = {{.Type}}{
{{range .Entries}}		{{.}},
{{end}}	}
{{end}}}
`))
