package gen

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/tliron/commonlog"
	"golang.org/x/tools/imports"

	"bindgen/internal/common"
	"bindgen/internal/decl"
	"bindgen/internal/idtable"
	"bindgen/internal/plan"
)

var log = commonlog.GetLogger("bindgen.gen")

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// RuntimeImport is the import path of the bindrt package.
	RuntimeImport string
	// LocalPrefix groups imports starting with it after third-party ones.
	LocalPrefix string
	// OutputDir is where unformattable sources are dumped for debugging.
	OutputDir string
	// IdentityTables adds <unit>.bindid to every generated package.
	IdentityTables bool
	// Unformatted skips formatting.
	Unformatted bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		RuntimeImport:  "bindgen/bindrt",
		LocalPrefix:    "bindgen",
		OutputDir:      "./gen",
		IdentityTables: true,
	}
}

// Generator generates Go bindings from a resolved model.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config}
}

// GeneratedFile represents a generated file.
type GeneratedFile struct {
	// Unit is the native module the file belongs to.
	Unit string
	// Dir is the package directory, relative to the output directory.
	Dir string
	// Filename is the name of the file (e.g., "task.go").
	Filename string
	// Content is the formatted source, or the identity table.
	Content []byte
}

// Generate emits one package per unit. Units with error diagnostics emit
// nothing; their diagnostics are the caller's to report.
func (g *Generator) Generate(m *plan.ResolvedModel) ([]GeneratedFile, error) {
	names := map[string]string{}
	for _, up := range m.Units {
		names[up.Unit.Package] = PackageName(up.Unit)
	}

	var files []GeneratedFile

	for _, up := range m.Units {
		if m.Failed(up.Unit.Name) {
			log.Warningf("unit %s has errors; nothing generated", up.Unit.Name)
			continue
		}

		unitFiles, err := g.generateUnit(m, up, names)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", up.Unit.Name, err)
		}

		log.Infof("unit %s: %d files", up.Unit.Name, len(unitFiles))

		files = append(files, unitFiles...)
	}

	return files, nil
}

// reservedFiles are the fixed file names of a generated package.
var reservedFiles = map[string]bool{
	"doc.go":       true,
	"enums.go":     true,
	"functions.go": true,
	"bindings.go":  true,
}

func (g *Generator) generateUnit(m *plan.ResolvedModel, up *plan.UnitPlan, names map[string]string) ([]GeneratedFile, error) {
	u := g.newUnitGen(up, names)
	dir := common.PkgAlias(up.Unit.Package)

	var files []GeneratedFile

	emit := func(filename string, data *fileData) error {
		file, err := g.render(dir, filename, data)
		if err != nil {
			return err
		}

		file.Unit = up.Unit.Name
		files = append(files, *file)

		return nil
	}

	if err := emit("doc.go", u.docFile()); err != nil {
		return nil, err
	}

	if len(up.Enums) > 0 {
		data, err := u.enumsFile()
		if err != nil {
			return nil, err
		}

		if err := emit("enums.go", data); err != nil {
			return nil, err
		}
	}

	for _, cp := range up.Classes {
		data, err := u.classFile(cp)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cp.Info.Name, err)
		}

		name := classFilename(cp.Info.Symbol)
		if err := emit(name, data); err != nil {
			return nil, err
		}
	}

	if len(up.Functions) > 0 {
		data, err := u.functionsFile()
		if err != nil {
			return nil, err
		}

		if err := emit("functions.go", data); err != nil {
			return nil, err
		}
	}

	data, err := u.bindingsFile()
	if err != nil {
		return nil, err
	}

	if data != nil {
		if err := emit("bindings.go", data); err != nil {
			return nil, err
		}
	}

	if g.config.IdentityTables {
		table, err := idtable.Marshal(m.Identities(up.Unit.Name))
		if err != nil {
			return nil, fmt.Errorf("identity table: %w", err)
		}

		files = append(files, GeneratedFile{
			Unit:     up.Unit.Name,
			Dir:      dir,
			Filename: common.FileBase(up.Unit.Name) + ".bindid",
			Content:  table,
		})
	}

	return files, nil
}

// classFilename is the file of a class wrapper. Underscores are dropped so
// that no name reads as a build constraint suffix.
func classFilename(symbol string) string {
	base := strings.ToLower(strings.ReplaceAll(symbol, "_", ""))
	if reservedFiles[base+".go"] {
		base += "class"
	}

	return base + ".go"
}

// PackageName is the Go package name of a unit.
func PackageName(u *decl.Unit) string {
	name := u.PackageName
	if name == "" {
		name = common.PkgAlias(u.Package)
	}

	name = strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}

		return -1
	}, name)

	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "bindings" + name
	}

	return name
}

func (g *Generator) render(dir, filename string, data *fileData) (*GeneratedFile, error) {
	data.Header = Header

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	file := &GeneratedFile{Dir: dir, Filename: filename, Content: buf.Bytes()}

	if g.config.Unformatted {
		return file, nil
	}

	formatted, err := g.format(filename, buf.Bytes())
	if err != nil {
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, dir, filename, buf.Bytes())
		}

		return file, fmt.Errorf("formatting %s: %w", filename, err)
	}

	file.Content = formatted

	return file, nil
}

// format runs goimports over a generated file. Imports are written
// explicitly, so only formatting and grouping happen.
func (g *Generator) format(filename string, src []byte) ([]byte, error) {
	imports.LocalPrefix = g.config.LocalPrefix

	return imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
}
