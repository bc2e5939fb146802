package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/tliron/commonlog"

	"bindgen/internal/analyze"
	"bindgen/internal/config"
	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/gen"
	"bindgen/internal/plan"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("bindgen.cli")

// Exit codes.
const (
	exitOK          = 0
	exitDiagnostics = 1
	exitUsage       = 2
)

const usage = `usage: bindgen <command> [flags] [unit.yaml...]

Commands:
  gen     resolve the units and write the generated packages
  check   resolve the units and report diagnostics
  dump    print the resolved plans

Units default to the input patterns of the nearest bindgen.toml.
`

// options are the flags shared by every command.
type options struct {
	config      string
	out         string
	strict      bool
	unformatted bool
	raw         bool
	verify      bool
	verbose     int
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	cmd := args[0]

	var opts options

	fs := flag.NewFlagSet("bindgen "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", "", "project file (default: nearest "+config.FileName+")")
	fs.StringVar(&opts.out, "out", "", "output directory, overriding the project file")
	fs.BoolVar(&opts.strict, "strict", false, "fail when any unit has errors")
	fs.BoolVar(&opts.unformatted, "unformatted", false, "skip formatting of generated code")
	fs.BoolVar(&opts.raw, "raw", false, "dump: print the full plans instead of a summary")
	fs.BoolVar(&opts.verify, "verify", false, "gen: type-check the written packages (the output must be inside a Go module)")
	fs.IntVar(&opts.verbose, "v", 0, "log verbosity (0-2)")

	switch cmd {
	case "gen", "check", "dump":
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return exitUsage
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		return exitUsage
	}

	commonlog.Configure(opts.verbose, nil)

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, "bindgen:", err)
		return exitUsage
	}

	rm, err := resolve(cfg, opts, fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, "bindgen:", err)
		return exitDiagnostics
	}

	report(stderr, rm.Diagnostics)

	switch cmd {
	case "check":
		if rm.Diagnostics.HasErrors() {
			return exitDiagnostics
		}

		fmt.Fprintf(stdout, "%d units ok\n", len(rm.Units))

	case "dump":
		if opts.raw {
			cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, MaxDepth: 6}
			cs.Fdump(stdout, rm.Units)

			break
		}

		out, err := plan.ExportSummaryYAML(rm)
		if err != nil {
			fmt.Fprintln(stderr, "bindgen:", err)
			return exitDiagnostics
		}

		_, _ = stdout.Write(out)

	case "gen":
		n, err := generate(cfg, rm)
		if err != nil {
			fmt.Fprintln(stderr, "bindgen:", err)
			return exitDiagnostics
		}

		fmt.Fprintf(stdout, "wrote %d files to %s\n", n, cfg.OutputDir())

		if opts.verify {
			if err := verify(stdout, cfg); err != nil {
				fmt.Fprintln(stderr, "bindgen:", err)
				return exitDiagnostics
			}
		}

		if rm.Diagnostics.HasErrors() {
			return exitDiagnostics
		}
	}

	return exitOK
}

// loadConfig reads the project file named by -config, or the nearest one,
// and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if opts.config != "" {
		cfg, err = config.LoadFile(opts.config)
	} else {
		cfg, err = config.FindAndLoad(".")
	}

	if err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = config.Default()
	}

	for _, k := range cfg.Undecoded {
		log.Warningf("%s: unknown key %s", config.FileName, k)
	}

	if opts.out != "" {
		out, err := filepath.Abs(opts.out)
		if err != nil {
			return nil, err
		}

		cfg.Output.Dir = out
	}

	if opts.strict {
		cfg.Resolve.Strict = true
	}

	if opts.unformatted {
		cfg.Output.Unformatted = true
	}

	return cfg, nil
}

func resolve(cfg *config.Config, opts options, files []string) (*plan.ResolvedModel, error) {
	if len(files) == 0 {
		var err error

		files, err = cfg.UnitFiles()
		if err != nil {
			return nil, err
		}
	}

	m, err := decl.LoadModel(files...)
	if err != nil {
		return nil, err
	}

	imports := cfg.ImportPaths()
	for _, u := range m.Units {
		u.Imports = append(u.Imports, imports...)
	}

	rc := plan.DefaultConfig()
	rc.Strict = cfg.Resolve.Strict
	rc.MaxDepth = cfg.Resolve.MaxDepth
	rc.MaxSuggestions = cfg.Resolve.MaxSuggestions

	log.Infof("resolving %d units", len(m.Units))

	return plan.NewResolver(m, rc).Resolve()
}

func generate(cfg *config.Config, rm *plan.ResolvedModel) (int, error) {
	gc := gen.DefaultGeneratorConfig()
	gc.RuntimeImport = cfg.Project.Runtime
	gc.OutputDir = cfg.OutputDir()
	gc.IdentityTables = cfg.WriteIdentityTables()
	gc.Unformatted = cfg.Output.Unformatted

	if cfg.Project.Module != "" {
		gc.LocalPrefix = cfg.Project.Module
	}

	files, err := gen.NewGenerator(gc).Generate(rm)
	if err != nil {
		return 0, err
	}

	if err := gen.WriteFiles(files, gc.OutputDir); err != nil {
		return 0, err
	}

	return len(files), nil
}

// verify loads the generated packages, type-checking them.
func verify(w io.Writer, cfg *config.Config) error {
	surface, err := analyze.NewAnalyzer(cfg.Project.Runtime).Load(cfg.OutputDir(), "./...")
	if err != nil {
		return fmt.Errorf("verifying generated code: %w", err)
	}

	for _, t := range surface.Types {
		if names := t.WithoutContext(); len(names) > 0 {
			log.Warningf("%s: methods without a context: %v", t.ID, names)
		}
	}

	log.Debugf("generated surface:\n%s", surface)

	fmt.Fprintf(w, "verified %d packages: %d wrappers, %d enums\n",
		len(surface.Packages), surface.Count(analyze.TypeKindWrapper), surface.Count(analyze.TypeKindEnum))

	return nil
}

func report(w io.Writer, d diagnostic.Diagnostics) {
	for _, e := range d.Errors {
		fmt.Fprintln(w, "error:", e)
	}

	for _, e := range d.Warnings {
		fmt.Fprintln(w, "warning:", e)
	}

	for _, e := range d.Infos {
		log.Infof("%s", e)
	}
}
