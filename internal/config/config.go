// Package config handles the bindgen.toml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up by FindAndLoad.
const FileName = "bindgen.toml"

// DefaultRuntime is the import path of the runtime support package.
const DefaultRuntime = "bindgen/bindrt"

// Config is a bindgen.toml project configuration.
type Config struct {
	Project Project `toml:"project"`
	Input   Input   `toml:"input"`
	Output  Output  `toml:"output"`
	Resolve Resolve `toml:"resolve"`

	// Dir is the directory containing the project file (set at load time).
	Dir string `toml:"-"`
	// Undecoded lists keys present in the file that no field consumed.
	Undecoded []string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
	// Module is the Go module the generated packages live in; it groups
	// their imports after third-party ones.
	Module string `toml:"module"`
	// Runtime is the import path of the bindrt package.
	Runtime string `toml:"runtime"`
}

// Input lists the interface descriptions of the run.
type Input struct {
	// Units are glob patterns relative to the project directory.
	Units []string `toml:"units"`
	// Imports are identity tables every unit may refer to.
	Imports []string `toml:"imports"`
}

// Output configures generated files.
type Output struct {
	Dir string `toml:"dir"`
	// IdentityTables writes <unit>.bindid next to each generated package.
	IdentityTables *bool `toml:"identity-tables"`
	// Unformatted skips goimports formatting, for debugging templates.
	Unformatted bool `toml:"unformatted"`
}

// Resolve configures type resolution. MaxDepth limits type nesting depth;
// 0 means no limit.
type Resolve struct {
	Strict         bool `toml:"strict"`
	MaxDepth       int  `toml:"max-depth"`
	MaxSuggestions int  `toml:"max-suggestions"`
}

// Default returns the configuration used without a project file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()

	return c
}

func (c *Config) applyDefaults() {
	if c.Project.Runtime == "" {
		c.Project.Runtime = DefaultRuntime
	}

	if len(c.Input.Units) == 0 {
		c.Input.Units = []string{"*.yaml"}
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "gen"
	}

	if c.Output.IdentityTables == nil {
		on := true
		c.Output.IdentityTables = &on
	}

	if c.Resolve.MaxSuggestions <= 0 {
		c.Resolve.MaxSuggestions = 3
	}
}

// Load parses the bindgen.toml file in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a project file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config

	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	for _, k := range md.Undecoded() {
		c.Undecoded = append(c.Undecoded, k.String())
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	c.applyDefaults()

	return &c, nil
}

// FindAndLoad walks up from startDir to find a bindgen.toml file and loads
// it. It returns nil and no error when there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}

		dir = parent
	}
}

// UnitFiles expands the unit patterns into sorted, de-duplicated paths.
func (c *Config) UnitFiles() ([]string, error) {
	var files []string

	for _, pattern := range c.Input.Units {
		matches, err := filepath.Glob(c.path(pattern))
		if err != nil {
			return nil, fmt.Errorf("bad unit pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			return nil, fmt.Errorf("unit pattern %q matches no files", pattern)
		}

		files = append(files, matches...)
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

// ImportPaths returns the identity tables as paths.
func (c *Config) ImportPaths() []string {
	out := make([]string, len(c.Input.Imports))
	for i, p := range c.Input.Imports {
		out[i] = c.path(p)
	}

	return out
}

// OutputDir returns the generation root as a path.
func (c *Config) OutputDir() string {
	return c.path(c.Output.Dir)
}

// WriteIdentityTables reports whether identity tables are written.
func (c *Config) WriteIdentityTables() bool {
	return c.Output.IdentityTables == nil || *c.Output.IdentityTables
}

func (c *Config) path(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}

	return filepath.Join(c.Dir, p)
}
