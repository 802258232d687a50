// Package manifest handles laml.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project file.
const FileName = "laml.toml"

// Output formats.
const (
	FormatText    = "text"
	FormatCBOR    = "cbor"
	FormatLabeled = "labeled"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid manifest")

// Manifest represents a laml.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Source   Source   `toml:"source"`
	Output   Output   `toml:"output"`
	Compiler Compiler `toml:"compiler"`

	// Dir is the directory containing the laml.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures the program to compile.
type Source struct {
	Entry string `toml:"entry"`
}

// Output configures where and how the compiled program is written.
type Output struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

// Compiler configures code generation.
type Compiler struct {
	// Globals names the two values the machine passes to main.
	Globals []string `toml:"globals"`
}

// Load parses a laml.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Source.Entry == "" {
		m.Source.Entry = filepath.Join("src", "main.laml")
	}
	if m.Output.Format == "" {
		m.Output.Format = FormatText
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a laml.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks the output format and the globals list.
func (m *Manifest) Validate() error {
	if !ValidFormat(m.Output.Format) {
		return fmt.Errorf("%w: unknown output format %q", ErrInvalid, m.Output.Format)
	}
	if g := m.Compiler.Globals; len(g) != 0 {
		if len(g) != 2 {
			return fmt.Errorf("%w: compiler.globals needs exactly 2 names, got %d", ErrInvalid, len(g))
		}
		if g[0] == g[1] {
			return fmt.Errorf("%w: compiler.globals names must differ, both are %q", ErrInvalid, g[0])
		}
		if g[0] == "" || g[1] == "" {
			return fmt.Errorf("%w: compiler.globals names must not be empty", ErrInvalid)
		}
	}
	return nil
}

// ValidFormat reports whether format names a supported output format.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatCBOR, FormatLabeled:
		return true
	}
	return false
}

// EntryPath returns the absolute path of the entry source file.
func (m *Manifest) EntryPath() string {
	return m.resolve(m.Source.Entry)
}

// OutputPath returns the absolute path of the output file, or "" when the
// manifest does not name one.
func (m *Manifest) OutputPath() string {
	if m.Output.Path == "" {
		return ""
	}
	return m.resolve(m.Output.Path)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
