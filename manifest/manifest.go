// Package manifest handles kata.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/kata/compiler"
)

// FileName is the name of the project configuration file.
const FileName = "kata.toml"

// Manifest represents a kata.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Source   Source   `toml:"source"`
	Analysis Analysis `toml:"analysis"`
	Output   Output   `toml:"output"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the kata.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations.
type Source struct {
	Dirs       []string `toml:"dirs"`
	Extensions []string `toml:"extensions"`
}

// Analysis configures the resolver.
type Analysis struct {
	// Globals are predefined in every unit's root scope.
	Globals          []string `toml:"globals"`
	WarningsAsErrors bool     `toml:"warnings-as-errors"`
	// MaxErrors limits how many diagnostics are printed per unit. Zero
	// means no limit.
	MaxErrors int `toml:"max-errors"`
}

// Output configures build artifacts. Empty paths disable the artifact.
type Output struct {
	Pool  string `toml:"pool"`
	Store string `toml:"store"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the manifest used when no kata.toml exists.
func Default(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m := &Manifest{Dir: abs}
	m.applyDefaults()
	return m, nil
}

// Load parses a kata.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}
	if m.Analysis.MaxErrors < 0 {
		return nil, fmt.Errorf("%s: max-errors must not be negative", path)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Project.Name == "" {
		m.Project.Name = filepath.Base(m.Dir)
	}
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"."}
	}
	if len(m.Source.Extensions) == 0 {
		m.Source.Extensions = []string{".js"}
	}
	for i, ext := range m.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			m.Source.Extensions[i] = "." + ext
		}
	}
}

// FindAndLoad walks up from startDir to find a kata.toml file,
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

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, m.resolve(d))
	}
	return paths
}

// IsSource reports whether path has one of the configured extensions.
func (m *Manifest) IsSource(path string) bool {
	return slices.Contains(m.Source.Extensions, filepath.Ext(path))
}

// PoolPath returns the absolute path of the constant pool output, or "".
func (m *Manifest) PoolPath() string {
	return m.resolve(m.Output.Pool)
}

// StorePath returns the absolute path of the unit store, or "".
func (m *Manifest) StorePath() string {
	return m.resolve(m.Output.Store)
}

// LogPath returns the log file path for commonlog.Configure, or nil to log
// to stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.resolve(m.Log.File)
	return &path
}

// CompileOptions returns the compiler options for a unit called name.
func (m *Manifest) CompileOptions(name string) []compiler.Option {
	return []compiler.Option{
		compiler.WithName(name),
		compiler.WithGlobals(m.Analysis.Globals...),
	}
}

// Failed reports whether unit should fail the build under this manifest.
func (m *Manifest) Failed(unit *compiler.Unit) bool {
	if unit.HasErrors() {
		return true
	}
	return m.Analysis.WarningsAsErrors && unit.Reporter.NumberOfWarnings() > 0
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
