// Package manifest handles zephir.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/tamaranga/zephir/compiler"
)

// FileName is the name of the project configuration file.
const FileName = "zephir.toml"

// Manifest represents a zephir.toml project configuration.
type Manifest struct {
	Project  Project         `toml:"project"`
	Source   Source          `toml:"source"`
	Compiler CompilerConfig  `toml:"compiler"`
	Warnings map[string]bool `toml:"warnings"`
	Cache    CacheConfig     `toml:"cache"`

	// Dir is the directory containing the zephir.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains extension metadata.
type Project struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Version   string `toml:"version"`
}

// Source configures where the parser's IR files live.
type Source struct {
	Dirs []string `toml:"dirs"`
}

// CompilerConfig configures code generation.
type CompilerConfig struct {
	Debug bool `toml:"debug"`
}

// CacheConfig configures the build cache.
type CacheConfig struct {
	Disabled bool   `toml:"disabled"`
	Path     string `toml:"path"`
}

// Load parses a zephir.toml file from the given directory.
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
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"ir"}
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".zephir", "cache.db")
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a zephir.toml file,
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
			return nil, nil
		}
		dir = parent
	}
}

// CompilerOptions returns the code generation options configured by the
// manifest.
func (m *Manifest) CompilerOptions() compiler.Options {
	opts := compiler.Options{Debug: m.Compiler.Debug}
	if len(m.Warnings) > 0 {
		opts.Warnings = make(map[string]bool, len(m.Warnings))
		for code, enabled := range m.Warnings {
			opts.Warnings[code] = enabled
		}
	}
	return opts
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// CachePath returns the absolute path of the build cache database, or ""
// when caching is disabled.
func (m *Manifest) CachePath() string {
	if m.Cache.Disabled {
		return ""
	}
	if filepath.IsAbs(m.Cache.Path) {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}
