package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "test-ext"
namespace = "Test"
version = "0.1.0"

[source]
dirs = ["ir", "gen"]

[compiler]
debug = true

[warnings]
unrecheable-code = false
non-array-access = true

[cache]
path = "/tmp/zephir-cache.db"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-ext" {
		t.Errorf("project name = %q, want test-ext", m.Project.Name)
	}
	if m.Project.Namespace != "Test" {
		t.Errorf("project namespace = %q, want Test", m.Project.Namespace)
	}
	if len(m.Source.Dirs) != 2 {
		t.Errorf("source dirs count = %d, want 2", len(m.Source.Dirs))
	}

	opts := m.CompilerOptions()
	if !opts.Debug {
		t.Error("compiler debug = false, want true")
	}
	if enabled, ok := opts.Warnings["unrecheable-code"]; !ok || enabled {
		t.Errorf("unrecheable-code warning = %v (set %v), want disabled", enabled, ok)
	}
	if !opts.Warnings["non-array-access"] {
		t.Error("non-array-access warning should stay enabled")
	}
	if m.CachePath() != "/tmp/zephir-cache.db" {
		t.Errorf("cache path = %q, want /tmp/zephir-cache.db", m.CachePath())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "minimal"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "ir" {
		t.Errorf("default source dirs = %v, want [ir]", m.Source.Dirs)
	}
	if want := filepath.Join(m.Dir, ".zephir", "cache.db"); m.CachePath() != want {
		t.Errorf("default cache path = %q, want %q", m.CachePath(), want)
	}
	opts := m.CompilerOptions()
	if opts.Debug || opts.Warnings != nil {
		t.Errorf("default options = %+v, want zero", opts)
	}
}

func TestLoadManifestParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[project\nname = 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected a parse error")
	}
}

func TestCacheDisabled(t *testing.T) {
	m := &Manifest{Dir: "/app", Cache: CacheConfig{Disabled: true, Path: "c.db"}}
	if p := m.CachePath(); p != "" {
		t.Errorf("CachePath() = %q, want empty when disabled", p)
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[project]
name = "found-project"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no zephir.toml exists")
	}
}

func TestSourceDirPaths(t *testing.T) {
	m := &Manifest{
		Dir: "/app",
		Source: Source{
			Dirs: []string{"ir", "gen"},
		},
	}

	paths := m.SourceDirPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0] != "/app/ir" {
		t.Errorf("paths[0] = %q, want /app/ir", paths[0])
	}
	if paths[1] != "/app/gen" {
		t.Errorf("paths[1] = %q, want /app/gen", paths[1])
	}
}
