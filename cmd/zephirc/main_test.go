package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tamaranga/zephir/cache"
	"github.com/tamaranga/zephir/compiler"
)

const unitSource = `[
	{"type": "namespace", "name": "App"},
	{"type": "class", "name": "Echo", "definition": {"methods": [
		{"type": "method", "name": "one", "visibility": ["public", "static"], "parameters": [], "statements": [
			{"type": "echo", "expressions": [{"type": "int", "value": "1"}]}
		]}
	]}}
]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"), "[]")
	writeFile(t, filepath.Join(dir, "a.json"), "[]")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "sub", "c.json"), "[]")

	files, err := collectFiles([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.json" || filepath.Base(files[1]) != "b.json" {
		t.Errorf("files = %v, want [a.json b.json]", files)
	}

	files, err = collectFiles([]string{dir + "/..."})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("recursive files = %v, want 3", files)
	}

	if _, err := collectFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestCompileFile_Cached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.json")
	writeFile(t, path, unitSource)

	c, err := cache.Open(filepath.Join(dir, ".zephir", "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	first, err := compileFile(path, compiler.Options{}, c)
	if err != nil {
		t.Fatalf("compileFile: %v", err)
	}
	second, err := compileFile(path, compiler.Options{}, c)
	if err != nil {
		t.Fatalf("compileFile (cached): %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0].Code != second[0].Code {
		t.Errorf("results differ: %v vs %v", first, second)
	}
	if n, _ := c.Len(); n != 1 {
		t.Errorf("cache entries = %d, want 1", n)
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.json")
	writeFile(t, path, unitSource)

	results, err := compileFile(path, compiler.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := render(results)
	if !strings.HasPrefix(out, "#include \"kernel/memory.h\"\n\n") {
		t.Errorf("output should start with includes:\n%s", out)
	}
	for _, want := range []string{
		"PHP_METHOD(App_Echo, one) {\n",
		"\tphp_printf(\"%d\", 1);\n",
		"\tRETURN_MM_NULL();\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
