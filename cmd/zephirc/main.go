// zephirc compiles parser IR into C method bodies.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/tamaranga/zephir/cache"
	"github.com/tamaranga/zephir/compiler"
	"github.com/tamaranga/zephir/manifest"
	"github.com/tamaranga/zephir/server"
)

var log = commonlog.GetLogger("zephir.cli")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	debug := flag.Bool("debug", false, "Emit #line hints in generated code")
	configDir := flag.String("config", "", "Directory containing zephir.toml (default: search upward from cwd)")
	noCache := flag.Bool("no-cache", false, "Skip the build cache")
	lspMode := flag.Bool("lsp", false, "Start language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: zephirc [options] [files or dirs...]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles parser IR (.json) into C method bodies.\n")
		fmt.Fprintf(os.Stderr, "Without arguments the source dirs from zephir.toml are compiled.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  zephirc ir/fetch.json       # Compile one unit\n")
		fmt.Fprintf(os.Stderr, "  zephirc -debug -no-cache    # Compile the project, no cache\n")
		fmt.Fprintf(os.Stderr, "  zephirc -lsp                # Publish diagnostics to an editor\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := compiler.Options{}
	if m != nil {
		opts = m.CompilerOptions()
	}
	if *debug {
		opts.Debug = true
	}

	var c *cache.Cache
	if !*noCache && m != nil && m.CachePath() != "" {
		c, err = cache.Open(m.CachePath())
		if err != nil {
			log.Warningf("build cache unavailable: %s", err)
			c = nil
		}
	}

	if *lspMode {
		srv := server.NewLSP(opts, c)
		if err := srv.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if c != nil {
		defer c.Close()
	}

	paths := flag.Args()
	if len(paths) == 0 && m != nil {
		paths = m.SourceDirPaths()
	}
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	files, err := collectFiles(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var all []*compiler.Result
	for _, file := range files {
		results, err := compileFile(file, opts, c)
		printDiagnostics(results)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if c != nil {
				c.Close()
			}
			os.Exit(1)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Compiled %s (%d methods)\n", file, len(results))
		}
		all = append(all, results...)
	}

	fmt.Print(render(all))
}

func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return manifest.FindAndLoad(cwd)
}

// collectFiles expands directories into the .json files they contain.
// A trailing "/..." walks the directory recursively.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		recursive := false
		if strings.HasSuffix(path, "/...") {
			recursive = true
			path = strings.TrimSuffix(path, "/...")
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %q: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		if recursive {
			err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && strings.HasSuffix(p, ".json") {
					files = append(files, p)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %q: %w", path, err)
			}
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// compileFile compiles one IR file, reusing cached results when the source
// and options are unchanged.
func compileFile(path string, opts compiler.Options, c *cache.Cache) ([]*compiler.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var key string
	if c != nil {
		if key, err = cache.Key(src, opts); err != nil {
			return nil, err
		}
		results, ok, err := c.Get(key)
		if err != nil {
			log.Warningf("cache lookup %s: %s", path, err)
		} else if ok {
			log.Debugf("cached %s", path)
			return results, nil
		}
	}

	unit, err := compiler.DecodeUnit(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	results, err := compiler.CompileUnit(unit, opts)
	if err != nil {
		return results, err
	}

	if key != "" {
		if err := c.Put(key, results); err != nil {
			log.Warningf("cache store %s: %s", path, err)
		}
	}
	return results, nil
}

func printDiagnostics(results []*compiler.Result) {
	for _, r := range results {
		for _, d := range r.Diagnostics {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}
}

// render prints the union of requested headers followed by every method body.
func render(results []*compiler.Result) string {
	headers := compiler.NewHeadersManager()
	for _, r := range results {
		for _, h := range r.Headers {
			headers.Add(h)
		}
	}

	var sb strings.Builder
	if includes := headers.Includes(); includes != "" {
		sb.WriteString(includes)
		sb.WriteString("\n")
	}
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(r.Code)
	}
	return sb.String()
}
