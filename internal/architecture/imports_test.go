package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// layerRules lists, per directory under internal/, the sibling
// directories it may not import.
var layerRules = map[string][]string{
	"domain":        {"data", "services", "http", "clients", "observability"},
	"platform":      {"data", "services", "http", "clients"},
	"observability": {"data", "services", "http", "clients"},
	"clients":       {"services", "http"},
	"data":          {"services", "http"},
	"services":      {"http"},
	// handlers reach storage and providers only through services
	"http": {"data", "clients"},
}

type module struct {
	root string
	path string
}

type edge struct {
	file string // slash-separated, relative to the module root
	imp  string
}

func TestImportBoundaries(t *testing.T) {
	mod := loadModule(t)
	var bad []string
	for _, e := range mod.internalImports(t) {
		layer, _, _ := strings.Cut(strings.TrimPrefix(e.file, "internal/"), "/")
		for _, dir := range layerRules[layer] {
			if strings.HasPrefix(e.imp, mod.path+"/internal/"+dir+"/") || e.imp == mod.path+"/internal/"+dir {
				bad = append(bad, fmt.Sprintf("%s (%s) imports %s", e.file, layer, e.imp))
			}
		}
	}
	if len(bad) > 0 {
		t.Fatalf("import boundary violations:\n%s", strings.Join(bad, "\n"))
	}
}

// Only entrypoints under cmd/ may assemble the application.
func TestAppIsOnlyImportedByEntrypoints(t *testing.T) {
	mod := loadModule(t)
	app := mod.path + "/internal/app"
	var bad []string
	for _, e := range mod.internalImports(t) {
		if strings.HasPrefix(e.file, "internal/app/") {
			continue
		}
		if e.imp == app || strings.HasPrefix(e.imp, app+"/") {
			bad = append(bad, e.file)
		}
	}
	if len(bad) > 0 {
		t.Fatalf("internal/app imported outside cmd/: %v", bad)
	}
}

// internalImports parses the import block of every non-test file under
// internal/.
func (m module) internalImports(t *testing.T) []edge {
	t.Helper()
	fset := token.NewFileSet()
	var edges []edge
	err := filepath.WalkDir(filepath.Join(m.root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(m.root, path)
		for _, spec := range f.Imports {
			if imp, err := strconv.Unquote(spec.Path.Value); err == nil {
				edges = append(edges, edge{file: filepath.ToSlash(rel), imp: imp})
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
	return edges
}

// loadModule walks up from the test's directory to go.mod and reads the
// module path from it.
func loadModule(t *testing.T) module {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		f, err := os.Open(filepath.Join(dir, "go.mod"))
		if err == nil {
			defer f.Close()
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				if rest, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "module "); ok {
					return module{root: dir, path: strings.TrimSpace(rest)}
				}
			}
			t.Fatalf("no module line in %s", f.Name())
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found")
		}
		dir = parent
	}
}
