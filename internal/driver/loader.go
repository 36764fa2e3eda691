package driver

import (
	"os"
	"path/filepath"
	"strings"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/source"
)

// FSLoader resolves a dotted module name to a file under one of Roots,
// mirroring the target language's standard module resolution order: a
// package's `__init__.py`, then a sibling `<mod>.py` file. Roots is
// searched in order; the first hit wins.
type FSLoader struct {
	Roots []string

	cache map[string]*loadResult
}

type loadResult struct {
	file *source.File
	name string
	ok   bool
}

// NewFSLoader builds a loader that searches roots, falling back to the
// current directory if roots is empty, plus any directories named by
// DISSOLVE_MODULE_PATH.
func NewFSLoader(roots []string) *FSLoader {
	all := append([]string(nil), roots...)
	if len(all) == 0 {
		all = []string{"."}
	}
	if extra := os.Getenv("DISSOLVE_MODULE_PATH"); extra != "" {
		all = append(all, strings.Split(extra, string(filepath.ListSeparator))...)
	}
	return &FSLoader{Roots: all, cache: map[string]*loadResult{}}
}

// Load implements marker.ModuleLoader.
func (l *FSLoader) Load(moduleName string) (*source.File, string, bool) {
	if r, ok := l.cache[moduleName]; ok {
		return r.file, r.name, r.ok
	}
	f, name, ok := l.load(moduleName)
	l.cache[moduleName] = &loadResult{f, name, ok}
	return f, name, ok
}

func (l *FSLoader) load(moduleName string) (*source.File, string, bool) {
	rel := strings.ReplaceAll(moduleName, ".", string(filepath.Separator))
	for _, root := range l.Roots {
		pkgInit := filepath.Join(root, rel, "__init__.py")
		if f, ok := l.tryParse(pkgInit); ok {
			return f, moduleName, true
		}
		sibling := filepath.Join(root, rel+".py")
		if f, ok := l.tryParse(sibling); ok {
			return f, moduleName, true
		}
	}
	return nil, "", false
}

func (l *FSLoader) tryParse(path string) (*source.File, bool) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	f, err := source.Parse(path, text)
	if err != nil {
		return nil, false
	}
	return f, true
}

var _ marker.ModuleLoader = (*FSLoader)(nil)
