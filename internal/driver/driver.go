// Package driver implements the Driver: it discovers files, runs the
// Source Model, Marker Collector, Type Resolver, and Call-site Rewriter
// (or Cleanup) over each one across a bounded worker pool, and aggregates
// the results into a report with a well-defined exit code.
package driver

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dissolve.dev/dissolve/internal/cleanup"
	"dissolve.dev/dissolve/internal/diff"
	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/rewrite"
	"dissolve.dev/dissolve/internal/source"
	"dissolve.dev/dissolve/internal/typeresolve"
)

// Status is the outcome recorded for one file.
type Status int

const (
	StatusUnchanged Status = iota
	StatusModified
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusModified:
		return "Modified"
	case StatusFailed:
		return "Failed"
	default:
		return "Unchanged"
	}
}

// FileResult is what one file's processing produced, ready for report.go
// to render and exitcode.go to score.
type FileResult struct {
	Path          string
	Status        Status
	Diff          []byte
	Applied       []rewrite.AppliedReplacement
	Removed       []cleanup.Removed
	Replacements  []*marker.ReplaceInfo // populated by RunInfo
	Unreplaceable []*marker.UnreplaceableConstruct
	Warnings      []string
	Err           error
}

// Config gathers every flag common to all four run modes; a given mode
// ignores the fields that do not apply to it.
type Config struct {
	Write        bool
	Check        bool
	Interactive  bool
	StripMarkers bool
	TypeMethod   string // "pyright", "mypy", or "none"
	Timeout      time.Duration
	ImportDepth  int
	Roots        []string
	Format       string // "text" or "json", for check/info
	Color        bool
	Logger       *slog.Logger
	Prompter     rewrite.Prompter // nil uses the default StdinPrompter when Interactive is set
}

// Driver runs one invocation's worth of work across a set of files.
type Driver struct {
	cfg    Config
	loader *FSLoader
}

// New builds a Driver from cfg, filling in defaults (a logger, an import
// search-path loader) the way rsc.io/rf's cmdMain wires its own Snapshot.
func New(cfg Config) *Driver {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ImportDepth <= 0 {
		cfg.ImportDepth = marker.DefaultImportDepth
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = typeresolve.DefaultTimeout
	}
	return &Driver{cfg: cfg, loader: NewFSLoader(cfg.Roots)}
}

// Discover expands paths into a sorted, de-duplicated list of files,
// walking directories for files with the target language's canonical
// ".py" extension.
func Discover(paths []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &IOError{Path: p, Err: err}
		}
		if !info.IsDir() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".py" {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, &IOError{Path: p, Err: err}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (d *Driver) backend() typeresolve.Backend {
	switch d.cfg.TypeMethod {
	case "pyright":
		return typeresolve.NewPyrightBackend()
	case "mypy":
		return typeresolve.NewMypyBackend()
	default:
		return typeresolve.NoneBackend{}
	}
}

// RunMigrate processes paths in migrate mode: collect, rewrite, and either
// preview or write each file. --check short-circuits writing and only
// reports whether a file would change.
func (d *Driver) RunMigrate(ctx context.Context, paths []string) []*FileResult {
	resolver := typeresolve.New(d.backend(), d.cfg.Timeout, d.cfg.Logger)

	prompter := d.cfg.Prompter
	if d.cfg.Interactive && prompter == nil {
		prompter = rewrite.NewStdinPrompter(os.Stdin, os.Stdout)
	}

	return runPool(ctx, paths, func(ctx context.Context, path string) *FileResult {
		return d.migrateFile(ctx, path, resolver, prompter)
	})
}

func (d *Driver) migrateFile(ctx context.Context, path string, resolver *typeresolve.Resolver, prompter rewrite.Prompter) *FileResult {
	if err := ctx.Err(); err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: &IOError{Path: path, Err: err}}
	}
	file, err := source.Parse(path, text)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	defer file.Close()

	moduleName := moduleNameForPath(path)
	result := marker.CollectModule(d.loader, moduleName, file, d.cfg.ImportDepth)

	session := resolver.OpenFile(ctx, path, text)
	defer session.Close()

	rw := rewrite.New(file, result, session)
	rw.Prompter = prompter
	buf, applied := rw.Run(ctx)

	if d.cfg.StripMarkers {
		stripAppliedMarkers(file, applied, buf)
	}

	newText := buf.Bytes()
	res := &FileResult{Path: path, Applied: applied, Warnings: rw.Warnings}

	if bytes.Equal(text, newText) {
		res.Status = StatusUnchanged
		return res
	}
	res.Status = StatusModified

	udiff, err := diff.Diff(path, text, path, newText)
	if err == nil {
		res.Diff = diff.Colorize(udiff, d.cfg.Color)
	}

	if d.cfg.Write && !d.cfg.Check {
		if err := writeAtomically(path, newText); err != nil {
			res.Status = StatusFailed
			res.Err = &IOError{Path: path, Err: err}
		}
	}
	return res
}

// stripAppliedMarkers removes the @replace_me(...) decorator from every
// construct defined in this file that had at least one call site rewritten
// in this run. It does not check whether other call sites of the
// construct, in this file or elsewhere, were left unrewritten. It only
// strips a construct's own marker, never the construct itself.
func stripAppliedMarkers(file *source.File, applied []rewrite.AppliedReplacement, buf *source.Buffer) {
	stripped := map[string]bool{}
	for _, a := range applied {
		if a.Info == nil || stripped[a.Info.QualifiedName] {
			continue
		}
		stripped[a.Info.QualifiedName] = true
		if a.Info.DefFile != file.Path || a.Info.DefNode == nil {
			continue
		}
		decorated := a.Info.DefNode
		if decorated.Type() != "decorated_definition" {
			decorated = decorated.Parent()
		}
		if decorated == nil || decorated.Type() != "decorated_definition" {
			continue
		}
		for i := 0; i < int(decorated.NamedChildCount()); i++ {
			c := decorated.NamedChild(i)
			if c.Type() != "decorator" {
				continue
			}
			if marker.IsMarkerDecorator(file.Text, c) {
				end := c.EndByte()
				if end < uint32(len(file.Text)) && file.Text[end] == '\n' {
					end++
				}
				_ = buf.Delete(c.StartByte(), end)
			}
		}
	}
}

// RunCleanup processes paths in cleanup mode: collect, then delete every
// construct m selects.
func (d *Driver) RunCleanup(ctx context.Context, paths []string, m cleanup.Mode) []*FileResult {
	return runPool(ctx, paths, func(ctx context.Context, path string) *FileResult {
		return d.cleanupFile(ctx, path, m)
	})
}

func (d *Driver) cleanupFile(ctx context.Context, path string, m cleanup.Mode) *FileResult {
	if err := ctx.Err(); err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: &IOError{Path: path, Err: err}}
	}
	file, err := source.Parse(path, text)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	defer file.Close()

	moduleName := moduleNameForPath(path)
	result := marker.CollectFile(moduleName, file)

	buf, removed, err := cleanup.Apply(file, result, m)
	res := &FileResult{Path: path, Removed: removed}
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	if len(removed) == 0 {
		res.Status = StatusUnchanged
		return res
	}
	res.Status = StatusModified

	newText := buf.Bytes()
	udiff, derr := diff.Diff(path, text, path, newText)
	if derr == nil {
		res.Diff = diff.Colorize(udiff, d.cfg.Color)
	}
	if d.cfg.Write && !d.cfg.Check {
		if err := writeAtomically(path, newText); err != nil {
			res.Status = StatusFailed
			res.Err = &IOError{Path: path, Err: err}
		}
	}
	return res
}

// RunCheck processes paths in check mode: collect each file's own markers
// (imports are not followed, unlike migrate), never write, and report
// per-construct processability grouped by failure reason.
func (d *Driver) RunCheck(ctx context.Context, paths []string) []*FileResult {
	return runPool(ctx, paths, func(ctx context.Context, path string) *FileResult {
		return d.checkFile(ctx, path)
	})
}

func (d *Driver) checkFile(ctx context.Context, path string) *FileResult {
	if err := ctx.Err(); err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: &IOError{Path: path, Err: err}}
	}
	file, err := source.Parse(path, text)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	defer file.Close()

	moduleName := moduleNameForPath(path)
	result := marker.CollectFile(moduleName, file)

	res := &FileResult{Path: path, Status: StatusUnchanged}
	for _, u := range result.Unreplaceable {
		res.Unreplaceable = append(res.Unreplaceable, u)
	}
	if len(res.Unreplaceable) > 0 {
		res.Status = StatusModified // reused here to mean "has findings" for check's exit-code purposes
	}
	return res
}

// RunInfo enumerates every marker found in paths without rewriting
// anything.
func (d *Driver) RunInfo(ctx context.Context, paths []string) []*FileResult {
	return runPool(ctx, paths, func(ctx context.Context, path string) *FileResult {
		return d.infoFile(ctx, path)
	})
}

func (d *Driver) infoFile(ctx context.Context, path string) *FileResult {
	if err := ctx.Err(); err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: &IOError{Path: path, Err: err}}
	}
	file, err := source.Parse(path, text)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	defer file.Close()

	moduleName := moduleNameForPath(path)
	result := marker.CollectFile(moduleName, file)

	res := &FileResult{Path: path, Status: StatusUnchanged}
	for _, info := range result.Replacements {
		res.Replacements = append(res.Replacements, info)
	}
	for _, u := range result.Unreplaceable {
		res.Unreplaceable = append(res.Unreplaceable, u)
	}
	return res
}

// moduleNameForPath derives a dotted module name from a file path the way
// the target language's import machinery would see it: strip the ".py"
// extension and an "__init__" leaf, replace path separators with dots.
func moduleNameForPath(path string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	trimmed = strings.TrimSuffix(trimmed, string(filepath.Separator)+"__init__")
	trimmed = strings.TrimPrefix(trimmed, "."+string(filepath.Separator))
	return strings.ReplaceAll(trimmed, string(filepath.Separator), ".")
}

// writeAtomically writes data to path via a write-to-temp-then-rename
// discipline, so an interrupted write never corrupts the original file.
func writeAtomically(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dissolve-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	info, statErr := os.Stat(path)
	if statErr == nil {
		_ = os.Chmod(tmpPath, info.Mode())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
