// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Quasek/pake/internal/config"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNoBuildFiles is returned when the walk finds no build file at all.
	ErrNoBuildFiles = errors.New("no build files found")
	// ErrDuplicateModule is the sentinel wrapped by DuplicateModuleError.
	ErrDuplicateModule = errors.New("module name used by two build files")
)

type (
	// File is one discovered build file.
	File struct {
		// Path is absolute.
		Path string
		// Rel is Path relative to the project root, slash separated.
		Rel    string
		Module string
	}

	// Result lists discovered files in walk order.
	Result struct {
		Root        string
		Files       []File
		Diagnostics []Diagnostic
	}

	// DuplicateModuleError reports two build files with the same base name.
	// Variables are namespaced by module name, so the second cannot load.
	DuplicateModuleError struct {
		Module string
		First  string
		Second string
	}

	// Option configures a Discovery.
	Option func(*Discovery)

	// Discovery walks a project tree for build files.
	Discovery struct {
		baseDir   string
		extension string
		buildRoot string
		ignore    []string
	}
)

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("%v: %q is declared by %s and %s", ErrDuplicateModule, e.Module, e.First, e.Second)
}

func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// WithBaseDir sets the project root. The default is the working directory.
func WithBaseDir(dir string) Option {
	return func(d *Discovery) { d.baseDir = dir }
}

// New creates a Discovery from the extension, build root and ignore patterns
// in cfg.
func New(cfg *config.Config, opts ...Option) *Discovery {
	d := &Discovery{
		extension: cfg.FileExtension,
		buildRoot: cfg.BuildRoot,
		ignore:    cfg.Discovery.Ignore,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover walks the project root. Unreadable directories become diagnostics;
// an empty result fails with ErrNoBuildFiles.
func (d *Discovery) Discover(ctx context.Context) (*Result, error) {
	root := d.baseDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	res := &Result{Root: root}
	buildRoot := d.buildRoot
	if buildRoot != "" && !filepath.IsAbs(buildRoot) {
		buildRoot = filepath.Join(root, buildRoot)
	}

	w := walker{d: d, root: root, buildRoot: buildRoot, res: res, modules: make(map[string]string)}
	if err := w.walk(ctx, root); err != nil {
		return nil, err
	}
	if len(res.Files) == 0 {
		return res, fmt.Errorf("%w below %s (extension %s)", ErrNoBuildFiles, root, d.extension)
	}
	return res, nil
}

type walker struct {
	d         *Discovery
	root      string
	buildRoot string
	res       *Result
	modules   map[string]string
}

func (w *walker) walk(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.res.Diagnostics = append(w.res.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     "dir_unreadable",
			Message:  fmt.Sprintf("skipping unreadable directory %s: %v", dir, err),
			Path:     dir,
			Cause:    err,
		})
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		rel := w.rel(path)
		switch {
		case entry.IsDir():
			if w.skipDir(path, rel) {
				slog.Debug("skipping directory", "dir", rel)
				continue
			}
			subdirs = append(subdirs, path)
		case entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), w.d.extension):
			if w.ignored(rel) {
				continue
			}
			if err := w.add(path, rel, entry.Name()); err != nil {
				return err
			}
		}
	}

	for _, sub := range subdirs {
		if err := w.walk(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) add(path, rel, name string) error {
	module := strings.TrimSuffix(name, w.d.extension)
	if module == "" {
		w.res.Diagnostics = append(w.res.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     "module_name_empty",
			Message:  fmt.Sprintf("skipping %s: file name has no module part", rel),
			Path:     path,
		})
		return nil
	}
	if strings.Contains(module, ".") {
		w.res.Diagnostics = append(w.res.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     "module_name_dotted",
			Message: fmt.Sprintf("%s: module %q contains '.'; references split at the first dot, so $%s.<name> cannot reach its variables",
				rel, module, module),
			Path: path,
		})
	}
	if first, ok := w.modules[module]; ok {
		return &DuplicateModuleError{Module: module, First: first, Second: rel}
	}
	w.modules[module] = rel
	w.res.Files = append(w.res.Files, File{Path: path, Rel: rel, Module: module})
	slog.Debug("found build file", "path", rel, "module", module)
	return nil
}

func (w *walker) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *walker) skipDir(path, rel string) bool {
	if w.buildRoot != "" && path == w.buildRoot {
		return true
	}
	return w.ignored(rel) || w.ignored(rel+"/")
}

func (w *walker) ignored(rel string) bool {
	for _, pattern := range w.d.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
