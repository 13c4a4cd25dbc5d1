// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Quasek/pake/internal/config"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// Editor and OS noise that never triggers a rebuild.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Options configures a Watcher.
	Options struct {
		// Root is the directory to watch. Empty means the working directory.
		Root string
		// BuildRoot is never watched. Relative paths resolve against Root.
		// Without this exclusion every build would trigger the next one.
		BuildRoot string

		// Patterns select the paths that trigger OnChange. Empty matches all.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period before OnChange fires. Zero or negative
		// means 500ms.
		Debounce time.Duration
		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// OnChange call.
		ClearScreen bool

		// OnChange receives the changed paths relative to Root, sorted.
		OnChange func(ctx context.Context, changed []string) error
		Stdout   io.Writer
	}

	// Watcher monitors a project tree. Run may be called once.
	Watcher struct {
		opts      Options
		fsw       *fsnotify.Watcher
		root      string
		buildRoot string
		ignores   []string
		debounce  time.Duration
		started   atomic.Bool
	}
)

// OptionsFromConfig returns the watch section of cfg as Options for root.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		Root:        root,
		BuildRoot:   cfg.BuildRoot,
		Patterns:    slices.Clone(cfg.Watch.Patterns),
		Ignore:      slices.Concat(cfg.Discovery.Ignore, cfg.Watch.Ignore),
		Debounce:    cfg.Watch.Debounce,
		ClearScreen: cfg.Watch.ClearScreen,
	}
}

// New validates the patterns and registers every watched directory.
func New(opts Options) (*Watcher, error) {
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	if err := validatePatterns(opts.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(opts.Ignore, "ignore"); err != nil {
		return nil, err
	}

	buildRoot := opts.BuildRoot
	if buildRoot != "" && !filepath.IsAbs(buildRoot) {
		buildRoot = filepath.Join(root, buildRoot)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		opts:      opts,
		fsw:       fsw,
		root:      root,
		buildRoot: buildRoot,
		ignores:   slices.Concat(defaultIgnores, opts.Ignore),
		debounce:  debounce,
	}
	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			slog.Warn("watch: close after init failure", "error", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled, which is a clean exit. Fatal
// watcher errors are returned. OnChange never runs concurrently with itself;
// events arriving during a run are delivered by a later call.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			slog.Debug("watch: build still running, postponing")
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.opts.ClearScreen {
			fmt.Fprint(w.opts.Stdout, "\033[2J\033[H")
		}
		slog.Debug("watch: change detected", "paths", changed)
		if w.opts.OnChange != nil {
			if err := w.opts.OnChange(ctx, changed); err != nil {
				slog.Debug("watch: rebuild failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			slog.Warn("watch: close fsnotify", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			// New directories are watched even when they match no pattern,
			// so files created inside them still arrive.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			rel, ok := w.relevant(evt.Name)
			if !ok {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			slog.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// relevant maps an event path to its slash-separated path below the root and
// reports whether it should trigger a rebuild.
func (w *Watcher) relevant(path string) (string, bool) {
	if w.inBuildRoot(path) {
		return "", false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.isIgnored(rel) || !w.matchesPatterns(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			slog.Warn("watch: skipping inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after New.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.skipDir(path) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		slog.Warn("watch: add new directory", "path", path, "error", err)
	}
}

func (w *Watcher) skipDir(path string) bool {
	if path == w.root {
		return false
	}
	if w.inBuildRoot(path) {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

func (w *Watcher) inBuildRoot(path string) bool {
	if w.buildRoot == "" {
		return false
	}
	rel, err := filepath.Rel(w.buildRoot, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.opts.Patterns) == 0 || matchAny(w.opts.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
