// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Quasek/pake/internal/fsutil"
	"github.com/Quasek/pake/internal/report"
)

type (
	// Settings are the evaluated toolchain fields of the active configuration.
	Settings struct {
		// Compiler and Archiver may carry leading arguments, e.g. ["ccache", "g++"].
		Compiler          []string
		Archiver          []string
		CompilerFlags     []string
		LinkerFlags       []string
		ApplicationSuffix string
		BuildDir          string
	}

	// GNU drives gcc/clang style compilers and ar style archivers.
	GNU struct {
		settings Settings
		exec     Executor
		reporter report.Reporter
	}
)

// NewGNU returns a toolchain for settings. Missing compiler or archiver fall
// back to c++ and ar.
func NewGNU(settings Settings, exec Executor, reporter report.Reporter) *GNU {
	if len(settings.Compiler) == 0 {
		settings.Compiler = []string{"c++"}
	}
	if len(settings.Archiver) == 0 {
		settings.Archiver = []string{"ar"}
	}
	if exec == nil {
		exec = ProcessExecutor{}
	}
	if reporter == nil {
		reporter = report.Discard
	}
	return &GNU{settings: settings, exec: exec, reporter: reporter}
}

// BuildDir is the output directory of the active configuration.
func (g *GNU) BuildDir() string {
	return g.settings.BuildDir
}

// ObjectFilename places objects under build.<target>/, mirroring the source
// path. Parent directory steps are rewritten so objects stay inside the build dir.
func (g *GNU) ObjectFilename(target, source string) string {
	rel := filepath.ToSlash(filepath.Clean(source))
	rel = strings.TrimPrefix(rel, "/")
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		if p == ".." {
			parts[i] = "__"
		}
	}
	return filepath.Join(g.settings.BuildDir, "build."+target, filepath.FromSlash(strings.Join(parts, "/"))+".o")
}

// StaticLibraryFilename is lib<target>.a in the build directory.
func (g *GNU) StaticLibraryFilename(target string) string {
	return filepath.Join(g.settings.BuildDir, "lib"+target+".a")
}

// ApplicationFilename is the target name plus the application suffix.
func (g *GNU) ApplicationFilename(target string) string {
	return filepath.Join(g.settings.BuildDir, target+g.settings.ApplicationSuffix)
}

// BuildObject compiles req.Source when it, or any header it includes, is newer than the object.
func (g *GNU) BuildObject(ctx context.Context, req ObjectRequest) error {
	source := fsutil.Resolve(req.Dir, req.Source)
	flags := g.compilerFlags(req.IncludeDirs, req.Flags)

	prerequisites, err := g.scanIncludes(ctx, req.Dir, source, flags)
	if err != nil {
		return err
	}
	prerequisites = append(prerequisites, source)

	stale, err := fsutil.AnyNewerThan(prerequisites, req.Object)
	if err != nil {
		return err
	}
	if !stale {
		slog.Debug("object up to date", "object", req.Object)
		return nil
	}

	g.reporter.Step(g.compilerName(), req.Source)
	if err := os.MkdirAll(filepath.Dir(req.Object), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	args := append(append([]string{}, g.settings.Compiler...), flags...)
	args = append(args, "-c", "-o", req.Object, source)
	_, err = g.exec.Execute(ctx, Invocation{Dir: req.Dir, Args: args})
	return err
}

// LinkApplication links when an object, or a static library of this build
// named in req.Libraries, is newer than the executable.
func (g *GNU) LinkApplication(ctx context.Context, req LinkRequest) error {
	stale, err := fsutil.AnyNewerThan(req.Objects, req.Output)
	if err != nil {
		return err
	}
	if !stale {
		stale, err = g.librariesNewerThan(req.Libraries, req.Output)
		if err != nil {
			return err
		}
	}
	if !stale {
		g.reporter.BigStep("up to date", req.Output)
		return nil
	}

	g.reporter.BigStep("linking", req.Output)
	args := append(append([]string{}, g.settings.Compiler...), "-o", req.Output)
	args = append(args, req.Objects...)
	args = append(args, "-L"+g.settings.BuildDir)
	for _, lib := range req.Libraries {
		args = append(args, "-l"+lib)
	}
	for _, dir := range req.LibraryDirs {
		args = append(args, "-L"+dir)
	}
	args = append(args, g.settings.LinkerFlags...)
	_, err = g.exec.Execute(ctx, Invocation{Dir: req.Dir, Args: args})
	return err
}

// LinkStaticLibrary archives the objects when any of them is newer than the library.
func (g *GNU) LinkStaticLibrary(ctx context.Context, req ArchiveRequest) error {
	stale, err := fsutil.AnyNewerThan(req.Objects, req.Output)
	if err != nil {
		return err
	}
	if !stale {
		g.reporter.BigStep("up to date", req.Output)
		return nil
	}

	g.reporter.BigStep("archiving", req.Output)
	args := append(append([]string{}, g.settings.Archiver...), "-rcs", req.Output)
	args = append(args, req.Objects...)
	_, err = g.exec.Execute(ctx, Invocation{Dir: req.Dir, Args: args})
	return err
}

// scanIncludes asks the compiler for the make rule of source and returns the
// files it depends on, the source itself excluded.
func (g *GNU) scanIncludes(ctx context.Context, dir, source string, flags []string) ([]string, error) {
	args := append(append([]string{}, g.settings.Compiler...), flags...)
	args = append(args, "-M", source)
	out, err := g.exec.Execute(ctx, Invocation{Dir: dir, Args: args, Capture: true})
	if err != nil {
		return nil, err
	}
	return parseMakeRule(string(out), dir, source), nil
}

// parseMakeRule extracts the prerequisites of a "target.o: a.c b.h \" rule.
func parseMakeRule(rule, dir, source string) []string {
	_, deps, found := strings.Cut(rule, ":")
	if !found {
		return nil
	}
	var out []string
	for _, field := range splitMakeWords(deps) {
		path := fsutil.Resolve(dir, field)
		if path == source {
			continue
		}
		out = append(out, path)
	}
	return out
}

// splitMakeWords splits a prerequisite list on whitespace. A backslash before
// a space belongs to the path; a backslash before a newline continues the rule.
func splitMakeWords(deps string) []string {
	var (
		words []string
		word  strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
	}
	for i := 0; i < len(deps); i++ {
		c := deps[i]
		switch {
		case c == '\\' && i+1 < len(deps) && deps[i+1] == ' ':
			word.WriteByte(' ')
			i++
		case c == '\\' && (i+1 == len(deps) || deps[i+1] == '\n' || deps[i+1] == '\r'):
			flush()
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			word.WriteByte(c)
		}
	}
	flush()
	return words
}

func (g *GNU) compilerFlags(includeDirs, targetFlags []string) []string {
	flags := append([]string{}, g.settings.CompilerFlags...)
	flags = append(flags, targetFlags...)
	for _, dir := range includeDirs {
		flags = append(flags, "-I"+dir)
	}
	return flags
}

func (g *GNU) compilerName() string {
	return filepath.Base(g.settings.Compiler[len(g.settings.Compiler)-1])
}

func (g *GNU) librariesNewerThan(libraries []string, output string) (bool, error) {
	for _, lib := range libraries {
		path := g.StaticLibraryFilename(lib)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		newer, err := fsutil.IsNewerThan(path, output)
		if err != nil || newer {
			return newer, err
		}
	}
	return false, nil
}
