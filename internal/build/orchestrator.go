// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/Quasek/pake/internal/compile"
	"github.com/Quasek/pake/internal/fsutil"
	"github.com/Quasek/pake/internal/issue"
	"github.com/Quasek/pake/internal/report"
	"github.com/Quasek/pake/internal/shell"
	"github.com/Quasek/pake/internal/toolchain"
	"github.com/Quasek/pake/pkg/configuration"
	"github.com/Quasek/pake/pkg/pakefile"
	"github.com/Quasek/pake/pkg/variables"
)

// Step names carried by StepError.
const (
	StepDependsOn  = "depends_on"
	StepVisibleIn  = "visible_in"
	StepRunBefore  = "run_before"
	StepRunAfter   = "run_after"
	StepCompile    = "compile"
	StepLink       = "link"
	StepArchive    = "archive"
	StepResources  = "resources"
	StepBuildDir   = "build_dir"
	StepProperties = "properties"
)

type (
	// Options wires an Orchestrator to the state of one invocation.
	Options struct {
		Graph          *Graph
		Store          *variables.Store
		Configurations *configuration.Registry
		Toolchain      toolchain.Toolchain
		Compiler       *compile.Executor
		Shell          shell.Runner
		Reporter       report.Reporter

		// Environ is the base environment of hook commands, typically
		// os.Environ(). Exported variables are appended to it per command.
		Environ []string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// Orchestrator builds targets for one invocation. It is not safe for
	// concurrent use; targets build one at a time.
	Orchestrator struct {
		opts     Options
		built    map[string]bool
		visiting []string
	}
)

// NewOrchestrator creates an Orchestrator. A nil Reporter discards progress.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Reporter == nil {
		opts.Reporter = report.Discard
	}
	if opts.Compiler == nil {
		opts.Compiler = compile.NewExecutor(1)
	}
	return &Orchestrator{opts: opts, built: make(map[string]bool)}
}

// Build builds the named target after its dependencies. A target already built
// in this invocation is a no-op.
func (o *Orchestrator) Build(ctx context.Context, name string) error {
	return o.build(ctx, name, "")
}

// BuildAll builds every target visible in the active configuration, in
// registration order, and reports the ones it skips.
func (o *Orchestrator) BuildAll(ctx context.Context) error {
	for _, t := range o.opts.Graph.Targets() {
		visible, _, err := o.Visible(t)
		if err != nil {
			return err
		}
		if !visible {
			o.opts.Reporter.BigStep("skip", t.Name)
			continue
		}
		if err := o.Build(ctx, t.Name); err != nil {
			return err
		}
	}
	return nil
}

// Built reports whether name completed in this invocation.
func (o *Orchestrator) Built(name string) bool {
	return o.built[name]
}

// Visible reports whether t may build under the active configuration and
// returns its evaluated visible_in list. An empty list means visible everywhere.
func (o *Orchestrator) Visible(t *pakefile.Target) (bool, []string, error) {
	names, err := o.opts.Store.EvaluateValue(t.VisibleIn)
	if err != nil {
		return false, nil, &StepError{Target: t.Name, Step: StepVisibleIn, Err: err}
	}
	if len(names) == 0 {
		return true, nil, nil
	}
	return slices.Contains(names, o.opts.Configurations.Active().Name), names, nil
}

func (o *Orchestrator) build(ctx context.Context, name, requiredBy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.built[name] {
		return nil
	}
	if i := slices.Index(o.visiting, name); i >= 0 {
		chain := append(slices.Clone(o.visiting[i:]), name)
		return &CycleError{Chain: chain}
	}

	t, ok := o.opts.Graph.Lookup(name)
	if !ok {
		return &NotFoundError{Name: name, RequiredBy: requiredBy}
	}
	visible, visibleIn, err := o.Visible(t)
	if err != nil {
		return err
	}
	if !visible {
		return &NotVisibleError{Name: name, Configuration: o.opts.Configurations.Active().Name, VisibleIn: visibleIn}
	}

	o.visiting = append(o.visiting, name)
	defer func() { o.visiting = o.visiting[:len(o.visiting)-1] }()

	if err := os.MkdirAll(o.opts.Toolchain.BuildDir(), 0o755); err != nil {
		return &StepError{Target: name, Step: StepBuildDir, Err: err}
	}

	deps, err := o.opts.Store.EvaluateValue(t.DependsOn)
	if err != nil {
		return &StepError{Target: name, Step: StepDependsOn, Err: err}
	}
	for _, dep := range deps {
		if err := o.build(ctx, dep, name); err != nil {
			return err
		}
	}

	o.opts.Reporter.BigStep("target", fmt.Sprintf("%s (%s)", name, t.Variant.TypeName()))
	slog.Debug("building target", "target", name, "module", t.Module, "type", t.Variant.TypeName())

	if err := o.runHook(ctx, t, StepRunBefore, t.RunBefore); err != nil {
		return err
	}
	if err := o.action(ctx, t); err != nil {
		return err
	}
	if err := o.runHook(ctx, t, StepRunAfter, t.RunAfter); err != nil {
		return err
	}
	if err := o.copyResources(t); err != nil {
		return err
	}

	o.built[name] = true
	return nil
}

func (o *Orchestrator) action(ctx context.Context, t *pakefile.Target) error {
	switch v := t.Variant.(type) {
	case *pakefile.Phony:
		return nil
	case *pakefile.Application:
		return o.buildApplication(ctx, t, v)
	case *pakefile.StaticLibrary:
		return o.buildStaticLibrary(ctx, t, v)
	default:
		return &StepError{Target: t.Name, Step: StepProperties, Err: fmt.Errorf("unsupported target type %T", t.Variant)}
	}
}

func (o *Orchestrator) buildApplication(ctx context.Context, t *pakefile.Target, app *pakefile.Application) error {
	objects, err := o.compile(ctx, t, &app.Compilable)
	if err != nil {
		return err
	}
	libraries, err := o.opts.Store.EvaluateValue(app.LinkWith)
	if err != nil {
		return &StepError{Target: t.Name, Step: StepLink, Err: err}
	}
	libraryDirs, err := o.opts.Store.EvaluateValue(app.LibraryDirs)
	if err != nil {
		return &StepError{Target: t.Name, Step: StepLink, Err: err}
	}

	err = o.opts.Toolchain.LinkApplication(ctx, toolchain.LinkRequest{
		Dir:         t.Dir,
		Output:      o.opts.Toolchain.ApplicationFilename(t.Name),
		Objects:     objects,
		Libraries:   libraries,
		LibraryDirs: libraryDirs,
	})
	if err != nil {
		return &StepError{Target: t.Name, Step: StepLink, Err: err}
	}
	return nil
}

func (o *Orchestrator) buildStaticLibrary(ctx context.Context, t *pakefile.Target, lib *pakefile.StaticLibrary) error {
	objects, err := o.compile(ctx, t, &lib.Compilable)
	if err != nil {
		return err
	}
	err = o.opts.Toolchain.LinkStaticLibrary(ctx, toolchain.ArchiveRequest{
		Dir:     t.Dir,
		Output:  o.opts.Toolchain.StaticLibraryFilename(t.Name),
		Objects: objects,
	})
	if err != nil {
		return &StepError{Target: t.Name, Step: StepArchive, Err: err}
	}
	return nil
}

func (o *Orchestrator) compile(ctx context.Context, t *pakefile.Target, c *pakefile.Compilable) ([]string, error) {
	var unit compile.Unit
	fields := []struct {
		value variables.Value
		dst   *[]string
	}{
		{c.Sources, &unit.Sources},
		{c.IncludeDirs, &unit.IncludeDirs},
		{c.CompilerFlags, &unit.CompilerFlags},
	}
	for _, f := range fields {
		values, err := o.opts.Store.EvaluateValue(f.value)
		if err != nil {
			return nil, &StepError{Target: t.Name, Step: StepCompile, Err: err}
		}
		*f.dst = values
	}
	unit.Target = t.Name
	unit.Dir = t.Dir

	objects, err := o.opts.Compiler.Compile(ctx, o.opts.Toolchain, unit)
	if err != nil {
		return nil, &StepError{Target: t.Name, Step: StepCompile, Err: err}
	}
	return objects, nil
}

// runHook runs the commands of a run_before or run_after list in the target's
// directory. Phony targets with both artefacts and prerequisites skip their
// hooks while every artefact is up to date.
func (o *Orchestrator) runHook(ctx context.Context, t *pakefile.Target, step string, value variables.Value) error {
	commands, err := o.opts.Store.EvaluateValue(value)
	if err != nil {
		return &StepError{Target: t.Name, Step: step, Err: err}
	}
	if len(commands) == 0 {
		return nil
	}

	run, err := o.hookGate(t)
	if err != nil {
		return &StepError{Target: t.Name, Step: step, Err: err}
	}
	if !run {
		slog.Debug("artefacts up to date, skipping hook", "target", t.Name, "hook", step)
		return nil
	}

	exported, err := o.opts.Store.Environ(t.Module)
	if err != nil {
		return &StepError{Target: t.Name, Step: step, Err: err}
	}
	env := append(slices.Clone(o.opts.Environ), exported...)

	for _, command := range commands {
		o.opts.Reporter.Step(o.opts.Shell.Name(), command)
		err := o.opts.Shell.Run(ctx, shell.Command{
			Script: command,
			Dir:    t.Dir,
			Env:    env,
			Stdout: o.opts.Stdout,
			Stderr: o.opts.Stderr,
		})
		if err != nil {
			return &StepError{Target: t.Name, Step: step, Err: err}
		}
	}
	return nil
}

func (o *Orchestrator) hookGate(t *pakefile.Target) (bool, error) {
	phony, ok := t.Variant.(*pakefile.Phony)
	if !ok {
		return true, nil
	}
	artefacts, err := o.opts.Store.EvaluateValue(phony.Artefacts)
	if err != nil {
		return false, err
	}
	prerequisites, err := o.opts.Store.EvaluateValue(phony.Prerequisites)
	if err != nil {
		return false, err
	}
	return fsutil.ShouldRun(resolveAll(t.Dir, prerequisites), resolveAll(t.Dir, artefacts))
}

// copyResources copies each resource into the build directory. A trailing
// slash copies a directory's contents rather than the directory itself.
func (o *Orchestrator) copyResources(t *pakefile.Target) error {
	resources, err := o.opts.Store.EvaluateValue(t.Resources)
	if err != nil {
		return &StepError{Target: t.Name, Step: StepResources, Err: err}
	}
	buildDir := o.opts.Toolchain.BuildDir()
	for _, res := range resources {
		src := fsutil.Resolve(t.Dir, res)
		if strings.HasSuffix(res, "/") {
			src += "/"
		}
		o.opts.Reporter.Step("copy", res)
		if err := fsutil.CopyUpdate(src, buildDir); err != nil {
			return &StepError{Target: t.Name, Step: StepResources, Err: issue.WrapWithContext(err, "copy resource", res)}
		}
	}
	return nil
}

func resolveAll(dir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = fsutil.Resolve(dir, p)
	}
	return out
}
