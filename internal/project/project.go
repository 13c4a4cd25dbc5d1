// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Quasek/pake/internal/build"
	"github.com/Quasek/pake/internal/compile"
	"github.com/Quasek/pake/internal/config"
	"github.com/Quasek/pake/internal/discovery"
	"github.com/Quasek/pake/internal/issue"
	"github.com/Quasek/pake/internal/report"
	"github.com/Quasek/pake/internal/shell"
	"github.com/Quasek/pake/internal/toolchain"
	"github.com/Quasek/pake/pkg/configuration"
	"github.com/Quasek/pake/pkg/pakefile"
	"github.com/Quasek/pake/pkg/variables"
)

// Names of the variables every invocation provides without a declaration.
const (
	PathVariable  = "__path"
	NullVariable  = "__null"
	BuildVariable = "__build"
	NameVariable  = "__name"
)

type (
	// Options configures Load. Only Config is required.
	Options struct {
		Config *config.Config
		// Dir is the project root. The default is the working directory.
		Dir string

		// Reporter receives build progress. Nil discards it.
		Reporter report.Reporter
		// Shell overrides the runner selected by Config.Shell.
		Shell shell.Runner
		// Executor overrides how compilers and archivers are started.
		Executor toolchain.Executor
		// Environ is the base environment of hook commands. Nil means os.Environ().
		Environ []string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// Project is the loaded state of one invocation.
	Project struct {
		Root        string
		Files       []discovery.File
		Diagnostics []discovery.Diagnostic
		Modules     []*pakefile.Module

		Store          *variables.Store
		Configurations *configuration.Registry
		Graph          *build.Graph

		opts Options
	}
)

// Load discovers and parses every build file below the project root. The
// default configuration from Config is selected; call SelectConfiguration to
// pick another before building.
func Load(ctx context.Context, opts Options) (*Project, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Reporter == nil {
		opts.Reporter = report.Discard
	}

	res, err := discovery.New(opts.Config, discovery.WithBaseDir(opts.Dir)).Discover(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Diagnostics {
		slog.Warn(d.Message, "code", d.Code, "path", d.Path)
	}

	p := &Project{
		Root:           res.Root,
		Files:          res.Files,
		Diagnostics:    res.Diagnostics,
		Store:          variables.NewStore(),
		Configurations: configuration.New(),
		Graph:          build.NewGraph(build.GraphOptions{AllowRedefinition: opts.Config.AllowTargetRedefinition}),
		opts:           opts,
	}

	for _, f := range res.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.addModule(f); err != nil {
			return nil, err
		}
	}

	name := opts.Config.DefaultConfiguration
	if name == "" {
		name = pakefile.DefaultConfigurationName
	}
	if err := p.SelectConfiguration(name); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) addModule(f discovery.File) error {
	slog.Debug("parsing build file", "path", f.Rel)
	mod, err := pakefile.ParseFile(f.Path, p.Store)
	if err != nil {
		return err
	}
	p.Store.Set(mod.Name, PathVariable, variables.Literal(mod.Name, mod.Dir))
	p.Store.Set(mod.Name, NullVariable)

	for _, c := range mod.Configurations {
		if err := p.Configurations.Add(c); err != nil {
			return err
		}
	}
	for _, t := range mod.Targets {
		if err := p.Graph.Register(t); err != nil {
			return err
		}
	}
	p.Modules = append(p.Modules, mod)
	return nil
}

// SelectConfiguration makes name the active configuration and reinstalls the
// variables that depend on it: $__configuration.__name, the configuration's
// exports and every module's __build.
func (p *Project) SelectConfiguration(name string) error {
	if err := p.Configurations.Select(name); err != nil {
		return err
	}
	active := p.Configurations.Active()

	// Exports of a previously selected configuration must not leak.
	p.Store.Reset(pakefile.ConfigurationModule)
	p.Store.Set(pakefile.ConfigurationModule, NullVariable)
	p.Store.Set(pakefile.ConfigurationModule, NameVariable, variables.Literal(pakefile.ConfigurationModule, active.Name))
	for _, e := range active.Exports {
		p.Store.Set(pakefile.ConfigurationModule, e.Name, e.Value)
	}

	buildDir := p.BuildDir()
	for _, mod := range p.Modules {
		p.Store.Set(mod.Name, BuildVariable, variables.Literal(mod.Name, buildDir))
	}
	slog.Debug("selected configuration", "name", active.Name, "build_dir", buildDir)
	return nil
}

// Active returns the active configuration.
func (p *Project) Active() *pakefile.Configuration {
	return p.Configurations.Active()
}

// BuildRoot returns the absolute directory holding every configuration's output.
func (p *Project) BuildRoot() string {
	root := p.opts.Config.BuildRoot
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(p.Root, root)
}

// BuildDir returns the output directory of the active configuration.
func (p *Project) BuildDir() string {
	return filepath.Join(p.BuildRoot(), p.Configurations.Active().Name)
}

// Settings evaluates the toolchain fields of the active configuration.
func (p *Project) Settings() (toolchain.Settings, error) {
	c := p.Configurations.Active()
	s := toolchain.Settings{BuildDir: p.BuildDir()}
	fields := []struct {
		name  string
		value variables.Value
		dst   *[]string
	}{
		{"compiler", c.Compiler, &s.Compiler},
		{"archiver", c.Archiver, &s.Archiver},
		{"compiler_flags", c.CompilerFlags, &s.CompilerFlags},
		{"linker_flags", c.LinkerFlags, &s.LinkerFlags},
	}
	for _, f := range fields {
		values, err := p.Store.EvaluateValue(f.value)
		if err != nil {
			return s, issue.WrapWithContext(err, "evaluate "+f.name+" of configuration", c.Name)
		}
		*f.dst = values
	}
	suffix, err := p.Store.EvaluateValue(c.ApplicationSuffix)
	if err != nil {
		return s, issue.WrapWithContext(err, "evaluate application_suffix of configuration", c.Name)
	}
	s.ApplicationSuffix = strings.Join(suffix, "")
	return s, nil
}

// Orchestrator locks the active configuration and returns an orchestrator for
// it. jobs bounds concurrent compilations; zero uses Config.Jobs.
func (p *Project) Orchestrator(jobs int) (*build.Orchestrator, error) {
	settings, err := p.Settings()
	if err != nil {
		return nil, err
	}
	runner := p.opts.Shell
	if runner == nil {
		runner, err = shell.New(shell.Mode(p.opts.Config.Shell))
		if err != nil {
			return nil, err
		}
	}
	if jobs <= 0 {
		jobs = p.opts.Config.Jobs
	}
	environ := p.opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	exec := p.opts.Executor
	if exec == nil {
		exec = toolchain.ProcessExecutor{Stdout: p.opts.Stdout, Stderr: p.opts.Stderr}
	}

	p.Configurations.Lock()
	return build.NewOrchestrator(build.Options{
		Graph:          p.Graph,
		Store:          p.Store,
		Configurations: p.Configurations,
		Toolchain:      toolchain.NewGNU(settings, exec, p.opts.Reporter),
		Compiler:       compile.NewExecutor(jobs),
		Shell:          runner,
		Reporter:       p.opts.Reporter,
		Environ:        environ,
		Stdout:         p.opts.Stdout,
		Stderr:         p.opts.Stderr,
	}), nil
}

// Check evaluates every variable, every target field and the active
// configuration, then orders the targets. It returns the build order.
func (p *Project) Check() ([]string, error) {
	for _, module := range p.Store.Modules() {
		for _, name := range p.Store.Names(module) {
			if _, err := p.Store.Evaluate(variables.Ref{Module: module, Name: name}); err != nil {
				return nil, err
			}
		}
	}
	for _, t := range p.Graph.Targets() {
		fields := TargetFields(t)
		for _, field := range slices.Sorted(maps.Keys(fields)) {
			if _, err := p.Store.EvaluateValue(fields[field]); err != nil {
				return nil, &build.StepError{Target: t.Name, Step: field, Err: err}
			}
		}
	}
	if _, err := p.Settings(); err != nil {
		return nil, err
	}
	return build.Order(p.Graph, p.Store)
}

// TargetFields returns every field of t keyed by its build file name.
func TargetFields(t *pakefile.Target) map[string]variables.Value {
	fields := map[string]variables.Value{
		"depends_on": t.DependsOn,
		"run_before": t.RunBefore,
		"run_after":  t.RunAfter,
		"resources":  t.Resources,
		"visible_in": t.VisibleIn,
	}
	compilable := func(c *pakefile.Compilable) {
		fields["sources"] = c.Sources
		fields["include_dirs"] = c.IncludeDirs
		fields["compiler_flags"] = c.CompilerFlags
	}
	switch v := t.Variant.(type) {
	case *pakefile.Phony:
		fields["artefacts"] = v.Artefacts
		fields["prerequisites"] = v.Prerequisites
	case *pakefile.Application:
		compilable(&v.Compilable)
		fields["link_with"] = v.LinkWith
		fields["library_dirs"] = v.LibraryDirs
	case *pakefile.StaticLibrary:
		compilable(&v.Compilable)
	}
	return fields
}
