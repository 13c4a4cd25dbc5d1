// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Quasek/pake/internal/config"
	"github.com/Quasek/pake/internal/project"
	"github.com/Quasek/pake/internal/shell"
	"github.com/Quasek/pake/internal/toolchain"
	"github.com/Quasek/pake/pkg/pakefile"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// App is the composition root of the CLI. Command handlers receive it and
	// reach configuration, output streams and build services through it.
	App struct {
		Config   config.Provider
		shell    shell.Runner
		executor toolchain.Executor
		environ  []string
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		// Shell overrides the hook runner selected by the shell setting.
		Shell shell.Runner
		// Executor overrides how compilers and archivers are started.
		Executor toolchain.Executor
		// Environ is the base environment of hook commands.
		Environ []string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// rootFlagValues are the flags every command shares.
	rootFlagValues struct {
		all           bool
		configuration string
		jobs          int
		directory     string
		verbose       bool
		configPath    string
	}

	// session is the configuration and project of one command invocation.
	session struct {
		cfg     *config.Config
		root    string
		project *project.Project
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config:   deps.Config,
		shell:    deps.Shell,
		executor: deps.Executor,
		environ:  deps.Environ,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
}

// projectRoot resolves -C against the working directory.
func (f *rootFlagValues) projectRoot() (string, error) {
	dir := f.directory
	if dir == "" {
		dir = "."
	}
	return filepath.Abs(dir)
}

// loadConfig loads the tool configuration and installs the logger it asks for.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, string, error) {
	root, err := flags.projectRoot()
	if err != nil {
		return nil, "", err
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		ProjectDir:     root,
	})
	if err != nil {
		a.setupLogging(flags.verbose)
		return nil, "", err
	}
	a.setupLogging(flags.verbose || cfg.UI.Verbose)
	return cfg, root, nil
}

// load loads the configuration and the project below -C, selecting the
// configuration named by -c when given. When only the project fails, the
// returned session still carries the configuration.
func (a *App) load(ctx context.Context, flags *rootFlagValues) (*session, error) {
	cfg, root, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, root: root}

	p, err := project.Load(ctx, project.Options{
		Config:   cfg,
		Dir:      root,
		Reporter: newStyledReporter(a.stdout),
		Shell:    a.shell,
		Executor: a.executor,
		Environ:  a.environ,
		Stdout:   a.stdout,
		Stderr:   a.stderr,
	})
	if err != nil {
		return s, err
	}
	if flags.configuration != "" {
		if err := p.SelectConfiguration(flags.configuration); err != nil {
			return s, err
		}
	}
	warnShadowedTargets(p)
	s.project = p
	return s, nil
}

// warnShadowedTargets points at `pake build` for targets a subcommand hides.
func warnShadowedTargets(p *project.Project) {
	for _, name := range reservedNames {
		if _, ok := p.Graph.Lookup(name); ok {
			slog.Warn("target is shadowed by a subcommand, build it with `pake build "+name+"`", "target", name)
		}
	}
}

// config returns the loaded configuration, or nil before it loaded.
func (s *session) config() *config.Config {
	if s == nil {
		return nil
	}
	return s.cfg
}

// build runs the named targets, or every visible target when all is set.
func (a *App) build(ctx context.Context, s *session, flags *rootFlagValues, targets []string) error {
	o, err := s.project.Orchestrator(flags.jobs)
	if err != nil {
		return err
	}
	if active := s.project.Active().Name; active != pakefile.DefaultConfigurationName {
		newStyledReporter(a.stdout).BigStep("configuration", active)
	}

	if flags.all && len(targets) == 0 {
		return o.BuildAll(ctx)
	}
	for _, name := range targets {
		if err := o.Build(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// fail shows err to the user and turns it into an ExitError so cobra and fang
// stay quiet about it.
func (a *App) fail(cmd *cobra.Command, cfg *config.Config, flags *rootFlagValues, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: 130, Err: err}
	}

	scheme := config.ColorSchemeAuto
	verbose := flags.verbose
	if cfg != nil {
		scheme = cfg.UI.ColorScheme
		verbose = verbose || cfg.UI.Verbose
	}
	renderServiceError(a.stderr, newServiceError(err), verbose, glamourStyle(scheme))

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: 1, Err: err}
}

func (a *App) setupLogging(verbose bool) {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
}
