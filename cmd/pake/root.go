// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// reservedNames are subcommands cobra resolves before positional targets.
	// Targets with these names are only reachable through `pake build`.
	reservedNames = []string{"build", "list", "check", "watch", "config", "help", "completion"}
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "pake [targets...]",
		Short: "A painless build system",
		Long: TitleStyle.Render("pake") + SubtitleStyle.Render(" - a painless build system") + `

pake reads every .pake file below the current directory, then builds the
targets named on the command line after their dependencies.

` + SubtitleStyle.Render("Examples:") + `
  pake                 List targets and configurations
  pake app             Build the 'app' target
  pake -a -c release   Build every target in the 'release' configuration
  pake -j 8 app        Compile with up to 8 parallel jobs
  pake build check     Build a target named like a subcommand
  pake watch app       Rebuild 'app' whenever a file changes`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !flags.all {
				return runList(cmd, app, flags)
			}
			return runBuild(cmd, app, flags, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is the user config dir, then .pake/config.cue)")
	pf.StringVarP(&flags.configuration, "configuration", "c", "", "configuration to build with")
	pf.IntVarP(&flags.jobs, "jobs", "j", 0, "parallel compilation jobs (default from config)")
	pf.StringVarP(&flags.directory, "directory", "C", "", "project root (default is the working directory)")
	rootCmd.Flags().BoolVarP(&flags.all, "all", "a", false, "build every target visible in the configuration")

	rootCmd.AddCommand(newBuildCommand(app, flags))
	rootCmd.AddCommand(newListCommand(app, flags))
	rootCmd.AddCommand(newCheckCommand(app, flags))
	rootCmd.AddCommand(newWatchCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	return rootCmd
}

func newBuildCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build targets, including ones named like a subcommand",
		Long: `Build the named targets after their dependencies. Without targets every
target visible in the active configuration is built.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.all = len(args) == 0
			return runBuild(cmd, app, flags, args)
		},
	}
	return cmd
}

func runBuild(cmd *cobra.Command, app *App, flags *rootFlagValues, args []string) error {
	if flags.jobs < 0 {
		return fmt.Errorf("--jobs must be at least 1, got %d", flags.jobs)
	}
	ctx := cmd.Context()
	s, err := app.load(ctx, flags)
	if err != nil {
		return app.fail(cmd, s.config(), flags, err)
	}
	return app.fail(cmd, s.cfg, flags, app.build(ctx, s, flags, args))
}

func runList(cmd *cobra.Command, app *App, flags *rootFlagValues) error {
	s, err := app.load(cmd.Context(), flags)
	if err != nil {
		return app.fail(cmd, s.config(), flags, err)
	}
	return app.fail(cmd, s.cfg, flags, printListing(app.stdout, s.project, listOptions{format: formatText}))
}

// renderUnhandledError leaves errors the commands already printed to them and
// hands everything else, such as flag parsing errors, to fang.
func renderUnhandledError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the status of the failed command.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(renderUnhandledError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
