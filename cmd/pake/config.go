// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Quasek/pake/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pake configuration",
		Long: `Manage pake configuration.

The first file found is used:
  1. the file given with --config
  2. config.cue in the user config directory
     (Linux: ~/.config/pake, macOS: ~/Library/Application Support/pake,
     Windows: %APPDATA%\pake)
  3. .pake/config.cue below the project root

PAKE_* environment variables override file values, e.g. PAKE_JOBS=8.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, root, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, nil, flags, err)
			}
			path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: flags.configPath, ProjectDir: root})
			if err != nil {
				return app.fail(cmd, cfg, flags, err)
			}
			if path == "" {
				path = "(using defaults)"
			}
			fmt.Fprintf(app.stdout, "%s %s\n\n", SubtitleStyle.Render("// loaded from:"), path)
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	var (
		force      bool
		forProject bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := initTarget(flags, forProject)
			if err != nil {
				return app.fail(cmd, nil, flags, err)
			}
			wrote, err := config.WriteDefault(path, force)
			if err != nil {
				return app.fail(cmd, nil, flags, err)
			}
			if !wrote {
				fmt.Fprintf(app.stdout, "%s %s already exists (use --force to overwrite)\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s wrote %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&forProject, "project", false, "write .pake/config.cue below the project root instead")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file that would be loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := flags.projectRoot()
			if err != nil {
				return app.fail(cmd, nil, flags, err)
			}
			path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: flags.configPath, ProjectDir: root})
			if err != nil {
				return app.fail(cmd, nil, flags, err)
			}
			if path == "" {
				user, err := config.UserConfigPath()
				if err != nil {
					return app.fail(cmd, nil, flags, err)
				}
				fmt.Fprintf(app.stdout, "%s %s\n", user, SubtitleStyle.Render("(not created, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

func initTarget(flags *rootFlagValues, forProject bool) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	if !forProject {
		return config.UserConfigPath()
	}
	root, err := flags.projectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, config.ProjectConfigDir, config.ConfigFileName+"."+config.ConfigFileExt), nil
}
