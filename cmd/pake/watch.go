// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/Quasek/pake/internal/watch"

	"github.com/spf13/cobra"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Rebuild whenever a file changes",
		Long: `Build the given targets (every visible target when none are named), then
rebuild them each time a watched file changes. The project is loaded afresh
for every rebuild, so edits to build files take effect immediately.

Watch patterns, ignores and the debounce period come from the watch section
of the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, flags, args)
		},
	}
	cmd.Flags().BoolVarP(&flags.all, "all", "a", false, "build every target visible in the configuration")
	return cmd
}

func runWatch(cmd *cobra.Command, app *App, flags *rootFlagValues, args []string) error {
	cfg, root, err := app.loadConfig(cmd.Context(), flags)
	if err != nil {
		return app.fail(cmd, nil, flags, err)
	}
	buildFlags := *flags
	buildFlags.all = len(args) == 0

	rebuild := func(ctx context.Context) {
		s, err := app.load(ctx, &buildFlags)
		if err == nil {
			err = app.build(ctx, s, &buildFlags, args)
		}
		if err != nil && ctx.Err() == nil {
			renderServiceError(app.stderr, newServiceError(err), flags.verbose, glamourStyle(cfg.UI.ColorScheme))
		}
	}

	fmt.Fprintf(app.stdout, "%s initial build\n", bigStepToolStyle.Render("watch"))
	rebuild(cmd.Context())

	opts := watch.OptionsFromConfig(cfg, root)
	opts.Stdout = app.stdout
	opts.OnChange = func(ctx context.Context, changed []string) error {
		fmt.Fprintf(app.stdout, "\n%s %d change(s), rebuilding\n", bigStepToolStyle.Render("watch"), len(changed))
		rebuild(ctx)
		return nil
	}

	w, err := watch.New(opts)
	if err != nil {
		return app.fail(cmd, cfg, flags, err)
	}
	fmt.Fprintf(app.stdout, "\n%s watching %s (Ctrl+C to stop)\n", bigStepToolStyle.Render("watch"), root)
	return app.fail(cmd, cfg, flags, w.Run(cmd.Context()))
}
