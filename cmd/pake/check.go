// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the project without building",
		Long: `Parse every build file, evaluate every variable and target field, and
check that all dependencies exist and form no cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.load(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, s.config(), flags, err)
			}
			order, err := s.project.Check()
			if err != nil {
				return app.fail(cmd, s.cfg, flags, err)
			}

			fmt.Fprintf(app.stdout, "%s %d build files, %d targets, %d configurations\n",
				SuccessStyle.Render("✓"), len(s.project.Files), s.project.Graph.Len(), len(s.project.Configurations.Names()))
			if flags.verbose && len(order) > 0 {
				fmt.Fprintf(app.stdout, "%s %s\n", VerboseStyle.Render("order:"), strings.Join(order, " "))
			}
			return nil
		},
	}
}
