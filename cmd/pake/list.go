// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Quasek/pake/internal/build"
	"github.com/Quasek/pake/internal/project"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

type (
	listOptions struct {
		format string
		order  bool
	}

	// listing is the machine-readable form of `pake list`.
	listing struct {
		Targets        []targetEntry        `json:"targets" yaml:"targets" toml:"targets"`
		Configurations []configurationEntry `json:"configurations" yaml:"configurations" toml:"configurations"`
		// Order is every target after its dependencies, with --order.
		Order []string `json:"order,omitempty" yaml:"order,omitempty" toml:"order,omitempty"`
	}

	targetEntry struct {
		Name      string   `json:"name" yaml:"name" toml:"name"`
		Type      string   `json:"type" yaml:"type" toml:"type"`
		Module    string   `json:"module" yaml:"module" toml:"module"`
		DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
		VisibleIn []string `json:"visible_in,omitempty" yaml:"visible_in,omitempty" toml:"visible_in,omitempty"`
	}

	configurationEntry struct {
		Name   string `json:"name" yaml:"name" toml:"name"`
		Module string `json:"module" yaml:"module" toml:"module"`
		Active bool   `json:"active" yaml:"active" toml:"active"`
	}
)

func newListCommand(app *App, flags *rootFlagValues) *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List targets and configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.load(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, s.config(), flags, err)
			}
			return app.fail(cmd, s.cfg, flags, printListing(app.stdout, s.project, opts))
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", formatText, "output format: text, json, yaml or toml")
	cmd.Flags().BoolVar(&opts.order, "order", false, "include the build order of every target")
	return cmd
}

func collectListing(p *project.Project, withOrder bool) (*listing, error) {
	out := &listing{}
	for _, t := range p.Graph.Targets() {
		deps, err := p.Store.EvaluateValue(t.DependsOn)
		if err != nil {
			return nil, &build.StepError{Target: t.Name, Step: build.StepDependsOn, Err: err}
		}
		visible, err := p.Store.EvaluateValue(t.VisibleIn)
		if err != nil {
			return nil, &build.StepError{Target: t.Name, Step: build.StepVisibleIn, Err: err}
		}
		out.Targets = append(out.Targets, targetEntry{
			Name:      t.Name,
			Type:      t.Variant.TypeName(),
			Module:    t.Module,
			DependsOn: deps,
			VisibleIn: visible,
		})
	}

	active := p.Active().Name
	for _, name := range p.Configurations.Names() {
		c, err := p.Configurations.Get(name)
		if err != nil {
			return nil, err
		}
		out.Configurations = append(out.Configurations, configurationEntry{
			Name:   name,
			Module: c.Module,
			Active: name == active,
		})
	}

	if withOrder {
		order, err := build.Order(p.Graph, p.Store)
		if err != nil {
			return nil, err
		}
		out.Order = order
	}
	return out, nil
}

func printListing(w io.Writer, p *project.Project, opts listOptions) error {
	l, err := collectListing(p, opts.order)
	if err != nil {
		return err
	}

	switch opts.format {
	case formatText, "":
		renderListing(w, l)
		return nil
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(l)
	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or toml)", opts.format)
	}
}

func renderListing(w io.Writer, l *listing) {
	width := 0
	for _, t := range l.Targets {
		width = max(width, len(t.Name))
	}

	fmt.Fprintln(w, TitleStyle.Render("targets found in this source tree:"))
	if len(l.Targets) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (none)"))
	}
	for _, t := range l.Targets {
		line := fmt.Sprintf("  %s %s %s", CmdStyle.Render(pad(t.Name, width)), t.Type, SubtitleStyle.Render("("+t.Module+")"))
		if len(t.DependsOn) > 0 {
			line += VerboseStyle.Render(" depends on: " + strings.Join(t.DependsOn, ", "))
		}
		if len(t.VisibleIn) > 0 {
			line += VerboseStyle.Render(" visible in: " + strings.Join(t.VisibleIn, ", "))
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("configurations:"))
	for _, c := range l.Configurations {
		marker := "  "
		if c.Active {
			marker = SuccessStyle.Render("* ")
		}
		fmt.Fprintf(w, "%s%s\n", marker, CmdStyle.Render(c.Name))
	}

	if len(l.Order) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("build order:"))
		for i, name := range l.Order {
			fmt.Fprintf(w, "  %d. %s\n", i+1, name)
		}
	}
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", width-len(s))
}
