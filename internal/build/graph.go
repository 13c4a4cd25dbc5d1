// SPDX-License-Identifier: MPL-2.0

package build

import (
	"log/slog"

	"github.com/Quasek/pake/pkg/pakefile"
)

type (
	// GraphOptions tunes target registration.
	GraphOptions struct {
		// AllowRedefinition lets a later declaration of a name replace the earlier
		// one instead of failing.
		AllowRedefinition bool
	}

	// Graph is the flat, process-global namespace of targets.
	Graph struct {
		opts    GraphOptions
		targets map[string]*pakefile.Target
		order   []string
	}
)

// NewGraph returns an empty graph applying opts to every registration.
func NewGraph(opts GraphOptions) *Graph {
	return &Graph{opts: opts, targets: make(map[string]*pakefile.Target)}
}

// Register adds t. A replaced target keeps the position of the original in Names.
func (g *Graph) Register(t *pakefile.Target) error {
	if existing, ok := g.targets[t.Name]; ok {
		if !g.opts.AllowRedefinition {
			return &DuplicateTargetError{Name: t.Name, First: existing.Module, Second: t.Module}
		}
		slog.Warn("target redefined, later definition wins", "target", t.Name, "previous", existing.Module, "module", t.Module)
		g.targets[t.Name] = t
		return nil
	}
	g.targets[t.Name] = t
	g.order = append(g.order, t.Name)
	return nil
}

// Lookup returns the target registered under name.
func (g *Graph) Lookup(name string) (*pakefile.Target, bool) {
	t, ok := g.targets[name]
	return t, ok
}

// Names lists target names in registration order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.order...)
}

// Targets lists targets in registration order.
func (g *Graph) Targets() []*pakefile.Target {
	out := make([]*pakefile.Target, len(g.order))
	for i, name := range g.order {
		out[i] = g.targets[name]
	}
	return out
}

// Len is the number of registered targets.
func (g *Graph) Len() int {
	return len(g.order)
}
