// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"slices"

	"github.com/Quasek/pake/internal/dag"
	"github.com/Quasek/pake/pkg/variables"
)

// Plan evaluates the depends_on list of every registered target and returns
// the resulting dependency graph. Edges run from a dependency to its dependent.
// A dependency that names no registered target fails with *NotFoundError.
func Plan(g *Graph, store *variables.Store) (*dag.Graph, error) {
	d := dag.New()
	for _, t := range g.Targets() {
		d.AddNode(t.Name)
		deps, err := store.EvaluateValue(t.DependsOn)
		if err != nil {
			return nil, &StepError{Target: t.Name, Step: StepDependsOn, Err: err}
		}
		for _, dep := range deps {
			if _, ok := g.Lookup(dep); !ok {
				return nil, &NotFoundError{Name: dep, RequiredBy: t.Name}
			}
			d.AddEdge(dep, t.Name)
		}
	}
	return d, nil
}

// Order returns every registered target so that each follows its dependencies.
// A cycle is reported as *CycleError in depends_on direction.
func Order(g *Graph, store *variables.Store) ([]string, error) {
	d, err := Plan(g, store)
	if err != nil {
		return nil, err
	}
	order, err := d.TopologicalSort()
	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		chain := slices.Clone(cycle.Cycle)
		slices.Reverse(chain)
		return nil, &CycleError{Chain: chain}
	}
	return order, err
}
