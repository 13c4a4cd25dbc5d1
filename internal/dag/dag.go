// SPDX-License-Identifier: MPL-2.0

// Package dag orders targets by their depends_on edges and reports dependency
// cycles. It backs `pake check` and `pake list --order`; builds themselves walk
// dependencies depth-first and do not need a full ordering up front.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle detected")

type (
	// CycleError reports a closed path through the graph. The first and last
	// elements of Cycle name the same node.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph keyed by node name. An edge from A to B means A
	// must complete before B starts.
	Graph struct {
		// adjacency maps each node to the nodes that depend on it.
		adjacency map[string][]string
		// nodes in insertion order, for deterministic output.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from must complete before to. Both nodes are added
// when missing.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.adjacency[from], to) {
		return
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// TopologicalSort returns an order in which every node follows all of its
// predecessors, using Kahn's algorithm. Nodes that become ready together keep
// insertion order. A graph with a cycle yields a *CycleError naming one cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	var queue []string
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle(inDegree)}
	}
	return result, nil
}

// findCycle walks the nodes Kahn's algorithm could not release and returns the
// first closed path it meets. Every such node has a predecessor that is also
// unreleased, so following successors among them must revisit a node.
func (g *Graph) findCycle(inDegree map[string]int) []string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(g.nodes))
	var path []string

	var visit func(node string) []string
	visit = func(node string) []string {
		state[node] = onPath
		path = append(path, node)
		for _, next := range g.adjacency[node] {
			if inDegree[next] == 0 {
				continue
			}
			switch state[next] {
			case onPath:
				i := slices.Index(path, next)
				return append(slices.Clone(path[i:]), next)
			case unvisited:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		state[node] = done
		return nil
	}

	for _, node := range g.nodes {
		if inDegree[node] > 0 && state[node] == unvisited {
			if cycle := visit(node); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
