// SPDX-License-Identifier: MPL-2.0

// Package build turns registered targets into build actions.
//
// A Graph maps target names to targets. An Orchestrator walks the graph for one
// invocation: every target builds at most once, dependencies build first and
// depth-first in declared order, and only one target builds at a time. Within a
// compiled target, translation units are compiled concurrently by the
// compile.Executor.
package build
