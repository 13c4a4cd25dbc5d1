// SPDX-License-Identifier: MPL-2.0

// Package variables implements the scoped variable store used by build files.
//
// Every variable belongs to exactly one module and holds an ordered list of
// parts. A part is either literal text, which may embed ${name} interpolation
// markers, or a reference to another variable in the same or a foreign module.
// Variables are evaluated lazily and never memoized: each evaluation re-walks
// the reference chain, tracking the chain so that reference cycles surface as
// a *CycleError instead of unbounded recursion.
package variables
