// SPDX-License-Identifier: MPL-2.0

// Package compile compiles the translation units of one target concurrently.
package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Quasek/pake/internal/toolchain"
)

// ErrCompilationFailed is the sentinel wrapped by Error.
var ErrCompilationFailed = errors.New("compilation failed")

type (
	// Unit describes the sources of one target and how to compile them.
	Unit struct {
		Target        string
		Dir           string
		Sources       []string
		IncludeDirs   []string
		CompilerFlags []string
	}

	// Error carries the first failure recorded while compiling a unit.
	Error struct {
		Target string
		Source string
		Err    error
	}

	// Executor bounds how many compiler invocations run at once.
	Executor struct {
		jobs int
	}
)

func (e *Error) Error() string {
	return fmt.Sprintf("%v: target %s: %s: %v", ErrCompilationFailed, e.Target, e.Source, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrCompilationFailed, e.Err}
}

// NewExecutor returns an executor admitting at most jobs concurrent compilations.
// Values below one mean one.
func NewExecutor(jobs int) *Executor {
	return &Executor{jobs: max(jobs, 1)}
}

// Jobs is the admission limit.
func (x *Executor) Jobs() int {
	return x.jobs
}

// Compile builds one object per source and returns the object paths in source
// order. After the first failure no further compilations start; those already
// running finish and their results are discarded.
func (x *Executor) Compile(ctx context.Context, tc toolchain.Toolchain, unit Unit) ([]string, error) {
	objects := make([]string, len(unit.Sources))
	for i, source := range unit.Sources {
		objects[i] = tc.ObjectFilename(unit.Target, source)
	}

	var (
		failed    atomic.Bool
		recordErr sync.Once
		first     *Error
		g         errgroup.Group
	)
	g.SetLimit(x.jobs)

	for i, source := range unit.Sources {
		if failed.Load() {
			break
		}
		g.Go(func() error {
			if failed.Load() {
				slog.Debug("skipping compilation after failure", "target", unit.Target, "source", source)
				return nil
			}
			err := tc.BuildObject(ctx, toolchain.ObjectRequest{
				Dir:         unit.Dir,
				Target:      unit.Target,
				Object:      objects[i],
				Source:      source,
				IncludeDirs: unit.IncludeDirs,
				Flags:       unit.CompilerFlags,
			})
			if err != nil {
				recordErr.Do(func() {
					first = &Error{Target: unit.Target, Source: source, Err: err}
				})
				failed.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed.Load() {
		return nil, first
	}
	return objects, nil
}
