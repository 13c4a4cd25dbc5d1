// SPDX-License-Identifier: MPL-2.0

// Package toolchain invokes compilers, linkers and archivers for compiled targets.
package toolchain

import (
	"context"
	"errors"
	"fmt"
)

// ErrToolFailed is the sentinel wrapped by ToolError.
var ErrToolFailed = errors.New("tool invocation failed")

type (
	// Toolchain is everything the build orchestrator needs from a compiler suite.
	// Every operation skips its work when its output is already up to date.
	Toolchain interface {
		BuildObject(ctx context.Context, req ObjectRequest) error
		LinkApplication(ctx context.Context, req LinkRequest) error
		LinkStaticLibrary(ctx context.Context, req ArchiveRequest) error

		ObjectFilename(target, source string) string
		StaticLibraryFilename(target string) string
		ApplicationFilename(target string) string
		BuildDir() string
	}

	// ObjectRequest compiles one source into one object file.
	// Relative paths resolve against Dir, the owning module's directory.
	ObjectRequest struct {
		Dir         string
		Target      string
		Object      string
		Source      string
		IncludeDirs []string
		Flags       []string
	}

	// LinkRequest links objects and libraries into an executable.
	LinkRequest struct {
		Dir         string
		Output      string
		Objects     []string
		Libraries   []string
		LibraryDirs []string
	}

	// ArchiveRequest bundles objects into a static library.
	ArchiveRequest struct {
		Dir     string
		Output  string
		Objects []string
	}

	// ToolError reports a tool that could not run or exited unsuccessfully.
	// The tool's diagnostics have already been streamed to stderr.
	ToolError struct {
		Args []string
		Err  error
	}
)

func (e *ToolError) Error() string {
	return fmt.Sprintf("%v: %q: %v", ErrToolFailed, e.Args, e.Err)
}

func (e *ToolError) Unwrap() []error {
	return []error{ErrToolFailed, e.Err}
}
