// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateTarget is the sentinel wrapped by DuplicateTargetError.
	ErrDuplicateTarget = errors.New("target declared twice")
	// ErrTargetNotFound is the sentinel wrapped by NotFoundError.
	ErrTargetNotFound = errors.New("target not found")
	// ErrTargetNotVisible is the sentinel wrapped by NotVisibleError.
	ErrTargetNotVisible = errors.New("target not visible in configuration")
	// ErrDependencyCycle is the sentinel wrapped by CycleError.
	ErrDependencyCycle = errors.New("dependency cycle")
	// ErrBuildFailed is the sentinel wrapped by StepError.
	ErrBuildFailed = errors.New("build failed")
)

type (
	// DuplicateTargetError reports a target name declared by two modules.
	DuplicateTargetError struct {
		Name   string
		First  string
		Second string
	}

	// NotFoundError reports a target name nothing declares. RequiredBy is empty
	// for names requested directly.
	NotFoundError struct {
		Name       string
		RequiredBy string
	}

	// NotVisibleError reports a target requested under a configuration its
	// visible_in list excludes.
	NotVisibleError struct {
		Name          string
		Configuration string
		VisibleIn     []string
	}

	// CycleError reports targets that depend on themselves. The first and last
	// elements of Chain are the same target.
	CycleError struct {
		Chain []string
	}

	// StepError reports a failed step of a target build.
	StepError struct {
		Target string
		Step   string
		Err    error
	}
)

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("%v: %q in module %s and module %s", ErrDuplicateTarget, e.Name, e.First, e.Second)
}

func (e *DuplicateTargetError) Unwrap() error { return ErrDuplicateTarget }

func (e *NotFoundError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("%v: %q (required by %s)", ErrTargetNotFound, e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("%v: %q", ErrTargetNotFound, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrTargetNotFound }

func (e *NotVisibleError) Error() string {
	return fmt.Sprintf("target %q is not visible in configuration %q (visible in: %s)",
		e.Name, e.Configuration, strings.Join(e.VisibleIn, ", "))
}

func (e *NotVisibleError) Unwrap() error { return ErrTargetNotVisible }

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDependencyCycle, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrDependencyCycle }

func (e *StepError) Error() string {
	return fmt.Sprintf("target %s: %s: %v", e.Target, e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{ErrBuildFailed, e.Err}
}
