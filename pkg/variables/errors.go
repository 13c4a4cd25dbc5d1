// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownModule is returned when a reference names a module that was never declared.
	ErrUnknownModule = errors.New("unknown module")
	// ErrUnknownVariable is returned when a reference names a variable missing from a known module.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrInvalidReference is returned for syntactically malformed references such as "$" or "$m.".
	ErrInvalidReference = errors.New("invalid variable reference")
	// ErrInterpolation is the sentinel wrapped by InterpolationError.
	ErrInterpolation = errors.New("malformed interpolation")
	// ErrCycle is the sentinel wrapped by CycleError.
	ErrCycle = errors.New("variable reference cycle")
)

type (
	// ResolutionError reports a reference that does not resolve to a declared variable.
	// It wraps ErrUnknownModule or ErrUnknownVariable.
	ResolutionError struct {
		Ref Ref
		Err error
	}

	// InterpolationError reports a malformed ${...} marker inside literal text.
	InterpolationError struct {
		Module string
		Text   string
		Offset int
		Reason string
	}

	// CycleError reports a chain of references that leads back to itself.
	// The first and last elements of Chain are the same reference.
	CycleError struct {
		Chain []Ref
	}
)

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %v", e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *InterpolationError) Error() string {
	return fmt.Sprintf("module %s: %s at offset %d in %q", e.Module, e.Reason, e.Offset, e.Text)
}

func (e *InterpolationError) Unwrap() error {
	return ErrInterpolation
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Chain))
	for i, r := range e.Chain {
		names[i] = r.String()
	}
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(names, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}
