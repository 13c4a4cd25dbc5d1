// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	// ModeNative runs commands with the host shell.
	ModeNative Mode = "native"
	// ModeVirtual runs commands with the embedded mvdan/sh interpreter.
	ModeVirtual Mode = "virtual"
)

var (
	// ErrCommandFailed is the sentinel wrapped by ExitError.
	ErrCommandFailed = errors.New("command did not finish successfully")
	// ErrShellNotFound is returned when no POSIX shell is available for the native runner.
	ErrShellNotFound = errors.New("no POSIX shell found")
	// ErrInvalidMode is returned for an unknown Mode.
	ErrInvalidMode = errors.New("invalid shell mode")
)

type (
	// Mode selects a Runner implementation.
	Mode string

	// Command is one shell command line and the context it runs in.
	Command struct {
		Script string
		Dir    string
		// Env is the complete environment; later entries win over earlier ones.
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner executes commands.
	Runner interface {
		Name() string
		Run(ctx context.Context, cmd Command) error
	}

	// ExitError reports a command that ran and exited with a non-zero status.
	ExitError struct {
		Script string
		Code   int
	}
)

func (e *ExitError) Error() string {
	return fmt.Sprintf("%v (exit status %d): %s", ErrCommandFailed, e.Code, e.Script)
}

func (e *ExitError) Unwrap() error {
	return ErrCommandFailed
}

// Validate reports whether m names a known runner.
func (m Mode) Validate() error {
	switch m {
	case ModeNative, ModeVirtual:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
}

// New returns the runner for mode.
func New(mode Mode) (Runner, error) {
	switch mode {
	case ModeNative, "":
		return NewNative()
	case ModeVirtual:
		return NewVirtual(), nil
	default:
		return nil, mode.Validate()
	}
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
