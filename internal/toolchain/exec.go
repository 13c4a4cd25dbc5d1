// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

type (
	// Invocation is one tool command line.
	Invocation struct {
		Dir  string
		Args []string
		// Capture collects stdout instead of streaming it.
		Capture bool
	}

	// Executor runs tool invocations. It returns captured stdout when requested.
	Executor interface {
		Execute(ctx context.Context, inv Invocation) ([]byte, error)
	}

	// ProcessExecutor runs tools as child processes.
	ProcessExecutor struct {
		Stdout io.Writer
		Stderr io.Writer
	}
)

// Execute runs inv and returns its stdout when inv.Capture is set. Stderr
// always streams to p.Stderr, or os.Stderr when unset.
func (p ProcessExecutor) Execute(ctx context.Context, inv Invocation) ([]byte, error) {
	cmd := exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir

	cmd.Stderr = writerOr(p.Stderr, os.Stderr)

	var stdout bytes.Buffer
	if inv.Capture {
		cmd.Stdout = &stdout
	} else {
		cmd.Stdout = writerOr(p.Stdout, os.Stdout)
	}

	slog.Debug("running tool", "dir", inv.Dir, "args", inv.Args)
	if err := cmd.Run(); err != nil {
		return nil, &ToolError{Args: inv.Args, Err: err}
	}
	return stdout.Bytes(), nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
