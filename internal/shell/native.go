// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Native runs commands with "<shell> -c <script>".
type Native struct {
	Shell string
}

// NewNative locates a POSIX shell on PATH, preferring sh over bash.
func NewNative() (*Native, error) {
	for _, name := range []string{"sh", "bash"} {
		if path, err := exec.LookPath(name); err == nil {
			return &Native{Shell: path}, nil
		}
	}
	return nil, ErrShellNotFound
}

// Name reports the mode, "native".
func (n *Native) Name() string {
	return string(ModeNative)
}

// Run executes c.Script with `<shell> -c`. A non-zero exit status becomes an
// *ExitError.
func (n *Native) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, n.Shell, "-c", c.Script)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdout = writerOr(c.Stdout, os.Stdout)
	cmd.Stderr = writerOr(c.Stderr, os.Stderr)

	slog.Debug("running command", "shell", n.Shell, "dir", c.Dir, "script", c.Script)
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Script: c.Script, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("run %q: %w", c.Script, err)
}
