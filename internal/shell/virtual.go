// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Virtual interprets commands with the embedded mvdan/sh interpreter, so hooks
// work on hosts without a POSIX shell.
type Virtual struct{}

// NewVirtual returns a runner that interprets scripts in process.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Name reports the mode, "virtual".
func (v *Virtual) Name() string {
	return string(ModeVirtual)
}

// Run parses and interprets c.Script. A non-zero exit status becomes an
// *ExitError.
func (v *Virtual) Run(ctx context.Context, c Command) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(c.Script), "command")
	if err != nil {
		return fmt.Errorf("parse %q: %w", c.Script, err)
	}

	runner, err := interp.New(
		interp.Dir(c.Dir),
		interp.Env(expand.ListEnviron(c.Env...)),
		interp.StdIO(nil, writerOr(c.Stdout, os.Stdout), writerOr(c.Stderr, os.Stderr)),
		interp.ExecHandlers(logExec),
	)
	if err != nil {
		return fmt.Errorf("create interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)
	if err == nil {
		return nil
	}
	var status interp.ExitStatus
	if errors.As(err, &status) {
		return &ExitError{Script: c.Script, Code: int(status)}
	}
	return fmt.Errorf("run %q: %w", c.Script, err)
}

func logExec(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		slog.Debug("virtual shell exec", "args", args)
		return next(ctx, args)
	}
}
