// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/Quasek/pake/internal/build"
	"github.com/Quasek/pake/internal/issue"
	"github.com/Quasek/pake/internal/shell"
	"github.com/Quasek/pake/pkg/configuration"
	"github.com/Quasek/pake/pkg/variables"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			name: "variable error inside a build step",
			err:  &build.StepError{Target: "app", Step: build.StepCompile, Err: &variables.ResolutionError{Err: variables.ErrUnknownVariable}},
			want: issue.VariableResolutionFailedId,
		},
		{
			name: "hook failure",
			err:  &build.StepError{Target: "gen", Step: build.StepRunBefore, Err: &shell.ExitError{Script: "false", Code: 1}},
			want: issue.HookFailedId,
		},
		{
			name: "missing dependency",
			err:  &build.NotFoundError{Name: "lib", RequiredBy: "app"},
			want: issue.TargetNotFoundId,
		},
		{
			name: "configuration",
			err:  fmt.Errorf("select: %w", &configuration.NotFoundError{Name: "nightly"}),
			want: issue.ConfigurationNotFoundId,
		},
		{
			name: "actionable error names its issue",
			err:  issue.NewErrorContext().WithOperation("load configuration").WithIssue(issue.ConfigLoadFailedId).Wrap(os.ErrNotExist).BuildError(),
			want: issue.ConfigLoadFailedId,
		},
		{
			name: "missing file",
			err:  fmt.Errorf("stat: %w", os.ErrNotExist),
			want: issue.FileNotFoundId,
		},
		{
			name: "unclassified",
			err:  errors.New("boom"),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewServiceError_NilPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("newServiceError(nil) did not panic")
		}
	}()
	newServiceError(nil)
}

func TestRenderServiceError_Unclassified(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderServiceError(&out, newServiceError(errors.New("boom")), false, "dark")
	if got := out.String(); !strings.Contains(got, "fatal:") || !strings.HasSuffix(got, "boom\n") {
		t.Errorf("rendered = %q", got)
	}
}

func TestStyledReporter(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := newStyledReporter(&out)
	r.BigStep("target", "app (application)")
	r.Step("c++", "main.cpp")

	if got, want := out.String(), "target app (application)\nc++ main.cpp\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
