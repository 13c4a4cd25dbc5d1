// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/Quasek/pake/internal/build"
	"github.com/Quasek/pake/internal/compile"
	"github.com/Quasek/pake/internal/config"
	"github.com/Quasek/pake/internal/discovery"
	"github.com/Quasek/pake/internal/fsutil"
	"github.com/Quasek/pake/internal/issue"
	"github.com/Quasek/pake/internal/shell"
	"github.com/Quasek/pake/internal/toolchain"
	"github.com/Quasek/pake/pkg/configuration"
	"github.com/Quasek/pake/pkg/pakefile"
	"github.com/Quasek/pake/pkg/variables"
)

// issueRules map error sentinels to catalog entries. The first match wins, so
// causes come before the build errors that wrap them.
var issueRules = []struct {
	target error
	id     issue.Id
}{
	{discovery.ErrNoBuildFiles, issue.PakefileNotFoundId},
	{pakefile.ErrLex, issue.PakefileSyntaxErrorId},
	{pakefile.ErrParse, issue.PakefileSyntaxErrorId},
	{variables.ErrCycle, issue.VariableCycleId},
	{variables.ErrUnknownModule, issue.VariableResolutionFailedId},
	{variables.ErrUnknownVariable, issue.VariableResolutionFailedId},
	{variables.ErrInvalidReference, issue.VariableResolutionFailedId},
	{variables.ErrInterpolation, issue.VariableResolutionFailedId},
	{configuration.ErrConfigurationNotFound, issue.ConfigurationNotFoundId},
	{configuration.ErrDuplicateConfiguration, issue.DuplicateConfigurationId},
	{build.ErrDuplicateTarget, issue.DuplicateTargetId},
	{build.ErrDependencyCycle, issue.DependencyCycleId},
	{build.ErrTargetNotFound, issue.TargetNotFoundId},
	{build.ErrTargetNotVisible, issue.TargetNotVisibleId},
	{shell.ErrShellNotFound, issue.ShellNotFoundId},
	{shell.ErrInvalidMode, issue.InvalidShellModeId},
	{shell.ErrCommandFailed, issue.HookFailedId},
	{compile.ErrCompilationFailed, issue.CompilationFailedId},
	{toolchain.ErrToolFailed, issue.CompilationFailedId},
	{fsutil.ErrMissingPrerequisite, issue.FileNotFoundId},
	{fs.ErrPermission, issue.PermissionDeniedId},
	{fs.ErrNotExist, issue.FileNotFoundId},
}

// ServiceError is an error the CLI has classified against the issue catalog.
// Always create it with newServiceError.
type ServiceError struct {
	Err     error
	IssueID issue.Id
}

// newServiceError classifies err. It panics on a nil err.
func newServiceError(err error) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: classify(err)}
}

func (e *ServiceError) Error() string { return e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

// classify returns the catalog entry for err, or zero when none fits. An
// ActionableError that names an issue takes precedence.
func classify(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}
	for _, rule := range issueRules {
		if errors.Is(err, rule.target) {
			return rule.id
		}
	}
	return 0
}

// renderServiceError prints the error line and, when one applies, the catalog
// entry rendered for the given glamour style.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, verbose bool, style string) {
	if svcErr == nil {
		return
	}
	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("fatal:"), formatErrorForDisplay(svcErr.Err, verbose))

	if svcErr.IssueID == 0 {
		return
	}
	if entry := issue.Get(svcErr.IssueID); entry != nil {
		rendered, err := entry.Render(style)
		if err != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", err)
			return
		}
		fmt.Fprint(stderr, rendered)
	}
}

// formatErrorForDisplay uses ActionableError.Format when available, which adds
// suggestions and, when verbose, the error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// glamourStyle maps the ui.color_scheme setting to a glamour style name.
func glamourStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
