// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

type (
	Severity string

	// Diagnostic is a problem found during discovery that did not stop it. It
	// is returned to callers rather than written to stderr, so the CLI decides
	// how to render it.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier such as "dir_unreadable".
		Code    string
		Message string
		Path    string
		Cause   error
	}
)
