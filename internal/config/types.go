// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// ShellNative runs hook commands through the host sh or bash.
	ShellNative ShellMode = "native"
	// ShellVirtual runs hook commands in the embedded mvdan/sh interpreter.
	ShellVirtual ShellMode = "virtual"

	ColorSchemeAuto  ColorScheme = "auto"
	ColorSchemeDark  ColorScheme = "dark"
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidShellMode is returned when a ShellMode value is not recognized.
	ErrInvalidShellMode = errors.New("invalid shell mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPattern is returned for a malformed doublestar pattern.
	ErrInvalidPattern = errors.New("invalid glob pattern")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ShellMode selects the hook command runner.
	ShellMode string

	// InvalidShellModeError wraps ErrInvalidShellMode.
	InvalidShellModeError struct {
		Value ShellMode
	}

	// ColorScheme selects the style used to render issue explanations.
	ColorScheme string

	// InvalidColorSchemeError wraps ErrInvalidColorScheme.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidPatternError names the setting holding a malformed pattern.
	InvalidPatternError struct {
		Field   string
		Pattern string
	}

	// InvalidConfigError collects every field error of a Config. It wraps
	// ErrInvalidConfig.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds pake's own settings. Project build logic lives in build
	// files, not here.
	Config struct {
		// Jobs is the number of concurrent compilations per target.
		Jobs int `json:"jobs" mapstructure:"jobs"`
		// DefaultConfiguration is selected when -c is not given.
		DefaultConfiguration string `json:"default_configuration" mapstructure:"default_configuration"`
		// BuildRoot holds one output directory per configuration.
		BuildRoot string `json:"build_root" mapstructure:"build_root"`
		// FileExtension identifies build files during discovery.
		FileExtension string    `json:"file_extension" mapstructure:"file_extension"`
		Shell         ShellMode `json:"shell" mapstructure:"shell"`
		// AllowTargetRedefinition lets a later target declaration replace an
		// earlier one with the same name.
		AllowTargetRedefinition bool            `json:"allow_target_redefinition" mapstructure:"allow_target_redefinition"`
		Discovery               DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
		Watch                   WatchConfig     `json:"watch" mapstructure:"watch"`
		UI                      UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// DiscoveryConfig controls which build files are loaded.
	DiscoveryConfig struct {
		// Ignore holds doublestar patterns, relative to the project root, of
		// paths never searched.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
	}

	// WatchConfig configures `pake watch`.
	WatchConfig struct {
		Patterns    []string      `json:"patterns" mapstructure:"patterns"`
		Ignore      []string      `json:"ignore" mapstructure:"ignore"`
		Debounce    time.Duration `json:"debounce" mapstructure:"debounce"`
		ClearScreen bool          `json:"clear_screen" mapstructure:"clear_screen"`
	}

	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

func (m ShellMode) String() string { return string(m) }

// Validate returns an *InvalidShellModeError for unknown modes.
func (m ShellMode) Validate() error {
	switch m {
	case ShellNative, ShellVirtual:
		return nil
	default:
		return &InvalidShellModeError{Value: m}
	}
}

func (e *InvalidShellModeError) Error() string {
	return fmt.Sprintf("invalid shell mode %q (valid: native, virtual)", e.Value)
}

func (e *InvalidShellModeError) Unwrap() error { return ErrInvalidShellMode }

func (cs ColorScheme) String() string { return string(cs) }

// Validate returns an *InvalidColorSchemeError for unknown schemes.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: cs}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("%s: invalid glob pattern %q", e.Field, e.Pattern)
}

func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks constraints the schema cannot express, plus values that
// arrive through environment variables and never pass the schema.
func (c *Config) Validate() error {
	var errs []error
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs: must be at least 1, got %d", c.Jobs))
	}
	if c.BuildRoot == "" {
		errs = append(errs, errors.New("build_root: must not be empty"))
	}
	if len(c.FileExtension) < 2 || c.FileExtension[0] != '.' || strings.ContainsAny(c.FileExtension[1:], "./") {
		errs = append(errs, fmt.Errorf("file_extension: %q must be a dot followed by a single extension", c.FileExtension))
	}
	if err := c.Shell.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must not be negative, got %s", c.Watch.Debounce))
	}
	errs = append(errs, validatePatterns("discovery.ignore", c.Discovery.Ignore)...)
	errs = append(errs, validatePatterns("watch.patterns", c.Watch.Patterns)...)
	errs = append(errs, validatePatterns("watch.ignore", c.Watch.Ignore)...)

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func validatePatterns(field string, patterns []string) []error {
	var errs []error
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, &InvalidPatternError{Field: field, Pattern: p})
		}
	}
	return errs
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Jobs:                 1,
		DefaultConfiguration: "__default",
		BuildRoot:            "__build",
		FileExtension:        ".pake",
		Shell:                ShellNative,
		Discovery: DiscoveryConfig{
			Ignore: []string{"**/.git/**"},
		},
		Watch: WatchConfig{
			Patterns: []string{"**/*"},
			Ignore:   []string{},
			Debounce: 500 * time.Millisecond,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
