// SPDX-License-Identifier: MPL-2.0

// Package config handles pake's own settings using Viper with CUE as the file format.
//
// Settings come from the file named by --config, else config.cue in the user
// configuration directory (XDG_CONFIG_HOME/pake on Linux, Library/Application
// Support/pake on macOS, APPDATA\pake on Windows), else .pake/config.cue in the
// project directory, else built-in defaults. PAKE_* environment variables
// override file values.
//
// Files are validated against the embedded schema (config_schema.cue) before
// they reach Viper, so unknown keys and ill-typed values fail with a path to
// the offending field.
package config
