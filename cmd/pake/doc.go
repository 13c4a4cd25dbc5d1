// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the pake command line.
//
// The root command builds the targets named on the command line, every
// visible target with --all, or lists the project when given neither. The
// list, check, watch and config subcommands share the root's flags.
package cmd
