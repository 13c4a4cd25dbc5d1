// SPDX-License-Identifier: MPL-2.0

// Package shell runs the hook commands of build targets.
//
// Two runners are available: Native hands each command to the host POSIX
// shell (sh -c), Virtual interprets it in-process with mvdan.cc/sh. Both take
// the working directory and the complete environment per command, so nothing
// is ever written to the process environment.
package shell
