// SPDX-License-Identifier: MPL-2.0

// Package project assembles the state of one pake invocation: it discovers
// build files, parses them into a shared variable store, registers their
// configurations and targets, installs the synthetic variables and hands the
// result to a build orchestrator.
//
// A Project is built once per invocation and never reused. Watch mode loads a
// fresh Project for every rebuild.
package project
