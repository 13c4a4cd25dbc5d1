// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides directory and environment helpers (MustChdir, MustSetenv, SetHomeDir),
// it writes whole source trees (WriteTree) and controls modification times
// (SetMtime, Age) so that staleness checks can be tested without sleeping.
package testutil
