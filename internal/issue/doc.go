// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of user-facing problems pake can explain and
// the ActionableError type that links an error to one of them.
//
// Catalog entries are Markdown rendered with glamour beneath the error message.
package issue
