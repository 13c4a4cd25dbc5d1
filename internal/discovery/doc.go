// SPDX-License-Identifier: MPL-2.0

// Package discovery locates build files below a project root.
//
// Every regular file whose name ends in the configured extension is one
// module; the module name is the file name without that extension. The walk
// is top-down: a directory's files come before its subdirectories, both in
// lexical order. The build root and paths matching the ignore patterns are
// never entered, and symbolic links are not followed.
package discovery
