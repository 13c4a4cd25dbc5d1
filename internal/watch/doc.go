// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds on filesystem changes.
//
// A Watcher registers every directory below the project root except the build
// root and ignored paths, collects the events whose paths match the watch
// patterns and calls OnChange once per quiet period with the sorted set of
// changed paths.
package watch
