// SPDX-License-Identifier: MPL-2.0

// Package fsutil holds the filesystem checks and copies used to keep builds incremental.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/u-root/u-root/pkg/cp"
)

// ErrMissingPrerequisite is returned when a staleness check names a prerequisite that does not exist.
var ErrMissingPrerequisite = errors.New("prerequisite does not exist")

// Resolve makes path absolute relative to dir. Absolute paths are returned cleaned.
func Resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// IsNewerThan reports whether prerequisite was modified strictly after target.
// A missing target is always out of date.
func IsNewerThan(prerequisite, target string) (bool, error) {
	targetInfo, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("target does not exist, treating as older", "target", target)
		return true, nil
	}
	if err != nil {
		return false, err
	}

	preInfo, err := os.Stat(prerequisite)
	if errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: %s", ErrMissingPrerequisite, prerequisite)
	}
	if err != nil {
		return false, err
	}

	newer := preInfo.ModTime().After(targetInfo.ModTime())
	slog.Debug("compared modification times", "prerequisite", prerequisite, "target", target, "newer", newer)
	return newer, nil
}

// AnyNewerThan reports whether any prerequisite is newer than target.
func AnyNewerThan(prerequisites []string, target string) (bool, error) {
	for _, pre := range prerequisites {
		newer, err := IsNewerThan(pre, target)
		if err != nil || newer {
			return newer, err
		}
	}
	return false, nil
}

// ShouldRun decides whether an action guarded by prerequisites and artefacts has
// to run. With either list empty staleness cannot be judged and the action runs.
// Otherwise it runs when some artefact is missing or older than some prerequisite.
func ShouldRun(prerequisites, artefacts []string) (bool, error) {
	if len(prerequisites) == 0 || len(artefacts) == 0 {
		return true, nil
	}
	for _, artefact := range artefacts {
		stale, err := AnyNewerThan(prerequisites, artefact)
		if err != nil {
			return false, err
		}
		if stale {
			slog.Debug("artefact needs to be rebuilt", "artefact", artefact)
			return true, nil
		}
	}
	return false, nil
}

// CopyUpdate copies src into dstDir, recursing into directories, and only
// overwrites files whose source is newer than the existing copy. A src ending
// in a slash copies the directory's contents instead of the directory itself.
func CopyUpdate(src, dstDir string) error {
	contents := strings.HasSuffix(src, "/") && len(src) > 1
	clean := filepath.Clean(src)

	info, err := os.Stat(clean)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	dst := filepath.Join(dstDir, filepath.Base(clean))
	if contents {
		dst = dstDir
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dstDir, err)
	}

	opts := cp.Options{PreCallback: skipUpToDate}
	if info.IsDir() {
		err = opts.CopyTree(clean, dst)
	} else {
		err = opts.Copy(clean, dst)
	}
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

func skipUpToDate(_, dst string, srcInfo os.FileInfo) error {
	if srcInfo.IsDir() {
		return nil
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return nil
	}
	if !srcInfo.ModTime().After(dstInfo.ModTime()) {
		return cp.ErrSkip
	}
	return nil
}
