package guard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrTraversal is returned when a path contains a ".." sequence.
	ErrTraversal = errors.New("path traversal sequence")
	// ErrOutsideBase is returned when a path resolves outside its base directory.
	ErrOutsideBase = errors.New("path escapes base directory")
)

// Sanitize strips ".." sequences, collapses "//" and returns the
// absolute form of path. It is a best-effort helper; use EnsureSafePath
// to authorize a write target.
func Sanitize(path string) string {
	path = strings.ReplaceAll(path, "..", "")
	path = strings.ReplaceAll(path, "//", "/")

	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}

// EnsureSafePath returns the absolute form of path when it is safe to
// write to. Any raw ".." is rejected outright, even when it would resolve
// inside baseDir. When baseDir is non-empty the resolved path must be
// baseDir itself or lie beneath it.
func EnsureSafePath(path, baseDir string) (string, error) {
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: %q", ErrTraversal, path)
	}

	clean, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	if baseDir == "" {
		return clean, nil
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolving base dir: %w", err)
	}

	rel, err := filepath.Rel(base, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q not under %q", ErrOutsideBase, clean, base)
	}

	return clean, nil
}
