package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsSymlink reports whether path is a symbolic link, using lstat so the link
// itself is examined rather than its target.
func IsSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat path: %w", err)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// ResolveSymlink follows a symlink chain to its final target and returns the
// resolved path. Broken links and loops surface as errors from EvalSymlinks.
func ResolveSymlink(linkPath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlink: %w", err)
	}
	return resolved, nil
}

// GetSymlinkTarget returns the immediate target of a symlink without
// resolving the full chain. The result may be relative.
func GetSymlinkTarget(linkPath string) (string, error) {
	isLink, err := IsSymlink(linkPath)
	if err != nil {
		return "", fmt.Errorf("cannot verify symlink: %w", err)
	}
	if !isLink {
		return "", fmt.Errorf("path is not a symbolic link: %s", linkPath)
	}

	target, err := os.Readlink(linkPath)
	if err != nil {
		return "", fmt.Errorf("failed to read symlink: %w", err)
	}

	return target, nil
}

// ValidateSymlinkSecurity validates that linkPath is a resolvable symlink
// whose final target lies within one of allowedBasePaths.
//
// The directory scanner calls this for every symlinked directory it meets,
// with the scan root as the only allowed base, so a link out of the storage
// area stops the walk instead of extending it.
func ValidateSymlinkSecurity(linkPath string, allowedBasePaths []string) error {
	isLink, err := IsSymlink(linkPath)
	if err != nil {
		return fmt.Errorf("cannot check if path is symlink: %w", err)
	}
	if !isLink {
		return fmt.Errorf("path is not a symbolic link: %s", linkPath)
	}

	resolved, err := ResolveSymlink(linkPath)
	if err != nil {
		return fmt.Errorf("symlink resolution failed: %w", err)
	}

	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return fmt.Errorf("cannot get absolute path of resolved target: %w", err)
	}

	// Canonicalize once more to handle macOS /private aliasing
	resolvedCanonical, err := filepath.EvalSymlinks(resolvedAbs)
	if err != nil {
		resolvedCanonical = resolvedAbs
	}

	for _, basePath := range allowedBasePaths {
		baseAbs, err := filepath.Abs(basePath)
		if err != nil {
			continue // Skip invalid base paths
		}

		baseCanonical, err := filepath.EvalSymlinks(baseAbs)
		if err != nil {
			baseCanonical = baseAbs
		}

		relPath, err := filepath.Rel(baseCanonical, resolvedCanonical)
		if err != nil {
			continue
		}

		if !strings.HasPrefix(relPath, "..") {
			return nil // Target is within an allowed base path
		}
	}

	return fmt.Errorf("symlink target is not within any allowed base path: %s", resolved)
}
