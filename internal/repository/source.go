package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"unixman/internal/logging"
	"unixman/pkg/fileops"
)

// Source abstracts the backing store of a cheatsheet collection.
// Implementations resolve to a local filesystem path that the library
// scanner can read.
//
// Implementations:
//   - LocalSource: validates an existing local directory
//   - GitSource: clones or updates a git repository (see git.go)
type Source interface {
	// Prepare validates and prepares the source, returning the absolute
	// path to the local collection root.
	Prepare(logger *logging.AppLogger) (localPath string, err error)
}

// LocalSource is a cheatsheet collection that already exists as a local
// directory. Prepare only validates; nothing is copied or created.
type LocalSource struct {
	Path string
}

// NewLocalSource creates a local source for the given directory path.
// The path may start with "~/" and is expanded during Prepare.
func NewLocalSource(path string) LocalSource {
	return LocalSource{Path: path}
}

// Prepare validates that the directory exists, is actually a directory,
// and passes path security checks. Returns the absolute path.
func (ls LocalSource) Prepare(logger *logging.AppLogger) (string, error) {
	if logger != nil {
		logger.Debug("Preparing local source", "path", ls.Path)
	}

	expanded := fileops.ExpandPath(ls.Path)

	if err := fileops.ValidatePathSecurity(expanded); err != nil {
		return "", fmt.Errorf("invalid local source path: %w", err)
	}

	abs, err := filepath.Abs(filepath.Clean(expanded))
	if err != nil {
		return "", fmt.Errorf("cannot resolve local source path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("local source directory does not exist: %s", abs)
		}
		return "", fmt.Errorf("cannot access local source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("local source path is not a directory: %s", abs)
	}

	return abs, nil
}

// String returns a representation of the local source for logging.
func (ls LocalSource) String() string {
	return fmt.Sprintf("LocalSource{Path: %s}", ls.Path)
}
