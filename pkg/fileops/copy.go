package fileops

import (
	"fmt"
	"io"
	"os"
)

// AtomicCopy copies srcPath to destPath so the destination either appears
// fully written or not at all.
//
// The copy goes through a temporary file in the destination directory:
//
//  1. Create destPath + ".tmp"
//  2. Copy all data into it
//  3. Sync to disk
//  4. Rename over the final destination
//
// The rename is the atomic step. The temp file is removed on any failure.
// Both paths should be validated before calling; this function performs no
// traversal checks of its own and overwrites an existing destination.
func AtomicCopy(srcPath, destPath string) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	tempPath := destPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	var copySuccess bool
	defer func() {
		tempFile.Close()
		if !copySuccess {
			os.Remove(tempPath) // Clean up on failure
		}
	}()

	if _, err := io.Copy(tempFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	// Sync before rename so a crash cannot leave a renamed-but-empty file
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	copySuccess = true
	return nil
}

// EnsureDirectoryExists creates a directory and all necessary parents,
// like `mkdir -p`. Safe to call repeatedly. Directories are created 0755.
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// IsDirEmpty reports whether the directory at path contains no entries.
// Used before cloning into a target directory to tell "safe to clone" apart
// from "something already lives here".
func IsDirEmpty(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("cannot open directory: %w", err)
	}
	defer dir.Close()

	// Reading a single entry is enough to answer the question
	_, err = dir.ReadDir(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot read directory: %w", err)
	}
	return false, nil
}
