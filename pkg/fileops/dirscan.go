package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DirectoryScanOptions configures directory scanning behavior.
type DirectoryScanOptions struct {
	// SkipUnreadableDirs makes the scan step over directories it cannot read
	// instead of failing the whole walk.
	SkipUnreadableDirs bool

	// MaxDepth limits recursion depth. The walk stops silently past it.
	MaxDepth int

	// IncludeHidden controls whether dot-files and dot-directories are visited.
	IncludeHidden bool

	// SkipPatterns are directory names (exact matches, not paths) that the
	// walk never descends into.
	SkipPatterns []string

	// FileFilter decides per filename whether a file is included.
	// Nil includes everything.
	FileFilter func(filename string) bool

	// DirFilter decides per directory name whether to descend.
	// When set it takes precedence over SkipPatterns and IncludeHidden.
	DirFilter func(dirname string) bool

	// ValidateFileAccess additionally opens each discovered file to confirm
	// readability. Off by default for speed.
	ValidateFileAccess bool
}

// FileInfo describes one file discovered during a scan.
type FileInfo struct {
	// Name is the base filename without path components
	Name string

	// Path is the relative path from the scan root to this file
	Path string

	// IsDir indicates whether this entry represents a directory
	IsDir bool

	// Size is the file size in bytes (0 for directories)
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// Mode contains the file mode and permission bits
	Mode os.FileMode
}

// SecureDirectoryScanner walks a directory tree inside an os.Root boundary.
//
// The root confines every open to the scan area, a visited map breaks
// symlink loops, and symlinked subdirectories are only followed when their
// targets resolve back inside the scan root. The cheatsheet store is scanned
// exclusively through this type.
type SecureDirectoryScanner struct {
	// root defines the security boundary for scanning operations
	root *os.Root

	// opts contains the scanning configuration
	opts *DirectoryScanOptions

	// results stores discovered files during scanning
	results []FileInfo

	// visited tracks visited directories by relative path
	visited map[string]bool

	// visitedReal tracks visited directories by canonical path, which is
	// what actually breaks symlink cycles and aliased subtrees
	visitedReal map[string]bool

	// scanRoot stores the absolute path of the scan root for security validation
	scanRoot string
}

// NewDirectoryScanner creates a scanner for scanPath. Nil opts selects the
// defaults from getDefaultScanOptions. The path is expanded, resolved,
// validated against reserved directories, and must exist as a directory.
// Callers own the returned scanner and must Close it.
func NewDirectoryScanner(scanPath string, opts *DirectoryScanOptions) (*SecureDirectoryScanner, error) {
	if opts == nil {
		opts = getDefaultScanOptions()
	}

	if strings.TrimSpace(scanPath) == "" {
		return nil, fmt.Errorf("scan path cannot be empty")
	}

	expandedPath := ExpandPath(scanPath)
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve scan path: %w", err)
	}

	if err := ValidatePathSecurity(absPath); err != nil {
		return nil, fmt.Errorf("scan path security validation failed: %w", err)
	}

	// No legitimate reason to scan system directories
	if IsReservedDirectory(absPath) {
		return nil, fmt.Errorf("cannot scan reserved/system directory: %s", absPath)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure scan root: %w", err)
	}

	return &SecureDirectoryScanner{
		root:        root,
		opts:        opts,
		results:     []FileInfo{},
		visited:     make(map[string]bool),
		visitedReal: make(map[string]bool),
		scanRoot:    absPath,
	}, nil
}

// getDefaultScanOptions returns sensible default scanning options.
func getDefaultScanOptions() *DirectoryScanOptions {
	return &DirectoryScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           20,
		IncludeHidden:      true,
		SkipPatterns:       getDefaultSkipPatterns(),
		FileFilter:         nil,
		DirFilter:          nil,
		ValidateFileAccess: false,
	}
}

// getDefaultSkipPatterns returns commonly skipped directory patterns.
func getDefaultSkipPatterns() []string {
	return []string{
		"node_modules",
		".git",
		"vendor",
		"target",
		"build",
		".next",
		"dist",
		".cache",
		"__pycache__",
		".vscode",
		".idea",
	}
}

// Close releases the scanner's root handle.
func (s *SecureDirectoryScanner) Close() error {
	if s.root != nil {
		err := s.root.Close()
		s.root = nil
		return err
	}
	return nil
}

// ScanDirectory performs a recursive scan and returns the discovered files.
// State is reset on each call, so a scanner can be reused for repeated scans
// of the same root.
func (s *SecureDirectoryScanner) ScanDirectory() ([]FileInfo, error) {
	if s.root == nil {
		return nil, fmt.Errorf("scanner has been closed")
	}

	s.results = []FileInfo{}
	s.visited = make(map[string]bool)
	s.visitedReal = make(map[string]bool)

	if err := s.scanRecursive(".", 1); err != nil {
		return nil, fmt.Errorf("directory scan failed: %w", err)
	}

	// Return a copy so callers cannot mutate internal state
	resultsCopy := make([]FileInfo, len(s.results))
	copy(resultsCopy, s.results)
	return resultsCopy, nil
}

// scanRecursive performs the actual recursive directory scanning.
func (s *SecureDirectoryScanner) scanRecursive(relativePath string, depth int) error {
	if depth > s.opts.MaxDepth {
		return nil // Silently stop at max depth
	}

	cleanPath := filepath.Clean(relativePath)
	if s.visited[cleanPath] {
		return nil
	}
	s.visited[cleanPath] = true

	// Canonical identity is what actually breaks symlink cycles: the same
	// directory reached through a link has a fresh relative path every time
	if canonical, err := filepath.EvalSymlinks(filepath.Join(s.scanRoot, cleanPath)); err == nil {
		if s.visitedReal[canonical] {
			return nil
		}
		s.visitedReal[canonical] = true
	}

	dirName := filepath.Base(relativePath)
	if s.shouldSkipDirectory(dirName) {
		return nil
	}

	dir, err := s.root.Open(relativePath)
	if err != nil {
		if s.opts.SkipUnreadableDirs {
			return nil
		}
		return fmt.Errorf("failed to open directory %s: %w", relativePath, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		if s.opts.SkipUnreadableDirs {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", relativePath, err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(relativePath, entry.Name())

		// DirEntry reports symlinks as non-directories, so symlinked
		// directories need an explicit stat before the walk can descend.
		// They are only followed when they resolve back inside the scan root.
		descend := entry.IsDir()
		if !descend && entry.Type()&os.ModeSymlink != 0 {
			fullEntryPath := filepath.Join(s.scanRoot, entryPath)
			if info, err := os.Stat(fullEntryPath); err == nil && info.IsDir() {
				if err := ValidateSymlinkSecurity(fullEntryPath, []string{s.scanRoot}); err != nil {
					if s.opts.SkipUnreadableDirs {
						continue
					}
					return fmt.Errorf("symlink security check failed for %s: %w", entryPath, err)
				}
				descend = true
			}
		}

		if descend {
			if err := s.scanRecursive(entryPath, depth+1); err != nil {
				return err
			}
		} else {
			if s.shouldIncludeFile(entry.Name()) {
				fileInfo, err := s.createFileInfo(entry, entryPath)
				if err != nil {
					if s.opts.SkipUnreadableDirs {
						continue
					}
					return fmt.Errorf("failed to get file info for %s: %w", entryPath, err)
				}
				s.results = append(s.results, fileInfo)
			}
		}
	}

	return nil
}

// shouldSkipDirectory determines if a directory should be skipped based on configured rules.
func (s *SecureDirectoryScanner) shouldSkipDirectory(dirName string) bool {
	// Never skip current or parent directory references
	if dirName == "." || dirName == ".." {
		return false
	}

	if s.opts.DirFilter != nil {
		return !s.opts.DirFilter(dirName)
	}

	if !s.opts.IncludeHidden && strings.HasPrefix(dirName, ".") {
		return true
	}

	return slices.Contains(s.opts.SkipPatterns, dirName)
}

// shouldIncludeFile determines if a file should be included based on configured rules.
func (s *SecureDirectoryScanner) shouldIncludeFile(fileName string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(fileName, ".") {
		return false
	}

	if s.opts.FileFilter != nil {
		return s.opts.FileFilter(fileName)
	}

	return true
}

// createFileInfo creates a FileInfo struct from directory entry information.
func (s *SecureDirectoryScanner) createFileInfo(entry os.DirEntry, path string) (FileInfo, error) {
	info, err := entry.Info()
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to get file info: %w", err)
	}

	if s.opts.ValidateFileAccess && !entry.IsDir() {
		fullPath := filepath.Join(s.scanRoot, path)
		if err := ValidateFileAccess(fullPath, false); err != nil {
			return FileInfo{}, fmt.Errorf("file access validation failed: %w", err)
		}
	}

	return FileInfo{
		Name:    entry.Name(),
		Path:    path,
		IsDir:   entry.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}, nil
}

// GetResults returns the results of the last scan without rescanning.
func (s *SecureDirectoryScanner) GetResults() []FileInfo {
	resultsCopy := make([]FileInfo, len(s.results))
	copy(resultsCopy, s.results)
	return resultsCopy
}

// ScanStats summarizes a completed scan for logging.
type ScanStats struct {
	TotalFiles       int
	TotalDirectories int
	SkippedDirs      int
	LargestFile      int64
	TotalSize        int64
}

// GetScanStats calculates statistics over the current scan results.
func (s *SecureDirectoryScanner) GetScanStats() ScanStats {
	stats := ScanStats{}

	for _, file := range s.results {
		if file.IsDir {
			stats.TotalDirectories++
		} else {
			stats.TotalFiles++
			stats.TotalSize += file.Size
			if file.Size > stats.LargestFile {
				stats.LargestFile = file.Size
			}
		}
	}

	return stats
}

// ScanWithFilter creates a scanner with the given file filter and performs a
// single scan. Hidden files are excluded.
func ScanWithFilter(scanPath string, fileFilter func(string) bool, maxDepth int) ([]FileInfo, error) {
	opts := &DirectoryScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           maxDepth,
		IncludeHidden:      false,
		SkipPatterns:       getDefaultSkipPatterns(),
		FileFilter:         fileFilter,
		ValidateFileAccess: false,
	}

	scanner, err := NewDirectoryScanner(scanPath, opts)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	return scanner.ScanDirectory()
}
