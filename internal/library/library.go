// Package library manages the local cheatsheet store: markdown files with
// YAML frontmatter that each document a single command.
//
// Sheets live under a storage directory (default: the unixman data dir) and
// are discovered with the secure directory scanner from pkg/fileops. Files
// without valid frontmatter are skipped during listing, not treated as
// errors, so a half-written sheet never breaks the whole store.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"unixman/internal/logging"
	"unixman/pkg/fileops"

	"github.com/adrg/xdg"
)

// MaxSheetSize is the largest cheatsheet file the manager will read.
const MaxSheetSize = 10 * 1024 * 1024 // 10MB

// GetDefaultStorageDir returns the default cheatsheet location in the
// user's data directory.
func GetDefaultStorageDir() string {
	return filepath.Join(xdg.DataHome, "unixman", "cheatsheets")
}

// Manager provides access to the cheatsheet store. It keeps no cached
// state between calls; every List re-scans the storage directory, so
// externally added or synced files show up immediately.
type Manager struct {
	storageDir string
	log        *logging.AppLogger
}

// NewManager creates a manager for the given storage directory. An empty
// directory selects the default location. The directory is not created
// here; EnsureStorageDir does that on first write.
func NewManager(storageDir string, logger *logging.AppLogger) *Manager {
	if logger == nil {
		logger = logging.GetDefault()
	}

	dir := strings.TrimSpace(storageDir)
	if dir == "" {
		dir = GetDefaultStorageDir()
	}

	return &Manager{
		storageDir: fileops.ExpandPath(dir),
		log:        logger,
	}
}

// StorageDir returns the directory the manager reads sheets from.
func (m *Manager) StorageDir() string {
	return m.storageDir
}

// EnsureStorageDir validates and creates the storage directory, probing
// for write permission. Call before any operation that writes. Missing
// parents are created, so this succeeds on a fresh system where the data
// directory does not exist yet.
func (m *Manager) EnsureStorageDir() error {
	if err := fileops.ValidatePathSecurity(m.storageDir); err != nil {
		return fmt.Errorf("invalid cheatsheet storage directory: %w", err)
	}

	if !filepath.IsAbs(m.storageDir) {
		return fmt.Errorf("cheatsheet storage must be an absolute path")
	}

	// A symlinked storage dir must not resolve into a reserved directory
	if resolved, err := filepath.EvalSymlinks(m.storageDir); err == nil {
		if fileops.IsReservedDirectory(resolved) {
			return fmt.Errorf("cheatsheet storage resolves to a reserved directory")
		}
	}

	if err := fileops.ValidateDirectoryWritable(m.storageDir); err != nil {
		return fmt.Errorf("cheatsheet storage is not writable: %w", err)
	}

	return nil
}

// List scans the storage directory and returns all valid cheatsheets,
// sorted by command name. Files that fail validation or frontmatter
// parsing are skipped and counted. A missing storage directory yields an
// empty list: a fresh install simply has no sheets yet.
func (m *Manager) List() ([]Sheet, error) {
	if _, err := os.Stat(m.storageDir); err != nil {
		if os.IsNotExist(err) {
			m.log.Debug("Cheatsheet storage does not exist yet", "dir", m.storageDir)
			return nil, nil
		}
		return nil, fmt.Errorf("cannot access cheatsheet storage: %w", err)
	}

	files, err := scanSheetFiles(m.storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cheatsheet storage: %w", err)
	}

	var sheets []Sheet
	var skipped int

	for _, file := range files {
		sheet, err := m.loadSheet(file)
		if err != nil {
			m.log.Debug("Skipping file", "name", file.Name, "reason", err)
			skipped++
			continue
		}
		sheets = append(sheets, *sheet)
	}

	sort.Slice(sheets, func(i, j int) bool {
		if sheets[i].Command != sheets[j].Command {
			return sheets[i].Command < sheets[j].Command
		}
		return sheets[i].Path < sheets[j].Path
	})

	m.log.Info("Cheatsheet scan completed",
		"totalFiles", len(files),
		"validSheets", len(sheets),
		"skipped", skipped)

	return sheets, nil
}

// Lookup returns the cheatsheet for the named command. Matching is
// case-insensitive on the frontmatter command field. When several sheets
// claim the same command, the first in List order wins.
func (m *Manager) Lookup(name string) (*Sheet, error) {
	sheets, err := m.List()
	if err != nil {
		return nil, err
	}

	for i := range sheets {
		if strings.EqualFold(sheets[i].Command, name) {
			return &sheets[i], nil
		}
	}

	return nil, &NotFoundError{Name: name}
}

// Import copies an external markdown file into the store. The file must
// carry valid cheatsheet frontmatter and a markdown extension, and must
// not collide with an existing sheet. Returns the imported sheet.
func (m *Manager) Import(srcPath string) (*Sheet, error) {
	src := fileops.ExpandPath(strings.TrimSpace(srcPath))
	if src == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve source path: %w", err)
	}

	if !isMarkdownFile(absSrc) {
		return nil, fmt.Errorf("cheatsheet files must have a markdown extension")
	}

	if err := fileops.ValidateFileSizeLimit(absSrc, MaxSheetSize); err != nil {
		return nil, fmt.Errorf("file size check failed: %w", err)
	}

	content, err := os.ReadFile(absSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	matter, body, err := parseSheetContent(content)
	if err != nil {
		return nil, fmt.Errorf("not a valid cheatsheet: %w", err)
	}

	if err := m.EnsureStorageDir(); err != nil {
		return nil, err
	}

	// SanitizeFilename strips path components, so the join below cannot
	// land outside the storage directory.
	destName, err := fileops.SanitizeFilename(filepath.Base(absSrc))
	if err != nil {
		return nil, fmt.Errorf("invalid source file name: %w", err)
	}

	destPath := filepath.Join(m.storageDir, destName)
	if _, err := os.Stat(destPath); err == nil {
		return nil, fmt.Errorf("cheatsheet already exists: %s", destName)
	}

	if err := fileops.AtomicCopy(absSrc, destPath); err != nil {
		return nil, fmt.Errorf("failed to import cheatsheet: %w", err)
	}

	m.log.Info("Imported cheatsheet", "command", matter.Command, "file", destName)

	return &Sheet{
		FileName:    destName,
		Path:        destName,
		Command:     matter.Command,
		Description: matter.Description,
		Tags:        matter.Tags,
		Content:     string(body),
	}, nil
}

// Edit opens the cheatsheet for the named command in the user's editor.
func (m *Manager) Edit(name string) error {
	sheet, err := m.Lookup(name)
	if err != nil {
		return err
	}

	return launchEditor(filepath.Join(m.storageDir, sheet.Path))
}
