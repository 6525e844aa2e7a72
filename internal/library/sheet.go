package library

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"unixman/internal/validation"
	"unixman/pkg/fileops"

	"github.com/adrg/frontmatter"
)

// SheetFrontmatter is the YAML frontmatter expected at the top of a
// cheatsheet file. Only the command field is required.
type SheetFrontmatter struct {
	Command     string   `yaml:"command"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// Sheet is a parsed cheatsheet: file identity plus frontmatter and body.
type Sheet struct {
	// File information
	FileName string
	Path     string // relative to the storage directory

	// Frontmatter fields
	Command     string
	Description string
	Tags        []string

	// File content (without frontmatter)
	Content string
}

// NotFoundError indicates that no cheatsheet exists for a command.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no cheatsheet available for %q", e.Name)
}

// Message returns the client-facing text for a missing cheatsheet.
func (e *NotFoundError) Message() string {
	return fmt.Sprintf("No cheatsheet available for '%s'", e.Name)
}

// loadSheet reads and parses a single discovered file, running the fileops
// validations first so a crafted store entry cannot pull content from
// outside the storage directory.
func (m *Manager) loadSheet(file fileops.FileInfo) (*Sheet, error) {
	if err := fileops.ValidatePathSecurity(file.Path); err != nil {
		return nil, fmt.Errorf("path security check failed: %w", err)
	}

	absolutePath := filepath.Join(m.storageDir, file.Path)

	if err := fileops.ValidateFileSizeLimit(absolutePath, MaxSheetSize); err != nil {
		return nil, fmt.Errorf("file size check failed: %w", err)
	}

	if err := fileops.ValidateFileInDirectory(absolutePath, m.storageDir); err != nil {
		return nil, fmt.Errorf("file containment check failed: %w", err)
	}

	if isLink, err := fileops.IsSymlink(absolutePath); err != nil {
		return nil, fmt.Errorf("symlink check failed: %w", err)
	} else if isLink {
		if err := fileops.ValidateSymlinkSecurity(absolutePath, []string{m.storageDir}); err != nil {
			return nil, fmt.Errorf("symlink security check failed: %w", err)
		}
	}

	content, err := os.ReadFile(absolutePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	matter, body, err := parseSheetContent(content)
	if err != nil {
		return nil, err
	}

	return &Sheet{
		FileName:    file.Name,
		Path:        file.Path,
		Command:     matter.Command,
		Description: matter.Description,
		Tags:        matter.Tags,
		Content:     string(body),
	}, nil
}

// parseSheetContent splits frontmatter from body and validates the
// frontmatter fields.
func parseSheetContent(content []byte) (*SheetFrontmatter, []byte, error) {
	var matter SheetFrontmatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &matter)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	if err := validateSheetFrontmatter(&matter); err != nil {
		return nil, nil, err
	}

	return &matter, body, nil
}

// validateSheetFrontmatter checks the parsed frontmatter fields. The
// command field must hold exactly one command name in the same grammar the
// documentation tools accept, otherwise Lookup could never match it.
func validateSheetFrontmatter(matter *SheetFrontmatter) error {
	raw := strings.TrimSpace(matter.Command)
	if raw == "" {
		return fmt.Errorf("missing required 'command' field")
	}

	name, err := validation.CommandName(raw)
	if err != nil {
		return fmt.Errorf("invalid 'command' field: %w", err)
	}
	if name != raw {
		return fmt.Errorf("'command' field must be a single command name")
	}
	matter.Command = name

	if len(matter.Description) > 500 {
		return fmt.Errorf("description too long (max 500 characters)")
	}

	return nil
}
