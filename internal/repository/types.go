package repository

import (
	"fmt"
	"strings"
	"time"

	"unixman/pkg/fileops"
)

// RepositoryType represents the kind of cheatsheet collection backing a
// repository entry.
type RepositoryType string

const (
	// RepositoryTypeLocal indicates a plain local directory of cheatsheets
	RepositoryTypeLocal RepositoryType = "local"

	// RepositoryTypeGitHub indicates a GitHub-hosted git repository
	RepositoryTypeGitHub RepositoryType = "github"
)

// String returns the string representation of the repository type.
func (rt RepositoryType) String() string {
	return string(rt)
}

// IsValid checks if the repository type is a valid type.
func (rt RepositoryType) IsValid() bool {
	return rt == RepositoryTypeLocal || rt == RepositoryTypeGitHub
}

// RepositoryEntry is one configured cheatsheet collection. Entries are
// persisted as YAML inside the application config.
//
// The ID has the format "sanitized-name-timestamp" (for example
// "team_sheets-1756080000") so it stays unique and stable even when the
// display name is edited later.
type RepositoryEntry struct {
	// Identity fields
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Type      RepositoryType `yaml:"type"`
	CreatedAt int64          `yaml:"created_at"`

	// Path is the local directory for local collections, or the clone
	// path for GitHub collections. Usually lives under the cheatsheet
	// storage directory so the library scanner picks the files up.
	Path string `yaml:"path"`

	// Git-specific fields (only used when Type == RepositoryTypeGitHub)
	RemoteURL    *string `yaml:"remote_url,omitempty"`
	Branch       *string `yaml:"branch,omitempty"`
	LastSyncTime *int64  `yaml:"last_sync_time,omitempty"`
}

// NewRepositoryEntry builds a validated GitHub repository entry. The ID is
// derived from the sanitized name plus the creation timestamp. An empty
// branch means the remote's default branch.
func NewRepositoryEntry(name, remoteURL, branch, path string) (RepositoryEntry, error) {
	if err := ValidateRepositoryName(name); err != nil {
		return RepositoryEntry{}, err
	}
	if err := ValidateRemoteURL(remoteURL); err != nil {
		return RepositoryEntry{}, err
	}

	idBase, err := fileops.SanitizeIdentifier(strings.ToLower(strings.TrimSpace(name)), 50)
	if err != nil {
		return RepositoryEntry{}, fmt.Errorf("cannot derive repository ID from name: %w", err)
	}

	now := time.Now().Unix()
	entry := RepositoryEntry{
		ID:        fmt.Sprintf("%s-%d", idBase, now),
		Name:      strings.TrimSpace(name),
		Type:      RepositoryTypeGitHub,
		CreatedAt: now,
		Path:      path,
		RemoteURL: &remoteURL,
	}
	if strings.TrimSpace(branch) != "" {
		b := strings.TrimSpace(branch)
		entry.Branch = &b
	}

	return entry, nil
}

// IsRemote returns true if this entry is a remote git repository.
func (r RepositoryEntry) IsRemote() bool {
	return r.Type == RepositoryTypeGitHub
}

// IsLocal returns true if this entry is a local directory collection.
func (r RepositoryEntry) IsLocal() bool {
	return r.Type == RepositoryTypeLocal
}

// GetRemoteURL returns the remote URL, or empty string for local entries.
func (r RepositoryEntry) GetRemoteURL() string {
	if r.RemoteURL != nil {
		return *r.RemoteURL
	}
	return ""
}

// GetBranch returns the branch name, or empty string for the default branch.
func (r RepositoryEntry) GetBranch() string {
	if r.Branch != nil {
		return *r.Branch
	}
	return ""
}

// String returns a representation of the entry for logging.
func (r RepositoryEntry) String() string {
	if r.IsRemote() {
		return fmt.Sprintf("Repository{ID: %s, Name: %s, Type: %s, RemoteURL: %s}",
			r.ID, r.Name, r.Type, r.GetRemoteURL())
	}
	return fmt.Sprintf("Repository{ID: %s, Name: %s, Type: %s, Path: %s}",
		r.ID, r.Name, r.Type, r.Path)
}
