package repository

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ValidateRepositoryName checks that a repository name is usable: non-empty
// after trimming, at most 100 characters, and free of control characters.
func ValidateRepositoryName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if len(trimmed) > 100 {
		return fmt.Errorf("repository name too long (max 100 characters)")
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("repository name contains control characters")
		}
	}
	return nil
}

// ValidateRemoteURL checks that a remote URL points at a GitHub repository
// in either HTTPS or SSH form. Other hosts are rejected: the sync flow's
// token handling is GitHub-specific.
func ValidateRemoteURL(remoteURL string) error {
	if strings.TrimSpace(remoteURL) == "" {
		return fmt.Errorf("remote URL cannot be empty")
	}

	info, err := ParseGitURL(remoteURL)
	if err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}

	if !strings.EqualFold(info.Host, "github.com") {
		return fmt.Errorf("only github.com repositories are supported, got host %q", info.Host)
	}

	return nil
}

// ValidateRepositoryEntry checks a single entry for internal consistency:
// basic fields plus the type-specific requirements.
func ValidateRepositoryEntry(entry RepositoryEntry) error {
	if err := validateBasicFields(entry); err != nil {
		return err
	}

	switch entry.Type {
	case RepositoryTypeGitHub:
		if entry.RemoteURL == nil || strings.TrimSpace(*entry.RemoteURL) == "" {
			return fmt.Errorf("github repository %q must have a remote URL", entry.Name)
		}
		if err := ValidateRemoteURL(*entry.RemoteURL); err != nil {
			return fmt.Errorf("github repository %q: %w", entry.Name, err)
		}
	case RepositoryTypeLocal:
		// Local entries need only the shared fields
	default:
		return fmt.Errorf("repository %q has unknown type %q", entry.Name, entry.Type)
	}

	return nil
}

// validateBasicFields checks the fields shared by every repository type.
func validateBasicFields(entry RepositoryEntry) error {
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("repository ID cannot be empty")
	}

	// IDs are "<sanitized-name>-<unix-timestamp>"
	idx := strings.LastIndex(entry.ID, "-")
	if idx <= 0 || idx == len(entry.ID)-1 {
		return fmt.Errorf("repository ID %q has invalid format (expected name-timestamp)", entry.ID)
	}
	if _, err := strconv.ParseInt(entry.ID[idx+1:], 10, 64); err != nil {
		return fmt.Errorf("repository ID %q has non-numeric timestamp suffix", entry.ID)
	}

	if err := ValidateRepositoryName(entry.Name); err != nil {
		return err
	}

	if !entry.Type.IsValid() {
		return fmt.Errorf("repository %q has invalid type %q", entry.Name, entry.Type)
	}

	if entry.CreatedAt <= 0 {
		return fmt.Errorf("repository %q has invalid creation time", entry.Name)
	}

	if strings.TrimSpace(entry.Path) == "" {
		return fmt.Errorf("repository %q must have a local path", entry.Name)
	}

	return nil
}

// ValidateAllRepositories checks a full repository list: every entry must
// validate individually, IDs must be unique, and names must be unique
// case-insensitively. All problems are collected so the user sees a
// complete report instead of fixing them one at a time.
func ValidateAllRepositories(repos []RepositoryEntry) error {
	var problems []string

	seenIDs := make(map[string]string, len(repos))
	seenNames := make(map[string]string, len(repos))

	for _, repo := range repos {
		if err := ValidateRepositoryEntry(repo); err != nil {
			problems = append(problems, err.Error())
		}

		if prev, dup := seenIDs[repo.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate repository ID %q (used by %q and %q)", repo.ID, prev, repo.Name))
		} else {
			seenIDs[repo.ID] = repo.Name
		}

		nameKey := strings.ToLower(strings.TrimSpace(repo.Name))
		if prev, dup := seenNames[nameKey]; dup {
			problems = append(problems, fmt.Sprintf("duplicate repository name %q (conflicts with %q)", repo.Name, prev))
		} else {
			seenNames[nameKey] = repo.Name
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("repository configuration has %d problem(s):\n  - %s",
			len(problems), strings.Join(problems, "\n  - "))
	}

	return nil
}
