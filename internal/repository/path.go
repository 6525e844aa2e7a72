package repository

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"unixman/pkg/fileops"
)

// sshURLPattern matches SSH-style git URLs like git@github.com:owner/repo.git
var sshURLPattern = regexp.MustCompile(`^git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)

// GitURLInfo contains the parsed components of a git repository URL.
type GitURLInfo struct {
	Host  string // Host (e.g. "github.com")
	Owner string // Repository owner or organization
	Repo  string // Repository name (without .git suffix)
}

// ParseGitURL parses a git repository URL and extracts its components.
// It supports both SSH (git@host:owner/repo.git) and HTTPS
// (https://host/owner/repo.git) formats; the .git suffix is optional.
func ParseGitURL(gitURL string) (GitURLInfo, error) {
	gitURL = strings.TrimSpace(gitURL)

	if matches := sshURLPattern.FindStringSubmatch(gitURL); matches != nil {
		return GitURLInfo{
			Host:  matches[1],
			Owner: matches[2],
			Repo:  matches[3],
		}, nil
	}

	parsedURL, err := url.Parse(gitURL)
	if err != nil {
		return GitURLInfo{}, fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Host == "" {
		return GitURLInfo{}, fmt.Errorf("URL missing host component")
	}

	pathParts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(pathParts) < 2 {
		return GitURLInfo{}, fmt.Errorf("URL path should contain owner/repo: %s", parsedURL.Path)
	}

	owner := pathParts[0]
	repo := strings.TrimSuffix(pathParts[1], ".git")

	if owner == "" || repo == "" {
		return GitURLInfo{}, fmt.Errorf("could not extract owner/repo from URL path: %s", parsedURL.Path)
	}

	return GitURLInfo{
		Host:  parsedURL.Host,
		Owner: owner,
		Repo:  repo,
	}, nil
}

// NormalizeGitURL reduces a git URL to a comparable host/owner/repo form so
// SSH and HTTPS URLs for the same repository compare equal.
//
//	git@github.com:owner/repo.git  -> github.com/owner/repo
//	https://github.com/owner/repo  -> github.com/owner/repo
func NormalizeGitURL(gitURL string) string {
	gitURL = strings.TrimSpace(gitURL)
	gitURL = strings.TrimSuffix(gitURL, ".git")

	simpleSSH := regexp.MustCompile(`^git@([^:]+):(.+)$`)
	if matches := simpleSSH.FindStringSubmatch(gitURL); matches != nil {
		return matches[1] + "/" + matches[2]
	}

	if after, found := strings.CutPrefix(gitURL, "https://"); found {
		return after
	}
	if after, found := strings.CutPrefix(gitURL, "http://"); found {
		return after
	}

	return gitURL
}

// DeriveClonePath derives the local clone path for a remote URL, directly
// under baseDir (normally the cheatsheet storage directory so the library
// scanner finds the synced files).
//
//	DeriveClonePath("~/.local/share/unixman/cheatsheets", "git@github.com:user/sheets.git")
//	  -> ~/.local/share/unixman/cheatsheets/sheets
//
// Repository name collisions between different remotes are surfaced later
// by the clone-directory validation rather than hidden in nested paths.
func DeriveClonePath(baseDir, remoteURL string) (string, error) {
	info, err := ParseGitURL(remoteURL)
	if err != nil {
		return "", err
	}

	base := fileops.ExpandPath(strings.TrimSpace(baseDir))
	if base == "" {
		return "", fmt.Errorf("base directory cannot be empty")
	}

	clonePath := filepath.Clean(filepath.Join(base, info.Repo))

	if err := fileops.ValidatePathSecurity(clonePath); err != nil {
		return "", fmt.Errorf("derived path failed security validation: %w", err)
	}

	if !filepath.IsAbs(clonePath) {
		return "", fmt.Errorf("derived clone path must be absolute: %s", clonePath)
	}

	return clonePath, nil
}
