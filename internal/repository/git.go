package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"unixman/internal/logging"
	"unixman/pkg/fileops"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
)

// DirectoryStatus represents the state of a target clone directory.
type DirectoryStatus int

const (
	// DirectoryStatusEmpty indicates the directory doesn't exist or is empty - safe to clone
	DirectoryStatusEmpty DirectoryStatus = iota
	// DirectoryStatusSameRepo indicates the directory contains the same git repository - safe to fetch
	DirectoryStatusSameRepo
	// DirectoryStatusDifferentRepo indicates the directory contains a different git repository
	DirectoryStatusDifferentRepo
	// DirectoryStatusConflict indicates the directory contains non-git content
	DirectoryStatusConflict
	// DirectoryStatusError indicates an error occurred during validation
	DirectoryStatusError
)

// String returns a human-readable description of the directory status.
func (ds DirectoryStatus) String() string {
	switch ds {
	case DirectoryStatusEmpty:
		return "empty or doesn't exist"
	case DirectoryStatusSameRepo:
		return "same git repository"
	case DirectoryStatusDifferentRepo:
		return "different git repository"
	case DirectoryStatusConflict:
		return "contains non-git content"
	case DirectoryStatusError:
		return "validation error"
	default:
		return "unknown status"
	}
}

// GitSource is a cheatsheet collection backed by a git repository.
//
// Prepare manages the full lifecycle: URL normalization (SSH converted to
// HTTPS), clone-directory conflict detection, public-first cloning with a
// GitHub Personal Access Token fallback for private repositories, and
// fast-forward updates of existing clones. Dirty worktrees are never
// touched; updates are skipped so local edits survive.
type GitSource struct {
	RemoteURL string  // git repository URL (HTTPS or SSH form)
	Branch    *string // optional branch (nil means the remote's default)
	Path      string  // local clone path
}

// NewGitSource creates a git source. Validation happens in Prepare.
func NewGitSource(remoteURL string, branch *string, localPath string) GitSource {
	return GitSource{
		RemoteURL: remoteURL,
		Branch:    branch,
		Path:      localPath,
	}
}

// Prepare clones or updates the repository and returns the local path.
//
// An empty or missing target directory triggers a clone; a directory
// already holding the same repository triggers a fetch. Anything else
// (different repository, non-git content) is a conflict the user must
// resolve manually, never an automatic overwrite.
func (gs GitSource) Prepare(logger *logging.AppLogger) (string, error) {
	if logger != nil {
		logger.Info("Preparing git repository source",
			"remoteURL", gs.RemoteURL,
			"branch", gs.GetBranch(),
			"localPath", gs.Path)
	}

	if err := gs.validateInputs(); err != nil {
		return "", err
	}

	normalizedURL, err := gs.normalizeRemoteURL()
	if err != nil {
		return "", fmt.Errorf("invalid remote URL: %w", err)
	}

	cleanPath, err := gs.validateLocalPath()
	if err != nil {
		return "", err
	}

	dirStatus, err := ValidateCloneDirectory(cleanPath, normalizedURL)
	if dirStatus == DirectoryStatusConflict || dirStatus == DirectoryStatusDifferentRepo {
		return "", fmt.Errorf("directory conflict at %s (%s): please remove or relocate the existing directory",
			cleanPath, dirStatus.String())
	}
	if err != nil {
		return "", err
	}

	switch dirStatus {
	case DirectoryStatusEmpty:
		if err := gs.performCloneWithAuth(cleanPath, normalizedURL, logger); err != nil {
			return "", err
		}
	case DirectoryStatusSameRepo:
		if err := gs.performFetchWithAuth(cleanPath, logger); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unexpected directory status: %s", dirStatus.String())
	}

	if logger != nil {
		logger.Info("Git repository prepared successfully", "localPath", cleanPath)
	}

	return cleanPath, nil
}

// FetchUpdates fast-forwards an existing clone. Unlike Prepare it never
// clones: a missing repository is an error. Dirty worktrees are skipped
// without error so local edits are preserved.
func (gs GitSource) FetchUpdates(logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Fetch requested", "url", gs.RemoteURL, "path", gs.Path)
	}

	if _, err := os.Stat(gs.Path); os.IsNotExist(err) {
		return fmt.Errorf("repository does not exist at %s - cannot fetch updates", gs.Path)
	}

	return gs.performFetchWithAuth(gs.Path, logger)
}

// GetBranch returns the configured branch or empty string for the default.
func (gs GitSource) GetBranch() string {
	if gs.Branch != nil {
		return *gs.Branch
	}
	return ""
}

// validateInputs validates the GitSource configuration.
func (gs GitSource) validateInputs() error {
	if strings.TrimSpace(gs.RemoteURL) == "" {
		return fmt.Errorf("remote URL cannot be empty")
	}
	if strings.TrimSpace(gs.Path) == "" {
		return fmt.Errorf("local path cannot be empty")
	}
	return nil
}

// normalizeRemoteURL converts the configured URL to canonical HTTPS form
// with a .git suffix.
func (gs GitSource) normalizeRemoteURL() (string, error) {
	info, err := ParseGitURL(gs.RemoteURL)
	if err != nil {
		return "", fmt.Errorf("invalid git URL format: %w", err)
	}
	return fmt.Sprintf("https://%s/%s/%s.git", info.Host, info.Owner, info.Repo), nil
}

// validateLocalPath cleans and security-checks the clone path. This is
// separate from ValidateCloneDirectory: one guards against dangerous
// paths, the other against git-level conflicts.
func (gs GitSource) validateLocalPath() (string, error) {
	expanded := fileops.ExpandPath(gs.Path)
	clean := filepath.Clean(expanded)

	if err := fileops.ValidatePathSecurity(clean); err != nil {
		return "", fmt.Errorf("invalid local path: %w", err)
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	return abs, nil
}

// getAuthentication retrieves the GitHub PAT from the credential store.
// Returns nil auth when no token is stored, which allows public access.
func (gs GitSource) getAuthentication(logger *logging.AppLogger) (*http.BasicAuth, error) {
	credMgr := NewCredentialManager()

	if !credMgr.HasGitHubToken() {
		return nil, nil
	}

	token, err := credMgr.GetGitHubToken()
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug("Using GitHub Personal Access Token for authentication")
	}

	// GitHub PAT authentication uses "token" as username
	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}, nil
}

// performCloneWithAuth tries a public clone first and retries with the
// stored PAT only when the failure looks like an authentication error.
func (gs GitSource) performCloneWithAuth(localPath, remoteURL string, logger *logging.AppLogger) error {
	err := gs.performClone(localPath, remoteURL, nil, logger)
	if err == nil {
		return nil
	}

	if isAuthenticationError(err) {
		if logger != nil {
			logger.Debug("Public access failed, trying with authentication")
		}

		auth, authErr := gs.getAuthentication(logger)
		if authErr != nil {
			return fmt.Errorf("GitHub authentication failed: %w", authErr)
		}
		if auth == nil {
			return fmt.Errorf("GitHub authentication required - store a Personal Access Token with 'unixman library auth'")
		}

		return gs.performClone(localPath, remoteURL, auth, logger)
	}

	return err
}

// performClone clones the repository into localPath.
func (gs GitSource) performClone(localPath, remoteURL string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Cloning repository", "remoteURL", remoteURL, "localPath", localPath)
	}

	parentDir := filepath.Dir(localPath)
	if err := fileops.ValidatePathSecurity(parentDir); err != nil {
		return fmt.Errorf("parent directory failed security validation: %w", err)
	}
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	cloneOpts := &git.CloneOptions{
		URL:      remoteURL,
		Progress: nil,
	}
	if auth != nil {
		cloneOpts.Auth = auth
	}
	if branch := gs.GetBranch(); branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		cloneOpts.SingleBranch = true
	}

	if _, err := git.PlainClone(localPath, cloneOpts); err != nil {
		return gs.translateCloneError(err)
	}

	if logger != nil {
		logger.Info("Repository cloned successfully", "localPath", localPath)
	}

	return nil
}

// performFetchWithAuth mirrors the clone strategy: public first, PAT
// retry on authentication errors. This also covers repositories that
// changed visibility after the initial clone.
func (gs GitSource) performFetchWithAuth(localPath string, logger *logging.AppLogger) error {
	err := gs.performFetch(localPath, nil, logger)
	if err == nil {
		return nil
	}

	if isAuthenticationError(err) {
		if logger != nil {
			logger.Debug("Public fetch failed, trying with authentication")
		}

		auth, authErr := gs.getAuthentication(logger)
		if authErr != nil {
			return fmt.Errorf("GitHub authentication failed: %w", authErr)
		}
		if auth == nil {
			return fmt.Errorf("GitHub authentication required - store a Personal Access Token with 'unixman library auth'")
		}

		return gs.performFetch(localPath, auth, logger)
	}

	return err
}

// performFetch updates an existing clone: fetch remote refs, check out the
// configured branch when one is set, then fast-forward the worktree.
// A dirty worktree skips the whole update without error.
func (gs GitSource) performFetch(localPath string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Fetching repository updates", "localPath", localPath)
	}

	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get working tree status: %w", err)
	}

	// Local edits win: skip rather than merge or reset
	if !status.IsClean() {
		if logger != nil {
			logger.Warn("Working tree has uncommitted changes, skipping sync")
		}
		return nil
	}

	if branch := gs.GetBranch(); branch != "" {
		// Fetch first so a newly configured branch's remote ref exists
		remote, err := repo.Remote("origin")
		if err != nil {
			return fmt.Errorf("failed to get origin remote: %w", err)
		}
		err = remote.Fetch(&git.FetchOptions{Auth: auth, Force: true})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return gs.translateFetchError(err)
		}

		// Checkout failures are logged but don't fail the update, so a
		// repository with a bad branch configuration stays usable
		if err := gs.checkoutBranch(repo, worktree, branch, logger); err != nil {
			if logger != nil {
				logger.Warn("Failed to checkout configured branch",
					"branch", branch,
					"error", err)
			}
		}
	}

	pullOpts := &git.PullOptions{
		RemoteName: "origin",
		Auth:       auth,
	}
	err = worktree.Pull(pullOpts)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return gs.translateFetchError(err)
	}

	if logger != nil {
		if err == git.NoErrAlreadyUpToDate {
			logger.Debug("Repository already up to date")
		} else {
			logger.Info("Repository updated successfully")
		}
	}

	return nil
}

// checkoutBranch checks out branchName, creating the local branch from the
// remote ref when it does not exist yet.
func (gs GitSource) checkoutBranch(repo *git.Repository, worktree *git.Worktree, branchName string, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Debug("Checking out branch", "branch", branchName)
	}

	head, err := repo.Head()
	if err != nil && err != plumbing.ErrReferenceNotFound {
		return fmt.Errorf("failed to get current branch: %w", err)
	}

	if head != nil && head.Name().Short() == branchName {
		return nil
	}

	localBranchRef := plumbing.NewBranchReferenceName(branchName)
	remoteBranchRef := plumbing.NewRemoteReferenceName("origin", branchName)

	if _, err := repo.Reference(remoteBranchRef, true); err != nil {
		return fmt.Errorf("branch %q does not exist on remote 'origin'", branchName)
	}

	_, err = repo.Reference(localBranchRef, true)
	if err == plumbing.ErrReferenceNotFound {
		remoteRef, err := repo.Reference(remoteBranchRef, true)
		if err != nil {
			return fmt.Errorf("failed to get remote branch reference: %w", err)
		}

		newRef := plumbing.NewHashReference(localBranchRef, remoteRef.Hash())
		if err := repo.Storer.SetReference(newRef); err != nil {
			return fmt.Errorf("failed to create local branch: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to get local branch reference: %w", err)
	}

	checkoutOpts := &git.CheckoutOptions{
		Branch: localBranchRef,
		Force:  false,
	}
	if err := worktree.Checkout(checkoutOpts); err != nil {
		return fmt.Errorf("failed to checkout branch: %w", err)
	}

	if logger != nil {
		logger.Info("Checked out branch", "branch", branchName)
	}

	return nil
}

// IsWorktreeDirty reports whether the repository at repoPath has
// uncommitted changes.
func IsWorktreeDirty(repoPath string) (bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get repository status: %w", err)
	}

	return !status.IsClean(), nil
}

// ValidateCloneDirectory checks whether clonePath can safely host the
// repository at expectedRemoteURL.
//
//   - missing or empty directory: safe to clone
//   - same repository (compared via normalized remote URL): safe to fetch
//   - different repository or non-git content: conflict, user resolves
func ValidateCloneDirectory(clonePath, expectedRemoteURL string) (DirectoryStatus, error) {
	info, err := os.Stat(clonePath)
	if os.IsNotExist(err) {
		return DirectoryStatusEmpty, nil
	}
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot access directory %s: %w", clonePath, err)
	}

	if !info.IsDir() {
		return DirectoryStatusError, fmt.Errorf("path exists but is not a directory: %s", clonePath)
	}

	isEmpty, err := fileops.IsDirEmpty(clonePath)
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot check if directory is empty: %w", err)
	}
	if isEmpty {
		return DirectoryStatusEmpty, nil
	}

	currentRemote, err := getGitRemoteURL(clonePath)
	if err != nil {
		if strings.Contains(err.Error(), "not a git repository") {
			return DirectoryStatusConflict, fmt.Errorf("directory contains non-git content: %s", clonePath)
		}
		return DirectoryStatusError, fmt.Errorf("cannot get current git remote URL: %w", err)
	}

	if NormalizeGitURL(currentRemote) == NormalizeGitURL(expectedRemoteURL) {
		return DirectoryStatusSameRepo, nil
	}

	return DirectoryStatusDifferentRepo, fmt.Errorf("directory contains different git repository (current: %s, expected: %s)",
		currentRemote, expectedRemoteURL)
}

// getGitRemoteURL returns the origin remote URL of the repository at
// repoPath. git.PlainOpen doubles as the is-this-a-git-repo check.
func getGitRemoteURL(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return "", fmt.Errorf("directory is not a git repository: %s", repoPath)
		}
		return "", fmt.Errorf("cannot open git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("cannot get origin remote: %w", err)
	}

	config := remote.Config()
	if config == nil || len(config.URLs) == 0 {
		return "", fmt.Errorf("no URLs configured for origin remote")
	}

	return config.URLs[0], nil
}

// translateCloneError turns technical git errors into actionable messages.
func (gs GitSource) translateCloneError(err error) error {
	errMsg := err.Error()
	errStr := strings.ToLower(errMsg)

	if containsAuthErrorPatterns(errMsg) {
		if strings.Contains(errStr, "403") || strings.Contains(errStr, "forbidden") {
			return fmt.Errorf("GitHub token lacks required permissions - ensure the 'repo' scope is enabled, then update it with 'unixman library auth'")
		}
		return fmt.Errorf("GitHub authentication failed - update your Personal Access Token with 'unixman library auth'")
	}

	if strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
		return fmt.Errorf("repository not found - check the URL or ensure you have access: %s", gs.RemoteURL)
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return fmt.Errorf("network error during clone - check your internet connection and try again: %w", err)
	}

	return fmt.Errorf("failed to clone repository: %w", err)
}

// translateFetchError turns fetch failures into actionable messages. Fetch
// errors are softer than clone errors: the cached clone keeps working.
func (gs GitSource) translateFetchError(err error) error {
	errMsg := err.Error()
	errStr := strings.ToLower(errMsg)

	if containsAuthErrorPatterns(errMsg) {
		return fmt.Errorf("GitHub token has expired or is invalid - update it with 'unixman library auth'")
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return fmt.Errorf("network error during fetch - repository will use cached version: %w", err)
	}

	return fmt.Errorf("failed to fetch repository updates: %w", err)
}

// isAuthenticationError checks if an error is related to authentication,
// which is what decides whether the PAT retry is worth attempting.
func isAuthenticationError(err error) bool {
	if err == nil {
		return false
	}
	return containsAuthErrorPatterns(err.Error())
}

// containsAuthErrorPatterns checks for authentication-related patterns.
func containsAuthErrorPatterns(errMsg string) bool {
	errStr := strings.ToLower(errMsg)
	authPatterns := []string{
		"authentication required",
		"401",
		"unauthorized",
		"403",
		"forbidden",
	}

	for _, pattern := range authPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
