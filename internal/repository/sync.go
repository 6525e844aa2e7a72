package repository

import (
	"fmt"
	"time"

	"unixman/internal/logging"
)

// SyncStatus classifies the outcome of syncing one repository.
type SyncStatus int

const (
	// SyncStatusSuccess means the repository was updated (or already current)
	SyncStatusSuccess SyncStatus = iota
	// SyncStatusFailed means the update could not be completed
	SyncStatusFailed
	// SyncStatusSkipped means the repository was intentionally not synced
	SyncStatusSkipped
)

// String returns a short label for display.
func (s SyncStatus) String() string {
	switch s {
	case SyncStatusSuccess:
		return "success"
	case SyncStatusFailed:
		return "failed"
	case SyncStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SyncResult is the outcome of syncing a single repository.
type SyncResult struct {
	RepositoryID   string
	RepositoryName string
	Status         SyncStatus
	Err            error
	SkipReason     string
	Duration       time.Duration
}

// Message returns a one-line human-readable summary of the result.
func (r SyncResult) Message() string {
	switch r.Status {
	case SyncStatusSuccess:
		return fmt.Sprintf("Synced successfully in %s", r.Duration.Round(100*time.Millisecond))
	case SyncStatusFailed:
		return fmt.Sprintf("Sync failed: %v", r.Err)
	case SyncStatusSkipped:
		return fmt.Sprintf("Skipped: %s", r.SkipReason)
	default:
		return "Unknown sync status"
	}
}

// SyncAll fetches updates for every repository in the list and returns one
// result per repository, in input order. A failure in one repository never
// stops the others.
func SyncAll(repos []RepositoryEntry, logger *logging.AppLogger) []SyncResult {
	if logger != nil {
		logger.Info("Starting repository sync", "count", len(repos))
	}

	results := make([]SyncResult, 0, len(repos))
	var success, failed, skipped int

	for _, repo := range repos {
		result := syncOne(repo, logger)
		results = append(results, result)

		switch result.Status {
		case SyncStatusSuccess:
			success++
		case SyncStatusFailed:
			failed++
		case SyncStatusSkipped:
			skipped++
		}
	}

	if logger != nil {
		logger.Info("Repository sync completed",
			"success", success,
			"failed", failed,
			"skipped", skipped)
	}

	return results
}

// syncOne syncs a single repository. Local repositories and repositories
// with uncommitted changes are skipped, not failed: neither is an error
// the user needs to fix before the rest of the sync proceeds.
func syncOne(repo RepositoryEntry, logger *logging.AppLogger) SyncResult {
	start := time.Now()
	result := SyncResult{
		RepositoryID:   repo.ID,
		RepositoryName: repo.Name,
	}

	if !repo.IsRemote() {
		result.Status = SyncStatusSkipped
		result.SkipReason = "not a GitHub repository"
		result.Duration = time.Since(start)
		return result
	}

	dirty, err := IsWorktreeDirty(repo.Path)
	if err != nil {
		result.Status = SyncStatusFailed
		result.Err = err
		result.Duration = time.Since(start)
		if logger != nil {
			logger.Warn("Cannot check repository status", "repo", repo.Name, "error", err)
		}
		return result
	}
	if dirty {
		result.Status = SyncStatusSkipped
		result.SkipReason = "uncommitted changes"
		result.Duration = time.Since(start)
		if logger != nil {
			logger.Info("Skipping repository with local changes", "repo", repo.Name)
		}
		return result
	}

	source := NewGitSource(repo.GetRemoteURL(), repo.Branch, repo.Path)
	if err := source.FetchUpdates(logger); err != nil {
		result.Status = SyncStatusFailed
		result.Err = err
	} else {
		result.Status = SyncStatusSuccess
	}
	result.Duration = time.Since(start)

	return result
}
