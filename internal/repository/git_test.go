package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
)

// initRepoWithOrigin creates a local git repository with an origin remote,
// no network involved.
func initRepoWithOrigin(t *testing.T, path, originURL string) {
	t.Helper()

	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{originURL},
	})
	if err != nil {
		t.Fatalf("Failed to create remote: %v", err)
	}
}

func TestDirectoryStatusString(t *testing.T) {
	tests := []struct {
		status DirectoryStatus
		want   string
	}{
		{DirectoryStatusEmpty, "empty or doesn't exist"},
		{DirectoryStatusSameRepo, "same git repository"},
		{DirectoryStatusDifferentRepo, "different git repository"},
		{DirectoryStatusConflict, "contains non-git content"},
		{DirectoryStatusError, "validation error"},
		{DirectoryStatus(999), "unknown status"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("DirectoryStatus.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGitSourceValidateInputs(t *testing.T) {
	tests := []struct {
		name    string
		source  GitSource
		wantErr string
	}{
		{
			name:    "empty remote URL",
			source:  NewGitSource("", nil, "/tmp/somewhere"),
			wantErr: "remote URL cannot be empty",
		},
		{
			name:    "whitespace remote URL",
			source:  NewGitSource("   ", nil, "/tmp/somewhere"),
			wantErr: "remote URL cannot be empty",
		},
		{
			name:    "empty path",
			source:  NewGitSource("https://github.com/owner/repo.git", nil, ""),
			wantErr: "local path cannot be empty",
		},
		{
			name:   "valid inputs",
			source: NewGitSource("https://github.com/owner/repo.git", nil, "/tmp/somewhere"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.validateInputs()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateInputs() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validateInputs() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateInputs() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGitSourceNormalizeRemoteURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "ssh form",
			input: "git@github.com:owner/repo.git",
			want:  "https://github.com/owner/repo.git",
		},
		{
			name:  "https without suffix",
			input: "https://github.com/owner/repo",
			want:  "https://github.com/owner/repo.git",
		},
		{
			name:  "https with suffix unchanged",
			input: "https://github.com/owner/repo.git",
			want:  "https://github.com/owner/repo.git",
		},
		{
			name:    "malformed",
			input:   "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGitSource(tt.input, nil, "/tmp/clone")
			got, err := gs.normalizeRemoteURL()

			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeRemoteURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("normalizeRemoteURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateCloneDirectory(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		setup       func(t *testing.T) (clonePath, expectedRemoteURL string)
		wantStatus  DirectoryStatus
		errContains string
	}{
		{
			name: "directory doesn't exist",
			setup: func(t *testing.T) (string, string) {
				return filepath.Join(tempDir, "nonexistent"), "git@github.com:user/repo.git"
			},
			wantStatus: DirectoryStatusEmpty,
		},
		{
			name: "empty directory",
			setup: func(t *testing.T) (string, string) {
				path := filepath.Join(tempDir, "empty")
				if err := os.MkdirAll(path, 0755); err != nil {
					t.Fatalf("Failed to create directory: %v", err)
				}
				return path, "git@github.com:user/repo.git"
			},
			wantStatus: DirectoryStatusEmpty,
		},
		{
			name: "path is a file",
			setup: func(t *testing.T) (string, string) {
				path := filepath.Join(tempDir, "notadir")
				if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
					t.Fatalf("Failed to create file: %v", err)
				}
				return path, "git@github.com:user/repo.git"
			},
			wantStatus:  DirectoryStatusError,
			errContains: "not a directory",
		},
		{
			name: "non-git content",
			setup: func(t *testing.T) (string, string) {
				path := filepath.Join(tempDir, "nongit")
				if err := os.MkdirAll(path, 0755); err != nil {
					t.Fatalf("Failed to create directory: %v", err)
				}
				if err := os.WriteFile(filepath.Join(path, "somefile.txt"), []byte("x"), 0644); err != nil {
					t.Fatalf("Failed to create file: %v", err)
				}
				return path, "git@github.com:user/repo.git"
			},
			wantStatus:  DirectoryStatusConflict,
			errContains: "non-git content",
		},
		{
			name: "same repository in different URL form",
			setup: func(t *testing.T) (string, string) {
				path := filepath.Join(tempDir, "same-repo")
				initRepoWithOrigin(t, path, "git@github.com:user/repo.git")
				return path, "https://github.com/user/repo.git"
			},
			wantStatus: DirectoryStatusSameRepo,
		},
		{
			name: "different repository",
			setup: func(t *testing.T) (string, string) {
				path := filepath.Join(tempDir, "other-repo")
				initRepoWithOrigin(t, path, "https://github.com/other/project.git")
				return path, "https://github.com/user/repo.git"
			},
			wantStatus:  DirectoryStatusDifferentRepo,
			errContains: "different git repository",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clonePath, expectedURL := tt.setup(t)
			status, err := ValidateCloneDirectory(clonePath, expectedURL)

			if status != tt.wantStatus {
				t.Errorf("ValidateCloneDirectory() status = %v, want %v", status, tt.wantStatus)
			}

			if tt.errContains != "" {
				if err == nil {
					t.Errorf("ValidateCloneDirectory() expected error containing %q, got none", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("ValidateCloneDirectory() error = %v, want containing %q", err, tt.errContains)
				}
			} else if err != nil {
				t.Errorf("ValidateCloneDirectory() unexpected error: %v", err)
			}
		})
	}
}

func TestGetGitRemoteURL(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("repository with origin", func(t *testing.T) {
		path := filepath.Join(tempDir, "with-origin")
		initRepoWithOrigin(t, path, "git@github.com:user/test-repo.git")

		url, err := getGitRemoteURL(path)
		if err != nil {
			t.Fatalf("getGitRemoteURL() unexpected error: %v", err)
		}
		if url != "git@github.com:user/test-repo.git" {
			t.Errorf("getGitRemoteURL() = %q, want origin URL", url)
		}
	})

	t.Run("repository without origin", func(t *testing.T) {
		path := filepath.Join(tempDir, "no-origin")
		if _, err := git.PlainInit(path, false); err != nil {
			t.Fatalf("Failed to init repository: %v", err)
		}

		_, err := getGitRemoteURL(path)
		if err == nil || !strings.Contains(err.Error(), "cannot get origin remote") {
			t.Errorf("getGitRemoteURL() error = %v, want origin remote error", err)
		}
	})

	t.Run("not a git repository", func(t *testing.T) {
		path := filepath.Join(tempDir, "plain-dir")
		if err := os.MkdirAll(path, 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}

		_, err := getGitRemoteURL(path)
		if err == nil || !strings.Contains(err.Error(), "not a git repository") {
			t.Errorf("getGitRemoteURL() error = %v, want not-a-git-repository error", err)
		}
	})
}

func TestIsWorktreeDirty(t *testing.T) {
	t.Run("nonexistent path", func(t *testing.T) {
		if _, err := IsWorktreeDirty("/nonexistent/path"); err == nil {
			t.Error("Expected error for non-existent repository")
		}
	})

	t.Run("not a git repository", func(t *testing.T) {
		if _, err := IsWorktreeDirty(t.TempDir()); err == nil {
			t.Error("Expected error for non-git directory")
		}
	})

	t.Run("clean empty repository", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clean")
		if _, err := git.PlainInit(path, false); err != nil {
			t.Fatalf("Failed to init repository: %v", err)
		}

		dirty, err := IsWorktreeDirty(path)
		if err != nil {
			t.Fatalf("IsWorktreeDirty() unexpected error: %v", err)
		}
		if dirty {
			t.Error("Expected clean status for empty repository")
		}
	})

	t.Run("untracked file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dirty")
		if _, err := git.PlainInit(path, false); err != nil {
			t.Fatalf("Failed to init repository: %v", err)
		}
		if err := os.WriteFile(filepath.Join(path, "new-file.txt"), []byte("untracked"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}

		dirty, err := IsWorktreeDirty(path)
		if err != nil {
			t.Fatalf("IsWorktreeDirty() unexpected error: %v", err)
		}
		if !dirty {
			t.Error("Expected dirty status with untracked file present")
		}
	})
}

func TestIsAuthenticationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"authentication required", errors.New("authentication required"), true},
		{"401 status", errors.New("unexpected client error: 401"), true},
		{"unauthorized", errors.New("remote: Unauthorized"), true},
		{"403 status", errors.New("unexpected client error: 403"), true},
		{"forbidden", errors.New("remote: Forbidden"), true},
		{"unrelated error", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAuthenticationError(tt.err); got != tt.want {
				t.Errorf("isAuthenticationError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTranslateCloneError(t *testing.T) {
	gs := NewGitSource("https://github.com/owner/repo.git", nil, "/tmp/clone")

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "permission error suggests scope fix",
			err:      errors.New("unexpected client error: 403 Forbidden"),
			contains: []string{"repo", "unixman library auth"},
		},
		{
			name:     "auth error suggests token update",
			err:      errors.New("authentication required"),
			contains: []string{"authentication failed", "unixman library auth"},
		},
		{
			name:     "missing repository",
			err:      errors.New("repository not found"),
			contains: []string{"repository not found", "https://github.com/owner/repo.git"},
		},
		{
			name:     "network failure",
			err:      errors.New("dial tcp: connection refused"),
			contains: []string{"network error"},
		},
		{
			name:     "unknown error passes through",
			err:      errors.New("something odd happened"),
			contains: []string{"failed to clone repository", "something odd happened"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gs.translateCloneError(tt.err)
			for _, want := range tt.contains {
				if !strings.Contains(got.Error(), want) {
					t.Errorf("translateCloneError() = %v, want containing %q", got, want)
				}
			}
		})
	}
}

func TestTranslateFetchError(t *testing.T) {
	gs := NewGitSource("https://github.com/owner/repo.git", nil, "/tmp/clone")

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "auth error suggests token update",
			err:      errors.New("unexpected client error: 401"),
			contains: []string{"expired or is invalid", "unixman library auth"},
		},
		{
			name:     "network failure mentions cached copy",
			err:      errors.New("network timeout"),
			contains: []string{"cached version"},
		},
		{
			name:     "unknown error passes through",
			err:      errors.New("object corrupted"),
			contains: []string{"failed to fetch repository updates", "object corrupted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gs.translateFetchError(tt.err)
			for _, want := range tt.contains {
				if !strings.Contains(got.Error(), want) {
					t.Errorf("translateFetchError() = %v, want containing %q", got, want)
				}
			}
		})
	}
}

func TestFetchUpdatesMissingClone(t *testing.T) {
	gs := NewGitSource("https://github.com/owner/repo.git", nil, filepath.Join(t.TempDir(), "never-cloned"))

	err := gs.FetchUpdates(nil)
	if err == nil {
		t.Fatal("FetchUpdates() should fail when the clone does not exist")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("FetchUpdates() error = %v, want missing-repository message", err)
	}
}
