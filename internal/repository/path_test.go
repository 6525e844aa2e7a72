package repository

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParseGitURL(t *testing.T) {
	tests := []struct {
		name      string
		gitURL    string
		wantHost  string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "github ssh url with .git",
			gitURL:    "git@github.com:owner/repo.git",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "github ssh url without .git",
			gitURL:    "git@github.com:owner/repo",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "github https url with .git",
			gitURL:    "https://github.com/owner/repo.git",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "github https url without .git",
			gitURL:    "https://github.com/owner/repo",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "http url",
			gitURL:    "http://github.com/owner/repo.git",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "non-github host parses",
			gitURL:    "git@gitlab.com:namespace/project.git",
			wantHost:  "gitlab.com",
			wantOwner: "namespace",
			wantRepo:  "project",
		},
		{
			name:      "repo name with hyphens",
			gitURL:    "https://github.com/my-org/my-repo-name.git",
			wantHost:  "github.com",
			wantOwner: "my-org",
			wantRepo:  "my-repo-name",
		},
		{
			name:      "repo name with dots",
			gitURL:    "https://github.com/user/repo.name.git",
			wantHost:  "github.com",
			wantOwner: "user",
			wantRepo:  "repo.name",
		},
		{
			name:      "surrounding whitespace",
			gitURL:    "  git@github.com:owner/repo.git  ",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:    "empty url",
			gitURL:  "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			gitURL:  "   ",
			wantErr: true,
		},
		{
			name:    "invalid url format",
			gitURL:  "not-a-url",
			wantErr: true,
		},
		{
			name:    "url missing owner and repo",
			gitURL:  "https://github.com/",
			wantErr: true,
		},
		{
			name:    "url missing repo",
			gitURL:  "https://github.com/owner",
			wantErr: true,
		},
		{
			name:    "url missing owner",
			gitURL:  "https://github.com//repo.git",
			wantErr: true,
		},
		{
			name:    "ssh url with slash instead of colon",
			gitURL:  "git@github.com/owner/repo.git",
			wantErr: true,
		},
		{
			name:    "url without host",
			gitURL:  "https:///owner/repo.git",
			wantErr: true,
		},
		{
			name:    "malformed ssh url",
			gitURL:  "git@:owner/repo.git",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseGitURL(tt.gitURL)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGitURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if info.Host != tt.wantHost {
				t.Errorf("ParseGitURL() Host = %v, want %v", info.Host, tt.wantHost)
			}
			if info.Owner != tt.wantOwner {
				t.Errorf("ParseGitURL() Owner = %v, want %v", info.Owner, tt.wantOwner)
			}
			if info.Repo != tt.wantRepo {
				t.Errorf("ParseGitURL() Repo = %v, want %v", info.Repo, tt.wantRepo)
			}
		})
	}
}

func TestNormalizeGitURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "ssh url",
			input: "git@github.com:owner/repo.git",
			want:  "github.com/owner/repo",
		},
		{
			name:  "https url",
			input: "https://github.com/owner/repo.git",
			want:  "github.com/owner/repo",
		},
		{
			name:  "https without .git",
			input: "https://github.com/owner/repo",
			want:  "github.com/owner/repo",
		},
		{
			name:  "http url",
			input: "http://git.example.com/user/repo",
			want:  "git.example.com/user/repo",
		},
		{
			name:  "already normalized",
			input: "github.com/owner/repo",
			want:  "github.com/owner/repo",
		},
		{
			name:  "whitespace trimmed",
			input: "  https://github.com/owner/repo.git ",
			want:  "github.com/owner/repo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeGitURL(tt.input); got != tt.want {
				t.Errorf("NormalizeGitURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeGitURLEquivalence(t *testing.T) {
	// The forms users actually paste for the same repository must all
	// normalize identically, this is what same-repo detection rests on.
	forms := []string{
		"git@github.com:owner/repo.git",
		"git@github.com:owner/repo",
		"https://github.com/owner/repo.git",
		"https://github.com/owner/repo",
	}

	want := NormalizeGitURL(forms[0])
	for _, form := range forms[1:] {
		if got := NormalizeGitURL(form); got != want {
			t.Errorf("NormalizeGitURL(%q) = %v, want %v", form, got, want)
		}
	}
}

func TestDeriveClonePath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name      string
		baseDir   string
		remoteURL string
		want      string
		wantErr   bool
	}{
		{
			name:      "ssh url",
			baseDir:   base,
			remoteURL: "git@github.com:user/sheets.git",
			want:      filepath.Join(base, "sheets"),
		},
		{
			name:      "https url",
			baseDir:   base,
			remoteURL: "https://github.com/team/ops-notes",
			want:      filepath.Join(base, "ops-notes"),
		},
		{
			name:      "base with whitespace",
			baseDir:   "  " + base + "  ",
			remoteURL: "https://github.com/user/repo.git",
			want:      filepath.Join(base, "repo"),
		},
		{
			name:      "empty base",
			baseDir:   "",
			remoteURL: "https://github.com/user/repo.git",
			wantErr:   true,
		},
		{
			name:      "invalid url",
			baseDir:   base,
			remoteURL: "not-a-url",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveClonePath(tt.baseDir, tt.remoteURL)

			if (err != nil) != tt.wantErr {
				t.Fatalf("DeriveClonePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if got != tt.want {
				t.Errorf("DeriveClonePath() = %v, want %v", got, tt.want)
			}
			if !filepath.IsAbs(got) {
				t.Errorf("DeriveClonePath() returned relative path %v", got)
			}
		})
	}
}

func TestDeriveClonePathStaysUnderBase(t *testing.T) {
	base := t.TempDir()

	got, err := DeriveClonePath(base, "https://github.com/user/repo.git")
	if err != nil {
		t.Fatalf("DeriveClonePath() unexpected error: %v", err)
	}

	rel, err := filepath.Rel(base, got)
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Errorf("DeriveClonePath() = %v, escapes base %v", got, base)
	}
}
