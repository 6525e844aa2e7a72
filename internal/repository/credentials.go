package repository

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// credentialServiceName identifies this application in the OS keyring
	credentialServiceName = "unixman"
	// githubTokenKey is the keyring entry for the GitHub Personal Access Token
	githubTokenKey = "github_pat"

	// minTokenLength is a sanity floor; real GitHub tokens are longer
	minTokenLength = 20
)

// githubTokenPrefixes are the known GitHub token formats: classic PATs,
// fine-grained PATs, and the OAuth/app token variants.
var githubTokenPrefixes = []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_"}

// CredentialManager stores GitHub tokens in the operating system keyring
// (Keychain on macOS, Secret Service on Linux, Credential Manager on
// Windows). Tokens never touch the config file.
type CredentialManager struct {
	serviceName string
}

// NewCredentialManager creates a credential manager using the standard
// application service name.
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{serviceName: credentialServiceName}
}

// StoreGitHubToken validates and stores a GitHub Personal Access Token.
func (cm *CredentialManager) StoreGitHubToken(token string) error {
	if err := validateTokenFormat(token); err != nil {
		return err
	}

	if err := keyring.Set(cm.serviceName, githubTokenKey, strings.TrimSpace(token)); err != nil {
		return fmt.Errorf("failed to store token in system keyring: %w", err)
	}

	return nil
}

// GetGitHubToken retrieves the stored GitHub token.
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(cm.serviceName, githubTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no GitHub token stored - add one with 'unixman library auth'")
		}
		return "", fmt.Errorf("failed to read token from system keyring: %w", err)
	}

	return token, nil
}

// HasGitHubToken reports whether a token is stored without returning it.
func (cm *CredentialManager) HasGitHubToken() bool {
	_, err := keyring.Get(cm.serviceName, githubTokenKey)
	return err == nil
}

// DeleteGitHubToken removes the stored token. Deleting a token that was
// never stored is not an error.
func (cm *CredentialManager) DeleteGitHubToken() error {
	err := keyring.Delete(cm.serviceName, githubTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete token from system keyring: %w", err)
	}
	return nil
}

// UpdateGitHubToken replaces the stored token. keyring.Set overwrites, so
// this is storage plus validation.
func (cm *CredentialManager) UpdateGitHubToken(token string) error {
	return cm.StoreGitHubToken(token)
}

// CredentialStoreStatus describes the keyring backend for status displays.
type CredentialStoreStatus struct {
	Available   bool
	TokenStored bool
	Detail      string
}

// GetCredentialStoreStatus probes the keyring backend by writing and
// removing a throwaway entry. Headless Linux systems often lack a Secret
// Service daemon, and this surfaces that before the user tries to store a
// real token.
func (cm *CredentialManager) GetCredentialStoreStatus() CredentialStoreStatus {
	probeKey := githubTokenKey + "_probe"

	if err := keyring.Set(cm.serviceName, probeKey, "probe"); err != nil {
		return CredentialStoreStatus{
			Available: false,
			Detail:    fmt.Sprintf("system keyring unavailable: %v", err),
		}
	}
	_ = keyring.Delete(cm.serviceName, probeKey)

	return CredentialStoreStatus{
		Available:   true,
		TokenStored: cm.HasGitHubToken(),
	}
}

// validateTokenFormat checks that a token looks like a GitHub token before
// it reaches the keyring. This catches pasted fragments and obvious typos,
// not revoked or expired tokens.
func validateTokenFormat(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if len(trimmed) < minTokenLength {
		return fmt.Errorf("token too short to be a valid GitHub token")
	}

	for _, prefix := range githubTokenPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return nil
		}
	}

	return fmt.Errorf("token does not match any known GitHub token format (expected prefix: %s)",
		strings.Join(githubTokenPrefixes, ", "))
}
