package repository

import (
	"fmt"
	"testing"

	"github.com/zalando/go-keyring"
)

// Test helpers for credential operations against the real OS keyring.
//
// Credential tests use the actual keyring rather than mocks so the real
// backend behavior is exercised. Each test gets a unique service name to
// keep test entries away from production credentials and from other tests,
// and cleanup is registered automatically. Environments without a keyring
// backend (headless CI) skip via SetupTestKeyring.

// TestCredentialManager wraps CredentialManager with per-test isolation
// and automatic cleanup.
type TestCredentialManager struct {
	*CredentialManager
	testService string
	t           *testing.T
}

// NewTestCredentialManager creates an isolated credential manager whose
// keyring entries are removed when the test finishes.
func NewTestCredentialManager(t *testing.T) *TestCredentialManager {
	t.Helper()

	testService := fmt.Sprintf("unixman-test-%s", t.Name())

	cm := &TestCredentialManager{
		CredentialManager: &CredentialManager{serviceName: testService},
		testService:       testService,
		t:                 t,
	}

	t.Cleanup(func() {
		cm.Cleanup()
	})

	return cm
}

// Cleanup removes the test token. Registered via t.Cleanup but safe to
// call manually.
func (tcm *TestCredentialManager) Cleanup() {
	tcm.t.Helper()
	_ = keyring.Delete(tcm.testService, githubTokenKey)
}

// SetupTestKeyring skips the test when no keyring backend is available.
// Returns a cleanup function for the probe entry.
func SetupTestKeyring(t *testing.T) func() {
	t.Helper()

	testService := fmt.Sprintf("unixman-keyring-test-%s", t.Name())
	testKey := "test_availability"

	if err := keyring.Set(testService, testKey, "probe"); err != nil {
		t.Skipf("Keyring not available, skipping test: %v", err)
	}

	return func() {
		_ = keyring.Delete(testService, testKey)
	}
}

// CreateTestToken generates a token that passes format validation but is
// not a real GitHub token. An empty prefix defaults to "ghp_".
func CreateTestToken(prefix string) string {
	if prefix == "" {
		prefix = "ghp_"
	}
	return prefix + "1234567890abcdefghijklmnopqrstuvwxyzABCD"
}

// CreateInvalidFormatToken generates a token that fails format validation.
func CreateInvalidFormatToken() string {
	return "invalid_token_format"
}

// AssertTokenStored fails the test unless the expected token is stored.
func AssertTokenStored(t *testing.T, cm *TestCredentialManager, expectedToken string) {
	t.Helper()

	token, err := cm.GetGitHubToken()
	if err != nil {
		t.Fatalf("Expected token to be stored, but got error: %v", err)
	}
	if token != expectedToken {
		t.Errorf("Expected token %q, got %q", expectedToken, token)
	}
}

// AssertTokenNotStored fails the test if any token is stored.
func AssertTokenNotStored(t *testing.T, cm *TestCredentialManager) {
	t.Helper()

	if cm.HasGitHubToken() {
		t.Error("Expected no token to be stored, but HasGitHubToken returned true")
	}
	if _, err := cm.GetGitHubToken(); err == nil {
		t.Error("Expected error when getting non-existent token, but got nil")
	}
}
