// Package config loads and persists user configuration for unixman.
//
// Configuration is optional: the server starts with built-in defaults when no
// config file exists. The file lives under the XDG config directory
// (~/.config/unixman/config.yaml on Linux) and can be relocated with the
// UNIXMAN_CONFIG_PATH environment variable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"unixman/internal/catalog"
	"unixman/internal/library"
	"unixman/internal/logging"
	"unixman/internal/manual"
	"unixman/internal/repository"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// TUI Messages for async operations
type LoadConfigMsg struct {
	Config *Config
	Error  error
}

type SaveConfigMsg struct {
	Error error
}

type ReloadConfigMsg struct {
	Config *Config
	Error  error
}

const APP_NAME = "unixman" // application name used for config directory

// Built-in defaults, re-exported from the packages that own them so config
// and engine can never drift apart.
const (
	DefaultShell          = manual.DefaultShell
	DefaultHelpTimeout    = manual.DefaultHelpTimeout
	DefaultManTimeout     = manual.DefaultManTimeout
	DefaultResolveTimeout = manual.DefaultResolveTimeout
)

// DefaultCommandDirs are the directories scanned when listing installed
// commands. Order is not significant; results are deduplicated and sorted.
func DefaultCommandDirs() []string {
	return catalog.DefaultDirs()
}

// Config holds user configuration for unixman.
type Config struct {
	// Shell is the login shell used to resolve command names. Empty means
	// "use $SHELL, falling back to /bin/zsh".
	Shell string `yaml:"shell,omitempty"`

	// Subprocess budgets for the documentation probes. Zero means default.
	HelpTimeout    Duration `yaml:"help_timeout,omitempty"`
	ManTimeout     Duration `yaml:"man_timeout,omitempty"`
	ResolveTimeout Duration `yaml:"resolve_timeout,omitempty"`

	// CommandDirs are the directories scanned by the command listing.
	CommandDirs []string `yaml:"command_dirs,omitempty"`

	// Library configures the local cheatsheet collection.
	Library LibraryConfig `yaml:"library"`

	Version  string `yaml:"version"`   // Track config version
	InitTime int64  `yaml:"init_time"` // Unix timestamp of first setup

	// path remembers where the config was loaded from so Save writes back
	// to the same file. Empty for configs that never touched disk.
	path string
}

// LibraryConfig holds cheatsheet storage and sync settings.
type LibraryConfig struct {
	// StorageDir is where cheatsheet markdown files live.
	StorageDir string `yaml:"storage_dir"`

	// Repositories are optional local or GitHub sources of cheatsheets.
	Repositories []repository.RepositoryEntry `yaml:"repositories,omitempty"`
}

// Duration wraps time.Duration so YAML values can be written as "5s" or
// "1m30s". Bare integers are accepted and read as seconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value %q (want a Go duration string or seconds)", value.Value)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ConfigPath returns the standard config file path for the current platform.
// UNIXMAN_CONFIG_PATH overrides the XDG location when set.
func ConfigPath() (string, error) {
	if override := os.Getenv("UNIXMAN_CONFIG_PATH"); override != "" {
		logging.Debug("Using config path override", "path", override)
		return override, nil
	}

	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config paths", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location.
// A missing file is not an error: defaults are returned so the server can
// start with zero setup.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		cfg := DefaultConfig()
		return &cfg, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path. Unset fields are filled with
// defaults after decoding.
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.path = path
	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// IsFirstRun checks if this is the first time the application is run
func IsFirstRun() bool {
	_, exists := FindConfigFile()
	return !exists
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	cfg := Config{
		Version:  "1.0",
		InitTime: 0, // Will be set during first save
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero-valued fields. Shell stays empty on purpose so the
// resolver can consult $SHELL at call time.
func (c *Config) applyDefaults() {
	if c.HelpTimeout <= 0 {
		c.HelpTimeout = Duration(DefaultHelpTimeout)
	}
	if c.ManTimeout <= 0 {
		c.ManTimeout = Duration(DefaultManTimeout)
	}
	if c.ResolveTimeout <= 0 {
		c.ResolveTimeout = Duration(DefaultResolveTimeout)
	}
	if len(c.CommandDirs) == 0 {
		c.CommandDirs = DefaultCommandDirs()
	}
	if c.Library.StorageDir == "" {
		c.Library.StorageDir = library.GetDefaultStorageDir()
	}
	if c.Version == "" {
		c.Version = "1.0"
	}
}

// Save writes the config back to the file it was loaded from, or to the
// standard location for configs that have never been saved.
func (c *Config) Save() error {
	if c.path != "" {
		return c.SaveTo(c.path)
	}
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Set init time if this is the first save
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// FindRepository returns the configured repository with the given ID.
func (c *Config) FindRepository(id string) (*repository.RepositoryEntry, bool) {
	for i := range c.Library.Repositories {
		if c.Library.Repositories[i].ID == id {
			return &c.Library.Repositories[i], true
		}
	}
	return nil, false
}

// AddRepository validates and appends a repository entry. The caller is
// responsible for saving afterwards.
func (c *Config) AddRepository(entry repository.RepositoryEntry) error {
	if err := repository.ValidateRepositoryEntry(entry); err != nil {
		return fmt.Errorf("invalid repository: %w", err)
	}
	if _, exists := c.FindRepository(entry.ID); exists {
		return fmt.Errorf("repository with ID %q already exists", entry.ID)
	}
	c.Library.Repositories = append(c.Library.Repositories, entry)
	return nil
}

// RemoveRepository deletes the repository with the given ID, reporting
// whether anything was removed. The caller is responsible for saving.
func (c *Config) RemoveRepository(id string) bool {
	for i := range c.Library.Repositories {
		if c.Library.Repositories[i].ID == id {
			c.Library.Repositories = append(c.Library.Repositories[:i], c.Library.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// RecordSyncTime stamps the repository with the given ID with a sync time.
// Returns false when the repository is not configured.
func (c *Config) RecordSyncTime(id string, when time.Time) bool {
	repo, ok := c.FindRepository(id)
	if !ok {
		return false
	}
	ts := when.Unix()
	repo.LastSyncTime = &ts
	return true
}
