package config

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Reload returns a command that re-reads the config from the file it was
// loaded from and delivers the result as a ReloadConfigMsg. The TUI uses
// this after operations that rewrite the config (syncing repositories,
// registering a new one) so the in-memory view stays current. Configs that
// never touched disk reload from the standard location.
func (c *Config) Reload() tea.Cmd {
	path := c.path
	return func() tea.Msg {
		if path != "" {
			cfg, err := LoadFrom(path)
			return ReloadConfigMsg{Config: cfg, Error: err}
		}
		cfg, err := Load()
		return ReloadConfigMsg{Config: cfg, Error: err}
	}
}
