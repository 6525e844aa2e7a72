// Package syncview implements the repository sync screen: it runs a sync
// across every configured cheatsheet repository, shows per-repository
// results, and persists updated sync timestamps back to the config file.
package syncview

import (
	"fmt"
	"strings"
	"time"

	"unixman/internal/config"
	"unixman/internal/logging"
	"unixman/internal/repository"
	"unixman/internal/tui/components"
	"unixman/internal/tui/helpers"
	"unixman/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type SyncState int

const (
	StateNoRepos SyncState = iota // Nothing configured to sync
	StateSyncing                  // Sync run in progress
	StateDone                     // Results available
)

type (
	// SyncCompleteMsg delivers the per-repository outcome of a sync run.
	SyncCompleteMsg struct {
		Results []repository.SyncResult
	}

	// ConfigSavedMsg reports the attempt to persist updated sync times.
	ConfigSavedMsg struct {
		Err error
	}
)

type SyncModel struct {
	logger *logging.AppLogger
	state  SyncState

	config *config.Config
	layout components.LayoutModel

	spinner spinner.Model

	results []repository.SyncResult
	saveErr error
}

// NewSyncModel builds the sync screen over the configured repositories.
// A nil config or an empty repository list renders the no-repos state.
func NewSyncModel(ctx helpers.UIContext) *SyncModel {
	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})
	if ctx.HasValidDimensions() {
		layout, _ = layout.Update(tea.WindowSizeMsg{Width: ctx.Width, Height: ctx.Height})
	}

	s := spinner.New()
	s.Style = styles.SpinnerStyle
	s.Spinner = spinner.Pulse

	state := StateNoRepos
	if ctx.Config != nil && len(ctx.Config.Library.Repositories) > 0 {
		state = StateSyncing
	}

	return &SyncModel{
		logger:  ctx.Logger,
		state:   state,
		config:  ctx.Config,
		layout:  layout,
		spinner: s,
	}
}

// Init kicks off the sync run when there is anything to sync.
func (m *SyncModel) Init() tea.Cmd {
	if m.state != StateSyncing {
		return nil
	}
	return tea.Batch(m.syncCmd(), m.spinner.Tick)
}

func (m *SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, nil

	case spinner.TickMsg:
		if m.state == StateSyncing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case SyncCompleteMsg:
		m.results = msg.Results
		m.state = StateDone

		// Stamp sync times for everything that synced, then persist
		synced := 0
		now := time.Now()
		for _, result := range msg.Results {
			if result.Status == repository.SyncStatusSuccess {
				m.config.RecordSyncTime(result.RepositoryID, now)
				synced++
			}
		}
		m.logger.Info("Sync run finished", "total", len(msg.Results), "synced", synced)
		if synced > 0 {
			return m, m.saveConfigCmd()
		}
		return m, nil

	case ConfigSavedMsg:
		if msg.Err != nil {
			m.logger.Error("Failed to save sync times", "error", msg.Err)
			m.saveErr = msg.Err
			return m, nil
		}
		// Refresh the application's view of the config file
		return m, m.config.Reload()

	case tea.KeyMsg:
		switch m.state {
		case StateNoRepos:
			switch msg.String() {
			case "esc", "q", "enter":
				return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
			}

		case StateDone:
			switch msg.String() {
			case "r":
				m.state = StateSyncing
				m.results = nil
				m.saveErr = nil
				return m, tea.Batch(m.syncCmd(), m.spinner.Tick)
			case "esc", "q", "enter":
				return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
			}
		}
		return m, nil
	}

	return m, nil
}

func (m *SyncModel) View() string {
	switch m.state {
	case StateNoRepos:
		return m.viewNoRepos()
	case StateSyncing:
		return m.viewSyncing()
	default:
		return m.viewDone()
	}
}

func (m *SyncModel) viewNoRepos() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔄 Sync Repositories",
		Subtitle: "No repositories configured",
		HelpText: "Esc to return to main menu",
	})
	content := "There are no cheatsheet repositories to sync.\n\n"
	content += "Register one with 'unixman library sync <github-url>'."
	return m.layout.Render(content)
}

func (m *SyncModel) viewSyncing() string {
	count := 0
	if m.config != nil {
		count = len(m.config.Library.Repositories)
	}
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔄 Sync Repositories",
		Subtitle: fmt.Sprintf("Syncing %d repositories...", count),
		HelpText: "Please wait while repositories are updated",
	})
	content := fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), styles.SpinnerStyle.Render("Syncing..."))
	return m.layout.Render(content)
}

func (m *SyncModel) viewDone() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔄 Sync Repositories - Results",
		Subtitle: m.summaryLine(),
		HelpText: "r to sync again • Esc to return to main menu",
	})

	var b strings.Builder
	for _, result := range m.results {
		var marker string
		switch result.Status {
		case repository.SyncStatusSuccess:
			marker = styles.SuccessStyle.Render("✓")
		case repository.SyncStatusFailed:
			marker = styles.ErrorStyle.Render("✗")
		default:
			marker = styles.WarningStyle.Render("•")
		}
		fmt.Fprintf(&b, "%s %s: %s\n", marker, result.RepositoryName, result.Message())
	}

	if m.saveErr != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render("Sync times could not be saved: " + m.saveErr.Error()))
		b.WriteString("\n")
	}

	return m.layout.Render(b.String())
}

func (m *SyncModel) summaryLine() string {
	var synced, failed, skipped int
	for _, result := range m.results {
		switch result.Status {
		case repository.SyncStatusSuccess:
			synced++
		case repository.SyncStatusFailed:
			failed++
		default:
			skipped++
		}
	}
	return fmt.Sprintf("%d synced • %d failed • %d skipped", synced, failed, skipped)
}

//  COMMANDS

// syncCmd runs the sync across all configured repositories. SyncAll skips
// local-only entries on its own, so the whole list goes in.
func (m *SyncModel) syncCmd() tea.Cmd {
	cfg := m.config
	logger := m.logger
	return func() tea.Msg {
		results := repository.SyncAll(cfg.Library.Repositories, logger)
		return SyncCompleteMsg{Results: results}
	}
}

// saveConfigCmd persists updated sync timestamps.
func (m *SyncModel) saveConfigCmd() tea.Cmd {
	cfg := m.config
	return func() tea.Msg {
		return ConfigSavedMsg{Err: cfg.Save()}
	}
}
