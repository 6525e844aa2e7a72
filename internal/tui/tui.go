// Package tui provides the interactive terminal interface for unixman.
//
// This package implements a TUI using the Bubble Tea framework and Lipgloss
// styling. It provides a menu-driven interface for exploring Unix command
// documentation, including:
//
// - Main navigation menu with filtering capabilities
// - Command browser with live help and man page previews
// - Cheatsheet library browser with rendered markdown previews
// - Repository sync for pulling cheatsheets from configured GitHub repos
// - Error handling and user feedback through consistent UI patterns
//
// The TUI follows a state-based architecture where different application
// states (menu, browser, cheatsheets, sync) are handled by specialized models
// that implement the tea.Model interface. State transitions are managed
// through custom message types and a centralized navigation system.
//
// Key Components:
//   - MainModel: Root model that orchestrates the entire TUI application
//   - AppState: Enumeration of possible application states
//   - MenuItemModel: Interface for models that can be displayed in menus
//   - Navigation system: Message-based state transitions between views
package tui

import (
	"fmt"

	"unixman/internal/config"
	"unixman/internal/logging"
	"unixman/internal/tui/cheatsheets"
	"unixman/internal/tui/cmdbrowser"
	"unixman/internal/tui/components"
	"unixman/internal/tui/helpers"
	"unixman/internal/tui/syncview"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// AppState represents the current state of the TUI application.
// Each state corresponds to a different view or mode of operation.
type AppState int

const (
	// StateMenu represents the main navigation menu
	StateMenu AppState = iota
	StateError
	StateQuitting

	StateBrowser
	StateCheatsheets
	StateSync
)

// Custom messages for internal state transitions
type (
	NavigateMsg struct {
		State AppState
	}

	ErrorMsg struct {
		Err error
	}
)

// MenuItemModel interface for menu item models.
// Any model that can be displayed as a menu item must implement this
// interface, which requires implementing the tea.Model interface for Bubble
// Tea compatibility.
type MenuItemModel interface {
	tea.Model
}

// Enhanced item struct with model reference
type item struct {
	title       string
	description string
	state       AppState
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.description }
func (i item) FilterValue() string { return i.title }

// MainModel is the root model for the TUI application.
//
// This struct serves as the central coordinator for the entire application,
// managing state transitions, user input, and rendering. It implements the
// tea.Model interface and handles the main application loop.
//
// Key responsibilities:
//   - Managing application state and state transitions
//   - Coordinating between different feature-specific models
//   - Handling user input and delegating to appropriate handlers
//   - Managing window resizing and layout updates
//   - Providing consistent error handling and user feedback
//   - Orchestrating the main navigation menu
type MainModel struct {
	config    *config.Config
	logger    *logging.AppLogger
	state     AppState
	prevState AppState // For returning from error states

	// Main menu list
	menu list.Model

	// Current active model (always fresh, no caching)
	activeModel MenuItemModel

	// Layout for consistent UI
	layout components.LayoutModel

	// Window dimensions for creating submodels
	windowWidth  int
	windowHeight int

	// UI state
	err error
}

func NewMainModel(cfg *config.Config, logger *logging.AppLogger) *MainModel {
	// Create menu items with model references
	items := []list.Item{
		item{
			title:       "📖  Browse commands",
			description: "Browse the commands installed on this system and read their help output or man pages.",
			state:       StateBrowser,
		},
		item{
			title:       "📑  Cheatsheets",
			description: "Browse your local cheatsheet library with rendered markdown previews.",
			state:       StateCheatsheets,
		},
		item{
			title:       "🔄  Sync repositories",
			description: "Pull the latest cheatsheets from your configured GitHub repositories.",
			state:       StateSync,
		},
	}

	// Create list with items
	menuList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menuList.Title = "" // We'll use the layout for titles
	menuList.SetShowTitle(false)
	menuList.SetShowStatusBar(false)
	menuList.SetFilteringEnabled(true)
	menuList.SetShowHelp(false) // We'll use the layout for help

	// Create layout
	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	return &MainModel{
		config:    cfg,
		logger:    logger,
		state:     StateMenu,
		prevState: StateMenu,
		menu:      menuList,
		layout:    layout,
	}
}

func (m *MainModel) Init() tea.Cmd {
	m.logger.Info("MainModel initialized")
	return nil
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	// log only strategic events
	if wm, ok := msg.(tea.WindowSizeMsg); ok {
		m.logger.Debug("window resize", "width", wm.Width, "height", wm.Height)
	}

	// Update layout first for size changes
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Store window dimensions for creating submodels
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height

		// Handle window resize with validation
		if msg.Width > 0 && msg.Height > 0 {
			v := 14 // footer margins
			m.menu.SetSize(msg.Width-4, msg.Height-v)

			// Propagate size to active model if present
			if m.activeModel != nil {
				updatedModel, modelCmd := m.activeModel.Update(msg)
				m.activeModel = updatedModel.(MenuItemModel)
				if modelCmd != nil {
					cmds = append(cmds, modelCmd)
				}
			}
		} else {
			m.logger.Warn("Invalid window dimensions received", "width", msg.Width, "height", msg.Height)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// Handle global quit commands
			m.state = StateQuitting
			return m, tea.Quit
		}

		// Handle keyboard input based on current state
		switch m.state {
		case StateMenu:
			switch msg.String() {
			case "q":
				// Handle quit only when not filtering
				if m.menu.FilterState() != list.Filtering {
					m.state = StateQuitting
					return m, tea.Quit
				}
				// When filtering, pass "q" to the menu for filtering
				m.menu, cmd = m.menu.Update(msg)
				if cmd != nil {
					cmds = append(cmds, cmd)
				}
			case "enter":
				// Handle menu selection only when not filtering
				if m.menu.FilterState() != list.Filtering {
					if selectedItem, ok := m.menu.SelectedItem().(item); ok {
						m.logger.LogUserAction("menu_selection", selectedItem.title)
						return m.handleMenuSelection(selectedItem)
					}
				}
				// When filtering, pass enter to the menu
				m.menu, cmd = m.menu.Update(msg)
				if cmd != nil {
					cmds = append(cmds, cmd)
				}
			default:
				// Update the menu list for navigation/filtering
				m.menu, cmd = m.menu.Update(msg)
				if cmd != nil {
					cmds = append(cmds, cmd)
				}
			}

		case StateError:
			switch msg.String() {
			case "esc":
				m.logger.LogStateTransition("MainModel", "StateError", "prevState")
				m.state = m.prevState
				m.err = nil
				m.layout = m.layout.ClearError()
				return m, nil
			}

		case StateBrowser, StateCheatsheets, StateSync:
			// Delegate all messages to active model - they handle their own navigation
			if m.activeModel != nil {
				updatedModel, modelCmd := m.activeModel.Update(msg)
				m.activeModel = updatedModel.(MenuItemModel)
				if modelCmd != nil {
					cmds = append(cmds, modelCmd)
				}
			}
		}

	case list.FilterMatchesMsg:
		// update the menu with filter matches for menu state only
		switch m.state {
		case StateMenu:
			m.menu, cmd = m.menu.Update(msg)
			if cmd != nil {
				return m, nil
			}
		}

	case NavigateMsg:
		// Handle navigation between states
		m.logger.LogStateTransition("MainModel", fmt.Sprintf("%d", m.state), fmt.Sprintf("%d", msg.State))
		m.prevState = m.state
		m.state = msg.State
		m.err = nil
		m.layout = m.layout.ClearError()
		return m, nil

	case ErrorMsg:
		// Handle error display
		m.logger.Error("Application error occurred", "error", msg.Err)
		m.err = msg.Err
		m.prevState = m.state
		m.state = StateError
		m.layout = m.layout.SetError(msg.Err)
		return m, nil

	case helpers.NavigateToMainMenuMsg:
		// Handle navigation back to main menu from any submodel
		m.logger.LogStateTransition("MainModel", "FeatureState", "StateMenu")
		return m.returnToMenu(), nil

	case config.ReloadConfigMsg:
		// Handle config reload after the sync view rewrites the config file
		if msg.Error != nil {
			m.logger.Error("Failed to reload configuration", "error", msg.Error)
			return m, func() tea.Msg { return ErrorMsg{Err: msg.Error} }
		}
		if msg.Config != nil {
			m.logger.Info("Configuration reloaded successfully")
			m.config = msg.Config
		}
		return m, nil

	default:
		// Handle any unrecognized message types
		// Delegate to active model if present
		if m.activeModel != nil {
			updatedModel, modelCmd := m.activeModel.Update(msg)
			if menuModel, ok := updatedModel.(MenuItemModel); ok {
				m.activeModel = menuModel
				if modelCmd != nil {
					cmds = append(cmds, modelCmd)
				}
			} else {
				m.logger.Error("Active model returned invalid type, returning to menu")
				return m.returnToMenu(), nil
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// handleMenuSelection processes menu item selections using model-based approach
func (m *MainModel) handleMenuSelection(selectedItem item) (tea.Model, tea.Cmd) {
	// Get or initialize the model for this menu item
	model := m.getOrInitializeModel(selectedItem.state)

	if model == nil {
		// No valid dimensions yet; surface the problem instead of a dead key
		return m, func() tea.Msg {
			return ErrorMsg{Err: fmt.Errorf("terminal size unknown, try resizing the window")}
		}
	}

	// Set the active model and navigate to its state
	m.activeModel = model

	var cmds []tea.Cmd
	// Call the model's Init() method to start any commands
	modelInitCmd := model.Init()
	if modelInitCmd != nil {
		cmds = append(cmds, modelInitCmd)
	}

	// Send window size if layout has dimensions
	if m.layout.ContentWidth() > 0 && m.layout.ContentHeight() > 0 {
		windowMsg := tea.WindowSizeMsg{Width: m.layout.ContentWidth(), Height: m.layout.ContentHeight()}
		updatedModel, windowCmd := model.Update(windowMsg)
		m.activeModel = updatedModel.(MenuItemModel)
		if windowCmd != nil {
			cmds = append(cmds, windowCmd)
		}
	}

	cmds = append(cmds, NavigateTo(selectedItem.state))
	return m, tea.Batch(cmds...)
}

// GetUIContext creates a UI context with current dimensions and app state
func (m *MainModel) GetUIContext() helpers.UIContext {
	return helpers.NewUIContext(m.windowWidth, m.windowHeight, m.config, m.logger)
}

// getOrInitializeModel always creates a fresh model to ensure up-to-date settings
func (m *MainModel) getOrInitializeModel(state AppState) MenuItemModel {
	// Validate that we have valid dimensions before creating models
	if !m.hasValidDimensions() {
		m.logger.Warn("Cannot initialize model without valid window dimensions", "state", state)
		return nil
	}

	ctx := m.GetUIContext()

	switch state {
	case StateBrowser:
		m.logger.Debug("Creating fresh command browser model")
		return cmdbrowser.NewBrowserModel(ctx)

	case StateCheatsheets:
		m.logger.Debug("Creating fresh cheatsheets model")
		return cheatsheets.NewCheatsheetsModel(ctx)

	case StateSync:
		m.logger.Debug("Creating fresh sync model")
		return syncview.NewSyncModel(ctx)

	default:
		m.logger.Warn("Unknown state requested for model initialization", "state", state)
		return nil
	}
}

func (m *MainModel) View() string {
	if m.state == StateQuitting {
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title: "👋 Goodbye!",
		})
		return m.layout.Render("Thank you for using unixman!")
	}

	// Configure layout based on current state
	switch m.state {
	case StateMenu:
		return m.viewMenu()
	case StateError:
		return m.viewError()
	default:
		// Use active model's view if available
		if m.activeModel != nil {
			return m.activeModel.View()
		}
		return m.viewMenu()
	}
}

func (m *MainModel) viewMenu() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔧 unixman - Unix Command Documentation",
		Subtitle: "Explore installed commands, man pages and cheatsheets",
		HelpText: "↑/↓ to navigate • Enter to select • / to filter • q to quit • Ctrl+C to force quit",
	})

	// Get the menu content
	menuContent := m.menu.View()

	return m.layout.Render(menuContent)
}

// hasValidDimensions checks if window dimensions are valid for model creation
func (m *MainModel) hasValidDimensions() bool {
	return m.windowWidth > 0 && m.windowHeight > 0
}

// returnToMenu safely returns to the main menu and cleans up state
func (m *MainModel) returnToMenu() tea.Model {
	m.state = StateMenu
	m.activeModel = nil
	m.err = nil
	m.layout = m.layout.ClearError()
	return m
}

func (m *MainModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "❌ Error",
		Subtitle: "Something went wrong",
		HelpText: "Press Esc to return • Ctrl+C to quit",
	})

	errorContent := ""
	if m.err != nil {
		errorContent = m.err.Error()
	}

	return m.layout.Render(errorContent)
}

// NavigateTo creates a navigation command for the given state
func NavigateTo(state AppState) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{State: state}
	}
}
