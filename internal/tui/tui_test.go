package tui

import (
	"errors"
	"strings"
	"testing"

	"unixman/internal/config"
	"unixman/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
)

func createTestConfigWithStorage(path string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Library.StorageDir = path
	return &cfg
}

func TestNewMainModel(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)

	if model.config != cfg {
		t.Error("Config not properly set")
	}

	if model.logger != logger {
		t.Error("Logger not properly set")
	}

	if model.state != StateMenu {
		t.Errorf("Expected initial state to be StateMenu, got %v", model.state)
	}

	if model.prevState != StateMenu {
		t.Errorf("Expected initial prevState to be StateMenu, got %v", model.prevState)
	}
}

func TestMainModelInit(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	cmd := model.Init()

	// Init should not return a command for the main model
	if cmd != nil {
		t.Error("Init should not return a command")
	}
}

func TestMenuItems(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)

	items := model.menu.Items()
	if len(items) != 3 {
		t.Fatalf("Expected 3 menu items, got %d", len(items))
	}

	wantStates := []AppState{StateBrowser, StateCheatsheets, StateSync}
	wantTitles := []string{"Browse commands", "Cheatsheets", "Sync repositories"}
	for i, listItem := range items {
		entry, ok := listItem.(item)
		if !ok {
			t.Fatalf("Menu item %d has unexpected type %T", i, listItem)
		}
		if entry.state != wantStates[i] {
			t.Errorf("Menu item %d: expected state %v, got %v", i, wantStates[i], entry.state)
		}
		if !strings.Contains(entry.title, wantTitles[i]) {
			t.Errorf("Menu item %d: expected title containing %q, got %q", i, wantTitles[i], entry.title)
		}
	}
}

func TestGetUIContext(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	model.windowWidth = 100
	model.windowHeight = 50

	ctx := model.GetUIContext()

	if ctx.Width != 100 {
		t.Errorf("Expected width 100, got %d", ctx.Width)
	}

	if ctx.Height != 50 {
		t.Errorf("Expected height 50, got %d", ctx.Height)
	}

	if ctx.Config != cfg {
		t.Error("Config not properly set in context")
	}

	if ctx.Logger != logger {
		t.Error("Logger not properly set in context")
	}
}

func TestHasValidDimensions(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)

	// Test invalid dimensions
	model.windowWidth = 0
	model.windowHeight = 0
	if model.hasValidDimensions() {
		t.Error("Should return false for zero dimensions")
	}

	model.windowWidth = -1
	model.windowHeight = 50
	if model.hasValidDimensions() {
		t.Error("Should return false for negative width")
	}

	model.windowWidth = 50
	model.windowHeight = -1
	if model.hasValidDimensions() {
		t.Error("Should return false for negative height")
	}

	// Test valid dimensions
	model.windowWidth = 80
	model.windowHeight = 24
	if !model.hasValidDimensions() {
		t.Error("Should return true for valid dimensions")
	}
}

func TestWindowSizeStoresDimensions(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	mainModel := updated.(*MainModel)

	if mainModel.windowWidth != 120 || mainModel.windowHeight != 40 {
		t.Errorf("Expected stored dimensions 120x40, got %dx%d",
			mainModel.windowWidth, mainModel.windowHeight)
	}
}

func TestGetOrInitializeModel(t *testing.T) {
	cfg := createTestConfigWithStorage(t.TempDir())
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	model.windowWidth = 80
	model.windowHeight = 24

	browser := model.getOrInitializeModel(StateBrowser)
	if browser == nil {
		t.Error("Browser model should be initialized")
	}

	// A second call must return a fresh instance (no caching)
	browser2 := model.getOrInitializeModel(StateBrowser)
	if browser == browser2 {
		t.Error("Should return fresh browser model instance, not cached")
	}

	sheets := model.getOrInitializeModel(StateCheatsheets)
	if sheets == nil {
		t.Error("Cheatsheets model should be initialized")
	}

	sync := model.getOrInitializeModel(StateSync)
	if sync == nil {
		t.Error("Sync model should be initialized")
	}
}

func TestGetOrInitializeModelWithoutDimensions(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)

	if got := model.getOrInitializeModel(StateBrowser); got != nil {
		t.Error("Expected nil model when window dimensions are unknown")
	}
}

func TestNavigateMsgSwitchesState(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	updated, _ := model.Update(NavigateMsg{State: StateBrowser})
	mainModel := updated.(*MainModel)

	if mainModel.state != StateBrowser {
		t.Errorf("Expected state StateBrowser, got %v", mainModel.state)
	}
	if mainModel.prevState != StateMenu {
		t.Errorf("Expected prevState StateMenu, got %v", mainModel.prevState)
	}
}

func TestErrorMsgEntersErrorState(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	boom := errors.New("boom")

	updated, _ := model.Update(ErrorMsg{Err: boom})
	mainModel := updated.(*MainModel)

	if mainModel.state != StateError {
		t.Errorf("Expected state StateError, got %v", mainModel.state)
	}
	if mainModel.err != boom {
		t.Error("Error not stored")
	}

	view := mainModel.View()
	if !strings.Contains(view, "boom") {
		t.Error("Expected error text in view")
	}

	// Esc returns to the previous state
	updated, _ = mainModel.Update(tea.KeyMsg{Type: tea.KeyEscape})
	mainModel = updated.(*MainModel)
	if mainModel.state != StateMenu {
		t.Errorf("Expected state StateMenu after esc, got %v", mainModel.state)
	}
	if mainModel.err != nil {
		t.Error("Error should be cleared after esc")
	}
}

func TestReturnToMenu(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)

	// Set up some state that should be cleared
	model.state = StateBrowser
	model.err = errors.New("test error")

	updatedModel := model.returnToMenu()
	mainModel := updatedModel.(*MainModel)

	if mainModel.state != StateMenu {
		t.Errorf("Expected state StateMenu, got %v", mainModel.state)
	}

	if mainModel.activeModel != nil {
		t.Error("Active model should be nil after returning to menu")
	}

	if mainModel.err != nil {
		t.Error("Error should be nil after returning to menu")
	}
}

func TestMenuViewRendersTitle(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := model.View()
	if !strings.Contains(view, "unixman") {
		t.Error("Expected application title in menu view")
	}
	if !strings.Contains(view, "q to quit") {
		t.Error("Expected help text in menu view")
	}
}

func TestQuitKey(t *testing.T) {
	cfg := createTestConfigWithStorage("/test/path")
	logger, _ := logging.NewTestLogger()

	model := NewMainModel(cfg, logger)
	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	mainModel := updated.(*MainModel)

	if mainModel.state != StateQuitting {
		t.Errorf("Expected state StateQuitting, got %v", mainModel.state)
	}
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected quit command to produce a QuitMsg")
	}
}
