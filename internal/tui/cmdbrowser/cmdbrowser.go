// Package cmdbrowser implements the interactive command browser: a two-pane
// view with the installed commands on the left and live documentation for
// the selected command on the right. Previews are fetched through the
// documentation engine, debounced while scrolling, and cached with a
// byte-capped LRU so revisiting a command is instant.
package cmdbrowser

import (
	clist "container/list"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"unixman/internal/catalog"
	"unixman/internal/logging"
	"unixman/internal/manual"
	"unixman/internal/tui/components"
	"unixman/internal/tui/helpers"
	"unixman/internal/tui/styles"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type BrowserState int

const (
	StateLoading  BrowserState = iota // Scanning command directories
	StateBrowsing                     // Two-pane browsing with previews
	StateError                        // Scan failed
)

type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Read       key.Binding
	Filter     key.Binding
	ToggleMan  key.Binding
	FocusLeft  key.Binding
	FocusRight key.Binding
	Back       key.Binding
}

// focusedPane identifies which pane (list or preview) has keyboard focus
type focusedPane int

const (
	focusList focusedPane = iota
	focusPreview
)

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Read:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ToggleMan:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle man page")),
		FocusLeft:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "focus list")),
		FocusRight: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "focus preview")),
		Back:       key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "back to menu")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Read, k.Filter, k.ToggleMan, k.FocusRight, k.FocusLeft, k.Back}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Read, k.Filter, k.ToggleMan, k.FocusRight, k.FocusLeft, k.Back},
	}
}

// commandItem is a single installed command in the list. The description
// carries the categories the command belongs to, when any.
type commandItem struct {
	name       string
	categories string
}

func (c commandItem) Title() string       { return c.name }
func (c commandItem) Description() string { return c.categories }
func (c commandItem) FilterValue() string { return c.name }

type (
	// CommandsReadyMsg delivers the scanned command list.
	CommandsReadyMsg struct {
		Commands []commandItem
	}

	// ScanErrorMsg reports a failed directory scan.
	ScanErrorMsg struct {
		Err error
	}

	// internal: sent after a debounce period to trigger a preview
	debouncedPreviewMsg struct {
		command string
		seq     uint64
	}

	// DocRenderedMsg carries fetched documentation with its request ID.
	DocRenderedMsg struct {
		command  string
		content  string
		renderID uint64
		cacheKey string
	}

	// DocErrorMsg carries the message text for a failed documentation
	// lookup. Protocol outcomes (unknown command, no documentation) land
	// here too; they are displayed, not treated as failures.
	DocErrorMsg struct {
		command  string
		text     string
		renderID uint64
	}
)

// lruEntry represents a single cache item
type lruEntry struct {
	key     string
	content string
	size    int
}

// lruCache is a simple LRU cache with a byte capacity cap.
// It evicts least-recently-used entries until under capacity.
type lruCache struct {
	capacityBytes int
	currentBytes  int
	ll            *clist.List
	items         map[string]*clist.Element
}

func newLRU(capacity int) *lruCache {
	return &lruCache{
		capacityBytes: capacity,
		ll:            clist.New(),
		items:         make(map[string]*clist.Element),
	}
}

func (c *lruCache) Get(key string) (string, bool) {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*lruEntry).content, true
	}
	return "", false
}

func (c *lruCache) Add(key string, content string) {
	size := len(content)
	// Skip caching entries larger than total capacity
	if size > c.capacityBytes {
		return
	}
	// Update if exists
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*lruEntry)
		c.currentBytes += size - ent.size
		ent.content = content
		ent.size = size
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&lruEntry{key: key, content: content, size: size})
		c.items[key] = el
		c.currentBytes += size
	}
	// Evict until under capacity
	for c.currentBytes > c.capacityBytes && c.ll.Len() > 0 {
		tail := c.ll.Back()
		ent := tail.Value.(*lruEntry)
		delete(c.items, ent.key)
		c.ll.Remove(tail)
		c.currentBytes -= ent.size
	}
}

func (c *lruCache) Clear() {
	c.ll.Init()
	c.items = make(map[string]*clist.Element)
	c.currentBytes = 0
}

// DocEngine is the slice of the documentation engine the browser needs.
type DocEngine interface {
	Documentation(ctx context.Context, req manual.DocRequest) (*manual.DocResult, error)
}

type BrowserModel struct {
	logger *logging.AppLogger
	state  BrowserState

	engine DocEngine
	dirs   []string

	layout  components.LayoutModel
	spinner spinner.Model

	cmdList  list.Model
	keys     KeyMap
	viewport viewport.Model
	help     help.Model

	windowWidth  int
	windowHeight int

	// Loading state management
	isLoading       bool
	loadingCommand  string
	currentRenderID uint64  // Tracks the latest render request
	renderCounter   *uint64 // Atomic counter for render requests
	contentCache    *lruCache

	// Debounce controls
	debounceDuration  time.Duration
	pendingDebounceID *uint64

	// showMan selects the man page instead of --help style output
	showMan bool

	err error

	// focus management
	focusPane focusedPane
}

// NewBrowserModel builds a command browser over the configured command
// directories. The documentation engine is assembled from the context's
// config; a nil config falls back to built-in defaults.
func NewBrowserModel(ctx helpers.UIContext) *BrowserModel {
	var opts manual.Options
	var dirs []string
	if ctx.Config != nil {
		opts = manual.Options{
			Shell:          ctx.Config.Shell,
			HelpTimeout:    ctx.Config.HelpTimeout.Std(),
			ManTimeout:     ctx.Config.ManTimeout.Std(),
			ResolveTimeout: ctx.Config.ResolveTimeout.Std(),
		}
		dirs = ctx.Config.CommandDirs
	}

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

	cmdList := list.New([]list.Item{}, list.NewDefaultDelegate(), ctx.Width, ctx.Height)
	cmdList.Title = "Commands"
	cmdList.SetShowStatusBar(false)
	cmdList.SetFilteringEnabled(true)
	cmdList.SetShowHelp(false)

	vp := viewport.New(ctx.Width, ctx.Height)
	vp.MouseWheelEnabled = true

	renderCounter := uint64(0)
	debounceID := uint64(0)

	return &BrowserModel{
		logger:            ctx.Logger,
		state:             StateLoading,
		engine:            manual.NewEngine(opts, ctx.Logger),
		dirs:              dirs,
		layout:            layout,
		spinner:           s,
		cmdList:           cmdList,
		keys:              DefaultKeyMap(),
		viewport:          vp,
		help:              help.New(),
		windowWidth:       ctx.Width,
		windowHeight:      ctx.Height,
		renderCounter:     &renderCounter,
		contentCache:      newLRU(1 << 20), // 1 MiB cap
		debounceDuration:  200 * time.Millisecond,
		pendingDebounceID: &debounceID,
	}
}

// Init starts the directory scan.
func (m *BrowserModel) Init() tea.Cmd {
	return tea.Batch(m.scanCommandsCmd(), m.spinner.Tick)
}

func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case tea.MouseMsg:
		// Always let the viewport handle mouse events (for wheel scrolling)
		var vpcmd tea.Cmd
		m.viewport, vpcmd = m.viewport.Update(msg)
		if vpcmd != nil {
			cmds = append(cmds, vpcmd)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.state == StateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case CommandsReadyMsg:
		m.logger.Debug("Command scan completed", "count", len(msg.Commands))
		items := make([]list.Item, len(msg.Commands))
		for i, c := range msg.Commands {
			items[i] = c
		}
		m.cmdList.SetItems(items)
		m.cmdList.ResetSelected()
		m.viewport.GotoTop()
		m.contentCache.Clear()
		m.state = StateBrowsing

		if len(items) > 0 {
			first := items[0].(commandItem)
			cmds = append(cmds, m.scheduleDebouncedPreview(first.name))
		} else {
			m.viewport.SetContent("No commands found in the configured directories.")
		}
		return m, tea.Batch(cmds...)

	case ScanErrorMsg:
		m.logger.Error("Command scan failed", "error", msg.Err)
		m.err = msg.Err
		m.state = StateError
		return m, nil

	case list.FilterMatchesMsg:
		// Forward filter matches to the list; avoid changing preview here
		var cmd tea.Cmd
		m.cmdList, cmd = m.cmdList.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case DocRenderedMsg:
		// Always cache the content regardless of staleness
		m.contentCache.Add(msg.cacheKey, msg.content)

		// Only display if this render is for the current selection and not stale
		if msg.command == m.selectedCommand() && msg.renderID >= m.currentRenderID {
			m.currentRenderID = msg.renderID
			m.viewport.SetContent(msg.content)
			m.viewport.GotoTop()
			m.isLoading = false
			m.loadingCommand = ""
		} else {
			m.logger.Debug("Documentation cached but not displayed",
				"command", msg.command,
				"renderID", msg.renderID,
				"selected", m.selectedCommand())
		}
		return m, nil

	case DocErrorMsg:
		// Only display if this lookup is for the current selection and not stale
		if msg.command == m.selectedCommand() && msg.renderID >= m.currentRenderID {
			m.currentRenderID = msg.renderID
			m.viewport.SetContent(msg.text)
			m.viewport.GotoTop()
			m.isLoading = false
			m.loadingCommand = ""
		} else {
			m.logger.Debug("Ignoring stale documentation error", "command", msg.command)
		}
		return m, nil

	case debouncedPreviewMsg:
		// Only render if this is the latest scheduled preview and selection still matches
		if msg.seq != atomic.LoadUint64(m.pendingDebounceID) {
			m.logger.Debug("Ignoring stale debounced preview", "command", msg.command)
			return m, nil
		}
		if m.selectedCommand() != msg.command {
			m.logger.Debug("Debounced command no longer selected; skipping", "command", msg.command)
			return m, nil
		}

		// Use cache first for immediate responsiveness
		if cached, ok := m.contentCache.Get(m.cacheKey(msg.command, m.showMan)); ok {
			m.viewport.SetContent(cached)
			m.viewport.GotoTop()
			m.isLoading = false
			m.loadingCommand = ""
			return m, nil
		}
		return m, m.renderDocCmd(msg.command, m.showMan)

	case tea.KeyMsg:
		if m.state == StateError {
			switch msg.String() {
			case "r":
				m.state = StateLoading
				m.err = nil
				return m, tea.Batch(m.scanCommandsCmd(), m.spinner.Tick)
			case "esc", "q":
				return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
			}
			return m, nil
		}
		if m.state != StateBrowsing {
			return m, nil
		}
		return m.handleBrowsingKey(msg)
	}

	return m, tea.Batch(cmds...)
}

// handleBrowsingKey routes keys in the browsing state.
func (m *BrowserModel) handleBrowsingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// While a filter is being typed the list owns every keystroke; only an
	// ended filter gets a fresh preview
	if m.cmdList.FilterState() == list.Filtering {
		return m, m.forwardToList(msg)
	}

	// Focus switching
	if key.Matches(msg, m.keys.FocusRight) {
		m.focusPane = focusPreview
		return m, nil
	}
	if key.Matches(msg, m.keys.FocusLeft) {
		m.focusPane = focusList
		return m, nil
	}

	// When preview has focus, route scroll keys to viewport
	if m.focusPane == focusPreview {
		switch msg.String() {
		case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end", "k", "j":
			var vcmd tea.Cmd
			m.viewport, vcmd = m.viewport.Update(msg)
			if vcmd != nil {
				cmds = append(cmds, vcmd)
			}
			return m, tea.Batch(cmds...)
		}
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }

	case key.Matches(msg, m.keys.Read):
		// Hand focus to the preview so the documentation can be scrolled
		m.focusPane = focusPreview
		return m, nil

	case key.Matches(msg, m.keys.ToggleMan):
		m.showMan = !m.showMan
		name := m.selectedCommand()
		if name == "" {
			return m, nil
		}
		m.logger.Debug("Toggled documentation source", "man", m.showMan, "command", name)

		// Try cache first, for the sake of responsiveness
		if cached, ok := m.contentCache.Get(m.cacheKey(name, m.showMan)); ok {
			m.viewport.SetContent(cached)
			m.viewport.GotoTop()
			m.isLoading = false
			m.loadingCommand = ""
			return m, nil
		}
		m.setLoadingPreview(name)
		return m, m.renderDocCmd(name, m.showMan)

	default:
		return m, m.forwardToList(msg)
	}
}

// forwardToList sends a key to the list and schedules a preview when the
// selection changed or a filter just ended.
func (m *BrowserModel) forwardToList(msg tea.KeyMsg) tea.Cmd {
	var cmds []tea.Cmd

	oldSelected := m.selectedCommand()
	prevFilter := m.cmdList.FilterState()

	var cmd tea.Cmd
	m.cmdList, cmd = m.cmdList.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	// If filtering just ended, schedule preview for the selected item
	if prevFilter == list.Filtering && m.cmdList.FilterState() != list.Filtering {
		if name := m.selectedCommand(); name != "" {
			m.logger.Debug("Filtering ended; scheduling preview", "command", name)
			cmds = append(cmds, m.scheduleDebouncedPreview(name))
		}
		return tea.Batch(cmds...)
	}

	newSelected := m.selectedCommand()
	if newSelected != "" && newSelected != oldSelected && m.cmdList.FilterState() != list.Filtering {
		// If cached content exists, apply immediately
		if cached, ok := m.contentCache.Get(m.cacheKey(newSelected, m.showMan)); ok {
			m.viewport.SetContent(cached)
			m.viewport.GotoTop()
			m.isLoading = false
			m.loadingCommand = ""
		} else {
			// Debounce new preview to avoid spawning probes while scrolling
			cmds = append(cmds, m.scheduleDebouncedPreview(newSelected))
		}
	}

	return tea.Batch(cmds...)
}

func (m *BrowserModel) resize(msg tea.WindowSizeMsg) {
	m.windowWidth = msg.Width
	m.windowHeight = msg.Height
	m.help.Width = msg.Width

	// Compute frame sizes from the final pane style to avoid clipping.
	frameW, frameH := styles.PaneStyle.GetFrameSize()
	totalExtras := frameW * 2

	const mainLeftMargin = 1
	avail := max(msg.Width-totalExtras-mainLeftMargin, 0)

	listWidth := avail / 3
	vpWidth := avail - listWidth
	if listWidth < 20 {
		listWidth = 20
	}
	if vpWidth < 30 {
		vpWidth = 30
	}

	// Measure header and help with the same styles View uses so measured
	// height matches rendered height.
	headerH := lipgloss.Height(m.headerView())
	helpH := lipgloss.Height(m.helpView())

	contentHeight := max(msg.Height-headerH-helpH-frameH, 5)

	m.cmdList.SetSize(listWidth, contentHeight)
	m.viewport.Width = vpWidth
	m.viewport.Height = contentHeight

	m.logger.Debug("Browser resized", "width", msg.Width, "height", msg.Height,
		"list_width", listWidth, "viewport_width", vpWidth, "content_height", contentHeight)
}

func (m *BrowserModel) View() string {
	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateError:
		return m.viewScanError()
	}

	header := m.headerView()

	// Focus-aware pane styles using centralized styles
	listStyle := styles.PaneStyle
	vpStyle := styles.PaneStyle
	switch m.focusPane {
	case focusList:
		listStyle = styles.PaneFocusedStyle
	case focusPreview:
		vpStyle = styles.PaneFocusedStyle
	}

	listStyle = listStyle.Width(m.cmdList.Width()).Height(m.cmdList.Height())
	vpStyle = vpStyle.Width(m.viewport.Width).Height(m.viewport.Height)

	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listStyle.Render(m.cmdList.View()),
		vpStyle.Render(m.viewport.View()),
	)
	panes = styles.MainContainerStyle.Render(panes)

	return lipgloss.JoinVertical(lipgloss.Left, header, panes, m.helpView())
}

func (m *BrowserModel) viewLoading() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📖 Browse Commands",
		Subtitle: "Scanning command directories...",
		HelpText: "Please wait while installed commands are collected",
	})
	content := fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), styles.SpinnerStyle.Render("Scanning..."))
	return m.layout.Render(content)
}

func (m *BrowserModel) viewScanError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📖 Browse Commands - Error",
		Subtitle: "Could not scan command directories",
		HelpText: "r to retry • Esc to return to main menu",
	})
	errorText := "An error occurred"
	if m.err != nil {
		errorText = m.err.Error()
	}
	return m.layout.Render(errorText)
}

func (m *BrowserModel) headerView() string {
	title := styles.TitleStyle.Render("📖 Browse Commands")
	source := "help output"
	if m.showMan {
		source = "man pages"
	}
	sub := styles.SubtitleStyle.Render(fmt.Sprintf("Previewing %s • %d commands", source, len(m.cmdList.Items())))
	header := lipgloss.JoinVertical(lipgloss.Left, title, sub)
	return styles.HeaderContainerStyle.Render(header)
}

func (m *BrowserModel) helpView() string {
	return styles.HelpContainerStyle.Render(styles.HelpStyle.Render(m.help.View(m.keys)))
}

//  HELPERS / COMMANDS

func (m *BrowserModel) selectedCommand() string {
	if it := m.cmdList.SelectedItem(); it != nil {
		return it.(commandItem).name
	}
	return ""
}

// cacheKey composes a cache key from the command and documentation source
func (m *BrowserModel) cacheKey(name string, man bool) string {
	if man {
		return name + "|man"
	}
	return name + "|help"
}

func (m *BrowserModel) setLoadingPreview(name string) {
	m.isLoading = true
	m.loadingCommand = name
	if m.showMan {
		m.viewport.SetContent("📄 Loading man page for " + name + "...")
	} else {
		m.viewport.SetContent("📄 Loading help for " + name + "...")
	}
}

func (m *BrowserModel) scheduleDebouncedPreview(name string) tea.Cmd {
	m.setLoadingPreview(name)
	seq := atomic.AddUint64(m.pendingDebounceID, 1)
	return tea.Tick(m.debounceDuration, func(time.Time) tea.Msg {
		return debouncedPreviewMsg{command: name, seq: seq}
	})
}

// scanCommandsCmd collects the installed commands and tags each with the
// categories it belongs to.
func (m *BrowserModel) scanCommandsCmd() tea.Cmd {
	dirs := m.dirs
	logger := m.logger
	return func() tea.Msg {
		lister := catalog.NewLister(dirs, logger)
		installed := lister.Installed()

		membership := make(map[string][]string)
		for _, cat := range catalog.Categories() {
			for _, name := range cat.Commands {
				membership[name] = append(membership[name], cat.Name)
			}
		}

		commands := make([]commandItem, len(installed))
		for i, name := range installed {
			commands[i] = commandItem{
				name:       name,
				categories: strings.Join(membership[name], ", "),
			}
		}
		return CommandsReadyMsg{Commands: commands}
	}
}

// renderDocCmd fetches documentation for one command asynchronously. The
// engine applies its own subprocess timeouts, so the background context
// never blocks indefinitely.
func (m *BrowserModel) renderDocCmd(name string, man bool) tea.Cmd {
	renderID := atomic.AddUint64(m.renderCounter, 1)
	engine := m.engine
	cacheKey := m.cacheKey(name, man)

	return func() tea.Msg {
		result, err := engine.Documentation(context.Background(), manual.DocRequest{
			Command:        name,
			PreferEconomic: !man,
		})
		if err != nil {
			return DocErrorMsg{command: name, text: manual.ErrorMessage(err), renderID: renderID}
		}
		return DocRenderedMsg{
			command:  name,
			content:  result.Message(),
			renderID: renderID,
			cacheKey: cacheKey,
		}
	}
}
