// Package cheatsheets implements the cheatsheet library browser: a two-pane
// view listing the sheets in the storage directory with a markdown preview
// rendered through glamour. Sheet bodies are already in memory after the
// initial scan, so only the markdown rendering itself runs asynchronously.
package cheatsheets

import (
	clist "container/list"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"unixman/internal/library"
	"unixman/internal/logging"
	"unixman/internal/tui/components"
	"unixman/internal/tui/helpers"
	"unixman/internal/tui/styles"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type SheetsState int

const (
	StateLoading  SheetsState = iota // Scanning the storage directory
	StateBrowsing                    // Two-pane browsing with previews
	StateEmpty                       // No cheatsheets in the library yet
	StateError                       // Scan failed
)

type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Read         key.Binding
	Filter       key.Binding
	ToggleFormat key.Binding
	FocusLeft    key.Binding
	FocusRight   key.Binding
	Back         key.Binding
}

// focusedPane identifies which pane (list or preview) has keyboard focus
type focusedPane int

const (
	focusList focusedPane = iota
	focusPreview
)

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Read:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ToggleFormat: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle format")),
		FocusLeft:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "focus list")),
		FocusRight:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "focus preview")),
		Back:         key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "back to menu")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Read, k.Filter, k.ToggleFormat, k.FocusRight, k.FocusLeft, k.Back}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Read, k.Filter, k.ToggleFormat, k.FocusRight, k.FocusLeft, k.Back},
	}
}

// sheetItem is a single cheatsheet in the list. Tags take part in
// filtering so "/" can narrow by topic as well as by command.
type sheetItem struct {
	sheet library.Sheet
}

func (s sheetItem) Title() string       { return s.sheet.Command }
func (s sheetItem) Description() string { return s.sheet.Description }
func (s sheetItem) FilterValue() string {
	return s.sheet.Command + " " + strings.Join(s.sheet.Tags, " ")
}

type (
	// SheetsLoadedMsg delivers the scanned cheatsheet list.
	SheetsLoadedMsg struct {
		Sheets []library.Sheet
	}

	// SheetsErrorMsg reports a failed library scan.
	SheetsErrorMsg struct {
		Err error
	}

	// SheetRenderedMsg carries a rendered markdown preview.
	SheetRenderedMsg struct {
		fileName string
		content  string
		renderID uint64
		cacheKey string
	}

	// SheetRenderErrorMsg reports a markdown rendering failure.
	SheetRenderErrorMsg struct {
		fileName string
		err      error
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
	if size > c.capacityBytes {
		return
	}
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

// detectGlamourStyle attempts to detect terminal background using termenv,
// but will respect GLAMOUR_STYLE if set to a concrete value (not "auto").
// A timeout ensures we never hang on terminals that don't respond.
func detectGlamourStyle(timeout time.Duration) string {
	// Default fallback if detection doesn't finish in time
	defaultStyle := "dark"

	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	type result struct{ style string }
	ch := make(chan result, 1)

	go func() {
		out := termenv.NewOutput(os.Stdout)
		if out.HasDarkBackground() {
			ch <- result{style: "dark"}
			return
		}
		ch <- result{style: "light"}
	}()

	select {
	case r := <-ch:
		return r.style
	case <-time.After(timeout):
		return defaultStyle
	}
}

type CheatsheetsModel struct {
	logger *logging.AppLogger
	state  SheetsState

	manager *library.Manager

	layout  components.LayoutModel
	spinner spinner.Model

	sheets    []library.Sheet
	sheetList list.Model
	keys      KeyMap
	viewport  viewport.Model
	help      help.Model

	windowWidth  int
	windowHeight int

	currentRenderID uint64
	renderCounter   *uint64
	contentCache    *lruCache

	useGlamour   bool
	glamourStyle string

	err error

	focusPane focusedPane
}

// NewCheatsheetsModel builds a cheatsheet browser over the configured
// storage directory. A nil config means an empty library.
func NewCheatsheetsModel(ctx helpers.UIContext) *CheatsheetsModel {
	var storageDir string
	if ctx.Config != nil {
		storageDir = ctx.Config.Library.StorageDir
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

	sheetList := list.New([]list.Item{}, list.NewDefaultDelegate(), ctx.Width, ctx.Height)
	sheetList.Title = "Cheatsheets"
	sheetList.SetShowStatusBar(false)
	sheetList.SetFilteringEnabled(true)
	sheetList.SetShowHelp(false)

	vp := viewport.New(ctx.Width, ctx.Height)
	vp.MouseWheelEnabled = true

	renderCounter := uint64(0)

	return &CheatsheetsModel{
		logger:        ctx.Logger,
		state:         StateLoading,
		manager:       library.NewManager(storageDir, ctx.Logger),
		layout:        layout,
		spinner:       s,
		sheetList:     sheetList,
		keys:          DefaultKeyMap(),
		viewport:      vp,
		help:          help.New(),
		windowWidth:   ctx.Width,
		windowHeight:  ctx.Height,
		renderCounter: &renderCounter,
		contentCache:  newLRU(1 << 20), // 1 MiB cap
		useGlamour:    true,
	}
}

// Init detects the glamour style once and starts the library scan.
func (m *CheatsheetsModel) Init() tea.Cmd {
	if m.glamourStyle == "" {
		m.glamourStyle = detectGlamourStyle(50 * time.Millisecond)
		m.logger.Debug("Glamour style selected", "style", m.glamourStyle)
	}
	return tea.Batch(m.loadSheetsCmd(), m.spinner.Tick)
}

func (m *CheatsheetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		// Rendered output is wrapped to the old viewport width; next
		// preview must re-render
		m.contentCache.Clear()
		if m.state == StateBrowsing {
			if name := m.selectedFileName(); name != "" {
				cmds = append(cmds, m.renderSheetCmd(name))
			}
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
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

	case SheetsLoadedMsg:
		m.logger.Debug("Cheatsheet scan completed", "count", len(msg.Sheets))
		m.sheets = msg.Sheets
		if len(msg.Sheets) == 0 {
			m.state = StateEmpty
			return m, nil
		}

		items := make([]list.Item, len(msg.Sheets))
		for i, sheet := range msg.Sheets {
			items[i] = sheetItem{sheet: sheet}
		}
		m.sheetList.SetItems(items)
		m.sheetList.ResetSelected()
		m.viewport.GotoTop()
		m.contentCache.Clear()
		m.state = StateBrowsing

		cmds = append(cmds, m.renderSheetCmd(msg.Sheets[0].FileName))
		return m, tea.Batch(cmds...)

	case SheetsErrorMsg:
		m.logger.Error("Cheatsheet scan failed", "error", msg.Err)
		m.err = msg.Err
		m.state = StateError
		return m, nil

	case list.FilterMatchesMsg:
		var cmd tea.Cmd
		m.sheetList, cmd = m.sheetList.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case SheetRenderedMsg:
		// Always cache the content regardless of staleness
		m.contentCache.Add(msg.cacheKey, msg.content)

		if msg.fileName == m.selectedFileName() && msg.renderID >= m.currentRenderID {
			m.currentRenderID = msg.renderID
			m.viewport.SetContent(msg.content)
			m.viewport.GotoTop()
		} else {
			m.logger.Debug("Preview cached but not displayed", "file", msg.fileName)
		}
		return m, nil

	case SheetRenderErrorMsg:
		if msg.fileName == m.selectedFileName() && msg.renderID >= m.currentRenderID {
			m.currentRenderID = msg.renderID
			m.logger.Error("Markdown rendering failed", "file", msg.fileName, "error", msg.err)
			m.viewport.SetContent(fmt.Sprintf("Error rendering %s: %v", msg.fileName, msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateEmpty:
			switch msg.String() {
			case "esc", "q":
				return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
			}
			return m, nil

		case StateError:
			switch msg.String() {
			case "r":
				m.state = StateLoading
				m.err = nil
				return m, tea.Batch(m.loadSheetsCmd(), m.spinner.Tick)
			case "esc", "q":
				return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
			}
			return m, nil

		case StateBrowsing:
			return m.handleBrowsingKey(msg)
		}
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m *CheatsheetsModel) handleBrowsingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// While a filter is being typed the list owns every keystroke
	if m.sheetList.FilterState() == list.Filtering {
		return m, m.forwardToList(msg)
	}

	if key.Matches(msg, m.keys.FocusRight) {
		m.focusPane = focusPreview
		return m, nil
	}
	if key.Matches(msg, m.keys.FocusLeft) {
		m.focusPane = focusList
		return m, nil
	}

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
		m.focusPane = focusPreview
		return m, nil

	case key.Matches(msg, m.keys.ToggleFormat):
		m.useGlamour = !m.useGlamour
		name := m.selectedFileName()
		if name == "" {
			return m, nil
		}
		m.logger.Debug("Toggled formatting", "useGlamour", m.useGlamour, "file", name)
		if cached, ok := m.contentCache.Get(m.cacheKey(name, m.useGlamour)); ok {
			m.viewport.SetContent(cached)
			m.viewport.GotoTop()
			return m, nil
		}
		return m, m.renderSheetCmd(name)

	default:
		return m, m.forwardToList(msg)
	}
}

// forwardToList sends a key to the list and refreshes the preview when the
// selection changed or a filter just ended.
func (m *CheatsheetsModel) forwardToList(msg tea.KeyMsg) tea.Cmd {
	var cmds []tea.Cmd

	oldSelected := m.selectedFileName()
	prevFilter := m.sheetList.FilterState()

	var cmd tea.Cmd
	m.sheetList, cmd = m.sheetList.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if prevFilter == list.Filtering && m.sheetList.FilterState() != list.Filtering {
		if name := m.selectedFileName(); name != "" {
			cmds = append(cmds, m.previewCmd(name))
		}
		return tea.Batch(cmds...)
	}

	newSelected := m.selectedFileName()
	if newSelected != "" && newSelected != oldSelected && m.sheetList.FilterState() != list.Filtering {
		cmds = append(cmds, m.previewCmd(newSelected))
	}

	return tea.Batch(cmds...)
}

// previewCmd applies a cached preview immediately or kicks off a render.
func (m *CheatsheetsModel) previewCmd(fileName string) tea.Cmd {
	if cached, ok := m.contentCache.Get(m.cacheKey(fileName, m.useGlamour)); ok {
		m.viewport.SetContent(cached)
		m.viewport.GotoTop()
		return nil
	}
	return m.renderSheetCmd(fileName)
}

func (m *CheatsheetsModel) resize(msg tea.WindowSizeMsg) {
	m.windowWidth = msg.Width
	m.windowHeight = msg.Height
	m.help.Width = msg.Width

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

	headerH := lipgloss.Height(m.headerView())
	helpH := lipgloss.Height(m.helpView())

	contentHeight := max(msg.Height-headerH-helpH-frameH, 5)

	m.sheetList.SetSize(listWidth, contentHeight)
	m.viewport.Width = vpWidth
	m.viewport.Height = contentHeight
}

func (m *CheatsheetsModel) View() string {
	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateEmpty:
		return m.viewEmpty()
	case StateError:
		return m.viewScanError()
	}

	header := m.headerView()

	listStyle := styles.PaneStyle
	vpStyle := styles.PaneStyle
	switch m.focusPane {
	case focusList:
		listStyle = styles.PaneFocusedStyle
	case focusPreview:
		vpStyle = styles.PaneFocusedStyle
	}

	listStyle = listStyle.Width(m.sheetList.Width()).Height(m.sheetList.Height())
	vpStyle = vpStyle.Width(m.viewport.Width).Height(m.viewport.Height)

	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listStyle.Render(m.sheetList.View()),
		vpStyle.Render(m.viewport.View()),
	)
	panes = styles.MainContainerStyle.Render(panes)

	return lipgloss.JoinVertical(lipgloss.Left, header, panes, m.helpView())
}

func (m *CheatsheetsModel) viewLoading() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📑 Cheatsheets",
		Subtitle: "Scanning your cheatsheet library...",
		HelpText: "Please wait while the library is scanned",
	})
	content := fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), styles.SpinnerStyle.Render("Scanning..."))
	return m.layout.Render(content)
}

func (m *CheatsheetsModel) viewEmpty() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📑 Cheatsheets",
		Subtitle: "Your library is empty",
		HelpText: "Esc to return to main menu",
	})
	content := "No cheatsheets found in " + m.manager.StorageDir() + ".\n\n"
	content += "Import one with 'unixman library import <file.md>' or sync a repository."
	return m.layout.Render(content)
}

func (m *CheatsheetsModel) viewScanError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📑 Cheatsheets - Error",
		Subtitle: "Could not scan the cheatsheet library",
		HelpText: "r to retry • Esc to return to main menu",
	})
	errorText := "An error occurred"
	if m.err != nil {
		errorText = m.err.Error()
	}
	return m.layout.Render(errorText)
}

func (m *CheatsheetsModel) headerView() string {
	title := styles.TitleStyle.Render("📑 Cheatsheets")
	sub := styles.SubtitleStyle.Render(fmt.Sprintf("%d sheets in %s", len(m.sheets), m.manager.StorageDir()))
	header := lipgloss.JoinVertical(lipgloss.Left, title, sub)
	return styles.HeaderContainerStyle.Render(header)
}

func (m *CheatsheetsModel) helpView() string {
	return styles.HelpContainerStyle.Render(styles.HelpStyle.Render(m.help.View(m.keys)))
}

//  HELPERS / COMMANDS

func (m *CheatsheetsModel) selectedFileName() string {
	if it := m.sheetList.SelectedItem(); it != nil {
		return it.(sheetItem).sheet.FileName
	}
	return ""
}

func (m *CheatsheetsModel) sheetByFileName(fileName string) (library.Sheet, bool) {
	for _, sheet := range m.sheets {
		if sheet.FileName == fileName {
			return sheet, true
		}
	}
	return library.Sheet{}, false
}

// cacheKey composes a cache key from the file name and formatting mode
func (m *CheatsheetsModel) cacheKey(fileName string, glamourOn bool) string {
	if glamourOn {
		return fileName + "|glamour"
	}
	return fileName + "|plain"
}

// loadSheetsCmd scans the storage directory asynchronously.
func (m *CheatsheetsModel) loadSheetsCmd() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		sheets, err := manager.List()
		if err != nil {
			return SheetsErrorMsg{Err: err}
		}
		return SheetsLoadedMsg{Sheets: sheets}
	}
}

// renderSheetCmd renders one sheet's markdown body asynchronously. The body
// is already in memory; only the glamour pass costs anything.
func (m *CheatsheetsModel) renderSheetCmd(fileName string) tea.Cmd {
	renderID := atomic.AddUint64(m.renderCounter, 1)

	sheet, ok := m.sheetByFileName(fileName)
	if !ok {
		return nil
	}

	useGlamour := m.useGlamour
	glamourStyle := m.glamourStyle
	cacheKey := m.cacheKey(fileName, useGlamour)

	vpWidth := m.viewport.Width - 2
	if vpWidth <= 0 {
		vpWidth = 80
	}

	return func() tea.Msg {
		body := strings.TrimSpace(sheet.Content)

		if !useGlamour {
			return SheetRenderedMsg{
				fileName: fileName,
				content:  body,
				renderID: renderID,
				cacheKey: cacheKey,
			}
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(glamourStyle),
			glamour.WithWordWrap(vpWidth),
		)
		if err != nil {
			return SheetRenderErrorMsg{fileName: fileName, err: err, renderID: renderID}
		}

		rendered, err := renderer.Render(body)
		if err != nil {
			return SheetRenderErrorMsg{fileName: fileName, err: err, renderID: renderID}
		}

		return SheetRenderedMsg{
			fileName: fileName,
			content:  rendered,
			renderID: renderID,
			cacheKey: cacheKey,
		}
	}
}
