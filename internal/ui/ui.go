package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/combitify/internal/formatter"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
	"github.com/desertthunder/combitify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistView ViewState = iota
	RunView
	ResultView
)

// Options carries the TUI's dependencies beyond the engine.
type Options struct {
	Theme       models.Theme
	DisplayName string
	// SaveTheme persists the theme after it is toggled. Optional.
	SaveTheme func(models.Theme) error
	// OpenURL opens the combined playlist. Optional.
	OpenURL func(string) error
}

// Model represents the TUI application state.
//
// The catalog is only touched from Update, or from a load command while loading is set.
// View reads the cached loaded, hasMore and summary fields instead.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       *tasks.Engine
	catalog      *models.PlaylistCatalog
	list         list.Model
	delegate     *checkboxDelegate
	spinner      spinner.Model
	help         help.Model
	keys         keyMap
	theme        models.Theme
	palette      *Palette
	displayName  string
	saveTheme    func(models.Theme) error
	openURL      func(string) error
	width        int
	height       int
	loading      bool
	summary      string
	loaded       int
	hasMore      bool
	notice       string
	progressChan chan tasks.ProgressUpdate
	runDone      chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.RunResult
	err          error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.Engine, opts Options) *Model {
	ctx, cancel := context.WithCancel(ctx)
	palette := ThemePalette(opts.Theme)
	delegate := &checkboxDelegate{palette: palette}

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Your Playlists"
	l.Styles.Title = palette.title
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = palette.ok

	m := &Model{
		ctx:         ctx,
		cancel:      cancel,
		view:        PlaylistView,
		engine:      engine,
		catalog:     models.NewPlaylistCatalog(),
		list:        l,
		delegate:    delegate,
		spinner:     s,
		help:        help.New(),
		keys:        newKeyMap(),
		theme:       models.ParseTheme(string(opts.Theme)),
		palette:     palette,
		displayName: opts.DisplayName,
		saveTheme:   opts.SaveTheme,
		openURL:     opts.OpenURL,
	}
	m.summary = formatter.SelectionSummary(nil)
	return m
}

// Init initializes the TUI by loading the first page of playlists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadPlaylists())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-8, 4))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.cancel()
			return m, tea.Quit
		}

		switch m.view {
		case PlaylistView:
			return m.handlePlaylistKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsLoaded:
		data := msg.data.(playlistsLoaded)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		return m, m.refresh()

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgRunComplete:
		data := msg.data.(runComplete)
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.runDone = nil
		m.view = ResultView
		return m, nil

	case MsgThemeSaved:
		if err := msgError(msg.data); err != nil {
			m.notice = fmt.Sprintf("Failed to save theme: %v", err)
		}
		return m, nil

	case MsgBrowserOpened:
		if err := msgError(msg.data); err != nil {
			m.notice = fmt.Sprintf("Failed to open browser: %v (%s)", err, m.result.URL())
		}
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlaylistView:
		return m.renderPlaylists()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.toggle):
		switch item := m.list.SelectedItem().(type) {
		case playlistItem:
			selected, err := m.catalog.Toggle(item.playlist.ID)
			if err != nil {
				m.notice = err.Error()
				return m, nil
			}
			item.selected = selected
			cmd := m.list.SetItem(m.list.Index(), item)
			m.summary = formatter.SelectionSummary(m.catalog.Selected())
			return m, cmd
		case loadMoreItem:
			return m, m.loadPlaylists()
		}
		return m, nil

	case key.Matches(msg, m.keys.toggleAll):
		m.catalog.ToggleAll()
		return m, m.refresh()

	case key.Matches(msg, m.keys.more):
		if !m.catalog.HasMore() {
			return m, nil
		}
		return m, m.loadPlaylists()

	case key.Matches(msg, m.keys.create):
		if m.catalog.SelectedCount() == 0 {
			m.notice = "Select at least one playlist"
			return m, nil
		}
		return m, m.startRun()

	case key.Matches(msg, m.keys.theme):
		return m, m.toggleTheme()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.open):
		if url := m.result.URL(); url != "" && m.openURL != nil {
			return m, func() tea.Msg { return browserOpenedMsg(m.openURL(url)) }
		}
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistView
		m.result = nil
		m.err = nil
		m.notice = ""
		m.progress = tasks.ProgressUpdate{}
	case key.Matches(msg, m.keys.theme):
		return m, m.toggleTheme()
	}
	return m, nil
}

// refresh rebuilds the list items and the cached catalog state read by View.
func (m *Model) refresh() tea.Cmd {
	m.summary = formatter.SelectionSummary(m.catalog.Selected())
	m.loaded = m.catalog.Len()
	m.hasMore = m.catalog.HasMore()
	return m.list.SetItems(catalogItems(m.catalog))
}

func (m *Model) loadPlaylists() tea.Cmd {
	m.loading = true
	ctx, engine, catalog := m.ctx, m.engine, m.catalog

	return func() tea.Msg {
		page, err := engine.ListPlaylists(ctx, catalog)
		return playlistsLoadedMsg(page, err)
	}
}

func (m *Model) startRun() tea.Cmd {
	selected := m.catalog.Selected()
	m.view = RunView
	m.result = nil
	m.err = nil
	m.progress = tasks.ProgressUpdate{Message: "Starting..."}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.runDone = make(chan Msg, 1)

	ctx, engine, ch, done := m.ctx, m.engine, m.progressChan, m.runDone
	go func() {
		result, err := engine.Run(ctx, selected, tasks.ChannelProgress(ch))
		close(ch)
		done <- runCompleteMsg(result, err)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// waitForProgress relays the next progress update, then the run result once the channel closes.
func (m *Model) waitForProgress() tea.Cmd {
	ch, done := m.progressChan, m.runDone
	if ch == nil {
		return nil
	}

	return func() tea.Msg {
		if update, ok := <-ch; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	m.theme = m.theme.Toggle()
	m.palette = ThemePalette(m.theme)
	m.delegate.palette = m.palette
	m.list.Styles.Title = m.palette.title
	m.spinner.Style = m.palette.ok

	if m.saveTheme == nil {
		return nil
	}
	save, theme := m.saveTheme, m.theme
	return func() tea.Msg { return themeSavedMsg(save(theme)) }
}

func (m *Model) header() string {
	name := m.displayName
	if name == "" {
		name = "unknown user"
	}
	return m.palette.help.Render(fmt.Sprintf("Logged in as %s", name))
}

func (m *Model) renderPlaylists() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.renderError(m.err))
		b.WriteString("\n\n")
	}

	if m.loading && m.loaded == 0 {
		b.WriteString(fmt.Sprintf("%s Loading playlists...\n", m.spinner.View()))
	} else if m.loaded == 0 && m.err == nil {
		b.WriteString(m.palette.warn.Render("No playlists found"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteString("\n")
		if m.loading {
			b.WriteString(fmt.Sprintf("%s Loading more playlists...\n", m.spinner.View()))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.palette.ok.Render(m.summary))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(m.palette.warn.Render(m.notice))
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.toggleAll, m.keys.create, m.keys.theme, m.keys.quit}
	if m.hasMore {
		helpKeys = append([]key.Binding{m.keys.more}, helpKeys...)
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))

	return b.String()
}

func (m *Model) renderRun() string {
	title := m.palette.title.Render("Creating Combined Playlist")

	step := ""
	if m.progress.Total > 0 {
		step = fmt.Sprintf(" (%d/%d)", m.progress.Step, m.progress.Total)
	}

	phase := fmt.Sprintf("%s %s%s", m.spinner.View(), m.progress.Phase, step)
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, phase, m.progress.Message, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.theme, m.keys.quit}

	if m.err != nil {
		out := fmt.Sprintf("%s\n\n%s", m.palette.err.Render("✗ Combine failed"), m.renderError(m.err))
		if m.result != nil && m.result.Committed > 0 {
			out += fmt.Sprintf("\n%d of %d tracks were written to %s", m.result.Committed, m.result.Tracks, m.result.URL())
		}
		return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(helpKeys))
	}

	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", m.palette.err.Render("No result available"), m.help.ShortHelpView(helpKeys))
	}

	title := m.palette.ok.Render("✓ Combined playlist created!")
	info := fmt.Sprintf(
		"\nSources: %d %s\nTracks: %d\nPlaylist: %s",
		m.result.Sources, shared.Pluralize(m.result.Sources, "playlist", "playlists"),
		m.result.Committed,
		m.result.URL(),
	)

	notice := ""
	if m.notice != "" {
		notice = "\n\n" + m.palette.warn.Render(m.notice)
	}

	if m.result.URL() != "" && m.openURL != nil {
		helpKeys = append([]key.Binding{m.keys.open}, helpKeys...)
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, notice, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderError(err error) string {
	reason := tasks.Reason(err)
	if reason == tasks.ReasonUnauthenticated {
		return m.palette.err.Render("Not logged in or session expired. Run `combitify auth login` and try again.")
	}

	return m.palette.err.Render(fmt.Sprintf("Error (%s): %v", reason, err))
}

// Theme returns the active theme.
func (m *Model) Theme() models.Theme { return m.theme }

// Result returns the last run result, or nil.
func (m *Model) Result() *tasks.RunResult { return m.result }
