// Package tui is the interactive terminal player.
package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/spindle/internal/core"
	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/session"
	"github.com/tessro/spindle/internal/tail"
	"github.com/tessro/spindle/internal/tui/components"
	"github.com/tessro/spindle/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelBrowser Panel = iota
	PanelPlaylist
	PanelNowPlaying
	PanelHistory
	panelCount
)

const (
	requestTimeout = 5 * time.Second
	seekStep       = 5 * time.Second
	volumeStep     = 5
	maxHistory     = 50
)

// Player is the session the UI drives.
type Player interface {
	Status(ctx context.Context) (*core.PlaybackState, error)
	Tracks(ctx context.Context) (session.PlaylistView, error)
	Listing(ctx context.Context) (session.Listing, error)

	Play(ctx context.Context) error
	TogglePause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	PlayAt(ctx context.Context, index int) (bool, error)
	Seek(ctx context.Context, position time.Duration) error
	SetVolume(ctx context.Context, percent int) (int, error)
	ToggleShuffle(ctx context.Context) (bool, error)
	CycleRepeat(ctx context.Context) (core.RepeatMode, error)

	Add(ctx context.Context, paths []string) (*spindleerrors.PartialResult[[]core.Track], error)
	AddDirectory(ctx context.Context, dir string, recursive bool) (*spindleerrors.PartialResult[[]core.Track], error)
	Remove(ctx context.Context, index int) (bool, error)
	Clear(ctx context.Context) error

	Navigate(ctx context.Context, path string) (session.Listing, error)
	Back(ctx context.Context) (session.Listing, error)
	Forward(ctx context.Context) (session.Listing, error)
	Up(ctx context.Context) (session.Listing, error)

	Subscribe() (<-chan session.Event, func())
}

// Options configures the UI.
type Options struct {
	RefreshRate time.Duration
	Theme       string
	// Footer is shown in the status bar, e.g. the remote control address.
	Footer string
}

// Model is the main TUI model
type Model struct {
	player       Player
	opts         Options
	keys         keyMap
	help         help.Model
	width        int
	height       int
	focusedPanel Panel

	// State
	state    *core.PlaybackState
	playlist session.PlaylistView
	listing  session.Listing
	history  []components.HistoryEntry

	// Components
	browser    *components.Browser
	nowPlaying *components.NowPlaying
	playlistV  *components.Playlist
	historyV   *components.History

	// Overlays
	showHelp  bool
	showGoto  bool
	gotoInput textinput.Model

	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(player Player, opts Options) Model {
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = time.Second
	}

	ti := textinput.New()
	ti.Placeholder = "/path/to/music"
	ti.CharLimit = 4096
	ti.Width = 50

	return Model{
		player:       player,
		opts:         opts,
		keys:         newKeyMap(),
		help:         help.New(),
		focusedPanel: PanelBrowser,
		playlist:     session.PlaylistView{Current: core.NoIndex},
		browser:      components.NewBrowser(),
		nowPlaying:   components.NewNowPlaying(),
		playlistV:    components.NewPlaylist(),
		historyV:     components.NewHistory(),
		gotoInput:    ti,
	}
}

// Messages
type tickMsg time.Time
type stateMsg *core.PlaybackState
type playlistMsg session.PlaylistView
type listingMsg session.Listing
type eventMsg session.Event
type errMsg struct{ err error }

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		state, err := m.player.Status(ctx)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg(state)
	}
}

func (m Model) fetchPlaylist() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		view, err := m.player.Tracks(ctx)
		if err != nil {
			return errMsg{err}
		}
		return playlistMsg(view)
	}
}

func (m Model) fetchListing() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		l, err := m.player.Listing(ctx)
		if err != nil {
			return errMsg{err}
		}
		return listingMsg(l)
	}
}

// do runs a player command. State changes come back as session events.
func (m Model) do(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// move runs a navigation command and shows the resulting directory.
func (m Model) move(fn func(ctx context.Context) (session.Listing, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		l, err := fn(ctx)
		if err != nil {
			return errMsg{err}
		}
		return listingMsg(l)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.fetchState(),
		m.fetchPlaylist(),
		m.fetchListing(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, tea.Batch(m.tick(), m.fetchState())

	case stateMsg:
		m.setState(msg)
		return m, nil

	case playlistMsg:
		m.playlist = session.PlaylistView(msg)
		m.playlistV.SetSize(len(m.playlist.Tracks))
		return m, nil

	case listingMsg:
		m.listing = session.Listing(msg)
		m.browser.SetListing(m.listing)
		return m, nil

	case eventMsg:
		return m.handleEvent(session.Event(msg))

	case errMsg:
		m.lastError = msg.err
		m.errorExpiry = time.Now().Add(5 * time.Second)
		return m, nil
	}

	if m.showGoto {
		var cmd tea.Cmd
		m.gotoInput, cmd = m.gotoInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleEvent(e session.Event) (tea.Model, tea.Cmd) {
	if e.State != nil {
		m.setState(e.State)
	}
	switch e.Type {
	case session.EventPlaylistChanged:
		return m, m.fetchPlaylist()
	case session.EventTrackChanged:
		if e.State != nil {
			m.playlist.Current = e.State.Index
		}
	case session.EventDirectoryChanged:
		return m, m.fetchListing()
	}
	return m, nil
}

// setState records the new state, adding finished or skipped tracks to the
// history panel.
func (m *Model) setState(st *core.PlaybackState) {
	for _, e := range tail.Diff(m.state, st) {
		if e.Type != tail.EventTrackComplete && e.Type != tail.EventTrackSkip {
			continue
		}
		if !e.Previous.HasTrack() {
			continue
		}
		entry := components.HistoryEntry{
			Track:    *e.Previous.Track,
			PlayedAt: e.Timestamp,
			Skipped:  e.Type == tail.EventTrackSkip,
		}
		m.history = append([]components.HistoryEntry{entry}, m.history...)
		if len(m.history) > maxHistory {
			m.history = m.history[:maxHistory]
		}
	}
	m.state = st
	m.playlist.Current = st.Index
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showGoto {
		return m.handleGotoKeyPress(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.gotoP):
		m.showGoto = true
		m.gotoInput.SetValue(m.listing.Path)
		m.gotoInput.CursorEnd()
		m.gotoInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.nextPanel):
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil
	case key.Matches(msg, m.keys.prevPanel):
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.fetchState(), m.fetchPlaylist(), m.fetchListing())
	}

	// Playback controls
	switch {
	case key.Matches(msg, m.keys.toggle):
		return m, m.togglePlayPause()
	case key.Matches(msg, m.keys.stop):
		return m, m.do(m.player.Stop)
	case key.Matches(msg, m.keys.next):
		return m, m.do(m.player.Next)
	case key.Matches(msg, m.keys.prev):
		return m, m.do(m.player.Previous)
	case key.Matches(msg, m.keys.shuffle):
		return m, m.do(func(ctx context.Context) error {
			_, err := m.player.ToggleShuffle(ctx)
			return err
		})
	case key.Matches(msg, m.keys.repeat):
		return m, m.do(func(ctx context.Context) error {
			_, err := m.player.CycleRepeat(ctx)
			return err
		})
	case key.Matches(msg, m.keys.volumeUp):
		return m, m.changeVolume(volumeStep)
	case key.Matches(msg, m.keys.volumeDown):
		return m, m.changeVolume(-volumeStep)
	case key.Matches(msg, m.keys.seekBack):
		return m, m.seekBy(-seekStep)
	case key.Matches(msg, m.keys.seekFwd):
		return m, m.seekBy(seekStep)
	}

	switch m.focusedPanel {
	case PanelBrowser:
		return m.handleBrowserKey(msg)
	case PanelPlaylist:
		return m.handlePlaylistKey(msg)
	}
	return m, nil
}

func (m Model) handleBrowserKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.down):
		m.browser.SelectNext()
	case key.Matches(msg, m.keys.up):
		m.browser.SelectPrev()
	case key.Matches(msg, m.keys.back):
		return m, m.move(m.player.Back)
	case key.Matches(msg, m.keys.fwd):
		return m, m.move(m.player.Forward)
	case key.Matches(msg, m.keys.parent):
		return m, m.move(m.player.Up)
	case key.Matches(msg, m.keys.enter):
		entry, ok := m.browser.Selected()
		if !ok {
			return m, nil
		}
		if entry.IsDir {
			return m, m.move(func(ctx context.Context) (session.Listing, error) {
				return m.player.Navigate(ctx, entry.Path)
			})
		}
		if entry.IsAudio {
			return m, m.addEntry(entry)
		}
	case key.Matches(msg, m.keys.add):
		if entry, ok := m.browser.Selected(); ok && (entry.IsDir || entry.IsAudio) {
			return m, m.addEntry(entry)
		}
	}
	return m, nil
}

func (m Model) handlePlaylistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.down):
		m.playlistV.SelectNext()
	case key.Matches(msg, m.keys.up):
		m.playlistV.SelectPrev()
	case key.Matches(msg, m.keys.enter):
		if i := m.playlistV.Selected(); i != core.NoIndex {
			return m, m.do(func(ctx context.Context) error {
				_, err := m.player.PlayAt(ctx, i)
				return err
			})
		}
	case key.Matches(msg, m.keys.remove):
		if i := m.playlistV.Selected(); i != core.NoIndex {
			return m, m.do(func(ctx context.Context) error {
				_, err := m.player.Remove(ctx, i)
				return err
			})
		}
	case key.Matches(msg, m.keys.clear):
		return m, m.do(m.player.Clear)
	}
	return m, nil
}

func (m Model) handleGotoKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showGoto = false
		m.gotoInput.Blur()
		return m, nil
	case "enter":
		m.showGoto = false
		m.gotoInput.Blur()
		path := expandHome(strings.TrimSpace(m.gotoInput.Value()))
		if path == "" {
			return m, nil
		}
		return m, m.move(func(ctx context.Context) (session.Listing, error) {
			return m.player.Navigate(ctx, path)
		})
	}

	var cmd tea.Cmd
	m.gotoInput, cmd = m.gotoInput.Update(msg)
	return m, cmd
}

// addEntry adds a file, or a whole folder recursively, to the playlist.
func (m Model) addEntry(entry core.Entry) tea.Cmd {
	return m.do(func(ctx context.Context) error {
		var (
			res *spindleerrors.PartialResult[[]core.Track]
			err error
		)
		if entry.IsDir {
			res, err = m.player.AddDirectory(ctx, entry.Path, true)
		} else {
			res, err = m.player.Add(ctx, []string{entry.Path})
		}
		if err != nil {
			return err
		}
		if res.HasErrors() && len(res.Data) == 0 {
			return res.Errors[0]
		}
		return nil
	})
}

func (m Model) togglePlayPause() tea.Cmd {
	if m.state.HasTrack() {
		return m.do(m.player.TogglePause)
	}
	return m.do(m.player.Play)
}

func (m Model) changeVolume(delta int) tea.Cmd {
	if m.state == nil {
		return nil
	}
	target := max(0, min(100, m.state.Volume+delta))
	return m.do(func(ctx context.Context) error {
		_, err := m.player.SetVolume(ctx, target)
		return err
	})
}

func (m Model) seekBy(delta time.Duration) tea.Cmd {
	if !m.state.HasTrack() {
		return nil
	}
	target := max(0, m.state.Progress+delta)
	return m.do(func(ctx context.Context) error {
		return m.player.Seek(ctx, target)
	})
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showGoto {
		return m.renderGoto()
	}

	// Left: Browser (full height)
	// Right: Now Playing (top), Playlist (middle), History (bottom)
	leftWidth := m.width * 40 / 100
	rightWidth := m.width - leftWidth - 2
	bodyHeight := m.height - 3
	topHeight := 12
	historyHeight := max(6, bodyHeight*25/100)
	playlistHeight := max(4, bodyHeight-topHeight-historyHeight-4)

	browser := m.browser.Render(m.listing, leftWidth-2, bodyHeight-2, m.focusedPanel == PanelBrowser)
	nowPlaying := m.nowPlaying.Render(m.state, rightWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	playlist := m.playlistV.Render(m.playlist, rightWidth-2, playlistHeight, m.focusedPanel == PanelPlaylist)
	history := m.historyV.Render(m.history, rightWidth-2, historyHeight-2, m.focusedPanel == PanelHistory)

	rightCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, playlist, history)
	main := lipgloss.JoinHorizontal(lipgloss.Top, browser, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.lastError != nil:
		status = styles.ErrorText.Render("Error: " + m.lastError.Error())
	case m.state != nil && m.state.Message != "":
		status = styles.Muted.Render(m.state.Message)
	}

	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.opts.Footer != "" {
		footer += styles.Dim.Render("  " + m.opts.Footer)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, status, footer))
}

func (m Model) renderHelp() string {
	title := styles.Highlight.Render("spindle - Keyboard Shortcuts")
	body := m.help.FullHelpView(m.keys.FullHelp())
	hint := styles.Dim.Render("Press ? or Esc to close")

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint)))
}

func (m Model) renderGoto() string {
	var b strings.Builder
	b.WriteString(styles.Highlight.Render("Go to folder"))
	b.WriteString("\n\n")
	b.WriteString(m.gotoInput.View())
	b.WriteString("\n\n")
	b.WriteString(styles.Dim.Render("Enter:open  Esc:cancel"))

	content := lipgloss.NewStyle().
		Width(60).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

// Run starts the UI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, player Player, opts Options) error {
	if opts.Theme != "" {
		styles.SetTheme(opts.Theme)
	}

	model := NewModel(player, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	events, cancel := player.Subscribe()
	defer cancel()
	go func() {
		for e := range events {
			p.Send(eventMsg(e))
		}
	}()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
