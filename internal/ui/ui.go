package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spelltimer/internal/prefs"
	"github.com/five82/spelltimer/internal/state"
	"github.com/five82/spelltimer/internal/timers"
)

// Dismisser removes a timer on request.
type Dismisser interface {
	Dismiss(target timers.Target, name string) bool
}

// Options configures the console.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Dismisser Dismisser
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
}

// Fixed line budget around the timer viewport.
const (
	headerLines  = 2
	noticeLines  = 3
	footerLines  = 1
	defaultWidth = 80
)

// Model is the root console state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	dismisser Dismisser
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot state.Snapshot
	selected int

	timerViewport viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:       ctx,
		store:     opts.Store,
		dismisser: opts.Dismisser,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
		width:     defaultWidth,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.timerViewport = viewport.New(m.width, m.viewportHeight())
		} else {
			m.timerViewport.Width = m.width
			m.timerViewport.Height = m.viewportHeight()
		}
		m.ready = true
		m.updateTimerViewport()
		return m, nil

	case tickMsg:
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		var cmds []tea.Cmd
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.clampSelection()
		m.updateTimerViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.saveTheme()
		m.updateTimerViewport()

	case key.Matches(msg, m.keys.Dismiss):
		return m, m.dismissSelected()

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Top):
		m.moveSelection(-len(m.snapshot.Timers))
	case key.Matches(msg, m.keys.Bottom):
		m.moveSelection(len(m.snapshot.Timers))
	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.timerViewport.Height)
	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.timerViewport.Height)
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
	m.updateTimerViewport()
}

func (m *Model) clampSelection() {
	if n := len(m.snapshot.Timers); m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// selectedEntry returns the highlighted timer.
func (m Model) selectedEntry() (timers.Entry, bool) {
	if m.selected < 0 || m.selected >= len(m.snapshot.Timers) {
		return timers.Entry{}, false
	}
	return m.snapshot.Timers[m.selected], true
}

func (m Model) dismissSelected() tea.Cmd {
	entry, ok := m.selectedEntry()
	if !ok || m.dismisser == nil {
		return nil
	}
	m.dismisser.Dismiss(entry.Target, entry.Name)
	if m.store == nil {
		return nil
	}
	return fetchSnapshotCmd(m.store)
}

// saveTheme persists the theme without touching the rest of the prefs.
func (m Model) saveTheme() {
	if m.prefsPath == "" {
		return
	}
	p, _ := prefs.Load(m.prefsPath)
	p.Theme = m.theme.Name
	_ = prefs.Save(m.prefsPath, p)
}

func (m Model) viewportHeight() int {
	h := m.height - headerLines - noticeLines - footerLines
	if h < 1 {
		return 1
	}
	return h
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
