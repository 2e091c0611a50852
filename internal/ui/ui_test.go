package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spelltimer/internal/prefs"
	"github.com/five82/spelltimer/internal/state"
	"github.com/five82/spelltimer/internal/timers"
)

type dismissCall struct {
	target timers.Target
	name   string
}

type fakeDismisser struct {
	calls []dismissCall
}

func (f *fakeDismisser) Dismiss(target timers.Target, name string) bool {
	f.calls = append(f.calls, dismissCall{target: target, name: name})
	return true
}

var testNow = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

func testEntries() []timers.Entry {
	return []timers.Entry{
		{Target: timers.Self(), Name: "Spirit of Wolf", EndTime: testNow.Add(20 * time.Minute), Beneficial: true},
		{Target: timers.Self(), Name: "Shield of Words", EndTime: testNow.Add(25 * time.Second), Beneficial: true, Warning: true},
		{Target: timers.Named("Soandso"), Name: "Root", EndTime: testNow.Add(48 * time.Second)},
	}
}

func newTestModel(t *testing.T, d Dismisser) Model {
	t.Helper()
	m := New(Options{
		Dismisser: d,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return update(t, m, snapshotMsg(state.Snapshot{
		Timers:        testEntries(),
		Targets:       []timers.Target{timers.Self(), timers.Named("Soandso")},
		Now:           testNow,
		LogPath:       "/logs/eqlog_Tester_test.txt",
		CatalogSpells: 1200,
	}))
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewBeforeResizeShowsLoading(t *testing.T) {
	m := New(Options{})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View = %q, want Loading...", got)
	}
}

func TestViewRendersGroupsAndRemaining(t *testing.T) {
	m := newTestModel(t, nil)
	view := m.View()

	for _, want := range []string{
		"eqlog_Tester_test.txt",
		"1200 spells",
		"3 timers on 2 targets",
		"You",
		"Soandso",
		"Spirit of Wolf",
		"20:00",
		"0:25",
		"0:48",
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "You") > strings.Index(view, "Soandso") {
		t.Fatalf("self group should render before named targets:\n%s", view)
	}
}

func TestViewShowsCatalogErrorAndCasting(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m, snapshotMsg(state.Snapshot{
		Now:          testNow,
		Casting:      "Spirit of Wolf",
		CatalogError: errors.New("open spells_us.txt: no such file"),
	}))
	view := m.View()
	if !strings.Contains(view, "catalog: open spells_us.txt") {
		t.Fatalf("view missing catalog error:\n%s", view)
	}
	if !strings.Contains(view, "casting Spirit of Wolf") {
		t.Fatalf("view missing pending cast:\n%s", view)
	}
	if !strings.Contains(view, "No active timers") {
		t.Fatalf("view missing empty state:\n%s", view)
	}
}

func TestPausedTimerShowsFrozenRemaining(t *testing.T) {
	m := newTestModel(t, nil)
	entry := timers.Entry{
		Target:   timers.Self(),
		Name:     "Aegolism",
		EndTime:  testNow.Add(time.Minute),
		Paused:   true,
		PausedAt: testNow.Add(-30 * time.Second),
	}
	m = update(t, m, snapshotMsg(state.Snapshot{Timers: []timers.Entry{entry}, Now: testNow}))
	view := m.View()
	if !strings.Contains(view, "‖") || !strings.Contains(view, "1:30") {
		t.Fatalf("paused row should show marker and 1:30:\n%s", view)
	}
}

func TestNavigationClampsSelection(t *testing.T) {
	m := newTestModel(t, nil)

	m = update(t, m, keyMsg("up"))
	if m.selected != 0 {
		t.Fatalf("selected after up at top = %d, want 0", m.selected)
	}
	m = update(t, m, keyMsg("j"))
	m = update(t, m, keyMsg("down"))
	m = update(t, m, keyMsg("down"))
	if m.selected != 2 {
		t.Fatalf("selected after moving past end = %d, want 2", m.selected)
	}
	m = update(t, m, keyMsg("g"))
	if m.selected != 0 {
		t.Fatalf("selected after g = %d, want 0", m.selected)
	}
	m = update(t, m, keyMsg("G"))
	if m.selected != 2 {
		t.Fatalf("selected after G = %d, want 2", m.selected)
	}

	// A shorter snapshot pulls the selection back into range.
	m = update(t, m, snapshotMsg(state.Snapshot{Timers: testEntries()[:1], Now: testNow}))
	if m.selected != 0 {
		t.Fatalf("selected after shrink = %d, want 0", m.selected)
	}
}

func TestDismissSelectedTimer(t *testing.T) {
	d := &fakeDismisser{}
	m := newTestModel(t, d)

	m = update(t, m, keyMsg("G"))
	update(t, m, keyMsg("x"))

	if len(d.calls) != 1 {
		t.Fatalf("dismiss calls = %d, want 1", len(d.calls))
	}
	if d.calls[0].target != timers.Named("Soandso") || d.calls[0].name != "Root" {
		t.Fatalf("dismissed %#v %q, want Soandso Root", d.calls[0].target, d.calls[0].name)
	}
}

func TestDismissWithoutTimersIsNoop(t *testing.T) {
	d := &fakeDismisser{}
	m := newTestModel(t, d)
	m = update(t, m, snapshotMsg(state.Snapshot{Now: testNow}))
	update(t, m, keyMsg("x"))
	if len(d.calls) != 0 {
		t.Fatalf("dismiss calls = %d, want 0", len(d.calls))
	}
}

func TestCycleThemePersistsAndKeepsBookmark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	bookmark := prefs.Bookmark{LogPath: "/logs/eqlog_Tester_test.txt", Offset: 4096}
	if err := prefs.Save(path, prefs.Prefs{Theme: "Dracula", Bookmark: bookmark}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := New(Options{PrefsPath: path, ThemeName: "Dracula"})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = update(t, m, keyMsg("T"))

	if m.theme.Name != "Nightfox" {
		t.Fatalf("theme = %q, want Nightfox", m.theme.Name)
	}
	got, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Theme != "Nightfox" {
		t.Fatalf("saved theme = %q, want Nightfox", got.Theme)
	}
	if got.Bookmark != bookmark {
		t.Fatalf("bookmark = %#v, want %#v", got.Bookmark, bookmark)
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m, keyMsg("?"))
	if !m.showHelp {
		t.Fatal("help should be visible")
	}
	if view := m.View(); !strings.Contains(view, "Keyboard Shortcuts") || !strings.Contains(view, "Dismiss timer") {
		t.Fatalf("help view missing content:\n%s", view)
	}
	m = update(t, m, keyMsg("q"))
	if m.showHelp {
		t.Fatal("any key should close help")
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, nil)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestNoticesRenderNewest(t *testing.T) {
	m := newTestModel(t, nil)
	var notices []state.Notice
	for i := 0; i < 5; i++ {
		notices = append(notices, state.Notice{
			Time:   testNow.Add(time.Duration(i) * time.Second),
			Kind:   timers.TimerExpired,
			Target: timers.Self(),
			Name:   "Spell" + string(rune('A'+i)),
		})
	}
	m = update(t, m, snapshotMsg(state.Snapshot{Now: testNow, Notices: notices}))
	view := m.View()
	if strings.Contains(view, "SpellA on You") || strings.Contains(view, "SpellB on You") {
		t.Fatalf("older notices should scroll off:\n%s", view)
	}
	if !strings.Contains(view, "SpellE on You has faded") {
		t.Fatalf("newest notice missing:\n%s", view)
	}
}
