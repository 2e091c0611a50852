package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spelltimer/internal/state"
	"github.com/five82/spelltimer/internal/timers"
)

const (
	nameColumnWidth   = 32
	remainColumnWidth = 9
)

// renderMain stacks the header, timer list, notices and footer.
func (m Model) renderMain() string {
	parts := []string{
		m.renderHeader(),
		m.timerViewport.View(),
		m.renderNotices(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader shows the followed log, pending cast and catalog state on two lines.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	logName := "waiting for log"
	if snap.LogPath != "" {
		logName = filepath.Base(snap.LogPath)
	}
	first := []string{
		styles.Logo.Render("spelltimer"),
		styles.MutedText.Render(logName),
	}
	if snap.LogUnavailable() && snap.LastError != nil {
		first = append(first, styles.DangerText.Render("log unavailable: "+snap.LastError.Error()))
	}

	var second []string
	switch {
	case snap.CatalogError != nil:
		second = append(second, styles.DangerText.Render("catalog: "+snap.CatalogError.Error()))
	default:
		second = append(second, styles.MutedText.Render(fmt.Sprintf("%d spells", snap.CatalogSpells)))
	}
	if snap.Casting != "" {
		second = append(second, styles.AccentText.Render("casting "+snap.Casting))
	}
	second = append(second, styles.MutedText.Render(
		fmt.Sprintf("%d timers on %d targets", len(snap.Timers), len(snap.Targets))))

	bar := styles.Header.Width(m.width)
	return lipgloss.JoinVertical(lipgloss.Left,
		bar.Render(strings.Join(first, "  ")),
		bar.Render(strings.Join(second, "  ")),
	)
}

// timerLines renders one header line per target followed by its timers and
// returns the line index of the selected timer.
func (m Model) timerLines() ([]string, int) {
	styles := m.theme.Styles()
	snap := m.snapshot
	if len(snap.Timers) == 0 {
		return []string{styles.FaintText.Render("No active timers")}, 0
	}

	var (
		lines       []string
		selectedRow int
		current     timers.Target
	)
	for i, e := range snap.Timers {
		if i == 0 || e.Target != current {
			current = e.Target
			lines = append(lines, styles.AccentText.Bold(true).Render(e.Target.String()))
		}
		row := m.timerRow(e)
		if i == m.selected {
			selectedRow = len(lines)
			row = styles.Selected.Width(m.width).Render(m.rowText(e))
		}
		lines = append(lines, row)
	}
	return lines, selectedRow
}

// timerRow renders a single styled timer line.
func (m Model) timerRow(e timers.Entry) string {
	return rowStyle(m.theme.Styles(), e).Render(m.rowText(e))
}

// rowText renders the unstyled columns of a timer line.
func (m Model) rowText(e timers.Entry) string {
	remaining := formatRemaining(e.Remaining(m.snapshot.Now))
	marker := " "
	if e.Paused {
		marker = "‖"
	}
	name := padRight(truncate(e.Name, nameColumnWidth), nameColumnWidth)
	return fmt.Sprintf("  %s %s %s", marker, name, padLeft(remaining, remainColumnWidth))
}

// rowStyle picks the color for a timer line.
func rowStyle(styles Styles, e timers.Entry) lipgloss.Style {
	switch {
	case e.Expired:
		return styles.FaintText
	case e.Warning:
		return styles.WarningText
	case e.Target.Kind() == timers.KindCustom:
		return styles.InfoText
	case e.Beneficial:
		return styles.SuccessText
	default:
		return styles.DangerText
	}
}

// updateTimerViewport refreshes the viewport and keeps the selection visible.
func (m *Model) updateTimerViewport() {
	if !m.ready {
		return
	}
	lines, row := m.timerLines()
	m.timerViewport.SetContent(strings.Join(lines, "\n"))

	h := m.timerViewport.Height
	top := m.timerViewport.YOffset
	switch {
	case row < top:
		m.timerViewport.SetYOffset(row)
	case row >= top+h:
		m.timerViewport.SetYOffset(row - h + 1)
	}
}

// renderNotices shows the most recent notices, newest last.
func (m Model) renderNotices() string {
	styles := m.theme.Styles()
	notices := m.snapshot.Notices
	if len(notices) > noticeLines {
		notices = notices[len(notices)-noticeLines:]
	}
	lines := make([]string, 0, noticeLines)
	for _, n := range notices {
		lines = append(lines, noticeStyle(styles, n).Render(
			truncate(n.Time.Format("15:04:05")+" "+n.Text(), m.width)))
	}
	for len(lines) < noticeLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func noticeStyle(styles Styles, n state.Notice) lipgloss.Style {
	switch n.Kind {
	case timers.TimerWarning:
		return styles.WarningText
	case timers.TimerExpired:
		return styles.MutedText
	default:
		return styles.FaintText
	}
}

// renderFooter shows the short help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	parts = append(parts, "theme "+m.theme.Name)
	return styles.Footer.Width(m.width).Render(strings.Join(parts, "  •  "))
}

// padLeft right-aligns a string within the given width.
func padLeft(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(r)) + s
}
