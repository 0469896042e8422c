// Package tui draws dashboard snapshots in the terminal and turns key
// presses into dashboard actions.
package tui

import (
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"servodash/internal/dashboard"
	"servodash/internal/history"
	"servodash/internal/section"
)

// SnapshotMsg carries fresh dashboard state from the event loop.
type SnapshotMsg struct {
	Snapshot dashboard.Snapshot
}

// Poster runs fn on the event loop without waiting.
type Poster func(fn func())

type Model struct {
	dash *dashboard.Dashboard
	post Poster
	log  *slog.Logger

	snap   dashboard.Snapshot
	ready  bool
	width  int
	height int
	styles styles
}

func NewModel(dash *dashboard.Dashboard, post Poster, logger *slog.Logger) Model {
	return Model{dash: dash, post: post, log: logger, styles: newStyles(true)}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.ready = true
		m.styles = newStyles(m.snap.DarkTheme)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := chartArea(msg.Width, msg.Height)
		m.do(func(d *dashboard.Dashboard) { d.Resize(w, h) })
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "1", "2", "3", "4":
		id := section.All[key[0]-'1']
		m.do(func(d *dashboard.Dashboard) { _ = d.ShowSection(string(id)) })
	case "tab":
		next := section.All[(indexOf(m.snap.Section)+1)%len(section.All)]
		m.do(func(d *dashboard.Dashboard) { _ = d.ShowSection(string(next)) })
	case "r":
		m.do(func(d *dashboard.Dashboard) { d.RefreshTable() })
	case "e":
		m.do(func(d *dashboard.Dashboard) {
			if _, err := d.ExportTable(); err != nil && !errors.Is(err, history.ErrNothingToExport) {
				m.log.Error("export failed", "err", err)
			}
		})
	case "c":
		m.do(func(d *dashboard.Dashboard) { d.ClearCharts() })
	case "a":
		on := !m.snap.AutoRefresh
		m.do(func(d *dashboard.Dashboard) { d.SetAutoRefresh(on) })
	case "+", "=":
		m.do(func(d *dashboard.Dashboard) { _ = d.StepRefreshInterval(1) })
	case "-":
		m.do(func(d *dashboard.Dashboard) { _ = d.StepRefreshInterval(-1) })
	case "l":
		m.do(func(d *dashboard.Dashboard) { _ = d.CycleTableLimit() })
	case "t":
		dark := !m.snap.DarkTheme
		m.do(func(d *dashboard.Dashboard) { d.SetDarkTheme(dark) })
	case "x":
		m.do(func(d *dashboard.Dashboard) { d.DismissCurrent() })
	}
	return m, nil
}

func (m Model) do(fn func(d *dashboard.Dashboard)) {
	dash := m.dash
	m.post(func() { fn(dash) })
}

func indexOf(id section.ID) int {
	for i, s := range section.All {
		if s == id {
			return i
		}
	}
	return 0
}

// chartArea is the space one chart panel gets in a terminal of the given
// size.
func chartArea(width, height int) (int, int) {
	w := width - 6
	if w < 20 {
		w = 20
	}
	h := (height - 10) / 2
	if h < 3 {
		h = 3
	}
	return w, h
}
