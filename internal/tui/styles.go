package tui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	panelBG   lipgloss.Color
	border    lipgloss.Color
	accent    lipgloss.Color
	secondary lipgloss.Color
	muted     lipgloss.Color
	text      lipgloss.Color
}

var (
	darkPalette = palette{
		panelBG:   lipgloss.Color("#0D141A"),
		border:    lipgloss.Color("#2D6A80"),
		accent:    lipgloss.Color("#50E3C2"),
		secondary: lipgloss.Color("#F6AE2D"),
		muted:     lipgloss.Color("#8CA1AE"),
		text:      lipgloss.Color("#E6EDF3"),
	}
	lightPalette = palette{
		panelBG:   lipgloss.Color("#F5F7FA"),
		border:    lipgloss.Color("#9AA5B1"),
		accent:    lipgloss.Color("#1F6FEB"),
		secondary: lipgloss.Color("#BF8700"),
		muted:     lipgloss.Color("#57606A"),
		text:      lipgloss.Color("#1F2328"),
	}
)

var seriesColors = []lipgloss.Color{"#ff6b6b", "#4ecdc4", "#ffd93d"}

type styles struct {
	header   lipgloss.Style
	muted    lipgloss.Style
	tab      lipgloss.Style
	tabOn    lipgloss.Style
	panel    lipgloss.Style
	title    lipgloss.Style
	value    lipgloss.Style
	active   lipgloss.Style
	inactive lipgloss.Style
	ok       lipgloss.Style
	bad      lipgloss.Style
	help     lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	return styles{
		header: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(p.accent),
		muted:  lipgloss.NewStyle().Foreground(p.muted),
		tab:    lipgloss.NewStyle().Padding(0, 1).Foreground(p.muted),
		tabOn:  lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(p.panelBG).Background(p.accent),
		panel: lipgloss.NewStyle().
			Background(p.panelBG).
			Foreground(p.text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		value:    lipgloss.NewStyle().Bold(true).Foreground(p.text),
		active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50")),
		inactive: lipgloss.NewStyle().Foreground(p.muted),
		ok:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50")),
		bad:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f44336")),
		help:     lipgloss.NewStyle().Foreground(p.muted),
	}
}
