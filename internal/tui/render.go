package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"servodash/internal/chart"
	"servodash/internal/history"
	"servodash/internal/section"
)

func (m Model) View() string {
	if !m.ready {
		return "Avvio servodash..."
	}
	s := m.styles
	parts := []string{m.renderHeader(), m.renderTabs()}
	if n := m.snap.Notification; n != nil {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(n.Color))
		if n.Leaving {
			style = style.Faint(true)
		}
		parts = append(parts, style.Render(n.Icon+" "+n.Message))
	} else {
		parts = append(parts, "")
	}
	switch m.snap.Section {
	case section.Charts:
		parts = append(parts, m.renderCharts())
	case section.Table:
		parts = append(parts, m.renderTable())
	case section.Settings:
		parts = append(parts, m.renderSettings())
	default:
		parts = append(parts, m.renderOverview())
	}
	parts = append(parts, s.help.Render("1-4 sezioni · r aggiorna · e esporta · c pulisci · a auto · +/- intervallo · l limite · t tema · x chiudi · q esci"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) text(name string) string {
	return m.snap.Widgets[name].Text
}

func (m Model) has(name, class string) bool {
	return m.snap.Widgets[name].HasClass(class)
}

func (m Model) renderHeader() string {
	s := m.styles
	conn := s.bad.Render("● " + m.text("connectionStatus"))
	if m.has("connectionStatus", "connected") {
		conn = s.ok.Render("● " + m.text("connectionStatus"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, s.header.Render("Servo Dashboard"), " ", conn)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(section.All))
	for i, id := range section.All {
		label := fmt.Sprintf("%d %s", i+1, id.Title())
		if id == m.snap.Section {
			tabs = append(tabs, m.styles.tabOn.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) panel(title, body string) string {
	return m.styles.panel.Render(m.styles.title.Render(title) + "\n" + body)
}

func (m Model) renderOverview() string {
	s := m.styles
	cards := make([]string, 0, 3)
	for i := 1; i <= 3; i++ {
		id := func(p string) string { return fmt.Sprintf("%s%d", p, i) }
		badge := s.inactive.Render(m.text(id("badge")))
		if m.has(id("badge"), "active") {
			badge = s.active.Render(m.text(id("badge")))
		}
		title := fmt.Sprintf("Servo %d", i)
		if m.has(id("servo"), "data-update") {
			title += " •"
		}
		body := strings.Join([]string{
			"Angolo  " + s.value.Render(m.text(id("angle"))+"°"),
			"Pot     " + s.value.Render(m.text(id("pot"))+"%"),
			"PWM     " + s.value.Render(m.text(id("pwm"))),
			meter(m.snap.Widgets[id("progress")].Value, 20),
			badge,
		}, "\n")
		cards = append(cards, m.panel(title, body))
	}
	button := m.text("buttonStatus")
	if m.has("buttonCard", "pressed") {
		button = s.bad.Render(button)
	}
	led := m.text("ledStatus")
	if m.has("ledCard", "on") {
		led = s.ok.Render(led)
	}
	status := strings.Join([]string{
		"Servo attivi " + s.value.Render(m.text("activeServos")),
		"Pulsante " + button,
		"LED " + led,
		"Messaggi/h " + s.value.Render(m.text("totalMessages")),
		"Ultimo " + m.text("lastUpdate"),
		"Server " + m.text("connectionState"),
		"Uptime " + m.text("uptime"),
	}, "  ·  ")
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		m.panel("Stato", status))
}

func (m Model) renderCharts() string {
	w := m.snap.ChartWidth
	if w <= 0 || w > 200 {
		w, _ = chartArea(m.width, m.height)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.panel(m.snap.Servo.Title, m.chartBody(m.snap.Servo, w)),
		m.panel(m.snap.Pot.Title, m.chartBody(m.snap.Pot, w)))
}

func (m Model) chartBody(st chart.State, width int) string {
	if len(st.Labels) == 0 {
		return m.styles.muted.Render("In attesa di dati...")
	}
	lines := make([]string, 0, len(st.Series)+1)
	for i, series := range st.Series {
		last := series[len(series)-1]
		color := seriesColors[i%len(seriesColors)]
		name := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%-8s", st.Names[i]))
		lines = append(lines, fmt.Sprintf("%s %s %6.1f", name,
			lipgloss.NewStyle().Foreground(color).Render(Sparkline(series, st.Max, width-20)), last))
	}
	lines = append(lines, m.styles.muted.Render(fmt.Sprintf("%s … %s  (%d punti)", st.Labels[0], st.Labels[len(st.Labels)-1], len(st.Labels))))
	return strings.Join(lines, "\n")
}

func (m Model) renderTable() string {
	t := m.snap.Table
	title := fmt.Sprintf("Storico (ultimi %d)", t.Limit)
	if t.Status != history.StatusRows {
		msg := t.Message
		if msg == "" {
			msg = "Premi r per caricare"
		}
		return m.panel(title, m.styles.muted.Render(msg))
	}
	header := fmt.Sprintf("%-9s %-10s %7s %7s %7s %6s %6s %6s %-8s %-7s %s",
		"Ora", "Data", "S1", "S2", "S3", "P1", "P2", "P3", "Pulsante", "LED", "Attivi")
	lines := []string{m.styles.title.Render(header)}
	maxRows := len(t.Rows)
	if m.height > 12 && maxRows > m.height-12 {
		maxRows = m.height - 12
	}
	for _, r := range t.Rows[:maxRows] {
		lines = append(lines, fmt.Sprintf("%-9s %-10s %7s %7s %7s %6s %6s %6s %-8s %-7s %s",
			r.Time, r.Date, r.Angles[0], r.Angles[1], r.Angles[2], r.Pots[0], r.Pots[1], r.Pots[2], r.Button, r.LED, r.Active))
	}
	if maxRows < len(t.Rows) {
		lines = append(lines, m.styles.muted.Render(fmt.Sprintf("… altre %d righe", len(t.Rows)-maxRows)))
	}
	return m.panel(title, strings.Join(lines, "\n"))
}

func (m Model) renderSettings() string {
	onOff := func(b bool) string {
		if b {
			return m.styles.ok.Render("attivo")
		}
		return m.styles.inactive.Render("disattivo")
	}
	theme := "chiaro"
	if m.snap.DarkTheme {
		theme = "scuro"
	}
	lines := []string{
		"Auto refresh   " + onOff(m.snap.AutoRefresh) + "  (a)",
		fmt.Sprintf("Intervallo     %ds  (+/-)", int(m.snap.RefreshInterval.Seconds())),
		fmt.Sprintf("Limite tabella %d  (l)", m.snap.Table.Limit),
		"Tema           " + theme + "  (t)",
		"Avviato        " + humanize.Time(m.snap.StartTime),
	}
	if m.snap.LastExport != "" {
		lines = append(lines, "Ultimo export  "+m.snap.LastExport)
	}
	return m.panel("Impostazioni", strings.Join(lines, "\n"))
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline resamples values to width cells scaled against max.
func Sparkline(values []float64, max float64, width int) string {
	if width < 4 {
		width = 4
	}
	if len(values) == 0 || max <= 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) < width {
		width = len(values)
	}
	step := float64(len(values)) / float64(width)
	out := make([]rune, width)
	for i := range out {
		src := int(math.Floor(float64(i) * step))
		if src >= len(values) {
			src = len(values) - 1
		}
		p := math.Max(0, math.Min(values[src]/max, 1))
		out[i] = sparkLevels[int(math.Round(p*float64(len(sparkLevels)-1)))]
	}
	return string(out)
}

func meter(percent float64, width int) string {
	p := math.Max(0, math.Min(percent, 100))
	filled := int(math.Round(p / 100 * float64(width)))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}
