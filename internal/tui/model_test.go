package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"servodash/internal/dashboard"
	"servodash/internal/db"
	"servodash/internal/loop"
	"servodash/internal/models"
	"servodash/internal/section"
)

type stubAPI struct{}

func (stubAPI) Latest(context.Context) (models.TelemetrySample, error) {
	return models.TelemetrySample{}, nil
}

func (stubAPI) Stats(context.Context) (models.SystemStats, error) {
	return models.SystemStats{}, nil
}

func (stubAPI) Measurements(context.Context, int) ([]models.HistoryRow, error) {
	return []models.HistoryRow{{TimeStr: "10:00:00"}}, nil
}

func newModel(t *testing.T) (Model, *dashboard.Dashboard, *loop.Fake) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sqldb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	if err := db.Migrate(sqldb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	fake := loop.NewFake(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	d, err := dashboard.New(dashboard.Deps{
		Clock: fake, Dispatch: fake, API: stubAPI{}, Repo: db.NewRepository(sqldb), Logger: logger,
	}, dashboard.Settings{DarkTheme: true, ExportDir: t.TempDir()})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	t.Cleanup(d.Close)
	// actions run synchronously, as if the loop were idle
	m := NewModel(d, func(fn func()) { fn() }, logger)
	return m, d, fake
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func refresh(m Model, d *dashboard.Dashboard) Model {
	next, _ := m.Update(SnapshotMsg{Snapshot: d.Snapshot()})
	return next.(Model)
}

func TestSectionKeys(t *testing.T) {
	m, d, fake := newModel(t)
	m = refresh(m, d)
	m = press(t, m, "3")
	if d.Snapshot().Section != section.Table {
		t.Fatalf("section = %q, want table", d.Snapshot().Section)
	}
	fake.RunJobs()
	m = refresh(m, d)
	if !strings.Contains(m.View(), "10:00:00") {
		t.Fatalf("table view missing row:\n%s", m.View())
	}
	m = press(t, m, "tab")
	if d.Snapshot().Section != section.Settings {
		t.Fatalf("section = %q, want settings", d.Snapshot().Section)
	}
}

func TestSettingsKeys(t *testing.T) {
	m, d, _ := newModel(t)
	m = refresh(m, d)

	m = press(t, m, "a")
	if !d.Snapshot().AutoRefresh {
		t.Fatal("auto refresh not toggled on")
	}
	m = refresh(m, d)
	m = press(t, m, "a")
	if d.Snapshot().AutoRefresh {
		t.Fatal("auto refresh not toggled off")
	}

	m = press(t, m, "+")
	if got := d.Snapshot().RefreshInterval; got != 5*time.Second {
		t.Fatalf("interval = %v, want 5s", got)
	}
	m = press(t, m, "t")
	if d.Snapshot().DarkTheme {
		t.Fatal("theme not toggled")
	}
	m = press(t, m, "l")
	if got := d.Snapshot().Table.Limit; got != 100 {
		t.Fatalf("limit = %d, want 100", got)
	}
	_ = press(t, m, "x")
	if n := d.Snapshot().Notification; n == nil || !n.Leaving {
		t.Fatalf("notification = %+v, want leaving", n)
	}
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}

func TestWindowSizeResizesChartsAfterDebounce(t *testing.T) {
	m, d, fake := newModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	_ = next
	fake.Advance(dashboard.ResizeDebounce)
	if w, h := d.Charts().Size(); w != 114 || h != 15 {
		t.Fatalf("chart size = %dx%d", w, h)
	}
}

func TestOverviewShowsInvertedButton(t *testing.T) {
	m, d, _ := newModel(t)
	d.InjectTestUpdate()
	m = refresh(m, d)
	v := m.View()
	for _, want := range []string{"LIBERO", "SPENTO", "ATTIVO", "STOP", "90°"} {
		if !strings.Contains(v, want) {
			t.Fatalf("overview missing %q:\n%s", want, v)
		}
	}
}

func TestChartsView(t *testing.T) {
	m, d, _ := newModel(t)
	d.InjectTestUpdate()
	d.InjectTestUpdate()
	_ = d.ShowSection("charts")
	m = refresh(m, d)
	if !strings.Contains(m.View(), "2 punti") {
		t.Fatalf("charts view:\n%s", m.View())
	}
}

func TestSparkline(t *testing.T) {
	got := Sparkline([]float64{0, 90, 180, 200}, 180, 10)
	if utf8.RuneCountInString(got) != 4 {
		t.Fatalf("width = %d, want 4", utf8.RuneCountInString(got))
	}
	if got != "▁▅██" {
		t.Fatalf("sparkline = %q", got)
	}
	if Sparkline(nil, 100, 6) != "      " {
		t.Fatal("empty series should render blanks")
	}
}
