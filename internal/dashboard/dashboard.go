// Package dashboard owns the whole client state and wires push events,
// user actions and timers to the components. Every method must be called
// on the event loop.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"servodash/internal/chart"
	"servodash/internal/db"
	"servodash/internal/history"
	"servodash/internal/loop"
	"servodash/internal/metrics"
	"servodash/internal/models"
	"servodash/internal/notify"
	"servodash/internal/presenter"
	"servodash/internal/realtime"
	"servodash/internal/refresh"
	"servodash/internal/section"
	"servodash/internal/view"
)

const (
	ChartRevealDelay = 100 * time.Millisecond
	ResizeDebounce   = 250 * time.Millisecond
)

// RefreshIntervals are the choices offered by the interval selector.
var RefreshIntervals = []int{1, 2, 5, 10}

type API interface {
	history.Fetcher
	Latest(ctx context.Context) (models.TelemetrySample, error)
	Stats(ctx context.Context) (models.SystemStats, error)
}

type Deps struct {
	Clock    loop.Clock
	Dispatch loop.Dispatcher
	API      API
	Repo     *db.Repository
	Metrics  *metrics.Metrics
	Forward  notify.Forwarder
	Logger   *slog.Logger
}

type Settings struct {
	AutoRefresh     bool
	RefreshInterval time.Duration
	TableLimit      int
	ExportDir       string
	DarkTheme       bool
	HTTPTimeout     time.Duration
	// Widgets is the layout's widget list. Defaults to what the presenter
	// writes.
	Widgets []string
}

type Dashboard struct {
	clock    loop.Clock
	dispatch loop.Dispatcher
	api      API
	metrics  *metrics.Metrics
	log      *slog.Logger
	timeout  time.Duration

	board     *view.Board
	presenter *presenter.Presenter
	charts    *chart.Renderer
	table     *history.Controller
	sections  *section.Navigator
	notes     *notify.Service
	refresh   *refresh.Scheduler
	resize    *loop.Debouncer
	reveal    loop.Timer
	demo      []loop.Timer

	autoRefresh bool
	darkTheme   bool
	connected   bool
	start       time.Time
	lastExport  string
}

func New(d Deps, s Settings) (*Dashboard, error) {
	widgets := s.Widgets
	if widgets == nil {
		widgets = presenter.Widgets()
	}
	board := view.NewBoard(widgets...)
	if err := board.Require(presenter.Widgets()...); err != nil {
		return nil, fmt.Errorf("bind layout: %w", err)
	}
	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = 10 * time.Second
	}
	log := d.Logger
	notes := notify.NewService(d.Clock, d.Dispatch, log.With("module", "notify"), d.Metrics, d.Forward)
	dash := &Dashboard{
		clock:     d.Clock,
		dispatch:  d.Dispatch,
		api:       d.API,
		metrics:   d.Metrics,
		log:       log.With("module", "dashboard"),
		timeout:   s.HTTPTimeout,
		board:     board,
		presenter: presenter.New(board, d.Clock, d.Metrics, log.With("module", "presenter")),
		charts:    chart.NewRenderer(log.With("module", "chart")),
		sections:  section.NewNavigator(log.With("module", "section")),
		notes:     notes,
		resize:    loop.NewDebouncer(d.Clock, ResizeDebounce),
		darkTheme: s.DarkTheme,
		start:     d.Clock.Now(),
	}
	dash.table = history.NewController(d.Dispatch, d.API, d.Repo, notes, d.Metrics, log.With("module", "history"), history.Options{
		Limit:     s.TableLimit,
		ExportDir: s.ExportDir,
		Timeout:   s.HTTPTimeout,
	})
	dash.refresh = refresh.NewScheduler(d.Clock, log.With("module", "refresh"), s.RefreshInterval,
		func() bool { return dash.sections.IsActive(section.Table) },
		dash.table.Load)
	dash.autoRefresh = s.AutoRefresh
	dash.sections.OnEnter(section.Table, dash.table.Load)
	dash.sections.OnEnter(section.Charts, dash.revealCharts)
	return dash, nil
}

// Start shows the disconnected state, fetches the initial sample and
// stats, and arms auto-refresh.
func (d *Dashboard) Start() {
	d.presenter.SetConnected(false)
	d.metrics.SetConnected(false)
	d.loadInitial()
	if d.autoRefresh {
		d.refresh.SetEnabled(true)
	}
	d.log.Info("dashboard started", "auto_refresh", d.autoRefresh, "interval", d.refresh.Interval())
}

func (d *Dashboard) loadInitial() {
	api, timeout := d.api, d.timeout
	d.dispatch.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s, err := api.Latest(ctx)
		return func() {
			if err != nil {
				d.log.Error("initial sample failed", "err", err)
				d.notes.Show("Errore caricamento dati iniziali", notify.Warning)
				return
			}
			d.presenter.Render(s)
		}
	})
	d.dispatch.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		st, err := api.Stats(ctx)
		return func() {
			if err != nil {
				d.log.Error("initial stats failed", "err", err)
				return
			}
			d.presenter.RenderStats(st, d.Uptime())
		}
	})
}

// HandleEvent applies one realtime event. Events must be fed in arrival
// order.
func (d *Dashboard) HandleEvent(e realtime.Event) {
	d.metrics.PushEvent(e.Kind.String())
	switch e.Kind {
	case realtime.Connected:
		d.setConnected(true)
		d.log.Info("realtime connected")
		d.notes.Show("Connesso al server", notify.Info)
	case realtime.Disconnected:
		d.setConnected(false)
		d.log.Warn("realtime disconnected", "err", e.Err)
		d.notes.Show("Connessione persa", notify.Error)
	case realtime.Failed:
		d.setConnected(false)
		d.log.Error("realtime error", "err", e.Err)
	case realtime.Status:
		d.log.Info("realtime status", "message", e.Message)
	case realtime.DataUpdate:
		d.applyUpdate(e.Update)
	}
}

func (d *Dashboard) setConnected(on bool) {
	d.connected = on
	d.presenter.SetConnected(on)
	d.metrics.SetConnected(on)
}

func (d *Dashboard) applyUpdate(u models.DataUpdate) {
	if u.Servo != nil {
		d.presenter.Render(*u.Servo)
		d.charts.Append(d.clock.Now().Format("15:04:05"), *u.Servo)
		d.presenter.Flash()
	}
	if u.Stats != nil {
		d.presenter.RenderStats(*u.Stats, d.Uptime())
	}
}

// HandlePanic is the last-resort handler for a recovered panic.
func (d *Dashboard) HandlePanic(v any) {
	d.notes.Show("Si è verificato un errore imprevisto", notify.Error)
}

func (d *Dashboard) ShowSection(name string) error {
	return d.sections.Show(name)
}

// revealCharts redraws the charts once the section is laid out; charts
// sized while hidden report zero dimensions.
func (d *Dashboard) revealCharts() {
	if d.reveal != nil {
		d.reveal.Stop()
	}
	d.reveal = d.clock.AfterFunc(ChartRevealDelay, func() {
		d.reveal = nil
		w, h := d.charts.Size()
		d.charts.Resize(w, h)
	})
}

// Resize records a new terminal or window size. Bursts collapse into one
// chart resize.
func (d *Dashboard) Resize(width, height int) {
	d.resize.Trigger(func() { d.charts.Resize(width, height) })
}

func (d *Dashboard) SetAutoRefresh(on bool) {
	d.autoRefresh = on
	d.refresh.SetEnabled(on)
	if on {
		d.notes.Show("Auto refresh attivato", notify.Info)
	} else {
		d.notes.Show("Auto refresh disattivato", notify.Info)
	}
}

func (d *Dashboard) SetRefreshInterval(seconds int) error {
	if err := d.refresh.SetInterval(time.Duration(seconds) * time.Second); err != nil {
		return err
	}
	d.notes.Show(fmt.Sprintf("Intervallo aggiornato: %ds", seconds), notify.Info)
	return nil
}

// StepRefreshInterval moves the interval selector by delta positions,
// clamping at both ends.
func (d *Dashboard) StepRefreshInterval(delta int) error {
	cur := int(d.refresh.Interval() / time.Second)
	idx := 0
	for i, s := range RefreshIntervals {
		if s <= cur {
			idx = i
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(RefreshIntervals) {
		idx = len(RefreshIntervals) - 1
	}
	return d.SetRefreshInterval(RefreshIntervals[idx])
}

func (d *Dashboard) SetDarkTheme(on bool) {
	d.darkTheme = on
	if on {
		d.notes.Show("Tema scuro attivato", notify.Info)
	} else {
		d.notes.Show("Tema chiaro attivato", notify.Info)
	}
}

func (d *Dashboard) RefreshTable() { d.table.Load() }

func (d *Dashboard) SetTableLimit(n int) error {
	if err := d.table.SetLimit(n); err != nil {
		return err
	}
	if d.sections.IsActive(section.Table) {
		d.table.Load()
	}
	return nil
}

// CycleTableLimit advances the limit selector to its next value.
func (d *Dashboard) CycleTableLimit() error {
	cur := d.table.Limit()
	next := history.Limits[0]
	for i, l := range history.Limits {
		if l == cur && i+1 < len(history.Limits) {
			next = history.Limits[i+1]
		}
	}
	return d.SetTableLimit(next)
}

func (d *Dashboard) ExportTable() (string, error) {
	path, err := d.table.Export(context.Background(), d.clock.Now())
	if err != nil {
		return "", err
	}
	d.lastExport = path
	return path, nil
}

func (d *Dashboard) ClearCharts() {
	d.charts.Clear()
	d.notes.Show("Grafici puliti", notify.Info)
}

func (d *Dashboard) DismissNotification(id string) { d.notes.Close(id) }

// DismissCurrent closes whatever notification is on screen.
func (d *Dashboard) DismissCurrent() {
	if n, ok := d.notes.Current(); ok {
		d.notes.Close(n.ID)
	}
}

// InjectTestUpdate feeds a fixed sample through the push path.
func (d *Dashboard) InjectTestUpdate() {
	var s models.TelemetrySample
	if err := json.Unmarshal([]byte(testSample), &s); err != nil {
		d.log.Error("decode test sample", "err", err)
		return
	}
	d.log.Info("injecting test update")
	d.applyUpdate(models.DataUpdate{Servo: &s})
}

// TestNotificationStep spaces the demo notifications.
const TestNotificationStep = time.Second

// TestNotifications shows one notification of every severity, one per
// step, starting now. A second call restarts the sequence.
func (d *Dashboard) TestNotifications() {
	d.stopDemo()
	seq := []notify.Severity{notify.Info, notify.Success, notify.Warning, notify.Error}
	titles := map[notify.Severity]string{
		notify.Info: "Info", notify.Success: "Success", notify.Warning: "Warning", notify.Error: "Error",
	}
	for i, sev := range seq {
		msg := "Test notification - " + titles[sev]
		if i == 0 {
			d.notes.Show(msg, sev)
			continue
		}
		sev := sev
		d.demo = append(d.demo, d.clock.AfterFunc(time.Duration(i)*TestNotificationStep, func() {
			d.notes.Show(msg, sev)
		}))
	}
}

func (d *Dashboard) stopDemo() {
	for _, t := range d.demo {
		t.Stop()
	}
	d.demo = nil
}

const testSample = `{
	"servo1_angle": 90, "servo2_angle": 45, "servo3_angle": 135,
	"servo1_angle_percent": 50, "servo2_angle_percent": 25, "servo3_angle_percent": 75,
	"pot1_percent": 50, "pot2_percent": 25, "pot3_percent": 75,
	"servo1_active": 1, "servo2_active": 1, "servo3_active": 0,
	"button_pressed": 1, "led_state": 0, "servos_active_count": 2
}`

func (d *Dashboard) Uptime() time.Duration { return d.clock.Now().Sub(d.start) }

func (d *Dashboard) Connected() bool { return d.connected }

func (d *Dashboard) Charts() *chart.Renderer { return d.charts }

func (d *Dashboard) Table() *history.Controller { return d.table }

// Close stops every timer the dashboard owns.
func (d *Dashboard) Close() {
	d.refresh.Stop()
	d.resize.Stop()
	d.presenter.Stop()
	d.notes.Stop()
	d.stopDemo()
	if d.reveal != nil {
		d.reveal.Stop()
		d.reveal = nil
	}
}
