package dashboard

import (
	"time"

	"servodash/internal/chart"
	"servodash/internal/history"
	"servodash/internal/notify"
	"servodash/internal/section"
	"servodash/internal/view"
)

// Snapshot is a detached copy of everything a renderer draws. It is safe
// to read off the loop.
type Snapshot struct {
	Section         section.ID                  `json:"section"`
	Widgets         map[string]view.WidgetState `json:"widgets"`
	Servo           chart.State                 `json:"servo"`
	Pot             chart.State                 `json:"pot"`
	ChartVersion    uint64                      `json:"chart_version"`
	ChartWidth      int                         `json:"chart_width"`
	ChartHeight     int                         `json:"chart_height"`
	Table           history.State               `json:"table"`
	Notification    *notify.Notification        `json:"notification,omitempty"`
	AutoRefresh     bool                        `json:"auto_refresh"`
	RefreshInterval time.Duration               `json:"refresh_interval"`
	DarkTheme       bool                        `json:"dark_theme"`
	Connected       bool                        `json:"connected"`
	StartTime       time.Time                   `json:"start_time"`
	Uptime          time.Duration               `json:"uptime"`
	LastExport      string                      `json:"last_export,omitempty"`
}

func (d *Dashboard) Snapshot() Snapshot {
	w, h := d.charts.Size()
	s := Snapshot{
		Section:         d.sections.Active(),
		Widgets:         d.board.Snapshot(),
		Servo:           d.charts.Servo.State(),
		Pot:             d.charts.Pot.State(),
		ChartVersion:    d.charts.Version(),
		ChartWidth:      w,
		ChartHeight:     h,
		Table:           d.table.State(),
		AutoRefresh:     d.autoRefresh,
		RefreshInterval: d.refresh.Interval(),
		DarkTheme:       d.darkTheme,
		Connected:       d.connected,
		StartTime:       d.start,
		Uptime:          d.Uptime(),
		LastExport:      d.lastExport,
	}
	if n, ok := d.notes.Current(); ok {
		s.Notification = &n
	}
	return s
}

// DebugStats mirrors the fields the browser build exposed for debugging.
type DebugStats struct {
	AutoRefreshEnabled bool      `json:"auto_refresh_enabled"`
	RefreshIntervalMS  int64     `json:"refresh_interval_ms"`
	StartTime          time.Time `json:"start_time"`
	UptimeMS           int64     `json:"uptime_ms"`
	ChartsInitialized  bool      `json:"charts_initialized"`
	SocketConnected    bool      `json:"socket_connected"`
}

func (d *Dashboard) DebugStats() DebugStats {
	return DebugStats{
		AutoRefreshEnabled: d.autoRefresh,
		RefreshIntervalMS:  d.refresh.Interval().Milliseconds(),
		StartTime:          d.start,
		UptimeMS:           d.Uptime().Milliseconds(),
		ChartsInitialized:  d.charts != nil,
		SocketConnected:    d.connected,
	}
}
