package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"servodash/internal/chart"
	"servodash/internal/dashboard"
	"servodash/internal/db"
	"servodash/internal/metrics"
	"servodash/internal/models"
	"servodash/internal/notifier"
)

//go:embed templates/*.html
var webFS embed.FS

// Runner executes fn on the event loop and waits for it.
type Runner interface {
	Call(ctx context.Context, fn func()) error
}

type Server struct {
	loop    Runner
	dash    *dashboard.Dashboard
	repo    *db.Repository
	metrics *metrics.Metrics
	notify  *notifier.Telegram
	log     *slog.Logger
	tpl     *template.Template
}

func NewServer(loop Runner, dash *dashboard.Dashboard, repo *db.Repository, m *metrics.Metrics, notify *notifier.Telegram, logger *slog.Logger) *Server {
	tpl := template.Must(template.New("all").Funcs(template.FuncMap{
		"ago":      func(t time.Time) string { return humanize.Time(t) },
		"duration": func(d time.Duration) string { return d.Round(time.Second).String() },
	}).ParseFS(webFS, "templates/*.html"))
	return &Server{loop: loop, dash: dash, repo: repo, metrics: m, notify: notify, log: logger, tpl: tpl}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/debug/stats", s.handleStats)
	mux.HandleFunc("/debug/servo", s.handleWindow(func(r *chart.Renderer) *chart.Window { return r.Servo }))
	mux.HandleFunc("/debug/pot", s.handleWindow(func(r *chart.Renderer) *chart.Window { return r.Pot }))
	mux.HandleFunc("/debug/table", s.handleTable)
	mux.HandleFunc("/debug/charts/", s.handleChartPNG)
	mux.HandleFunc("/debug/test-update", s.handleTestUpdate)
	mux.HandleFunc("/debug/test-notifications", s.handleTestNotifications)
	mux.HandleFunc("/debug/section", s.handleSection)
	mux.HandleFunc("/debug/export", s.handleExport)
	mux.HandleFunc("/debug/test-telegram", s.handleTestTelegram)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	return logMiddleware(mux, s.log, s.metrics)
}

// query runs fn on the loop. It reports false after writing an error if
// the loop did not get to it.
func (s *Server) query(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.loop.Call(r.Context(), fn); err != nil {
		http.Error(w, "dashboard not responding", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var snap dashboard.Snapshot
	if !s.query(w, r, func() { snap = s.dash.Snapshot() }) {
		return
	}
	var buf bytes.Buffer
	if err := s.tpl.ExecuteTemplate(&buf, "index.html", snap); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var st dashboard.DebugStats
	if !s.query(w, r, func() { st = s.dash.DebugStats() }) {
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleWindow(pick func(*chart.Renderer) *chart.Window) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st chart.State
		if !s.query(w, r, func() { st = pick(s.dash.Charts()).State() }) {
			return
		}
		writeJSON(w, st)
	}
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	var (
		rows []models.HistoryRow
		err  error
	)
	if !s.query(w, r, func() { rows, err = s.dash.Table().Cached(r.Context()) }) {
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if rows == nil {
		rows = []models.HistoryRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/debug/charts/")
	var pick func(*chart.Renderer) *chart.Window
	switch name {
	case "servo.png":
		pick = func(c *chart.Renderer) *chart.Window { return c.Servo }
	case "pot.png":
		pick = func(c *chart.Renderer) *chart.Window { return c.Pot }
	default:
		http.NotFound(w, r)
		return
	}
	var (
		st            chart.State
		width, height int
	)
	if !s.query(w, r, func() {
		c := s.dash.Charts()
		st = pick(c).State()
		width, height = c.Size()
	}) {
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderPNG(st, width, height, &buf); err != nil {
		if errors.Is(err, chart.ErrNotEnoughPoints) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleTestNotifications(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if !s.query(w, r, s.dash.TestNotifications) {
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleTestUpdate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if !s.query(w, r, s.dash.InjectTestUpdate) {
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	id := r.URL.Query().Get("id")
	var err error
	if !s.query(w, r, func() { err = s.dash.ShowSection(id) }) {
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "section": id})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var (
		path string
		err  error
	)
	if !s.query(w, r, func() { path, err = s.dash.ExportTable() }) {
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "path": path})
}

func (s *Server) handleTestTelegram(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	msg := "servodash test alert: Telegram integration is working"
	if err := s.notify.Send(r.Context(), msg); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, notifier.ErrSuppressed) {
			code = http.StatusTooManyRequests
		}
		http.Error(w, err.Error(), code)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DB().PingContext(r.Context()); err != nil {
		http.Error(w, "cache not ready", 503)
		return
	}
	var connected bool
	if !s.query(w, r, func() { connected = s.dash.Connected() }) {
		return
	}
	if !connected {
		http.Error(w, "socket not connected", 503)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
