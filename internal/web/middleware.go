package web

import (
	"log/slog"
	"net/http"
	"time"

	"servodash/internal/metrics"
)

// logMiddleware logs and counts every request. Successful GETs log at debug.
func logMiddleware(next http.Handler, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		path := routeLabel(r.URL.Path)
		m.DebugRequest(path, ww.status)
		level := slog.LevelInfo
		if r.Method == http.MethodGet && ww.status < 400 {
			level = slog.LevelDebug
		}
		logger.Log(r.Context(), level, "http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// routes lists the paths that get their own metric label.
var routes = map[string]bool{
	"/":                         true,
	"/metrics":                  true,
	"/healthz":                  true,
	"/readyz":                   true,
	"/debug/stats":              true,
	"/debug/servo":              true,
	"/debug/pot":                true,
	"/debug/table":              true,
	"/debug/charts/servo.png":   true,
	"/debug/charts/pot.png":     true,
	"/debug/test-update":        true,
	"/debug/test-notifications": true,
	"/debug/section":            true,
	"/debug/export":             true,
	"/debug/test-telegram":      true,
}

// routeLabel maps unregistered paths to "other".
func routeLabel(path string) string {
	if routes[path] {
		return path
	}
	return "other"
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
