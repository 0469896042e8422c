package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client-side counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg *prometheus.Registry

	pushEvents    *prometheus.CounterVec
	ledMismatch   prometheus.Counter
	tableLoads    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	exports       prometheus.Counter
	connected     prometheus.Gauge
	debugRequests *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		pushEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servodash_push_events_total",
			Help: "Push events received on the realtime channel, by event.",
		}, []string{"event"}),
		ledMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servodash_led_mismatch_total",
			Help: "Samples whose led_state disagreed with the inverted button flag.",
		}),
		tableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servodash_table_loads_total",
			Help: "History table loads, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servodash_notifications_total",
			Help: "Notifications shown, by severity.",
		}, []string{"severity"}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servodash_exports_total",
			Help: "CSV exports written.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "servodash_connected",
			Help: "1 while the realtime channel is connected.",
		}),
		debugRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servodash_debug_requests_total",
			Help: "Requests served by the debug HTTP surface, by path and status class.",
		}, []string{"path", "code"}),
	}
	m.reg.MustRegister(m.pushEvents, m.ledMismatch, m.tableLoads, m.notifications, m.exports, m.connected, m.debugRequests)
	return m
}

// Registry exposes the private registry, for scraping in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) PushEvent(event string) {
	if m == nil {
		return
	}
	m.pushEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) LEDMismatch() {
	if m == nil {
		return
	}
	m.ledMismatch.Inc()
}

func (m *Metrics) TableLoad(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.tableLoads.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(severity string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(severity).Inc()
}

func (m *Metrics) Export() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

func (m *Metrics) SetConnected(on bool) {
	if m == nil {
		return
	}
	if on {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// DebugRequest counts one debug HTTP request. code is collapsed to its
// class ("2xx", "4xx", ...) to keep the label set small.
func (m *Metrics) DebugRequest(path string, status int) {
	if m == nil {
		return
	}
	m.debugRequests.WithLabelValues(path, fmt.Sprintf("%dxx", status/100)).Inc()
}
