// Package notify shows transient toast notifications. At most one is
// visible; a new one replaces whatever is on screen.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"servodash/internal/loop"
	"servodash/internal/metrics"
	"servodash/internal/notifier"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

const (
	DisplayFor = 5 * time.Second
	SlideOut   = 300 * time.Millisecond
)

var icons = map[Severity]string{
	Success: "✔",
	Error:   "✖",
	Warning: "⚠",
	Info:    "ℹ",
}

var colors = map[Severity]string{
	Success: "#4CAF50",
	Error:   "#f44336",
	Warning: "#ff9800",
	Info:    "#2196f3",
}

func normalize(s Severity) Severity {
	if _, ok := icons[s]; ok {
		return s
	}
	return Info
}

func (s Severity) Icon() string  { return icons[normalize(s)] }
func (s Severity) Color() string { return colors[normalize(s)] }

type Notification struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Icon     string    `json:"icon"`
	Color    string    `json:"color"`
	PostedAt time.Time `json:"posted_at"`
	Leaving  bool      `json:"leaving"`
}

// Forwarder receives error notifications out of band.
type Forwarder interface {
	Enabled() bool
	Send(ctx context.Context, msg string) error
}

type Service struct {
	clock    loop.Clock
	dispatch loop.Dispatcher
	log      *slog.Logger
	metrics  *metrics.Metrics
	forward  Forwarder

	current *Notification
	dismiss loop.Timer
	remove  loop.Timer
}

func NewService(clock loop.Clock, dispatch loop.Dispatcher, logger *slog.Logger, m *metrics.Metrics, forward Forwarder) *Service {
	return &Service{clock: clock, dispatch: dispatch, log: logger, metrics: m, forward: forward}
}

func (s *Service) Show(msg string, sev Severity) Notification {
	sev = normalize(sev)
	s.clear()
	n := &Notification{
		ID:       uuid.NewString(),
		Message:  msg,
		Severity: sev,
		Icon:     sev.Icon(),
		Color:    sev.Color(),
		PostedAt: s.clock.Now(),
	}
	s.current = n
	id := n.ID
	s.dismiss = s.clock.AfterFunc(DisplayFor, func() { s.Close(id) })
	s.metrics.Notification(string(sev))
	s.log.Info("notification", "severity", sev, "message", msg)
	if sev == Error {
		s.forwardAsync(msg)
	}
	return *n
}

// Close starts the slide-out of the notification with the given id. Unknown
// or already closing ids are ignored.
func (s *Service) Close(id string) {
	n := s.current
	if n == nil || n.ID != id || n.Leaving {
		return
	}
	n.Leaving = true
	if s.dismiss != nil {
		s.dismiss.Stop()
		s.dismiss = nil
	}
	s.remove = s.clock.AfterFunc(SlideOut, func() {
		if s.current == n {
			s.current = nil
			s.remove = nil
		}
	})
}

func (s *Service) Current() (Notification, bool) {
	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Stop cancels pending timers and drops the visible notification.
func (s *Service) Stop() {
	s.clear()
}

func (s *Service) clear() {
	if s.dismiss != nil {
		s.dismiss.Stop()
		s.dismiss = nil
	}
	if s.remove != nil {
		s.remove.Stop()
		s.remove = nil
	}
	s.current = nil
}

func (s *Service) forwardAsync(msg string) {
	if s.forward == nil || !s.forward.Enabled() {
		return
	}
	fwd := s.forward
	s.dispatch.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := fwd.Send(ctx, msg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, notifier.ErrSuppressed):
			return func() { s.log.Debug("forward suppressed", "msg", msg) }
		}
		return func() { s.log.Warn("forward notification failed", "err", err) }
	})
}
