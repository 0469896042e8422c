// Package refresh reloads the table periodically while it is on screen.
package refresh

import (
	"errors"
	"log/slog"
	"time"

	"servodash/internal/loop"
)

const DefaultInterval = 2 * time.Second

var ErrBadInterval = errors.New("refresh interval must be positive")

type Scheduler struct {
	clock    loop.Clock
	log      *slog.Logger
	interval time.Duration
	enabled  bool
	active   func() bool
	load     func()

	timer loop.Timer
	gen   uint64
}

// NewScheduler ticks every interval and calls load when active reports
// true. It starts disabled.
func NewScheduler(clock loop.Clock, logger *slog.Logger, interval time.Duration, active func() bool, load func()) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{clock: clock, log: logger, interval: interval, active: active, load: load}
}

func (s *Scheduler) Enabled() bool { return s.enabled }

func (s *Scheduler) Interval() time.Duration { return s.interval }

func (s *Scheduler) SetEnabled(on bool) {
	s.enabled = on
	if on {
		s.restart()
		s.log.Info("auto refresh enabled", "interval", s.interval)
		return
	}
	s.cancel()
	s.log.Info("auto refresh disabled")
}

func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return ErrBadInterval
	}
	s.interval = d
	if s.enabled {
		s.restart()
	}
	return nil
}

// Stop cancels the timer without changing the enabled flag.
func (s *Scheduler) Stop() { s.cancel() }

func (s *Scheduler) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) restart() {
	s.cancel()
	s.arm(s.gen)
}

func (s *Scheduler) arm(gen uint64) {
	s.timer = s.clock.AfterFunc(s.interval, func() {
		// superseded timers may still deliver one queued tick
		if gen != s.gen || !s.enabled {
			return
		}
		s.arm(gen)
		if s.active() {
			s.load()
		}
	})
}
