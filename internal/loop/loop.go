// Package loop runs every dashboard handler on a single goroutine. Timers,
// network completions and UI actions are posted into the loop so component
// state never needs locking.
package loop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	// AfterFunc runs fn on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

type Dispatcher interface {
	// Go runs work off the loop and posts the continuation it returns.
	Go(work func() func())
}

type Loop struct {
	log *slog.Logger

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	// OnPanic is called on the loop with the recovered value.
	OnPanic func(v any)
	// AfterEach runs after every batch of handlers.
	AfterEach func()
}

func New(logger *slog.Logger) *Loop {
	return &Loop{log: logger, wake: make(chan struct{}, 1)}
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

func (l *Loop) Go(work func() func()) {
	go func() {
		if cont := work(); cont != nil {
			l.Post(cont)
		}
	}()
}

// Call posts fn and waits for it to run. It must not be called from the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()
		for _, fn := range batch {
			l.run(fn)
		}
		if l.AfterEach != nil && len(batch) > 0 {
			l.run(l.AfterEach)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		l.log.Error("handler panicked", "panic", v, "stack", string(debug.Stack()))
		if l.OnPanic != nil {
			func() {
				defer func() {
					if v := recover(); v != nil {
						l.log.Error("panic handler panicked", "panic", v)
					}
				}()
				l.OnPanic(v)
			}()
		}
	}()
	fn()
}

// Debouncer collapses bursts of triggers into one call, wait after the last.
type Debouncer struct {
	clock Clock
	wait  time.Duration
	timer Timer
	gen   uint64
}

func NewDebouncer(c Clock, wait time.Duration) *Debouncer {
	return &Debouncer{clock: c, wait: wait}
}

func (d *Debouncer) Trigger(fn func()) {
	d.Stop()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() {
		// a stopped timer may already have posted its callback
		if gen != d.gen {
			return
		}
		d.timer = nil
		fn()
	})
}

func (d *Debouncer) Stop() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
