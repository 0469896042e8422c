package loop

import (
	"sort"
	"time"
)

// Fake is a manual Clock and Dispatcher. Timers fire only from Advance and
// dispatched work runs only from RunJobs, both on the caller's goroutine.
type Fake struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
	jobs   []func() func()
}

type fakeTimer struct {
	f       *Fake
	at      time.Time
	seq     int
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, other := range t.f.timers {
		if other == t {
			t.f.timers = append(t.f.timers[:i], t.f.timers[i+1:]...)
			return true
		}
	}
	return false
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time { return f.now }

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.seq++
	t := &fakeTimer{f: f, at: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers in order. Timers
// scheduled by callbacks fire too if they fall inside the window.
func (f *Fake) Advance(d time.Duration) {
	end := f.now.Add(d)
	for {
		sort.SliceStable(f.timers, func(i, j int) bool {
			if f.timers[i].at.Equal(f.timers[j].at) {
				return f.timers[i].seq < f.timers[j].seq
			}
			return f.timers[i].at.Before(f.timers[j].at)
		})
		if len(f.timers) == 0 || f.timers[0].at.After(end) {
			break
		}
		t := f.timers[0]
		f.timers = f.timers[1:]
		t.stopped = true
		if t.at.After(f.now) {
			f.now = t.at
		}
		t.fn()
	}
	f.now = end
}

// PendingTimers reports how many timers are armed.
func (f *Fake) PendingTimers() int { return len(f.timers) }

func (f *Fake) Go(work func() func()) {
	f.jobs = append(f.jobs, work)
}

// PendingJobs reports how many dispatched jobs have not run yet.
func (f *Fake) PendingJobs() int { return len(f.jobs) }

// RunJobs runs queued work and its continuations in FIFO order, including
// jobs queued while running.
func (f *Fake) RunJobs() {
	for len(f.jobs) > 0 {
		work := f.jobs[0]
		f.jobs = f.jobs[1:]
		if cont := work(); cont != nil {
			cont()
		}
	}
}

// RunJob runs only the i-th queued job, for completion-order tests.
func (f *Fake) RunJob(i int) {
	work := f.jobs[i]
	f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
	if cont := work(); cont != nil {
		cont()
	}
}
