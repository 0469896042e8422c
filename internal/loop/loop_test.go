package loop

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLoopRunsPostedHandlersInOrder(t *testing.T) {
	l := New(discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Call(ctx, func() {}); err != nil {
		t.Fatalf("call: %v", err)
	}
	var snapshot []int
	_ = l.Call(ctx, func() { snapshot = append(snapshot, got...) })
	for i, v := range snapshot {
		if v != i {
			t.Fatalf("order = %v", snapshot)
		}
	}
	if len(snapshot) != 5 {
		t.Fatalf("ran %d handlers, want 5", len(snapshot))
	}
}

func TestLoopRecoversPanicsAndKeepsRunning(t *testing.T) {
	l := New(discard())
	var panics atomic.Int32
	l.OnPanic = func(any) { panics.Add(1) }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	l.Post(func() { panic("boom") })
	ran := false
	if err := l.Call(ctx, func() { ran = true }); err != nil {
		t.Fatalf("call: %v", err)
	}
	if !ran {
		t.Fatal("loop stopped after a panic")
	}
	if panics.Load() != 1 {
		t.Fatalf("panic handler calls = %d, want 1", panics.Load())
	}
}

func TestLoopGoPostsContinuation(t *testing.T) {
	l := New(discard())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	done := make(chan string, 1)
	l.Go(func() func() {
		v := "fetched"
		return func() { done <- v }
	})
	select {
	case v := <-done:
		if v != "fetched" {
			t.Fatalf("continuation got %q", v)
		}
	case <-ctx.Done():
		t.Fatal("continuation never ran")
	}
}

func TestDebouncerFiresOnceAfterQuietPeriod(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	d := NewDebouncer(f, 250*time.Millisecond)
	calls := 0
	for i := 0; i < 4; i++ {
		d.Trigger(func() { calls++ })
		f.Advance(100 * time.Millisecond)
	}
	if calls != 0 {
		t.Fatalf("debounced call fired early: %d", calls)
	}
	f.Advance(250 * time.Millisecond)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDebouncerStopCancels(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	d := NewDebouncer(f, 300*time.Millisecond)
	fired := false
	d.Trigger(func() { fired = true })
	d.Stop()
	f.Advance(time.Second)
	if fired {
		t.Fatal("stopped debouncer fired")
	}
}

func TestFakeAdvanceFiresNestedTimers(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var fired []time.Duration
	start := f.Now()
	f.AfterFunc(time.Second, func() {
		fired = append(fired, f.Now().Sub(start))
		f.AfterFunc(time.Second, func() { fired = append(fired, f.Now().Sub(start)) })
	})
	f.Advance(3 * time.Second)
	if len(fired) != 2 || fired[0] != time.Second || fired[1] != 2*time.Second {
		t.Fatalf("fired at %v", fired)
	}
}
