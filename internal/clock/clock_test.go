package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestFakeAdvanceFiresInOrder verifies that each due tick fires once and that
// Now reflects the tick time inside the callback.
func TestFakeAdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var seen []time.Duration
	f.Every(time.Second, func() { seen = append(seen, f.Now().Sub(start)) })

	f.Advance(3500 * time.Millisecond)
	if len(seen) != 3 {
		t.Fatalf("ticks = %d, want 3", len(seen))
	}
	for i, d := range seen {
		if want := time.Duration(i+1) * time.Second; d != want {
			t.Errorf("tick %d at %v, want %v", i, d, want)
		}
	}
	if got := f.Now().Sub(start); got != 3500*time.Millisecond {
		t.Errorf("Now after advance = +%v", got)
	}
}

// TestFakeStopFromCallback verifies that a task can cancel itself mid-advance.
func TestFakeStopFromCallback(t *testing.T) {
	f := NewFake(time.Now())
	n := 0
	var task Task
	task = f.Every(time.Second, func() {
		n++
		if n == 2 {
			task.Stop()
		}
	})
	f.Advance(10 * time.Second)
	if n != 2 {
		t.Errorf("callbacks = %d, want 2", n)
	}
	if f.Active() != 0 {
		t.Errorf("Active = %d, want 0", f.Active())
	}
}

// TestSystemEveryStops verifies that the real scheduler ticks and that Stop
// terminates its goroutine (checked by goleak in TestMain).
func TestSystemEveryStops(t *testing.T) {
	var n atomic.Int32
	task := System{}.Every(5*time.Millisecond, func() { n.Add(1) })
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	task.Stop()
	task.Stop()
	if n.Load() < 2 {
		t.Fatalf("ticks = %d, want >= 2", n.Load())
	}
}
