// Package clock abstracts wall time and periodic callbacks so timers can be
// driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Task is a handle to a running periodic callback.
type Task interface {
	// Stop cancels future invocations. It is safe to call more than once and
	// from inside the callback itself.
	Stop()
}

// Scheduler runs fn every d until the returned task is stopped.
type Scheduler interface {
	Every(d time.Duration, fn func()) Task
}

// System is the real clock backed by time.Now and time.Ticker.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Every starts a goroutine that invokes fn on each tick.
func (System) Every(d time.Duration, fn func()) Task {
	t := &tickerTask{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

type tickerTask struct {
	once sync.Once
	done chan struct{}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}
