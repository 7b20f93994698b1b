package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock and Scheduler. Callbacks run synchronously
// inside Advance on the caller's goroutine.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	tasks  map[int]*fakeTask
}

// NewFake returns a fake clock set to now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now, tasks: make(map[int]*fakeTask)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t without firing any task.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

func (f *Fake) Every(d time.Duration, fn func()) Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := &fakeTask{fake: f, id: f.nextID, period: d, next: f.now.Add(d), fn: fn}
	f.tasks[t.id] = t
	return t
}

// Active returns the number of tasks that have not been stopped.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// Advance moves the clock forward by d, firing every due tick in time order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var due *fakeTask
		for _, t := range f.sortedTasks() {
			if !t.next.After(target) {
				due = t
				break
			}
		}
		if due == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = due.next
		due.next = due.next.Add(due.period)
		fn := due.fn
		f.mu.Unlock()

		fn()
	}
}

// sortedTasks orders tasks by next fire time, then creation. Caller holds mu.
func (f *Fake) sortedTasks() []*fakeTask {
	out := make([]*fakeTask, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].next.Equal(out[j].next) {
			return out[i].next.Before(out[j].next)
		}
		return out[i].id < out[j].id
	})
	return out
}

type fakeTask struct {
	fake   *Fake
	id     int
	period time.Duration
	next   time.Time
	fn     func()
}

func (t *fakeTask) Stop() {
	t.fake.mu.Lock()
	delete(t.fake.tasks, t.id)
	t.fake.mu.Unlock()
}
