package session

import "time"

const tick = time.Second

// startRest restarts the rest countdown from seconds. A non-positive value
// clears the countdown. Caller holds mu.
func (e *Engine) startRest(seconds int) {
	e.stopRest()
	if seconds <= 0 {
		return
	}
	e.restLeft = seconds
	gen := e.restGen
	e.restTask = e.sched.Every(tick, func() { e.restTick(gen) })
	e.notify(ChangeRestTimer)
}

func (e *Engine) restTick(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.restGen || e.restLeft <= 0 {
		return
	}
	e.restLeft--
	if e.restLeft == 0 {
		e.stopRest()
	}
	e.notify(ChangeRestTimer)
}

// stopRest cancels the countdown and zeroes it. Caller holds mu.
func (e *Engine) stopRest() {
	e.restGen++
	if e.restTask != nil {
		e.restTask.Stop()
		e.restTask = nil
	}
	e.restLeft = 0
}

// startElapsed ticks the elapsed time. Each tick recomputes it from the start
// time, so a missed tick never drifts. Caller holds mu.
func (e *Engine) startElapsed() {
	e.stopElapsed()
	gen := e.elapsedGen
	e.elapsedTask = e.sched.Every(tick, func() { e.elapsedTick(gen) })
}

func (e *Engine) elapsedTick(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.elapsedGen || e.state != Active || e.session == nil {
		return
	}
	e.elapsed = max(e.clock.Now().Sub(e.session.StartedAt), 0)
	e.notify(ChangeElapsed)
}

func (e *Engine) stopElapsed() {
	e.elapsedGen++
	if e.elapsedTask != nil {
		e.elapsedTask.Stop()
		e.elapsedTask = nil
	}
}

func (e *Engine) stopTimers() {
	e.stopRest()
	e.stopElapsed()
}

// Close stops the timers without touching the session. The session stays
// in the store and can be resumed by a later Engine.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimers()
}
