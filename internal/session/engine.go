// Package session runs the one live workout: it mutates the session graph,
// drives the rest and elapsed timers, and hands finished sessions to the
// record and calendar engines.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"
)

var (
	// ErrSessionActive is returned when starting while another session is live.
	ErrSessionActive = errors.New("a session is already active")
	// ErrNoSession is returned when an operation needs a session and there is none.
	ErrNoSession = errors.New("no session")
	// ErrTemplateNotFound is returned when starting from an unknown template.
	ErrTemplateNotFound = errors.New("template not found")
)

// State is the engine's lifecycle position.
type State int

const (
	NotStarted State = iota
	Active
	Finished
	Discarded
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Finished:
		return "finished"
	case Discarded:
		return "discarded"
	default:
		return "not_started"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not_started":
		*s = NotStarted
	case "active":
		*s = Active
	case "finished":
		*s = Finished
	case "discarded":
		*s = Discarded
	default:
		return fmt.Errorf("unknown session state %q", b)
	}
	return nil
}

// Change names an observable field that was updated.
type Change string

const (
	ChangeSession   Change = "session"
	ChangeExercises Change = "exercises"
	ChangeRestTimer Change = "rest_timer"
	ChangeElapsed   Change = "elapsed"
	ChangePRAlert   Change = "pr_alert"
	ChangeState     Change = "state"
)

// Store is the persistence the engine needs.
type Store interface {
	Sessions(ctx context.Context, q models.SessionQuery) ([]*models.WorkoutSession, error)
	SaveSession(ctx context.Context, s *models.WorkoutSession) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	Template(ctx context.Context, id uuid.UUID) (*models.WorkoutTemplate, error)
	SaveTemplate(ctx context.Context, t *models.WorkoutTemplate) error
	Profile(ctx context.Context) (*models.UserProfile, error)
}

// RecordEngine detects records live and ranks them at finish.
type RecordEngine interface {
	NewDetector(sessionID uuid.UUID) *records.Detector
	Finalize(ctx context.Context, s *models.WorkoutSession) (time.Time, error)
}

// CalendarInvalidator drops derived calendar state from a day onward.
type CalendarInvalidator interface {
	Invalidate(from time.Time)
}

// Metrics receives domain counters. All methods must be cheap and non-blocking.
type Metrics interface {
	SetLogged(exerciseType string)
	PRAlert(kind string)
	SessionFinished(status string)
}

type nopMetrics struct{}

func (nopMetrics) SetLogged(string)       {}
func (nopMetrics) PRAlert(string)         {}
func (nopMetrics) SessionFinished(string) {}

// Options configures an Engine. Zero values pick the real clock, the default
// status policy and no metrics.
type Options struct {
	Clock                clock.Clock
	Scheduler            clock.Scheduler
	Policy               calendar.StatusPolicy
	DefaultTargetMinutes int
	Metrics              Metrics
}

// Engine holds at most one live session. Every command and timer callback
// runs under one mutex, so each command completes atomically.
type Engine struct {
	store         Store
	records       RecordEngine
	calendar      CalendarInvalidator
	logger        *slog.Logger
	clock         clock.Clock
	sched         clock.Scheduler
	policy        calendar.StatusPolicy
	metrics       Metrics
	defaultTarget int

	mu          sync.Mutex
	state       State
	session     *models.WorkoutSession
	current     int
	detector    *records.Detector
	latestAlert *records.Alert
	elapsed     time.Duration
	elapsedTask clock.Task
	elapsedGen  int
	restLeft    int
	restTask    clock.Task
	restGen     int

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// New creates an engine in the NotStarted state.
func New(store Store, rec RecordEngine, cal CalendarInvalidator, logger *slog.Logger, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clock.System{}
	}
	if opts.Policy == nil {
		opts.Policy = calendar.DefaultPolicy
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	return &Engine{
		store:         store,
		records:       rec,
		calendar:      cal,
		logger:        logger,
		clock:         opts.Clock,
		sched:         opts.Scheduler,
		policy:        opts.Policy,
		metrics:       opts.Metrics,
		defaultTarget: opts.DefaultTargetMinutes,
		subs:          make(map[int]chan Change),
	}
}

// Snapshot is a consistent copy of every observable field.
type Snapshot struct {
	State                State                  `json:"state"`
	Session              *models.WorkoutSession `json:"session,omitempty"`
	CurrentExercise      int                    `json:"current_exercise"`
	RestRemainingSeconds int                    `json:"rest_remaining_seconds"`
	ElapsedSeconds       int64                  `json:"elapsed_seconds"`
	LatestAlert          *records.Alert         `json:"latest_alert,omitempty"`
}

// Snapshot returns all observable state at once.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:                e.state,
		Session:              e.session.Clone(),
		CurrentExercise:      e.current,
		RestRemainingSeconds: e.restLeft,
		ElapsedSeconds:       int64(e.elapsed / time.Second),
		LatestAlert:          cloneAlert(e.latestAlert),
	}
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Session returns a copy of the live or just-finished session, or nil.
func (e *Engine) Session() *models.WorkoutSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}

// Exercises returns a copy of the session's exercises in order.
func (e *Engine) Exercises() []*models.ExerciseSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	out := make([]*models.ExerciseSession, len(e.session.Exercises))
	for i, ex := range e.session.Exercises {
		out[i] = ex.Clone()
	}
	return out
}

// CurrentExercise returns the index of the exercise the user is on.
func (e *Engine) CurrentExercise() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// RestRemaining returns the rest countdown.
func (e *Engine) RestRemaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Duration(e.restLeft) * time.Second
}

// Elapsed returns the time since the session started, as of the last tick,
// or the frozen final value once finished.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// LatestAlert returns the most recent live record alert, if any.
func (e *Engine) LatestAlert() *records.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAlert(e.latestAlert)
}

func cloneAlert(a *records.Alert) *records.Alert {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Subscribe returns a channel of change notifications and a cancel func.
// Notifications are dropped when the subscriber falls behind; readers should
// re-read state after each notification rather than count them.
func (e *Engine) Subscribe() (<-chan Change, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextID
	e.nextID++
	ch := make(chan Change, 32)
	e.subs[id] = ch
	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

func (e *Engine) notify(changes ...Change) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		for _, c := range changes {
			select {
			case ch <- c:
			default:
			}
		}
	}
}

// save persists the live session. Failures are logged and never undo the
// in-memory change; the next mutation saves again.
func (e *Engine) save(ctx context.Context) {
	if e.session == nil {
		return
	}
	e.session.UpdatedAt = e.clock.Now()
	if err := e.store.SaveSession(ctx, e.session); err != nil {
		e.logger.Warn("saving session", "session_id", e.session.ID, "error", err)
	}
}

// active returns the live session, or nil when no session is active.
func (e *Engine) active() *models.WorkoutSession {
	if e.state != Active {
		return nil
	}
	return e.session
}

func (e *Engine) exerciseAt(index int) *models.ExerciseSession {
	s := e.active()
	if s == nil || index < 0 || index >= len(s.Exercises) {
		return nil
	}
	return s.Exercises[index]
}
