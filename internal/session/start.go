package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// StartFromTemplate begins a timed session with the template's exercises,
// set goals and stretches copied in as incomplete entries.
func (e *Engine) StartFromTemplate(ctx context.Context, templateID uuid.UUID) (*models.WorkoutSession, error) {
	return e.startTemplate(ctx, templateID, nil)
}

// StartManualEntryFromTemplate records a past workout from a template. Every
// set starts completed, no timer runs and live record detection is off.
func (e *Engine) StartManualEntryFromTemplate(ctx context.Context, templateID uuid.UUID, startedAt time.Time) (*models.WorkoutSession, error) {
	return e.startTemplate(ctx, templateID, &startedAt)
}

// StartAdHoc begins an empty timed session.
func (e *Engine) StartAdHoc(ctx context.Context, name string) (*models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Active {
		return nil, ErrSessionActive
	}
	s := e.newSession(ctx, name, e.clock.Now(), nil)
	e.begin(ctx, s, true, true)
	return s.Clone(), nil
}

// StartManualEntry begins an empty session for a past workout. No timer runs;
// the duration is given at finish.
func (e *Engine) StartManualEntry(ctx context.Context, name string, startedAt time.Time) (*models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Active {
		return nil, ErrSessionActive
	}
	s := e.newSession(ctx, name, startedAt, nil)
	s.IsManualEntry = true
	e.begin(ctx, s, false, true)
	return s.Clone(), nil
}

// Resume re-attaches the most recent in-progress session from the store, for
// example after a restart. Elapsed time recovers because it is derived from
// the start time.
func (e *Engine) Resume(ctx context.Context) (*models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Active {
		return nil, ErrSessionActive
	}
	found, err := e.store.Sessions(ctx, models.SessionQuery{InProgressOnly: true, Descending: true, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("looking up in-progress session: %w", err)
	}
	if len(found) == 0 {
		return nil, ErrNoSession
	}
	s := found[0]
	s.Normalize()
	e.begin(ctx, s, !s.IsManualEntry, !s.IsManualEntry)
	e.logger.Info("resumed session", "session_id", s.ID, "started_at", s.StartedAt)
	return s.Clone(), nil
}

func (e *Engine) startTemplate(ctx context.Context, templateID uuid.UUID, manualStart *time.Time) (*models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Active {
		return nil, ErrSessionActive
	}
	t, err := e.store.Template(ctx, templateID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", templateID, err)
	}
	t.Normalize()

	manual := manualStart != nil
	started := e.clock.Now()
	if manual {
		started = *manualStart
	}
	s := e.newSession(ctx, t.Name, started, t.TargetDurationMinutes)
	s.IsManualEntry = manual
	id := t.ID
	s.TemplateID = &id
	s.Notes = t.Notes

	for i, te := range t.Exercises {
		name := te.Name
		if name == "" && te.Definition != nil {
			name = te.Definition.Name
		}
		ex := &models.ExerciseSession{
			ID:          uuid.New(),
			SessionID:   s.ID,
			Name:        name,
			Order:       i,
			RestSeconds: cloneInt(te.RestSeconds),
			Definition:  te.Definition,
			Sets:        make([]*models.PerformedSet, 0, len(te.SetGoals)),
		}
		for j, g := range te.SetGoals {
			set := &models.PerformedSet{
				ID:              uuid.New(),
				Order:           j,
				Reps:            g.Reps,
				Weight:          cloneFloat(g.Weight),
				DurationSeconds: cloneInt(g.DurationSeconds),
			}
			if manual {
				set.IsCompleted = true
				at := started
				set.CompletedAt = &at
			}
			ex.Sets = append(ex.Sets, set)
		}
		s.Exercises = append(s.Exercises, ex)
	}
	for i, sg := range t.Stretches {
		s.Stretches = append(s.Stretches, &models.StretchEntry{
			ID:              uuid.New(),
			SessionID:       s.ID,
			Name:            sg.Name,
			DurationSeconds: cloneInt(sg.DurationSeconds),
			Order:           i,
		})
	}

	e.begin(ctx, s, !manual, !manual)
	return s.Clone(), nil
}

// newSession builds an empty session. The target falls back to the profile
// goal, then to the configured default.
func (e *Engine) newSession(ctx context.Context, name string, startedAt time.Time, target *int) *models.WorkoutSession {
	s := &models.WorkoutSession{
		ID:        uuid.New(),
		Name:      name,
		StartedAt: startedAt,
		UpdatedAt: e.clock.Now(),
		Exercises: []*models.ExerciseSession{},
		Stretches: []*models.StretchEntry{},
	}
	profile, err := e.store.Profile(ctx)
	if err != nil {
		e.logger.Warn("loading profile", "error", err)
	} else {
		s.UserID = profile.ID
	}
	switch {
	case target != nil:
		s.TargetDurationMinutes = cloneInt(target)
	case profile != nil && profile.TargetWorkoutMinutes != nil:
		s.TargetDurationMinutes = cloneInt(profile.TargetWorkoutMinutes)
	case e.defaultTarget > 0:
		v := e.defaultTarget
		s.TargetDurationMinutes = &v
	}
	return s
}

// begin makes s the live session. Caller holds mu.
func (e *Engine) begin(ctx context.Context, s *models.WorkoutSession, timed, detect bool) {
	e.stopTimers()
	e.session = s
	e.state = Active
	e.current = 0
	e.latestAlert = nil
	e.restLeft = 0
	e.elapsed = 0
	e.detector = nil
	if detect {
		e.detector = e.records.NewDetector(s.ID)
	}
	if timed {
		e.elapsed = max(e.clock.Now().Sub(s.StartedAt), 0)
		e.startElapsed()
	}
	e.save(ctx)
	e.logger.Info("session started", "session_id", s.ID, "name", s.Name, "manual", s.IsManualEntry, "exercises", len(s.Exercises))
	e.notify(ChangeState, ChangeSession, ChangeExercises, ChangeElapsed, ChangeRestTimer, ChangePRAlert)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
