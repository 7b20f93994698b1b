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

// Finish completes the live session at the current time. Calling it again on
// a finished session returns that session unchanged.
func (e *Engine) Finish(ctx context.Context) (*models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Finished {
		return e.session.Clone(), nil
	}
	if e.state != Active {
		return nil, ErrNoSession
	}
	return e.finish(ctx, e.clock.Now())
}

// FinishManual completes the live session with an explicit duration, for
// sessions logged after the fact.
func (e *Engine) FinishManual(ctx context.Context, minutes int) (*models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Finished {
		return e.session.Clone(), nil
	}
	if e.state != Active {
		return nil, ErrNoSession
	}
	return e.finish(ctx, e.session.StartedAt.Add(time.Duration(max(minutes, 0))*time.Minute))
}

// finish runs the completion sequence: classify, save, rank records, then
// invalidate the calendar. Caller holds mu.
func (e *Engine) finish(ctx context.Context, completedAt time.Time) (*models.WorkoutSession, error) {
	s := e.session
	e.stopTimers()
	s.CompletedAt = &completedAt
	e.elapsed = s.Duration()
	status := e.policy.Classify(s.Duration(), s.TargetDurationMinutes)
	s.Status = &status
	e.state = Finished
	e.detector = nil

	e.save(ctx)
	var err error
	from := s.StartedAt
	changed, ferr := e.records.Finalize(ctx, s)
	if ferr != nil {
		e.logger.Warn("finalizing personal records", "session_id", s.ID, "error", ferr)
		err = fmt.Errorf("finalizing personal records: %w", ferr)
	}
	// Re-ranking can move medals on sessions from earlier years.
	if !changed.IsZero() && changed.Before(from) {
		from = changed
	}
	if e.calendar != nil {
		e.calendar.Invalidate(from)
	}
	e.metrics.SessionFinished(string(status))
	e.logger.Info("session finished", "session_id", s.ID, "status", status, "duration", s.Duration())
	e.notify(ChangeState, ChangeSession, ChangeElapsed, ChangeRestTimer)
	return s.Clone(), err
}

// Discard deletes the live session and everything it owns. No records or
// calendar state are touched.
func (e *Engine) Discard(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Active {
		return ErrNoSession
	}
	id := e.session.ID
	e.stopTimers()
	if err := e.store.DeleteSession(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		e.logger.Warn("deleting discarded session", "session_id", id, "error", err)
	}
	e.state = Discarded
	e.session = nil
	e.current = 0
	e.detector = nil
	e.latestAlert = nil
	e.elapsed = 0
	e.metrics.SessionFinished("discarded")
	e.logger.Info("session discarded", "session_id", id)
	e.notify(ChangeState, ChangeSession, ChangeExercises, ChangeElapsed, ChangeRestTimer, ChangePRAlert)
	return nil
}

// SaveAsTemplate turns the live or just-finished session into a template.
// Only completed sets become set goals; exercises without any are left out.
func (e *Engine) SaveAsTemplate(ctx context.Context, name string) (*models.WorkoutTemplate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil {
		return nil, ErrNoSession
	}
	if name == "" {
		name = s.Name
	}
	now := e.clock.Now()
	t := &models.WorkoutTemplate{
		ID:                    uuid.New(),
		Name:                  name,
		Notes:                 s.Notes,
		TargetDurationMinutes: cloneInt(s.TargetDurationMinutes),
		Exercises:             []*models.TemplateExercise{},
		Stretches:             []*models.StretchGoal{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	for _, ex := range s.Exercises {
		te := &models.TemplateExercise{
			ID:          uuid.New(),
			Name:        ex.Name,
			Order:       len(t.Exercises),
			RestSeconds: cloneInt(ex.RestSeconds),
			Definition:  ex.Definition,
		}
		for _, set := range ex.Sets {
			if !set.IsCompleted {
				continue
			}
			te.SetGoals = append(te.SetGoals, &models.SetGoal{
				ID:              uuid.New(),
				Order:           len(te.SetGoals),
				Reps:            set.Reps,
				Weight:          cloneFloat(set.Weight),
				DurationSeconds: cloneInt(set.DurationSeconds),
			})
		}
		if len(te.SetGoals) > 0 {
			t.Exercises = append(t.Exercises, te)
		}
	}
	for i, st := range s.Stretches {
		t.Stretches = append(t.Stretches, &models.StretchGoal{
			ID:              uuid.New(),
			Name:            st.Name,
			DurationSeconds: cloneInt(st.DurationSeconds),
			Order:           i,
		})
	}
	if err := e.store.SaveTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("saving template: %w", err)
	}
	e.logger.Info("template saved from session", "session_id", s.ID, "template_id", t.ID, "exercises", len(t.Exercises))
	return t, nil
}

// Forget drops a finished or discarded session the engine still holds once
// it has been deleted from history. It reports whether anything was dropped.
// An active session is never forgotten.
func (e *Engine) Forget(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Active || e.session == nil || e.session.ID != id {
		return false
	}
	e.state = NotStarted
	e.session = nil
	e.current = 0
	e.detector = nil
	e.latestAlert = nil
	e.elapsed = 0
	e.logger.Debug("forgot deleted session", "session_id", id)
	e.notify(ChangeState, ChangeSession, ChangeExercises, ChangeElapsed, ChangePRAlert)
	return true
}
