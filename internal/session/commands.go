package session

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// Live commands are silent no-ops when no session is active or an index or
// ID does not resolve. Each one saves the session and notifies observers.

// AddExercise appends an exercise for def and makes it current.
func (e *Engine) AddExercise(ctx context.Context, def *models.ExerciseDefinition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil || def == nil {
		return
	}
	s.Exercises = append(s.Exercises, &models.ExerciseSession{
		ID:         uuid.New(),
		SessionID:  s.ID,
		Name:       def.Name,
		Order:      models.NextOrder(s.Exercises),
		Definition: def,
		Sets:       []*models.PerformedSet{},
	})
	e.current = len(s.Exercises) - 1
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// RemoveExercise deletes the exercise at index with its sets. The current
// pointer keeps following the same exercise, or is clamped when it was removed.
func (e *Engine) RemoveExercise(ctx context.Context, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exerciseAt(index) == nil {
		return
	}
	s := e.session
	s.Exercises = slices.Delete(s.Exercises, index, index+1)
	models.Renumber(s.Exercises)
	switch {
	case index < e.current:
		e.current--
	case e.current >= len(s.Exercises):
		e.current = max(len(s.Exercises)-1, 0)
	}
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// ReorderExercise moves the exercise at from to position to.
func (e *Engine) ReorderExercise(ctx context.Context, from, to int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	moved, ok := models.Move(s.Exercises, from, to)
	if !ok {
		return
	}
	s.Exercises = moved
	switch {
	case e.current == from:
		e.current = to
	case from < e.current && to >= e.current:
		e.current--
	case from > e.current && to <= e.current:
		e.current++
	}
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// SetCurrentExercise moves the current pointer.
func (e *Engine) SetCurrentExercise(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exerciseAt(index) == nil {
		return
	}
	e.current = index
	e.notify(ChangeExercises)
}

// LogSet appends a completed strength set, restarts the rest timer and runs
// live record detection.
func (e *Engine) LogSet(ctx context.Context, index, reps int, weightKg *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex := e.exerciseAt(index)
	if ex == nil {
		return
	}
	e.appendCompleted(ctx, ex, &models.PerformedSet{Reps: reps, Weight: cloneFloat(weightKg)})
}

// LogCardio appends a completed cardio set. Reps carries the distance.
func (e *Engine) LogCardio(ctx context.Context, index, distanceMeters, durationSeconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex := e.exerciseAt(index)
	if ex == nil {
		return
	}
	d := durationSeconds
	e.appendCompleted(ctx, ex, &models.PerformedSet{Reps: distanceMeters, DurationSeconds: &d})
}

func (e *Engine) appendCompleted(ctx context.Context, ex *models.ExerciseSession, set *models.PerformedSet) {
	now := e.clock.Now()
	set.ID = uuid.New()
	set.Order = models.NextOrder(ex.Sets)
	set.IsCompleted = true
	set.CompletedAt = &now
	ex.Sets = append(ex.Sets, set)
	e.afterCompletion(ctx, ex, set)
}

// afterCompletion runs the shared tail of LogSet, LogCardio and CompleteSet.
func (e *Engine) afterCompletion(ctx context.Context, ex *models.ExerciseSession, set *models.PerformedSet) {
	if !e.session.IsManualEntry && ex.RestSeconds != nil {
		e.startRest(*ex.RestSeconds)
	}
	e.metrics.SetLogged(exerciseType(ex))
	e.detect(ctx, ex, set)
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

func (e *Engine) detect(ctx context.Context, ex *models.ExerciseSession, set *models.PerformedSet) {
	if e.detector == nil {
		return
	}
	alert := e.detector.Check(ctx, e.session, ex, set, e.clock.Now())
	if alert == nil {
		return
	}
	e.latestAlert = alert
	e.metrics.PRAlert(string(alert.Kind))
	e.logger.Info("personal record", "session_id", e.session.ID, "exercise", alert.ExerciseName, "kind", alert.Kind)
	e.notify(ChangePRAlert)
}

func exerciseType(ex *models.ExerciseSession) string {
	if ex.Definition == nil {
		return string(models.ExerciseStrength)
	}
	return string(ex.Definition.Type)
}

// AddPlannedSet appends an incomplete set that repeats the last set's values.
func (e *Engine) AddPlannedSet(ctx context.Context, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex := e.exerciseAt(index)
	if ex == nil {
		return
	}
	set := &models.PerformedSet{ID: uuid.New(), Order: models.NextOrder(ex.Sets)}
	if n := len(ex.Sets); n > 0 {
		last := ex.Sets[n-1]
		set.Reps = last.Reps
		set.Weight = cloneFloat(last.Weight)
		set.DurationSeconds = cloneInt(last.DurationSeconds)
	}
	ex.Sets = append(ex.Sets, set)
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// CompleteSet fills in a planned set with the performed values and marks it
// done. It restarts the rest timer and runs live detection like LogSet.
func (e *Engine) CompleteSet(ctx context.Context, setID uuid.UUID, reps int, weightKg *float64, durationSeconds *int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	ex, set := s.FindSet(setID)
	if set == nil {
		return
	}
	now := e.clock.Now()
	set.Reps = reps
	set.Weight = cloneFloat(weightKg)
	set.DurationSeconds = cloneInt(durationSeconds)
	set.IsCompleted = true
	set.CompletedAt = &now
	e.afterCompletion(ctx, ex, set)
}

// UpdateSet edits a set's values without touching completion or timers.
func (e *Engine) UpdateSet(ctx context.Context, setID uuid.UUID, reps int, weightKg *float64, durationSeconds *int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	_, set := s.FindSet(setID)
	if set == nil {
		return
	}
	set.Reps = reps
	set.Weight = cloneFloat(weightKg)
	set.DurationSeconds = cloneInt(durationSeconds)
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// RemoveSet deletes a set and renumbers its siblings.
func (e *Engine) RemoveSet(ctx context.Context, setID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	ex, set := s.FindSet(setID)
	if set == nil {
		return
	}
	ex.Sets = slices.DeleteFunc(ex.Sets, func(p *models.PerformedSet) bool { return p.ID == setID })
	models.Renumber(ex.Sets)
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// UncompleteSet reverts a set to planned.
func (e *Engine) UncompleteSet(ctx context.Context, setID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	_, set := s.FindSet(setID)
	if set == nil {
		return
	}
	set.IsCompleted = false
	set.CompletedAt = nil
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// SetEffort records perceived effort, clamped to 1..10.
func (e *Engine) SetEffort(ctx context.Context, index, effort int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex := e.exerciseAt(index)
	if ex == nil {
		return
	}
	v := min(max(effort, 1), 10)
	ex.Effort = &v
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// SetRestSeconds changes the exercise's rest duration. Nil or non-positive
// clears it. A running countdown is left alone.
func (e *Engine) SetRestSeconds(ctx context.Context, index int, seconds *int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex := e.exerciseAt(index)
	if ex == nil {
		return
	}
	if seconds != nil && *seconds <= 0 {
		seconds = nil
	}
	ex.RestSeconds = cloneInt(seconds)
	e.save(ctx)
	e.notify(ChangeExercises, ChangeSession)
}

// SkipRest cancels the rest countdown.
func (e *Engine) SkipRest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Active || e.restLeft == 0 {
		return
	}
	e.stopRest()
	e.notify(ChangeRestTimer)
}

// AddStretch appends a stretch entry.
func (e *Engine) AddStretch(ctx context.Context, name string, durationSeconds *int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil || name == "" {
		return
	}
	s.Stretches = append(s.Stretches, &models.StretchEntry{
		ID:              uuid.New(),
		SessionID:       s.ID,
		Name:            name,
		DurationSeconds: cloneInt(durationSeconds),
		Order:           models.NextOrder(s.Stretches),
	})
	e.save(ctx)
	e.notify(ChangeSession)
}

// RemoveStretch deletes a stretch entry and renumbers the rest.
func (e *Engine) RemoveStretch(ctx context.Context, id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	n := len(s.Stretches)
	s.Stretches = slices.DeleteFunc(s.Stretches, func(st *models.StretchEntry) bool { return st.ID == id })
	if len(s.Stretches) == n {
		return
	}
	models.Renumber(s.Stretches)
	e.save(ctx)
	e.notify(ChangeSession)
}

// UpdateStretch edits a stretch entry. An empty name keeps the old one.
func (e *Engine) UpdateStretch(ctx context.Context, id uuid.UUID, name string, durationSeconds *int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	i := slices.IndexFunc(s.Stretches, func(st *models.StretchEntry) bool { return st.ID == id })
	if i < 0 {
		return
	}
	if name != "" {
		s.Stretches[i].Name = name
	}
	s.Stretches[i].DurationSeconds = cloneInt(durationSeconds)
	e.save(ctx)
	e.notify(ChangeSession)
}

// Rename changes the session name. Blank names are ignored.
func (e *Engine) Rename(ctx context.Context, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil || name == "" {
		return
	}
	s.Name = name
	e.save(ctx)
	e.notify(ChangeSession)
}

// SetNotes replaces the session notes.
func (e *Engine) SetNotes(ctx context.Context, notes string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.active()
	if s == nil {
		return
	}
	s.Notes = notes
	e.save(ctx)
	e.notify(ChangeSession)
}
