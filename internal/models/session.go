package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutStatus classifies a finished session against its target duration.
type WorkoutStatus string

const (
	StatusExceeded  WorkoutStatus = "exceeded"
	StatusTargetMet WorkoutStatus = "target_met"
	StatusPartial   WorkoutStatus = "partial"
)

// Priority orders statuses for day-level aggregation: exceeded > target_met > partial.
func (s WorkoutStatus) Priority() int {
	switch s {
	case StatusExceeded:
		return 3
	case StatusTargetMet:
		return 2
	case StatusPartial:
		return 1
	default:
		return 0
	}
}

// WorkoutSession is one performed workout. CompletedAt is nil while in progress.
type WorkoutSession struct {
	ID                    uuid.UUID          `json:"id"`
	UserID                uuid.UUID          `json:"user_id"`
	Name                  string             `json:"name"`
	Notes                 string             `json:"notes"`
	StartedAt             time.Time          `json:"started_at"`
	CompletedAt           *time.Time         `json:"completed_at,omitempty"`
	UpdatedAt             time.Time          `json:"updated_at"`
	TargetDurationMinutes *int               `json:"target_duration_minutes,omitempty"`
	TemplateID            *uuid.UUID         `json:"template_id,omitempty"`
	Status                *WorkoutStatus     `json:"status,omitempty"`
	IsManualEntry         bool               `json:"is_manual_entry"`
	Exercises             []*ExerciseSession `json:"exercises"`
	Stretches             []*StretchEntry    `json:"stretches"`
}

// IsCompleted reports whether the session has been finished.
func (s *WorkoutSession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// Duration returns CompletedAt-StartedAt for finished sessions and zero otherwise.
func (s *WorkoutSession) Duration() time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// DefinitionIDs returns the distinct exercise definitions referenced by the session.
func (s *WorkoutSession) DefinitionIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, ex := range s.Exercises {
		if ex.Definition == nil || seen[ex.Definition.ID] {
			continue
		}
		seen[ex.Definition.ID] = true
		ids = append(ids, ex.Definition.ID)
	}
	return ids
}

// ExercisesFor returns the session's exercises performed against one definition.
func (s *WorkoutSession) ExercisesFor(definitionID uuid.UUID) []*ExerciseSession {
	var out []*ExerciseSession
	for _, ex := range s.Exercises {
		if ex.Definition != nil && ex.Definition.ID == definitionID {
			out = append(out, ex)
		}
	}
	return out
}

// FindSet locates a set anywhere in the session graph.
func (s *WorkoutSession) FindSet(setID uuid.UUID) (*ExerciseSession, *PerformedSet) {
	for _, ex := range s.Exercises {
		for _, set := range ex.Sets {
			if set.ID == setID {
				return ex, set
			}
		}
	}
	return nil, nil
}

// Normalize sorts all child collections by their explicit order.
func (s *WorkoutSession) Normalize() {
	SortByOrder(s.Exercises)
	SortByOrder(s.Stretches)
	for _, ex := range s.Exercises {
		SortByOrder(ex.Sets)
	}
}

// Clone returns a deep copy of the session graph. Definitions are shared since they are immutable.
func (s *WorkoutSession) Clone() *WorkoutSession {
	if s == nil {
		return nil
	}
	c := *s
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.TargetDurationMinutes = cloneInt(s.TargetDurationMinutes)
	if s.TemplateID != nil {
		id := *s.TemplateID
		c.TemplateID = &id
	}
	if s.Status != nil {
		st := *s.Status
		c.Status = &st
	}
	c.Exercises = make([]*ExerciseSession, len(s.Exercises))
	for i, ex := range s.Exercises {
		c.Exercises[i] = ex.Clone()
	}
	c.Stretches = make([]*StretchEntry, len(s.Stretches))
	for i, st := range s.Stretches {
		cp := *st
		cp.DurationSeconds = cloneInt(st.DurationSeconds)
		c.Stretches[i] = &cp
	}
	return &c
}

// ExerciseSession is one exercise performed inside a workout session.
type ExerciseSession struct {
	ID          uuid.UUID           `json:"id"`
	SessionID   uuid.UUID           `json:"session_id"`
	Name        string              `json:"name"`
	Order       int                 `json:"order"`
	RestSeconds *int                `json:"rest_seconds,omitempty"`
	Effort      *int                `json:"effort,omitempty"`
	Definition  *ExerciseDefinition `json:"definition,omitempty"`
	Sets        []*PerformedSet     `json:"sets"`
}

func (e *ExerciseSession) GetOrder() int  { return e.Order }
func (e *ExerciseSession) SetOrder(o int) { e.Order = o }

// Volume sums reps*weight over completed, weighted sets.
func (e *ExerciseSession) Volume() float64 {
	var v float64
	for _, set := range e.Sets {
		if set.IsCompleted && set.Weight != nil {
			v += float64(set.Reps) * *set.Weight
		}
	}
	return v
}

// Clone deep-copies the exercise and its sets.
func (e *ExerciseSession) Clone() *ExerciseSession {
	c := *e
	c.RestSeconds = cloneInt(e.RestSeconds)
	c.Effort = cloneInt(e.Effort)
	c.Sets = make([]*PerformedSet, len(e.Sets))
	for i, set := range e.Sets {
		cp := *set
		cp.Weight = cloneFloat(set.Weight)
		cp.CompletedAt = cloneTime(set.CompletedAt)
		cp.DurationSeconds = cloneInt(set.DurationSeconds)
		c.Sets[i] = &cp
	}
	return &c
}

// PerformedSet is one set. For cardio exercises Reps holds the distance in meters
// and DurationSeconds the time taken.
type PerformedSet struct {
	ID              uuid.UUID  `json:"id"`
	Order           int        `json:"order"`
	Reps            int        `json:"reps"`
	Weight          *float64   `json:"weight_kg,omitempty"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
}

func (p *PerformedSet) GetOrder() int  { return p.Order }
func (p *PerformedSet) SetOrder(o int) { p.Order = o }

// StretchEntry is a stretch performed in a session.
type StretchEntry struct {
	ID              uuid.UUID `json:"id"`
	SessionID       uuid.UUID `json:"session_id"`
	Name            string    `json:"name"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	Order           int       `json:"order"`
}

func (s *StretchEntry) GetOrder() int  { return s.Order }
func (s *StretchEntry) SetOrder(o int) { s.Order = o }

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

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
