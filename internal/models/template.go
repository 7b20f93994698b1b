package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutTemplate is a reusable plan. Sessions copy it on start; editing a template
// never touches sessions that were started from it.
type WorkoutTemplate struct {
	ID                    uuid.UUID           `json:"id"`
	Name                  string              `json:"name"`
	Notes                 string              `json:"notes"`
	TargetDurationMinutes *int                `json:"target_duration_minutes,omitempty"`
	Exercises             []*TemplateExercise `json:"exercises"`
	Stretches             []*StretchGoal      `json:"stretches"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// Normalize sorts template children by their explicit order.
func (t *WorkoutTemplate) Normalize() {
	SortByOrder(t.Exercises)
	SortByOrder(t.Stretches)
	for _, ex := range t.Exercises {
		SortByOrder(ex.SetGoals)
	}
}

// TemplateExercise is a planned exercise with its set goals.
type TemplateExercise struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Order       int                 `json:"order"`
	RestSeconds *int                `json:"rest_seconds,omitempty"`
	Definition  *ExerciseDefinition `json:"definition,omitempty"`
	SetGoals    []*SetGoal          `json:"set_goals"`
}

func (e *TemplateExercise) GetOrder() int  { return e.Order }
func (e *TemplateExercise) SetOrder(o int) { e.Order = o }

// SetGoal is a planned set.
type SetGoal struct {
	ID              uuid.UUID `json:"id"`
	Order           int       `json:"order"`
	Reps            int       `json:"reps"`
	Weight          *float64  `json:"weight_kg,omitempty"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
}

func (g *SetGoal) GetOrder() int  { return g.Order }
func (g *SetGoal) SetOrder(o int) { g.Order = o }

// StretchGoal is a planned stretch.
type StretchGoal struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	Order           int       `json:"order"`
}

func (g *StretchGoal) GetOrder() int  { return g.Order }
func (g *StretchGoal) SetOrder(o int) { g.Order = o }

// ScheduleStatus is the state of a planned workout day.
type ScheduleStatus string

const (
	SchedulePlanned   ScheduleStatus = "planned"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleSkipped   ScheduleStatus = "skipped"
)

// ScheduledWorkout plans a template (or a free session) for a calendar day.
type ScheduledWorkout struct {
	ID         uuid.UUID      `json:"id"`
	Date       time.Time      `json:"date"`
	TemplateID *uuid.UUID     `json:"template_id,omitempty"`
	Status     ScheduleStatus `json:"status"`
}
