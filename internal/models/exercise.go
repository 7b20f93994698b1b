package models

import "github.com/google/uuid"

// ExerciseType distinguishes weight-based work from distance/time work.
type ExerciseType string

const (
	ExerciseStrength ExerciseType = "strength"
	ExerciseCardio   ExerciseType = "cardio"
)

// Valid reports whether t is a known exercise type.
func (t ExerciseType) Valid() bool {
	return t == ExerciseStrength || t == ExerciseCardio
}

// ExerciseDefinition is the catalog identity shared by templates and sessions.
// History and personal records match on ID, never on name.
type ExerciseDefinition struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	MuscleGroup *string      `json:"muscle_group,omitempty"`
	Equipment   *string      `json:"equipment,omitempty"`
	Type        ExerciseType `json:"type"`
}

// IsCardio reports whether sets of this exercise store distance/duration.
func (d *ExerciseDefinition) IsCardio() bool {
	return d != nil && d.Type == ExerciseCardio
}
