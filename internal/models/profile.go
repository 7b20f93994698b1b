package models

import "github.com/google/uuid"

// WeightUnit is the user's display unit. Storage is always kilograms.
type WeightUnit string

const (
	UnitKilograms WeightUnit = "kg"
	UnitPounds    WeightUnit = "lb"
)

// KilogramsPerPound is the exact international avoirdupois pound.
const KilogramsPerPound = 0.45359237

// ToKilograms converts a value entered in unit to the canonical kilogram value.
func ToKilograms(v float64, unit WeightUnit) float64 {
	if unit == UnitPounds {
		return v * KilogramsPerPound
	}
	return v
}

// FromKilograms converts a stored kilogram value into unit.
func FromKilograms(kg float64, unit WeightUnit) float64 {
	if unit == UnitPounds {
		return kg / KilogramsPerPound
	}
	return kg
}

// UserProfile holds the defaults and thresholds the engines read.
type UserProfile struct {
	ID                       uuid.UUID  `json:"id"`
	Name                     string     `json:"name"`
	PreferredWeightUnit      WeightUnit `json:"preferred_weight_unit"`
	TargetWorkoutDaysPerWeek *int       `json:"target_workout_days_per_week,omitempty"`
	TargetWorkoutMinutes     *int       `json:"target_workout_minutes,omitempty"`
}
