package records

import (
	"math"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// weightEpsilon absorbs float noise when comparing kilogram values.
const weightEpsilon = 0.001

func sameWeight(a, b float64) bool {
	return math.Abs(a-b) <= weightEpsilon
}

// ComputeBaseline builds the best-ever snapshot for definitionID from sessions.
// Only completed sessions and completed, weighted sets count.
func ComputeBaseline(sessions []*models.WorkoutSession, definitionID uuid.UUID) models.Baseline {
	var b models.Baseline
	for _, s := range sessions {
		if !s.IsCompleted() {
			continue
		}
		var volume float64
		var weighted bool
		for _, ex := range s.ExercisesFor(definitionID) {
			for _, set := range ex.Sets {
				if !set.IsCompleted || set.Weight == nil {
					continue
				}
				w := *set.Weight
				weighted = true
				volume += float64(set.Reps) * w
				switch {
				case b.MaxWeightKg == nil || w > *b.MaxWeightKg+weightEpsilon:
					b.MaxWeightKg = &w
					reps := set.Reps
					b.MaxRepsAtMaxWeight = &reps
				case sameWeight(w, *b.MaxWeightKg) && set.Reps > *b.MaxRepsAtMaxWeight:
					reps := set.Reps
					b.MaxRepsAtMaxWeight = &reps
				}
			}
		}
		if weighted && (b.BestVolumeKg == nil || volume > *b.BestVolumeKg) {
			v := volume
			b.BestVolumeKg = &v
		}
	}
	return b
}

// isEmpty reports whether the baseline carries no history at all.
func isEmpty(b *models.Baseline) bool {
	return b.MaxWeightKg == nil && b.BestVolumeKg == nil
}
