package alpha

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/models"
)

// Convert turns an exported workout into a completed session. Only working
// sets are kept; warmups never count toward history. defs maps lower-cased
// exercise names to catalog entries. Exported workouts have no planned
// target, so the profile target classifies them.
func Convert(w Workout, defs map[string]*models.ExerciseDefinition, profile *models.UserProfile, policy calendar.StatusPolicy) *models.WorkoutSession {
	id := uuid.New()
	done := w.Start.Add(w.Duration)
	s := &models.WorkoutSession{
		ID:            id,
		Name:          w.Name,
		StartedAt:     w.Start,
		CompletedAt:   &done,
		UpdatedAt:     done,
		IsManualEntry: true,
		Exercises:     make([]*models.ExerciseSession, 0, len(w.Exercises)),
		Stretches:     []*models.StretchEntry{},
	}
	if profile != nil {
		s.UserID = profile.ID
		if profile.TargetWorkoutMinutes != nil {
			v := *profile.TargetWorkoutMinutes
			s.TargetDurationMinutes = &v
		}
	}
	status := policy.Classify(w.Duration, s.TargetDurationMinutes)
	s.Status = &status

	for i, ex := range w.Exercises {
		es := &models.ExerciseSession{
			ID:         uuid.New(),
			SessionID:  id,
			Name:       ex.Name,
			Order:      i,
			Definition: defs[strings.ToLower(ex.Name)],
			Effort:     effort(ex.Sets),
			Sets:       make([]*models.PerformedSet, 0, len(ex.Sets)),
		}
		for j, set := range ex.Sets {
			at := done
			ps := &models.PerformedSet{
				ID:          uuid.New(),
				Order:       j,
				Reps:        set.Reps,
				IsCompleted: true,
				CompletedAt: &at,
			}
			if !set.Bodyweight || set.WeightKg > 0 {
				kg := set.WeightKg
				ps.Weight = &kg
			}
			es.Sets = append(es.Sets, ps)
		}
		s.Exercises = append(s.Exercises, es)
	}
	return s
}

// effort maps the hardest set's reps in reserve onto a 1..10 scale.
func effort(sets []Set) *int {
	if len(sets) == 0 {
		return nil
	}
	rir := math.Inf(1)
	for _, s := range sets {
		rir = math.Min(rir, s.RIR)
	}
	v := int(math.Round(10 - rir))
	v = min(max(v, 1), 10)
	return &v
}
