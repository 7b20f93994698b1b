package records

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

type candidate struct {
	value      float64
	reps       *int
	distance   *int
	duration   *int
	achievedAt time.Time
	sessionID  uuid.UUID
}

// Rank returns the gold/silver/bronze records of definitionID derived from
// sessions. Weight and volume rank descending; cardio time ranks ascending per
// distance. Only distinct values are ranked. A weight tie goes to the set with
// more reps, then to the earliest achievement.
func Rank(sessions []*models.WorkoutSession, definitionID uuid.UUID) []*models.PersonalRecord {
	var weights, volumes []candidate
	cardio := make(map[int][]candidate)

	for _, s := range sessions {
		if !s.IsCompleted() {
			continue
		}
		sessionTime := *s.CompletedAt
		var volume float64
		var weighted bool
		for _, ex := range s.ExercisesFor(definitionID) {
			isCardio := ex.Definition.IsCardio()
			for _, set := range ex.Sets {
				if !set.IsCompleted {
					continue
				}
				at := sessionTime
				if set.CompletedAt != nil {
					at = *set.CompletedAt
				}
				if isCardio {
					if set.DurationSeconds == nil || *set.DurationSeconds <= 0 || set.Reps <= 0 {
						continue
					}
					dist, dur := set.Reps, *set.DurationSeconds
					cardio[dist] = append(cardio[dist], candidate{
						value: float64(dur), distance: &dist, duration: &dur, achievedAt: at, sessionID: s.ID,
					})
					continue
				}
				if set.Weight == nil {
					continue
				}
				reps := set.Reps
				weights = append(weights, candidate{value: *set.Weight, reps: &reps, achievedAt: at, sessionID: s.ID})
				volume += float64(set.Reps) * *set.Weight
				weighted = true
			}
		}
		if weighted {
			volumes = append(volumes, candidate{value: volume, achievedAt: sessionTime, sessionID: s.ID})
		}
	}

	var out []*models.PersonalRecord
	out = append(out, podium(weights, definitionID, models.RecordMaxWeight, true)...)
	out = append(out, podium(volumes, definitionID, models.RecordBestVolume, true)...)
	distances := make([]int, 0, len(cardio))
	for d := range cardio {
		distances = append(distances, d)
	}
	slices.Sort(distances)
	for _, d := range distances {
		out = append(out, podium(cardio[d], definitionID, models.RecordCardioTime, false)...)
	}
	return out
}

// podium picks the top three distinct values.
func podium(cs []candidate, definitionID uuid.UUID, typ models.RecordType, descending bool) []*models.PersonalRecord {
	slices.SortStableFunc(cs, func(a, b candidate) int {
		if !sameWeight(a.value, b.value) {
			if descending {
				return cmp.Compare(b.value, a.value)
			}
			return cmp.Compare(a.value, b.value)
		}
		if a.reps != nil && b.reps != nil && *a.reps != *b.reps {
			return cmp.Compare(*b.reps, *a.reps)
		}
		return a.achievedAt.Compare(b.achievedAt)
	})

	var out []*models.PersonalRecord
	last := math.NaN()
	for _, c := range cs {
		if len(out) == 3 {
			break
		}
		if !math.IsNaN(last) && sameWeight(c.value, last) {
			continue
		}
		last = c.value
		out = append(out, &models.PersonalRecord{
			ID:              uuid.New(),
			DefinitionID:    definitionID,
			Type:            typ,
			Medal:           models.Medal(len(out) + 1),
			Value:           c.value,
			Reps:            c.reps,
			DistanceMeters:  c.distance,
			DurationSeconds: c.duration,
			AchievedAt:      c.achievedAt,
			SessionID:       c.sessionID,
		})
	}
	return out
}
