package calendar

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// DayStatus is the adherence state of one calendar day.
type DayStatus string

const (
	DayExceeded  DayStatus = "exceeded"
	DayTargetMet DayStatus = "target_met"
	DayPartial   DayStatus = "partial"
	DayMissed    DayStatus = "missed"
	DayRest      DayStatus = "rest_day"
)

func fromWorkoutStatus(s models.WorkoutStatus) DayStatus {
	switch s {
	case models.StatusExceeded:
		return DayExceeded
	case models.StatusTargetMet:
		return DayTargetMet
	default:
		return DayPartial
	}
}

// DayData is the derived summary of one calendar day. Status is empty for days
// after today.
type DayData struct {
	Date         time.Time     `json:"date"`
	SessionIDs   []uuid.UUID   `json:"session_ids"`
	MuscleGroups []string      `json:"muscle_groups"`
	HasCardio    bool          `json:"has_cardio"`
	HasPRs       bool          `json:"has_prs"`
	BestMedal    *models.Medal `json:"best_medal,omitempty"`
	Status       DayStatus     `json:"status,omitempty"`
}

// HasSession reports whether any completed session fell on this day.
func (d *DayData) HasSession() bool {
	return len(d.SessionIDs) > 0
}

// Aggregate combines the completed sessions of one day. medals maps session
// IDs to the best medal any record of that session holds.
func Aggregate(date time.Time, sessions []*models.WorkoutSession, medals map[uuid.UUID]models.Medal) DayData {
	d := DayData{Date: date, SessionIDs: []uuid.UUID{}, MuscleGroups: []string{}}
	groups := make(map[string]bool)
	best := 0
	for _, s := range sessions {
		if !s.IsCompleted() {
			continue
		}
		d.SessionIDs = append(d.SessionIDs, s.ID)

		status := models.StatusPartial
		if s.Status != nil {
			status = *s.Status
		}
		if best == 0 || status.Priority() > best {
			best = status.Priority()
			d.Status = fromWorkoutStatus(status)
		}

		for _, ex := range s.Exercises {
			if ex.Definition == nil {
				continue
			}
			if ex.Definition.IsCardio() {
				d.HasCardio = true
			}
			if mg := ex.Definition.MuscleGroup; mg != nil && *mg != "" && !groups[*mg] {
				groups[*mg] = true
				d.MuscleGroups = append(d.MuscleGroups, *mg)
			}
		}

		if m, ok := medals[s.ID]; ok {
			d.HasPRs = true
			if d.BestMedal == nil || m < *d.BestMedal {
				mm := m
				d.BestMedal = &mm
			}
		}
	}
	slices.Sort(d.MuscleGroups)
	return d
}
