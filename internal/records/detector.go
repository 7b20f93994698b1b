package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// AlertKind names what a live alert celebrates.
type AlertKind string

const (
	AlertMaxWeight AlertKind = "max_weight"
	AlertMoreReps  AlertKind = "more_reps"
	AlertVolume    AlertKind = "volume"
)

// Alert is an ephemeral live-detection result. It is never persisted.
type Alert struct {
	Kind             AlertKind `json:"kind"`
	DefinitionID     uuid.UUID `json:"definition_id"`
	ExerciseName     string    `json:"exercise_name"`
	WeightKg         float64   `json:"weight_kg,omitempty"`
	Reps             int       `json:"reps,omitempty"`
	VolumeKg         float64   `json:"volume_kg,omitempty"`
	PreviousWeightKg *float64  `json:"previous_weight_kg,omitempty"`
	PreviousReps     *int      `json:"previous_reps,omitempty"`
	PreviousVolumeKg *float64  `json:"previous_volume_kg,omitempty"`
	At               time.Time `json:"at"`
}

// Detector performs live record detection for one session. Baselines are
// loaded lazily on first use of each definition and then updated in memory.
// A Detector is not safe for concurrent use; the session engine serialises calls.
type Detector struct {
	engine      *Engine
	sessionID   uuid.UUID
	baselines   map[uuid.UUID]*models.Baseline
	volumeFired map[uuid.UUID]bool
}

// NewDetector returns a detector whose baselines exclude sessionID itself.
func (e *Engine) NewDetector(sessionID uuid.UUID) *Detector {
	return &Detector{
		engine:      e,
		sessionID:   sessionID,
		baselines:   make(map[uuid.UUID]*models.Baseline),
		volumeFired: make(map[uuid.UUID]bool),
	}
}

func (d *Detector) baseline(ctx context.Context, definitionID uuid.UUID) *models.Baseline {
	if b, ok := d.baselines[definitionID]; ok {
		return b
	}
	b := d.engine.Baseline(ctx, definitionID, &d.sessionID)
	d.baselines[definitionID] = &b
	return &b
}

// Check evaluates a set that was just logged or completed in ex. At most one
// alert is returned: a weight record short-circuits the volume check. Cardio
// exercises and definitions without history never alert.
func (d *Detector) Check(ctx context.Context, session *models.WorkoutSession, ex *models.ExerciseSession, set *models.PerformedSet, now time.Time) *Alert {
	if ex.Definition == nil || ex.Definition.IsCardio() || !set.IsCompleted || set.Weight == nil {
		return nil
	}
	defID := ex.Definition.ID
	b := d.baseline(ctx, defID)
	if isEmpty(b) {
		return nil
	}

	w := *set.Weight
	if b.MaxWeightKg != nil {
		prevW := *b.MaxWeightKg
		prevR := *b.MaxRepsAtMaxWeight
		var kind AlertKind
		switch {
		case w > prevW+weightEpsilon:
			kind = AlertMaxWeight
			b.MaxWeightKg = &w
			reps := set.Reps
			b.MaxRepsAtMaxWeight = &reps
		case sameWeight(w, prevW) && set.Reps > prevR:
			kind = AlertMoreReps
			reps := set.Reps
			b.MaxRepsAtMaxWeight = &reps
		}
		if kind != "" {
			return &Alert{
				Kind: kind, DefinitionID: defID, ExerciseName: ex.Name,
				WeightKg: w, Reps: set.Reps,
				PreviousWeightKg: &prevW, PreviousReps: &prevR, At: now,
			}
		}
	}

	if b.BestVolumeKg == nil || d.volumeFired[defID] {
		return nil
	}
	var volume float64
	for _, other := range session.ExercisesFor(defID) {
		volume += other.Volume()
	}
	if volume > *b.BestVolumeKg+weightEpsilon {
		d.volumeFired[defID] = true
		prev := *b.BestVolumeKg
		return &Alert{
			Kind: AlertVolume, DefinitionID: defID, ExerciseName: ex.Name,
			VolumeKg: volume, PreviousVolumeKg: &prev, At: now,
		}
	}
	return nil
}
