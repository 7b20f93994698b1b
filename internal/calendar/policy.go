package calendar

import (
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

// StatusPolicy classifies a finished session from its actual duration and optional target.
type StatusPolicy interface {
	Classify(actual time.Duration, targetMinutes *int) models.WorkoutStatus
}

// ThresholdPolicy is the default three-tier classification. A session at least
// ExceededMargin over its target is exceeded; one that reaches the target is
// target met; anything shorter is partial. Sessions without a target count as
// target met.
type ThresholdPolicy struct {
	ExceededMargin time.Duration
}

// DefaultPolicy uses a one hour margin.
var DefaultPolicy = ThresholdPolicy{ExceededMargin: 60 * time.Minute}

func (p ThresholdPolicy) Classify(actual time.Duration, targetMinutes *int) models.WorkoutStatus {
	if targetMinutes == nil || *targetMinutes <= 0 {
		return models.StatusTargetMet
	}
	target := time.Duration(*targetMinutes) * time.Minute
	switch {
	case actual >= target+p.ExceededMargin:
		return models.StatusExceeded
	case actual >= target:
		return models.StatusTargetMet
	default:
		return models.StatusPartial
	}
}
