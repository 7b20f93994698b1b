package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordType is the metric a personal record ranks.
type RecordType string

const (
	RecordMaxWeight  RecordType = "max_weight"
	RecordBestVolume RecordType = "best_volume"
	RecordCardioTime RecordType = "cardio_time"
)

// Medal is the rank of a record: 1 gold, 2 silver, 3 bronze. Lower is better.
type Medal int

const (
	MedalGold Medal = iota + 1
	MedalSilver
	MedalBronze
)

func (m Medal) String() string {
	switch m {
	case MedalGold:
		return "gold"
	case MedalSilver:
		return "silver"
	case MedalBronze:
		return "bronze"
	default:
		return fmt.Sprintf("medal(%d)", int(m))
	}
}

// MarshalText encodes the medal by name.
func (m Medal) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a medal name.
func (m *Medal) UnmarshalText(b []byte) error {
	switch string(b) {
	case "gold":
		*m = MedalGold
	case "silver":
		*m = MedalSilver
	case "bronze":
		*m = MedalBronze
	default:
		return fmt.Errorf("unknown medal %q", b)
	}
	return nil
}

// PersonalRecord is a derived ranking entry. It references the session that set it;
// it never owns it and is never edited by hand.
type PersonalRecord struct {
	ID              uuid.UUID  `json:"id"`
	DefinitionID    uuid.UUID  `json:"definition_id"`
	Type            RecordType `json:"type"`
	Medal           Medal      `json:"medal"`
	Value           float64    `json:"value"`
	Reps            *int       `json:"reps,omitempty"`
	DistanceMeters  *int       `json:"distance_meters,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	AchievedAt      time.Time  `json:"achieved_at"`
	SessionID       uuid.UUID  `json:"session_id"`
}

// Baseline is the best-ever snapshot for one definition, built from history.
type Baseline struct {
	MaxWeightKg        *float64 `json:"max_weight_kg,omitempty"`
	MaxRepsAtMaxWeight *int     `json:"max_reps_at_max_weight,omitempty"`
	BestVolumeKg       *float64 `json:"best_volume_kg,omitempty"`
}
