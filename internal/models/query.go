package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionQuery filters session fetches. Zero values mean "no filter".
type SessionQuery struct {
	ID             *uuid.UUID
	DefinitionID   *uuid.UUID
	CompletedOnly  bool
	InProgressOnly bool
	StartedFrom    *time.Time // inclusive
	StartedBefore  *time.Time // exclusive
	ExcludeID      *uuid.UUID
	Limit          int
	Descending     bool
}

// RecordQuery filters personal record fetches and deletes.
type RecordQuery struct {
	DefinitionID *uuid.UUID
	SessionID    *uuid.UUID
	Type         *RecordType
}
