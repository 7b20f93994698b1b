// Package records derives personal records from workout history: lazily
// built baselines for live detection and an authoritative gold/silver/bronze
// ranking recomputed whenever history changes.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// Store is the subset of the data store the record engine needs.
type Store interface {
	Sessions(ctx context.Context, q models.SessionQuery) ([]*models.WorkoutSession, error)
	PersonalRecords(ctx context.Context, q models.RecordQuery) ([]*models.PersonalRecord, error)
	DeletePersonalRecords(ctx context.Context, q models.RecordQuery) (int64, error)
	InsertPersonalRecords(ctx context.Context, records []*models.PersonalRecord) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// Engine computes baselines and ranks records.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New creates a record engine.
func New(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Baseline scans completed history for definitionID, skipping exclude.
// A failed fetch yields an empty baseline so a live session can continue.
func (e *Engine) Baseline(ctx context.Context, definitionID uuid.UUID, exclude *uuid.UUID) models.Baseline {
	sessions, err := e.store.Sessions(ctx, models.SessionQuery{
		DefinitionID:  &definitionID,
		CompletedOnly: true,
		ExcludeID:     exclude,
	})
	if err != nil {
		e.logger.Warn("loading baseline history", "definition_id", definitionID, "error", err)
		return models.Baseline{}
	}
	return ComputeBaseline(sessions, definitionID)
}

// Finalize re-ranks every definition the session touched. It returns the
// start of the earliest session whose medals changed, or the zero time.
func (e *Engine) Finalize(ctx context.Context, session *models.WorkoutSession) (time.Time, error) {
	return e.Recompute(ctx, session.DefinitionIDs()...)
}

// Recompute rebuilds the records of each definition from full history. Old
// records for a definition are deleted before the new ranking is inserted.
// The returned time is the start of the earliest session that gained, lost
// or changed a medal; zero when no session still in history did.
func (e *Engine) Recompute(ctx context.Context, definitionIDs ...uuid.UUID) (time.Time, error) {
	var earliest time.Time
	for _, defID := range definitionIDs {
		sessions, err := e.store.Sessions(ctx, models.SessionQuery{DefinitionID: &defID, CompletedOnly: true})
		if err != nil {
			return earliest, fmt.Errorf("loading history for %s: %w", defID, err)
		}
		old, err := e.store.PersonalRecords(ctx, models.RecordQuery{DefinitionID: &defID})
		if err != nil {
			return earliest, fmt.Errorf("loading records for %s: %w", defID, err)
		}
		ranked := Rank(sessions, defID)
		if _, err := e.store.DeletePersonalRecords(ctx, models.RecordQuery{DefinitionID: &defID}); err != nil {
			return earliest, fmt.Errorf("clearing records for %s: %w", defID, err)
		}
		if err := e.store.InsertPersonalRecords(ctx, ranked); err != nil {
			return earliest, fmt.Errorf("inserting records for %s: %w", defID, err)
		}
		if t := changedFrom(sessions, old, ranked); !t.IsZero() && (earliest.IsZero() || t.Before(earliest)) {
			earliest = t
		}
		e.logger.Debug("recomputed personal records", "definition_id", defID, "records", len(ranked))
	}
	return earliest, nil
}

// changedFrom compares the best medal per session before and after a
// re-ranking and returns the earliest start among sessions that differ.
func changedFrom(sessions []*models.WorkoutSession, before, after []*models.PersonalRecord) time.Time {
	best := func(recs []*models.PersonalRecord) map[uuid.UUID]models.Medal {
		m := make(map[uuid.UUID]models.Medal)
		for _, r := range recs {
			if cur, ok := m[r.SessionID]; !ok || r.Medal < cur {
				m[r.SessionID] = r.Medal
			}
		}
		return m
	}
	b, a := best(before), best(after)
	var earliest time.Time
	for _, s := range sessions {
		mb, okb := b[s.ID]
		ma, oka := a[s.ID]
		if okb == oka && mb == ma {
			continue
		}
		if earliest.IsZero() || s.StartedAt.Before(earliest) {
			earliest = s.StartedAt
		}
	}
	return earliest
}

// DeleteSession removes a session in two committed phases: first every record
// referencing it, then the session itself. The affected definitions are then
// re-ranked so no record points at the deleted session. The returned time
// is as for Recompute.
func (e *Engine) DeleteSession(ctx context.Context, id uuid.UUID) (time.Time, error) {
	affected := make(map[uuid.UUID]bool)
	var order []uuid.UUID
	add := func(defID uuid.UUID) {
		if !affected[defID] {
			affected[defID] = true
			order = append(order, defID)
		}
	}

	sessions, err := e.store.Sessions(ctx, models.SessionQuery{ID: &id})
	if err != nil {
		return time.Time{}, fmt.Errorf("loading session %s: %w", id, err)
	}
	for _, s := range sessions {
		for _, defID := range s.DefinitionIDs() {
			add(defID)
		}
	}
	existing, err := e.store.PersonalRecords(ctx, models.RecordQuery{SessionID: &id})
	if err != nil {
		return time.Time{}, fmt.Errorf("loading records of session %s: %w", id, err)
	}
	for _, r := range existing {
		add(r.DefinitionID)
	}

	n, err := e.store.DeletePersonalRecords(ctx, models.RecordQuery{SessionID: &id})
	if err != nil {
		return time.Time{}, fmt.Errorf("deleting records of session %s: %w", id, err)
	}
	if err := e.store.DeleteSession(ctx, id); err != nil {
		return time.Time{}, fmt.Errorf("deleting session %s: %w", id, err)
	}
	e.logger.Info("deleted session", "session_id", id, "records_removed", n, "definitions", len(order))

	return e.Recompute(ctx, order...)
}
