// Package history reads and deletes past sessions, keeping derived records
// and calendar state consistent with what remains.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

type Store interface {
	Sessions(ctx context.Context, q models.SessionQuery) ([]*models.WorkoutSession, error)
	Session(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error)
}

// SessionDeleter performs the two-phase record-aware delete.
type SessionDeleter interface {
	DeleteSession(ctx context.Context, id uuid.UUID) (time.Time, error)
}

type CalendarInvalidator interface {
	Invalidate(from time.Time)
}

type Service struct {
	store    Store
	records  SessionDeleter
	calendar CalendarInvalidator
	logger   *slog.Logger
}

func New(store Store, records SessionDeleter, calendar CalendarInvalidator, logger *slog.Logger) *Service {
	return &Service{store: store, records: records, calendar: calendar, logger: logger}
}

// List returns completed sessions, newest first unless q says otherwise.
func (s *Service) List(ctx context.Context, q models.SessionQuery) ([]*models.WorkoutSession, error) {
	q.CompletedOnly = !q.InProgressOnly
	sessions, err := s.store.Sessions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error) {
	return s.store.Session(ctx, id)
}

// Delete removes a session and its records, re-ranks the affected
// exercises and drops calendar state from the earliest day whose medals
// changed, or the session's day.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	session, err := s.store.Session(ctx, id)
	if err != nil {
		return err
	}
	changed, err := s.records.DeleteSession(ctx, id)
	if err != nil {
		return err
	}
	from := session.StartedAt
	if !changed.IsZero() && changed.Before(from) {
		from = changed
	}
	s.calendar.Invalidate(from)
	s.logger.Info("session removed from history", "session_id", id, "started_at", session.StartedAt)
	return nil
}
