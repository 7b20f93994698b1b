package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local reads the
// database directly; HTTPClient goes through the REST API of a remote server.
type DataSource interface {
	Sessions(ctx context.Context, start, end time.Time) ([]*models.WorkoutSession, error)
	Records(ctx context.Context, definitionID *uuid.UUID) ([]*models.PersonalRecord, error)
	Exercises(ctx context.Context) ([]*models.ExerciseDefinition, error)
	Baseline(ctx context.Context, definitionID uuid.UUID) (*models.Baseline, error)
	CalendarMonth(ctx context.Context, year int, month time.Month) (*calendar.MonthView, error)
	Stats(ctx context.Context) (*storage.DataStats, error)
	LiveSession(ctx context.Context) (*session.Snapshot, error)
}

// Local serves MCP reads from the engines of the running server.
type Local struct {
	DB       *storage.DB
	Records  *records.Engine
	Calendar *calendar.Engine
	Session  *session.Engine
	Clock    clock.Clock
}

var _ DataSource = (*Local)(nil)

func (l *Local) Sessions(ctx context.Context, start, end time.Time) ([]*models.WorkoutSession, error) {
	return l.DB.Sessions(ctx, models.SessionQuery{
		CompletedOnly: true,
		StartedFrom:   &start,
		StartedBefore: &end,
		Descending:    true,
	})
}

func (l *Local) Records(ctx context.Context, definitionID *uuid.UUID) ([]*models.PersonalRecord, error) {
	return l.DB.PersonalRecords(ctx, models.RecordQuery{DefinitionID: definitionID})
}

func (l *Local) Exercises(ctx context.Context) ([]*models.ExerciseDefinition, error) {
	return l.DB.Definitions(ctx)
}

func (l *Local) Baseline(ctx context.Context, definitionID uuid.UUID) (*models.Baseline, error) {
	b := l.Records.Baseline(ctx, definitionID, nil)
	return &b, nil
}

func (l *Local) CalendarMonth(ctx context.Context, year int, month time.Month) (*calendar.MonthView, error) {
	return l.Calendar.Month(ctx, year, month, l.Clock.Now())
}

func (l *Local) Stats(ctx context.Context) (*storage.DataStats, error) {
	return l.DB.GetDataStats(ctx)
}

func (l *Local) LiveSession(_ context.Context) (*session.Snapshot, error) {
	snap := l.Session.Snapshot()
	return &snap, nil
}
