package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

type scheduledRow struct {
	ID         uuid.UUID  `db:"id"`
	Date       time.Time  `db:"date"`
	TemplateID *uuid.UUID `db:"template_id"`
	Status     string     `db:"status"`
}

// dayKey stores a calendar day as midnight UTC of its year/month/day, independent
// of the zone the caller uses.
func dayKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ScheduledWorkouts returns plans whose day falls in [from, to).
// The returned Date carries the planned year/month/day at midnight UTC.
func (db *DB) ScheduledWorkouts(ctx context.Context, from, to time.Time) ([]*models.ScheduledWorkout, error) {
	var rows []scheduledRow
	err := db.x.SelectContext(ctx, &rows, db.rebind(
		`SELECT id, date, template_id, status FROM scheduled_workouts
		 WHERE date >= ? AND date < ? ORDER BY date`), dayKey(from), dayKey(to))
	if err != nil {
		return nil, fmt.Errorf("querying scheduled workouts: %w", err)
	}
	out := make([]*models.ScheduledWorkout, len(rows))
	for i, r := range rows {
		out[i] = &models.ScheduledWorkout{
			ID: r.ID, Date: r.Date.UTC(), TemplateID: r.TemplateID, Status: models.ScheduleStatus(r.Status),
		}
	}
	return out, nil
}

// SaveScheduledWorkout inserts or updates a plan.
func (db *DB) SaveScheduledWorkout(ctx context.Context, w *models.ScheduledWorkout) error {
	_, err := db.x.ExecContext(ctx, db.rebind(
		`INSERT INTO scheduled_workouts (id, date, template_id, status) VALUES (?,?,?,?)
		 ON CONFLICT (id) DO UPDATE SET date = excluded.date, template_id = excluded.template_id, status = excluded.status`),
		w.ID, dayKey(w.Date), w.TemplateID, string(w.Status))
	if err != nil {
		return fmt.Errorf("saving scheduled workout: %w", err)
	}
	return nil
}

// DeleteScheduledWorkout removes a plan.
func (db *DB) DeleteScheduledWorkout(ctx context.Context, id uuid.UUID) error {
	res, err := db.x.ExecContext(ctx, db.rebind(`DELETE FROM scheduled_workouts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting scheduled workout %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scheduled workout %s: %w", id, ErrNotFound)
	}
	return nil
}
