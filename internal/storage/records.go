package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/meltforce/liftlog/internal/models"
)

type recordRow struct {
	ID              uuid.UUID `db:"id"`
	DefinitionID    uuid.UUID `db:"definition_id"`
	Type            string    `db:"type"`
	Medal           int       `db:"medal"`
	Value           float64   `db:"value"`
	Reps            *int      `db:"reps"`
	DistanceMeters  *int      `db:"distance_meters"`
	DurationSeconds *int      `db:"duration_seconds"`
	AchievedAt      time.Time `db:"achieved_at"`
	SessionID       uuid.UUID `db:"session_id"`
}

func recordFilter(q models.RecordQuery) (string, []any) {
	var where []string
	var args []any
	if q.DefinitionID != nil {
		where = append(where, "definition_id = ?")
		args = append(args, *q.DefinitionID)
	}
	if q.SessionID != nil {
		where = append(where, "session_id = ?")
		args = append(args, *q.SessionID)
	}
	if q.Type != nil {
		where = append(where, "type = ?")
		args = append(args, string(*q.Type))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// PersonalRecords returns records matching q ordered by definition, type and medal.
func (db *DB) PersonalRecords(ctx context.Context, q models.RecordQuery) ([]*models.PersonalRecord, error) {
	where, args := recordFilter(q)
	var rows []recordRow
	err := db.x.SelectContext(ctx, &rows, db.rebind(
		`SELECT id, definition_id, type, medal, value, reps, distance_meters, duration_seconds, achieved_at, session_id
		 FROM personal_records`+where+` ORDER BY definition_id, type, distance_meters, medal`), args...)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	out := make([]*models.PersonalRecord, len(rows))
	for i, r := range rows {
		out[i] = &models.PersonalRecord{
			ID:              r.ID,
			DefinitionID:    r.DefinitionID,
			Type:            models.RecordType(r.Type),
			Medal:           models.Medal(r.Medal),
			Value:           r.Value,
			Reps:            r.Reps,
			DistanceMeters:  r.DistanceMeters,
			DurationSeconds: r.DurationSeconds,
			AchievedAt:      r.AchievedAt.UTC(),
			SessionID:       r.SessionID,
		}
	}
	return out, nil
}

// DeletePersonalRecords removes the records matching q and returns how many were deleted.
// An empty query is rejected so a bug can never wipe every record.
func (db *DB) DeletePersonalRecords(ctx context.Context, q models.RecordQuery) (int64, error) {
	where, args := recordFilter(q)
	if where == "" {
		return 0, fmt.Errorf("deleting personal records: empty filter")
	}
	res, err := db.x.ExecContext(ctx, db.rebind(`DELETE FROM personal_records`+where), args...)
	if err != nil {
		return 0, fmt.Errorf("deleting personal records: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// InsertPersonalRecords inserts records in one transaction.
func (db *DB) InsertPersonalRecords(ctx context.Context, records []*models.PersonalRecord) error {
	if len(records) == 0 {
		return nil
	}
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, r := range records {
			_, err := tx.ExecContext(ctx, db.rebind(
				`INSERT INTO personal_records (id, definition_id, type, medal, value, reps, distance_meters,
				 duration_seconds, achieved_at, session_id)
				 VALUES (?,?,?,?,?,?,?,?,?,?)`),
				r.ID, r.DefinitionID, string(r.Type), int(r.Medal), r.Value, r.Reps, r.DistanceMeters,
				r.DurationSeconds, utc(r.AchievedAt), r.SessionID)
			if err != nil {
				return fmt.Errorf("inserting personal record: %w", err)
			}
		}
		return nil
	})
}
