package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID               int64           `json:"id" db:"id"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	Source           string          `json:"source" db:"source"`
	Status           string          `json:"status" db:"status"`
	SessionsReceived int             `json:"sessions_received" db:"sessions_received"`
	SessionsInserted int             `json:"sessions_inserted" db:"sessions_inserted"`
	SetsInserted     int64           `json:"sets_inserted" db:"sets_inserted"`
	DurationMs       *int            `json:"duration_ms" db:"duration_ms"`
	ErrorMessage     *string         `json:"error_message" db:"error_message"`
	Metadata         json.RawMessage `json:"metadata,omitempty" db:"-"`
}

func metadataText(m json.RawMessage) *string {
	if len(m) == 0 {
		return nil
	}
	s := string(m)
	return &s
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	var id int64
	err := db.x.QueryRowxContext(ctx, db.rebind(
		`INSERT INTO import_logs (created_at, source, status, sessions_received, sessions_inserted,
		 sets_inserted, duration_ms, error_message, metadata)
		 VALUES (?,?,?,?,?,?,?,?,?)
		 RETURNING id`),
		utc(log.CreatedAt), log.Source, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.SetsInserted, log.DurationMs, log.ErrorMessage, metadataText(log.Metadata),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.x.ExecContext(ctx, db.rebind(
		`UPDATE import_logs SET
		 status = ?, sessions_received = ?, sessions_inserted = ?,
		 sets_inserted = ?, duration_ms = ?, error_message = ?, metadata = ?
		 WHERE id = ?`),
		log.Status, log.SessionsReceived, log.SessionsInserted,
		log.SetsInserted, log.DurationMs, log.ErrorMessage, metadataText(log.Metadata), id,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.x.QueryxContext(ctx, db.rebind(
		`SELECT id, created_at, source, status, sessions_received, sessions_inserted,
		 sets_inserted, duration_ms, error_message, metadata
		 FROM import_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		var meta *string
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Source, &l.Status,
			&l.SessionsReceived, &l.SessionsInserted, &l.SetsInserted,
			&l.DurationMs, &l.ErrorMessage, &meta); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		if meta != nil {
			l.Metadata = json.RawMessage(*meta)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
