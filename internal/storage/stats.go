package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	TotalSessions     int64              `json:"total_sessions"`
	CompletedSessions int64              `json:"completed_sessions"`
	TotalSets         int64              `json:"total_sets"`
	TotalVolumeKg     float64            `json:"total_volume_kg"`
	TotalRecords      int64              `json:"total_records"`
	EarliestSession   *time.Time         `json:"earliest_session"`
	LatestSession     *time.Time         `json:"latest_session"`
	ExercisesByName   []ExerciseNameStat `json:"exercises_by_name"`
}

// ExerciseNameStat holds summary stats for a single exercise name.
type ExerciseNameStat struct {
	Name     string  `json:"name" db:"name"`
	Sessions int64   `json:"sessions" db:"sessions"`
	Sets     int64   `json:"sets" db:"sets"`
	VolumeKg float64 `json:"volume_kg" db:"volume_kg"`
}

// GetDataStats returns aggregate statistics for the stored history.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	// Sessions
	err := db.x.QueryRowxContext(ctx,
		`SELECT COUNT(*), COUNT(completed_at) FROM workout_sessions`,
	).Scan(&stats.TotalSessions, &stats.CompletedSessions)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	// Completed sets and volume
	err = db.x.QueryRowxContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN weight_kg IS NULL THEN 0 ELSE reps * weight_kg END), 0)
		 FROM performed_sets WHERE is_completed`,
	).Scan(&stats.TotalSets, &stats.TotalVolumeKg)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	// Records
	err = db.x.QueryRowxContext(ctx, `SELECT COUNT(*) FROM personal_records`).Scan(&stats.TotalRecords)
	if err != nil {
		return nil, fmt.Errorf("counting personal records: %w", err)
	}

	// Date range. Column values rather than MIN/MAX so the driver keeps the column type.
	if stats.EarliestSession, err = db.boundarySession(ctx, "ASC"); err != nil {
		return nil, err
	}
	if stats.LatestSession, err = db.boundarySession(ctx, "DESC"); err != nil {
		return nil, err
	}

	// Exercises by name
	err = db.x.SelectContext(ctx, &stats.ExercisesByName,
		`SELECT e.name AS name, COUNT(DISTINCT e.session_id) AS sessions, COUNT(p.id) AS sets,
		 COALESCE(SUM(CASE WHEN p.weight_kg IS NULL THEN 0 ELSE p.reps * p.weight_kg END), 0) AS volume_kg
		 FROM exercise_sessions e
		 LEFT JOIN performed_sets p ON p.exercise_session_id = e.id AND p.is_completed
		 GROUP BY e.name
		 ORDER BY COUNT(DISTINCT e.session_id) DESC, e.name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises by name: %w", err)
	}

	return stats, nil
}

func (db *DB) boundarySession(ctx context.Context, dir string) (*time.Time, error) {
	var t time.Time
	err := db.x.GetContext(ctx, &t, `SELECT started_at FROM workout_sessions ORDER BY started_at `+dir+` LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session date range: %w", err)
	}
	t = t.UTC()
	return &t, nil
}
