package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/meltforce/liftlog/internal/models"
)

type sessionRow struct {
	ID                    uuid.UUID  `db:"id"`
	UserID                uuid.UUID  `db:"user_id"`
	Name                  string     `db:"name"`
	Notes                 string     `db:"notes"`
	StartedAt             time.Time  `db:"started_at"`
	CompletedAt           *time.Time `db:"completed_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
	TargetDurationMinutes *int       `db:"target_duration_minutes"`
	TemplateID            *uuid.UUID `db:"template_id"`
	Status                *string    `db:"status"`
	IsManualEntry         bool       `db:"is_manual_entry"`
}

type exerciseRow struct {
	ID          uuid.UUID  `db:"id"`
	SessionID   uuid.UUID  `db:"session_id"`
	Name        string     `db:"name"`
	Position    int        `db:"position"`
	RestSeconds *int       `db:"rest_seconds"`
	Effort      *int       `db:"effort"`
	DefID       *uuid.UUID `db:"def_id"`
	DefName     *string    `db:"def_name"`
	DefMuscle   *string    `db:"def_muscle_group"`
	DefEquip    *string    `db:"def_equipment"`
	DefType     *string    `db:"def_type"`
}

type setRow struct {
	ID                uuid.UUID  `db:"id"`
	ExerciseSessionID uuid.UUID  `db:"exercise_session_id"`
	Position          int        `db:"position"`
	Reps              int        `db:"reps"`
	WeightKg          *float64   `db:"weight_kg"`
	IsCompleted       bool       `db:"is_completed"`
	CompletedAt       *time.Time `db:"completed_at"`
	DurationSeconds   *int       `db:"duration_seconds"`
}

type stretchRow struct {
	ID              uuid.UUID `db:"id"`
	SessionID       uuid.UUID `db:"session_id"`
	Name            string    `db:"name"`
	DurationSeconds *int      `db:"duration_seconds"`
	Position        int       `db:"position"`
}

const sessionColumns = `s.id, s.user_id, s.name, s.notes, s.started_at, s.completed_at, s.updated_at,
	s.target_duration_minutes, s.template_id, s.status, s.is_manual_entry`

// Sessions returns the sessions matching q with their full exercise, set and
// stretch graph loaded. Child collections are sorted by their order field.
func (db *DB) Sessions(ctx context.Context, q models.SessionQuery) ([]*models.WorkoutSession, error) {
	var where []string
	var args []any
	if q.ID != nil {
		where = append(where, "s.id = ?")
		args = append(args, *q.ID)
	}
	if q.DefinitionID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM exercise_sessions e WHERE e.session_id = s.id AND e.definition_id = ?)")
		args = append(args, *q.DefinitionID)
	}
	if q.CompletedOnly {
		where = append(where, "s.completed_at IS NOT NULL")
	}
	if q.InProgressOnly {
		where = append(where, "s.completed_at IS NULL")
	}
	if q.StartedFrom != nil {
		where = append(where, "s.started_at >= ?")
		args = append(args, utc(*q.StartedFrom))
	}
	if q.StartedBefore != nil {
		where = append(where, "s.started_at < ?")
		args = append(args, utc(*q.StartedBefore))
	}
	if q.ExcludeID != nil {
		where = append(where, "s.id <> ?")
		args = append(args, *q.ExcludeID)
	}

	query := `SELECT ` + sessionColumns + ` FROM workout_sessions s`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if q.Descending {
		query += " ORDER BY s.started_at DESC"
	} else {
		query += " ORDER BY s.started_at ASC"
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	var rows []sessionRow
	if err := db.x.SelectContext(ctx, &rows, db.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sessions := make([]*models.WorkoutSession, len(rows))
	byID := make(map[uuid.UUID]*models.WorkoutSession, len(rows))
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		s := r.toModel()
		sessions[i] = s
		byID[s.ID] = s
		ids[i] = s.ID
	}
	if err := db.loadSessionChildren(ctx, ids, byID); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		s.Normalize()
	}
	return sessions, nil
}

// Session returns one session by ID, or ErrNotFound.
func (db *DB) Session(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error) {
	sessions, err := db.Sessions(ctx, models.SessionQuery{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sessions[0], nil
}

func (db *DB) loadSessionChildren(ctx context.Context, ids []uuid.UUID, byID map[uuid.UUID]*models.WorkoutSession) error {
	exercises := make(map[uuid.UUID]*models.ExerciseSession)
	var exerciseIDs []uuid.UUID

	for _, batch := range chunk(ids, 500) {
		query, args, err := db.in(
			`SELECT e.id, e.session_id, e.name, e.position, e.rest_seconds, e.effort,
			 d.id AS def_id, d.name AS def_name, d.muscle_group AS def_muscle_group,
			 d.equipment AS def_equipment, d.type AS def_type
			 FROM exercise_sessions e
			 LEFT JOIN exercise_definitions d ON d.id = e.definition_id
			 WHERE e.session_id IN (?)`, batch)
		if err != nil {
			return err
		}
		var rows []exerciseRow
		if err := db.x.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("querying exercise sessions: %w", err)
		}
		for _, r := range rows {
			ex := r.toModel()
			exercises[ex.ID] = ex
			exerciseIDs = append(exerciseIDs, ex.ID)
			s := byID[r.SessionID]
			s.Exercises = append(s.Exercises, ex)
		}

		query, args, err = db.in(
			`SELECT id, session_id, name, duration_seconds, position
			 FROM stretch_entries WHERE session_id IN (?)`, batch)
		if err != nil {
			return err
		}
		var stretches []stretchRow
		if err := db.x.SelectContext(ctx, &stretches, query, args...); err != nil {
			return fmt.Errorf("querying stretch entries: %w", err)
		}
		for _, r := range stretches {
			s := byID[r.SessionID]
			s.Stretches = append(s.Stretches, &models.StretchEntry{
				ID: r.ID, SessionID: r.SessionID, Name: r.Name,
				DurationSeconds: r.DurationSeconds, Order: r.Position,
			})
		}
	}

	for _, batch := range chunk(exerciseIDs, 500) {
		query, args, err := db.in(
			`SELECT id, exercise_session_id, position, reps, weight_kg, is_completed, completed_at, duration_seconds
			 FROM performed_sets WHERE exercise_session_id IN (?)`, batch)
		if err != nil {
			return err
		}
		var rows []setRow
		if err := db.x.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("querying performed sets: %w", err)
		}
		for _, r := range rows {
			ex := exercises[r.ExerciseSessionID]
			ex.Sets = append(ex.Sets, &models.PerformedSet{
				ID: r.ID, Order: r.Position, Reps: r.Reps, Weight: r.WeightKg,
				IsCompleted: r.IsCompleted, CompletedAt: r.CompletedAt, DurationSeconds: r.DurationSeconds,
			})
		}
	}
	return nil
}

// SaveSession writes the session and replaces its children in one transaction.
func (db *DB) SaveSession(ctx context.Context, s *models.WorkoutSession) error {
	var status *string
	if s.Status != nil {
		v := string(*s.Status)
		status = &v
	}
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, db.rebind(
			`INSERT INTO workout_sessions (id, user_id, name, notes, started_at, completed_at, updated_at,
			 target_duration_minutes, template_id, status, is_manual_entry)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?)
			 ON CONFLICT (id) DO UPDATE SET
			 name = excluded.name, notes = excluded.notes, started_at = excluded.started_at,
			 completed_at = excluded.completed_at, updated_at = excluded.updated_at,
			 target_duration_minutes = excluded.target_duration_minutes, template_id = excluded.template_id,
			 status = excluded.status, is_manual_entry = excluded.is_manual_entry`),
			s.ID, s.UserID, s.Name, s.Notes, utc(s.StartedAt), utcPtr(s.CompletedAt), utc(s.UpdatedAt),
			s.TargetDurationMinutes, s.TemplateID, status, s.IsManualEntry)
		if err != nil {
			return fmt.Errorf("upserting session %s: %w", s.ID, err)
		}

		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM exercise_sessions WHERE session_id = ?`), s.ID); err != nil {
			return fmt.Errorf("clearing exercises of session %s: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM stretch_entries WHERE session_id = ?`), s.ID); err != nil {
			return fmt.Errorf("clearing stretches of session %s: %w", s.ID, err)
		}

		for _, ex := range s.Exercises {
			var defID *uuid.UUID
			if ex.Definition != nil {
				defID = &ex.Definition.ID
			}
			_, err := tx.ExecContext(ctx, db.rebind(
				`INSERT INTO exercise_sessions (id, session_id, definition_id, name, position, rest_seconds, effort)
				 VALUES (?,?,?,?,?,?,?)`),
				ex.ID, s.ID, defID, ex.Name, ex.Order, ex.RestSeconds, ex.Effort)
			if err != nil {
				return fmt.Errorf("inserting exercise %s: %w", ex.ID, err)
			}
			for _, set := range ex.Sets {
				_, err := tx.ExecContext(ctx, db.rebind(
					`INSERT INTO performed_sets (id, exercise_session_id, position, reps, weight_kg, is_completed, completed_at, duration_seconds)
					 VALUES (?,?,?,?,?,?,?,?)`),
					set.ID, ex.ID, set.Order, set.Reps, set.Weight, set.IsCompleted, utcPtr(set.CompletedAt), set.DurationSeconds)
				if err != nil {
					return fmt.Errorf("inserting set %s: %w", set.ID, err)
				}
			}
		}
		for _, st := range s.Stretches {
			_, err := tx.ExecContext(ctx, db.rebind(
				`INSERT INTO stretch_entries (id, session_id, name, duration_seconds, position) VALUES (?,?,?,?,?)`),
				st.ID, s.ID, st.Name, st.DurationSeconds, st.Order)
			if err != nil {
				return fmt.Errorf("inserting stretch %s: %w", st.ID, err)
			}
		}
		return nil
	})
}

// DeleteSession removes a session; exercises, sets and stretches cascade.
// Personal records are not touched.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := db.x.ExecContext(ctx, db.rebind(`DELETE FROM workout_sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// SessionExists reports whether a session with this name started at exactly startedAt.
func (db *DB) SessionExists(ctx context.Context, name string, startedAt time.Time) (bool, error) {
	var id uuid.UUID
	err := db.x.GetContext(ctx, &id, db.rebind(
		`SELECT id FROM workout_sessions WHERE name = ? AND started_at = ? LIMIT 1`), name, utc(startedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking session existence: %w", err)
	}
	return true, nil
}

func (r sessionRow) toModel() *models.WorkoutSession {
	s := &models.WorkoutSession{
		ID:                    r.ID,
		UserID:                r.UserID,
		Name:                  r.Name,
		Notes:                 r.Notes,
		StartedAt:             r.StartedAt.UTC(),
		CompletedAt:           utcPtr(r.CompletedAt),
		UpdatedAt:             r.UpdatedAt.UTC(),
		TargetDurationMinutes: r.TargetDurationMinutes,
		TemplateID:            r.TemplateID,
		IsManualEntry:         r.IsManualEntry,
		Exercises:             []*models.ExerciseSession{},
		Stretches:             []*models.StretchEntry{},
	}
	if r.Status != nil {
		st := models.WorkoutStatus(*r.Status)
		s.Status = &st
	}
	return s
}

func (r exerciseRow) toModel() *models.ExerciseSession {
	ex := &models.ExerciseSession{
		ID:          r.ID,
		SessionID:   r.SessionID,
		Name:        r.Name,
		Order:       r.Position,
		RestSeconds: r.RestSeconds,
		Effort:      r.Effort,
		Sets:        []*models.PerformedSet{},
	}
	if r.DefID != nil {
		ex.Definition = &models.ExerciseDefinition{
			ID:          *r.DefID,
			MuscleGroup: r.DefMuscle,
			Equipment:   r.DefEquip,
		}
		if r.DefName != nil {
			ex.Definition.Name = *r.DefName
		}
		if r.DefType != nil {
			ex.Definition.Type = models.ExerciseType(*r.DefType)
		}
	}
	return ex
}
