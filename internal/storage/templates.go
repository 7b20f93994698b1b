package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/meltforce/liftlog/internal/models"
)

type templateRow struct {
	ID                    uuid.UUID `db:"id"`
	Name                  string    `db:"name"`
	Notes                 string    `db:"notes"`
	TargetDurationMinutes *int      `db:"target_duration_minutes"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

type templateExerciseRow struct {
	ID          uuid.UUID  `db:"id"`
	TemplateID  uuid.UUID  `db:"template_id"`
	Name        string     `db:"name"`
	Position    int        `db:"position"`
	RestSeconds *int       `db:"rest_seconds"`
	DefID       *uuid.UUID `db:"def_id"`
	DefName     *string    `db:"def_name"`
	DefMuscle   *string    `db:"def_muscle_group"`
	DefEquip    *string    `db:"def_equipment"`
	DefType     *string    `db:"def_type"`
}

type setGoalRow struct {
	ID                 uuid.UUID `db:"id"`
	TemplateExerciseID uuid.UUID `db:"template_exercise_id"`
	Position           int       `db:"position"`
	Reps               int       `db:"reps"`
	WeightKg           *float64  `db:"weight_kg"`
	DurationSeconds    *int      `db:"duration_seconds"`
}

type stretchGoalRow struct {
	ID              uuid.UUID `db:"id"`
	TemplateID      uuid.UUID `db:"template_id"`
	Name            string    `db:"name"`
	DurationSeconds *int      `db:"duration_seconds"`
	Position        int       `db:"position"`
}

// Templates returns all templates with exercises, goals and stretches, sorted by name.
func (db *DB) Templates(ctx context.Context) ([]*models.WorkoutTemplate, error) {
	return db.templates(ctx, nil)
}

// Template returns one template by ID, or ErrNotFound.
func (db *DB) Template(ctx context.Context, id uuid.UUID) (*models.WorkoutTemplate, error) {
	ts, err := db.templates(ctx, &id)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return ts[0], nil
}

func (db *DB) templates(ctx context.Context, id *uuid.UUID) ([]*models.WorkoutTemplate, error) {
	query := `SELECT id, name, notes, target_duration_minutes, created_at, updated_at FROM workout_templates`
	var args []any
	if id != nil {
		query += ` WHERE id = ?`
		args = append(args, *id)
	}
	query += ` ORDER BY name`

	var rows []templateRow
	if err := db.x.SelectContext(ctx, &rows, db.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]*models.WorkoutTemplate, len(rows))
	byID := make(map[uuid.UUID]*models.WorkoutTemplate, len(rows))
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		t := &models.WorkoutTemplate{
			ID: r.ID, Name: r.Name, Notes: r.Notes, TargetDurationMinutes: r.TargetDurationMinutes,
			CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
			Exercises: []*models.TemplateExercise{}, Stretches: []*models.StretchGoal{},
		}
		out[i] = t
		byID[t.ID] = t
		ids[i] = t.ID
	}

	exercises := make(map[uuid.UUID]*models.TemplateExercise)
	var exerciseIDs []uuid.UUID
	for _, batch := range chunk(ids, 500) {
		q, a, err := db.in(
			`SELECT e.id, e.template_id, e.name, e.position, e.rest_seconds,
			 d.id AS def_id, d.name AS def_name, d.muscle_group AS def_muscle_group,
			 d.equipment AS def_equipment, d.type AS def_type
			 FROM template_exercises e
			 LEFT JOIN exercise_definitions d ON d.id = e.definition_id
			 WHERE e.template_id IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var exRows []templateExerciseRow
		if err := db.x.SelectContext(ctx, &exRows, q, a...); err != nil {
			return nil, fmt.Errorf("querying template exercises: %w", err)
		}
		for _, r := range exRows {
			ex := &models.TemplateExercise{
				ID: r.ID, Name: r.Name, Order: r.Position, RestSeconds: r.RestSeconds,
				SetGoals: []*models.SetGoal{},
			}
			if r.DefID != nil {
				ex.Definition = &models.ExerciseDefinition{ID: *r.DefID, MuscleGroup: r.DefMuscle, Equipment: r.DefEquip}
				if r.DefName != nil {
					ex.Definition.Name = *r.DefName
				}
				if r.DefType != nil {
					ex.Definition.Type = models.ExerciseType(*r.DefType)
				}
			}
			exercises[ex.ID] = ex
			exerciseIDs = append(exerciseIDs, ex.ID)
			t := byID[r.TemplateID]
			t.Exercises = append(t.Exercises, ex)
		}

		q, a, err = db.in(
			`SELECT id, template_id, name, duration_seconds, position FROM template_stretches WHERE template_id IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var stRows []stretchGoalRow
		if err := db.x.SelectContext(ctx, &stRows, q, a...); err != nil {
			return nil, fmt.Errorf("querying template stretches: %w", err)
		}
		for _, r := range stRows {
			t := byID[r.TemplateID]
			t.Stretches = append(t.Stretches, &models.StretchGoal{
				ID: r.ID, Name: r.Name, DurationSeconds: r.DurationSeconds, Order: r.Position,
			})
		}
	}

	for _, batch := range chunk(exerciseIDs, 500) {
		q, a, err := db.in(
			`SELECT id, template_exercise_id, position, reps, weight_kg, duration_seconds
			 FROM template_set_goals WHERE template_exercise_id IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var goalRows []setGoalRow
		if err := db.x.SelectContext(ctx, &goalRows, q, a...); err != nil {
			return nil, fmt.Errorf("querying template set goals: %w", err)
		}
		for _, r := range goalRows {
			ex := exercises[r.TemplateExerciseID]
			ex.SetGoals = append(ex.SetGoals, &models.SetGoal{
				ID: r.ID, Order: r.Position, Reps: r.Reps, Weight: r.WeightKg, DurationSeconds: r.DurationSeconds,
			})
		}
	}

	for _, t := range out {
		t.Normalize()
	}
	return out, nil
}

// SaveTemplate writes the template and replaces its children in one transaction.
func (db *DB) SaveTemplate(ctx context.Context, t *models.WorkoutTemplate) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, db.rebind(
			`INSERT INTO workout_templates (id, name, notes, target_duration_minutes, created_at, updated_at)
			 VALUES (?,?,?,?,?,?)
			 ON CONFLICT (id) DO UPDATE SET
			 name = excluded.name, notes = excluded.notes,
			 target_duration_minutes = excluded.target_duration_minutes, updated_at = excluded.updated_at`),
			t.ID, t.Name, t.Notes, t.TargetDurationMinutes, utc(t.CreatedAt), utc(t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upserting template %s: %w", t.ID, err)
		}
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM template_exercises WHERE template_id = ?`), t.ID); err != nil {
			return fmt.Errorf("clearing template exercises: %w", err)
		}
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM template_stretches WHERE template_id = ?`), t.ID); err != nil {
			return fmt.Errorf("clearing template stretches: %w", err)
		}
		for _, ex := range t.Exercises {
			var defID *uuid.UUID
			if ex.Definition != nil {
				defID = &ex.Definition.ID
			}
			if _, err := tx.ExecContext(ctx, db.rebind(
				`INSERT INTO template_exercises (id, template_id, definition_id, name, position, rest_seconds)
				 VALUES (?,?,?,?,?,?)`),
				ex.ID, t.ID, defID, ex.Name, ex.Order, ex.RestSeconds); err != nil {
				return fmt.Errorf("inserting template exercise: %w", err)
			}
			for _, g := range ex.SetGoals {
				if _, err := tx.ExecContext(ctx, db.rebind(
					`INSERT INTO template_set_goals (id, template_exercise_id, position, reps, weight_kg, duration_seconds)
					 VALUES (?,?,?,?,?,?)`),
					g.ID, ex.ID, g.Order, g.Reps, g.Weight, g.DurationSeconds); err != nil {
					return fmt.Errorf("inserting set goal: %w", err)
				}
			}
		}
		for _, st := range t.Stretches {
			if _, err := tx.ExecContext(ctx, db.rebind(
				`INSERT INTO template_stretches (id, template_id, name, duration_seconds, position) VALUES (?,?,?,?,?)`),
				st.ID, t.ID, st.Name, st.DurationSeconds, st.Order); err != nil {
				return fmt.Errorf("inserting template stretch: %w", err)
			}
		}
		return nil
	})
}

// DeleteTemplate removes a template. Sessions started from it are unaffected.
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	res, err := db.x.ExecContext(ctx, db.rebind(`DELETE FROM workout_templates WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting template %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}
