package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

type definitionRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	MuscleGroup *string   `db:"muscle_group"`
	Equipment   *string   `db:"equipment"`
	Type        string    `db:"type"`
}

func (r definitionRow) toModel() *models.ExerciseDefinition {
	return &models.ExerciseDefinition{
		ID:          r.ID,
		Name:        r.Name,
		MuscleGroup: r.MuscleGroup,
		Equipment:   r.Equipment,
		Type:        models.ExerciseType(r.Type),
	}
}

// Definitions returns the exercise catalog sorted by name.
func (db *DB) Definitions(ctx context.Context) ([]*models.ExerciseDefinition, error) {
	var rows []definitionRow
	if err := db.x.SelectContext(ctx, &rows,
		`SELECT id, name, muscle_group, equipment, type FROM exercise_definitions ORDER BY name`); err != nil {
		return nil, fmt.Errorf("querying exercise definitions: %w", err)
	}
	out := make([]*models.ExerciseDefinition, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// Definition returns one definition by ID, or ErrNotFound.
func (db *DB) Definition(ctx context.Context, id uuid.UUID) (*models.ExerciseDefinition, error) {
	var r definitionRow
	err := db.x.GetContext(ctx, &r, db.rebind(
		`SELECT id, name, muscle_group, equipment, type FROM exercise_definitions WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exercise definition %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise definition: %w", err)
	}
	return r.toModel(), nil
}

// DefinitionByName looks a definition up case-insensitively, or returns ErrNotFound.
func (db *DB) DefinitionByName(ctx context.Context, name string) (*models.ExerciseDefinition, error) {
	var r definitionRow
	err := db.x.GetContext(ctx, &r, db.rebind(
		`SELECT id, name, muscle_group, equipment, type FROM exercise_definitions WHERE LOWER(name) = LOWER(?)`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exercise definition %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise definition: %w", err)
	}
	return r.toModel(), nil
}

// SaveDefinition inserts or updates a catalog entry.
func (db *DB) SaveDefinition(ctx context.Context, d *models.ExerciseDefinition) error {
	_, err := db.x.ExecContext(ctx, db.rebind(
		`INSERT INTO exercise_definitions (id, name, muscle_group, equipment, type)
		 VALUES (?,?,?,?,?)
		 ON CONFLICT (id) DO UPDATE SET
		 name = excluded.name, muscle_group = excluded.muscle_group,
		 equipment = excluded.equipment, type = excluded.type`),
		d.ID, d.Name, d.MuscleGroup, d.Equipment, string(d.Type))
	if err != nil {
		return fmt.Errorf("saving exercise definition %q: %w", d.Name, err)
	}
	return nil
}

// DeleteDefinition removes a catalog entry. Exercises that referenced it keep
// their name and lose the link.
func (db *DB) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	res, err := db.x.ExecContext(ctx, db.rebind(`DELETE FROM exercise_definitions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting exercise definition %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("exercise definition %s: %w", id, ErrNotFound)
	}
	return nil
}
