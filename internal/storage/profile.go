package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

type profileRow struct {
	ID                       uuid.UUID `db:"id"`
	Name                     string    `db:"name"`
	PreferredWeightUnit      string    `db:"preferred_weight_unit"`
	TargetWorkoutDaysPerWeek *int      `db:"target_workout_days_per_week"`
	TargetWorkoutMinutes     *int      `db:"target_workout_minutes"`
}

// Profile returns the single user profile, creating a default one on first use.
func (db *DB) Profile(ctx context.Context) (*models.UserProfile, error) {
	var r profileRow
	err := db.x.GetContext(ctx, &r,
		`SELECT id, name, preferred_weight_unit, target_workout_days_per_week, target_workout_minutes
		 FROM user_profiles LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		p := &models.UserProfile{ID: uuid.New(), PreferredWeightUnit: models.UnitKilograms}
		if err := db.SaveProfile(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &models.UserProfile{
		ID:                       r.ID,
		Name:                     r.Name,
		PreferredWeightUnit:      models.WeightUnit(r.PreferredWeightUnit),
		TargetWorkoutDaysPerWeek: r.TargetWorkoutDaysPerWeek,
		TargetWorkoutMinutes:     r.TargetWorkoutMinutes,
	}, nil
}

// SaveProfile inserts or updates the profile.
func (db *DB) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	unit := p.PreferredWeightUnit
	if unit == "" {
		unit = models.UnitKilograms
	}
	_, err := db.x.ExecContext(ctx, db.rebind(
		`INSERT INTO user_profiles (id, name, preferred_weight_unit, target_workout_days_per_week, target_workout_minutes)
		 VALUES (?,?,?,?,?)
		 ON CONFLICT (id) DO UPDATE SET
		 name = excluded.name, preferred_weight_unit = excluded.preferred_weight_unit,
		 target_workout_days_per_week = excluded.target_workout_days_per_week,
		 target_workout_minutes = excluded.target_workout_minutes`),
		p.ID, p.Name, string(unit), p.TargetWorkoutDaysPerWeek, p.TargetWorkoutMinutes)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
