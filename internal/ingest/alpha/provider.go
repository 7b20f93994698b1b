package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// Store is the persistence the importer writes through.
type Store interface {
	SessionExists(ctx context.Context, name string, startedAt time.Time) (bool, error)
	SaveSession(ctx context.Context, s *models.WorkoutSession) error
	DefinitionByName(ctx context.Context, name string) (*models.ExerciseDefinition, error)
	SaveDefinition(ctx context.Context, d *models.ExerciseDefinition) error
	Profile(ctx context.Context) (*models.UserProfile, error)
}

// Recomputer re-ranks personal records for definitions.
type Recomputer interface {
	Recompute(ctx context.Context, definitionIDs ...uuid.UUID) (time.Time, error)
}

type Invalidator interface {
	Invalidate(from time.Time)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	db       Store
	records  Recomputer
	calendar Invalidator
	policy   calendar.StatusPolicy
	loc      *time.Location
	log      *slog.Logger
	dryRun   bool
}

// NewProvider creates a new Alpha Progression ingest provider. Start times
// in the export are read in loc.
func NewProvider(db Store, records Recomputer, cal Invalidator, policy calendar.StatusPolicy, loc *time.Location, log *slog.Logger) *Provider {
	if policy == nil {
		policy = calendar.DefaultPolicy
	}
	return &Provider{db: db, records: records, calendar: cal, policy: policy, loc: loc, log: log}
}

// WithDryRun returns a copy of p that parses and counts without writing.
func (p *Provider) WithDryRun() *Provider {
	c := *p
	c.dryRun = true
	return &c
}

func (p *Provider) Source() string { return "alpha_progression" }

// Ingest parses an export and stores every workout not already present.
// Records for the touched exercises are re-ranked afterwards and the calendar
// is invalidated from the earliest new workout.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	workouts, err := Parse(r, p.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	profile, err := p.db.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	res := &ingest.Result{SessionsReceived: len(workouts)}
	defs := make(map[string]*models.ExerciseDefinition)
	touched := make(map[uuid.UUID]bool)
	var touchedOrder []uuid.UUID
	var earliest time.Time

	for _, w := range workouts {
		for _, ex := range w.Exercises {
			res.SetsReceived += len(ex.Sets)
		}
		exists, err := p.db.SessionExists(ctx, w.Name, w.Start)
		if err != nil {
			return nil, fmt.Errorf("checking for %q at %s: %w", w.Name, w.Start.Format(time.DateTime), err)
		}
		if exists {
			res.SessionsSkipped++
			continue
		}

		for _, ex := range w.Exercises {
			key := strings.ToLower(ex.Name)
			if _, ok := defs[key]; ok {
				continue
			}
			d, created, err := p.resolve(ctx, ex)
			if err != nil {
				return nil, err
			}
			defs[key] = d
			if created {
				res.DefinitionsCreated++
			}
		}

		s := Convert(w, defs, profile, p.policy)
		if p.dryRun {
			res.SessionsInserted++
			res.SetsInserted += countSets(s)
			continue
		}
		if err := p.db.SaveSession(ctx, s); err != nil {
			return nil, fmt.Errorf("saving %q: %w", w.Name, err)
		}
		res.SessionsInserted++
		res.SetsInserted += countSets(s)
		for _, id := range s.DefinitionIDs() {
			if !touched[id] {
				touched[id] = true
				touchedOrder = append(touchedOrder, id)
			}
		}
		if earliest.IsZero() || s.StartedAt.Before(earliest) {
			earliest = s.StartedAt
		}
	}

	if len(touchedOrder) > 0 {
		changed, err := p.records.Recompute(ctx, touchedOrder...)
		if err != nil {
			return nil, fmt.Errorf("re-ranking records: %w", err)
		}
		if !changed.IsZero() && changed.Before(earliest) {
			earliest = changed
		}
	}
	if !earliest.IsZero() {
		p.calendar.Invalidate(earliest)
	}
	p.log.Info("alpha import finished",
		"received", res.SessionsReceived, "inserted", res.SessionsInserted,
		"skipped", res.SessionsSkipped, "sets", res.SetsInserted, "dry_run", p.dryRun)
	return res, nil
}

// resolve finds the catalog entry for an exercise by name, creating it when
// it is missing. Dry runs never create.
func (p *Provider) resolve(ctx context.Context, ex Exercise) (*models.ExerciseDefinition, bool, error) {
	d, err := p.db.DefinitionByName(ctx, ex.Name)
	if err == nil {
		return d, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up %q: %w", ex.Name, err)
	}
	d = &models.ExerciseDefinition{ID: uuid.New(), Name: ex.Name, Type: models.ExerciseStrength}
	if ex.Equipment != "" {
		eq := ex.Equipment
		d.Equipment = &eq
	}
	if p.dryRun {
		return d, true, nil
	}
	if err := p.db.SaveDefinition(ctx, d); err != nil {
		return nil, false, fmt.Errorf("creating definition %q: %w", ex.Name, err)
	}
	p.log.Debug("created exercise definition", "name", d.Name, "id", d.ID)
	return d, true, nil
}

func countSets(s *models.WorkoutSession) int64 {
	var n int64
	for _, ex := range s.Exercises {
		n += int64(len(ex.Sets))
	}
	return n
}
