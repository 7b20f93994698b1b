package alpha

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/storage/storagetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type invalidations struct{ from []time.Time }

func (i *invalidations) Invalidate(from time.Time) { i.from = append(i.from, from) }

func newProvider(t *testing.T) (*Provider, *storage.DB, *invalidations) {
	t.Helper()
	db := storagetest.New(t)
	inv := &invalidations{}
	return NewProvider(db, records.New(db, discard), inv, nil, time.UTC, discard), db, inv
}

// TestIngestStoresWorkouts verifies sessions, definitions and records are
// written and that the calendar is invalidated from the earliest workout.
func TestIngestStoresWorkouts(t *testing.T) {
	ctx := context.Background()
	p, db, inv := newProvider(t)

	res, err := p.Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SessionsReceived != 2 || res.SessionsInserted != 2 || res.SessionsSkipped != 0 {
		t.Errorf("sessions = %+v", res)
	}
	if res.SetsReceived != 20 || res.SetsInserted != 20 {
		t.Errorf("sets received=%d inserted=%d, want 20", res.SetsReceived, res.SetsInserted)
	}
	if res.DefinitionsCreated != 7 {
		t.Errorf("definitions created = %d, want 7", res.DefinitionsCreated)
	}
	if len(inv.from) != 1 || !inv.from[0].Equal(time.Date(2026, 2, 17, 17, 4, 0, 0, time.UTC)) {
		t.Errorf("invalidations = %v", inv.from)
	}

	bench, err := db.DefinitionByName(ctx, "bench press")
	if err != nil {
		t.Fatalf("DefinitionByName: %v", err)
	}
	if bench.Equipment == nil || *bench.Equipment != "Barbell" {
		t.Errorf("equipment = %v", bench.Equipment)
	}
	recs, err := db.PersonalRecords(ctx, models.RecordQuery{DefinitionID: &bench.ID})
	if err != nil {
		t.Fatalf("PersonalRecords: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no records ranked for bench press")
	}

	stored, err := db.Sessions(ctx, models.SessionQuery{CompletedOnly: true})
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored = %d, want 2", len(stored))
	}
	for _, s := range stored {
		if !s.IsManualEntry || s.Status == nil {
			t.Errorf("%s: manual=%v status=%v", s.Name, s.IsManualEntry, s.Status)
		}
	}
}

// TestIngestSkipsExisting verifies that a re-import inserts nothing.
func TestIngestSkipsExisting(t *testing.T) {
	ctx := context.Background()
	p, _, inv := newProvider(t)
	if _, err := p.Ingest(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	res, err := p.Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if res.SessionsInserted != 0 || res.SessionsSkipped != 2 || res.DefinitionsCreated != 0 {
		t.Errorf("second import = %+v", res)
	}
	if len(inv.from) != 1 {
		t.Errorf("invalidations = %d, want only the first import", len(inv.from))
	}
}

// TestIngestDryRun verifies counts without any writes.
func TestIngestDryRun(t *testing.T) {
	ctx := context.Background()
	p, db, _ := newProvider(t)
	res, err := p.WithDryRun().Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SessionsInserted != 2 || res.SetsInserted != 20 {
		t.Errorf("dry run = %+v", res)
	}
	stored, err := db.Sessions(ctx, models.SessionQuery{})
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	defs, err := db.Definitions(ctx)
	if err != nil {
		t.Fatalf("Definitions: %v", err)
	}
	if len(stored) != 0 || len(defs) != 0 {
		t.Errorf("dry run wrote %d sessions and %d definitions", len(stored), len(defs))
	}
}

// TestConvert verifies weights, effort and classification of one workout.
func TestConvert(t *testing.T) {
	workouts, err := Parse(strings.NewReader(sampleCSV), time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	target := 60
	profile := &models.UserProfile{TargetWorkoutMinutes: &target}
	s := Convert(workouts[0], map[string]*models.ExerciseDefinition{}, profile, calendar.DefaultPolicy)

	if s.Status == nil || *s.Status != models.StatusTargetMet {
		t.Errorf("status = %v, want target_met", s.Status)
	}
	if want := workouts[0].Start.Add(62 * time.Minute); !s.CompletedAt.Equal(want) {
		t.Errorf("completed = %v, want %v", s.CompletedAt, want)
	}
	hack := s.Exercises[0]
	if len(hack.Sets) != 3 {
		t.Errorf("hack squat sets = %d, want working sets only", len(hack.Sets))
	}
	if hack.Effort == nil || *hack.Effort != 9 {
		t.Errorf("effort = %v, want 9", hack.Effort)
	}
	if w := s.Exercises[2].Sets[0].Weight; w == nil || *w != 35 {
		t.Errorf("weighted hyperextension = %v, want 35", w)
	}
	if w := s.Exercises[5].Sets[0].Weight; w != nil {
		t.Errorf("bodyweight leg raise weight = %v, want nil", *w)
	}
	for i, ex := range s.Exercises {
		if ex.Order != i {
			t.Errorf("exercise %d order = %d", i, ex.Order)
		}
	}
}
