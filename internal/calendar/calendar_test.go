package calendar

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

func ptr[T any](v T) *T { return &v }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStore struct {
	sessions  []*models.WorkoutSession
	records   []*models.PersonalRecord
	scheduled []*models.ScheduledWorkout
	profile   models.UserProfile
	fetches   int
}

func (f *fakeStore) Sessions(_ context.Context, q models.SessionQuery) ([]*models.WorkoutSession, error) {
	f.fetches++
	var out []*models.WorkoutSession
	for _, s := range f.sessions {
		if q.CompletedOnly && !s.IsCompleted() {
			continue
		}
		if q.StartedFrom != nil && s.StartedAt.Before(*q.StartedFrom) {
			continue
		}
		if q.StartedBefore != nil && !s.StartedAt.Before(*q.StartedBefore) {
			continue
		}
		out = append(out, s)
	}
	if q.Descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) PersonalRecords(context.Context, models.RecordQuery) ([]*models.PersonalRecord, error) {
	return f.records, nil
}

func (f *fakeStore) ScheduledWorkouts(context.Context, time.Time, time.Time) ([]*models.ScheduledWorkout, error) {
	return f.scheduled, nil
}

func (f *fakeStore) Profile(context.Context) (*models.UserProfile, error) {
	p := f.profile
	return &p, nil
}

// completed returns a finished session at 18:00 UTC on the given date; sessions
// must be added in chronological order.
func completed(y int, m time.Month, d int, status models.WorkoutStatus, defs ...*models.ExerciseDefinition) *models.WorkoutSession {
	start := time.Date(y, m, d, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	s := &models.WorkoutSession{ID: uuid.New(), StartedAt: start, CompletedAt: &end, Status: &status}
	for _, def := range defs {
		s.Exercises = append(s.Exercises, &models.ExerciseSession{ID: uuid.New(), Definition: def})
	}
	return s
}

func newEngine(store *fakeStore) *Engine {
	return New(store, Options{Location: time.UTC, WeekStart: time.Monday}, discard)
}

// TestThresholdPolicy verifies the default three-tier classification.
func TestThresholdPolicy(t *testing.T) {
	tests := []struct {
		name   string
		actual time.Duration
		target *int
		want   models.WorkoutStatus
	}{
		{"no target", 10 * time.Minute, nil, models.StatusTargetMet},
		{"short", 59 * time.Minute, ptr(60), models.StatusPartial},
		{"exactly target", 60 * time.Minute, ptr(60), models.StatusTargetMet},
		{"just under margin", 119 * time.Minute, ptr(60), models.StatusTargetMet},
		{"at margin", 120 * time.Minute, ptr(60), models.StatusExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultPolicy.Classify(tt.actual, tt.target); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestMissedThreshold verifies ceil(7/days) with the default of 2.
func TestMissedThreshold(t *testing.T) {
	for days, want := range map[int]int{0: 2, 1: 7, 3: 3, 5: 2, 7: 1} {
		if got := MissedThreshold(days); got != want {
			t.Errorf("MissedThreshold(%d) = %d, want %d", days, got, want)
		}
	}
}

// TestScanFiveDaysPerWeek verifies rest/missed derivation with a threshold of 2.
func TestScanFiveDaysPerWeek(t *testing.T) {
	store := &fakeStore{
		profile: models.UserProfile{TargetWorkoutDaysPerWeek: ptr(5)},
		sessions: []*models.WorkoutSession{
			completed(2026, 3, 1, models.StatusTargetMet),
			completed(2026, 3, 4, models.StatusPartial),
		},
	}
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m, err := newEngine(store).Month(context.Background(), 2026, time.March, today)
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]DayStatus{1: DayTargetMet, 2: DayRest, 3: DayMissed, 4: DayPartial, 5: DayRest, 6: DayMissed, 11: ""}
	for day, status := range want {
		if got := m.Days[day-1].Status; got != status {
			t.Errorf("March %d = %q, want %q", day, got, status)
		}
	}
}

// TestScanThreeDaysPerWeek verifies the larger gap allowed with a threshold of 3.
func TestScanThreeDaysPerWeek(t *testing.T) {
	store := &fakeStore{
		profile:  models.UserProfile{TargetWorkoutDaysPerWeek: ptr(3)},
		sessions: []*models.WorkoutSession{completed(2026, 3, 1, models.StatusTargetMet)},
	}
	today := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	m, err := newEngine(store).Month(context.Background(), 2026, time.March, today)
	if err != nil {
		t.Fatal(err)
	}
	for day, status := range map[int]DayStatus{2: DayRest, 3: DayRest, 4: DayMissed} {
		if got := m.Days[day-1].Status; got != status {
			t.Errorf("March %d = %q, want %q", day, got, status)
		}
	}
}

// TestScanWithoutAnchorIsRest verifies days before any session are rest days.
func TestScanWithoutAnchorIsRest(t *testing.T) {
	days, err := newEngine(&fakeStore{}).Year(context.Background(), 2026, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 365 {
		t.Fatalf("days = %d, want 365", len(days))
	}
	for i := range 32 {
		if days[i].Status != DayRest {
			t.Fatalf("day %d = %q, want rest_day", i+1, days[i].Status)
		}
	}
	if days[32].Status != "" {
		t.Errorf("future day status = %q, want empty", days[32].Status)
	}
}

// TestScanAnchorFromPreviousYear verifies the gap is counted across Jan 1.
func TestScanAnchorFromPreviousYear(t *testing.T) {
	store := &fakeStore{sessions: []*models.WorkoutSession{completed(2025, 12, 30, models.StatusTargetMet)}}
	days, err := newEngine(store).Year(context.Background(), 2026, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if days[0].Status != DayMissed {
		t.Errorf("Jan 1 = %q, want missed (gap 2 from Dec 30)", days[0].Status)
	}
}

// TestSkippedScheduleForcesMissed verifies an explicitly skipped plan marks the day missed.
func TestSkippedScheduleForcesMissed(t *testing.T) {
	store := &fakeStore{
		profile:  models.UserProfile{TargetWorkoutDaysPerWeek: ptr(1)},
		sessions: []*models.WorkoutSession{completed(2026, 3, 1, models.StatusTargetMet)},
		scheduled: []*models.ScheduledWorkout{
			{ID: uuid.New(), Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Status: models.ScheduleSkipped},
			{ID: uuid.New(), Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Status: models.ScheduleSkipped},
		},
	}
	m, err := newEngine(store).Month(context.Background(), 2026, time.March, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Days[1].Status; got != DayMissed {
		t.Errorf("March 2 = %q, want missed", got)
	}
	if got := m.Days[0].Status; got != DayTargetMet {
		t.Errorf("March 1 = %q, want target_met (session beats skip)", got)
	}
	if got := m.Days[2].Status; got != DayRest {
		t.Errorf("March 3 = %q, want rest_day", got)
	}
}

// TestAggregateDominantStatus verifies the day summary combines sessions.
func TestAggregateDominantStatus(t *testing.T) {
	chest := &models.ExerciseDefinition{ID: uuid.New(), MuscleGroup: ptr("chest")}
	back := &models.ExerciseDefinition{ID: uuid.New(), MuscleGroup: ptr("back")}
	run := &models.ExerciseDefinition{ID: uuid.New(), Type: models.ExerciseCardio}
	a := completed(2026, 3, 1, models.StatusTargetMet, chest, back)
	b := completed(2026, 3, 1, models.StatusExceeded, run, chest)
	c := completed(2026, 3, 1, models.StatusPartial)
	c.Status = nil

	d := Aggregate(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), []*models.WorkoutSession{a, b, c},
		map[uuid.UUID]models.Medal{a.ID: models.MedalBronze, b.ID: models.MedalSilver})

	if d.Status != DayExceeded {
		t.Errorf("Status = %q, want exceeded", d.Status)
	}
	if len(d.MuscleGroups) != 2 || d.MuscleGroups[0] != "back" || d.MuscleGroups[1] != "chest" {
		t.Errorf("MuscleGroups = %v, want [back chest]", d.MuscleGroups)
	}
	if !d.HasCardio || !d.HasPRs {
		t.Errorf("HasCardio = %v, HasPRs = %v", d.HasCardio, d.HasPRs)
	}
	if d.BestMedal == nil || *d.BestMedal != models.MedalSilver {
		t.Errorf("BestMedal = %v, want silver", d.BestMedal)
	}
	if len(d.SessionIDs) != 3 {
		t.Errorf("SessionIDs = %d, want 3", len(d.SessionIDs))
	}

	legacy := Aggregate(time.Time{}, []*models.WorkoutSession{c}, nil)
	if legacy.Status != DayPartial {
		t.Errorf("status-less session = %q, want partial", legacy.Status)
	}
}

// TestMonthOffset verifies the weekday offset honours the configured week start.
func TestMonthOffset(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	// March 1 2026 is a Sunday.
	monday, err := newEngine(&fakeStore{}).Month(context.Background(), 2026, time.March, today)
	if err != nil {
		t.Fatal(err)
	}
	if monday.Offset != 6 || len(monday.Days) != 31 {
		t.Errorf("monday start: offset %d, days %d; want 6, 31", monday.Offset, len(monday.Days))
	}
	sunday, err := New(&fakeStore{}, Options{Location: time.UTC, WeekStart: time.Sunday}, discard).
		Month(context.Background(), 2026, time.March, today)
	if err != nil {
		t.Fatal(err)
	}
	if sunday.Offset != 0 {
		t.Errorf("sunday start: offset %d, want 0", sunday.Offset)
	}
	if _, err := newEngine(&fakeStore{}).Month(context.Background(), 2026, 13, today); err == nil {
		t.Error("expected error for month 13")
	}
}

// TestCacheAndInvalidate verifies results are cached per year until invalidated.
func TestCacheAndInvalidate(t *testing.T) {
	store := &fakeStore{}
	e := newEngine(store)
	ctx := context.Background()
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	if _, err := e.Year(ctx, 2026, today); err != nil {
		t.Fatal(err)
	}
	first := store.fetches
	if _, err := e.Day(ctx, today, today.Add(3*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if store.fetches != first {
		t.Errorf("cached read fetched again (%d -> %d)", first, store.fetches)
	}

	store.sessions = append(store.sessions, completed(2026, 3, 15, models.StatusExceeded))
	e.Invalidate(time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC))
	d, err := e.Day(ctx, today, today)
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != DayExceeded {
		t.Errorf("after invalidate status = %q, want exceeded", d.Status)
	}
}

// TestViewsReturnCopies verifies that mutating a returned month or year does
// not leak into later reads.
func TestViewsReturnCopies(t *testing.T) {
	store := &fakeStore{sessions: []*models.WorkoutSession{completed(2026, 3, 2, models.StatusTargetMet)}}
	e := newEngine(store)
	ctx := context.Background()
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	m, err := e.Month(ctx, 2026, time.March, today)
	if err != nil {
		t.Fatal(err)
	}
	m.Days[1].Status = DayMissed
	year, err := e.Year(ctx, 2026, today)
	if err != nil {
		t.Fatal(err)
	}
	year[60].Status = DayExceeded

	d, err := e.Day(ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), today)
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != DayTargetMet {
		t.Errorf("cached day status = %q, want target_met", d.Status)
	}
	again, err := e.Month(ctx, 2026, time.March, today)
	if err != nil {
		t.Fatal(err)
	}
	if again.Days[1].Status != DayTargetMet {
		t.Errorf("month day status = %q, want target_met", again.Days[1].Status)
	}
}
