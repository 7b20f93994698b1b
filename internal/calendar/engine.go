// Package calendar classifies calendar days into adherence states and
// aggregates per-day summaries for month and year views.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// Store is the subset of the data store the calendar reads.
type Store interface {
	Sessions(ctx context.Context, q models.SessionQuery) ([]*models.WorkoutSession, error)
	PersonalRecords(ctx context.Context, q models.RecordQuery) ([]*models.PersonalRecord, error)
	ScheduledWorkouts(ctx context.Context, from, to time.Time) ([]*models.ScheduledWorkout, error)
	Profile(ctx context.Context) (*models.UserProfile, error)
}

// Options configures day boundaries and defaults.
type Options struct {
	// Location decides which calendar day a session belongs to. Defaults to time.Local.
	Location *time.Location
	// WeekStart is the first column of month views.
	WeekStart time.Weekday
	// DefaultDaysPerWeek applies when the profile has no goal. Zero means a
	// missed threshold of two days.
	DefaultDaysPerWeek int
}

// Engine computes and caches year scans.
type Engine struct {
	store  Store
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	cache map[int]*yearScan
}

type yearScan struct {
	today time.Time
	days  []DayData
}

// New creates a calendar engine.
func New(store Store, opts Options, logger *slog.Logger) *Engine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Engine{store: store, opts: opts, logger: logger, cache: make(map[int]*yearScan)}
}

// Location returns the zone calendar days are computed in.
func (e *Engine) Location() *time.Location {
	return e.opts.Location
}

// Invalidate drops cached results for from's year and every later year.
func (e *Engine) Invalidate(from time.Time) {
	year := from.In(e.opts.Location).Year()
	e.mu.Lock()
	defer e.mu.Unlock()
	for y := range e.cache {
		if y >= year {
			delete(e.cache, y)
		}
	}
	e.logger.Debug("calendar invalidated", "from_year", year)
}

// Year returns a copy of one DayData per day of year.
func (e *Engine) Year(ctx context.Context, year int, today time.Time) ([]DayData, error) {
	days, err := e.cachedYear(ctx, year, today)
	if err != nil {
		return nil, err
	}
	return slices.Clone(days), nil
}

// cachedYear returns the shared cached scan. Callers must not modify it.
func (e *Engine) cachedYear(ctx context.Context, year int, today time.Time) ([]DayData, error) {
	today = e.dayStart(today)
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.cache[year]; ok && c.today.Equal(today) {
		return c.days, nil
	}
	days, err := e.scanYear(ctx, year, today)
	if err != nil {
		return nil, err
	}
	e.cache[year] = &yearScan{today: today, days: days}
	return days, nil
}

// MonthView is a month laid out for a week grid.
type MonthView struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	// Offset is the number of blank cells before the first day.
	Offset int       `json:"offset"`
	Days   []DayData `json:"days"`
}

// Month returns the days of one month and the weekday offset of its first day.
// The days are a copy; the cached year is never exposed.
func (e *Engine) Month(ctx context.Context, year int, month time.Month, today time.Time) (*MonthView, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	days, err := e.cachedYear(ctx, year, today)
	if err != nil {
		return nil, err
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, e.opts.Location)
	startIdx := first.YearDay() - 1
	n := daysIn(year, month)
	return &MonthView{
		Year:   year,
		Month:  month,
		Offset: (int(first.Weekday()) - int(e.opts.WeekStart) + 7) % 7,
		Days:   slices.Clone(days[startIdx : startIdx+n]),
	}, nil
}

// Day returns the summary of a single day.
func (e *Engine) Day(ctx context.Context, date time.Time, today time.Time) (*DayData, error) {
	date = date.In(e.opts.Location)
	days, err := e.cachedYear(ctx, date.Year(), today)
	if err != nil {
		return nil, err
	}
	d := days[date.YearDay()-1]
	return &d, nil
}

func (e *Engine) dayStart(t time.Time) time.Time {
	t = t.In(e.opts.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.opts.Location)
}

func (e *Engine) missedThreshold(ctx context.Context) int {
	days := e.opts.DefaultDaysPerWeek
	if p, err := e.store.Profile(ctx); err != nil {
		e.logger.Warn("loading profile for calendar", "error", err)
	} else if p.TargetWorkoutDaysPerWeek != nil {
		days = *p.TargetWorkoutDaysPerWeek
	}
	return MissedThreshold(days)
}

// MissedThreshold is ceil(7/daysPerWeek), or 2 without a goal.
func MissedThreshold(daysPerWeek int) int {
	if daysPerWeek <= 0 {
		return 2
	}
	return (7 + daysPerWeek - 1) / daysPerWeek
}

// scanYear walks Jan 1 through today carrying the last-session anchor.
// Fetch failures degrade to empty data rather than failing the view.
func (e *Engine) scanYear(ctx context.Context, year int, today time.Time) ([]DayData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := e.opts.Location
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)

	sessions, err := e.store.Sessions(ctx, models.SessionQuery{CompletedOnly: true, StartedFrom: &start, StartedBefore: &end})
	if err != nil {
		e.logger.Warn("loading sessions for calendar", "year", year, "error", err)
		sessions = nil
	}

	var anchor *time.Time
	prior, err := e.store.Sessions(ctx, models.SessionQuery{CompletedOnly: true, StartedBefore: &start, Descending: true, Limit: 1})
	if err != nil {
		e.logger.Warn("loading calendar anchor", "year", year, "error", err)
	} else if len(prior) > 0 {
		a := e.dayStart(prior[0].StartedAt)
		anchor = &a
	}

	medals := make(map[uuid.UUID]models.Medal)
	if recs, err := e.store.PersonalRecords(ctx, models.RecordQuery{}); err != nil {
		e.logger.Warn("loading records for calendar", "error", err)
	} else {
		for _, r := range recs {
			if m, ok := medals[r.SessionID]; !ok || r.Medal < m {
				medals[r.SessionID] = r.Medal
			}
		}
	}

	skipped := make(map[int]bool)
	if plans, err := e.store.ScheduledWorkouts(ctx, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		e.logger.Warn("loading scheduled workouts for calendar", "year", year, "error", err)
	} else {
		for _, p := range plans {
			if p.Status == models.ScheduleSkipped && p.Date.Year() == year {
				d := time.Date(year, p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, loc)
				skipped[d.YearDay()-1] = true
			}
		}
	}

	n := time.Date(year, time.December, 31, 0, 0, 0, 0, loc).YearDay()
	byDay := make([][]*models.WorkoutSession, n)
	for _, s := range sessions {
		d := s.StartedAt.In(loc)
		if d.Year() != year {
			continue
		}
		byDay[d.YearDay()-1] = append(byDay[d.YearDay()-1], s)
	}

	threshold := e.missedThreshold(ctx)
	days := make([]DayData, n)
	for i := range n {
		date := time.Date(year, time.January, 1+i, 0, 0, 0, 0, loc)
		days[i] = Aggregate(date, byDay[i], medals)
		if date.After(today) {
			days[i].Status = ""
			continue
		}
		if days[i].HasSession() {
			a := date
			anchor = &a
			continue
		}
		switch {
		case skipped[i]:
			days[i].Status = DayMissed
		case anchor == nil:
			days[i].Status = DayRest
		case daysBetween(*anchor, date) >= threshold:
			days[i].Status = DayMissed
		default:
			days[i].Status = DayRest
		}
	}
	return days, nil
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
