package mcp

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/models"
)

// defaultTimeRange returns start/end defaulting to the given number of days
// before now. A date-only end covers the whole day.
func defaultTimeRange(startStr, endStr string, now time.Time, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if len(endStr) == len(time.DateOnly) {
			end = end.AddDate(0, 0, 1)
		}
	} else {
		end = now
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// findExercise resolves a definition by ID, exact name or unique partial name.
func findExercise(defs []*models.ExerciseDefinition, query string) (*models.ExerciseDefinition, error) {
	if id, err := uuid.Parse(query); err == nil {
		for _, d := range defs {
			if d.ID == id {
				return d, nil
			}
		}
		return nil, fmt.Errorf("no exercise with id %s", id)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var matches []*models.ExerciseDefinition
	for _, d := range defs {
		name := strings.ToLower(d.Name)
		if name == q {
			return d, nil
		}
		if strings.Contains(name, q) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no exercise matching %q", query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

// --- Tool definitions ---

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Query completed workout sessions. Returns exercises with their sets (reps, weight in kg, completion), effort, duration target and status."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 14 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Only return sessions containing this exercise (partial name match)")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Gold, silver and bronze personal records per exercise: max weight, max reps, best volume and best cardio time."),
	mcp.WithString("exercise", mcp.Description("Exercise name or ID. Omit for all exercises.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all exercise definitions in the catalog."),
)

var toolGetBaseline = mcp.NewTool("get_baseline",
	mcp.WithDescription("Best-ever snapshot for one exercise: max weight, reps at that weight and best single-session volume."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name or ID")),
)

var toolGetCalendar = mcp.NewTool("get_calendar",
	mcp.WithDescription("Per-day training status for one month: exceeded, target_met, partial, missed or rest_day, with muscle groups and record medals."),
	mcp.WithNumber("year", mcp.Description("Calendar year. Defaults to the current year.")),
	mcp.WithNumber("month", mcp.Description("Month 1-12. Defaults to the current month.")),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Per-exercise totals over a period: sessions, completed sets, reps and tonnage (kg)."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 28 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetLiveSession = mcp.NewTool("get_live_session",
	mcp.WithDescription("The workout currently being recorded, if any, with rest countdown and elapsed time."),
)

var toolGetDataStats = mcp.NewTool("get_data_stats",
	mcp.WithDescription("Totals across the whole log: sessions, sets, volume, records and date range."),
)

// --- Tool handlers ---

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), h.now(), 14)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.ds.Sessions(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if filter := strings.ToLower(req.GetString("exercise", "")); filter != "" {
		sessions = slices.DeleteFunc(sessions, func(s *models.WorkoutSession) bool {
			return !slices.ContainsFunc(s.Exercises, func(ex *models.ExerciseSession) bool {
				return strings.Contains(strings.ToLower(ex.Name), filter)
			})
		})
	}

	return jsonResult(sessions), nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var definitionID *uuid.UUID
	if q := req.GetString("exercise", ""); q != "" {
		defs, err := h.ds.Exercises(ctx)
		if err != nil {
			h.log.Error("mcp get_personal_records", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		def, err := findExercise(defs, q)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		definitionID = &def.ID
	}

	recs, err := h.ds.Records(ctx, definitionID)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(recs), nil
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defs, err := h.ds.Exercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(defs), nil
}

func (h *handlers) getBaseline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	defs, err := h.ds.Exercises(ctx)
	if err != nil {
		h.log.Error("mcp get_baseline", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	def, err := findExercise(defs, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	b, err := h.ds.Baseline(ctx, def.ID)
	if err != nil {
		h.log.Error("mcp get_baseline", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"exercise": def.Name,
		"baseline": b,
	}), nil
}

func (h *handlers) getCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := h.now()
	year := req.GetInt("year", now.Year())
	month := req.GetInt("month", int(now.Month()))
	if month < 1 || month > 12 {
		return mcp.NewToolResultError("month must be between 1 and 12"), nil
	}

	view, err := h.ds.CalendarMonth(ctx, year, time.Month(month))
	if err != nil {
		h.log.Error("mcp get_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(view), nil
}

// exerciseVolume is one row of the training volume summary.
type exerciseVolume struct {
	Exercise string  `json:"exercise"`
	Sessions int     `json:"sessions"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	VolumeKg float64 `json:"volume_kg"`
}

// summarizeVolume totals completed sets per exercise name, largest volume first.
func summarizeVolume(sessions []*models.WorkoutSession) []exerciseVolume {
	byName := make(map[string]*exerciseVolume)
	for _, s := range sessions {
		seen := make(map[string]bool)
		for _, ex := range s.Exercises {
			v, ok := byName[ex.Name]
			if !ok {
				v = &exerciseVolume{Exercise: ex.Name}
				byName[ex.Name] = v
			}
			if !seen[ex.Name] {
				seen[ex.Name] = true
				v.Sessions++
			}
			for _, set := range ex.Sets {
				if !set.IsCompleted {
					continue
				}
				v.Sets++
				if !ex.Definition.IsCardio() {
					v.Reps += set.Reps
				}
			}
			v.VolumeKg += ex.Volume()
		}
	}

	out := make([]exerciseVolume, 0, len(byName))
	for _, v := range byName {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b exerciseVolume) int {
		if a.VolumeKg != b.VolumeKg {
			if a.VolumeKg > b.VolumeKg {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Exercise, b.Exercise)
	})
	return out
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), h.now(), 28)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.ds.Sessions(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return jsonResult(map[string]any{
		"start":     start,
		"end":       end,
		"sessions":  len(sessions),
		"exercises": summarizeVolume(sessions),
	}), nil
}

func (h *handlers) getLiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.LiveSession(ctx)
	if err != nil {
		h.log.Error("mcp get_live_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(snap), nil
}

func (h *handlers) getDataStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.Stats(ctx)
	if err != nil {
		h.log.Error("mcp get_data_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats), nil
}
