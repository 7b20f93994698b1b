package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/ingest/alpha"
	"github.com/meltforce/liftlog/internal/metrics"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/storage/storagetest"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) (*Server, *clock.Fake) {
	t.Helper()
	db := storagetest.New(t)
	fake := clock.NewFake(time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC))
	rec := records.New(db, discard)
	cal := calendar.New(db, calendar.Options{Location: time.UTC}, discard)
	m := metrics.NewTestManager()
	eng := session.New(db, rec, cal, discard, session.Options{Clock: fake, Scheduler: fake, Metrics: m})
	s := New(Deps{
		DB:       db,
		Session:  eng,
		History:  history.New(db, rec, cal, discard),
		Records:  rec,
		Calendar: cal,
		Alpha:    alpha.NewProvider(db, rec, cal, nil, time.UTC, discard),
		Metrics:  m,
		Clock:    fake,
	}, testAPIKey, discard)
	return s, fake
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// TestSessionLifecycleOverHTTP drives a session from start to finish and
// checks the unit conversion of an entered weight.
func TestSessionLifecycleOverHTTP(t *testing.T) {
	s, fake := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/exercises", map[string]any{"name": "Bench Press"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create exercise status = %d: %s", rec.Code, rec.Body)
	}
	def := decodeBody[models.ExerciseDefinition](t, rec)

	if rec := do(t, s, http.MethodPost, "/api/v1/session/start", map[string]any{"name": "Push"}); rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/session/start", nil); rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", rec.Code)
	}
	do(t, s, http.MethodPost, "/api/v1/session/exercises", map[string]any{"definition_id": def.ID})
	rec = do(t, s, http.MethodPost, "/api/v1/session/exercises/0/sets", map[string]any{"reps": 5, "weight": 100, "unit": "lb"})
	if rec.Code != http.StatusOK {
		t.Fatalf("log set status = %d: %s", rec.Code, rec.Body)
	}
	snap := decodeBody[session.Snapshot](t, rec)
	w := snap.Session.Exercises[0].Sets[0].Weight
	if w == nil || *w < 45.359 || *w > 45.360 {
		t.Errorf("stored weight = %v, want 45.359 kg", w)
	}

	fake.Advance(50 * time.Minute)
	rec = do(t, s, http.MethodPost, "/api/v1/session/finish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finish status = %d: %s", rec.Code, rec.Body)
	}
	snap = decodeBody[session.Snapshot](t, rec)
	if snap.State != session.Finished || snap.Session.Status == nil {
		t.Fatalf("after finish state=%v status=%v", snap.State, snap.Session.Status)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/sessions?start=2026-05-01&end=2026-05-04", nil)
	list := decodeBody[[]*models.WorkoutSession](t, rec)
	if len(list) != 1 {
		t.Fatalf("sessions listed = %d, want 1", len(list))
	}

	rec = do(t, s, http.MethodGet, "/api/v1/calendar/2026/5", nil)
	view := decodeBody[calendar.MonthView](t, rec)
	if got := view.Days[3].Status; got != calendar.DayTargetMet {
		t.Errorf("May 4 status = %v, want target_met", got)
	}

	if rec := do(t, s, http.MethodDelete, "/api/v1/sessions/"+list[0].ID.String(), nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d: %s", rec.Code, rec.Body)
	}
	rec = do(t, s, http.MethodGet, "/api/v1/session", nil)
	if snap := decodeBody[session.Snapshot](t, rec); snap.State != session.NotStarted || snap.Session != nil {
		t.Errorf("after delete state=%v session=%v, want idle", snap.State, snap.Session)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/session/template", map[string]any{"name": "Gone"}); rec.Code == http.StatusOK || rec.Code == http.StatusCreated {
		t.Errorf("save deleted session as template status = %d", rec.Code)
	}
}

// TestCommandWithoutSession verifies that live commands answer with the idle
// snapshot rather than an error.
func TestCommandWithoutSession(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/session/exercises/0/sets", map[string]any{"reps": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if snap := decodeBody[session.Snapshot](t, rec); snap.State != session.NotStarted {
		t.Errorf("state = %v", snap.State)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/session/finish", nil); rec.Code != http.StatusConflict {
		t.Errorf("finish without session = %d, want 409", rec.Code)
	}
}

// TestAlphaIngestOverHTTP verifies key enforcement and import logging.
func TestAlphaIngestOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	csv := `"Push";"2026-05-01 7:30 h";"0:55 hr"
"1. Bench Press · Barbell · 6 reps"
#;KG;REPS;RIR
1;80;6;1
2;80;6;0
`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader(csv))
	req.Header.Set("X-API-Key", testAPIKey)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d: %s", rec.Code, rec.Body)
	}
	if res := decodeBody[map[string]any](t, rec); res["sessions_inserted"] != float64(1) {
		t.Errorf("result = %v", res)
	}

	logs := decodeBody[[]storage.ImportLog](t, do(t, s, http.MethodGet, "/api/v1/import-logs", nil))
	if len(logs) != 1 || logs[0].Status != "success" || logs[0].SessionsInserted != 1 {
		t.Errorf("import logs = %+v", logs)
	}
	stats := decodeBody[storage.DataStats](t, do(t, s, http.MethodGet, "/api/v1/stats", nil))
	if stats.TotalSessions != 1 || stats.TotalSets != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestBadRequests covers parameter validation.
func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		method, path string
		body         any
		want         int
	}{
		{http.MethodGet, "/api/v1/calendar/2026/13", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/calendar/day/yesterday", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/sessions/not-a-uuid", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/sessions/2f1f5c1e-6c4a-4a57-9d5e-0c9d8a1b2c3d", nil, http.StatusNotFound},
		{http.MethodPost, "/api/v1/exercises", map[string]any{"name": "Row", "type": "swimming"}, http.StatusBadRequest},
		{http.MethodPut, "/api/v1/profile", map[string]any{"preferred_weight_unit": "stone"}, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/schedule", map[string]any{"date": "05/04/2026"}, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/session/start", map[string]any{"template_id": "2f1f5c1e-6c4a-4a57-9d5e-0c9d8a1b2c3d"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := do(t, s, tt.method, tt.path, tt.body); rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body)
		}
	}
}

// TestMetricsEndpoint verifies the scrape endpoint reports served requests.
func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/api/v1/session", nil)
	rec := do(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "liftlog_test_http_requests_total") {
		t.Error("request counter missing from scrape")
	}
}
