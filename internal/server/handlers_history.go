package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := models.SessionQuery{StartedFrom: &start, StartedBefore: &end, Descending: true}
	if v := r.URL.Query().Get("definition_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid definition_id")
			return
		}
		q.DefinitionID = &id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Limit = n
		}
	}
	sessions, err := s.History.List(r.Context(), q)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	sess, err := s.History.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if live := s.Session.Session(); live != nil && live.ID == id && !live.IsCompleted() {
		writeError(w, http.StatusConflict, "session is active; discard it instead")
		return
	}
	if err := s.History.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.Session.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	var q models.RecordQuery
	if v := r.URL.Query().Get("definition_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid definition_id")
			return
		}
		q.DefinitionID = &id
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := models.RecordType(v)
		q.Type = &t
	}
	recs, err := s.DB.PersonalRecords(r.Context(), q)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleRecompute re-ranks every catalog entry from full history.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	defs, err := s.DB.Definitions(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	ids := make([]uuid.UUID, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	if _, err := s.Records.Recompute(r.Context(), ids...); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.Calendar.Invalidate(time.Time{})
	writeJSON(w, http.StatusOK, map[string]int{"definitions": len(ids)})
}

func (s *Server) handleCalendarYear(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r, "year")
	if !ok {
		return
	}
	days, err := s.Calendar.Year(r.Context(), year, s.today())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r, "year")
	if !ok {
		return
	}
	month, ok := intParam(w, r, "month")
	if !ok {
		return
	}
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	view, err := s.Calendar.Month(r.Context(), year, time.Month(month), s.today())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(time.DateOnly, chi.URLParam(r, "date"), s.Calendar.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	day, err := s.Calendar.Day(r.Context(), date, s.today())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}
