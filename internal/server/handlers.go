package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps storage errors to status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error("store error", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

// parseTime accepts RFC 3339 or a bare date in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t, nil
}

// parseTimeRange reads start and end query parameters. A date-only end
// covers the whole day. Missing bounds default to the last 30 days.
func (s *Server) parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	loc := s.Calendar.Location()
	end = s.Clock.Now()
	start = end.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = parseTime(v, loc); err != nil {
			return
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = parseTime(v, loc); err != nil {
			return
		}
		if len(v) == len(time.DateOnly) {
			end = end.AddDate(0, 0, 1)
		}
	}
	return
}

// weightInput is a load entered in the user's unit. An empty unit means the
// profile's preferred unit.
type weightInput struct {
	Weight *float64          `json:"weight"`
	Unit   models.WeightUnit `json:"unit"`
}

func (s *Server) kilograms(ctx context.Context, in weightInput) *float64 {
	if in.Weight == nil {
		return nil
	}
	unit := in.Unit
	if unit == "" {
		if p, err := s.DB.Profile(ctx); err == nil {
			unit = p.PreferredWeightUnit
		}
	}
	kg := models.ToKilograms(*in.Weight, unit)
	return &kg
}

func (s *Server) today() time.Time {
	return s.Clock.Now().In(s.Calendar.Location())
}
