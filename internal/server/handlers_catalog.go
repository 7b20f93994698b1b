package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	defs, err := s.DB.Definitions(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	var d models.ExerciseDefinition
	if !decode(w, r, &d) {
		return
	}
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if d.Type == "" {
		d.Type = models.ExerciseStrength
	}
	if !d.Type.Valid() {
		writeError(w, http.StatusBadRequest, "type must be strength or cardio")
		return
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if err := s.DB.SaveDefinition(r.Context(), &d); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.DB.DeleteDefinition(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBaseline returns the history a live set for this exercise is
// compared against.
func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Records.Baseline(r.Context(), id, nil))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ts, err := s.DB.Templates(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := s.DB.Template(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleSaveTemplate creates or replaces a template. Missing child IDs are
// generated and orders are renumbered from the request's list order.
func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.WorkoutTemplate
	if !decode(w, r, &t) {
		return
	}
	if strings.TrimSpace(t.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	now := s.Clock.Now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	for _, ex := range t.Exercises {
		if ex.ID == uuid.Nil {
			ex.ID = uuid.New()
		}
		if ex.Definition != nil {
			def, err := s.DB.Definition(r.Context(), ex.Definition.ID)
			if err != nil {
				s.writeStoreError(w, err)
				return
			}
			ex.Definition = def
			if ex.Name == "" {
				ex.Name = def.Name
			}
		}
		for _, g := range ex.SetGoals {
			if g.ID == uuid.Nil {
				g.ID = uuid.New()
			}
		}
		models.Renumber(ex.SetGoals)
	}
	for _, st := range t.Stretches {
		if st.ID == uuid.Nil {
			st.ID = uuid.New()
		}
	}
	models.Renumber(t.Exercises)
	models.Renumber(t.Stretches)
	if err := s.DB.SaveTemplate(r.Context(), &t); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.DB.DeleteTemplate(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSchedule(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := s.DB.ScheduledWorkouts(r.Context(), start, end)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         uuid.UUID             `json:"id"`
		Date       string                `json:"date"`
		TemplateID *uuid.UUID            `json:"template_id"`
		Status     models.ScheduleStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, req.Date, s.Calendar.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	switch req.Status {
	case "":
		req.Status = models.SchedulePlanned
	case models.SchedulePlanned, models.ScheduleCompleted, models.ScheduleSkipped:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	sw := &models.ScheduledWorkout{ID: req.ID, Date: date, TemplateID: req.TemplateID, Status: req.Status}
	if err := s.DB.SaveScheduledWorkout(r.Context(), sw); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.Calendar.Invalidate(date)
	writeJSON(w, http.StatusOK, sw)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.DB.DeleteScheduledWorkout(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.Calendar.Invalidate(time.Time{})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.DB.Profile(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.DB.Profile(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	id := p.ID
	if !decode(w, r, p) {
		return
	}
	p.ID = id
	if p.PreferredWeightUnit != models.UnitKilograms && p.PreferredWeightUnit != models.UnitPounds {
		writeError(w, http.StatusBadRequest, "preferred_weight_unit must be kg or lb")
		return
	}
	if d := p.TargetWorkoutDaysPerWeek; d != nil && (*d < 1 || *d > 7) {
		writeError(w, http.StatusBadRequest, "target_workout_days_per_week must be 1..7")
		return
	}
	if err := s.DB.SaveProfile(r.Context(), p); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.Calendar.Invalidate(time.Time{})
	writeJSON(w, http.StatusOK, p)
}
