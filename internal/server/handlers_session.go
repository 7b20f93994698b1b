package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Snapshot())
}

// ok answers a live command with the resulting state.
func (s *Server) ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, s.Session.Snapshot())
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrTemplateNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("session command failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type startRequest struct {
	TemplateID *uuid.UUID `json:"template_id"`
	Name       string     `json:"name"`
	// StartedAt switches to manual entry for a past workout.
	StartedAt *time.Time `json:"started_at"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	var err error
	switch {
	case req.TemplateID != nil && req.StartedAt != nil:
		_, err = s.Session.StartManualEntryFromTemplate(ctx, *req.TemplateID, *req.StartedAt)
	case req.TemplateID != nil:
		_, err = s.Session.StartFromTemplate(ctx, *req.TemplateID)
	case req.StartedAt != nil:
		_, err = s.Session.StartManualEntry(ctx, nameOr(req.Name, "Workout"), *req.StartedAt)
	default:
		_, err = s.Session.StartAdHoc(ctx, nameOr(req.Name, "Workout"))
	}
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Session.Snapshot())
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Session.Resume(r.Context()); err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DurationMinutes *int `json:"duration_minutes"`
	}
	if !decode(w, r, &req) {
		return
	}
	var err error
	if req.DurationMinutes != nil {
		_, err = s.Session.FinishManual(r.Context(), *req.DurationMinutes)
	} else {
		_, err = s.Session.Finish(r.Context())
	}
	if err != nil && !errors.Is(err, session.ErrNoSession) && s.Session.State() == session.Finished {
		// Saved and classified; only record ranking failed.
		s.log.Warn("finish completed with errors", "error", err)
		err = nil
	}
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Discard(r.Context()); err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleSaveAsTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := s.Session.SaveAsTemplate(r.Context(), req.Name)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Session.Rename(r.Context(), req.Name)
	s.ok(w)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Session.SetNotes(r.Context(), req.Notes)
	s.ok(w)
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	s.Session.SkipRest()
	s.ok(w)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DefinitionID uuid.UUID `json:"definition_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	def, err := s.DB.Definition(r.Context(), req.DefinitionID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.Session.AddExercise(r.Context(), def)
	s.ok(w)
}

func (s *Server) handleMoveExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Session.ReorderExercise(r.Context(), req.From, req.To)
	s.ok(w)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	s.Session.RemoveExercise(r.Context(), idx)
	s.ok(w)
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	s.Session.SetCurrentExercise(idx)
	s.ok(w)
}

type setRequest struct {
	weightInput
	Reps            int  `json:"reps"`
	DurationSeconds *int `json:"duration_seconds"`
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	var req setRequest
	if !decode(w, r, &req) {
		return
	}
	s.Session.LogSet(r.Context(), idx, req.Reps, s.kilograms(r.Context(), req.weightInput))
	s.ok(w)
}

func (s *Server) handleLogCardio(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	var req struct {
		DistanceMeters  int `json:"distance_meters"`
		DurationSeconds int `json:"duration_seconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Session.LogCardio(r.Context(), idx, req.DistanceMeters, req.DurationSeconds)
	s.ok(w)
}

func (s *Server) handleAddPlannedSet(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	s.Session.AddPlannedSet(r.Context(), idx)
	s.ok(w)
}

func (s *Server) handleEffort(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	var req struct {
		Effort int `json:"effort"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Session.SetEffort(r.Context(), idx, req.Effort)
	s.ok(w)
}

func (s *Server) handleRestSeconds(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	var req struct {
		Seconds *int `json:"seconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Session.SetRestSeconds(r.Context(), idx, req.Seconds)
	s.ok(w)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req setRequest
	if !decode(w, r, &req) {
		return
	}
	s.Session.CompleteSet(r.Context(), id, req.Reps, s.kilograms(r.Context(), req.weightInput), req.DurationSeconds)
	s.ok(w)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req setRequest
	if !decode(w, r, &req) {
		return
	}
	s.Session.UpdateSet(r.Context(), id, req.Reps, s.kilograms(r.Context(), req.weightInput), req.DurationSeconds)
	s.ok(w)
}

func (s *Server) handleUncompleteSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.Session.UncompleteSet(r.Context(), id)
	s.ok(w)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.Session.RemoveSet(r.Context(), id)
	s.ok(w)
}

type stretchRequest struct {
	Name            string `json:"name"`
	DurationSeconds *int   `json:"duration_seconds"`
}

func (s *Server) handleAddStretch(w http.ResponseWriter, r *http.Request) {
	var req stretchRequest
	if !decode(w, r, &req) {
		return
	}
	s.Session.AddStretch(r.Context(), req.Name, req.DurationSeconds)
	s.ok(w)
}

func (s *Server) handleUpdateStretch(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req stretchRequest
	if !decode(w, r, &req) {
		return
	}
	s.Session.UpdateStretch(r.Context(), id, req.Name, req.DurationSeconds)
	s.ok(w)
}

func (s *Server) handleRemoveStretch(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.Session.RemoveStretch(r.Context(), id)
	s.ok(w)
}
