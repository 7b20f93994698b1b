package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/metrics"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

// Deps are the components the HTTP surface drives.
type Deps struct {
	DB       *storage.DB
	Session  *session.Engine
	History  *history.Service
	Records  *records.Engine
	Calendar *calendar.Engine
	Alpha    ingest.Provider
	Metrics  *metrics.Manager
	// MCP is mounted at /mcp when set.
	MCP   http.Handler
	Clock clock.Clock
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	Deps
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(deps Deps, apiKey string, log *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewTestManager()
	}
	s := &Server{
		Deps:   deps,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(Recover(s.Metrics, s.log))
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.Metrics))
	s.router.Use(CORS)

	s.router.Handle("/metrics", s.Metrics.Handler())
	if s.MCP != nil {
		s.router.Mount("/mcp", s.MCP)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// Ingest endpoints (API key required)
		r.Route("/ingest", func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/alpha", s.handleAlphaIngest)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Get("/events", s.handleSessionEvents)
			r.Post("/start", s.handleStart)
			r.Post("/resume", s.handleResume)
			r.Post("/finish", s.handleFinish)
			r.Post("/discard", s.handleDiscard)
			r.Post("/template", s.handleSaveAsTemplate)
			r.Put("/name", s.handleRename)
			r.Put("/notes", s.handleNotes)
			r.Post("/rest/skip", s.handleSkipRest)

			r.Post("/exercises", s.handleAddExercise)
			r.Post("/exercises/move", s.handleMoveExercise)
			r.Delete("/exercises/{index}", s.handleRemoveExercise)
			r.Post("/exercises/{index}/current", s.handleSetCurrent)
			r.Post("/exercises/{index}/sets", s.handleLogSet)
			r.Post("/exercises/{index}/cardio", s.handleLogCardio)
			r.Post("/exercises/{index}/planned", s.handleAddPlannedSet)
			r.Put("/exercises/{index}/effort", s.handleEffort)
			r.Put("/exercises/{index}/rest", s.handleRestSeconds)

			r.Post("/sets/{id}/complete", s.handleCompleteSet)
			r.Post("/sets/{id}/uncomplete", s.handleUncompleteSet)
			r.Put("/sets/{id}", s.handleUpdateSet)
			r.Delete("/sets/{id}", s.handleRemoveSet)

			r.Post("/stretches", s.handleAddStretch)
			r.Put("/stretches/{id}", s.handleUpdateStretch)
			r.Delete("/stretches/{id}", s.handleRemoveStretch)
		})

		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		r.Get("/records", s.handleRecords)
		r.Post("/records/recompute", s.handleRecompute)

		r.Get("/calendar/{year}", s.handleCalendarYear)
		r.Get("/calendar/{year}/{month}", s.handleCalendarMonth)
		r.Get("/calendar/day/{date}", s.handleCalendarDay)

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleSaveExercise)
		r.Get("/exercises/{id}/baseline", s.handleBaseline)
		r.Delete("/exercises/{id}", s.handleDeleteExercise)

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleSaveTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Get("/schedule", s.handleListSchedule)
		r.Post("/schedule", s.handleSaveSchedule)
		r.Delete("/schedule/{id}", s.handleDeleteSchedule)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleSaveProfile)

		r.Get("/stats", s.handleStats)
		r.Get("/import-logs", s.handleImportLogs)
	})
}
