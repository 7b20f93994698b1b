package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered. now
// supplies the reference time for default ranges; nil means time.Now.
func New(ds DataSource, version string, now func() time.Time, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog training log server. Query workout sessions, personal records, exercise baselines, and the training calendar. Weights are in kilograms."),
	)

	if now == nil {
		now = time.Now
	}
	h := &handlers{ds: ds, now: now, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetBaseline, Handler: h.getBaseline},
		server.ServerTool{Tool: toolGetCalendar, Handler: h.getCalendar},
		server.ServerTool{Tool: toolGetTrainingVolume, Handler: h.getTrainingVolume},
		server.ServerTool{Tool: toolGetLiveSession, Handler: h.getLiveSession},
		server.ServerTool{Tool: toolGetDataStats, Handler: h.getDataStats},
	)

	s.AddResources(
		server.ServerResource{Resource: resLiveSession, Handler: h.liveSession},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	now func() time.Time
	log *slog.Logger
}

// --- Resource definitions ---

var resLiveSession = mcp.NewResource(
	"liftlog://live_session",
	"Live Session",
	mcp.WithResourceDescription("The workout currently being recorded, with rest and elapsed timers and the latest record alert"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"liftlog://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Completed workout sessions from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"liftlog://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercise definitions with muscle group, equipment and type"),
	mcp.WithMIMEType("application/json"),
)
