package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/ingest/alpha"
	"github.com/meltforce/liftlog/internal/mcp"
	"github.com/meltforce/liftlog/internal/metrics"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/server"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve MCP over stdio instead of HTTP")
	remote := flag.String("remote", "", "with -mcp-stdio, read from this LiftLog server URL instead of the local database")
	flag.Parse()

	// Stdout belongs to the MCP transport in stdio mode.
	logOut := os.Stdout
	if *mcpStdio {
		logOut = os.Stderr
	}

	if *mcpStdio && *remote != "" {
		log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
		s := mcp.New(mcp.NewHTTPClient(*remote), Version, nil, log)
		if err := mcpserver.ServeStdio(s); err != nil {
			log.Error("mcp stdio failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	log.Info("LiftLog starting", "version", Version, "driver", cfg.Database.Driver)

	if err := storage.RunMigrations(cfg.Database.Driver, cfg.Database.MigrationURL()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	loc, err := cfg.Training.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	policy := calendar.ThresholdPolicy{
		ExceededMargin: time.Duration(cfg.Training.ExceededMarginMinutes) * time.Minute,
	}
	m := metrics.NewManager("liftlog")
	sys := clock.System{}

	rec := records.New(db, log)
	cal := calendar.New(db, calendar.Options{
		Location:           loc,
		WeekStart:          cfg.Training.WeekStart(),
		DefaultDaysPerWeek: cfg.Training.DefaultDaysPerWeek,
	}, log)
	eng := session.New(db, rec, cal, log, session.Options{
		Clock:                sys,
		Scheduler:            sys,
		Policy:               policy,
		DefaultTargetMinutes: cfg.Training.DefaultTargetMinutes,
		Metrics:              m,
	})
	defer eng.Close()

	if s, err := eng.Resume(ctx); err != nil {
		log.Warn("resume failed", "error", err)
	} else if s != nil {
		log.Info("resumed session", "id", s.ID, "name", s.Name, "started_at", s.StartedAt)
	}

	mcpSrv := mcp.New(&mcp.Local{DB: db, Records: rec, Calendar: cal, Session: eng, Clock: sys}, Version, nil, log)
	if *mcpStdio {
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp stdio failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := server.New(server.Deps{
		DB:       db,
		Session:  eng,
		History:  history.New(db, rec, cal, log),
		Records:  rec,
		Calendar: cal,
		Alpha:    alpha.NewProvider(db, rec, cal, policy, loc, log),
		Metrics:  m,
		MCP:      mcpserver.NewStreamableHTTPServer(mcpSrv),
		Clock:    sys,
	}, cfg.Auth.APIKey, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
