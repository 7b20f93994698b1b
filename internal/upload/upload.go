// Package upload pushes workout exports from a local directory to a remote
// LiftLog server, remembering what was already accepted.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/ingest/alpha"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	WorkoutsSent     int
	SessionsInserted int
	SessionsSkipped  int
	SetsInserted     int64
}

// Uploader walks an export directory and POSTs new or changed files to the
// LiftLog server.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the upload pipeline. A failure on one file is logged and
// counted; only a failure to list the directory aborts the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := importer.FindExports(u.dir)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}

	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	relPath, err := filepath.Rel(u.dir, path)
	if err != nil {
		relPath = path
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	uploaded, err := u.state.IsUploaded(ctx, relPath, info.Size(), hash)
	if err != nil {
		return fmt.Errorf("state check: %w", err)
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := readExport(path)
	if err != nil {
		return err
	}

	// Parse locally so malformed files never reach the server.
	workouts, err := alpha.Parse(bytes.NewReader(data), time.Local)
	if err != nil {
		return err
	}
	if len(workouts) == 0 {
		u.stats.FilesSkipped++
		return u.state.MarkUploaded(ctx, UploadedFile{Path: relPath, Size: info.Size(), Hash: hash})
	}

	if u.dryRun {
		u.log.Info("dry-run: would send", "file", relPath, "workouts", len(workouts))
		u.stats.WorkoutsSent += len(workouts)
		return nil
	}

	res, err := u.client.SendExport(ctx, data)
	if err != nil {
		return err
	}
	u.stats.FilesUploaded++
	u.stats.WorkoutsSent += len(workouts)
	u.stats.SessionsInserted += res.SessionsInserted
	u.stats.SessionsSkipped += res.SessionsSkipped
	u.stats.SetsInserted += res.SetsInserted

	if err := u.state.MarkUploaded(ctx, UploadedFile{
		Path:             relPath,
		Size:             info.Size(),
		Hash:             hash,
		SessionsInserted: res.SessionsInserted,
	}); err != nil {
		u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
	}

	u.log.Info("uploaded export",
		"file", relPath,
		"sessions", res.SessionsInserted,
		"skipped", res.SessionsSkipped,
	)
	return nil
}

func readExport(path string) ([]byte, error) {
	rc, err := importer.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
