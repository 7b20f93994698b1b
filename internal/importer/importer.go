// Package importer bulk-loads a directory of workout exports.
package importer

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsInserted   int
	SessionsDuplicated int
	SetsInserted       int64
	DefinitionsCreated int

	Errored []string
}

// ImportLogger records one entry per imported file.
type ImportLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

// Importer feeds export files under a directory to a provider.
type Importer struct {
	provider ingest.Provider
	logs     ImportLogger
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. logs may be nil; dry runs never write logs.
func New(provider ingest.Provider, logs ImportLogger, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{provider: provider, logs: logs, log: log, dryRun: dryRun}
}

// Import processes all export files under dir in name order.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	files, err := FindExports(dir)
	if err != nil {
		return &imp.stats, err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		imp.importFile(ctx, f)
	}
	return &imp.stats, nil
}

// FindExports lists .csv and .csv.gz files below dir, sorted by path.
func FindExports(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.gz") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}

// Open returns a reader over an export file, decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gunzip %s: %w", filepath.Base(path), err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (imp *Importer) importFile(ctx context.Context, path string) {
	started := time.Now()
	rc, err := Open(path)
	if err != nil {
		imp.log.Warn("open failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		imp.stats.Errored = append(imp.stats.Errored, path)
		return
	}
	defer func() { _ = rc.Close() }()

	result, err := imp.provider.Ingest(ctx, rc)
	imp.writeLog(path, result, err, time.Since(started))
	if err != nil {
		imp.log.Warn("import failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		imp.stats.Errored = append(imp.stats.Errored, path)
		return
	}
	if result.SessionsReceived == 0 {
		imp.stats.FilesSkipped++
		return
	}

	imp.stats.FilesProcessed++
	imp.stats.SessionsInserted += result.SessionsInserted
	imp.stats.SessionsDuplicated += result.SessionsSkipped
	imp.stats.SetsInserted += result.SetsInserted
	imp.stats.DefinitionsCreated += result.DefinitionsCreated
	imp.log.Info("imported file",
		"file", filepath.Base(path),
		"sessions", result.SessionsInserted,
		"skipped", result.SessionsSkipped,
		"sets", result.SetsInserted)
}

func (imp *Importer) writeLog(path string, result *ingest.Result, importErr error, took time.Duration) {
	if imp.dryRun || imp.logs == nil {
		return
	}
	ms := int(took.Milliseconds())
	entry := storage.ImportLog{
		Source:     imp.provider.Source() + "_file",
		Status:     "success",
		DurationMs: &ms,
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if result != nil {
		entry.SessionsReceived = result.SessionsReceived
		entry.SessionsInserted = result.SessionsInserted
		entry.SetsInserted = result.SetsInserted
	}
	if meta, err := json.Marshal(map[string]string{"file": filepath.Base(path)}); err == nil {
		entry.Metadata = meta
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := imp.logs.InsertImportLog(ctx, entry); err != nil {
		imp.log.Error("failed to log import", "file", path, "error", err)
	}
}
