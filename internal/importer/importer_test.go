package importer

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/ingest/alpha"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/storage/storagetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const pushCSV = `"Push";"2026-04-06 18:00 h";"0:55 hr"
"1. Bench Press · Barbell · 6 reps"
#;KG;REPS;RIR
1;80;6;1
2;80;6;0
`

const pullCSV = `"Pull";"2026-04-08 18:00 h";"0:50 hr"
"1. Barbell Row · Barbell · 8 reps"
#;KG;REPS;RIR
1;70;8;1
2;70;8;1
3;70;7;0
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

// exportDir lays out one plain export, one gzipped export in a subdirectory,
// an empty file, a broken file and an unrelated file.
func exportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_push.csv"), pushCSV)
	if err := os.MkdirAll(filepath.Join(dir, "older"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeGzip(t, filepath.Join(dir, "older", "b_pull.csv.gz"), pullCSV)
	writeFile(t, filepath.Join(dir, "c_empty.csv"), "")
	writeFile(t, filepath.Join(dir, "d_broken.CSV"), `"1. Bench Press · Barbell · 6 reps"`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not an export")
	return dir
}

func newProvider(db *storage.DB) *alpha.Provider {
	rec := records.New(db, discard)
	cal := calendar.New(db, calendar.Options{Location: time.UTC}, discard)
	return alpha.NewProvider(db, rec, cal, nil, time.UTC, discard)
}

// TestFindExports verifies only CSV exports are picked up, in path order.
func TestFindExports(t *testing.T) {
	dir := exportDir(t)
	files, err := FindExports(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a_push.csv"),
		filepath.Join(dir, "c_empty.csv"),
		filepath.Join(dir, "d_broken.CSV"),
		filepath.Join(dir, "older", "b_pull.csv.gz"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

// TestImportDirectory verifies per-file stats, import logs and that a second
// pass only finds duplicates.
func TestImportDirectory(t *testing.T) {
	db := storagetest.New(t)
	dir := exportDir(t)
	ctx := context.Background()

	stats, err := New(newProvider(db), db, discard, false).Import(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 2 || stats.FilesSkipped != 1 || stats.FilesErrored != 1 {
		t.Errorf("files processed/skipped/errored = %d/%d/%d, want 2/1/1",
			stats.FilesProcessed, stats.FilesSkipped, stats.FilesErrored)
	}
	if stats.SessionsInserted != 2 || stats.SetsInserted != 5 || stats.DefinitionsCreated != 2 {
		t.Errorf("stats = %+v", stats)
	}

	logs, err := db.QueryImportLogs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 4 {
		t.Fatalf("import logs = %d, want 4", len(logs))
	}
	var errored int
	for _, l := range logs {
		if l.Status == "error" {
			errored++
		}
	}
	if errored != 1 {
		t.Errorf("errored logs = %d, want 1", errored)
	}

	again, err := New(newProvider(db), nil, discard, false).Import(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if again.SessionsInserted != 0 || again.SessionsDuplicated != 2 {
		t.Errorf("second pass = %+v", again)
	}
}

// TestImportDryRun verifies a dry run writes neither sessions nor logs.
func TestImportDryRun(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()

	stats, err := New(newProvider(db).WithDryRun(), db, discard, true).Import(ctx, exportDir(t))
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 2 {
		t.Errorf("files processed = %d, want 2", stats.FilesProcessed)
	}

	data, err := db.GetDataStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if data.TotalSessions != 0 {
		t.Errorf("sessions stored = %d, want 0", data.TotalSessions)
	}
	logs, err := db.QueryImportLogs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Errorf("import logs = %d, want 0", len(logs))
	}
}

// TestImportCancelled verifies a cancelled context stops the walk.
func TestImportCancelled(t *testing.T) {
	db := storagetest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := New(newProvider(db), db, discard, false).Import(ctx, exportDir(t))
	if err == nil {
		t.Fatal("expected context error")
	}
	if stats.FilesProcessed != 0 {
		t.Errorf("files processed = %d, want 0", stats.FilesProcessed)
	}
}
