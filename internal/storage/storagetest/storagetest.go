// Package storagetest opens migrated throwaway sqlite databases for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/meltforce/liftlog/internal/storage"
)

// New returns a freshly migrated sqlite DB in t's temp dir, closed on cleanup.
func New(t testing.TB) *storage.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liftlog.db")
	if err := storage.RunMigrations(storage.DriverSQLite, "sqlite://"+path); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	db, err := storage.Open(context.Background(), storage.DriverSQLite, "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
