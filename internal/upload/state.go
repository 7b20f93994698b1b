package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// StateDB tracks which exports have been accepted by the server so unchanged
// files are not re-sent.
type StateDB struct {
	db *sqlx.DB
}

// UploadedFile is one row of upload history.
type UploadedFile struct {
	Path             string    `db:"path"`
	Size             int64     `db:"size"`
	Hash             string    `db:"hash"`
	SessionsInserted int       `db:"sessions_inserted"`
	UploadedAt       time.Time `db:"uploaded_at"`
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sqlx.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS uploaded_files (
		path              TEXT PRIMARY KEY,
		size              INTEGER NOT NULL,
		hash              TEXT NOT NULL,
		sessions_inserted INTEGER NOT NULL DEFAULT 0,
		uploaded_at       TIMESTAMP NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsUploaded reports whether relPath was uploaded with the same size and hash.
func (s *StateDB) IsUploaded(ctx context.Context, relPath string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM uploaded_files WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkUploaded records that a file was accepted by the server.
func (s *StateDB) MarkUploaded(ctx context.Context, f UploadedFile) error {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO uploaded_files (path, size, hash, sessions_inserted, uploaded_at)
		 VALUES (:path, :size, :hash, :sessions_inserted, :uploaded_at)`, f)
	return err
}

// Uploaded returns the record for relPath, or nil when it was never uploaded.
func (s *StateDB) Uploaded(ctx context.Context, relPath string) (*UploadedFile, error) {
	var f UploadedFile
	err := s.db.GetContext(ctx, &f,
		`SELECT path, size, hash, sessions_inserted, uploaded_at FROM uploaded_files WHERE path = ?`, relPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
