package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps a sqlx handle and provides repository methods for both the sqlite
// and the postgres schema. Queries are written with ? placeholders and rebound
// for the active driver.
type DB struct {
	x      *sqlx.DB
	driver string
}

// Open connects to the database for driver ("sqlite" or "postgres") and pings it.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	sqlDriver := driver
	switch driver {
	case DriverSQLite:
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	x, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer; one connection serialises access.
		x.SetMaxOpenConns(1)
	}
	if err := x.PingContext(ctx); err != nil {
		x.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{x: x, driver: driver}, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.x.Close()
}

// Driver reports which backend this DB talks to.
func (db *DB) Driver() string {
	return db.driver
}

// RunMigrations applies all pending embedded migrations for driver to the
// database at url (a golang-migrate database URL).
func RunMigrations(driver, url string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("loading migrations for %s: %w", driver, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (db *DB) rebind(query string) string {
	return db.x.Rebind(query)
}

// in expands slice arguments for IN (?) clauses and rebinds the result.
func (db *DB) in(query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expanding query: %w", err)
	}
	return db.x.Rebind(q), a, nil
}

// withTx runs fn in a transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.x.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// utc normalises stored times so that both backends round-trip the same instant.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// chunk splits ids into batches small enough for one IN clause.
func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
