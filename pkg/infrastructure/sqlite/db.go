// Package sqlite implements the column and table repositories on SQLite
// through database/sql. Both the cgo driver (github.com/mattn/go-sqlite3,
// registered as "sqlite3") and the pure-Go driver (modernc.org/sqlite,
// registered as "sqlite") are supported.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/plot451/plot/pkg/logger"
)

const (
	DriverCGo  = "sqlite3"
	DriverPure = "sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const initSchema = `
CREATE TABLE IF NOT EXISTS directories (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT NOT NULL UNIQUE,
	name      TEXT NOT NULL,
	parent_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_directories_parent ON directories(parent_id);

CREATE TABLE IF NOT EXISTS columns (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	directory_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_columns_directory ON columns(directory_id);

CREATE TABLE IF NOT EXISTS cells (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	id    TEXT NOT NULL UNIQUE,
	value REAL
);

CREATE TABLE IF NOT EXISTS column_cells (
	column_id TEXT NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	cell_id   TEXT NOT NULL,
	PRIMARY KEY (column_id, position)
);

CREATE TABLE IF NOT EXISTS tables (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS table_columns (
	table_id  TEXT NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	column_id TEXT NOT NULL,
	PRIMARY KEY (table_id, position)
);
CREATE INDEX IF NOT EXISTS idx_table_columns_column ON table_columns(column_id);
`

// DB is a schema-initialised handle shared by the repositories of one database.
// Writes are serialised; SQLite allows a single writer anyway.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the database at path with the given driver
// and applies the schema.
func Open(driver, path string) (*DB, error) {
	dsn, err := dataSourceName(driver, path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if path == MemoryPath {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(initSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.InfoCF("sqlite", "Database opened", map[string]interface{}{
		"driver": driver,
		"path":   path,
	})
	return &DB{db: db}, nil
}

func dataSourceName(driver, path string) (string, error) {
	switch driver {
	case DriverCGo:
		return path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000", nil
	case DriverPure:
		return path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a write transaction, committing when it returns nil.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.WarnCF("sqlite", "Rollback failed", map[string]interface{}{"error": rbErr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// newID returns a fresh row identifier.
func newID() string { return uuid.NewString() }

// queryStrings collects a single-column result set. Rows are fully drained
// before returning so the caller may issue further statements on the same tx.
func queryStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func anySlice[T ~string](ids []T) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
