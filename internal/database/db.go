// Package database is the authoritative store for sprint lifecycle and
// issue-membership state. All mutations go through it; the HTTP and CLI
// layers are read/format-only collaborators.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDBTimeout = 5 * time.Second

// Schema version, bumped when adding migrations.
const currentSchemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sprints (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	repo_owner TEXT NOT NULL,
	repo_name TEXT NOT NULL,
	number INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'planned'
		CHECK (status IN ('planned', 'in_progress', 'completed', 'cancelled')),
	start_date TEXT,
	end_date TEXT,
	goal TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (repo_owner, repo_name, number)
);

CREATE TABLE IF NOT EXISTS sprint_issues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sprint_id INTEGER NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
	issue_number INTEGER NOT NULL,
	added_at TEXT NOT NULL,
	removed_at TEXT,
	source TEXT NOT NULL DEFAULT 'manual'
		CHECK (source IN ('migration', 'manual', 'rollover')),
	UNIQUE (sprint_id, issue_number, added_at)
);

CREATE TABLE IF NOT EXISTS sprint_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sprint_id INTEGER NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
	snapshot_type TEXT NOT NULL CHECK (snapshot_type IN ('start', 'end')),
	captured_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	total_issues INTEGER NOT NULL,
	total_points INTEGER NOT NULL,
	issue_numbers TEXT NOT NULL,
	UNIQUE (sprint_id, snapshot_type)
);

CREATE INDEX IF NOT EXISTS idx_sprints_repo
	ON sprints(repo_owner, repo_name);

CREATE INDEX IF NOT EXISTS idx_sprint_issues_sprint_removed
	ON sprint_issues(sprint_id, removed_at);

CREATE INDEX IF NOT EXISTS idx_sprint_issues_issue_number
	ON sprint_issues(issue_number);

-- At most one in_progress sprint per repo. The application pre-checks this
-- before Start; the index is the backstop for concurrent starts.
CREATE UNIQUE INDEX IF NOT EXISTS idx_sprints_single_active
	ON sprints(repo_owner, repo_name)
	WHERE status = 'in_progress';
`

// Database wraps the shared SQLite connection pool.
type Database struct {
	DB     *sql.DB
	dbFile string
}

// executor abstracts *sql.DB and *sql.Tx so query helpers can run inside
// or outside a transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. Idempotent, safe to call on every startup.
func Open(ctx context.Context, path string) (*Database, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// SQLite works best with a single writer; this also keeps every
	// transaction on the one shared connection.
	db.SetMaxOpenConns(1)

	d := &Database{DB: db, dbFile: path}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	err := d.DB.QueryRowContext(ctx,
		"SELECT version FROM schema_version WHERE version = ?", currentSchemaVersion,
	).Scan(&version)
	if err == sql.ErrNoRows {
		_, err = d.DB.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
	}
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	return d.DB.Close()
}

// Path returns the database file path the pool was opened with.
func (d *Database) Path() string {
	return d.dbFile
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise; every composite mutation in this
// package goes through it so partial writes are never visible.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (d *Database) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// nowStamp returns a UTC timestamp at second precision, the format used for
// sprint and removal timestamps.
func nowStamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

// fineStamp returns a UTC timestamp at microsecond precision. Assignment
// rows use it so that re-adding an issue right after removal cannot collide
// with the old row on (sprint_id, issue_number, added_at).
func fineStamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05.000000")
}
