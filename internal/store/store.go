// Package store implements the persistent project memory for Handoff.
//
// It owns the SQLite schema, its migration history, and all repository
// operations over projects, tasks, decisions, notes, sessions, and context
// entries. List-valued columns (tags, blocked_by, alternatives,
// tasks_worked_on, decisions_made) are JSON-encoded at this boundary and
// never leak as raw strings.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sqlx.Open

// Sentinel errors surfaced to callers. Everything else is a storage-layer
// fault and propagates wrapped.
var (
	// ErrNotFound means a project or task reference did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName means a project with that name (case-insensitive) exists.
	ErrDuplicateName = errors.New("a project with that name already exists")
	// ErrNoDefaultProject means no ref was given and no active project exists.
	ErrNoDefaultProject = errors.New("no project specified and no active project to default to")
	// ErrNoFields means an update carried nothing to change.
	ErrNoFields = errors.New("no fields to update")
)

// TimeLayout is the fixed-width timestamp format stored in every
// *_at column. Fixed width keeps string comparison equal to time
// comparison, which the reconciliation cutoff queries rely on.
const TimeLayout = "2006-01-02 15:04:05.000000000"

// EpochSentinel is the cutoff used when a project has no session yet.
const EpochSentinel = "1970-01-01 00:00:00.000000000"

// Now returns the current UTC time in the storage layout.
func Now() string {
	return time.Now().UTC().Format(TimeLayout)
}

// Store is the persistent memory engine backed by SQLite.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database file at dbPath, applies the
// performance pragmas, brings the schema to the current shape, and runs
// any pending migrations. Safe to call on every startup.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	if err := s.applyMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for the dashboard layer and tests.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// initSchema creates all seven tables and their column-independent indexes.
// Everything uses IF NOT EXISTS so reopening an existing file is a no-op.
// Column-dependent indexes (slug, seq) are created by applyMigrations once
// the columns are guaranteed populated.
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			slug        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'active'
			            CHECK (status IN ('active', 'paused', 'completed', 'archived')),
			repo_path   TEXT NOT NULL DEFAULT '',
			tech_stack  TEXT NOT NULL DEFAULT '[]',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id             TEXT PRIMARY KEY,
			project_id     TEXT NOT NULL REFERENCES projects(id),
			seq            INTEGER NOT NULL,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'todo'
			               CHECK (status IN ('todo', 'in_progress', 'blocked', 'done', 'cancelled')),
			priority       TEXT NOT NULL DEFAULT 'medium'
			               CHECK (priority IN ('critical', 'high', 'medium', 'low')),
			tags           TEXT NOT NULL DEFAULT '[]',
			parent_task_id TEXT REFERENCES tasks(id),
			blocked_by     TEXT NOT NULL DEFAULT '[]',
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,
			completed_at   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_project  ON tasks(project_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_status   ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_tasks_parent   ON tasks(parent_task_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_updated  ON tasks(updated_at DESC);

		CREATE TABLE IF NOT EXISTS task_history (
			id         TEXT PRIMARY KEY,
			task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			event      TEXT NOT NULL,
			old_value  TEXT,
			new_value  TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_task ON task_history(task_id, created_at);

		CREATE TABLE IF NOT EXISTS decisions (
			id           TEXT PRIMARY KEY,
			project_id   TEXT NOT NULL REFERENCES projects(id),
			task_id      TEXT REFERENCES tasks(id) ON DELETE SET NULL,
			title        TEXT NOT NULL,
			decision     TEXT NOT NULL,
			reasoning    TEXT NOT NULL DEFAULT '',
			alternatives TEXT NOT NULL DEFAULT '[]',
			tags         TEXT NOT NULL DEFAULT '[]',
			created_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_decisions_project ON decisions(project_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			task_id    TEXT REFERENCES tasks(id) ON DELETE CASCADE,
			content    TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT 'general'
			           CHECK (category IN ('general', 'architecture', 'bug', 'idea', 'research', 'meeting', 'review')),
			tags       TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_notes_project ON notes(project_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_notes_task    ON notes(task_id);

		CREATE TABLE IF NOT EXISTS sessions (
			id              TEXT PRIMARY KEY,
			project_id      TEXT NOT NULL REFERENCES projects(id),
			summary         TEXT NOT NULL,
			tasks_worked_on TEXT NOT NULL DEFAULT '[]',
			decisions_made  TEXT NOT NULL DEFAULT '[]',
			next_steps      TEXT NOT NULL DEFAULT '',
			created_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS context_entries (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (project_id, key)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

// notFound converts sql.ErrNoRows into the store's sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
