// Package sqlite implements a single-file local store for the curriculum
// catalog, student progress and the global term. It mirrors the PostgreSQL
// schema and serves the CLI and development setups.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// Store implements curriculum.Repository, progress.StudentRepository,
// progress.ProgressRepository and progress.TermRepository on one *sqlx.DB.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database file at path and initializes the schema.
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single writer connection keeps transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS careers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		source_file TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
		semester INTEGER,
		block TEXT,
		area TEXT,
		type TEXT
	);
	CREATE TABLE IF NOT EXISTS curricula (
		career_id TEXT NOT NULL REFERENCES careers(id) ON DELETE CASCADE,
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		PRIMARY KEY (career_id, course_id)
	);
	CREATE TABLE IF NOT EXISTS prerequisites (
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		prerequisite_id TEXT NOT NULL,
		PRIMARY KEY (course_id, prerequisite_id)
	);
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		career_id TEXT REFERENCES careers(id) ON DELETE SET NULL,
		current_semester INTEGER NOT NULL DEFAULT 0 CHECK (current_semester >= 0),
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS student_courses (
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		course_id TEXT NOT NULL,
		status TEXT NOT NULL,
		term_taken INTEGER,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (student_id, course_id)
	);
	CREATE TABLE IF NOT EXISTS semester_control (
		slug TEXT PRIMARY KEY,
		current_value INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	INSERT OR IGNORE INTO semester_control (slug, current_value) VALUES ('U', 0);
	`
	_, err := s.db.Exec(schema)
	return err
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// mapError classifies SQLITE_BUSY and SQLITE_LOCKED as transient.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && (sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked) {
		return shared.WrapError("storage", "sqlite", shared.ErrServiceUnavailable, "database is busy", err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
