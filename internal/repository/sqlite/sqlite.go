// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the server builds without CGo
// and tests can use ":memory:" databases with no setup.
//
// ONE CONNECTION:
// The pool is limited to a single connection. SQLite serialises writers
// anyway, a ":memory:" database only exists on the connection that created
// it, and per-connection PRAGMAs (foreign_keys) stay in effect. The price is
// that a method must never run a second query while a *sql.Rows is open,
// and must not touch db.conn while it holds a transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/codeminder.db" → file-based database
//   - ":memory:"           → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// NewWithConn wraps an already-open connection without running migrations.
// Tests use it with go-sqlmock.
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates every table idempotently.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				github        TEXT NOT NULL DEFAULT '',
				leetcode      TEXT NOT NULL DEFAULT '',
				codeforces    TEXT NOT NULL DEFAULT '',
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"platform_snapshots", `
			CREATE TABLE IF NOT EXISTS platform_snapshots (
				user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				platform     TEXT NOT NULL,
				username     TEXT NOT NULL,
				data         TEXT NOT NULL,
				last_updated DATETIME NOT NULL,
				PRIMARY KEY (user_id, platform)
			);`},
		{"sheets", `
			CREATE TABLE IF NOT EXISTS sheets (
				id          TEXT PRIMARY KEY,
				title       TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				author_id   TEXT NOT NULL REFERENCES users(id),
				visibility  TEXT NOT NULL DEFAULT 'Public',
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_sheets_created_at ON sheets(created_at);`},
		{"questions", `
			CREATE TABLE IF NOT EXISTS questions (
				id         TEXT PRIMARY KEY,
				title      TEXT NOT NULL UNIQUE,
				platform   TEXT NOT NULL DEFAULT '',
				url        TEXT NOT NULL DEFAULT '',
				difficulty TEXT NOT NULL DEFAULT '',
				topic      TEXT NOT NULL DEFAULT '',
				tags       TEXT NOT NULL DEFAULT '[]'
			);`},
		{"sheet_questions", `
			CREATE TABLE IF NOT EXISTS sheet_questions (
				sheet_id    TEXT NOT NULL REFERENCES sheets(id) ON DELETE CASCADE,
				question_id TEXT NOT NULL REFERENCES questions(id),
				position    INTEGER NOT NULL,
				PRIMARY KEY (sheet_id, question_id)
			);`},
		{"user_sheets", `
			CREATE TABLE IF NOT EXISTS user_sheets (
				user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				sheet_id    TEXT NOT NULL REFERENCES sheets(id) ON DELETE CASCADE,
				followed_at DATETIME NOT NULL,
				PRIMARY KEY (user_id, sheet_id)
			);`},
		{"solved_questions", `
			CREATE TABLE IF NOT EXISTS solved_questions (
				user_id     TEXT NOT NULL,
				sheet_id    TEXT NOT NULL,
				question_id TEXT NOT NULL,
				status      TEXT NOT NULL,
				solved_at   DATETIME NOT NULL,
				PRIMARY KEY (user_id, sheet_id, question_id),
				FOREIGN KEY (user_id, sheet_id) REFERENCES user_sheets(user_id, sheet_id) ON DELETE CASCADE
			);`},
		{"notes", `
			CREATE TABLE IF NOT EXISTS notes (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				type        TEXT NOT NULL CHECK (type IN ('question', 'general')),
				question_id TEXT REFERENCES questions(id),
				note_name   TEXT,
				content     TEXT NOT NULL,
				created_at  DATETIME NOT NULL,
				updated_at  DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_notes_user_type ON notes(user_id, type);`},
		{"resumes", `
			CREATE TABLE IF NOT EXISTS resumes (
				user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
				data       TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);`},
		{"interviews", `
			CREATE TABLE IF NOT EXISTS interviews (
				id               TEXT PRIMARY KEY,
				user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				job_role         TEXT NOT NULL,
				job_description  TEXT NOT NULL DEFAULT '',
				experience_level TEXT NOT NULL DEFAULT '',
				questions        TEXT NOT NULL DEFAULT '[]',
				confidence       INTEGER NOT NULL DEFAULT 0,
				eye_contact      INTEGER NOT NULL DEFAULT 0,
				final_score      INTEGER NOT NULL DEFAULT 0,
				created_at       DATETIME NOT NULL,
				updated_at       DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_interviews_user ON interviews(user_id, created_at);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}

	// Columns added after the first release.
	if err := db.addColumnIfNotExists("users", "geeksforgeeks", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding geeksforgeeks to users: %w", err)
	}
	if err := db.addColumnIfNotExists("users", "profile_pic", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding profile_pic to users: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition))
	return err
}

// withTx runs fn inside a transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
