// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// We use modernc.org/sqlite rather than mattn/go-sqlite3: it is a pure Go
// translation of SQLite, so there is no CGo dependency and the binary
// cross-compiles anywhere Go runs. Tests open ":memory:" databases.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out the per-table repositories.
// The server owns the lifecycle: New opens it, Close shuts it down.
type DB struct {
	conn *sql.DB
}

// New opens a SQLite database at dbPath (":memory:" for tests) and runs
// migrations.
//
// sql.Open only creates the pool manager; Ping forces a real connection so
// a bad path or permissions problem surfaces at startup instead of on the
// first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pool connection to ":memory:" gets its own private database,
	// so the pool must be pinned to a single connection or migrations
	// land in a different database than later queries.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — important
	// for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; the contacts.user_id
	// reference needs them on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserRepo {
	return &UserRepo{conn: db.conn}
}

// Contacts returns the contact repository backed by this database.
func (db *DB) Contacts() *ContactRepo {
	return &ContactRepo{conn: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			refresh_token TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Contact email is UNIQUE across the whole table, not per user — the
	// application relies on this constraint instead of pre-checking.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contacts (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id),
			first_name      TEXT NOT NULL,
			last_name       TEXT NOT NULL,
			email           TEXT NOT NULL UNIQUE,
			phone_number    TEXT NOT NULL DEFAULT '',
			birthday        TEXT,
			additional_info TEXT NOT NULL DEFAULT '',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id);
		CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating contacts table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure, so callers can translate it to apperror.Conflict.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
