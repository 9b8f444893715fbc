package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/attachehq/attache/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Query functions accept it so the ingestion pipeline can run every
// write inside one transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Init initializes the SQLite database at baseDir/attache.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.attache.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections).
	// _txlock=immediate makes every transaction take the write lock up
	// front, so concurrent writers queue on busy_timeout instead of
	// failing at upgrade time.
	dbPath := filepath.Join(baseDir, "attache.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS cards (
		  id            TEXT PRIMARY KEY,
		  card_type     TEXT NOT NULL,
		  description   TEXT NOT NULL,
		  due_at        INTEGER,
		  assignee      TEXT,
		  priority      TEXT NOT NULL,
		  keywords_json TEXT,
		  status        TEXT NOT NULL DEFAULT 'active',
		  envelope_id   TEXT,
		  raw_input     TEXT NOT NULL,
		  created_at    INTEGER NOT NULL,
		  updated_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cards_status
		ON cards(status, created_at);

		CREATE INDEX IF NOT EXISTS idx_cards_envelope
		ON cards(envelope_id)
		WHERE envelope_id IS NOT NULL;

		CREATE INDEX IF NOT EXISTS idx_cards_due
		ON cards(due_at)
		WHERE due_at IS NOT NULL;

		CREATE TABLE IF NOT EXISTS envelopes (
		  id            TEXT PRIMARY KEY,
		  name          TEXT NOT NULL,
		  name_norm     TEXT NOT NULL UNIQUE,
		  category      TEXT NOT NULL,
		  keywords_json TEXT,
		  created_at    INTEGER NOT NULL,
		  updated_at    INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_context (
		  id            INTEGER PRIMARY KEY CHECK (id = 1),
		  projects_json TEXT NOT NULL,
		  people_json   TEXT NOT NULL,
		  themes_json   TEXT NOT NULL,
		  updated_at    INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS suggestions (
		  id            TEXT PRIMARY KEY,
		  kind          TEXT NOT NULL,
		  message       TEXT NOT NULL,
		  card_ids_json TEXT,
		  envelope_ids_json TEXT,
		  status        TEXT NOT NULL DEFAULT 'pending',
		  created_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_suggestions_status
		ON suggestions(status, created_at);

		CREATE TABLE IF NOT EXISTS analysis_runs (
		  id     INTEGER PRIMARY KEY AUTOINCREMENT,
		  ran_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
