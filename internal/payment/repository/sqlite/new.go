package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	pkgLog "paypaladin/pkg/log"
)

// Repository is the SQLite-backed wallet repository.
type Repository struct {
	db *sql.DB
	l  pkgLog.Logger
}

// New opens (or creates) the wallet database at dbPath.
func New(dbPath string, l pkgLog.Logger) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps concurrent webhook goroutines from tripping SQLITE_BUSY.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open wallet database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping wallet database: %w", err)
	}

	r := &Repository{db: db, l: l}
	if err := r.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize wallet schema: %w", err)
	}
	return r, nil
}

func (r *Repository) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS wallets (
		user_id  TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		address  TEXT NOT NULL,
		seed     TEXT NOT NULL,
		chat_id  INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_wallets_username ON wallets(username) WHERE username != '';
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}
