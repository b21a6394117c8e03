package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Timestamps are Unix seconds.
const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'pending',
    capabilities  TEXT NOT NULL DEFAULT '[]',
    access_token  BLOB,
    refresh_token BLOB,
    created_at    INTEGER NOT NULL,
    last_seen_at  INTEGER NOT NULL,
    expires_at    INTEGER NOT NULL
);
`

// migrations are applied in order after schema creation. Each must be
// idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: purge scans by expiry.
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
