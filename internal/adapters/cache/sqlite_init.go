package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the local SQLite schema backing the snapshot cache and
// the outbox.
func InitLocalSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init local schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init local schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createSnapshotsQuery := `
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	createOutboxQuery := `
	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		actual_kg REAL NOT NULL,
		total REAL NOT NULL,
		folio INTEGER NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	`

	createOutboxIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_outbox_created_at
	ON outbox(created_at);
	`

	statements := []string{
		createSnapshotsQuery,
		createOutboxQuery,
		createOutboxIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init local schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init local schema: commit tx: %w", err)
	}

	return nil
}
