package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLite-backed implementation of the SnapshotCache port.
// Survives process restarts so the field unit keeps working offline.
type SqliteSnapshotCache struct {
	DB *sql.DB
}

func NewSqliteSnapshotCache(db *sql.DB) *SqliteSnapshotCache {
	return &SqliteSnapshotCache{DB: db}
}

func (s *SqliteSnapshotCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("snapshot cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("get snapshot: key must not be empty")
	}

	query := `
	SELECT value
	FROM snapshots
	WHERE key = ?;
	`

	var value []byte
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot %q: query snapshots table: %w", key, err)
	}

	return value, true, nil
}

func (s *SqliteSnapshotCache) Put(ctx context.Context, key string, snapshot []byte) error {
	if s.DB == nil {
		return errors.New("snapshot cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("put snapshot: key must not be empty")
	}

	query := `
	INSERT INTO snapshots (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at;
	`

	if _, err := s.DB.ExecContext(ctx, query, key, snapshot, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("put snapshot %q: upsert snapshots table: %w", key, err)
	}

	return nil
}
