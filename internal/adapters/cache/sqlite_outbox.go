package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"last-mile-service/internal/ports"
)

// SQLite-backed implementation of the Outbox port. Entries persist
// across restarts; a delivery confirmed offline is replayed whenever
// connectivity returns, even after a reboot.
type SqliteOutbox struct {
	DB *sql.DB
}

func NewSqliteOutbox(db *sql.DB) *SqliteOutbox {
	return &SqliteOutbox{DB: db}
}

func (s *SqliteOutbox) Enqueue(ctx context.Context, entry ports.OutboxEntry) error {
	if s.DB == nil {
		return errors.New("outbox: db is nil")
	}
	if entry.ID == "" {
		return errors.New("enqueue outbox: entry id must not be empty")
	}

	query := `
	INSERT INTO outbox (id, order_id, actual_kg, total, folio, attempts, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`

	// Unix nanos keep the oldest-first ordering numeric; formatted
	// timestamps with optional fractions do not sort correctly as text.
	_, err := s.DB.ExecContext(ctx, query,
		entry.ID,
		entry.Record.OrderID,
		entry.Record.ActualKg,
		entry.Record.Total,
		entry.Record.Folio,
		entry.Attempts,
		entry.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox entry %q: %w", entry.ID, err)
	}

	return nil
}

func (s *SqliteOutbox) Pending(ctx context.Context, limit int) ([]ports.OutboxEntry, error) {
	if s.DB == nil {
		return nil, errors.New("outbox: db is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, order_id, actual_kg, total, folio, attempts, created_at
	FROM outbox
	ORDER BY created_at
	LIMIT ?;
	`

	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pending outbox entries: query outbox table: %w", err)
	}
	defer rows.Close()

	entries := make([]ports.OutboxEntry, 0, limit)
	for rows.Next() {
		var e ports.OutboxEntry
		var createdAt int64
		if err := rows.Scan(
			&e.ID,
			&e.Record.OrderID,
			&e.Record.ActualKg,
			&e.Record.Total,
			&e.Record.Folio,
			&e.Attempts,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("pending outbox entries: scan row: %w", err)
		}

		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending outbox entries: row iteration: %w", err)
	}

	return entries, nil
}

func (s *SqliteOutbox) Ack(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("outbox: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("ack outbox entry %q: %w", id, err)
	}
	return nil
}

func (s *SqliteOutbox) Fail(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("outbox: db is nil")
	}

	query := `
	UPDATE outbox
	SET attempts = attempts + 1
	WHERE id = ?;
	`

	if _, err := s.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("fail outbox entry %q: %w", id, err)
	}
	return nil
}
