package ports

import (
	"context"
	"time"
)

// A pending remote write awaiting replay.
type OutboxEntry struct {
	ID        string
	Record    CompletionRecord
	Attempts  int
	CreatedAt time.Time
}

// Port: durable queue of remote writes that failed while offline.
//
// Entries are removed only after the live store acknowledges them, so
// a delivery confirmation is never lost to a connectivity gap.
type Outbox interface {
	// Enqueue stores a pending completion write.
	Enqueue(ctx context.Context, entry OutboxEntry) error

	// Pending returns up to limit entries, oldest first.
	Pending(ctx context.Context, limit int) ([]OutboxEntry, error)

	// Ack removes an entry after successful replay.
	Ack(ctx context.Context, id string) error

	// Fail increments the attempt counter after a failed replay.
	Fail(ctx context.Context, id string) error
}
