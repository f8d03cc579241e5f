package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"last-mile-service/internal/ports"
)

func testLocalDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := InitLocalSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func TestSqliteSnapshotCacheRoundTrip(t *testing.T) {
	c := NewSqliteSnapshotCache(testLocalDB(t))
	ctx := context.Background()

	_, found, err := c.Get(ctx, ports.OrdersKey("2026-09-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected miss on empty cache")
	}

	payload := []byte(`{"date":"2026-09-01"}`)
	if err := c.Put(ctx, ports.OrdersKey("2026-09-01"), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, found, err := c.Get(ctx, ports.OrdersKey("2026-09-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || string(value) != string(payload) {
		t.Fatalf("value = %q found = %v", value, found)
	}

	// Put overwrites in place.
	if err := c.Put(ctx, ports.OrdersKey("2026-09-01"), []byte("v2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, _, err = c.Get(ctx, ports.OrdersKey("2026-09-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "v2" {
		t.Fatalf("value = %q, want v2", value)
	}
}

func TestSqliteOutboxLifecycle(t *testing.T) {
	o := NewSqliteOutbox(testLocalDB(t))
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"e1", "e2", "e3"} {
		entry := ports.OutboxEntry{
			ID: id,
			Record: ports.CompletionRecord{
				OrderID:  "ORD-" + id,
				ActualKg: 5,
				Total:    475,
				Folio:    i + 1,
			},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := o.Enqueue(ctx, entry); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	// Oldest entries first, bounded by limit.
	pending, err := o.Pending(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "e1" || pending[1].ID != "e2" {
		t.Fatalf("pending = %+v, want [e1 e2]", pending)
	}
	if pending[0].Record.OrderID != "ORD-e1" || pending[0].Record.Folio != 1 {
		t.Fatalf("record = %+v", pending[0].Record)
	}

	if err := o.Fail(ctx, "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pending, err = o.Pending(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending[0].Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", pending[0].Attempts)
	}

	if err := o.Ack(ctx, "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pending, err = o.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "e2" {
		t.Fatalf("pending after ack = %+v, want [e2 e3]", pending)
	}
}

func TestSqliteOutboxOrdersSubSecondEntries(t *testing.T) {
	o := NewSqliteOutbox(testLocalDB(t))
	ctx := context.Background()

	// Entries landing within the same second must still drain by actual
	// age, fractional timestamps included.
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	late := ports.OutboxEntry{
		ID:        "late",
		Record:    ports.CompletionRecord{OrderID: "ORD-late", ActualKg: 2, Total: 190, Folio: 2},
		CreatedAt: base.Add(500 * time.Millisecond),
	}
	early := ports.OutboxEntry{
		ID:        "early",
		Record:    ports.CompletionRecord{OrderID: "ORD-early", ActualKg: 1, Total: 95, Folio: 1},
		CreatedAt: base,
	}
	for _, e := range []ports.OutboxEntry{late, early} {
		if err := o.Enqueue(ctx, e); err != nil {
			t.Fatalf("enqueue %s: %v", e.ID, err)
		}
	}

	pending, err := o.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "early" || pending[1].ID != "late" {
		t.Fatalf("pending = %+v, want [early late]", pending)
	}
	if !pending[1].CreatedAt.Equal(late.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", pending[1].CreatedAt, late.CreatedAt)
	}
}

func TestSqliteOutboxRejectsEmptyID(t *testing.T) {
	o := NewSqliteOutbox(testLocalDB(t))
	if err := o.Enqueue(context.Background(), ports.OutboxEntry{}); err == nil {
		t.Fatal("expected error for empty entry id")
	}
}
