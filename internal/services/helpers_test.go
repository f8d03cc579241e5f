package services

import (
	"context"
	"sync"

	"last-mile-service/internal/ports"
)

// In-memory SnapshotCache for tests.
type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Put(ctx context.Context, key string, snapshot []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = snapshot
	return nil
}

// In-memory Outbox for tests, preserving enqueue order.
type memOutbox struct {
	mu      sync.Mutex
	entries []ports.OutboxEntry
}

func newMemOutbox() *memOutbox { return &memOutbox{} }

func (o *memOutbox) Enqueue(ctx context.Context, entry ports.OutboxEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, entry)
	return nil
}

func (o *memOutbox) Pending(ctx context.Context, limit int) ([]ports.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if limit > len(o.entries) {
		limit = len(o.entries)
	}
	out := make([]ports.OutboxEntry, limit)
	copy(out, o.entries[:limit])
	return out, nil
}

func (o *memOutbox) Ack(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.entries {
		if e.ID == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *memOutbox) Fail(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.entries {
		if o.entries[i].ID == id {
			o.entries[i].Attempts++
			return nil
		}
	}
	return nil
}

func (o *memOutbox) size() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}
