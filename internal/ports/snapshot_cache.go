package ports

import "context"

// Port: durable read-side mirror of order lists and optimized routes.
//
// Keys follow the `orders_<date>` / `route_<date>` convention; values
// are full JSON snapshots of the last successful fetch or optimization.
// Put overwrites unconditionally and is idempotent. The cache is never
// the sole source of truth for a write, except the Delivered status
// transition, which lands locally before the store write.
type SnapshotCache interface {
	// Get returns the most recent snapshot for key.
	// The second return is false when no snapshot exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores the snapshot, replacing any previous value.
	Put(ctx context.Context, key string, snapshot []byte) error
}

func OrdersKey(date string) string { return "orders_" + date }

func RouteKey(date string) string { return "route_" + date }
