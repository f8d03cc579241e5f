package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lastmile:snapshot:"

// Redis-backed implementation of the SnapshotCache port, for
// deployments that keep a local Redis next to the field unit.
// Snapshots are unbounded in lifetime; Put overwrites unconditionally.
type RedisSnapshotCache struct {
	Client *redis.Client
}

func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{Client: client}
}

func (r *RedisSnapshotCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.Client == nil {
		return nil, false, errors.New("snapshot cache: redis client is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("get snapshot: key must not be empty")
	}

	value, err := r.Client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot %q: %w", key, err)
	}

	return value, true, nil
}

func (r *RedisSnapshotCache) Put(ctx context.Context, key string, snapshot []byte) error {
	if r.Client == nil {
		return errors.New("snapshot cache: redis client is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("put snapshot: key must not be empty")
	}

	if err := r.Client.Set(ctx, redisKeyPrefix+key, snapshot, 0).Err(); err != nil {
		return fmt.Errorf("put snapshot %q: %w", key, err)
	}

	return nil
}
