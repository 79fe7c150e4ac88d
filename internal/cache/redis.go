package cache

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces query cache keys inside a shared Redis.
const RedisKeyPrefix = "query_cache:"

const sweepBatch = 500

// RedisStore is a Store shared by every API replica.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return b, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Wrap(r.client.Set(ctx, RedisKeyPrefix+key, value, ttl).Err(), "redis set")
}

// Sweep collects every matching key with SCAN and then deletes them in
// batches. Deleting mid-scan can make the cursor skip keys.
func (r *RedisStore) Sweep(ctx context.Context, prefix string) (int, error) {
	pattern := RedisKeyPrefix + globEscaper.Replace(prefix) + "*"
	iter := r.client.Scan(ctx, 0, pattern, sweepBatch).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, errors.Wrap(err, "redis scan")
	}

	deleted := 0
	for len(keys) > 0 {
		n := min(sweepBatch, len(keys))
		removed, err := r.client.Del(ctx, keys[:n]...).Result()
		if err != nil {
			return deleted, errors.Wrap(err, "redis del")
		}
		deleted += int(removed)
		keys = keys[n:]
	}
	return deleted, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
