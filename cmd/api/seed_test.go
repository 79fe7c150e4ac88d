package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/analytics-workspace/internal/cache"
	"github.com/PratikDhanave/analytics-workspace/internal/config"
	"github.com/PratikDhanave/analytics-workspace/internal/engine"
	"github.com/PratikDhanave/analytics-workspace/internal/store"
)

func newSeedApp(cs cache.Store, client *redis.Client) *app {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := config.Config{QueryCacheTTL: time.Minute}
	return &app{
		cfg:     cfg,
		log:     log,
		redis:   client,
		queries: cache.NewService(engine.NewScan(store.NewMemoryStore()), cs, cfg.QueryCacheTTL, log),
	}
}

func TestSweepSharedCacheWithoutRedis(t *testing.T) {
	ctx := context.Background()
	cs := cache.NewMemoryStore()
	key := cache.TenantPrefix(cache.NamespaceTable, "t1") + "x"
	require.NoError(t, cs.Set(ctx, key, []byte("1"), time.Minute))

	swept, err := newSeedApp(cs, nil).sweepSharedCache(ctx, "t1")
	require.NoError(t, err)
	require.False(t, swept)
	_, ok, err := cs.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSweepSharedCacheWithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cs := cache.NewRedisStore(client)
	require.NoError(t, cs.Set(ctx, cache.TenantPrefix(cache.NamespaceTable, "t1")+"x", []byte("1"), time.Minute))
	require.NoError(t, cs.Set(ctx, cache.TenantPrefix(cache.NamespaceTable, "t2")+"y", []byte("1"), time.Minute))

	swept, err := newSeedApp(cs, client).sweepSharedCache(ctx, "t1")
	require.NoError(t, err)
	require.True(t, swept)
	require.Equal(t, []string{cache.RedisKeyPrefix + "table:t2:y"}, mr.Keys())
}
