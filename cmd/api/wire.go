package main

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/cache"
	"github.com/PratikDhanave/analytics-workspace/internal/config"
	"github.com/PratikDhanave/analytics-workspace/internal/engine"
	"github.com/PratikDhanave/analytics-workspace/internal/ratelimit"
	"github.com/PratikDhanave/analytics-workspace/internal/store"
)

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

// app holds the long-lived components shared by the commands.
type app struct {
	cfg     config.Config
	log     *logrus.Logger
	store   store.Store
	engine  *engine.Engine
	redis   *redis.Client // nil without REDIS_ADDR
	queries *cache.Service
	limiter *ratelimit.Limiter
}

func newApp(ctx context.Context, cfg config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	switch cfg.Storage {
	case config.StorageMemory:
		a.store = store.NewMemoryStore()
		a.engine = engine.NewScan(a.store, engine.WithLogger(log))
	default:
		// Connect to durable storage (Postgres) using a connection pool.
		pg, err := store.NewPostgresStore(ctx, cfg.DBURL, log)
		if err != nil {
			return nil, err
		}
		// Ensure required tables/indexes exist so `docker compose up --build` is enough.
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		a.store = pg
		if cfg.QueryStrategy == config.StrategyScan {
			a.engine = engine.NewScan(pg, engine.WithLogger(log))
		} else {
			a.engine = engine.NewCompiled(pg, engine.WithLogger(log))
		}
	}

	var (
		cacheStore cache.Store       = cache.NewMemoryStore()
		counter    ratelimit.Counter = ratelimit.NewMemoryCounter()
	)
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, err
		}
		cacheStore = cache.NewRedisStore(a.redis)
		counter = ratelimit.NewRedisCounter(a.redis)
	}

	a.queries = cache.NewService(a.engine, cache.Instrument("query", cacheStore), cfg.QueryCacheTTL, log)
	a.limiter = ratelimit.New(counter, cfg.RateLimitPerMinute)

	log.WithFields(logrus.Fields{
		"storage":  cfg.Storage,
		"strategy": a.engine.Strategy(),
		"redis":    cfg.RedisAddr != "",
	}).Info("components initialized")
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("close redis")
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
