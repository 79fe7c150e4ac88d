package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/engine"
	"github.com/PratikDhanave/analytics-workspace/internal/query"
)

// DefaultTTL bounds how stale a cached result may be.
const DefaultTTL = 30 * time.Second

var queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "analytics",
	Name:      "query_duration_seconds",
	Help:      "Time spent executing queries, cache hits included.",
	Buckets:   prometheus.DefBuckets,
}, []string{"namespace", "strategy", "cached"})

func init() {
	prometheus.MustRegister(queryDuration)
}

// Service answers queries through the engine, memoizing results in a Store.
// Failed queries are never cached.
type Service struct {
	engine *engine.Engine
	store  Store
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewService returns a caching front for e. A non-positive ttl uses DefaultTTL.
func NewService(e *engine.Engine, s Store, ttl time.Duration, log logrus.FieldLogger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{engine: e, store: s, ttl: ttl, log: log.WithField("component", "query-cache")}
}

// Table runs a table query.
func (s *Service) Table(ctx context.Context, q *query.Query) (*engine.Result, error) {
	return cached(ctx, s, NamespaceTable, q.TenantID, q.Params(), func() (*engine.Result, error) {
		return s.engine.Run(ctx, q)
	})
}

// Series runs a series query.
func (s *Service) Series(ctx context.Context, q *query.SeriesQuery) (*engine.SeriesResult, error) {
	return cached(ctx, s, NamespaceTimeseries, q.TenantID, q.Params(), func() (*engine.SeriesResult, error) {
		return s.engine.Series(ctx, q)
	})
}

// FreeformResult is a table result paged by offset.
type FreeformResult struct {
	engine.Result
	QueryMs int64 `json:"queryMs"`
}

type freeformParams struct {
	Query  query.TableRequest `json:"query"`
	Offset int                `json:"offset"`
}

// Freeform runs a table query and drops the first offset rows.
func (s *Service) Freeform(ctx context.Context, q *query.Query, offset int) (*FreeformResult, error) {
	params := freeformParams{Query: q.Params(), Offset: offset}
	return cached(ctx, s, NamespaceFreeform, q.TenantID, params, func() (*FreeformResult, error) {
		started := time.Now()
		res, err := s.engine.Run(ctx, q)
		if err != nil {
			return nil, err
		}
		if offset >= len(res.Rows) {
			res.Rows = res.Rows[:0]
		} else {
			res.Rows = res.Rows[offset:]
		}
		return &FreeformResult{Result: *res, QueryMs: time.Since(started).Milliseconds()}, nil
	})
}

// InvalidateTenant sweeps every cached result of a tenant.
func (s *Service) InvalidateTenant(ctx context.Context, tenantID string) error {
	n, err := SweepTenant(ctx, s.store, tenantID)
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"tenant": tenantID, "keys": n}).Info("tenant cache swept")
	return nil
}

// cached serves run's result from the store when present. Store failures
// only cost a recomputation.
func cached[T any](ctx context.Context, s *Service, namespace, tenantID string, params any, run func() (*T, error)) (*T, error) {
	started := time.Now()
	log := s.log.WithFields(logrus.Fields{"namespace": namespace, "tenant": tenantID})

	key, err := Key(namespace, tenantID, params)
	if err != nil {
		log.WithError(err).Warn("build cache key")
	}

	if key != "" {
		b, ok, err := s.store.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("cache get")
		}
		if ok {
			out := new(T)
			derr := json.Unmarshal(b, out)
			if derr == nil {
				queryDuration.WithLabelValues(namespace, s.engine.Strategy(), "true").Observe(time.Since(started).Seconds())
				return out, nil
			}
			log.WithError(derr).Warn("decode cached result")
		}
	}

	out, err := run()
	if err != nil {
		return nil, err
	}
	queryDuration.WithLabelValues(namespace, s.engine.Strategy(), "false").Observe(time.Since(started).Seconds())

	if key != "" {
		b, err := json.Marshal(out)
		if err == nil {
			err = s.store.Set(ctx, key, b, s.ttl)
		}
		if err != nil {
			log.WithError(err).Warn("cache set")
		}
	}
	return out, nil
}
