package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "analytics",
		Name:      "cache_request_duration_seconds",
		Help:      "Total time spent in seconds doing cache requests.",
		// smallest bucket is 16us, biggest is 1s.
		Buckets: prometheus.ExponentialBuckets(0.000016, 4, 8),
	}, []string{"method", "status"})

	fetchedKeys = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "cache_fetched_keys",
		Help:      "Total count of keys requested from cache.",
	}, []string{"name"})

	hits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "cache_hits",
		Help:      "Total count of keys found in cache.",
	}, []string{"name"})

	sweptKeys = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "cache_swept_keys",
		Help:      "Total count of keys removed by tenant sweeps.",
	}, []string{"name"})

	valueSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "analytics",
		Name:      "cache_value_size_bytes",
		Help:      "Size of values in the cache.",
		// 256B to 4MB
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"name", "method"})
)

func init() {
	prometheus.MustRegister(requestDuration, fetchedKeys, hits, sweptKeys, valueSize)
}

// Instrument returns s with request, hit and size metrics labelled by name.
func Instrument(name string, s Store) Store {
	return &instrumentedStore{
		name:  name,
		Store: s,

		fetchedKeys:      fetchedKeys.WithLabelValues(name),
		hits:             hits.WithLabelValues(name),
		sweptKeys:        sweptKeys.WithLabelValues(name),
		storedValueSize:  valueSize.WithLabelValues(name, "store"),
		fetchedValueSize: valueSize.WithLabelValues(name, "fetch"),
	}
}

type instrumentedStore struct {
	name string
	Store

	fetchedKeys, hits, sweptKeys      prometheus.Counter
	storedValueSize, fetchedValueSize prometheus.Observer
}

func (i *instrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	b, ok, err := i.Store.Get(ctx, key)
	observe(i.name+".fetch", start, err)

	i.fetchedKeys.Inc()
	if ok {
		i.hits.Inc()
		i.fetchedValueSize.Observe(float64(len(b)))
	}
	return b, ok, err
}

func (i *instrumentedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	i.storedValueSize.Observe(float64(len(value)))

	start := time.Now()
	err := i.Store.Set(ctx, key, value, ttl)
	observe(i.name+".store", start, err)
	return err
}

func (i *instrumentedStore) Sweep(ctx context.Context, prefix string) (int, error) {
	start := time.Now()
	n, err := i.Store.Sweep(ctx, prefix)
	observe(i.name+".sweep", start, err)
	i.sweptKeys.Add(float64(n))
	return n, err
}

func observe(method string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	requestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
}
