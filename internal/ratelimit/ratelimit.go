// Package ratelimit caps requests per key in fixed windows. A key's window
// opens with its first request and lasts Window; the counter behind it is
// injected so replicas can share one.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Window is the length of one rate limit window.
const Window = time.Minute

// DefaultLimit is the number of requests allowed per key per window.
const DefaultLimit = 300

// ErrLimited is returned when a key has used up its window.
var ErrLimited = errors.New("rate limit exceeded")

// Counter increments the hit count of key inside its current window. The
// first hit of a window opens it with the given length.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter applies a fixed limit per key.
type Limiter struct {
	counter Counter
	limit   int64
}

// New returns a limiter allowing limit hits per key per Window. A
// non-positive limit uses DefaultLimit.
func New(c Counter, limit int) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Limiter{counter: c, limit: int64(limit)}
}

// Allow records a hit for key and returns how many hits remain in the
// window, or ErrLimited when none were left.
func (l *Limiter) Allow(ctx context.Context, key string) (int, error) {
	n, err := l.counter.Incr(ctx, key, Window)
	if err != nil {
		return 0, err
	}
	if n > l.limit {
		return 0, ErrLimited
	}
	return int(l.limit - n), nil
}
