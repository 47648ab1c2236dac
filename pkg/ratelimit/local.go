// Package ratelimit holds the in-process limiter used when Redis is not
// configured. Counters live only in this process, so a fleet of API
// instances each enforce their own budget.
package ratelimit

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// DefaultMaxScopes bounds how many distinct scopes are tracked at once.
const DefaultMaxScopes = 10000

type bucket struct {
	mu       sync.Mutex
	lim      *rate.Limiter
	attempts int64
}

// Local is a token bucket per scope. A scope's bucket holds limit tokens and
// refills at limit per window; idle scopes are evicted after one window.
type Local struct {
	mu      sync.Mutex
	buckets *lru.LRU[string, *bucket]
	window  time.Duration
}

// NewLocal creates a limiter tracking at most maxScopes scopes whose buckets
// expire window after creation.
func NewLocal(maxScopes int, window time.Duration) *Local {
	if maxScopes <= 0 {
		maxScopes = DefaultMaxScopes
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Local{
		buckets: lru.NewLRU[string, *bucket](maxScopes, nil, window),
		window:  window,
	}
}

// FixedWindowAllow consumes one token from scope's bucket. The second result
// counts attempts seen since the bucket was created.
func (l *Local) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if limit <= 0 {
		return true, 0, nil
	}
	if window <= 0 {
		window = l.window
	}

	b := l.bucketFor(scope, limit, window)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	return b.lim.Allow(), b.attempts, nil
}

func (l *Local) bucketFor(scope string, limit int64, window time.Duration) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets.Get(scope); ok {
		return b
	}
	every := window / time.Duration(limit)
	b := &bucket{lim: rate.NewLimiter(rate.Every(every), int(limit))}
	l.buckets.Add(scope, b)
	return b
}
