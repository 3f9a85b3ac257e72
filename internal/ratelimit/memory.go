package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/emberwiki/emberwiki/wiki"
)

// maxEntries caps the limiter map; beyond it the map is reset wholesale,
// which briefly forgives in-flight counters but bounds memory.
const maxEntries = 16384

// MemoryLimiter is an in-process limiter keyed by (table, actor), built
// on token buckets. Suitable for single-instance deployments and tests;
// limits do not survive a restart.
type MemoryLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *MemoryLimiter) Check(_ context.Context, table, actorID string, window time.Duration, max int) error {
	limiter := l.get(table+":"+actorID, window, max)
	if !limiter.Allow() {
		retry := time.Duration(float64(time.Second) / float64(limiter.Limit()))
		return &wiki.RateLimitError{Table: table, RetryAfter: retry}
	}
	return nil
}

func (l *MemoryLimiter) get(key string, window time.Duration, max int) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the write lock.
	if limiter, exists = l.limiters[key]; exists {
		return limiter
	}
	if len(l.limiters) >= maxEntries {
		l.limiters = make(map[string]*rate.Limiter)
	}

	// max events per window expressed as a refill rate, with the full
	// window available as burst.
	limiter = rate.NewLimiter(rate.Limit(float64(max)/window.Seconds()), max)
	l.limiters[key] = limiter
	return limiter
}
