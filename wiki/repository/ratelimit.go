package repository

import (
	"context"
	"time"
)

// RateLimiter throttles write endpoints with a counter keyed by
// (table, actor, time window). Implementations return a
// *wiki.RateLimitError when the caller must back off; the deployment
// picks a shared-store implementation so limits hold across instances.
type RateLimiter interface {
	Check(ctx context.Context, table, actorID string, window time.Duration, max int) error
}
