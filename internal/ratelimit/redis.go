// Package ratelimit provides the write-throttle implementations behind
// repository.RateLimiter: a Redis-backed counter for multi-instance
// deployments and an in-process fallback for single-node and test use.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/emberwiki/emberwiki/wiki"
)

// RedisLimiter counts writes per (table, actor) in fixed windows using a
// Redis key with a TTL, so limits hold across server instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter connects to the Redis instance at url and verifies the
// connection with a ping.
func NewRedisLimiter(ctx context.Context, url, prefix string) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &RedisLimiter{client: client, prefix: prefix}, nil
}

func (l *RedisLimiter) Check(ctx context.Context, table, actorID string, window time.Duration, max int) error {
	bucket := time.Now().UnixNano() / int64(window)
	key := fmt.Sprintf("%sratelimit:%s:%s:%d", l.prefix, table, actorID, bucket)

	// INCR then EXPIRE in one round trip; the count itself is the gate.
	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis ratelimit")
	}

	if count.Val() > int64(max) {
		retry := window - time.Duration(time.Now().UnixNano()%int64(window))
		return &wiki.RateLimitError{Table: table, RetryAfter: retry}
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
