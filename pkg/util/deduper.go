package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to acquire a dedup lock for a given scope + key.
// Returns true if this is the FIRST time processing,
// false if it's a duplicate.
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	dedupKey := fmt.Sprintf("dedup:%s:%s", scope, key)

	ok, err := d.rdb.SetNX(ctx, dedupKey, 1, d.ttl).Result()
	if err != nil {
		// Redis 挂了？为了安全：当 redis 不可用时，不阻止处理，返回 true
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("scope", scope),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicated event",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.String("dedup_key", dedupKey),
		)
	}

	return ok
}

// Release gives back a lock taken by AcquireOnce so the event can be
// acquired again. Call it when processing failed after acquisition and the
// message will be redelivered. A failed delete only means the redelivery
// waits out the TTL, so it is logged and swallowed.
func (d *Deduper) Release(ctx context.Context, scope, key string) {
	dedupKey := fmt.Sprintf("dedup:%s:%s", scope, key)

	if err := d.rdb.Del(ctx, dedupKey).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Redis dedup release failed",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
