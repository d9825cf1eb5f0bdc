// Package redisstore holds the redis-backed pieces of the service.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter enforces a per-user hourly cap on chat exchanges using an INCR
// counter keyed by user and hour bucket.
type Limiter struct {
	rdb     *redis.Client
	perHour int
}

func NewLimiter(addr, password string, db, perHour int) *Limiter {
	return &Limiter{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		perHour: perHour,
	}
}

// Allow reports whether the user may run another exchange this hour.
func (l *Limiter) Allow(ctx context.Context, userID uint64) (bool, error) {
	bucket := time.Now().UTC().Format("2006010215")
	key := fmt.Sprintf("ratelimit:chat:%d:%s", userID, bucket)

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: incr: %w", err)
	}
	if n == 1 {
		// first hit in this bucket sets its lifetime
		if err := l.rdb.Expire(ctx, key, time.Hour).Err(); err != nil {
			return false, fmt.Errorf("redisstore: expire: %w", err)
		}
	}
	return n <= int64(l.perHour), nil
}

// Close releases the underlying client.
func (l *Limiter) Close() error {
	return l.rdb.Close()
}
