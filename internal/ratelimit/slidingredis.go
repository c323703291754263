package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a sliding-window limiter kept in one Redis sorted set per
// key, so every storefront process pointed at the same Redis shares a budget.
type RedisLimiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records a hit for key. Rejected hits are removed again so they do not
// hold the window open. reset is when the oldest counted hit leaves the window.
func (l RedisLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := time.Now()
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	setKey := l.Prefix + key
	hit := uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(now.UnixNano()), Member: hit})
	count := pipe.ZCard(ctx, setKey)
	oldest := pipe.ZRangeWithScores(ctx, setKey, 0, 0)
	pipe.PExpire(ctx, setKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, now.Add(window), fmt.Errorf("ratelimit: redis: %w", err)
	}

	reset := now.Add(window)
	if first := oldest.Val(); len(first) == 1 {
		reset = time.Unix(0, int64(first[0].Score)).Add(window)
	}

	used := int(count.Val())
	if used > max {
		if err := l.Client.ZRem(ctx, setKey, hit).Err(); err != nil {
			return false, 0, reset, fmt.Errorf("ratelimit: redis: %w", err)
		}
		return false, 0, reset, nil
	}
	return true, max - used, reset, nil
}
