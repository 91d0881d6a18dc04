package redis

import (
	"log/slog"
	"strconv"
	"time"

	"context"

	"github.com/redis/go-redis/v9"

	"beacon/internal/core/contracts"
	"beacon/pkg/logging"
)

// SlidingWindowLimiter counts requests per key inside a rolling window using
// a ZSET: stale members are trimmed, the current request is added, and the
// cardinality is the request count. All four commands run in one pipeline.
type SlidingWindowLimiter struct {
	rdb      *redis.Client
	prefix   string
	requests int
	window   time.Duration
	log      *slog.Logger
}

func NewSlidingWindowLimiter(rdb *redis.Client, log *slog.Logger, prefix string, requests int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:      rdb,
		prefix:   prefix,
		requests: requests,
		window:   window,
		log:      log,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, contracts.RateInfo, error) {
	now := time.Now()
	windowStart := now.Add(-l.window)
	redisKey := l.prefix + ":" + key

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	card := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: no redis means no rate limiting.
		l.log.WarnContext(ctx, "rate limiter - pipeline failed", logging.Err(err))
		return true, contracts.RateInfo{}, err
	}

	count := int(card.Val())
	remaining := l.requests - count
	if remaining < 0 {
		remaining = 0
	}
	info := contracts.RateInfo{
		Limit:     l.requests,
		Remaining: remaining,
		ResetAt:   now.Add(l.window).Unix(),
	}
	allowed := count <= l.requests
	if !allowed {
		l.log.WarnContext(ctx, "rate limiter - limit exceeded",
			slog.String("key", key), slog.Int("count", count), slog.Int("limit", l.requests))
	}
	return allowed, info, nil
}
