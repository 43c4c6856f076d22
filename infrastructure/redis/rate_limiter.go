package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter sliding window บน sorted set หนึ่ง key ต่อ client
// ทุก instance ของ API ใช้ budget ร่วมกัน
type RateLimiter struct {
	client *Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client *Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("rate_limit:%s:%s", l.prefix, key)
	now := l.now().UnixNano()
	windowStart := now - l.window.Nanoseconds()

	pipe := l.client.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now), Member: strconv.FormatInt(now, 10) + "-" + uuid.NewString()})
	pipe.Expire(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	return countCmd.Val() < int64(l.limit), nil
}

func (l *RateLimiter) Limit() int {
	return l.limit
}

func (l *RateLimiter) Window() time.Duration {
	return l.window
}
