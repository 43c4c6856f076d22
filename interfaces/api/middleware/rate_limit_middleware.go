package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

// RateLimiter คืน false เมื่อ key ใช้ budget หมดแล้ว
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

type RateLimitConfig struct {
	Limiter RateLimiter
	// KeyFunc ค่า default คือ IP ของ client
	KeyFunc func(c *fiber.Ctx) string
}

// RateLimit ถ้า limiter error จะปล่อยผ่าน (fail open) และ log ไว้
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}

	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := keyFunc(c)

		allowed, err := cfg.Limiter.Allow(ctx, key)
		if err != nil {
			logger.ErrorContext(ctx, "Rate limiter unavailable", "key", key, "error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limiter.Limit()))

		if !allowed {
			logger.WarnContext(ctx, "Rate limit exceeded", "key", key, "path", c.Path())
			return utils.TooManyRequestsResponse(c)
		}

		return c.Next()
	}
}

// MemoryRateLimiter token bucket ต่อ key ในหน่วยความจำของ instance เดียว
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*memoryEntry
	limit    int
	window   time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limiters: make(map[string]*memoryEntry),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	entry, ok := l.limiters[key]
	if !ok {
		// เติม token ครบ limit ภายใน window, burst = limit
		every := rate.Every(l.window / time.Duration(l.limit))
		entry = &memoryEntry{limiter: rate.NewLimiter(every, l.limit)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1), nil
}

func (l *MemoryRateLimiter) Limit() int {
	return l.limit
}

// evictIdle ลบ key ที่เงียบเกิน window ซึ่ง bucket เต็มแล้วแน่นอน
func (l *MemoryRateLimiter) evictIdle(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.window {
			delete(l.limiters, key)
		}
	}
}
