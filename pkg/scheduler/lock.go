package scheduler

import (
	"context"
	"time"

	"taskflow/pkg/logger"
)

// Locker lock ข้าม instance เช่น redis SetNX
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// WithLock ให้ job รันได้ทีละ instance, instance ที่ไม่ได้ lock ข้ามรอบนั้น
// ถ้า locker error จะรันต่อแบบไม่มี lock
func WithLock(locker Locker, key string, ttl time.Duration, task JobFunc) JobFunc {
	if locker == nil {
		return task
	}

	return func(ctx context.Context) {
		acquired, err := locker.AcquireLock(ctx, key, ttl)
		if err != nil {
			logger.Warn("Job lock unavailable, running without lock", "key", key, "error", err)
			task(ctx)
			return
		}
		if !acquired {
			logger.Debug("Job lock held by another instance, skipping", "key", key)
			return
		}

		defer func() {
			// ctx อาจถูก cancel แล้วตอน shutdown
			if err := locker.ReleaseLock(context.Background(), key); err != nil {
				logger.Warn("Failed to release job lock", "key", key, "error", err)
			}
		}()

		task(ctx)
	}
}
