package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/pkg/config"
)

func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRateLimiter_BlocksAfterBudget(t *testing.T) {
	client, _ := setupTestClient(t)
	limiter := NewRateLimiter(client, "auth", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// client อื่นมี budget ของตัวเอง
	allowed, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	client, _ := setupTestClient(t)
	limiter := NewRateLimiter(client, "auth", 1, time.Minute)
	ctx := context.Background()

	base := time.Now()
	limiter.now = func() time.Time { return base }

	allowed, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	limiter.now = func() time.Time { return base.Add(3 * time.Minute) }
	allowed, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_RedisDown(t *testing.T) {
	client, mr := setupTestClient(t)
	limiter := NewRateLimiter(client, "auth", 1, time.Minute)

	mr.Close()
	_, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestClient_Lock(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	ok, err := client.AcquireLock(ctx, "lock:job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.AcquireLock(ctx, "lock:job", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.ReleaseLock(ctx, "lock:job"))
	ok, err = client.AcquireLock(ctx, "lock:job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
