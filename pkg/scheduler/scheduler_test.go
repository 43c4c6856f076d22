package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGocronScheduler_RunsIntervalJob(t *testing.T) {
	s := NewJobScheduler()
	var runs atomic.Int32

	require.NoError(t, s.AddIntervalJob("sweep", 50*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}))

	s.Start()
	defer s.Stop()
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	info, ok := s.GetJob("sweep")
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, info.Interval)
	assert.NotNil(t, info.LastRun)
	assert.GreaterOrEqual(t, info.RunCount, 1)
}

func TestGocronScheduler_Validation(t *testing.T) {
	s := NewJobScheduler()
	noop := func(ctx context.Context) {}

	assert.Error(t, s.AddIntervalJob("bad", 0, noop))

	require.NoError(t, s.AddIntervalJob("job", time.Hour, noop))
	assert.Error(t, s.AddIntervalJob("job", time.Hour, noop))

	require.NoError(t, s.RemoveJob("job"))
	assert.Error(t, s.RemoveJob("job"))

	_, ok := s.GetJob("job")
	assert.False(t, ok)
}

func TestGocronScheduler_StopCancelsContext(t *testing.T) {
	s := NewJobScheduler()
	started := make(chan struct{})
	cancelled := make(chan struct{})

	require.NoError(t, s.AddIntervalJob("long", time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	}))

	s.Start()
	<-started
	go s.Stop()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not cancelled on Stop")
	}
}
