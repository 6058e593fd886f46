package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterPaceRespectsJitterWindow(t *testing.T) {
	l := New(Config{MinDelay: 20 * time.Millisecond, MaxDelay: 30 * time.Millisecond})

	ctx := context.Background()
	start := time.Now()
	require.NoError(t, l.Pace(ctx))
	require.NoError(t, l.Pace(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestLimiterPaceHonorsCancellation(t *testing.T) {
	l := New(Config{MinDelay: time.Second, MaxDelay: time.Second})
	require.NoError(t, l.Pace(context.Background())) // first call never waits

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Pace(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiterTokenBucketCapsRate(t *testing.T) {
	l := New(Config{PerMinute: 2})
	ctx := context.Background()

	require.NoError(t, l.waitToken(ctx))
	require.NoError(t, l.waitToken(ctx))

	done := make(chan error, 1)
	go func() { done <- l.waitToken(ctx) }()

	select {
	case <-done:
		t.Fatal("third token should not be granted immediately")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistryLazyCreatesPerSource(t *testing.T) {
	calls := map[string]int{}
	reg := NewRegistry(func(id string) Config {
		calls[id]++
		return Config{MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	})

	require.NoError(t, reg.Pace(context.Background(), "tushare"))
	require.NoError(t, reg.Pace(context.Background(), "tushare"))
	require.NoError(t, reg.Pace(context.Background(), "akshare"))

	assert.Equal(t, 1, calls["tushare"])
	assert.Equal(t, 1, calls["akshare"])
}
