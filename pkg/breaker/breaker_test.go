package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, Timeout: time.Minute, HalfOpenMaxCalls: 2})

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
	}

	err := b.Allow()
	require.Error(t, err)
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestBreakerDoesNotInvokeWhenOpen(t *testing.T) {
	b := New(Config{Name: "t", FailureThreshold: 1, Timeout: time.Minute})
	calls := 0
	protected := func() error { calls++; return errors.New("boom") }

	err := b.Call(protected)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	err = b.Call(protected)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "second call must be rejected without invoking protected fn")
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New(Config{Name: "t", FailureThreshold: 1, Timeout: 10 * time.Millisecond, HalfOpenMaxCalls: 2})
	b.RecordFailure()
	require.Equal(t, Open, b.State())

	time.Sleep(15 * time.Millisecond)
	require.Equal(t, HalfOpen, b.State())

	require.NoError(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.State())

	require.NoError(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenFailureReturnsToOpen(t *testing.T) {
	b := New(Config{Name: "t", FailureThreshold: 1, Timeout: 5 * time.Millisecond, HalfOpenMaxCalls: 3})
	b.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, HalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, Open, b.State())
}

func TestBreakerSuccessDecaysFailureCountInClosed(t *testing.T) {
	b := New(Config{Name: "t", FailureThreshold: 5, Timeout: time.Minute})
	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, 2, b.Stats().FailureCount)

	b.RecordSuccess()
	assert.Equal(t, 1, b.Stats().FailureCount)
}
