package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(Config{Dir: t.TempDir(), DefaultTTL: time.Hour, MaxBytes: 1 << 20})
	require.NoError(t, err)
	return m
}

func TestSetGetRoundTrip(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("sh600000", []byte("payload"), time.Minute))

	v, ok := m.Get("sh600000")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), v)
}

func TestGetMissReturnsFalse(t *testing.T) {
	m := newTestManager(t)
	_, ok := m.Get("missing")
	assert.False(t, ok)
}

func TestGetExpiredEntryEvictsOnRead(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestGetFallsThroughToDiskWhenMemoryEmpty(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k", []byte("v"), time.Minute))

	m.mu.Lock()
	delete(m.memory, "k")
	m.mu.Unlock()

	v, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestDeleteRemovesFromBothTiers(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k", []byte("v"), time.Minute))
	m.Delete("k")

	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestCleanupExpiredRemovesStaleDiskEntries(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	removed := m.CleanupExpired()
	assert.Equal(t, 1, removed)
}

func TestStatsTracksHitsAndMisses(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k", []byte("v"), time.Minute))

	_, _ = m.Get("k")
	_, _ = m.Get("missing")

	s := m.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Sets)
}

func TestEvictionReducesDiskUsageToTarget(t *testing.T) {
	m, err := New(Config{Dir: t.TempDir(), DefaultTTL: time.Hour, MaxBytes: 200})
	require.NoError(t, err)

	payload := make([]byte, 50)
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Set(string(rune('a'+i)), payload, time.Hour))
	}

	s := m.Stats()
	assert.LessOrEqual(t, s.DiskBytes, int64(200))
}
