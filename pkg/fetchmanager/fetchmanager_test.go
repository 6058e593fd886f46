package fetchmanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/fetcher"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/retry"
)

type fakeFetcher struct {
	name     string
	priority int
	calls    int
	rows     []fetcher.RawRow
	err      error
}

func (f *fakeFetcher) Name() string  { return f.name }
func (f *fakeFetcher) Priority() int { return f.priority }
func (f *fakeFetcher) FetchRaw(ctx context.Context, symbol string, start, end time.Time) ([]fetcher.RawRow, error) {
	f.calls++
	return f.rows, f.err
}
func (f *fakeFetcher) Normalize(raw []fetcher.RawRow, symbol string) ([]bar.Bar, error) {
	out := make([]bar.Bar, 0, len(raw))
	for _, r := range raw {
		out = append(out, bar.Bar{Symbol: symbol, Date: r.Date, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	return out, nil
}

func rows(n int) []fetcher.RawRow {
	out := make([]fetcher.RawRow, n)
	price := 10.0
	for i := range out {
		price += 0.1
		out[i] = fetcher.RawRow{
			Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 100,
		}
	}
	return out
}

func newTestManager() *Manager {
	return New(Config{RetryConfig: retry.Config{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}})
}

func TestGetDailyFallsBackToSecondFetcher(t *testing.T) {
	m := newTestManager()
	primary := &fakeFetcher{name: "primary", priority: 1, err: errors.New("down")}
	secondary := &fakeFetcher{name: "secondary", priority: 2, rows: rows(25)}
	m.Register(primary)
	m.Register(secondary)

	result := m.GetDaily(context.Background(), "600519", time.Time{}, time.Time{}, 25)
	require.NotNil(t, result.Series)
	assert.Equal(t, "secondary", result.Source)
	assert.GreaterOrEqual(t, primary.calls, 1)
}

func TestGetDailyReturnsEmptyResultWhenAllFail(t *testing.T) {
	m := newTestManager()
	m.Register(&fakeFetcher{name: "only", priority: 1, err: errors.New("down")})

	result := m.GetDaily(context.Background(), "600519", time.Time{}, time.Time{}, 25)
	assert.Nil(t, result.Series)
	assert.Empty(t, result.Source)
}

func TestGetDailyPrefersLowerPriorityNumberFirst(t *testing.T) {
	m := newTestManager()
	low := &fakeFetcher{name: "low", priority: 5, rows: rows(25)}
	high := &fakeFetcher{name: "high", priority: 1, rows: rows(25)}
	m.Register(low)
	m.Register(high)

	result := m.GetDaily(context.Background(), "600519", time.Time{}, time.Time{}, 25)
	assert.Equal(t, "high", result.Source)
}
