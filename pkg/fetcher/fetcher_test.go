package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
)

type stubFetcher struct {
	name string
	rows []RawRow
	err  error
}

func (s *stubFetcher) Name() string     { return s.name }
func (s *stubFetcher) Priority() int    { return 1 }
func (s *stubFetcher) FetchRaw(ctx context.Context, symbol string, start, end time.Time) ([]RawRow, error) {
	return s.rows, s.err
}
func (s *stubFetcher) Normalize(raw []RawRow, symbol string) ([]bar.Bar, error) {
	out := make([]bar.Bar, 0, len(raw))
	for _, r := range raw {
		out = append(out, bar.Bar{
			Symbol: symbol, Date: r.Date,
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
			Volume: r.Volume, Amount: r.Amount, PctChg: r.PctChg,
		})
	}
	return out, nil
}

func genRows(n int) []RawRow {
	rows := make([]RawRow, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 0.5
		rows[i] = RawRow{
			Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: price - 0.2, High: price + 1, Low: price - 1, Close: price,
			Volume: 1000 + float64(i*10), Amount: price * 1000, PctChg: 0.1,
		}
	}
	return rows
}

func TestGetDailyComputesIndicators(t *testing.T) {
	f := &stubFetcher{name: "stub", rows: genRows(30)}
	series, err := GetDaily(context.Background(), f, "600519", time.Time{}, time.Time{}, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, series.Len())

	last, ok := series.Last()
	require.True(t, ok)
	assert.Greater(t, last.MA5, 0.0)
	assert.Equal(t, "stub", last.DataSource)
}

func TestGetDailyWrapsFetchRawError(t *testing.T) {
	f := &stubFetcher{name: "stub", err: errors.New("boom")}
	_, err := GetDaily(context.Background(), f, "600519", time.Time{}, time.Time{}, 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestGetDailyEmptyRawIsFetchError(t *testing.T) {
	f := &stubFetcher{name: "stub", rows: nil}
	_, err := GetDaily(context.Background(), f, "600519", time.Time{}, time.Time{}, 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestCleanDropsInvalidAndDedups(t *testing.T) {
	bars := []bar.Bar{
		{Symbol: "a", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 9, High: 11, Low: 9, Close: 10, Volume: 1},
		{Symbol: "a", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 0, Volume: 1},
		{Symbol: "a", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 12, Low: 10, Close: 11, Volume: 1},
	}
	out := Clean(bars)
	require.Len(t, out, 1)
	assert.Equal(t, 11.0, out[0].Close)
}

func TestCleanDropsOHLCInvariantViolation(t *testing.T) {
	bars := []bar.Bar{
		{Symbol: "a", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 10, High: 9, Low: 8, Close: 10, Volume: 1},
	}
	out := Clean(bars)
	assert.Empty(t, out)
}

func TestDetectMarket(t *testing.T) {
	assert.Equal(t, MarketShanghai, DetectMarket("600519"))
	assert.Equal(t, MarketShenzhen, DetectMarket("000001"))
	assert.Equal(t, MarketHongKong, DetectMarket("00700.HK"))
}

func TestToDialect(t *testing.T) {
	assert.Equal(t, "600519.SH", ToDialect("600519", "tushare"))
	assert.Equal(t, "sh.600519", ToDialect("600519", "sina"))
	assert.Equal(t, "00700.HK", ToDialect("00700.HK", "tushare"))
}

func TestComputeRSIBoundedAndFinite(t *testing.T) {
	bars := genRows(40)
	converted := make([]bar.Bar, len(bars))
	for i, r := range bars {
		converted[i] = bar.Bar{Close: r.Close, High: r.High, Low: r.Low, Volume: r.Volume}
	}
	ComputeIndicators(converted)
	for _, b := range converted {
		assert.GreaterOrEqual(t, b.RSI, 0.0)
		assert.LessOrEqual(t, b.RSI, 100.0)
	}
}
