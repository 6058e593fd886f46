package bar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarValidate(t *testing.T) {
	good := Bar{Open: 10, High: 12, Low: 9, Close: 11, Volume: 100}
	require.NoError(t, good.Validate())

	cases := []Bar{
		{Open: 10, High: 12, Low: 9, Close: -1, Volume: 100},
		{Open: 10, High: 8, Low: 9, Close: 11, Volume: 100}, // high < max(open,close)
		{Open: 10, High: 12, Low: 13, Close: 11, Volume: 100}, // low > min(open,close)
		{Open: 10, High: 12, Low: 9, Close: 11, Volume: -5},
	}
	for _, c := range cases {
		assert.ErrorIs(t, c.Validate(), ErrInvalidBar)
	}
}

func TestSeriesLastPrev(t *testing.T) {
	s := Series{Symbol: "600519", Bars: []Bar{
		{Close: 1, Date: time.Unix(0, 0)},
		{Close: 2, Date: time.Unix(1, 0)},
		{Close: 3, Date: time.Unix(2, 0)},
	}}
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 3.0, last.Close)

	prev, ok := s.Prev()
	require.True(t, ok)
	assert.Equal(t, 2.0, prev.Close)

	empty := Series{}
	_, ok = empty.Last()
	assert.False(t, ok)
}

func TestSeriesCloses(t *testing.T) {
	s := Series{Bars: []Bar{{Close: 1}, {Close: 2}, {Close: 3}}}
	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
}
