package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
)

func TestAnalyzeBullHealthyScoresToClampedMax(t *testing.T) {
	series := &bar.Series{Symbol: "600519", Bars: []bar.Bar{
		{Symbol: "600519", MACD: 0.0, MACDSignal: 0.1, MACDHist: -0.1},
		{
			Symbol: "600519", Close: 110, MA5: 108, MA10: 105, MA20: 100,
			PctChg: -0.3, VolumeRatio: 0.6,
			MACD: 0.2, MACDSignal: 0.0, MACDHist: 0.2,
			RSI: 55, ATR: 2.2,
		},
	}}

	r := Analyze("600519", series, "")

	assert.Equal(t, Bull, r.TrendStatus)
	assert.InDelta(t, 1.85, r.BiasMA5, 0.01)
	assert.True(t, r.MACDGoldenCross)
	assert.Equal(t, ShrinkVolumeDown, r.VolumeStatus)
	assert.Equal(t, 100, r.SignalScore)
	assert.Equal(t, StrongBuy, r.BuySignal)
	assert.Equal(t, AShare, r.MarketType)
}

func TestAnalyzePositionOvershootVetoesAtScore40(t *testing.T) {
	series := &bar.Series{Symbol: "600000", Bars: []bar.Bar{
		{Symbol: "600000", Close: 120, MA5: 110, MA10: 100, MA20: 90},
	}}

	r := Analyze("600000", series, "")

	assert.Equal(t, Wait, r.BuySignal)
	assert.Equal(t, 40, r.SignalScore)
	require.Len(t, r.RiskFactors, 1)
	assert.Contains(t, r.RiskFactors[0], "9.09%")
	assert.Contains(t, r.RiskFactors[0], "5.0%")
}

func TestAnalyzeTrendFailureScoresZeroWithNoExtraReasons(t *testing.T) {
	series := &bar.Series{Symbol: "600001", Bars: []bar.Bar{
		{Symbol: "600001", Close: 90, MA5: 95, MA10: 100, MA20: 105},
	}}

	r := Analyze("600001", series, "")

	assert.Equal(t, Wait, r.BuySignal)
	assert.Equal(t, 0, r.SignalScore)
	assert.Empty(t, r.SignalReasons)
	require.Len(t, r.RiskFactors, 1)
	assert.Contains(t, r.RiskFactors[0], Bear.String())
}

func TestAnalyzeSentimentVetoOverridesOtherwiseStrongBullSignal(t *testing.T) {
	series := &bar.Series{Symbol: "600519", Bars: []bar.Bar{
		{Symbol: "600519", MACD: 0.0, MACDSignal: 0.1, MACDHist: -0.1},
		{
			Symbol: "600519", Close: 110, MA5: 108, MA10: 105, MA20: 100,
			PctChg: -0.3, VolumeRatio: 0.6,
			MACD: 0.2, MACDSignal: 0.0, MACDHist: 0.2,
			RSI: 55, ATR: 2.2,
		},
	}}

	r := Analyze("600519", series, "公司公告因立案调查被证监会关注")

	assert.Equal(t, Wait, r.BuySignal)
	assert.Equal(t, "重大利空", r.SentimentResult)
	assert.NotEmpty(t, r.SignalReasons)
	found := false
	for _, risk := range r.RiskFactors {
		if risk == "立案调查（严重）" {
			found = true
		}
	}
	assert.True(t, found, "expected risk factors to include the matched phrase, got %v", r.RiskFactors)
}

func TestAnalyzeHongKongMarketUsesRelaxedBiasThreshold(t *testing.T) {
	series := &bar.Series{Symbol: "00700.HK", Bars: []bar.Bar{
		{Symbol: "00700.HK", Close: 105.5, MA5: 100, MA10: 95, MA20: 90, RSI: 50, ATR: 1},
	}}

	r := Analyze("00700.HK", series, "")

	assert.Equal(t, HongKong, r.MarketType)
	assert.NotEqual(t, 40, r.SignalScore)
	assert.Greater(t, r.SignalScore, 40)
}

func TestDetectMarketTypeSixDigitNumericIsAShare(t *testing.T) {
	assert.Equal(t, AShare, DetectMarketType("600519"))
	assert.Equal(t, HongKong, DetectMarketType("00700.HK"))
	assert.Equal(t, HongKong, DetectMarketType("700"))
}
