// 文件: pkg/decision/decision.go
// 四层决策引擎 - 趋势过滤 -> 位置过滤 -> 辅助确认 -> 舆情否决
//
// 移植自 stock_analyzer.py 的 StockTrendAnalyzer.analyze()，层级结构、
// 加分项与措辞逐条保留；ATR 阈值与关键词严重度表取自 SPEC_FULL.md §5
// 记录的规范化选择（spec 数值表优先于原始 MARKET_CONFIG）。

package decision

import (
	"fmt"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
)

// TrendStatus is the closed enumeration of MA-ordering trend states.
type TrendStatus int

const (
	StrongBull TrendStatus = iota
	Bull
	WeakBull
	Consolidation
	WeakBear
	Bear
	StrongBear
)

func (t TrendStatus) String() string {
	switch t {
	case StrongBull:
		return "强势多头"
	case Bull:
		return "多头排列"
	case WeakBull:
		return "弱势多头"
	case WeakBear:
		return "弱势空头"
	case Bear:
		return "空头排列"
	case StrongBear:
		return "强势空头"
	default:
		return "盘整"
	}
}

// VolumeStatus is the closed enumeration of volume/price co-movement states.
type VolumeStatus int

const (
	VolumeNormal VolumeStatus = iota
	HeavyVolumeUp
	HeavyVolumeDown
	ShrinkVolumeUp
	ShrinkVolumeDown
)

func (v VolumeStatus) String() string {
	switch v {
	case HeavyVolumeUp:
		return "放量上涨"
	case HeavyVolumeDown:
		return "放量下跌"
	case ShrinkVolumeUp:
		return "缩量上涨"
	case ShrinkVolumeDown:
		return "缩量回调"
	default:
		return "量能正常"
	}
}

// BuySignal is the closed enumeration of final recommendation states.
type BuySignal int

const (
	StrongBuy BuySignal = iota
	Buy
	Hold
	Wait
	Sell
	StrongSell
)

func (b BuySignal) String() string {
	switch b {
	case StrongBuy:
		return "强烈买入"
	case Buy:
		return "买入"
	case Hold:
		return "持有"
	case Sell:
		return "卖出"
	case StrongSell:
		return "强烈卖出"
	default:
		return "观望"
	}
}

// MarketType distinguishes mainland A-share listings from Hong Kong ones.
type MarketType int

const (
	AShare MarketType = iota
	HongKong
)

func (m MarketType) String() string {
	if m == HongKong {
		return "港股"
	}
	return "A股"
}

// DetectMarketType applies the canonical-code rule: a bare 6-digit numeric
// code is A-share; anything else (HK decorations included) is Hong Kong.
func DetectMarketType(code string) MarketType {
	if len(code) == 6 {
		allDigits := true
		for _, r := range code {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return AShare
		}
	}
	return HongKong
}

// marketParams is the two-row config table from spec §4.9.
type marketParams struct {
	BiasThreshold float64
	ATRMinPct     float64
	ATRMaxPct     float64
}

var marketConfig = map[MarketType]marketParams{
	AShare:   {BiasThreshold: 5.0, ATRMinPct: 1.0, ATRMaxPct: 3.0},
	HongKong: {BiasThreshold: 6.0, ATRMinPct: 1.0, ATRMaxPct: 4.0},
}

const (
	volumeShrinkRatio = 0.7
	volumeHeavyRatio  = 1.5
)

// Result is the immutable output of one decision-engine evaluation.
type Result struct {
	Symbol     string
	MarketType MarketType

	TrendStatus TrendStatus
	MAAlignment string
	BiasMA5     float64
	BiasMA10    float64
	BiasMA20    float64

	VolumeStatus VolumeStatus

	BuySignal     BuySignal
	SignalScore   int
	SignalReasons []string
	RiskFactors   []string

	MACD, MACDSignal, MACDHist float64
	MACDGoldenCross            bool
	MACDBearish                bool
	RSI, ATR, ATRPct           float64

	SentimentChecked bool
	SentimentResult  string
	SentimentScore   int
	SentimentReasons []string
}

// Analyze runs the four-layer pipeline over the latest bar of series
// (length must be >= 20; callers should check series.Len() beforehand —
// analysis_context already enforces this upstream). newsContext is
// optional; an empty string skips Layer 4 entirely.
func Analyze(symbol string, series *bar.Series, newsContext string) Result {
	market := DetectMarketType(symbol)
	cfg := marketConfig[market]

	latest, ok := series.Last()
	if !ok {
		return Result{Symbol: symbol, MarketType: market, BuySignal: Wait}
	}

	r := Result{Symbol: symbol, MarketType: market}
	fillBasics(&r, latest)

	// Layer 1 — trend filter (hard)
	if r.TrendStatus != StrongBull && r.TrendStatus != Bull {
		r.BuySignal = Wait
		r.SignalScore = 0
		r.SignalReasons = nil
		r.RiskFactors = []string{fmt.Sprintf("%s，不做空头", r.TrendStatus)}
		return r
	}

	score := 40
	reasons := []string{fmt.Sprintf("%s，通过趋势过滤", r.TrendStatus)}

	// Layer 2 — position filter (hard)
	if abs(r.BiasMA5) >= cfg.BiasThreshold {
		r.BuySignal = Wait
		r.SignalScore = score
		r.SignalReasons = reasons
		r.RiskFactors = []string{fmt.Sprintf("乖离率%.2f%%，超过%s阈值%.1f%%", r.BiasMA5, market, cfg.BiasThreshold)}
		return r
	}
	score += 30
	if r.BiasMA5 < 0 {
		reasons = append(reasons, fmt.Sprintf("乖离率%.2f%%，回踩买点", r.BiasMA5))
	} else {
		reasons = append(reasons, fmt.Sprintf("乖离率%.2f%%，安全范围", r.BiasMA5))
	}

	// Layer 3 — auxiliary confirmation (additive only)
	var risks []string
	score, auxReasons, auxRisks := checkAuxiliary(series, &r, score, cfg)
	reasons = append(reasons, auxReasons...)
	risks = append(risks, auxRisks...)

	// Layer 4 — sentiment veto (only if news context supplied)
	if newsContext != "" {
		pass, info := checkSentiment(newsContext)
		r.SentimentChecked = true
		r.SentimentResult = info.result
		r.SentimentScore = info.score
		r.SentimentReasons = info.reasons

		if !pass {
			r.BuySignal = Wait
			r.SignalScore = score
			r.SignalReasons = reasons
			r.RiskFactors = append(risks, info.risks...)
			return r
		}
		if info.score > 0 {
			score += info.score
			reasons = append(reasons, info.reasons...)
		}
	}

	if score > 100 {
		score = 100
	}
	r.SignalScore = score
	r.SignalReasons = reasons
	r.RiskFactors = risks

	switch {
	case score >= 70:
		r.BuySignal = StrongBuy
	case score >= 60:
		r.BuySignal = Buy
	default:
		r.BuySignal = Wait
	}

	return r
}

func fillBasics(r *Result, latest bar.Bar) {
	r.BiasMA5 = biasPct(latest.Close, latest.MA5)
	r.BiasMA10 = biasPct(latest.Close, latest.MA10)
	r.BiasMA20 = biasPct(latest.Close, latest.MA20)

	r.TrendStatus = trendStatus(latest.Close, latest.MA5, latest.MA10, latest.MA20)
	r.MAAlignment = maAlignment(r.TrendStatus, latest.MA5, latest.MA10, latest.MA20)

	r.VolumeStatus = volumeStatus(latest.VolumeRatio, latest.PctChg)

	r.MACD, r.MACDSignal, r.MACDHist = latest.MACD, latest.MACDSignal, latest.MACDHist
	r.RSI, r.ATR = latest.RSI, latest.ATR
	if latest.ATR > 0 && latest.Close > 0 {
		r.ATRPct = latest.ATR / latest.Close * 100
	}
}

func biasPct(close, ma float64) float64 {
	if ma <= 0 {
		return 0
	}
	return (close - ma) / ma * 100
}

func trendStatus(close, ma5, ma10, ma20 float64) TrendStatus {
	switch {
	case close > ma5 && ma5 > ma10 && ma10 > ma20 && ma20 > 0:
		if (ma5 - ma10) > (ma10 - ma20) {
			return StrongBull
		}
		return Bull
	case close < ma5 && ma5 < ma10 && ma10 < ma20 && ma20 > 0:
		if (ma10 - ma5) > (ma20 - ma10) {
			return StrongBear
		}
		return Bear
	case close > ma5 && ma5 > ma10 && ma10 > ma20:
		return WeakBull
	case close < ma5 && ma5 < ma10 && ma10 < ma20:
		return WeakBear
	default:
		return Consolidation
	}
}

func maAlignment(status TrendStatus, ma5, ma10, ma20 float64) string {
	switch status {
	case StrongBull, Bull:
		return fmt.Sprintf("MA5(%.2f) > MA10(%.2f) > MA20(%.2f)", ma5, ma10, ma20)
	case Bear, StrongBear:
		return fmt.Sprintf("MA5(%.2f) < MA10(%.2f) < MA20(%.2f)", ma5, ma10, ma20)
	default:
		return "均线缠绕"
	}
}

func volumeStatus(volumeRatio, pctChg float64) VolumeStatus {
	switch {
	case volumeRatio >= volumeHeavyRatio && pctChg > 0:
		return HeavyVolumeUp
	case volumeRatio >= volumeHeavyRatio:
		return HeavyVolumeDown
	case volumeRatio <= volumeShrinkRatio && pctChg > 0:
		return ShrinkVolumeUp
	case volumeRatio <= volumeShrinkRatio:
		return ShrinkVolumeDown
	default:
		return VolumeNormal
	}
}

func checkAuxiliary(series *bar.Series, r *Result, baseScore int, cfg marketParams) (int, []string, []string) {
	score := baseScore
	var reasons, risks []string

	latest, _ := series.Last()
	prev, _ := series.Prev()

	r.MACDGoldenCross = prev.MACD <= prev.MACDSignal && latest.MACD > latest.MACDSignal
	if r.MACDGoldenCross {
		score += 10
		reasons = append(reasons, "MACD金叉，趋势确认")
	} else {
		r.MACDBearish = prev.MACD >= prev.MACDSignal && latest.MACD < latest.MACDSignal
		if r.MACDBearish {
			risks = append(risks, "MACD死叉，注意风险")
		}
	}

	switch rsi := r.RSI; {
	case rsi < 30:
		score += 15
		reasons = append(reasons, fmt.Sprintf("RSI=%.0f，超卖区域", rsi))
	case rsi < 70:
		score += 10
		reasons = append(reasons, fmt.Sprintf("RSI=%.0f，健康区域", rsi))
	case rsi < 80:
		risks = append(risks, fmt.Sprintf("RSI=%.0f，接近超买", rsi))
	default:
		risks = append(risks, fmt.Sprintf("RSI=%.0f，超买区域", rsi))
	}

	switch {
	case r.ATRPct > cfg.ATRMinPct && r.ATRPct < cfg.ATRMaxPct:
		score += 5
		reasons = append(reasons, fmt.Sprintf("ATR健康(%.1f%%)", r.ATRPct))
	case r.ATRPct >= cfg.ATRMaxPct:
		risks = append(risks, fmt.Sprintf("波动率过大(%.1f%%)", r.ATRPct))
	}

	switch r.VolumeStatus {
	case ShrinkVolumeDown:
		score += 10
		reasons = append(reasons, "缩量回调，洗盘特征")
	case HeavyVolumeUp:
		score += 8
		reasons = append(reasons, "放量上涨，多头强劲")
	}

	return score, reasons, risks
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
