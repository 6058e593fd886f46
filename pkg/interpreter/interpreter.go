// 文件: pkg/interpreter/interpreter.go
// 技术指标解读器：为 MACD、RSI、ATR、布林带提供人类可读的状态/强度/
// 信号/建议文本，并生成综合解读报告
//
// 移植自 technical_indicators.py 的 TechnicalIndicatorInterpreter，
// 判断阈值与文案逐条保留，仅将字典返回值改为具名结构体。

package interpreter

import (
	"fmt"
	"strings"
)

// Signal 是单项技术指标的解读结果。
type Signal struct {
	Name   string
	Value  float64
	Status string
	Level  string
	Signal string
	Advice string
	Reason string
	Emoji  string
}

// InterpretMACD 解读 MACD：DIF/DEA/BAR 三线的金叉/死叉/震荡状态。
func InterpretMACD(dif, dea, bar float64) Signal {
	var status, level, signal, advice, trend, emoji string

	switch {
	case bar > 0.01:
		status, emoji = "金叉", "🟢"
		switch {
		case dif > 0 && dea > 0:
			level, signal, advice, trend = "极强", "强烈买入", "重仓持有，趋势良好", "上升趋势确立"
		case dif > 0:
			level, signal, advice, trend = "强", "买入", "逢低加仓，持有为主", "多头反弹"
		default:
			level, signal, advice, trend = "中", "试探性买入", "轻仓试探，关注反弹持续性", "底部反弹"
		}
	case bar < -0.01:
		status, emoji = "死叉", "🔴"
		switch {
		case dif < 0 && dea < 0:
			level, signal, advice, trend = "极弱", "强烈卖出", "空仓观望，等待企稳", "下降趋势确立"
		case dif < 0:
			level, signal, advice, trend = "弱", "卖出", "逢高减仓，控制风险", "空头回落"
		default:
			level, signal, advice, trend = "中", "试探性卖出", "获利减仓，防范回调", "顶部回落"
		}
	default:
		status, emoji = "震荡", "🟡"
		switch {
		case dif > dea:
			level, signal, advice, trend = "中偏强", "偏多", "持有等待，关注突破方向", "多头蓄势"
		case dif < dea:
			level, signal, advice, trend = "中偏弱", "偏空", "观望为主，等待企稳信号", "空头蓄势"
		default:
			level, signal, advice, trend = "中性", "中性", "震荡观望，等待明确信号", "横盘整理"
		}
	}

	reason := fmt.Sprintf("DIF=%.3f | DEA=%.3f | BAR=%.3f | 趋势=%s", dif, dea, bar, trend)
	return Signal{Name: "MACD", Value: bar, Status: status, Level: level, Signal: signal, Advice: advice, Reason: reason, Emoji: emoji}
}

// InterpretRSI 解读 RSI(period)：超买/超卖区间与对应操作建议。
func InterpretRSI(rsi float64, period int) Signal {
	var status, level, signal, advice, emoji string

	switch {
	case rsi >= 80:
		status, level, emoji, signal, advice = "严重超买", "极强", "🔴", "警惕回调", "高位减仓，锁定利润，或使用期权保护"
	case rsi >= 70:
		status, level, emoji, signal, advice = "超买", "强", "🟠", "注意回调", "持有为主，适当减仓，避免追高"
	case rsi <= 20:
		status, level, emoji, signal, advice = "严重超卖", "极弱", "🟢", "可能反转", "关注反弹机会，轻仓试探，分批建仓"
	case rsi <= 30:
		status, level, emoji, signal, advice = "超卖", "弱", "🟡", "关注底部", "等待企稳信号，谨慎抄底，可小仓位试探"
	case rsi >= 40 && rsi <= 60:
		status, level, emoji, signal, advice = "中性区域", "中性", "⚪", "震荡观望", "观望为主，等待突破方向明确"
	case rsi > 60:
		status, level, emoji, signal, advice = "强势区域", "中偏强", "🟢", "偏多", "持有为主，可适度加仓"
	default:
		status, level, emoji, signal, advice = "弱势区域", "中偏弱", "🟡", "偏空", "控制仓位，等待企稳"
	}

	reason := fmt.Sprintf("RSI(%d)=%.2f | %s", period, rsi, status)
	return Signal{Name: "RSI", Value: rsi, Status: status, Level: level, Signal: signal, Advice: advice, Reason: reason, Emoji: emoji}
}

// InterpretATR 解读 ATR(period) 相对于现价的占比，给出波动率分级与仓位建议。
func InterpretATR(atr, price float64, period int) Signal {
	var atrPct float64
	if price > 0 {
		atrPct = atr / price * 100
	}

	var status, level, emoji, signal, advice, volatility, risk string
	switch {
	case atrPct >= 5:
		status, level, emoji, volatility, signal, advice, risk = "极端波动", "极高风险", "🔴", "极高", "剧烈震荡", "严格控制仓位（≤20%），或观望等待波动率下降", "极高"
	case atrPct >= 3:
		status, level, emoji, volatility, signal, advice, risk = "高波动", "高风险", "🟠", "高", "波动较大", "控制仓位（≤50%），设置好止损位", "高"
	case atrPct >= 1.5:
		status, level, emoji, volatility, signal, advice, risk = "中等波动", "中风险", "🟡", "中", "正常波动", "正常仓位（50-70%），注意止损", "中"
	case atrPct >= 0.5:
		status, level, emoji, volatility, signal, advice, risk = "低波动", "低风险", "🟢", "低", "波动较小", "可适度加仓（70-80%），注意方向选择风险", "低"
	default:
		status, level, emoji, volatility, signal, advice, risk = "极低波动", "极低风险", "⚪", "极低", "波动极小", "方向选择困难，建议观望或突破后再介入", "极低"
	}

	reason := fmt.Sprintf("ATR(%d)=%.2f | 占比=%.2f%% | 波动率=%s | 风险等级=%s", period, atr, atrPct, volatility, risk)
	return Signal{Name: "ATR", Value: atr, Status: status, Level: level, Signal: signal, Advice: advice, Reason: reason, Emoji: emoji}
}

// BollingerReading 是布林带位置解读结果。
type BollingerReading struct {
	Location    string
	PositionPct float64
	Bandwidth   float64
	Signal      string
	Advice      string
	Emoji       string
	Reason      string
}

// InterpretBollingerBands 解读现价在布林带通道内的位置与带宽。
func InterpretBollingerBands(price, upper, middle, lower float64) BollingerReading {
	var bandwidth float64
	if middle > 0 {
		bandwidth = (upper - lower) / middle * 100
	}

	positionPct := 50.0
	if upper-lower > 0 {
		positionPct = (price - lower) / (upper - lower) * 100
	}

	var location, signal, advice, emoji string
	switch {
	case positionPct >= 90:
		location, signal, advice, emoji = "上轨上方", "卖出信号", "严重超买，建议减仓或止盈", "🔴"
	case positionPct >= 75:
		location, signal, advice, emoji = "上轨附近", "偏弱信号", "注意压力，可适当减仓", "🟠"
	case positionPct <= 10:
		location, signal, advice, emoji = "下轨下方", "买入信号", "严重超卖，可考虑抄底", "🟢"
	case positionPct <= 25:
		location, signal, advice, emoji = "下轨附近", "偏强信号", "支撑较强，可试探性买入", "🟡"
	default:
		location, signal, advice, emoji = "中轨区域", "中性", "震荡整理，等待突破", "⚪"
	}

	return BollingerReading{
		Location:    location,
		PositionPct: positionPct,
		Bandwidth:   bandwidth,
		Signal:      signal,
		Advice:      advice,
		Emoji:       emoji,
		Reason:      fmt.Sprintf("位置=%.1f%%, 带宽=%.2f%%", positionPct, bandwidth),
	}
}

// MACDInput 是综合解读中可选的 MACD 输入。
type MACDInput struct {
	DIF, DEA, Bar float64
}

// Recommendation 是综合操作建议。
type Recommendation struct {
	Action     string
	Confidence string
	Emoji      string
	Reason     string
}

// Summary 是多项指标解读的综合报告。
type Summary struct {
	Signals        []Signal
	SummaryText    string
	RiskLevel      string
	Recommendation Recommendation
}

// GenerateSummary 汇总 MACD/RSI/ATR 的解读结果，生成文字摘要、
// 综合风险等级与操作建议（对应原始实现的 generate_indicators_summary）。
func GenerateSummary(macd *MACDInput, rsi *float64, atr *float64, price *float64) Summary {
	var signals []Signal

	if macd != nil {
		signals = append(signals, InterpretMACD(macd.DIF, macd.DEA, macd.Bar))
	}
	if rsi != nil {
		signals = append(signals, InterpretRSI(*rsi, 14))
	}
	if atr != nil && price != nil {
		signals = append(signals, InterpretATR(*atr, *price, 14))
	}

	return Summary{
		Signals:        signals,
		SummaryText:    summarize(signals),
		RiskLevel:      riskLevel(signals),
		Recommendation: recommend(signals),
	}
}

func summarize(signals []Signal) string {
	if len(signals) == 0 {
		return "暂无技术指标数据"
	}
	parts := make([]string, 0, len(signals))
	for _, s := range signals {
		parts = append(parts, fmt.Sprintf("%s %s: %s (%s) - %s", s.Emoji, s.Name, s.Status, s.Level, s.Signal))
	}
	return strings.Join(parts, " | ")
}

var highRiskLevels = map[string]bool{"极强": true, "极弱": true, "高风险": true, "极高风险": true}

func riskLevel(signals []Signal) string {
	if len(signals) == 0 {
		return "未知"
	}
	highRisk := 0
	for _, s := range signals {
		if highRiskLevels[s.Level] {
			highRisk++
		}
	}
	ratio := float64(highRisk) / float64(len(signals))
	switch {
	case ratio >= 0.6:
		return "高风险 🔴"
	case ratio >= 0.3:
		return "中风险 🟠"
	default:
		return "低风险 🟢"
	}
}

func recommend(signals []Signal) Recommendation {
	if len(signals) == 0 {
		return Recommendation{Action: "观望", Confidence: "低", Reason: "缺少技术指标数据"}
	}

	total := len(signals)
	buy, sell := 0, 0
	for _, s := range signals {
		if strings.Contains(s.Signal, "买") {
			buy++
		}
		if strings.Contains(s.Signal, "卖") {
			sell++
		}
	}

	threshold := float64(total) * 0.6
	switch {
	case float64(buy) > threshold:
		return Recommendation{Action: "买入", Confidence: "高", Emoji: "🟢", Reason: fmt.Sprintf("多个技术指标显示买入信号（%d/%d）", buy, total)}
	case float64(sell) > threshold:
		return Recommendation{Action: "卖出", Confidence: "高", Emoji: "🔴", Reason: fmt.Sprintf("多个技术指标显示卖出信号（%d/%d）", sell, total)}
	default:
		return Recommendation{Action: "观望", Confidence: "中", Emoji: "🟡", Reason: "技术指标信号不一致，建议等待明确方向"}
	}
}
