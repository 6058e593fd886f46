// 文件: pkg/fetcher/fetcher.go
// 数据源抽象与归一化 - 策略模式
//
// 【职责】
// 1. 定义统一的 Fetcher 接口（每个数据源各自实现 FetchRaw/Normalize）
// 2. 提供模板方法 GetDaily 完成 fetch -> normalize -> clean -> indicators
// 3. 纯 Go 实现 MACD/RSI/ATR/均线计算，零外部指标依赖
//
// 移植自 data_provider/base.py 的策略模式骨架；指标公式取自
// spec 的精确定义（原始仓库中对应的 pandas 实现未被保留在参考包内）。

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
)

// ErrDataFetch 包裹底层抓取/归一化/清洗过程中的任意失败。
var ErrDataFetch = errors.New("fetcher: data fetch failed")

// RawRow 是数据源返回的原始一行数据，字段直接对应 Bar 的输入列。
type RawRow struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Amount float64
	PctChg float64
}

// Fetcher 是单个外部数据源的抽象：名称、优先级（数值越小越优先），
// 以及两个扩展点：FetchRaw 取回原生数据，Normalize 映射到规范 Bar。
type Fetcher interface {
	Name() string
	Priority() int
	FetchRaw(ctx context.Context, symbol string, start, end time.Time) ([]RawRow, error)
	Normalize(raw []RawRow, symbol string) ([]bar.Bar, error)
}

// GetDaily 是模板方法：默认窗口 -> FetchRaw -> Normalize -> clean -> 指标计算。
// 任一环节返回空结果或出错，都会被包装为 ErrDataFetch。
func GetDaily(ctx context.Context, f Fetcher, symbol string, start, end time.Time, days int) (*bar.Series, error) {
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -2*days)
	}

	raw, err := f.FetchRaw(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: fetch_raw: %v", ErrDataFetch, f.Name(), err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: fetch_raw returned no rows", ErrDataFetch, f.Name())
	}

	bars, err := f.Normalize(raw, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: normalize: %v", ErrDataFetch, f.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: normalize produced no rows", ErrDataFetch, f.Name())
	}

	cleaned := Clean(bars)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: %s: no rows survived cleaning", ErrDataFetch, f.Name())
	}

	ComputeIndicators(cleaned)
	for i := range cleaned {
		cleaned[i].DataSource = f.Name()
	}
	return &bar.Series{Symbol: symbol, Bars: cleaned}, nil
}

// Clean drops rows failing the Bar OHLCV invariant (§3: positive prices,
// low <= min(open,close) <= max(open,close) <= high, volume >= 0), sorts
// ascending by date, and deduplicates same-date rows (last write wins).
// A missing close arrives as 0 and is dropped by the positive-price
// check; a zero volume passes and the row is kept.
func Clean(bars []bar.Bar) []bar.Bar {
	byDate := make(map[string]bar.Bar, len(bars))
	for _, b := range bars {
		if b.Validate() != nil {
			continue
		}
		byDate[b.Date.Format("2006-01-02")] = b
	}

	out := make([]bar.Bar, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ComputeIndicators fills MA5/10/20, volume ratio, MACD, RSI(14) and
// ATR(14) on the series in place, rounding every derived value to 2
// decimals, exactly as spec'd in the indicator contracts.
func ComputeIndicators(bars []bar.Bar) {
	n := len(bars)
	if n == 0 {
		return
	}
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	ma5 := movingAverage(closes, 5)
	ma10 := movingAverage(closes, 10)
	ma20 := movingAverage(closes, 20)
	volRatio := volumeRatio(volumes)
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)

	macd := make([]float64, n)
	for i := range macd {
		macd[i] = ema12[i] - ema26[i]
	}
	signal := ema(macd, 9)

	rsi := computeRSI(closes, 14)
	atr := computeATR(bars, 14)

	for i := range bars {
		bars[i].MA5 = round2(ma5[i])
		bars[i].MA10 = round2(ma10[i])
		bars[i].MA20 = round2(ma20[i])
		bars[i].VolumeRatio = round2(volRatio[i])
		bars[i].MACD = round2(macd[i])
		bars[i].MACDSignal = round2(signal[i])
		bars[i].MACDHist = round2(macd[i] - signal[i])
		bars[i].RSI = round2(rsi[i])
		bars[i].ATR = round2(atr[i])
	}
}

func movingAverage(closes []float64, k int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		from := i - k + 1
		if from < 0 {
			from = 0
		}
		sum := 0.0
		count := 0
		for j := from; j <= i; j++ {
			sum += closes[j]
			count++
		}
		out[i] = sum / float64(count)
	}
	return out
}

func volumeRatio(volumes []float64) []float64 {
	out := make([]float64, len(volumes))
	for i := range volumes {
		from := i - 5
		if from < 0 {
			from = 0
		}
		to := i - 1
		if to < from {
			out[i] = 1.0
			continue
		}
		sum := 0.0
		count := 0
		for j := from; j <= to; j++ {
			sum += volumes[j]
			count++
		}
		avg := sum / float64(count)
		if avg == 0 {
			out[i] = 1.0
			continue
		}
		out[i] = volumes[i] / avg
	}
	return out
}

// ema computes the exponential moving average with the standard
// alpha = 2/(span+1) recursion, seeded with the first value (no bias
// adjustment), matching spec's "α_span form" contract.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func computeRSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = 50
	}
	for i := 1; i < len(closes); i++ {
		from := i - period + 1
		if from < 1 {
			from = 1
		}
		var gainSum, lossSum float64
		count := 0
		for j := from; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gainSum += delta
			} else {
				lossSum += -delta
			}
			count++
		}
		avgGain := gainSum / float64(count)
		avgLoss := lossSum / float64(count)
		if avgLoss == 0 {
			if avgGain == 0 {
				out[i] = 50
			} else {
				out[i] = 100
			}
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func computeATR(bars []bar.Bar, period int) []float64 {
	n := len(bars)
	tr := make([]float64, n)
	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}

	out := make([]float64, n)
	for i := range tr {
		from := i - period + 1
		if from < 0 {
			from = 0
		}
		sum := 0.0
		count := 0
		for j := from; j <= i; j++ {
			sum += tr[j]
			count++
		}
		out[i] = sum / float64(count)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
