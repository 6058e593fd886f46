// 文件: cmd/analyzer/main.go
// 分析器入口 - 外部协作方（非核心）：拼装配置、构造各层组件，
// 对一批股票代码并发执行"抓取 -> 存储 -> 决策 -> 通知"流水线。
//
// 结构移植自 cmd/simulation/main.go：main 内直接拼装依赖，不使用
// DI 容器；worker 池用带缓冲 channel 限流，和教师入口一样朴素。

package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/breaker"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/cache"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/decision"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/eventbus"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/fetchmanager"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/idgen"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/interpreter"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/nameresolver"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/notifier"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/ratelimit"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/retry"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/storage"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/validate"
)

// SignalResult is one symbol's end-to-end analysis outcome, the unit the
// analyze operation returns and publish consumes.
type SignalResult struct {
	Symbol        string
	CorrelationID string
	Decision      decision.Result
	Summary       interpreter.Summary
	Err           error
}

func main() {
	cfg := loadConfig()
	logger := log.New(log.Writer(), "", log.LstdFlags)

	idGenerator, err := idgen.New(cfg.SnowflakeNodeID)
	if err != nil {
		logger.Fatalf("[Analyzer] snowflake init: %v", err)
	}

	cacheMgr, err := cache.New(cache.Config{
		Dir: cfg.CacheDir, DefaultTTL: time.Hour, MaxBytes: cfg.CacheMaxBytes,
	})
	if err != nil {
		logger.Fatalf("[Analyzer] cache init: %v", err)
	}

	limiterRegistry := ratelimit.NewRegistry(func(source string) ratelimit.Config {
		switch source {
		case "tushare":
			return ratelimit.Config{MinDelay: 50 * time.Millisecond, MaxDelay: 150 * time.Millisecond, PerMinute: cfg.TushareRPM}
		default:
			return ratelimit.Config{MinDelay: cfg.AkshareSleepMin, MaxDelay: cfg.AkshareSleepMax}
		}
	})

	fm := fetchmanager.New(fetchmanager.Config{
		RetryConfig: retry.Config{
			MaxAttempts: cfg.MaxRetries, BaseDelay: cfg.RetryBaseDelay, MaxDelay: cfg.RetryMaxDelay,
			ExponentialBase: 2.0, Jitter: true,
		},
		BreakerConfig: func(name string) breaker.Config {
			return breaker.Config{Name: name, FailureThreshold: 3, Timeout: time.Minute, HalfOpenMaxCalls: 1}
		},
		Logger: logger,
	})
	fm.Register(NewAkShareFetcher("https://akshare-proxy.internal", limiterRegistry, cacheMgr))
	if cfg.TushareToken != "" {
		fm.Register(NewTushareFetcher("https://api.tushare.pro", cfg.TushareToken, limiterRegistry, cacheMgr))
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	if err != nil {
		logger.Fatalf("[Analyzer] mysql connect: %v", err)
	}
	store := storage.Open(db)

	resolver := nameresolver.New(cfg.NameCacheFile, nil)

	channels := buildChannels(cfg)
	notify := notifier.New(channels)

	var bus eventbus.Bus = eventbus.NoopBus{}
	switch {
	case len(cfg.KafkaBrokers) > 0:
		kp, err := eventbus.NewKafkaPublisher(eventbus.DefaultKafkaConfig(cfg.KafkaBrokers))
		if err != nil {
			logger.Printf("[Analyzer] kafka publisher unavailable, falling back to noop bus: %v", err)
		} else {
			defer kp.Close()
			bus = kp
		}
	case cfg.NatsURL != "":
		np, err := eventbus.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			logger.Printf("[Analyzer] nats publisher unavailable, falling back to noop bus: %v", err)
		} else {
			defer np.Close()
			bus = np
		}
	}

	ctx := context.Background()
	results := analyze(ctx, cfg, fm, store, resolver, idGenerator, logger, cfg.Symbols)
	publish(ctx, results, notify, bus, logger)
}

// analyze runs the fetch -> store -> decide pipeline over symbols with a
// bounded worker pool sized cfg.MaxConcurrency, mirroring the teacher's
// simulation loop's simple semaphore-channel pattern.
func analyze(ctx context.Context, cfg Config, fm *fetchmanager.Manager, store *storage.Store,
	resolver *nameresolver.Resolver, idGenerator *idgen.Generator, logger *log.Logger, symbols []string) []SignalResult {

	sem := make(chan struct{}, cfg.MaxConcurrency)
	var wg sync.WaitGroup
	results := make([]SignalResult, len(symbols))

	for i, rawSymbol := range symbols {
		i, rawSymbol := i, rawSymbol
		symbol, err := validate.NormalizeStockCode(rawSymbol)
		if err != nil {
			results[i] = SignalResult{Symbol: rawSymbol, Err: fmt.Errorf("invalid symbol: %w", err)}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = analyzeOne(ctx, cfg, fm, store, resolver, idGenerator, logger, symbol)
		}()
	}
	wg.Wait()
	return results
}

func analyzeOne(ctx context.Context, cfg Config, fm *fetchmanager.Manager, store *storage.Store,
	resolver *nameresolver.Resolver, idGenerator *idgen.Generator, logger *log.Logger, symbol string) SignalResult {

	correlationID := idGenerator.NextCorrelationID()
	name := resolver.GetName(ctx, symbol, "")

	fetchResult := fm.GetDaily(ctx, symbol, time.Time{}, time.Time{}, cfg.DaysOfHistory)
	if fetchResult.Series == nil || fetchResult.Series.Len() == 0 {
		return SignalResult{Symbol: symbol, CorrelationID: correlationID, Err: fmt.Errorf("no data fetched for %s (%s)", symbol, name)}
	}

	if n, err := store.Upsert(ctx, fetchResult.Series, fetchResult.Source); err != nil {
		logger.Printf("[Analyzer][%s] correlation=%s upsert error: %v", symbol, correlationID, err)
	} else {
		logger.Printf("[Analyzer][%s] correlation=%s persisted %d rows from %s", symbol, correlationID, n, fetchResult.Source)
	}

	analysisCtx, err := store.AnalysisContext(ctx, symbol, cfg.DaysOfHistory)
	if err != nil {
		return SignalResult{Symbol: symbol, CorrelationID: correlationID, Err: fmt.Errorf("analysis context: %w", err)}
	}
	if analysisCtx == nil {
		return SignalResult{Symbol: symbol, CorrelationID: correlationID, Err: fmt.Errorf("insufficient history for %s (need >= 20 rows)", symbol)}
	}

	series := &bar.Series{Symbol: symbol, Bars: analysisCtx.Bars}
	result := decision.Analyze(symbol, series, "")

	last := analysisCtx.Bars[len(analysisCtx.Bars)-1]
	ind := analysisCtx.Indicators
	price := last.Close
	summary := interpreter.GenerateSummary(
		&interpreter.MACDInput{DIF: ind.MACD, DEA: ind.MACDSignal, Bar: ind.MACDHist},
		&ind.RSI, &ind.ATR, &price,
	)

	return SignalResult{Symbol: symbol, CorrelationID: correlationID, Decision: result, Summary: summary}
}

// publish fans every successful SignalResult out to the notifier channels
// and the configured event bus; failures are logged per symbol, never
// fatal to the batch (spec §6 publish semantics).
func publish(ctx context.Context, results []SignalResult, notify *notifier.Notifier, bus eventbus.Bus, logger *log.Logger) {
	for _, r := range results {
		if r.Err != nil {
			logger.Printf("[Analyzer][%s] correlation=%s analysis failed: %v", r.Symbol, r.CorrelationID, r.Err)
			continue
		}

		report := notifier.Report{
			Title: fmt.Sprintf("%s 分析报告 [%s]", r.Symbol, r.Decision.BuySignal),
			Body:  renderBody(r),
		}
		sendResult := notify.Send(ctx, report)
		if !sendResult.Success {
			logger.Printf("[Analyzer][%s] correlation=%s some channels failed: %v", r.Symbol, r.CorrelationID, sendResult.ChannelResults)
		}

		evt := eventbus.NewAnalysisCompleted(r.CorrelationID, r.Decision, time.Now())
		if err := bus.Publish(evt); err != nil {
			logger.Printf("[Analyzer][%s] correlation=%s event publish failed: %v", r.Symbol, r.CorrelationID, err)
		}
	}
}

func renderBody(r SignalResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "信号: %s (评分 %d)\n", r.Decision.BuySignal, r.Decision.SignalScore)
	fmt.Fprintf(&b, "趋势: %s | 排列: %s\n", r.Decision.TrendStatus, r.Decision.MAAlignment)
	if len(r.Decision.SignalReasons) > 0 {
		fmt.Fprintf(&b, "理由: %s\n", strings.Join(r.Decision.SignalReasons, "; "))
	}
	if len(r.Decision.RiskFactors) > 0 {
		fmt.Fprintf(&b, "风险: %s\n", strings.Join(r.Decision.RiskFactors, "; "))
	}
	fmt.Fprintf(&b, "技术指标综述: %s\n", r.Summary.SummaryText)
	fmt.Fprintf(&b, "风险等级: %s | 建议: %s(%s)\n", r.Summary.RiskLevel, r.Summary.Recommendation.Action, r.Summary.Recommendation.Confidence)
	return b.String()
}
