// 文件: pkg/fetchmanager/fetchmanager.go
// 抓取管理器 - 按优先级顺序在多个数据源间失败转移
//
// 移植自 data_provider/base.py 的 DataFetcherManager 思路：持有一组
// Fetcher，每次调用都经过重试助手与熔断器保护，空结果视为失败继续
// 下一个数据源，全部失败时不抛出而是返回空结果并记录最后一次错误。

package fetchmanager

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/breaker"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/fetcher"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/retry"
)

// entry binds one Fetcher to its dedicated circuit breaker.
type entry struct {
	f fetcher.Fetcher
	b *breaker.Breaker
}

// Manager holds fetchers sorted ascending by priority and fans a single
// get_daily call out across them until one succeeds.
type Manager struct {
	mu             sync.RWMutex
	entries        []entry
	retry          *retry.Helper
	logger         *log.Logger
	breakerFactory func(name string) breaker.Config
}

// Config configures the retry policy shared by every fetcher call.
type Config struct {
	RetryConfig   retry.Config
	BreakerConfig func(name string) breaker.Config
	Logger        *log.Logger
}

// New creates an empty Manager; fetchers are added with Register.
func New(cfg Config) *Manager {
	if cfg.BreakerConfig == nil {
		cfg.BreakerConfig = func(name string) breaker.Config {
			return breaker.Config{Name: name, FailureThreshold: 3, Timeout: time.Minute, HalfOpenMaxCalls: 1}
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{retry: retry.New(cfg.RetryConfig), logger: logger}
	m.breakerFactory = cfg.BreakerConfig
	return m
}

// Register adds a fetcher, keeping the slice sorted ascending by priority.
func (m *Manager) Register(f fetcher.Fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{f: f, b: breaker.New(m.breakerFactory(f.Name()))})
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].f.Priority() < m.entries[j].f.Priority() })
}

// Result is the outcome of a GetDaily failover sweep.
type Result struct {
	Series *bar.Series
	Source string
}

// GetDaily iterates fetchers in priority order, skipping any whose breaker
// is OPEN, retrying transient failures, and returning the first non-empty
// success. If every fetcher fails or is open, it returns a zero Result and
// logs the last underlying error rather than raising.
func (m *Manager) GetDaily(ctx context.Context, symbol string, start, end time.Time, days int) Result {
	m.mu.RLock()
	entries := make([]entry, len(m.entries))
	copy(entries, m.entries)
	m.mu.RUnlock()

	var lastErr error
	for _, e := range entries {
		if err := e.b.Allow(); err != nil {
			m.logger.Printf("[FetchManager] skip %s: %v", e.f.Name(), err)
			continue
		}

		var series *bar.Series
		attemptErr := m.retry.Run(ctx, func(ctx context.Context) error {
			s, err := fetcher.GetDaily(ctx, e.f, symbol, start, end, days)
			if err != nil {
				return err
			}
			series = s
			return nil
		})

		if attemptErr != nil {
			e.b.RecordFailure()
			lastErr = attemptErr
			m.logger.Printf("[FetchManager] %s failed for %s: %v", e.f.Name(), symbol, attemptErr)
			continue
		}

		e.b.RecordSuccess()
		if series == nil || series.Len() == 0 {
			lastErr = errNoData
			continue
		}
		return Result{Series: series, Source: e.f.Name()}
	}

	if lastErr != nil {
		m.logger.Printf("[FetchManager] all fetchers exhausted for %s: %v", symbol, lastErr)
	}
	return Result{}
}

var errNoData = &emptyResultError{}

type emptyResultError struct{}

func (e *emptyResultError) Error() string { return "fetchmanager: empty result treated as failure" }
