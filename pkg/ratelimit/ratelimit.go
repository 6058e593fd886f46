// 文件: pkg/ratelimit/ratelimit.go
// 限速器：每数据源节流 + 抖动 sleep
//
// 每个数据源拥有自己的 Limiter：一个令牌桶控制每分钟请求数，
// 外加调用之间的均匀随机延迟，避免对外部数据源造成突发压力。

package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Config 描述一个数据源的限速参数。
type Config struct {
	// MinDelay/MaxDelay 是两次调用之间的均匀随机延迟窗口。
	MinDelay time.Duration
	MaxDelay time.Duration
	// PerMinute 是该数据源声明的配额；0 表示不限额，只做抖动 sleep。
	PerMinute int
}

// Limiter 是单个数据源的限速器：令牌桶 + 抖动 sleep，线程安全。
type Limiter struct {
	cfg Config

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
	lastCall time.Time
}

// New 创建一个新的限速器。
func New(cfg Config) *Limiter {
	capacity := float64(cfg.PerMinute)
	if capacity <= 0 {
		capacity = 0
	}
	return &Limiter{
		cfg:      cfg,
		tokens:   capacity,
		lastFill: time.Now(),
	}
}

// Pace 阻塞调用方，直到令牌桶放行一个令牌，且距离上次调用
// 至少经过了 [MinDelay, MaxDelay] 中的一个随机值。尊重 ctx 取消。
func (l *Limiter) Pace(ctx context.Context) error {
	if err := l.waitToken(ctx); err != nil {
		return err
	}
	return l.waitJitter(ctx)
}

func (l *Limiter) waitToken(ctx context.Context) error {
	if l.cfg.PerMinute <= 0 {
		return nil
	}
	for {
		l.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(l.lastFill).Seconds()
		l.lastFill = now
		refill := elapsed * float64(l.cfg.PerMinute) / 60.0
		l.tokens += refill
		if cap := float64(l.cfg.PerMinute); l.tokens > cap {
			l.tokens = cap
		}
		if l.tokens >= 1.0 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := time.Duration((1.0 - l.tokens) / float64(l.cfg.PerMinute) * float64(time.Minute))
		l.mu.Unlock()
		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *Limiter) waitJitter(ctx context.Context) error {
	l.mu.Lock()
	since := time.Since(l.lastCall)
	minGap := l.cfg.MinDelay + time.Duration(rand.Float64()*float64(l.cfg.MaxDelay-l.cfg.MinDelay))
	l.mu.Unlock()

	if since >= minGap {
		l.recordCall()
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(minGap - since):
	}
	l.recordCall()
	return nil
}

func (l *Limiter) recordCall() {
	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()
}

// Registry keeps one Limiter per data-source id, created lazily.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
	factory  func(sourceID string) Config
}

// NewRegistry builds a Registry that lazily constructs a Limiter for a
// source id using factory, the first time that source is paced.
func NewRegistry(factory func(sourceID string) Config) *Registry {
	return &Registry{limiters: make(map[string]*Limiter), factory: factory}
}

// Pace paces the given source, constructing its Limiter on first use.
func (r *Registry) Pace(ctx context.Context, sourceID string) error {
	r.mu.Lock()
	l, ok := r.limiters[sourceID]
	if !ok {
		l = New(r.factory(sourceID))
		r.limiters[sourceID] = l
	}
	r.mu.Unlock()
	return l.Pace(ctx)
}
