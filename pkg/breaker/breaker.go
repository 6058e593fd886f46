// 文件: pkg/breaker/breaker.go
// 熔断器：三态（CLOSED/OPEN/HALF_OPEN）保护任意可调用资源
//
// 移植自 utils/circuit_breaker.py 的状态机，遵循 other_examples 中
// rate_limiter lesson 的 Go 惯用写法（状态、计数与时间戳都由同一把互斥量保护）。

package breaker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State 是熔断器的三态之一。
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	}
	return "UNKNOWN"
}

// ErrOpen 在熔断器处于 OPEN 状态时由 Allow/Call 返回。
var ErrOpen = errors.New("breaker: circuit open")

// OpenError 携带剩余冷却时间，满足 §4.2 "carrying remaining-cooldown" 的要求。
type OpenError struct {
	Name      string
	Remaining time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("breaker[%s]: circuit open, remaining cooldown %s", e.Name, e.Remaining)
}

func (e *OpenError) Unwrap() error { return ErrOpen }

// Config 配置熔断阈值。
type Config struct {
	Name              string
	FailureThreshold  int           // 连续失败达到此值 CLOSED -> OPEN
	Timeout           time.Duration // OPEN 状态持续此时长后尝试 HALF_OPEN
	HalfOpenMaxCalls  int           // HALF_OPEN 下连续成功达到此值 -> CLOSED
}

// Breaker 是单个受保护资源的三态熔断器，线程安全。
type Breaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	failureCount    int
	halfOpenSuccess int
	lastFailure     time.Time
}

// New 创建一个初始状态为 CLOSED 的熔断器。
func New(cfg Config) *Breaker {
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	return &Breaker{cfg: cfg, state: Closed}
}

// Name 返回熔断器名称，用于日志与可观测性。
func (b *Breaker) Name() string { return b.cfg.Name }

// State 返回当前状态，必要时先执行 OPEN -> HALF_OPEN 的超时迁移。
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionToHalfOpenLocked()
	return b.state
}

func (b *Breaker) maybeTransitionToHalfOpenLocked() {
	if b.state == Open && time.Since(b.lastFailure) >= b.cfg.Timeout {
		b.state = HalfOpen
		b.halfOpenSuccess = 0
	}
}

// Allow 报告一次调用是否应当被放行；OPEN 时返回 *OpenError。
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionToHalfOpenLocked()

	if b.state == Open {
		remaining := b.cfg.Timeout - time.Since(b.lastFailure)
		if remaining < 0 {
			remaining = 0
		}
		return &OpenError{Name: b.cfg.Name, Remaining: remaining}
	}
	return nil
}

// RecordSuccess 记录一次成功调用。
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.halfOpenSuccess++
		if b.halfOpenSuccess >= b.cfg.HalfOpenMaxCalls {
			b.state = Closed
			b.failureCount = 0
			b.halfOpenSuccess = 0
		}
	case Closed:
		if b.failureCount > 0 {
			b.failureCount--
		}
	}
}

// RecordFailure 记录一次失败调用。
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()
	switch b.state {
	case HalfOpen:
		b.state = Open
	case Closed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = Open
		}
	}
}

// Call 用熔断器保护一次调用：OPEN 时不执行 fn 直接返回 *OpenError；
// 否则执行 fn 并据其结果记录成功/失败。
func (b *Breaker) Call(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// Stats 是熔断器状态快照，供可观测性使用（§4 原始实现的 get_stats 对应物）。
type Stats struct {
	Name         string
	State        State
	FailureCount int
	LastFailure  time.Time
}

// Stats 返回当前统计快照。
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:         b.cfg.Name,
		State:        b.state,
		FailureCount: b.failureCount,
		LastFailure:  b.lastFailure,
	}
}

// Reset 强制将熔断器恢复到初始 CLOSED 状态。
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failureCount = 0
	b.halfOpenSuccess = 0
	b.lastFailure = time.Time{}
}
