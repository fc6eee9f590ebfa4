package service

import (
	"errors"
	"sync"
	"time"
)

// BreakerState 熔断器状态
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // 正常，调用直接通过
	BreakerOpen                         // 熔断，跳过调用
	BreakerHalfOpen                     // 冷却结束，放行少量试探调用
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen 依赖熔断中，调用被跳过
var ErrBreakerOpen = errors.New("dependency circuit open")

const (
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
	halfOpenMax          = 2
)

// Breaker 缓存、归档等可选依赖的熔断器：连续失败 threshold 次后跳过 cooldown
// 半开时最多放行 halfOpenMax 个试探调用（含进行中的），全部成功后闭合
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	inFlight  int
	successes int
	halfOpenGen  uint64
	openedAt  time.Time
	tripCount int64

	threshold int
	cooldown  time.Duration
	now       func() time.Time
	onChange  func(from, to BreakerState)
}

// NewBreaker 创建熔断器，非正参数取默认值
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = defaultBreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Call 在熔断器保护下执行 fn；熔断中或试探名额已满时返回 ErrBreakerOpen
func (b *Breaker) Call(fn func() error) error {
	gen, ok := b.allow()
	if !ok {
		return ErrBreakerOpen
	}
	err := fn()
	b.record(gen, err)
	return err
}

// allow 放行时返回所属半开代号，闭合状态下为 0
func (b *Breaker) allow() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return 0, false
		}
		b.halfOpenGen++
		b.inFlight, b.successes = 0, 0
		b.transition(BreakerHalfOpen)
		fallthrough
	case BreakerHalfOpen:
		if b.inFlight+b.successes >= halfOpenMax {
			return 0, false
		}
		b.inFlight++
		return b.halfOpenGen, true
	default:
		return 0, true
	}
}

func (b *Breaker) record(gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BreakerClosed {
		// 只认当前半开代的试探结果
		if b.state != BreakerHalfOpen || gen != b.halfOpenGen {
			return
		}
		b.inFlight--
		if err != nil {
			b.trip()
			return
		}
		b.successes++
		if b.successes >= halfOpenMax {
			b.failures = 0
			b.transition(BreakerClosed)
		}
		return
	}

	if err != nil {
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
		return
	}
	b.failures = 0
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.failures = 0
	b.tripCount++
	b.transition(BreakerOpen)
}

func (b *Breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.onChange != nil {
		go b.onChange(from, to)
	}
}

// OnStateChange 设置状态变化回调（异步执行）
func (b *Breaker) OnStateChange(fn func(from, to BreakerState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// State 当前状态
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats 熔断器统计
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{State: b.state.String(), Failures: b.failures, TripCount: b.tripCount}
}

// BreakerStats 熔断器统计信息
type BreakerStats struct {
	State     string `json:"state"`
	Failures  int    `json:"failures"`
	TripCount int64  `json:"trip_count"`
}
