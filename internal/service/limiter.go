package service

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusy 等待解析许可超时
var ErrBusy = errors.New("analyzer busy")

// Limiter 并发解析限流器（基于信号量）
type Limiter struct {
	sem           chan struct{}
	max           int
	activeCount   atomic.Int64
	rejectedCount atomic.Int64
}

// NewLimiter 创建限流器，max <= 0 时取 1
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		max = 1
	}
	return &Limiter{sem: make(chan struct{}, max), max: max}
}

// Acquire 获取解析许可，ctx 结束前拿不到许可返回 ErrBusy
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		l.activeCount.Add(1)
		return nil
	case <-ctx.Done():
		l.rejectedCount.Add(1)
		return ErrBusy
	}
}

// Release 释放许可
func (l *Limiter) Release() {
	select {
	case <-l.sem:
		l.activeCount.Add(-1)
	default:
	}
}

// Stats 限流器统计
func (l *Limiter) Stats() LimiterStats {
	active := int(l.activeCount.Load())
	return LimiterStats{
		Max:         l.max,
		Active:      active,
		Rejected:    l.rejectedCount.Load(),
		Utilization: float64(active) / float64(l.max),
	}
}

// LimiterStats 限流器统计信息
type LimiterStats struct {
	Max         int     `json:"max"`
	Active      int     `json:"active"`
	Rejected    int64   `json:"rejected"`
	Utilization float64 `json:"utilization"` // 0.0 - 1.0
}
