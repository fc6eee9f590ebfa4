package health

import (
	"context"
	"sync"
	"time"
)

// defaultCheckTimeout 单个检查器的超时
const defaultCheckTimeout = 2 * time.Second

// Aggregator 健康检查聚合器
type Aggregator struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewAggregator 创建聚合器
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{
		checkers: checkers,
		timeout:  defaultCheckTimeout,
	}
}

// AddChecker 添加检查器
func (a *Aggregator) AddChecker(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checker)
}

// CheckAll 并发执行所有健康检查
func (a *Aggregator) CheckAll(ctx context.Context) map[string]CheckResult {
	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make(map[string]CheckResult, len(checkers))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := c.Check(ctx)
			resultsMu.Lock()
			results[c.Name()] = result
			resultsMu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// overall 任一 Unhealthy 即 Unhealthy，其次 Degraded
func overall(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// OverallStatus 计算总体健康状态
func (a *Aggregator) OverallStatus(ctx context.Context) Status {
	return overall(a.CheckAll(ctx))
}

// Ready 就绪探针：Degraded 仍就绪，只有 Unhealthy 不就绪
func (a *Aggregator) Ready(ctx context.Context) bool {
	return a.OverallStatus(ctx) != StatusUnhealthy
}

// Report 生成健康报告
func (a *Aggregator) Report(ctx context.Context) HealthReport {
	results := a.CheckAll(ctx)
	return HealthReport{
		Status:    overall(results),
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// HealthReport 健康报告
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}
