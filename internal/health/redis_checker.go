package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPinger 结果缓存客户端
type RedisPinger interface {
	HealthCheck(ctx context.Context) error
	PoolStats() *redis.PoolStats
}

// RedisChecker 结果缓存健康检查器
type RedisChecker struct {
	client RedisPinger
}

// NewRedisChecker 创建Redis健康检查器
func NewRedisChecker(client RedisPinger) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check 缓存不可用时每次都会重新解析，只记为降级
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.client.PoolStats()
	utilization := 0.0
	if stats.TotalConns > 0 {
		utilization = float64(stats.TotalConns-stats.IdleConns) / float64(stats.TotalConns)
	}

	status := StatusHealthy
	message := "ok"
	if utilization > 0.9 {
		status = StatusDegraded
		message = "connection pool near limit"
	}
	if stats.Timeouts > 0 && stats.Timeouts*10 > stats.Hits {
		status = StatusDegraded
		message = "frequent pool timeouts"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"stale_conns": stats.StaleConns,
			"hits":        stats.Hits,
			"misses":      stats.Misses,
			"timeouts":    stats.Timeouts,
			"utilization": fmt.Sprintf("%.1f%%", utilization*100),
		},
		Latency: time.Since(start),
	}
}
