package middleware

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// RateLimiter 基于Token Bucket的请求限流器，所有客户端共享一个桶
type RateLimiter struct {
	limiter       *rate.Limiter
	allowedCount  atomic.Int64
	rejectedCount atomic.Int64
}

// NewRateLimiter 创建速率限流器
// requestsPerSecond: 稳定速率；burst: 突发容量（桶的大小）
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow 检查是否允许请求（非阻塞）
func (l *RateLimiter) Allow() bool {
	if l.limiter.Allow() {
		l.allowedCount.Add(1)
		return true
	}
	l.rejectedCount.Add(1)
	return false
}

// Stats 获取统计信息
func (l *RateLimiter) Stats() RateLimiterStats {
	return RateLimiterStats{
		RatePerSecond: float64(l.limiter.Limit()),
		Burst:         l.limiter.Burst(),
		AllowedTotal:  l.allowedCount.Load(),
		RejectedTotal: l.rejectedCount.Load(),
	}
}

// RateLimiterStats 速率限流器统计信息
type RateLimiterStats struct {
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
	AllowedTotal  int64   `json:"allowed_total"`
	RejectedTotal int64   `json:"rejected_total"`
}

// RateLimit 限流中间件，超出时返回 429
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l != nil && !l.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		c.Next()
	}
}
