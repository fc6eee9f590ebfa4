package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/demo-analyzer/internal/service"
)

// StatsSource 分析服务统计来源
type StatsSource interface {
	Stats() service.Stats
}

// AnalyzerChecker 解析槽位与依赖熔断检查器
type AnalyzerChecker struct {
	src StatsSource
}

// NewAnalyzerChecker 创建分析服务检查器
func NewAnalyzerChecker(src StatsSource) *AnalyzerChecker {
	return &AnalyzerChecker{src: src}
}

// Name 返回检查器名称
func (c *AnalyzerChecker) Name() string {
	return "analyzer"
}

// Check 槽位占满或依赖熔断时降级
func (c *AnalyzerChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	stats := c.src.Stats()
	open := service.BreakerOpen.String()

	status := StatusHealthy
	message := "ok"
	switch {
	case stats.Parser.Utilization >= 1:
		status = StatusDegraded
		message = "all parse slots busy"
	case stats.Cache.State == open:
		status = StatusDegraded
		message = "cache circuit open"
	case stats.Archive.State == open:
		status = StatusDegraded
		message = "archive circuit open"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"max":         stats.Parser.Max,
			"active":      stats.Parser.Active,
			"rejected":    stats.Parser.Rejected,
			"utilization": fmt.Sprintf("%.1f%%", stats.Parser.Utilization*100),
			"cache":       stats.Cache.State,
			"archive":     stats.Archive.State,
		},
		Latency: time.Since(start),
	}
}
