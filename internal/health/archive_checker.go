package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/demo-analyzer/internal/storage/gormrepo"
)

// ArchiveSource 归档库概况来源
type ArchiveSource interface {
	Stats(ctx context.Context) (gormrepo.Stats, error)
}

// PoolUsage 返回连接池已借出连接数与上限
type PoolUsage func() (acquired, limit int32)

// ArchiveChecker 比赛归档检查器：查询 matches 表并观察连接池占用
type ArchiveChecker struct {
	src   ArchiveSource
	usage PoolUsage
}

// NewArchiveChecker usage 可为 nil
func NewArchiveChecker(src ArchiveSource, usage PoolUsage) *ArchiveChecker {
	return &ArchiveChecker{src: src, usage: usage}
}

func (c *ArchiveChecker) Name() string {
	return "archive"
}

// Check 归档不可用时分析仍可进行，只记为降级
func (c *ArchiveChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	st, err := c.src.Stats(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("archive query failed: %v", err),
			Latency: time.Since(start),
		}
	}

	status := StatusHealthy
	message := "ok"
	details := map[string]any{"matches": st.Matches}
	if !st.LastArchived.IsZero() {
		details["last_archived"] = st.LastArchived.UTC().Format(time.RFC3339)
	}
	if c.usage != nil {
		acquired, limit := c.usage()
		utilization := 0.0
		if limit > 0 {
			utilization = float64(acquired) / float64(limit)
		}
		details["acquired_conns"] = acquired
		details["max_conns"] = limit
		details["utilization"] = fmt.Sprintf("%.1f%%", utilization*100)
		if utilization > 0.9 {
			status = StatusDegraded
			message = "connection pool near limit"
		}
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
