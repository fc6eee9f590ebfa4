package app

import (
	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/demo-analyzer/internal/health"
	"github.com/taoyao-code/demo-analyzer/internal/service"
)

// NewHealthAggregator 创建健康检查聚合器，初始只包含分析服务检查
func NewHealthAggregator(analyzer *service.Analyzer) *health.Aggregator {
	return health.NewAggregator(
		health.NewAnalyzerChecker(analyzer),
	)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r gin.IRouter, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
