package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHTTPRoutes 注册详细健康检查路由 GET /health
func RegisterHTTPRoutes(r gin.IRouter, aggregator *Aggregator) {
	r.GET("/health", func(c *gin.Context) {
		report := aggregator.Report(c.Request.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		// Degraded 仍返回 200
		c.JSON(code, report)
	})
}
