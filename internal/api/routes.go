package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/demo-analyzer/internal/api/middleware"
)

// RegisterDemoRoutes 注册录像分析路由；上传接口单独限流
func RegisterDemoRoutes(
	r gin.IRouter,
	handler *DemoHandler,
	authCfg middleware.AuthConfig,
	rateCfg middleware.RateLimitConfig,
	logger *zap.Logger,
) {
	if r == nil || handler == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api := r.Group("/api")
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled")
	}

	var limiter *middleware.RateLimiter
	if rateCfg.Enabled {
		limiter = middleware.NewRateLimiter(rateCfg.RequestsPerSecond, rateCfg.Burst)
	}

	api.POST("/demos", middleware.RateLimit(limiter), handler.Upload)
	api.GET("/demos", handler.List)
	api.GET("/demos/:digest", handler.Get)
	api.GET("/stats", handler.Stats)

	logger.Info("demo routes registered", zap.Int("endpoints", 4))
}
