package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/taoyao-code/demo-analyzer/internal/api"
	"github.com/taoyao-code/demo-analyzer/internal/api/middleware"
	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
	"github.com/taoyao-code/demo-analyzer/internal/httpserver"
	"github.com/taoyao-code/demo-analyzer/internal/service"
)

// NewHTTPServer 根据配置创建 HTTP 服务器
func NewHTTPServer(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, readyFn httpserver.ReadyFunc) *httpserver.Server {
	return httpserver.New(cfg, metricsPath, metricsHandler, readyFn)
}

// RegisterDemoRoutes 注册录像上传与查询路由
func RegisterDemoRoutes(srv *httpserver.Server, cfg *cfgpkg.Config, analyzer *service.Analyzer, log *zap.Logger) {
	handler := api.NewDemoHandler(analyzer, cfg.Parser.MaxDemoBytes, cfg.Parser.Timeout, log)
	authCfg := middleware.AuthConfig{
		APIKeys: cfg.HTTP.APIKeys,
		Enabled: len(cfg.HTTP.APIKeys) > 0,
	}
	rateCfg := middleware.RateLimitConfig{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}
	api.RegisterDemoRoutes(srv.Router(), handler, authCfg, rateCfg, log)
}
