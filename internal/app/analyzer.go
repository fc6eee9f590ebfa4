package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
	"github.com/taoyao-code/demo-analyzer/internal/metrics"
	"github.com/taoyao-code/demo-analyzer/internal/service"
	"github.com/taoyao-code/demo-analyzer/internal/storage/gormrepo"
	redisstorage "github.com/taoyao-code/demo-analyzer/internal/storage/redis"
)

// NewAnalyzer 组装分析服务；缓存与归档均可缺省
func NewAnalyzer(cfg *cfgpkg.Config, cache *redisstorage.MatchCache, repo *gormrepo.Repository, log *zap.Logger, appm *metrics.AppMetrics) *service.Analyzer {
	opts := service.Options{
		ParseAll:      cfg.Parser.ParseAll,
		MaxDemoBytes:  cfg.Parser.MaxDemoBytes,
		MaxConcurrent: cfg.Parser.MaxConcurrent,
	}
	// 避免把 nil 指针装进接口
	var c service.Cache
	if cache != nil {
		c = cache
	}
	var a service.Archive
	if repo != nil {
		a = repo
	}
	return service.NewAnalyzer(opts, c, a, log.Named("analyzer"), appm)
}
