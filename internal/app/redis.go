package app

import (
	"context"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
	"github.com/taoyao-code/demo-analyzer/internal/health"
	redisstorage "github.com/taoyao-code/demo-analyzer/internal/storage/redis"
)

// NewRedisClient 创建结果缓存客户端，未启用时返回 nil
func NewRedisClient(ctx context.Context, cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, analysis results will not be cached")
		return nil, nil
	}

	client, err := redisstorage.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Duration("ttl", cfg.TTL))
	return client, nil
}

// NewMatchCache 基于客户端的分析结果缓存
func NewMatchCache(client *redisstorage.Client, cfg cfgpkg.RedisConfig) *redisstorage.MatchCache {
	return redisstorage.NewMatchCache(client, cfg.KeyPrefix, cfg.TTL)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
