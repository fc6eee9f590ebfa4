package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
)

// Client Redis 客户端封装
type Client struct {
	*redis.Client
}

// NewClient 创建 Redis 客户端并探活
func NewClient(ctx context.Context, cfg cfgpkg.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: rdb}, nil
}

// HealthCheck 健康检查
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
