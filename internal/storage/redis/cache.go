package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MatchCache 按录像摘要缓存分析报告（JSON）
type MatchCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewMatchCache 创建缓存；ttl 为 0 表示不过期
func NewMatchCache(client redis.Cmdable, prefix string, ttl time.Duration) *MatchCache {
	return &MatchCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *MatchCache) key(digest string) string {
	return c.prefix + digest
}

// Get 读取并解码缓存，未命中返回 false
func (c *MatchCache) Get(ctx context.Context, digest string, v any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(digest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", digest, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// 结构变更后的旧数据按未命中处理
		_ = c.client.Del(ctx, c.key(digest)).Err()
		return false, nil
	}
	return true, nil
}

// Set 编码并写入缓存
func (c *MatchCache) Set(ctx context.Context, digest string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", digest, err)
	}
	if err := c.client.Set(ctx, c.key(digest), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", digest, err)
	}
	return nil
}
