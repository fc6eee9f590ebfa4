package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
)

// 需要 Redis 服务：DEMO_TEST_REDIS_ADDR=localhost:6379
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("DEMO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DEMO_TEST_REDIS_ADDR not set")
	}
	c, err := NewClient(context.Background(), cfgpkg.RedisConfig{Enabled: true, Addr: addr, DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClientDisabled(t *testing.T) {
	_, err := NewClient(context.Background(), cfgpkg.RedisConfig{})
	assert.Error(t, err)
}

func TestMatchCacheKey(t *testing.T) {
	c := NewMatchCache(nil, "demo:match:", time.Hour)
	assert.Equal(t, "demo:match:abc", c.key("abc"))
}

func TestMatchCacheRoundTrip(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	cache := NewMatchCache(client, "demo:test:"+t.Name()+":", time.Minute)

	type report struct {
		Map   string `json:"map"`
		Ticks int    `json:"ticks"`
	}
	var got report
	hit, err := cache.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "d1", report{Map: "koth_product", Ticks: 42}))
	hit, err = cache.Get(ctx, "d1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, report{Map: "koth_product", Ticks: 42}, got)

	require.NoError(t, client.Set(ctx, cache.key("broken"), "{", time.Minute).Err())
	hit, err = cache.Get(ctx, "broken", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
