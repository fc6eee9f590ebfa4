package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/demo-analyzer/internal/service"
	"github.com/taoyao-code/demo-analyzer/internal/storage/gormrepo"
)

// mockChecker 模拟检查器
type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) CheckResult {
	return CheckResult{
		Status:  m.status,
		Message: "mock",
		Latency: time.Millisecond,
	}
}

func TestAggregator(t *testing.T) {
	tests := []struct {
		name   string
		status []Status
		want   Status
		ready  bool
	}{
		{"全部健康", []Status{StatusHealthy, StatusHealthy}, StatusHealthy, true},
		{"部分降级", []Status{StatusHealthy, StatusDegraded}, StatusDegraded, true},
		{"部分不健康", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy, false},
		{"没有检查器", nil, StatusHealthy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for i, s := range tt.status {
				agg.AddChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}
			ctx := context.Background()
			assert.Equal(t, tt.want, agg.OverallStatus(ctx))
			assert.Equal(t, tt.ready, agg.Ready(ctx))
			assert.Len(t, agg.CheckAll(ctx), len(tt.status))
		})
	}
}

type fakeRedis struct {
	err   error
	stats redis.PoolStats
}

func (f *fakeRedis) HealthCheck(context.Context) error { return f.err }
func (f *fakeRedis) PoolStats() *redis.PoolStats     { return &f.stats }

func TestRedisChecker(t *testing.T) {
	ctx := context.Background()
	result := NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 10, IdleConns: 8, Hits: 100}}).Check(ctx)
	assert.Equal(t, StatusHealthy, result.Status)

	result = NewRedisChecker(&fakeRedis{err: errors.New("dial tcp: refused")}).Check(ctx)
	assert.Equal(t, StatusDegraded, result.Status)
	assert.Contains(t, result.Message, "refused")

	result = NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 10, IdleConns: 0}}).Check(ctx)
	assert.Equal(t, StatusDegraded, result.Status)
}

type fakeArchive struct {
	stats gormrepo.Stats
	err   error
}

func (f *fakeArchive) Stats(context.Context) (gormrepo.Stats, error) { return f.stats, f.err }

func TestArchiveChecker(t *testing.T) {
	ctx := context.Background()
	last := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	usage := func(acquired int32) PoolUsage {
		return func() (int32, int32) { return acquired, 10 }
	}

	result := NewArchiveChecker(&fakeArchive{stats: gormrepo.Stats{Matches: 3, LastArchived: last}}, usage(2)).Check(ctx)
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, int64(3), result.Details["matches"])
	assert.Equal(t, "2026-10-01T12:00:00Z", result.Details["last_archived"])
	assert.Equal(t, "20.0%", result.Details["utilization"])

	// 表缺失或连接失败
	result = NewArchiveChecker(&fakeArchive{err: errors.New(`relation "matches" does not exist`)}, nil).Check(ctx)
	assert.Equal(t, StatusDegraded, result.Status)
	assert.Contains(t, result.Message, "matches")

	result = NewArchiveChecker(&fakeArchive{}, usage(10)).Check(ctx)
	assert.Equal(t, StatusDegraded, result.Status)
	assert.NotContains(t, result.Details, "last_archived")
}

type fakeStats service.Stats

func (f fakeStats) Stats() service.Stats { return service.Stats(f) }

func TestAnalyzerChecker(t *testing.T) {
	ctx := context.Background()
	closed := service.BreakerStats{State: "closed"}
	tests := []struct {
		name  string
		stats fakeStats
		want  Status
	}{
		{"空闲", fakeStats{Parser: service.LimiterStats{Max: 4, Active: 1, Utilization: 0.25}, Cache: closed, Archive: closed}, StatusHealthy},
		{"槽位占满", fakeStats{Parser: service.LimiterStats{Max: 4, Active: 4, Utilization: 1}, Cache: closed, Archive: closed}, StatusDegraded},
		{"缓存熔断", fakeStats{Cache: service.BreakerStats{State: "open"}, Archive: closed}, StatusDegraded},
		{"归档熔断", fakeStats{Cache: closed, Archive: service.BreakerStats{State: "open"}}, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewAnalyzerChecker(tt.stats).Check(ctx).Status)
		})
	}

	analyzer := service.NewAnalyzer(service.Options{MaxConcurrent: 2}, nil, nil, nil, nil)
	result := NewAnalyzerChecker(analyzer).Check(ctx)
	require.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, 2, result.Details["max"])
}

func TestHealthRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	agg := NewAggregator(&mockChecker{"redis", StatusDegraded})
	RegisterHTTPRoutes(r, agg)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"degraded"`)

	agg.AddChecker(&mockChecker{"parser", StatusUnhealthy})
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
