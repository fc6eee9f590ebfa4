package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/x", handlers...)
	return r
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKeys: []string{"sk_live_12345678"}}
	r := newRouter(APIKeyAuth(cfg, zap.NewNop()))

	tests := []struct {
		name   string
		header map[string]string
		code   int
	}{
		{"缺少key", nil, http.StatusUnauthorized},
		{"无效key", map[string]string{"X-API-Key": "nope"}, http.StatusForbidden},
		{"X-API-Key", map[string]string{"X-API-Key": "sk_live_12345678"}, http.StatusOK},
		{"Bearer", map[string]string{"Authorization": "Bearer sk_live_12345678"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	r := newRouter(APIKeyAuth(AuthConfig{}, zap.NewNop()))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk_l****5678", maskAPIKey("sk_live_12345678"))
}

func TestRateLimit(t *testing.T) {
	l := NewRateLimiter(0.001, 2)
	r := newRouter(RateLimit(l))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	stats := l.Stats()
	assert.Equal(t, int64(2), stats.AllowedTotal)
	assert.Equal(t, int64(1), stats.RejectedTotal)
	assert.Equal(t, 2, stats.Burst)
}

func TestRateLimitNil(t *testing.T) {
	r := newRouter(RateLimit(nil))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
