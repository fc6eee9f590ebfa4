// Package middleware 提供HTTP中间件
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthConfig API认证配置
type AuthConfig struct {
	APIKeys []string `json:"api_keys"`
	Enabled bool     `json:"enabled"`
}

// APIKeyAuth API Key认证中间件
//
// 使用方式:
//  1. Header: X-API-Key: sk_live_xxxx
//  2. Header: Authorization: Bearer sk_live_xxxx
func APIKeyAuth(cfg AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			auth := c.GetHeader("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			logger.Warn("api auth: missing api key",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("remote_addr", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "请在Header中提供 X-API-Key 或 Authorization: Bearer <token>",
			})
			return
		}

		if !validKey(cfg.APIKeys, apiKey) {
			logger.Warn("api auth: invalid api key",
				zap.String("path", c.Request.URL.Path),
				zap.String("remote_addr", c.ClientIP()),
				zap.String("api_key_prefix", maskAPIKey(apiKey)),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "无效的API Key",
			})
			return
		}

		c.Set("api_key", maskAPIKey(apiKey))
		c.Next()
	}
}

func validKey(keys []string, key string) bool {
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// maskAPIKey 脱敏API Key（仅显示前4位和后4位）
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
