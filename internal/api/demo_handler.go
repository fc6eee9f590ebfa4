package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/demo-analyzer/internal/demo"
	"github.com/taoyao-code/demo-analyzer/internal/parser"
	"github.com/taoyao-code/demo-analyzer/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// DemoService 录像分析服务
type DemoService interface {
	Analyze(ctx context.Context, data []byte) (*service.Report, error)
	Lookup(ctx context.Context, digest string) (*service.Report, error)
	Recent(ctx context.Context, mapName string, limit, offset int) ([]service.Summary, error)
	Stats() service.Stats
}

// DemoHandler 录像上传与查询
type DemoHandler struct {
	svc      DemoService
	maxBytes int64
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDemoHandler 创建处理器；maxBytes 限制请求体大小，timeout 限制单次分析时长
func NewDemoHandler(svc DemoService, maxBytes int64, timeout time.Duration, logger *zap.Logger) *DemoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemoHandler{svc: svc, maxBytes: maxBytes, timeout: timeout, logger: logger}
}

// Upload 上传并分析录像，请求体为原始 .dem 或 zstd 压缩内容
func (h *DemoHandler) Upload(c *gin.Context) {
	body := c.Request.Body
	if h.maxBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too_large", "message": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "empty body"})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.svc.Analyze(ctx, data)
	if err != nil {
		code := statusFor(err)
		h.logger.Warn("demo analysis failed",
			zap.Int("bytes", len(data)),
			zap.Int("status", code),
			zap.Error(err))
		c.JSON(code, gin.H{"error": http.StatusText(code), "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Get 按摘要查询分析结果
func (h *DemoHandler) Get(c *gin.Context) {
	report, err := h.svc.Lookup(c.Request.Context(), c.Param("digest"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("lookup failed", zap.String("digest", c.Param("digest")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// List 分页列出归档，支持 map、limit、offset 参数
func (h *DemoHandler) List(c *gin.Context) {
	limit := defaultListLimit
	offset := 0
	if v := c.Query("limit"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil && vv > 0 {
			limit = min(vv, maxListLimit)
		}
	}
	if v := c.Query("offset"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil && vv >= 0 {
			offset = vv
		}
	}

	list, err := h.svc.Recent(c.Request.Context(), c.Query("map"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": list, "limit": limit, "offset": offset})
}

// Stats 并发解析与依赖熔断统计
func (h *DemoHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

// statusFor 分析错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, demo.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case parser.IsUnsupported(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
