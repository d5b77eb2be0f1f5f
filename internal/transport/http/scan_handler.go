package httptransport

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nboxie/backend/internal/auth"
	"nboxie/backend/internal/inbox"
	"nboxie/backend/internal/service"
)

// SourceFactory 用用户自己的令牌对构造请求级收件箱实例
type SourceFactory func(ctx context.Context, accessToken, refreshToken string) (inbox.Source, error)

// ScanHandler 收件箱扫描的 HTTP 处理器
type ScanHandler struct {
	scans       *service.ScanService
	authService *auth.Service
	newSource   SourceFactory
	log         *zap.Logger
}

// NewScanHandler 创建扫描处理器
func NewScanHandler(scans *service.ScanService, authService *auth.Service, newSource SourceFactory, log *zap.Logger) *ScanHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScanHandler{
		scans:       scans,
		authService: authService,
		newSource:   newSource,
		log:         log,
	}
}

// Scan 对当前用户的收件箱执行一次扫描。
//
// 收件箱实例在请求内用该用户的令牌对即时创建，扫描结束即丢弃，
// 令牌失效统一返回 401 提示重新授权。
// POST /v1/scan
func (h *ScanHandler) Scan(c *gin.Context) {
	userID := c.GetString("userID")

	accessToken, refreshToken, err := h.authService.GmailToken(userID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	src, err := h.newSource(c.Request.Context(), accessToken, refreshToken)
	if err != nil {
		h.log.Error("failed to create inbox source", zap.String("user_id", userID), zap.Error(err))
		InternalError(c)
		return
	}

	summary, err := h.scans.Scan(c.Request.Context(), src, userID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	Success(c, summary)
}
