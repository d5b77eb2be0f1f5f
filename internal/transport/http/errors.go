package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nboxie/backend/internal/auth"
	"nboxie/backend/internal/inbox"
	"nboxie/backend/internal/service"
)

// handleServiceError 将服务层错误映射为统一响应。
// 令牌失效的重新授权场景单独透出，其余内部错误一律收敛为 500。
func handleServiceError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, inbox.ErrAuthExpired), errors.Is(err, auth.ErrNoGmailToken):
		Unauthorized(c, "Gmail 授权已失效，请重新登录授权")
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(c, "用户名或密码错误")
	case errors.Is(err, auth.ErrUserInactive):
		Forbidden(c, "账号已被禁用")
	case errors.Is(err, auth.ErrInvalidEmail):
		BadRequest(c, "邮箱格式不正确")
	case errors.Is(err, auth.ErrEmailExists):
		Conflict(c, "邮箱已被注册")
	case errors.Is(err, auth.ErrUserNotFound):
		NotFound(c, "用户不存在")
	case errors.Is(err, service.ErrDealNotFound):
		NotFound(c, "合作记录不存在")
	case errors.Is(err, service.ErrNotDealOwner):
		Forbidden(c, "无权操作该记录")
	case errors.Is(err, service.ErrInvalidStatus):
		BadRequest(c, "非法的状态值")
	default:
		log.Error("unhandled service error", zap.Error(err))
		InternalError(c)
	}
}
