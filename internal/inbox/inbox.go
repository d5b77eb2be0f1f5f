package inbox

import (
	"context"
	"errors"

	"nboxie/backend/internal/domain"
)

var (
	// ErrAuthExpired 邮件服务商令牌失效，调用方应提示用户重新授权
	ErrAuthExpired = errors.New("gmail authentication expired, please sign in again")
	// ErrMessageNotFound 消息不存在
	ErrMessageNotFound = errors.New("message not found")
)

// Source 收件箱读取接口。扫描编排器只依赖该接口，
// Gmail 实现按请求构造，不做全局单例。
type Source interface {
	// ListMessageIDs 按查询条件列出最近的消息 ID，最多 max 条
	ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error)
	// GetMessage 拉取单封邮件的完整内容（含解码后的正文文本）
	GetMessage(ctx context.Context, id string) (*domain.EmailMessage, error)
}
