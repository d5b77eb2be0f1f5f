package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"nboxie/backend/internal/domain"
)

// GmailCredentials OAuth 应用凭据
type GmailCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GmailSource 基于 Gmail API 的收件箱实现。
// 按请求构造：每次扫描用调用者自己的令牌对新建实例，用完即弃。
type GmailSource struct {
	svc       *gmail.Service
	extractor *Extractor
	limiter   *rate.Limiter
	log       *zap.Logger
}

// NewGmailSource 用指定用户的令牌对创建 Gmail 收件箱
func NewGmailSource(ctx context.Context, creds GmailCredentials, accessToken, refreshToken string, extractor *Extractor, log *zap.Logger) (*GmailSource, error) {
	if log == nil {
		log = zap.NewNop()
	}

	oauthCfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURL,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailSource{
		svc:       svc,
		extractor: extractor,
		// Gmail API 配额约为每用户 250 quota units/s，限速留足余量
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		log:     log,
	}, nil
}

// ListMessageIDs 实现 Source 接口
func (g *GmailSource) ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := g.svc.Users.Messages.List("me").Q(query).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, g.wrapError(err, "failed to list messages")
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		if msg.Id != "" {
			ids = append(ids, msg.Id)
		}
	}
	return ids, nil
}

// GetMessage 实现 Source 接口
func (g *GmailSource) GetMessage(ctx context.Context, id string) (*domain.EmailMessage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	msg, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, g.wrapError(err, fmt.Sprintf("failed to get message %s", id))
	}

	getHeader := func(name string) string {
		if msg.Payload == nil {
			return ""
		}
		for _, h := range msg.Payload.Headers {
			if strings.EqualFold(h.Name, name) {
				return h.Value
			}
		}
		return ""
	}

	to := []string{}
	for _, addr := range strings.Split(getHeader("To"), ",") {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			to = append(to, trimmed)
		}
	}

	return &domain.EmailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  getHeader("Subject"),
		From:     getHeader("From"),
		To:       to,
		Date:     time.UnixMilli(msg.InternalDate),
		Snippet:  msg.Snippet,
		Body:     g.extractor.Extract(msg.Payload),
		Labels:   msg.LabelIds,
	}, nil
}

// wrapError 统一包装 Gmail API 错误，401 映射为重新授权信号
func (g *GmailSource) wrapError(err error, msg string) error {
	if apiErr, ok := err.(*googleapi.Error); ok {
		if apiErr.Code == 401 {
			return ErrAuthExpired
		}
		if apiErr.Code == 404 {
			return ErrMessageNotFound
		}
	}
	if strings.Contains(err.Error(), "Invalid Credentials") {
		return ErrAuthExpired
	}
	return fmt.Errorf("%s: %w", msg, err)
}
