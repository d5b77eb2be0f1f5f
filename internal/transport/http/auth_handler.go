package httptransport

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nboxie/backend/internal/auth"
	"nboxie/backend/internal/auth/jwt"
)

// AuthHandler 认证相关的 HTTP 处理器
type AuthHandler struct {
	authService *auth.Service
	jwtManager  *jwt.Manager
	log         *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *auth.Service, jwtManager *jwt.Manager, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		authService: authService,
		jwtManager:  jwtManager,
		log:         log,
	}
}

// registerRequest 注册请求体
type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

// loginRequest 登录请求体，identifier 支持邮箱或用户名
type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// refreshRequest 刷新令牌请求体
type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// gmailTokenRequest Gmail 令牌保存请求体
type gmailTokenRequest struct {
	AccessToken  string `json:"accessToken" binding:"required"`
	RefreshToken string `json:"refreshToken"`
}

// userResponse 用户信息响应，不含任何令牌字段
type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Register 用户注册
// POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.authService.Register(auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		h.log.Error("failed to generate token pair", zap.Error(err))
		InternalError(c)
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID))
	Created(c, gin.H{
		"user":   userResponse{ID: user.ID, Email: user.Email, Username: user.Username},
		"tokens": tokens,
	})
}

// Login 用户登录
// POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.authService.Login(auth.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		h.log.Error("failed to generate token pair", zap.Error(err))
		InternalError(c)
		return
	}

	Success(c, gin.H{
		"user":   userResponse{ID: user.ID, Email: user.Email, Username: user.Username},
		"tokens": tokens,
	})
}

// Refresh 使用刷新令牌换取新的访问令牌
// POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	accessToken, err := h.jwtManager.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		Unauthorized(c, "刷新令牌无效或已过期")
		return
	}

	Success(c, gin.H{"accessToken": accessToken})
}

// Me 获取当前用户信息
// GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	Success(c, gin.H{
		"user":        userResponse{ID: user.ID, Email: user.Email, Username: user.Username},
		"gmailLinked": user.HasGmailToken(),
		"lastSyncAt":  user.LastSyncAt,
		"lastLoginAt": user.LastLoginAt,
	})
}

// SaveGmailToken 保存当前用户的 Gmail 令牌对
// PUT /v1/auth/gmail-token
func (h *AuthHandler) SaveGmailToken(c *gin.Context) {
	userID := c.GetString("userID")

	var req gmailTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	if err := h.authService.SaveGmailToken(userID, req.AccessToken, req.RefreshToken); err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	h.log.Info("gmail token saved", zap.String("user_id", userID))
	Success(c, nil)
}
