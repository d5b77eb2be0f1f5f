package httptransport

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/service"
)

// DealHandler 合作记录的 HTTP 处理器
type DealHandler struct {
	deals *service.DealService
	log   *zap.Logger
}

// NewDealHandler 创建合作记录处理器
func NewDealHandler(deals *service.DealService, log *zap.Logger) *DealHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DealHandler{deals: deals, log: log}
}

// List 查询当前用户的合作记录
// GET /v1/deals?status=&type=&limit=
func (h *DealHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			BadRequest(c, "limit 参数必须为非负整数")
			return
		}
		limit = n
	}

	deals, err := h.deals.List(
		userID,
		domain.DealStatus(c.Query("status")),
		domain.DealType(c.Query("type")),
		limit,
	)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	Success(c, gin.H{
		"deals": deals,
		"total": len(deals),
	})
}

// updateStatusRequest 状态更新请求体
type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 更新合作记录状态
// PUT /v1/deals/:dealID
func (h *DealHandler) UpdateStatus(c *gin.Context) {
	userID := c.GetString("userID")
	dealID := c.Param("dealID")

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	if err := h.deals.UpdateStatus(userID, dealID, domain.DealStatus(req.Status)); err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	Success(c, nil)
}

// Delete 删除合作记录
// DELETE /v1/deals/:dealID
func (h *DealHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	dealID := c.Param("dealID")

	if err := h.deals.Delete(userID, dealID); err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	Success(c, nil)
}
