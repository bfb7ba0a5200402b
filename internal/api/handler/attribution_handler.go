package handler

import (
	"github.com/gin-gonic/gin"

	"uni-timetable/backend/internal/dto"
	"uni-timetable/backend/internal/service"
	"uni-timetable/backend/pkg/response"
)

// AttributionHandler 正式排课记录 HTTP 处理器
type AttributionHandler struct {
	svc service.SchedulingService
}

// NewAttributionHandler 创建 AttributionHandler
func NewAttributionHandler(svc service.SchedulingService) *AttributionHandler {
	return &AttributionHandler{svc: svc}
}

// List 按条件列出排课记录
// GET /api/v1/attributions
func (h *AttributionHandler) List(c *gin.Context) {
	var req dto.AttributionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeBadParams, "参数校验失败")
		return
	}

	response.OK(c, gin.H{"list": h.svc.ListAttributions(c.Request.Context(), &req)})
}

// Get 获取排课记录
// GET /api/v1/attributions/:id
func (h *AttributionHandler) Get(c *gin.Context) {
	attr, err := h.svc.GetAttribution(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, attr)
}

// Revert 撤销排课记录，释放教室与教师占用
// DELETE /api/v1/attributions/:id
func (h *AttributionHandler) Revert(c *gin.Context) {
	if err := h.svc.RevertAttribution(c.Request.Context(), c.Param("id")); err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, nil)
}
