package handler

import (
	"github.com/gin-gonic/gin"

	"uni-timetable/backend/internal/dto"
	"uni-timetable/backend/internal/service"
	"uni-timetable/backend/pkg/response"
)

// AvailabilityHandler 教师可用性 HTTP 处理器
type AvailabilityHandler struct {
	svc service.SchedulingService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(svc service.SchedulingService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// Get 获取教师周可用性
// GET /api/v1/professors/:id/availability
func (h *AvailabilityHandler) Get(c *gin.Context) {
	resp, err := h.svc.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, resp)
}

// Set 整表替换教师周可用性（管理员或本人）
// PUT /api/v1/professors/:id/availability
func (h *AvailabilityHandler) Set(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadParams, "参数校验失败")
		return
	}

	resp, err := h.svc.SetAvailability(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, resp)
}
