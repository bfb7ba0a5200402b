package handler

import (
	"github.com/gin-gonic/gin"

	"uni-timetable/backend/internal/dto"
	"uni-timetable/backend/internal/service"
	"uni-timetable/backend/pkg/response"
)

// AssignmentHandler 自动排课与空闲格子查询 HTTP 处理器
type AssignmentHandler struct {
	svc service.SchedulingService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(svc service.SchedulingService) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

// RunAutomatic 执行自动排课
// POST /api/v1/assignments/auto
func (h *AssignmentHandler) RunAutomatic(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadParams, "参数校验失败")
		return
	}

	result, err := h.svc.RunAutomaticAssignment(c.Request.Context(), &req, caller)
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, result)
}

// FreeSlots 教师可用且教师、教室均空闲的格子
// GET /api/v1/free-slots?professor_id=&room_id=
func (h *AssignmentHandler) FreeSlots(c *gin.Context) {
	var req dto.FreeSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeBadParams, "professor_id 与 room_id 不能为空")
		return
	}

	result, err := h.svc.FreeSlots(c.Request.Context(), &req)
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, result)
}
