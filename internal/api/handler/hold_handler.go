package handler

import (
	"github.com/gin-gonic/gin"

	"uni-timetable/backend/internal/dto"
	"uni-timetable/backend/internal/service"
	"uni-timetable/backend/pkg/response"
)

// HoldHandler 临时预留 HTTP 处理器
type HoldHandler struct {
	svc service.SchedulingService
}

// NewHoldHandler 创建 HoldHandler
func NewHoldHandler(svc service.SchedulingService) *HoldHandler {
	return &HoldHandler{svc: svc}
}

// Propose 创建临时预留
// POST /api/v1/holds
func (h *HoldHandler) Propose(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ProposeHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadParams, "参数校验失败")
		return
	}

	hold, err := h.svc.ProposeHold(c.Request.Context(), &req, caller)
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.Created(c, hold)
}

// List 列出 active 临时预留
// GET /api/v1/holds
func (h *HoldHandler) List(c *gin.Context) {
	var req dto.HoldListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeBadParams, "参数校验失败")
		return
	}

	response.OK(c, gin.H{"list": h.svc.ListActiveHolds(c.Request.Context(), &req)})
}

// Get 获取临时预留（含终态）
// GET /api/v1/holds/:id
func (h *HoldHandler) Get(c *gin.Context) {
	hold, err := h.svc.GetHold(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, hold)
}

// Commit 提交临时预留，生成正式排课记录
// POST /api/v1/holds/:id/commit
func (h *HoldHandler) Commit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	attr, err := h.svc.CommitHold(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.Created(c, attr)
}

// Cancel 取消临时预留
// POST /api/v1/holds/:id/cancel
func (h *HoldHandler) Cancel(c *gin.Context) {
	hold, err := h.svc.CancelHold(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, hold)
}

// Extend 延长临时预留
// POST /api/v1/holds/:id/extend
func (h *HoldHandler) Extend(c *gin.Context) {
	var req dto.ExtendHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadParams, "参数校验失败")
		return
	}

	hold, err := h.svc.ExtendHold(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleSchedulingError(c, err)
		return
	}
	response.OK(c, hold)
}
