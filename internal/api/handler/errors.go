package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/internal/service"
	apperrors "uni-timetable/backend/pkg/errors"
	"uni-timetable/backend/pkg/response"
)

// 参数校验失败
const codeBadParams = 20001

// handleSchedulingError 统一处理排课模块业务错误
//
// 冲突类错误返回 409，details 为当前占用记录 ID，便于前端定位。
func handleSchedulingError(c *gin.Context, err error) {
	var conflict *engine.ConflictError
	if errors.As(err, &conflict) {
		code, msg := 22103, "教室在该时段已被占用"
		if errors.Is(err, engine.ErrSlotTakenByProfessor) {
			code, msg = 22104, "教师在该时段已有安排"
		}
		response.Conflict(c, code, msg, conflict.Holder)
		return
	}

	switch {
	// ── 输入 ──
	case errors.Is(err, engine.ErrInvalidSlot):
		response.BadRequest(c, 20101, "无效的时间槽")
	case errors.Is(err, engine.ErrInvalidTTL):
		response.BadRequest(c, 20102, "无效的预留时长")
	case errors.Is(err, engine.ErrProfessorNotFound):
		response.NotFound(c, 20103, "教师不存在")
	case errors.Is(err, engine.ErrRoomNotFound):
		response.NotFound(c, 20104, "教室不存在")
	case errors.Is(err, engine.ErrCourseNotFound):
		response.NotFound(c, 20105, "课程不存在")
	case errors.Is(err, engine.ErrProfessorNotEligible):
		response.BadRequest(c, 20106, "该教师不在课程的可授课教师名单中")

	// ── 可用性 ──
	case errors.Is(err, service.ErrAvailabilityForbidden):
		response.Forbidden(c, 21101, "只能维护本人的可用性")

	// ── 临时预留 ──
	case errors.Is(err, engine.ErrProfessorUnavailable):
		response.Error(c, http.StatusConflict, 22101, "教师在该时段不可用")
	case errors.Is(err, engine.ErrRoomCapacityInsufficient):
		response.BadRequest(c, 22102, "教室类型或容量不满足课程要求")
	case errors.Is(err, engine.ErrHoldNotFound):
		response.NotFound(c, 22105, "临时预留不存在")
	case errors.Is(err, engine.ErrHoldExpiredDuringCommit):
		response.Gone(c, 22106, "临时预留已过期")
	case errors.Is(err, apperrors.ErrStaleHold):
		response.Conflict(c, 22108, "预留已被其他操作修改，请刷新后重试", "")
	case errors.Is(err, engine.ErrHoldNotActive):
		response.Error(c, http.StatusConflict, 22107, "临时预留已结束，不可执行此操作")

	// ── 排课记录 ──
	case errors.Is(err, engine.ErrAttributionNotFound):
		response.NotFound(c, 23101, "排课记录不存在")

	// ── 导出 ──
	case errors.Is(err, service.ErrExportProgrammeNotFound):
		response.NotFound(c, 25101, "培养方案不存在")
	case errors.Is(err, service.ErrExportNoAttributions):
		response.NotFound(c, 25102, "该培养方案暂无排课记录")

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusServiceUnavailable, 24101, "请求已取消或超时")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
