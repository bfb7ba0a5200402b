package engine

import (
	"errors"
	"fmt"

	apperrors "uni-timetable/backend/pkg/errors"
)

// ── 排课引擎错误类型 ──

var (
	ErrInvalidSlot              = errors.New("无效的时间槽")
	ErrProfessorUnavailable     = errors.New("教师在该时段不可用")
	ErrRoomCapacityInsufficient = errors.New("教室类型或容量不满足课程要求")
	ErrSlotTakenByRoom          = errors.New("教室在该时段已被占用")
	ErrSlotTakenByProfessor     = errors.New("教师在该时段已有安排")
	ErrHoldNotFound             = errors.New("临时预留不存在")
	ErrHoldExpiredDuringCommit  = errors.New("临时预留已过期")
	ErrAttributionNotFound      = errors.New("排课记录不存在")

	ErrHoldNotActive        = errors.New("临时预留已结束，不可执行此操作")
	ErrInvalidTTL           = errors.New("无效的预留时长")
	ErrProfessorNotFound    = errors.New("教师不存在")
	ErrRoomNotFound         = errors.New("教室不存在")
	ErrCourseNotFound       = errors.New("课程不存在")
	ErrProfessorNotEligible = errors.New("该教师不在课程的可授课教师名单中")
)

// ConflictError 占用冲突，Kind 为 ErrSlotTakenByRoom 或 ErrSlotTakenByProfessor
type ConflictError struct {
	Kind   error
	Slot   Slot
	Holder string // 当前占用该格子的记录 ID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s（占用记录 %s）", e.Kind, e.Slot, e.Holder)
}

func (e *ConflictError) Unwrap() error { return e.Kind }

// IsConflict 是否为占用冲突（教室或教师）
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// Kind 将错误归类为稳定的短标识，用于指标标签与日志
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, apperrors.ErrStaleHold):
		return "stale_hold"
	case errors.Is(err, ErrProfessorUnavailable):
		return "professor_unavailable"
	case errors.Is(err, ErrRoomCapacityInsufficient):
		return "room_capacity_insufficient"
	case errors.Is(err, ErrSlotTakenByRoom):
		return "slot_taken_by_room"
	case errors.Is(err, ErrSlotTakenByProfessor):
		return "slot_taken_by_professor"
	case errors.Is(err, ErrHoldNotFound):
		return "hold_not_found"
	case errors.Is(err, ErrHoldExpiredDuringCommit):
		return "hold_expired_during_commit"
	case errors.Is(err, ErrAttributionNotFound):
		return "attribution_not_found"
	case errors.Is(err, ErrHoldNotActive):
		return "hold_not_active"
	case errors.Is(err, ErrInvalidTTL):
		return "invalid_ttl"
	case errors.Is(err, ErrProfessorNotFound):
		return "professor_not_found"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrCourseNotFound):
		return "course_not_found"
	case errors.Is(err, ErrProfessorNotEligible):
		return "professor_not_eligible"
	default:
		return "internal"
	}
}
