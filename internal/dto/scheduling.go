package dto

// ── 可用性 ──

// SetAvailabilityRequest 整表替换教师周可用性
// Slots 为可用格子键（"Mon/S1"），未列出的格子视为不可用；空数组表示全部不可用
type SetAvailabilityRequest struct {
	Slots []string `json:"slots" binding:"required,max=18,dive,required"`
}

// AvailabilityResponse 教师周可用性
type AvailabilityResponse struct {
	ProfessorID string   `json:"professor_id"`
	Slots       []string `json:"slots"`
}

// ── 临时预留 ──

// ProposeHoldRequest 创建临时预留请求
type ProposeHoldRequest struct {
	ProfessorID string `json:"professor_id" binding:"required,max=64"`
	RoomID      string `json:"room_id"      binding:"required,max=64"`
	CourseID    string `json:"course_id"    binding:"required,max=64"`
	ProgrammeID string `json:"programme_id" binding:"omitempty,max=64"` // 为空时取课程所属培养方案
	Group       int    `json:"group"        binding:"omitempty,min=1"`
	Day         string `json:"day"          binding:"required"` // Mon..Sat
	Slot        string `json:"slot"         binding:"required"` // S1..S3
	TTLSeconds  int    `json:"ttl_seconds"  binding:"omitempty,min=1"`
}

// ExtendHoldRequest 延长临时预留请求
type ExtendHoldRequest struct {
	AdditionalTTLSeconds int `json:"additional_ttl_seconds" binding:"required,min=1"`
}

// HoldListRequest 临时预留列表查询参数
type HoldListRequest struct {
	ProfessorID string `form:"professor_id"`
	RoomID      string `form:"room_id"`
	CourseID    string `form:"course_id"`
	ProgrammeID string `form:"programme_id"`
	Group       *int   `form:"group"      binding:"omitempty,min=1"`
	CreatedBy   string `form:"created_by"`
}

// HoldResponse 临时预留响应
type HoldResponse struct {
	ID               string  `json:"id"`
	ProfessorID      string  `json:"professor_id"`
	RoomID           string  `json:"room_id"`
	CourseID         string  `json:"course_id"`
	ProgrammeID      string  `json:"programme_id"`
	Group            int     `json:"group"`
	Day              string  `json:"day"`
	Slot             string  `json:"slot"`
	Status           string  `json:"status"`
	CreatedBy        string  `json:"created_by"`
	CreatedAt        string  `json:"created_at"`
	ExpiresAt        string  `json:"expires_at"`
	RemainingSeconds int     `json:"remaining_seconds"`
	AttributionID    *string `json:"attribution_id,omitempty"`
}

// ── 排课记录 ──

// AttributionListRequest 排课记录列表查询参数
type AttributionListRequest struct {
	ProfessorID string `form:"professor_id"`
	RoomID      string `form:"room_id"`
	CourseID    string `form:"course_id"`
	ProgrammeID string `form:"programme_id"`
	Group       *int   `form:"group" binding:"omitempty,min=1"`
}

// AttributionResponse 排课记录响应
type AttributionResponse struct {
	ID          string `json:"id"`
	HoldID      string `json:"hold_id"`
	ProfessorID string `json:"professor_id"`
	RoomID      string `json:"room_id"`
	CourseID    string `json:"course_id"`
	ProgrammeID string `json:"programme_id"`
	Group       int    `json:"group"`
	Day         string `json:"day"`
	Slot        string `json:"slot"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

// ── 自动排课 ──

// AutoAssignRequest 自动排课请求
type AutoAssignRequest struct {
	CourseIDs      []string `json:"course_ids"       binding:"required,min=1,dive,required"`
	Commit         *bool    `json:"commit"`                                     // 为空时使用服务端配置
	HoldTTLSeconds int      `json:"hold_ttl_seconds" binding:"omitempty,min=1"` // 仅 commit=false 时生效
}

// AssignedCourseResponse 已排课程
type AssignedCourseResponse struct {
	CourseID      string  `json:"course_id"`
	ProfessorID   string  `json:"professor_id"`
	RoomID        string  `json:"room_id"`
	Day           string  `json:"day"`
	Slot          string  `json:"slot"`
	HoldID        string  `json:"hold_id"`
	AttributionID *string `json:"attribution_id,omitempty"`
}

// UnassignedCourseResponse 未排课程及原因
type UnassignedCourseResponse struct {
	CourseID string `json:"course_id"`
	Reason   string `json:"reason"`
}

// AutoAssignResponse 自动排课结果
type AutoAssignResponse struct {
	Committed  bool                       `json:"committed"`
	Assigned   []AssignedCourseResponse   `json:"assigned"`
	Unassigned []UnassignedCourseResponse `json:"unassigned"`
}

// ── 查询 ──

// FreeSlotsRequest 空闲格子查询参数
type FreeSlotsRequest struct {
	ProfessorID string `form:"professor_id" binding:"required"`
	RoomID      string `form:"room_id"      binding:"required"`
}

// FreeSlotsResponse 空闲格子（规范顺序）
type FreeSlotsResponse struct {
	ProfessorID string   `json:"professor_id"`
	RoomID      string   `json:"room_id"`
	Slots       []string `json:"slots"`
}

// ExportTimetableRequest 课表导出参数
type ExportTimetableRequest struct {
	ProgrammeID string `form:"programme_id" binding:"required"`
	Group       int    `form:"group"        binding:"omitempty,min=1"`
}
