package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"uni-timetable/backend/config"
	"uni-timetable/backend/internal/dto"
	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/pkg/jwt"
)

// ── 排课模块业务错误 ──
// 引擎错误（engine.Err*）原样透传，由 Handler 统一映射

var (
	ErrAvailabilityForbidden = errors.New("只能维护本人的可用性")
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Caller 当前请求的身份（来自 JWT）
type Caller struct {
	UserID string
	Role   string
}

// IsAdmin 是否为排课管理员
func (c Caller) IsAdmin() bool { return c.Role == jwt.RoleAdmin }

// Scheduler 排课引擎能力，由 *engine.Engine 实现
type Scheduler interface {
	SetAvailability(ctx context.Context, professorID string, grid engine.Grid) error
	GetAvailability(ctx context.Context, professorID string) (engine.Grid, error)
	ProposeHold(ctx context.Context, req engine.ProposeHoldRequest) (engine.Hold, error)
	GetHold(ctx context.Context, holdID string) (engine.Hold, error)
	CommitHold(ctx context.Context, holdID, committedBy string) (engine.Attribution, error)
	CancelHold(ctx context.Context, holdID string) (engine.Hold, error)
	ExtendHold(ctx context.Context, holdID string, extra time.Duration) (engine.Hold, error)
	ListActiveHolds(filter engine.HoldFilter) []engine.Hold
	GetAttribution(attributionID string) (engine.Attribution, error)
	ListAttributions(filter engine.AttributionFilter) []engine.Attribution
	RevertAttribution(ctx context.Context, attributionID string) error
	RunAutomaticAssignment(ctx context.Context, courseIDs []string, opts engine.AssignOptions) (engine.AssignmentResult, error)
	FreeSlots(ctx context.Context, professorID, roomID string) ([]engine.Slot, error)
}

var _ Scheduler = (*engine.Engine)(nil)

// SchedulingService 排课业务接口
type SchedulingService interface {
	SetAvailability(ctx context.Context, professorID string, req *dto.SetAvailabilityRequest, caller Caller) (*dto.AvailabilityResponse, error)
	GetAvailability(ctx context.Context, professorID string) (*dto.AvailabilityResponse, error)

	ProposeHold(ctx context.Context, req *dto.ProposeHoldRequest, caller Caller) (*dto.HoldResponse, error)
	GetHold(ctx context.Context, id string) (*dto.HoldResponse, error)
	CommitHold(ctx context.Context, id string, caller Caller) (*dto.AttributionResponse, error)
	CancelHold(ctx context.Context, id string) (*dto.HoldResponse, error)
	ExtendHold(ctx context.Context, id string, req *dto.ExtendHoldRequest) (*dto.HoldResponse, error)
	ListActiveHolds(ctx context.Context, req *dto.HoldListRequest) []dto.HoldResponse

	GetAttribution(ctx context.Context, id string) (*dto.AttributionResponse, error)
	ListAttributions(ctx context.Context, req *dto.AttributionListRequest) []dto.AttributionResponse
	RevertAttribution(ctx context.Context, id string) error

	RunAutomaticAssignment(ctx context.Context, req *dto.AutoAssignRequest, caller Caller) (*dto.AutoAssignResponse, error)
	FreeSlots(ctx context.Context, req *dto.FreeSlotsRequest) (*dto.FreeSlotsResponse, error)
}

type schedulingService struct {
	cfg    *config.SchedulerConfig
	eng    Scheduler
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewSchedulingService 创建 SchedulingService 实例
func NewSchedulingService(cfg *config.SchedulerConfig, eng Scheduler, clock clockwork.Clock, logger *zap.Logger) SchedulingService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &schedulingService{cfg: cfg, eng: eng, clock: clock, logger: logger}
}

// ────────────────────── 可用性 ──────────────────────

// SetAvailability 管理员或教师本人可修改
func (s *schedulingService) SetAvailability(ctx context.Context, professorID string, req *dto.SetAvailabilityRequest, caller Caller) (*dto.AvailabilityResponse, error) {
	if !caller.IsAdmin() && caller.UserID != professorID {
		return nil, ErrAvailabilityForbidden
	}

	grid := make(engine.Grid, len(req.Slots))
	for _, key := range req.Slots {
		slot, err := engine.ParseSlot(key)
		if err != nil {
			return nil, err
		}
		grid[slot] = true
	}

	if err := s.eng.SetAvailability(ctx, professorID, grid); err != nil {
		return nil, err
	}
	return toAvailabilityResponse(professorID, grid), nil
}

func (s *schedulingService) GetAvailability(ctx context.Context, professorID string) (*dto.AvailabilityResponse, error) {
	grid, err := s.eng.GetAvailability(ctx, professorID)
	if err != nil {
		return nil, err
	}
	return toAvailabilityResponse(professorID, grid), nil
}

// ────────────────────── 临时预留 ──────────────────────

func (s *schedulingService) ProposeHold(ctx context.Context, req *dto.ProposeHoldRequest, caller Caller) (*dto.HoldResponse, error) {
	slot, err := engine.NewSlot(req.Day, req.Slot)
	if err != nil {
		return nil, err
	}

	h, err := s.eng.ProposeHold(ctx, engine.ProposeHoldRequest{
		ProfessorID: req.ProfessorID,
		RoomID:      req.RoomID,
		CourseID:    req.CourseID,
		ProgrammeID: req.ProgrammeID,
		Group:       req.Group,
		Slot:        slot,
		TTL:         seconds(req.TTLSeconds),
		CreatedBy:   caller.UserID,
	})
	if err != nil {
		return nil, err
	}
	return s.toHoldResponse(h), nil
}

func (s *schedulingService) GetHold(ctx context.Context, id string) (*dto.HoldResponse, error) {
	h, err := s.eng.GetHold(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toHoldResponse(h), nil
}

func (s *schedulingService) CommitHold(ctx context.Context, id string, caller Caller) (*dto.AttributionResponse, error) {
	a, err := s.eng.CommitHold(ctx, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	return toAttributionResponse(a), nil
}

func (s *schedulingService) CancelHold(ctx context.Context, id string) (*dto.HoldResponse, error) {
	h, err := s.eng.CancelHold(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toHoldResponse(h), nil
}

func (s *schedulingService) ExtendHold(ctx context.Context, id string, req *dto.ExtendHoldRequest) (*dto.HoldResponse, error) {
	h, err := s.eng.ExtendHold(ctx, id, seconds(req.AdditionalTTLSeconds))
	if err != nil {
		return nil, err
	}
	return s.toHoldResponse(h), nil
}

func (s *schedulingService) ListActiveHolds(_ context.Context, req *dto.HoldListRequest) []dto.HoldResponse {
	holds := s.eng.ListActiveHolds(engine.HoldFilter{
		ProfessorID: req.ProfessorID,
		RoomID:      req.RoomID,
		CourseID:    req.CourseID,
		ProgrammeID: req.ProgrammeID,
		Group:       req.Group,
		CreatedBy:   req.CreatedBy,
	})
	list := make([]dto.HoldResponse, len(holds))
	for i := range holds {
		list[i] = *s.toHoldResponse(holds[i])
	}
	return list
}

// ────────────────────── 排课记录 ──────────────────────

func (s *schedulingService) GetAttribution(_ context.Context, id string) (*dto.AttributionResponse, error) {
	a, err := s.eng.GetAttribution(id)
	if err != nil {
		return nil, err
	}
	return toAttributionResponse(a), nil
}

func (s *schedulingService) ListAttributions(_ context.Context, req *dto.AttributionListRequest) []dto.AttributionResponse {
	attrs := s.eng.ListAttributions(engine.AttributionFilter{
		ProfessorID: req.ProfessorID,
		RoomID:      req.RoomID,
		CourseID:    req.CourseID,
		ProgrammeID: req.ProgrammeID,
		Group:       req.Group,
	})
	list := make([]dto.AttributionResponse, len(attrs))
	for i := range attrs {
		list[i] = *toAttributionResponse(attrs[i])
	}
	return list
}

func (s *schedulingService) RevertAttribution(ctx context.Context, id string) error {
	return s.eng.RevertAttribution(ctx, id)
}

// ═══════════════════════════════════════════════════════════
// RunAutomaticAssignment 自动排课
// ═══════════════════════════════════════════════════════════
//
// commit 未指定时取配置 scheduler.auto_commit。
// 运行中途被取消时返回错误，已提交的课程保持提交状态。

func (s *schedulingService) RunAutomaticAssignment(ctx context.Context, req *dto.AutoAssignRequest, caller Caller) (*dto.AutoAssignResponse, error) {
	commit := s.cfg.AutoCommit
	if req.Commit != nil {
		commit = *req.Commit
	}

	res, err := s.eng.RunAutomaticAssignment(ctx, req.CourseIDs, engine.AssignOptions{
		Commit:    commit,
		HoldTTL:   seconds(req.HoldTTLSeconds),
		CreatedBy: caller.UserID,
	})
	if err != nil {
		s.logger.Warn("自动排课中止",
			zap.Int("courses", len(req.CourseIDs)),
			zap.Int("assigned_before_stop", len(res.Assigned)),
			zap.Error(err),
		)
		return nil, err
	}

	out := &dto.AutoAssignResponse{
		Committed:  commit,
		Assigned:   make([]dto.AssignedCourseResponse, 0, len(res.Assigned)),
		Unassigned: make([]dto.UnassignedCourseResponse, 0, len(res.Unassigned)),
	}
	for _, a := range res.Assigned {
		out.Assigned = append(out.Assigned, dto.AssignedCourseResponse{
			CourseID:      a.CourseID,
			ProfessorID:   a.Placement.ProfessorID,
			RoomID:        a.Placement.RoomID,
			Day:           a.Placement.Slot.Day.String(),
			Slot:          a.Placement.Slot.Period.String(),
			HoldID:        a.HoldID,
			AttributionID: optional(a.AttributionID),
		})
	}
	for _, u := range res.Unassigned {
		out.Unassigned = append(out.Unassigned, dto.UnassignedCourseResponse{
			CourseID: u.CourseID,
			Reason:   string(u.Reason),
		})
	}
	return out, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *schedulingService) FreeSlots(ctx context.Context, req *dto.FreeSlotsRequest) (*dto.FreeSlotsResponse, error) {
	slots, err := s.eng.FreeSlots(ctx, req.ProfessorID, req.RoomID)
	if err != nil {
		return nil, err
	}
	return &dto.FreeSlotsResponse{
		ProfessorID: req.ProfessorID,
		RoomID:      req.RoomID,
		Slots:       slotKeys(slots),
	}, nil
}

// ── 转换 ──

func (s *schedulingService) toHoldResponse(h engine.Hold) *dto.HoldResponse {
	p := h.Placement
	return &dto.HoldResponse{
		ID:               h.ID,
		ProfessorID:      p.ProfessorID,
		RoomID:           p.RoomID,
		CourseID:         p.CourseID,
		ProgrammeID:      p.ProgrammeID,
		Group:            p.Group,
		Day:              p.Slot.Day.String(),
		Slot:             p.Slot.Period.String(),
		Status:           string(h.Status),
		CreatedBy:        h.CreatedBy,
		CreatedAt:        h.CreatedAt.UTC().Format(timeLayout),
		ExpiresAt:        h.ExpiresAt.UTC().Format(timeLayout),
		RemainingSeconds: int(h.Remaining(s.clock.Now()) / time.Second),
		AttributionID:    optional(h.AttributionID),
	}
}

func toAttributionResponse(a engine.Attribution) *dto.AttributionResponse {
	p := a.Placement
	return &dto.AttributionResponse{
		ID:          a.ID,
		HoldID:      a.HoldID,
		ProfessorID: p.ProfessorID,
		RoomID:      p.RoomID,
		CourseID:    p.CourseID,
		ProgrammeID: p.ProgrammeID,
		Group:       p.Group,
		Day:         p.Slot.Day.String(),
		Slot:        p.Slot.Period.String(),
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt.UTC().Format(timeLayout),
	}
}

func toAvailabilityResponse(professorID string, g engine.Grid) *dto.AvailabilityResponse {
	return &dto.AvailabilityResponse{ProfessorID: professorID, Slots: slotKeys(g.AvailableSlots())}
}

func slotKeys(slots []engine.Slot) []string {
	keys := make([]string, len(slots))
	for i, s := range slots {
		keys[i] = s.String()
	}
	return keys
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
