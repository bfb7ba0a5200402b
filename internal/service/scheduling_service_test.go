package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"uni-timetable/backend/config"
	"uni-timetable/backend/internal/dto"
	"uni-timetable/backend/internal/engine"
)

// ── 测试辅助 ──

var (
	admin     = Caller{UserID: "admin-1", Role: "admin"}
	professor = Caller{UserID: "p1", Role: "professor"}
)

func setupTestSchedulingService(t *testing.T, autoCommit bool) (SchedulingService, *engine.Engine, *clockwork.FakeClock) {
	t.Helper()
	refs := newMockReferenceRepo()
	refs.seed()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC))
	eng := engine.New(engine.DefaultConfig(), refs, engine.WithClock(clock))

	for _, id := range []string{"p1", "p2"} {
		if err := eng.SetAvailability(context.Background(), id, engine.FullGrid()); err != nil {
			t.Fatalf("初始化可用性失败: %v", err)
		}
	}

	cfg := &config.SchedulerConfig{AutoCommit: autoCommit}
	return NewSchedulingService(cfg, eng, clock, zap.NewNop()), eng, clock
}

func proposeReq(prof, room, course, day, slot string) *dto.ProposeHoldRequest {
	return &dto.ProposeHoldRequest{ProfessorID: prof, RoomID: room, CourseID: course, Day: day, Slot: slot}
}

// ── SetAvailability 测试 ──

func TestSchedulingService_SetAvailability(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)
	ctx := context.Background()

	req := &dto.SetAvailabilityRequest{Slots: []string{"Tue/S2", "mon/s1", "Mon/S1"}}
	resp, err := svc.SetAvailability(ctx, "p1", req, professor)
	if err != nil {
		t.Fatalf("本人设置可用性应成功: %v", err)
	}
	if len(resp.Slots) != 2 || resp.Slots[0] != "Mon/S1" || resp.Slots[1] != "Tue/S2" {
		t.Errorf("期望规范顺序 [Mon/S1 Tue/S2], 实际=%v", resp.Slots)
	}

	got, err := svc.GetAvailability(ctx, "p1")
	if err != nil {
		t.Fatalf("GetAvailability 失败: %v", err)
	}
	if len(got.Slots) != 2 {
		t.Errorf("期望 2 个可用格子, 实际=%d", len(got.Slots))
	}
}

func TestSchedulingService_SetAvailability_Forbidden(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)

	_, err := svc.SetAvailability(context.Background(), "p2", &dto.SetAvailabilityRequest{Slots: []string{}}, professor)
	if !errors.Is(err, ErrAvailabilityForbidden) {
		t.Errorf("期望 ErrAvailabilityForbidden, 实际: %v", err)
	}

	if _, err := svc.SetAvailability(context.Background(), "p2", &dto.SetAvailabilityRequest{Slots: []string{}}, admin); err != nil {
		t.Errorf("管理员应可修改任意教师可用性: %v", err)
	}
}

func TestSchedulingService_SetAvailability_InvalidSlot(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)

	for _, key := range []string{"Sun/S1", "Mon/S4", "Mon-S1"} {
		_, err := svc.SetAvailability(context.Background(), "p1", &dto.SetAvailabilityRequest{Slots: []string{key}}, admin)
		if !errors.Is(err, engine.ErrInvalidSlot) {
			t.Errorf("%s: 期望 ErrInvalidSlot, 实际: %v", key, err)
		}
	}
}

// ── 临时预留 测试 ──

func TestSchedulingService_ProposeAndCommit(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)
	ctx := context.Background()

	hold, err := svc.ProposeHold(ctx, proposeReq("p1", "r1", "algo", "Mon", "S1"), professor)
	if err != nil {
		t.Fatalf("ProposeHold 应成功: %v", err)
	}
	if hold.Status != "active" || hold.CreatedBy != "p1" {
		t.Errorf("期望 active 且 created_by=p1, 实际 status=%s created_by=%s", hold.Status, hold.CreatedBy)
	}
	if hold.ProgrammeID != "L1-INFO" || hold.Group != 1 {
		t.Errorf("期望培养方案与班组取自课程, 实际=%s/%d", hold.ProgrammeID, hold.Group)
	}
	if hold.RemainingSeconds != 300 {
		t.Errorf("期望默认 300 秒, 实际=%d", hold.RemainingSeconds)
	}

	attr, err := svc.CommitHold(ctx, hold.ID, admin)
	if err != nil {
		t.Fatalf("CommitHold 应成功: %v", err)
	}
	if attr.HoldID != hold.ID || attr.CreatedBy != "admin-1" || attr.Day != "Mon" || attr.Slot != "S1" {
		t.Errorf("排课记录字段不匹配: %+v", attr)
	}

	got, err := svc.GetHold(ctx, hold.ID)
	if err != nil {
		t.Fatalf("GetHold 失败: %v", err)
	}
	if got.Status != "committed" || got.AttributionID == nil || *got.AttributionID != attr.ID {
		t.Errorf("期望 committed 并指向排课记录, 实际=%+v", got)
	}
	if got.RemainingSeconds != 0 {
		t.Errorf("终态预留剩余时长应为 0, 实际=%d", got.RemainingSeconds)
	}
}

func TestSchedulingService_ProposeHold_Errors(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)
	ctx := context.Background()

	_, err := svc.ProposeHold(ctx, proposeReq("p1", "r1", "algo", "Sun", "S1"), professor)
	if !errors.Is(err, engine.ErrInvalidSlot) {
		t.Errorf("期望 ErrInvalidSlot, 实际: %v", err)
	}

	_, err = svc.ProposeHold(ctx, proposeReq("p1", "lab", "algo", "Mon", "S1"), professor)
	if !errors.Is(err, engine.ErrRoomCapacityInsufficient) {
		t.Errorf("期望 ErrRoomCapacityInsufficient, 实际: %v", err)
	}

	if _, err := svc.ProposeHold(ctx, proposeReq("p1", "r1", "algo", "Mon", "S1"), professor); err != nil {
		t.Fatalf("ProposeHold 应成功: %v", err)
	}
	_, err = svc.ProposeHold(ctx, proposeReq("p2", "r1", "db", "Mon", "S1"), admin)
	if !errors.Is(err, engine.ErrSlotTakenByRoom) {
		t.Errorf("期望 ErrSlotTakenByRoom, 实际: %v", err)
	}
}

func TestSchedulingService_ExtendAndCancel(t *testing.T) {
	svc, _, clock := setupTestSchedulingService(t, true)
	ctx := context.Background()

	req := proposeReq("p1", "r1", "algo", "Mon", "S1")
	req.TTLSeconds = 60
	hold, err := svc.ProposeHold(ctx, req, professor)
	if err != nil {
		t.Fatalf("ProposeHold 应成功: %v", err)
	}

	clock.Advance(30 * time.Second)
	extended, err := svc.ExtendHold(ctx, hold.ID, &dto.ExtendHoldRequest{AdditionalTTLSeconds: 120})
	if err != nil {
		t.Fatalf("ExtendHold 应成功: %v", err)
	}
	if extended.RemainingSeconds != 150 {
		t.Errorf("期望剩余 150 秒, 实际=%d", extended.RemainingSeconds)
	}

	if list := svc.ListActiveHolds(ctx, &dto.HoldListRequest{ProfessorID: "p1"}); len(list) != 1 {
		t.Errorf("期望 1 个 active 预留, 实际=%d", len(list))
	}

	cancelled, err := svc.CancelHold(ctx, hold.ID)
	if err != nil {
		t.Fatalf("CancelHold 应成功: %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Errorf("期望 cancelled, 实际=%s", cancelled.Status)
	}
	if list := svc.ListActiveHolds(ctx, &dto.HoldListRequest{}); len(list) != 0 {
		t.Errorf("取消后不应有 active 预留, 实际=%d", len(list))
	}

	_, err = svc.CommitHold(ctx, hold.ID, admin)
	if !errors.Is(err, engine.ErrHoldNotActive) {
		t.Errorf("期望 ErrHoldNotActive, 实际: %v", err)
	}
}

// ── 自动排课 测试 ──

func TestSchedulingService_AutoAssign_DefaultCommit(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)
	ctx := context.Background()

	resp, err := svc.RunAutomaticAssignment(ctx, &dto.AutoAssignRequest{CourseIDs: []string{"algo", "tp"}}, admin)
	if err != nil {
		t.Fatalf("自动排课应成功: %v", err)
	}
	if !resp.Committed {
		t.Error("期望使用配置 auto_commit=true")
	}
	if len(resp.Assigned) != 2 || len(resp.Unassigned) != 0 {
		t.Fatalf("期望全部排上, 实际 assigned=%d unassigned=%d", len(resp.Assigned), len(resp.Unassigned))
	}
	for _, a := range resp.Assigned {
		if a.AttributionID == nil {
			t.Errorf("%s: 期望已生成排课记录", a.CourseID)
		}
	}

	attrs := svc.ListAttributions(ctx, &dto.AttributionListRequest{ProgrammeID: "L1-INFO"})
	if len(attrs) != 2 {
		t.Errorf("期望 2 条排课记录, 实际=%d", len(attrs))
	}
	for _, a := range attrs {
		if a.CreatedBy != "admin-1" {
			t.Errorf("期望 created_by=admin-1, 实际=%s", a.CreatedBy)
		}
	}
}

func TestSchedulingService_AutoAssign_LeaveAsHolds(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)
	ctx := context.Background()

	commit := false
	resp, err := svc.RunAutomaticAssignment(ctx, &dto.AutoAssignRequest{
		CourseIDs:      []string{"algo"},
		Commit:         &commit,
		HoldTTLSeconds: 120,
	}, admin)
	if err != nil {
		t.Fatalf("自动排课应成功: %v", err)
	}
	if resp.Committed || len(resp.Assigned) != 1 || resp.Assigned[0].AttributionID != nil {
		t.Fatalf("期望保留为临时预留, 实际=%+v", resp)
	}

	hold, err := svc.GetHold(ctx, resp.Assigned[0].HoldID)
	if err != nil {
		t.Fatalf("GetHold 失败: %v", err)
	}
	if hold.RemainingSeconds != 120 {
		t.Errorf("期望剩余 120 秒, 实际=%d", hold.RemainingSeconds)
	}
}

func TestSchedulingService_AutoAssign_UnknownCourse(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, false)

	_, err := svc.RunAutomaticAssignment(context.Background(), &dto.AutoAssignRequest{CourseIDs: []string{"algo", "nope"}}, admin)
	if !errors.Is(err, engine.ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound, 实际: %v", err)
	}
}

// ── 查询 测试 ──

func TestSchedulingService_FreeSlotsAndRevert(t *testing.T) {
	svc, _, _ := setupTestSchedulingService(t, true)
	ctx := context.Background()

	hold, err := svc.ProposeHold(ctx, proposeReq("p1", "r1", "algo", "Mon", "S1"), professor)
	if err != nil {
		t.Fatalf("ProposeHold 应成功: %v", err)
	}
	attr, err := svc.CommitHold(ctx, hold.ID, admin)
	if err != nil {
		t.Fatalf("CommitHold 应成功: %v", err)
	}

	free, err := svc.FreeSlots(ctx, &dto.FreeSlotsRequest{ProfessorID: "p2", RoomID: "r1"})
	if err != nil {
		t.Fatalf("FreeSlots 失败: %v", err)
	}
	if len(free.Slots) != engine.SlotsPerWeek-1 || free.Slots[0] != "Mon/S2" {
		t.Errorf("期望 Mon/S1 被占用, 实际=%v", free.Slots)
	}

	if err := svc.RevertAttribution(ctx, attr.ID); err != nil {
		t.Fatalf("RevertAttribution 失败: %v", err)
	}
	if _, err := svc.GetAttribution(ctx, attr.ID); !errors.Is(err, engine.ErrAttributionNotFound) {
		t.Errorf("期望 ErrAttributionNotFound, 实际: %v", err)
	}

	free, _ = svc.FreeSlots(ctx, &dto.FreeSlotsRequest{ProfessorID: "p2", RoomID: "r1"})
	if len(free.Slots) != engine.SlotsPerWeek {
		t.Errorf("撤销后应全部空闲, 实际=%d", len(free.Slots))
	}
}
