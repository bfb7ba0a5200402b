package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
)

// UnassignedReason 自动排课未能落位的原因
type UnassignedReason string

const (
	ReasonNoCommonAvailability UnassignedReason = "no_common_availability"
	ReasonNoRoomOfKind         UnassignedReason = "no_room_of_kind"
	ReasonAllSlotsConflicted   UnassignedReason = "all_slots_conflicted"
)

// AssignOptions 自动排课选项
type AssignOptions struct {
	Commit    bool          // true 直接提交；false 保留为临时预留供人工确认
	HoldTTL   time.Duration // 临时预留时长
	CreatedBy string
}

// AssignedCourse 已落位的课程
type AssignedCourse struct {
	CourseID      string
	Placement     Placement
	HoldID        string
	AttributionID string // 未提交时为空
}

// UnassignedCourse 未落位的课程
type UnassignedCourse struct {
	CourseID string
	Reason   UnassignedReason
}

// AssignmentResult 一次自动排课的结果
type AssignmentResult struct {
	Assigned   []AssignedCourse
	Unassigned []UnassignedCourse
}

// AutomaticAssigner 贪心批量排课
//
// 约束最多者优先：按当前可行格子数升序处理课程（稳定排序，相同则保持输入顺序），
// 每门课按规范格子顺序取第一个同时有空闲可授课教师与空闲合适教室的格子。
// 不回溯；每次预留/提交各自持有协调锁，不持有整批锁，
// 与人工操作竞争失败时视为"换下一个候选"。
type AutomaticAssigner struct {
	holds    *HoldManager
	final    *FinalizationService
	registry *AvailabilityRegistry
	index    *ConflictIndex
	metrics  Metrics
	logger   *zap.Logger
}

func newAutomaticAssigner(e *Engine, holds *HoldManager, final *FinalizationService) *AutomaticAssigner {
	return &AutomaticAssigner{
		holds:    holds,
		final:    final,
		registry: e.registry,
		index:    e.index,
		metrics:  e.metrics,
		logger:   e.logger.Named("assigner"),
	}
}

// Run 对给定课程执行自动排课
//
// 单门课失败不会让整批失败。ctx 取消时在两门课之间停止，
// 返回已处理部分的结果与 ctx.Err()，已提交的课程保持提交状态。
func (a *AutomaticAssigner) Run(ctx context.Context, courses []CourseInstance, rooms []Room, opts AssignOptions) (AssignmentResult, error) {
	start := a.holds.clock.Now()
	result := AssignmentResult{
		Assigned:   make([]AssignedCourse, 0, len(courses)),
		Unassigned: make([]UnassignedCourse, 0),
	}

	sortedRooms := make([]Room, len(rooms))
	copy(sortedRooms, rooms)
	sort.SliceStable(sortedRooms, func(i, j int) bool {
		if sortedRooms[i].Capacity != sortedRooms[j].Capacity {
			return sortedRooms[i].Capacity < sortedRooms[j].Capacity
		}
		return sortedRooms[i].ID < sortedRooms[j].ID
	})

	// 排序与占用判断直接读取占用索引，先释放已到期的预留
	a.holds.ExpireDue(ctx)

	// ── 约束最多者优先 ──
	type courseInfo struct {
		course   CourseInstance
		feasible int
	}
	infos := make([]courseInfo, len(courses))
	for i, c := range courses {
		infos[i] = courseInfo{course: c, feasible: a.feasibleSlots(c, sortedRooms)}
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].feasible < infos[j].feasible
	})

	var runErr error
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		a.holds.ExpireDue(ctx)
		assigned, reason := a.place(ctx, info.course, sortedRooms, opts)
		if assigned != nil {
			result.Assigned = append(result.Assigned, *assigned)
			continue
		}
		result.Unassigned = append(result.Unassigned, UnassignedCourse{CourseID: info.course.ID, Reason: reason})
	}

	elapsed := a.holds.clock.Since(start)
	a.metrics.AssignmentRun(len(result.Assigned), len(result.Unassigned), elapsed)
	a.logger.Info("自动排课完成",
		zap.Int("courses", len(courses)),
		zap.Int("assigned", len(result.Assigned)),
		zap.Int("unassigned", len(result.Unassigned)),
		zap.Bool("commit", opts.Commit),
		zap.Duration("elapsed", elapsed),
		zap.Error(runErr),
	)
	return result, runErr
}

// feasibleSlots 当前可行格子数：存在可用且空闲的可授课教师，并存在空闲的合适教室
func (a *AutomaticAssigner) feasibleSlots(c CourseInstance, rooms []Room) int {
	req := c.Requirement()
	n := 0
	for _, s := range AllSlots() {
		if a.professorFor(c, s) && a.roomFor(req, rooms, s) {
			n++
		}
	}
	return n
}

func (a *AutomaticAssigner) professorFor(c CourseInstance, s Slot) bool {
	for _, p := range c.EligibleProfessors {
		if a.registry.IsAvailable(p, s) && a.index.ProfessorFree(p, s) {
			return true
		}
	}
	return false
}

func (a *AutomaticAssigner) roomFor(req RoomRequirement, rooms []Room, s Slot) bool {
	for _, r := range rooms {
		if r.Satisfies(req) && a.index.RoomFree(r.ID, s) {
			return true
		}
	}
	return false
}

// place 为单门课程寻找第一个可落位的 (格子, 教师, 教室)
func (a *AutomaticAssigner) place(ctx context.Context, c CourseInstance, rooms []Room, opts AssignOptions) (*AssignedCourse, UnassignedReason) {
	req := c.Requirement()

	suitable := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Satisfies(req) {
			suitable = append(suitable, r)
		}
	}
	if len(suitable) == 0 {
		return nil, ReasonNoRoomOfKind
	}
	if !a.anyAvailability(c) {
		return nil, ReasonNoCommonAvailability
	}

	for _, s := range AllSlots() {
		for _, prof := range c.EligibleProfessors {
			if !a.registry.IsAvailable(prof, s) || !a.index.ProfessorFree(prof, s) {
				continue
			}
			if assigned := a.tryRooms(ctx, c, prof, s, suitable, opts); assigned != nil {
				return assigned, ""
			}
		}
	}
	return nil, ReasonAllSlotsConflicted
}

// tryRooms 依次尝试合适教室（容量升序）；教师被抢占时直接放弃该教师
func (a *AutomaticAssigner) tryRooms(ctx context.Context, c CourseInstance, prof string, s Slot, rooms []Room, opts AssignOptions) *AssignedCourse {
	for _, r := range rooms {
		if !a.index.RoomFree(r.ID, s) {
			continue
		}
		hold, err := a.holds.Propose(ctx, ProposeRequest{
			Placement: Placement{
				ProfessorID: prof,
				RoomID:      r.ID,
				CourseID:    c.ID,
				ProgrammeID: c.ProgrammeID,
				Group:       c.Group,
				Slot:        s,
			},
			Room:        r,
			Requirement: c.Requirement(),
			TTL:         opts.HoldTTL,
			CreatedBy:   opts.CreatedBy,
		})
		switch {
		case err == nil:
		case errors.Is(err, ErrSlotTakenByRoom):
			continue
		case errors.Is(err, ErrSlotTakenByProfessor), errors.Is(err, ErrProfessorUnavailable):
			return nil
		default:
			a.logger.Warn("自动排课预留失败", zap.String("course_id", c.ID), zap.Stringer("slot", s), zap.Error(err))
			return nil
		}

		assigned := &AssignedCourse{CourseID: c.ID, Placement: hold.Placement, HoldID: hold.ID}
		if !opts.Commit {
			return assigned
		}
		attr, err := a.final.Commit(ctx, hold.ID, opts.CreatedBy)
		if err != nil {
			a.logger.Warn("自动排课提交失败", zap.String("hold_id", hold.ID), zap.Error(err))
			if _, cerr := a.holds.Cancel(ctx, hold.ID); cerr != nil {
				a.logger.Debug("取消未提交的预留失败", zap.String("hold_id", hold.ID), zap.Error(cerr))
			}
			return nil
		}
		assigned.AttributionID = attr.ID
		return assigned
	}
	return nil
}

// anyAvailability 是否存在某个可授课教师在任一格子声明可用
func (a *AutomaticAssigner) anyAvailability(c CourseInstance) bool {
	for _, prof := range c.EligibleProfessors {
		for _, s := range AllSlots() {
			if a.registry.IsAvailable(prof, s) {
				return true
			}
		}
	}
	return false
}
