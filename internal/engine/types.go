package engine

import (
	"context"
	"time"
)

// RoomKind 教室类型
type RoomKind string

const (
	RoomStandard RoomKind = "standard"
	RoomComputer RoomKind = "computer"
)

// Valid 空字符串表示不限类型
func (k RoomKind) Valid() bool {
	return k == "" || k == RoomStandard || k == RoomComputer
}

// Room 教室参考数据（只读）
type Room struct {
	ID       string
	Name     string
	Capacity int
	Kind     RoomKind
}

// RoomRequirement 由调用方给出的教室约束
type RoomRequirement struct {
	Kind        RoomKind // 空表示不限
	MinCapacity int
}

// Satisfies 教室是否满足类型与容量要求
func (r Room) Satisfies(req RoomRequirement) bool {
	if req.Kind != "" && r.Kind != req.Kind {
		return false
	}
	return r.Capacity >= req.MinCapacity
}

// Professor 教师参考数据（只读）
type Professor struct {
	ID   string
	Name string
}

// CourseInstance 待排课程实例：课程 × 培养方案 × 班组
type CourseInstance struct {
	ID                 string
	Name               string
	ProgrammeID        string
	Group              int
	DurationHours      int // 仅作展示，引擎不使用
	EligibleProfessors []string
	RoomKind           RoomKind
	Headcount          int
}

// Requirement 课程对教室的约束
func (c CourseInstance) Requirement() RoomRequirement {
	return RoomRequirement{Kind: c.RoomKind, MinCapacity: c.Headcount}
}

// Eligible 教师是否可授该课程
func (c CourseInstance) Eligible(professorID string) bool {
	for _, p := range c.EligibleProfessors {
		if p == professorID {
			return true
		}
	}
	return false
}

// Placement 一次排课落点
type Placement struct {
	ProfessorID string
	RoomID      string
	CourseID    string
	ProgrammeID string
	Group       int
	Slot        Slot
}

// HoldStatus 临时预留状态
type HoldStatus string

const (
	HoldActive    HoldStatus = "active"
	HoldCommitted HoldStatus = "committed"
	HoldExpired   HoldStatus = "expired"
	HoldCancelled HoldStatus = "cancelled"
)

// Terminal committed / expired / cancelled 均为终态
func (s HoldStatus) Terminal() bool { return s != HoldActive }

// Hold 临时预留
type Hold struct {
	ID            string
	Placement     Placement
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Status        HoldStatus
	CreatedBy     string
	ClosedAt      time.Time // 进入终态的时间
	AttributionID string    // committed 时指向生成的排课记录
}

// Remaining 距过期的剩余时长（不小于 0）
func (h Hold) Remaining(now time.Time) time.Duration {
	if h.Status != HoldActive || !now.Before(h.ExpiresAt) {
		return 0
	}
	return h.ExpiresAt.Sub(now)
}

// Attribution 正式排课记录
type Attribution struct {
	ID        string
	HoldID    string
	Placement Placement
	CreatedAt time.Time
	CreatedBy string
}

// HoldFilter 临时预留查询条件，空字段不参与过滤
type HoldFilter struct {
	ProfessorID string
	RoomID      string
	CourseID    string
	ProgrammeID string
	Group       *int
	CreatedBy   string
}

func (f HoldFilter) match(h *Hold) bool {
	return matchPlacement(h.Placement, f.ProfessorID, f.RoomID, f.CourseID, f.ProgrammeID, f.Group) &&
		(f.CreatedBy == "" || f.CreatedBy == h.CreatedBy)
}

// AttributionFilter 排课记录查询条件
type AttributionFilter struct {
	ProfessorID string
	RoomID      string
	CourseID    string
	ProgrammeID string
	Group       *int
}

func (f AttributionFilter) match(a *Attribution) bool {
	return matchPlacement(a.Placement, f.ProfessorID, f.RoomID, f.CourseID, f.ProgrammeID, f.Group)
}

func matchPlacement(p Placement, professorID, roomID, courseID, programmeID string, group *int) bool {
	switch {
	case professorID != "" && p.ProfessorID != professorID:
		return false
	case roomID != "" && p.RoomID != roomID:
		return false
	case courseID != "" && p.CourseID != courseID:
		return false
	case programmeID != "" && p.ProgrammeID != programmeID:
		return false
	case group != nil && p.Group != *group:
		return false
	}
	return true
}

// ReferenceProvider 参考数据提供方（教师/教室/课程），引擎只读
type ReferenceProvider interface {
	Professor(ctx context.Context, id string) (Professor, error)
	Room(ctx context.Context, id string) (Room, error)
	Rooms(ctx context.Context) ([]Room, error)
	CourseInstance(ctx context.Context, id string) (CourseInstance, error)
}
