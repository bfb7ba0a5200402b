package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/internal/model"
)

// ErrProgrammeNotFound 培养方案不存在
var ErrProgrammeNotFound = errors.New("培养方案不存在")

// ReferenceRepository 参考数据（教师/教室/培养方案/课程实例）只读访问
// 同时实现 engine.ReferenceProvider
type ReferenceRepository interface {
	engine.ReferenceProvider
	Programme(ctx context.Context, id string) (*model.Programme, error)
	ListCourseInstances(ctx context.Context, programmeID string, group int) ([]model.CourseInstance, error)
}

type referenceRepo struct {
	db *gorm.DB
}

var _ ReferenceRepository = (*referenceRepo)(nil)

// NewReferenceRepo 创建 ReferenceRepository 实例
func NewReferenceRepo(db *gorm.DB) ReferenceRepository {
	return &referenceRepo{db: db}
}

func (r *referenceRepo) Professor(ctx context.Context, id string) (engine.Professor, error) {
	var p model.Professor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return engine.Professor{}, notFound(err, engine.ErrProfessorNotFound)
	}
	return engine.Professor{ID: p.ID, Name: p.Name}, nil
}

func (r *referenceRepo) Room(ctx context.Context, id string) (engine.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		return engine.Room{}, notFound(err, engine.ErrRoomNotFound)
	}
	return toEngineRoom(room), nil
}

func (r *referenceRepo) Rooms(ctx context.Context) ([]engine.Room, error) {
	var rooms []model.Room
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	out := make([]engine.Room, len(rooms))
	for i, room := range rooms {
		out[i] = toEngineRoom(room)
	}
	return out, nil
}

func (r *referenceRepo) CourseInstance(ctx context.Context, id string) (engine.CourseInstance, error) {
	var c model.CourseInstance
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return engine.CourseInstance{}, notFound(err, engine.ErrCourseNotFound)
	}
	return toEngineCourse(c), nil
}

func (r *referenceRepo) Programme(ctx context.Context, id string) (*model.Programme, error) {
	var p model.Programme
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, ErrProgrammeNotFound)
	}
	return &p, nil
}

func (r *referenceRepo) ListCourseInstances(ctx context.Context, programmeID string, group int) ([]model.CourseInstance, error) {
	var courses []model.CourseInstance
	db := r.db.WithContext(ctx).Where("programme_id = ?", programmeID)
	if group > 0 {
		db = db.Where("group_no = ?", group)
	}
	err := db.Order("name ASC").Find(&courses).Error
	return courses, err
}

// ── 转换 ──

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func toEngineRoom(r model.Room) engine.Room {
	return engine.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity, Kind: engine.RoomKind(r.Kind)}
}

func toEngineCourse(c model.CourseInstance) engine.CourseInstance {
	return engine.CourseInstance{
		ID:                 c.ID,
		Name:               c.Name,
		ProgrammeID:        c.ProgrammeID,
		Group:              c.GroupNo,
		DurationHours:      c.DurationHours,
		EligibleProfessors: []string(c.EligibleProfessors),
		RoomKind:           engine.RoomKind(c.RoomKind),
		Headcount:          c.Headcount,
	}
}
