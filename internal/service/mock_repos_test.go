package service

import (
	"context"
	"sort"

	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/internal/model"
	"uni-timetable/backend/internal/repository"
)

// ── Mock ReferenceRepository ──

type mockReferenceRepo struct {
	professors map[string]model.Professor
	rooms      map[string]model.Room
	programmes map[string]model.Programme
	courses    map[string]model.CourseInstance
}

func newMockReferenceRepo() *mockReferenceRepo {
	return &mockReferenceRepo{
		professors: make(map[string]model.Professor),
		rooms:      make(map[string]model.Room),
		programmes: make(map[string]model.Programme),
		courses:    make(map[string]model.CourseInstance),
	}
}

func (m *mockReferenceRepo) Professor(_ context.Context, id string) (engine.Professor, error) {
	p, ok := m.professors[id]
	if !ok {
		return engine.Professor{}, engine.ErrProfessorNotFound
	}
	return engine.Professor{ID: p.ID, Name: p.Name}, nil
}

func (m *mockReferenceRepo) Room(_ context.Context, id string) (engine.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return engine.Room{}, engine.ErrRoomNotFound
	}
	return engine.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity, Kind: engine.RoomKind(r.Kind)}, nil
}

func (m *mockReferenceRepo) Rooms(ctx context.Context) ([]engine.Room, error) {
	var out []engine.Room
	for id := range m.rooms {
		r, _ := m.Room(ctx, id)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockReferenceRepo) CourseInstance(_ context.Context, id string) (engine.CourseInstance, error) {
	c, ok := m.courses[id]
	if !ok {
		return engine.CourseInstance{}, engine.ErrCourseNotFound
	}
	return engine.CourseInstance{
		ID:                 c.ID,
		Name:               c.Name,
		ProgrammeID:        c.ProgrammeID,
		Group:              c.GroupNo,
		EligibleProfessors: []string(c.EligibleProfessors),
		RoomKind:           engine.RoomKind(c.RoomKind),
		Headcount:          c.Headcount,
	}, nil
}

func (m *mockReferenceRepo) Programme(_ context.Context, id string) (*model.Programme, error) {
	p, ok := m.programmes[id]
	if !ok {
		return nil, repository.ErrProgrammeNotFound
	}
	return &p, nil
}

func (m *mockReferenceRepo) ListCourseInstances(_ context.Context, programmeID string, group int) ([]model.CourseInstance, error) {
	var out []model.CourseInstance
	for _, c := range m.courses {
		if c.ProgrammeID == programmeID && (group == 0 || c.GroupNo == group) {
			out = append(out, c)
		}
	}
	return out, nil
}

// seed 两位教师、两间教室、一个两组的培养方案
func (m *mockReferenceRepo) seed() {
	m.professors["p1"] = model.Professor{ID: "p1", Name: "张老师"}
	m.professors["p2"] = model.Professor{ID: "p2", Name: "李老师"}
	m.rooms["r1"] = model.Room{ID: "r1", Name: "A101", Capacity: 40, Kind: "standard"}
	m.rooms["lab"] = model.Room{ID: "lab", Name: "机房 B2", Capacity: 20, Kind: "computer"}
	m.programmes["L1-INFO"] = model.Programme{ID: "L1-INFO", Name: "L1 INFO", Level: "L1", Term: 1, GroupCount: 2}
	m.courses["algo"] = model.CourseInstance{
		ID: "algo", Name: "算法导论", ProgrammeID: "L1-INFO", GroupNo: 1,
		RoomKind: "standard", Headcount: 30, EligibleProfessors: model.StringArray{"p1"},
	}
	m.courses["db"] = model.CourseInstance{
		ID: "db", Name: "数据库", ProgrammeID: "L1-INFO", GroupNo: 2,
		RoomKind: "standard", Headcount: 30, EligibleProfessors: model.StringArray{"p1", "p2"},
	}
	m.courses["tp"] = model.CourseInstance{
		ID: "tp", Name: "编程实验", ProgrammeID: "L1-INFO", GroupNo: 1,
		RoomKind: "computer", Headcount: 18, EligibleProfessors: model.StringArray{"p2"},
	}
}
