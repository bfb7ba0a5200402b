//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/internal/model"
	"uni-timetable/backend/internal/repository"
	"uni-timetable/backend/pkg/database"
	apperrors "uni-timetable/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=timetable password=timetable_password dbname=timetable_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

type fixture struct {
	professor string
	room      string
	programme string
	course    string
}

// setupTestData 创建基础参考数据并返回清理函数
func setupTestData(t *testing.T) (*fixture, func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	f := &fixture{
		professor: fmt.Sprintf("prof-%d", suffix),
		room:      fmt.Sprintf("room-%d", suffix),
		programme: fmt.Sprintf("L1-%d", suffix),
		course:    fmt.Sprintf("course-%d", suffix),
	}

	rows := []interface{}{
		&model.Professor{ID: f.professor, Name: "测试教师"},
		&model.Room{ID: f.room, Name: "A101", Capacity: 40, Kind: "standard"},
		&model.Programme{ID: f.programme, Name: "L1 INFO", Level: "L1", Term: 1, GroupCount: 2},
		&model.CourseInstance{
			ID: f.course, Name: "算法导论", ProgrammeID: f.programme, GroupNo: 1,
			RoomKind: "standard", Headcount: 30, EligibleProfessors: model.StringArray{f.professor},
		},
	}
	for _, row := range rows {
		if err := testDB.WithContext(ctx).Create(row).Error; err != nil {
			t.Fatalf("创建测试数据失败: %v", err)
		}
	}

	cleanup := func() {
		testDB.Where("professor_id = ?", f.professor).Delete(&model.Attribution{})
		testDB.Where("professor_id = ?", f.professor).Delete(&model.Hold{})
		testDB.Where("professor_id = ?", f.professor).Delete(&model.ProfessorAvailability{})
		testDB.Unscoped().Where("id = ?", f.course).Delete(&model.CourseInstance{})
		testDB.Unscoped().Where("id = ?", f.programme).Delete(&model.Programme{})
		testDB.Unscoped().Where("id = ?", f.room).Delete(&model.Room{})
		testDB.Unscoped().Where("id = ?", f.professor).Delete(&model.Professor{})
	}
	return f, cleanup
}

func newHold(f *fixture, id string, slot engine.Slot) *engine.Hold {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &engine.Hold{
		ID: id,
		Placement: engine.Placement{
			ProfessorID: f.professor, RoomID: f.room, CourseID: f.course,
			ProgrammeID: f.programme, Group: 1, Slot: slot,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
		Status:    engine.HoldActive,
		CreatedBy: "admin",
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Reference
// ═══════════════════════════════════════════════════════════

func TestReferenceRepo(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	c, err := repo.Reference.CourseInstance(ctx, f.course)
	if err != nil {
		t.Fatalf("查询课程失败: %v", err)
	}
	if !c.Eligible(f.professor) {
		t.Errorf("期望 %s 可授课, 实际 eligible=%v", f.professor, c.EligibleProfessors)
	}
	if c.RoomKind != engine.RoomStandard || c.Headcount != 30 {
		t.Errorf("课程字段不匹配: %+v", c)
	}

	room, err := repo.Reference.Room(ctx, f.room)
	if err != nil {
		t.Fatalf("查询教室失败: %v", err)
	}
	if room.Capacity != 40 {
		t.Errorf("期望 capacity=40, 实际=%d", room.Capacity)
	}

	if _, err := repo.Reference.Professor(ctx, "missing"); !errors.Is(err, engine.ErrProfessorNotFound) {
		t.Errorf("期望 ErrProfessorNotFound, 实际: %v", err)
	}
	if _, err := repo.Reference.CourseInstance(ctx, "missing"); !errors.Is(err, engine.ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound, 实际: %v", err)
	}
	if _, err := repo.Reference.Programme(ctx, "missing"); !errors.Is(err, repository.ErrProgrammeNotFound) {
		t.Errorf("期望 ErrProgrammeNotFound, 实际: %v", err)
	}

	courses, err := repo.Reference.ListCourseInstances(ctx, f.programme, 1)
	if err != nil || len(courses) != 1 {
		t.Errorf("期望 1 门课程, 实际=%d err=%v", len(courses), err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Store
// ═══════════════════════════════════════════════════════════

func TestScheduleStore_CommitAndLoad(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	store := repository.NewScheduleStore(testDB)
	ctx := context.Background()
	mon1 := engine.Slot{Day: engine.Monday, Period: engine.S1}
	tue2 := engine.Slot{Day: engine.Tuesday, Period: engine.S2}

	if err := store.SaveAvailability(ctx, f.professor, engine.Grid{mon1: true, tue2: true}); err != nil {
		t.Fatalf("保存可用性失败: %v", err)
	}

	committed := newHold(f, f.professor+"-h1", mon1)
	if err := store.SaveHold(ctx, committed); err != nil {
		t.Fatalf("保存预留失败: %v", err)
	}
	active := newHold(f, f.professor+"-h2", tue2)
	if err := store.SaveHold(ctx, active); err != nil {
		t.Fatalf("保存预留失败: %v", err)
	}

	committed.Status = engine.HoldCommitted
	committed.ClosedAt = time.Now().UTC()
	committed.AttributionID = f.professor + "-a1"
	attr := &engine.Attribution{
		ID: committed.AttributionID, HoldID: committed.ID,
		Placement: committed.Placement, CreatedAt: committed.ClosedAt, CreatedBy: "admin",
	}
	if err := store.CommitHold(ctx, committed, attr); err != nil {
		t.Fatalf("提交预留失败: %v", err)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	grid := snap.Availability[f.professor]
	if !grid[mon1] || !grid[tue2] || len(grid.AvailableSlots()) != 2 {
		t.Errorf("可用性不匹配: %v", grid.AvailableSlots())
	}

	var foundAttr, foundActive bool
	for _, a := range snap.Attributions {
		if a.ID == attr.ID {
			foundAttr = a.Placement == attr.Placement
		}
	}
	for _, h := range snap.Holds {
		if h.ID == committed.ID {
			t.Errorf("已提交的预留不应出现在 active 列表")
		}
		if h.ID == active.ID {
			foundActive = true
		}
	}
	if !foundAttr {
		t.Error("期望加载到排课记录")
	}
	if !foundActive {
		t.Error("期望加载到 active 预留")
	}

	if err := store.DeleteAttribution(ctx, attr.ID); err != nil {
		t.Fatalf("删除排课记录失败: %v", err)
	}
}

// TestScheduleStore_CommitRollback 唯一索引冲突时整个事务回滚，预留状态不变
func TestScheduleStore_CommitRollback(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	store := repository.NewScheduleStore(testDB)
	ctx := context.Background()
	mon1 := engine.Slot{Day: engine.Monday, Period: engine.S1}

	first := newHold(f, f.professor+"-h1", mon1)
	second := newHold(f, f.professor+"-h2", mon1)
	for _, h := range []*engine.Hold{first, second} {
		if err := store.SaveHold(ctx, h); err != nil {
			t.Fatalf("保存预留失败: %v", err)
		}
	}

	commit := func(h *engine.Hold, attrID string) error {
		updated := *h
		updated.Status = engine.HoldCommitted
		updated.AttributionID = attrID
		updated.ClosedAt = time.Now().UTC()
		return store.CommitHold(ctx, &updated, &engine.Attribution{
			ID: attrID, HoldID: h.ID, Placement: h.Placement, CreatedAt: updated.ClosedAt,
		})
	}

	if err := commit(first, f.professor+"-a1"); err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}
	if err := commit(second, f.professor+"-a2"); err == nil {
		t.Fatal("期望同一教室同一格子的第二条排课记录被唯一索引拒绝")
	}

	var row model.Hold
	if err := testDB.Where("id = ?", second.ID).First(&row).Error; err != nil {
		t.Fatalf("查询预留失败: %v", err)
	}
	if row.Status != string(engine.HoldActive) {
		t.Errorf("期望回滚后 status=active, 实际=%s", row.Status)
	}

	// 已提交的预留不能再次提交
	if err := commit(first, f.professor+"-a3"); !errors.Is(err, apperrors.ErrStaleHold) {
		t.Errorf("期望重复提交返回 ErrStaleHold, 实际=%v", err)
	}
}
