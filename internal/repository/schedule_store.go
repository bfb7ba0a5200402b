package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/internal/model"
	apperrors "uni-timetable/backend/pkg/errors"
)

// scheduleStore 排课引擎持久层（实现 engine.Store）
type scheduleStore struct {
	db *gorm.DB
}

var _ engine.Store = (*scheduleStore)(nil)

// NewScheduleStore 创建基于 PostgreSQL 的引擎持久层
func NewScheduleStore(db *gorm.DB) engine.Store {
	return &scheduleStore{db: db}
}

func (s *scheduleStore) SaveHold(ctx context.Context, h *engine.Hold) error {
	row := toHoldModel(h)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// CommitHold 在同一事务中更新预留状态并写入排课记录
func (s *scheduleStore) CommitHold(ctx context.Context, h *engine.Hold, a *engine.Attribution) error {
	hold := toHoldModel(h)
	attr := toAttributionModel(a)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 条件更新：只有仍为 active 的预留行才能提交
		result := tx.Model(&model.Hold{}).
			Where("id = ? AND status = ?", hold.ID, string(engine.HoldActive)).
			Updates(map[string]interface{}{
				"status":         hold.Status,
				"attribution_id": hold.AttributionID,
				"closed_at":      hold.ClosedAt,
				"updated_at":     hold.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("更新预留状态失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrStaleHold
		}
		if err := tx.Create(&attr).Error; err != nil {
			return fmt.Errorf("写入排课记录失败: %w", err)
		}
		return nil
	})
}

func (s *scheduleStore) DeleteAttribution(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Attribution{}).Error
}

func (s *scheduleStore) SaveAvailability(ctx context.Context, professorID string, g engine.Grid) error {
	slots := make(model.StringArray, 0, len(g))
	for _, slot := range g.AvailableSlots() {
		slots = append(slots, slot.String())
	}
	row := model.ProfessorAvailability{ProfessorID: professorID, Slots: slots, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// Load 读取可用性、全部排课记录与 active 预留
func (s *scheduleStore) Load(ctx context.Context) (*engine.Snapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &engine.Snapshot{Availability: make(map[string]engine.Grid)}

	var avail []model.ProfessorAvailability
	if err := db.Find(&avail).Error; err != nil {
		return nil, fmt.Errorf("查询可用性失败: %w", err)
	}
	for _, row := range avail {
		g, err := gridFromKeys(row.Slots)
		if err != nil {
			return nil, fmt.Errorf("教师 %s 可用性数据损坏: %w", row.ProfessorID, err)
		}
		snap.Availability[row.ProfessorID] = g
	}

	var attrs []model.Attribution
	if err := db.Order("created_at ASC, id ASC").Find(&attrs).Error; err != nil {
		return nil, fmt.Errorf("查询排课记录失败: %w", err)
	}
	for _, row := range attrs {
		a, err := fromAttributionModel(row)
		if err != nil {
			return nil, err
		}
		snap.Attributions = append(snap.Attributions, a)
	}

	var holds []model.Hold
	if err := db.Where("status = ?", string(engine.HoldActive)).Order("created_at ASC, id ASC").Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("查询临时预留失败: %w", err)
	}
	for _, row := range holds {
		h, err := fromHoldModel(row)
		if err != nil {
			return nil, err
		}
		snap.Holds = append(snap.Holds, h)
	}
	return snap, nil
}

// ── 转换 ──

func toHoldModel(h *engine.Hold) model.Hold {
	row := model.Hold{
		ID:          h.ID,
		ProfessorID: h.Placement.ProfessorID,
		RoomID:      h.Placement.RoomID,
		CourseID:    h.Placement.CourseID,
		ProgrammeID: h.Placement.ProgrammeID,
		GroupNo:     h.Placement.Group,
		Slot:        h.Placement.Slot.String(),
		Status:      string(h.Status),
		CreatedBy:   h.CreatedBy,
		CreatedAt:   h.CreatedAt,
		ExpiresAt:   h.ExpiresAt,
		UpdatedAt:   time.Now(),
	}
	if h.AttributionID != "" {
		id := h.AttributionID
		row.AttributionID = &id
	}
	if !h.ClosedAt.IsZero() {
		closed := h.ClosedAt
		row.ClosedAt = &closed
	}
	return row
}

func fromHoldModel(row model.Hold) (engine.Hold, error) {
	slot, err := engine.ParseSlot(row.Slot)
	if err != nil {
		return engine.Hold{}, fmt.Errorf("预留 %s 数据损坏: %w", row.ID, err)
	}
	h := engine.Hold{
		ID: row.ID,
		Placement: engine.Placement{
			ProfessorID: row.ProfessorID,
			RoomID:      row.RoomID,
			CourseID:    row.CourseID,
			ProgrammeID: row.ProgrammeID,
			Group:       row.GroupNo,
			Slot:        slot,
		},
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		Status:    engine.HoldStatus(row.Status),
		CreatedBy: row.CreatedBy,
	}
	if row.AttributionID != nil {
		h.AttributionID = *row.AttributionID
	}
	if row.ClosedAt != nil {
		h.ClosedAt = *row.ClosedAt
	}
	return h, nil
}

func toAttributionModel(a *engine.Attribution) model.Attribution {
	return model.Attribution{
		ID:          a.ID,
		HoldID:      a.HoldID,
		ProfessorID: a.Placement.ProfessorID,
		RoomID:      a.Placement.RoomID,
		CourseID:    a.Placement.CourseID,
		ProgrammeID: a.Placement.ProgrammeID,
		GroupNo:     a.Placement.Group,
		Slot:        a.Placement.Slot.String(),
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
	}
}

func fromAttributionModel(row model.Attribution) (engine.Attribution, error) {
	slot, err := engine.ParseSlot(row.Slot)
	if err != nil {
		return engine.Attribution{}, fmt.Errorf("排课记录 %s 数据损坏: %w", row.ID, err)
	}
	return engine.Attribution{
		ID:     row.ID,
		HoldID: row.HoldID,
		Placement: engine.Placement{
			ProfessorID: row.ProfessorID,
			RoomID:      row.RoomID,
			CourseID:    row.CourseID,
			ProgrammeID: row.ProgrammeID,
			Group:       row.GroupNo,
			Slot:        slot,
		},
		CreatedAt: row.CreatedAt,
		CreatedBy: row.CreatedBy,
	}, nil
}

func gridFromKeys(keys []string) (engine.Grid, error) {
	g := make(engine.Grid, len(keys))
	for _, k := range keys {
		slot, err := engine.ParseSlot(k)
		if err != nil {
			return nil, err
		}
		g[slot] = true
	}
	return g, nil
}
