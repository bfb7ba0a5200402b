package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// FinalizationService 把临时预留转为正式排课记录，并负责撤销排课
//
// 与 HoldManager 共用协调锁，因此提交与过期扫描互斥：
// 已提交的预留不会再过期，已过期的预留也无法提交。
type FinalizationService struct {
	holds   *HoldManager
	index   *ConflictIndex
	store   Store
	metrics Metrics
	logger  *zap.Logger
	newID   func() string

	attributions map[string]*Attribution // 受 holds.mu 保护
}

func newFinalizationService(e *Engine, holds *HoldManager) *FinalizationService {
	return &FinalizationService{
		holds:        holds,
		index:        e.index,
		store:        e.store,
		metrics:      e.metrics,
		logger:       e.logger.Named("finalization"),
		newID:        e.newID,
		attributions: make(map[string]*Attribution),
	}
}

// Commit 提交临时预留，生成排课记录
// 占用记录在索引中原地转交，不会出现短暂空闲的格子
func (f *FinalizationService) Commit(ctx context.Context, holdID, committedBy string) (Attribution, error) {
	m := f.holds
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	h, err := m.activeLocked(ctx, holdID, now)
	if err != nil {
		return Attribution{}, err
	}

	if committedBy == "" {
		committedBy = h.CreatedBy
	}
	a := &Attribution{
		ID:        f.newID(),
		HoldID:    h.ID,
		Placement: h.Placement,
		CreatedAt: now,
		CreatedBy: committedBy,
	}

	if err := f.index.Relabel(h.ID, a.ID, EntryAttribution); err != nil {
		f.logger.Error("转交占用记录失败", zap.String("hold_id", h.ID), zap.Error(err))
		return Attribution{}, fmt.Errorf("提交临时预留失败: %w", err)
	}

	updated := *h
	updated.Status = HoldCommitted
	updated.ClosedAt = now
	updated.AttributionID = a.ID
	if err := f.store.CommitHold(ctx, &updated, a); err != nil {
		// 回滚索引归属，预留保持 active
		if rbErr := f.index.Relabel(a.ID, h.ID, EntryHold); rbErr != nil {
			f.logger.Error("回滚占用记录失败", zap.String("hold_id", h.ID), zap.Error(rbErr))
		}
		return Attribution{}, fmt.Errorf("保存排课记录失败: %w", err)
	}

	*h = updated
	m.closeLocked(h)
	f.attributions[a.ID] = a
	f.metrics.HoldCommitted()

	f.logger.Info("临时预留已提交",
		zap.String("hold_id", h.ID),
		zap.String("attribution_id", a.ID),
		zap.String("course_id", a.Placement.CourseID),
		zap.Stringer("slot", a.Placement.Slot),
	)
	return *a, nil
}

// Cancel 取消临时预留
func (f *FinalizationService) Cancel(ctx context.Context, holdID string) (Hold, error) {
	return f.holds.Cancel(ctx, holdID)
}

// Revert 撤销排课记录并释放其占用
// 对应的预留保持 committed 终态
func (f *FinalizationService) Revert(ctx context.Context, attributionID string) error {
	m := f.holds
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := f.attributions[attributionID]
	if !ok {
		return ErrAttributionNotFound
	}
	if err := f.store.DeleteAttribution(ctx, attributionID); err != nil {
		return fmt.Errorf("删除排课记录失败: %w", err)
	}

	f.index.Release(attributionID)
	delete(f.attributions, attributionID)
	f.metrics.AttributionReverted()

	f.logger.Info("排课记录已撤销",
		zap.String("attribution_id", attributionID),
		zap.String("course_id", a.Placement.CourseID),
	)
	return nil
}

// Get 读取排课记录
func (f *FinalizationService) Get(attributionID string) (Attribution, error) {
	f.holds.mu.RLock()
	defer f.holds.mu.RUnlock()

	a, ok := f.attributions[attributionID]
	if !ok {
		return Attribution{}, ErrAttributionNotFound
	}
	return *a, nil
}

// List 按条件列出排课记录，按格子规范顺序、教室 ID 排序
func (f *FinalizationService) List(filter AttributionFilter) []Attribution {
	f.holds.mu.RLock()
	defer f.holds.mu.RUnlock()

	result := make([]Attribution, 0)
	for _, a := range f.attributions {
		if filter.match(a) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		si, sj := result[i].Placement.Slot, result[j].Placement.Slot
		if si != sj {
			return si.Before(sj)
		}
		return result[i].Placement.RoomID < result[j].Placement.RoomID
	})
	return result
}

// restoreLocked 重启恢复排课记录；排课记录优先于临时预留占用格子
func (f *FinalizationService) restoreLocked(a Attribution) {
	attr := a
	p := attr.Placement
	if err := f.index.TryReserve(attr.ID, EntryAttribution, p.RoomID, p.ProfessorID, p.Slot); err != nil {
		f.logger.Error("恢复排课记录时发生冲突，已跳过", zap.String("attribution_id", attr.ID), zap.Error(err))
		return
	}
	f.attributions[attr.ID] = &attr
}
