package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ProposeRequest 创建临时预留的参数
type ProposeRequest struct {
	Placement   Placement
	Room        Room            // 目标教室的参考数据
	Requirement RoomRequirement // 调用方给出的教室约束
	TTL         time.Duration
	CreatedBy   string
}

// HoldManager 临时预留管理
//
// 状态机：active → committed | cancelled | expired，三者均为终态。
// 过期采用双机制：
//   - 惰性：读取/提交/新建预留时发现已到期的预留，先释放占用再返回；
//   - 主动：Run 按固定间隔扫描到期预留，避免被遗弃的预留长期占用格子。
type HoldManager struct {
	// mu 协调锁：预留、提交、取消、延期、过期扫描、可用性更新、撤销排课均在写锁内串行执行
	mu sync.RWMutex

	clock     clockwork.Clock
	registry  *AvailabilityRegistry
	index     *ConflictIndex
	store     Store
	metrics   Metrics
	logger    *zap.Logger
	newID     func() string
	maxTTL    time.Duration
	retention time.Duration

	holds  map[string]*Hold
	queue  *expiryQueue
	active int
}

func newHoldManager(e *Engine) *HoldManager {
	return &HoldManager{
		clock:     e.clock,
		registry:  e.registry,
		index:     e.index,
		store:     e.store,
		metrics:   e.metrics,
		logger:    e.logger.Named("hold"),
		newID:     e.newID,
		maxTTL:    e.cfg.MaxHoldTTL,
		retention: e.cfg.HoldRetention,
		holds:     make(map[string]*Hold),
		queue:     newExpiryQueue(),
	}
}

// Propose 校验并原子地占用格子，生成 active 状态的临时预留
//
// 校验顺序：格子合法 → 教师可用 → 教室类型/容量 → 占用索引
func (m *HoldManager) Propose(ctx context.Context, req ProposeRequest) (Hold, error) {
	h, err := m.propose(ctx, req)
	if err != nil {
		m.metrics.ProposalRejected(Kind(err))
		return Hold{}, err
	}
	m.metrics.HoldProposed()
	return h, nil
}

func (m *HoldManager) propose(ctx context.Context, req ProposeRequest) (Hold, error) {
	p := req.Placement
	if !p.Slot.Valid() {
		return Hold{}, fmt.Errorf("%w: %s", ErrInvalidSlot, p.Slot)
	}
	if err := m.checkTTL(req.TTL); err != nil {
		return Hold{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	// 惰性过期：先释放已到期但尚未被扫描的预留
	m.expireDueLocked(ctx, now)

	if !m.registry.IsAvailable(p.ProfessorID, p.Slot) {
		return Hold{}, ErrProfessorUnavailable
	}
	if !req.Room.Satisfies(req.Requirement) {
		return Hold{}, ErrRoomCapacityInsufficient
	}

	id := m.newID()
	if err := m.index.TryReserve(id, EntryHold, p.RoomID, p.ProfessorID, p.Slot); err != nil {
		return Hold{}, err
	}

	h := &Hold{
		ID:        id,
		Placement: p,
		CreatedAt: now,
		ExpiresAt: now.Add(req.TTL),
		Status:    HoldActive,
		CreatedBy: req.CreatedBy,
	}
	if err := m.store.SaveHold(ctx, h); err != nil {
		m.index.Release(id)
		m.logger.Error("保存临时预留失败", zap.String("hold_id", id), zap.Error(err))
		return Hold{}, fmt.Errorf("保存临时预留失败: %w", err)
	}

	m.holds[id] = h
	m.queue.schedule(id, h.ExpiresAt)
	m.setActive(m.active + 1)

	m.logger.Info("临时预留已创建",
		zap.String("hold_id", id),
		zap.String("professor_id", p.ProfessorID),
		zap.String("room_id", p.RoomID),
		zap.Stringer("slot", p.Slot),
		zap.Time("expires_at", h.ExpiresAt),
	)
	return *h, nil
}

// Get 读取预留；已到期的 active 预留在此被标记为 expired 并释放占用
func (m *HoldManager) Get(ctx context.Context, id string) (Hold, error) {
	m.mu.RLock()
	h, ok := m.holds[id]
	if !ok {
		m.mu.RUnlock()
		return Hold{}, ErrHoldNotFound
	}
	now := m.clock.Now()
	if h.Status != HoldActive || now.Before(h.ExpiresAt) {
		out := *h
		m.mu.RUnlock()
		return out, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok = m.holds[id]
	if !ok {
		return Hold{}, ErrHoldNotFound
	}
	if h.Status == HoldActive && !m.clock.Now().Before(h.ExpiresAt) {
		m.expireLocked(ctx, h, m.clock.Now())
		m.metrics.HoldsExpired(1)
	}
	return *h, nil
}

// Extend 延长仍处于 active 且未到期的预留
func (m *HoldManager) Extend(ctx context.Context, id string, extra time.Duration) (Hold, error) {
	if extra <= 0 {
		return Hold{}, ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	h, err := m.activeLocked(ctx, id, now)
	if err != nil {
		return Hold{}, err
	}

	newExpiry := h.ExpiresAt.Add(extra)
	if m.maxTTL > 0 && newExpiry.Sub(now) > m.maxTTL {
		return Hold{}, fmt.Errorf("%w: 延期后剩余时长超过上限 %s", ErrInvalidTTL, m.maxTTL)
	}

	updated := *h
	updated.ExpiresAt = newExpiry
	if err := m.store.SaveHold(ctx, &updated); err != nil {
		return Hold{}, fmt.Errorf("保存临时预留失败: %w", err)
	}
	*h = updated
	m.queue.schedule(id, newExpiry)

	m.logger.Info("临时预留已延期", zap.String("hold_id", id), zap.Time("expires_at", newExpiry))
	return *h, nil
}

// Cancel 取消 active 预留并立即释放占用
func (m *HoldManager) Cancel(ctx context.Context, id string) (Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	h, err := m.activeLocked(ctx, id, now)
	if err != nil {
		if errors.Is(err, ErrHoldExpiredDuringCommit) {
			return Hold{}, fmt.Errorf("%w: 预留已过期", ErrHoldNotActive)
		}
		return Hold{}, err
	}

	updated := *h
	updated.Status = HoldCancelled
	updated.ClosedAt = now
	if err := m.store.SaveHold(ctx, &updated); err != nil {
		return Hold{}, fmt.Errorf("保存临时预留失败: %w", err)
	}
	*h = updated
	m.index.Release(id)
	m.queue.remove(id)
	m.setActive(m.active - 1)
	m.metrics.HoldCancelled()

	m.logger.Info("临时预留已取消", zap.String("hold_id", id))
	return *h, nil
}

// ListActive 返回所有未到期的 active 预留（按创建时间排序）
// 已到期但未被扫描的预留不会出现在结果中
func (m *HoldManager) ListActive(filter HoldFilter) []Hold {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	result := make([]Hold, 0)
	for _, h := range m.holds {
		if h.Status != HoldActive || !now.Before(h.ExpiresAt) {
			continue
		}
		if filter.match(h) {
			result = append(result, *h)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Sweep 主动过期：处理所有到期预留，并清理超过保留期的终态预留
// 返回本次过期的预留数
func (m *HoldManager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	n := m.expireDueLocked(ctx, now)
	m.purgeLocked(now)
	return n
}

// ExpireDue 惰性过期：释放已到期但尚未被扫描的预留，不清理终态记录
func (m *HoldManager) ExpireDue(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expireDueLocked(ctx, m.clock.Now())
}

// Run 按固定间隔执行 Sweep，直到 ctx 结束
func (m *HoldManager) Run(ctx context.Context, interval time.Duration) {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("过期扫描已启动", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("过期扫描已停止")
			return
		case <-ticker.Chan():
			if n := m.Sweep(ctx); n > 0 {
				m.logger.Info("过期扫描完成", zap.Int("expired", n))
			}
		}
	}
}

// ── 内部方法（调用方须持有 m.mu 写锁） ──

// activeLocked 取出可继续操作的 active 预留；到期则先过期释放再返回错误
func (m *HoldManager) activeLocked(ctx context.Context, id string, now time.Time) (*Hold, error) {
	h, ok := m.holds[id]
	if !ok {
		return nil, ErrHoldNotFound
	}
	switch h.Status {
	case HoldExpired:
		return nil, ErrHoldExpiredDuringCommit
	case HoldCommitted, HoldCancelled:
		return nil, fmt.Errorf("%w: 当前状态 %s", ErrHoldNotActive, h.Status)
	}
	if !now.Before(h.ExpiresAt) {
		m.expireLocked(ctx, h, now)
		m.metrics.HoldsExpired(1)
		return nil, ErrHoldExpiredDuringCommit
	}
	return h, nil
}

// expireLocked 将 active 预留置为 expired 并释放占用
// 内存状态为准：落盘失败只记录日志，重启恢复时会跳过已到期的预留
func (m *HoldManager) expireLocked(ctx context.Context, h *Hold, now time.Time) {
	h.Status = HoldExpired
	h.ClosedAt = now
	m.index.Release(h.ID)
	m.queue.remove(h.ID)
	m.setActive(m.active - 1)

	if err := m.store.SaveHold(ctx, h); err != nil {
		m.logger.Warn("保存过期状态失败", zap.String("hold_id", h.ID), zap.Error(err))
	}
	m.logger.Debug("临时预留已过期", zap.String("hold_id", h.ID))
}

func (m *HoldManager) expireDueLocked(ctx context.Context, now time.Time) int {
	n := 0
	for _, id := range m.queue.popDue(now) {
		h, ok := m.holds[id]
		if !ok || h.Status != HoldActive {
			continue
		}
		m.expireLocked(ctx, h, now)
		n++
	}
	if n > 0 {
		m.metrics.HoldsExpired(n)
	}
	return n
}

// purgeLocked 删除超过保留期的终态预留，之后读取将返回 ErrHoldNotFound
func (m *HoldManager) purgeLocked(now time.Time) {
	if m.retention <= 0 {
		return
	}
	for id, h := range m.holds {
		if h.Status.Terminal() && !now.Before(h.ClosedAt.Add(m.retention)) {
			delete(m.holds, id)
		}
	}
}

// closeLocked 提交后移出过期队列（占用由 FinalizationService 原地转交）
func (m *HoldManager) closeLocked(h *Hold) {
	m.queue.remove(h.ID)
	m.setActive(m.active - 1)
}

// restoreLocked 重启恢复单个 active 预留
func (m *HoldManager) restoreLocked(ctx context.Context, h Hold, now time.Time) {
	hold := h
	m.holds[hold.ID] = &hold

	if !now.Before(hold.ExpiresAt) {
		hold.Status = HoldExpired
		hold.ClosedAt = now
		if err := m.store.SaveHold(ctx, &hold); err != nil {
			m.logger.Warn("保存过期状态失败", zap.String("hold_id", hold.ID), zap.Error(err))
		}
		return
	}

	p := hold.Placement
	if err := m.index.TryReserve(hold.ID, EntryHold, p.RoomID, p.ProfessorID, p.Slot); err != nil {
		m.logger.Warn("恢复临时预留时发生冲突，已取消", zap.String("hold_id", hold.ID), zap.Error(err))
		hold.Status = HoldCancelled
		hold.ClosedAt = now
		if err := m.store.SaveHold(ctx, &hold); err != nil {
			m.logger.Warn("保存取消状态失败", zap.String("hold_id", hold.ID), zap.Error(err))
		}
		return
	}
	m.queue.schedule(hold.ID, hold.ExpiresAt)
	m.setActive(m.active + 1)
}

func (m *HoldManager) setActive(n int) {
	m.active = n
	m.metrics.ActiveHolds(n)
}

func (m *HoldManager) checkTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if m.maxTTL > 0 && ttl > m.maxTTL {
		return fmt.Errorf("%w: 超过上限 %s", ErrInvalidTTL, m.maxTTL)
	}
	return nil
}
