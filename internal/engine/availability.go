package engine

import (
	"fmt"
	"sync"
)

// Grid 教师周可用性网格：格子 → 是否可用
// 未出现的格子视为不可用
type Grid map[Slot]bool

// FullGrid 全部 18 个格子均可用
func FullGrid() Grid {
	g := make(Grid, SlotsPerWeek)
	for _, s := range AllSlots() {
		g[s] = true
	}
	return g
}

// Validate 所有键必须是 6×3 固定网格中的格子
func (g Grid) Validate() error {
	for s := range g {
		if !s.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidSlot, s)
		}
	}
	return nil
}

// Clone 深拷贝
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for s, v := range g {
		out[s] = v
	}
	return out
}

// AvailableSlots 按规范顺序返回可用格子
func (g Grid) AvailableSlots() []Slot {
	var slots []Slot
	for _, s := range AllSlots() {
		if g[s] {
			slots = append(slots, s)
		}
	}
	return slots
}

// AvailabilityRegistry 教师可用性登记表
//
// 读多写少：IsAvailable / Get 可并发执行；Set 为整表替换（非合并）。
type AvailabilityRegistry struct {
	mu    sync.RWMutex
	grids map[string]Grid
}

// NewAvailabilityRegistry 创建空的可用性登记表
func NewAvailabilityRegistry() *AvailabilityRegistry {
	return &AvailabilityRegistry{grids: make(map[string]Grid)}
}

// Get 返回教师网格的副本；未登记的教师返回空网格与 false
func (r *AvailabilityRegistry) Get(professorID string) (Grid, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.grids[professorID]
	if !ok {
		return Grid{}, false
	}
	return g.Clone(), true
}

// Set 校验后整表替换教师网格
func (r *AvailabilityRegistry) Set(professorID string, grid Grid) error {
	if err := grid.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.grids[professorID] = grid.Clone()
	r.mu.Unlock()
	return nil
}

// IsAvailable 教师或格子未知时返回 false
func (r *AvailabilityRegistry) IsAvailable(professorID string, s Slot) bool {
	if !s.Valid() {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.grids[professorID][s]
}
