package engine

import (
	"context"
	"sort"
	"sync"
)

// Snapshot 启动时从持久层恢复的状态
type Snapshot struct {
	Holds        []Hold // 仅 active
	Attributions []Attribution
	Availability map[string]Grid
}

// Store 临时预留与排课记录的持久层
//
// 引擎在协调锁内调用，内存状态是权威来源；持久层只负责落盘与重启恢复。
type Store interface {
	SaveHold(ctx context.Context, h *Hold) error
	// CommitHold 在同一事务中更新预留状态并写入排课记录
	CommitHold(ctx context.Context, h *Hold, a *Attribution) error
	DeleteAttribution(ctx context.Context, id string) error
	SaveAvailability(ctx context.Context, professorID string, g Grid) error
	Load(ctx context.Context) (*Snapshot, error)
}

// MemoryStore 进程内持久层，用于测试与无数据库运行
type MemoryStore struct {
	mu           sync.Mutex
	holds        map[string]Hold
	attributions map[string]Attribution
	availability map[string]Grid
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建空的内存持久层
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		holds:        make(map[string]Hold),
		attributions: make(map[string]Attribution),
		availability: make(map[string]Grid),
	}
}

func (s *MemoryStore) SaveHold(_ context.Context, h *Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[h.ID] = *h
	return nil
}

func (s *MemoryStore) CommitHold(_ context.Context, h *Hold, a *Attribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[h.ID] = *h
	s.attributions[a.ID] = *a
	return nil
}

func (s *MemoryStore) DeleteAttribution(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attributions, id)
	return nil
}

func (s *MemoryStore) SaveAvailability(_ context.Context, professorID string, g Grid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availability[professorID] = g.Clone()
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{Availability: make(map[string]Grid, len(s.availability))}
	for _, h := range s.holds {
		if h.Status == HoldActive {
			snap.Holds = append(snap.Holds, h)
		}
	}
	for _, a := range s.attributions {
		snap.Attributions = append(snap.Attributions, a)
	}
	for id, g := range s.availability {
		snap.Availability[id] = g.Clone()
	}
	sort.Slice(snap.Holds, func(i, j int) bool { return snap.Holds[i].ID < snap.Holds[j].ID })
	sort.Slice(snap.Attributions, func(i, j int) bool { return snap.Attributions[i].ID < snap.Attributions[j].ID })
	return snap, nil
}

// Hold 读取持久化的预留（测试辅助）
func (s *MemoryStore) Hold(id string) (Hold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	return h, ok
}

// AttributionCount 持久化的排课记录数（测试辅助）
func (s *MemoryStore) AttributionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attributions)
}
