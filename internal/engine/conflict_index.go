package engine

import (
	"fmt"
	"sync"
)

// EntryKind 占用记录归属：临时预留或正式排课
type EntryKind int

const (
	EntryHold EntryKind = iota + 1
	EntryAttribution
)

func (k EntryKind) String() string {
	switch k {
	case EntryHold:
		return "hold"
	case EntryAttribution:
		return "attribution"
	}
	return "unknown"
}

type roomSlot struct {
	room string
	slot Slot
}

type professorSlot struct {
	professor string
	slot      Slot
}

type reservation struct {
	kind      EntryKind
	room      string
	professor string
	slot      Slot
}

// ConflictIndex 教室/教师占用索引
//
// 覆盖所有 active 状态的临时预留与全部正式排课，是"某格子当前是否空闲"的唯一依据。
// 只能通过 TryReserve / Release / Relabel 修改，两张映射始终同步更新。
type ConflictIndex struct {
	mu              sync.RWMutex
	byRoomSlot      map[roomSlot]string
	byProfessorSlot map[professorSlot]string
	entries         map[string]reservation
}

// NewConflictIndex 创建空索引
func NewConflictIndex() *ConflictIndex {
	return &ConflictIndex{
		byRoomSlot:      make(map[roomSlot]string),
		byProfessorSlot: make(map[professorSlot]string),
		entries:         make(map[string]reservation),
	}
}

// TryReserve 原子地检查教室与教师在该格子均空闲并同时写入两张映射
// 失败时不产生任何修改，返回 *ConflictError
func (x *ConflictIndex) TryReserve(entryID string, kind EntryKind, room, professor string, s Slot) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSlot, s)
	}

	rk := roomSlot{room: room, slot: s}
	pk := professorSlot{professor: professor, slot: s}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.entries[entryID]; exists {
		return fmt.Errorf("占用记录 %s 已存在", entryID)
	}
	if holder, taken := x.byRoomSlot[rk]; taken {
		return &ConflictError{Kind: ErrSlotTakenByRoom, Slot: s, Holder: holder}
	}
	if holder, taken := x.byProfessorSlot[pk]; taken {
		return &ConflictError{Kind: ErrSlotTakenByProfessor, Slot: s, Holder: holder}
	}

	x.byRoomSlot[rk] = entryID
	x.byProfessorSlot[pk] = entryID
	x.entries[entryID] = reservation{kind: kind, room: room, professor: professor, slot: s}
	return nil
}

// Release 从两张映射中移除记录；记录不存在时为空操作
func (x *ConflictIndex) Release(entryID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	res, ok := x.entries[entryID]
	if !ok {
		return false
	}
	delete(x.byRoomSlot, roomSlot{room: res.room, slot: res.slot})
	delete(x.byProfessorSlot, professorSlot{professor: res.professor, slot: res.slot})
	delete(x.entries, entryID)
	return true
}

// Relabel 原地把占用记录转交给新的归属（临时预留 → 正式排课）
// 同一把锁内完成，不存在先释放再占用的空窗
func (x *ConflictIndex) Relabel(oldID, newID string, kind EntryKind) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	res, ok := x.entries[oldID]
	if !ok {
		return fmt.Errorf("占用记录 %s 不存在", oldID)
	}
	if _, exists := x.entries[newID]; exists && newID != oldID {
		return fmt.Errorf("占用记录 %s 已存在", newID)
	}

	delete(x.entries, oldID)
	res.kind = kind
	x.entries[newID] = res
	x.byRoomSlot[roomSlot{room: res.room, slot: res.slot}] = newID
	x.byProfessorSlot[professorSlot{professor: res.professor, slot: res.slot}] = newID
	return nil
}

// RoomHolder 返回占用该教室格子的记录 ID
func (x *ConflictIndex) RoomHolder(room string, s Slot) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, ok := x.byRoomSlot[roomSlot{room: room, slot: s}]
	return id, ok
}

// ProfessorHolder 返回占用该教师格子的记录 ID
func (x *ConflictIndex) ProfessorHolder(professor string, s Slot) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, ok := x.byProfessorSlot[professorSlot{professor: professor, slot: s}]
	return id, ok
}

// RoomFree 教室在该格子是否空闲
func (x *ConflictIndex) RoomFree(room string, s Slot) bool {
	_, taken := x.RoomHolder(room, s)
	return !taken
}

// ProfessorFree 教师在该格子是否空闲
func (x *ConflictIndex) ProfessorFree(professor string, s Slot) bool {
	_, taken := x.ProfessorHolder(professor, s)
	return !taken
}

// Kind 返回记录的归属类型
func (x *ConflictIndex) Kind(entryID string) (EntryKind, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	res, ok := x.entries[entryID]
	return res.kind, ok
}

// Len 当前占用记录数
func (x *ConflictIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}
