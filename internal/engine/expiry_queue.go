package engine

import (
	"container/heap"
	"time"
)

// expiryQueue 待过期预留的小顶堆，按 ExpiresAt（相同则按 ID）排序
type expiryQueue struct {
	items []*queuedHold
	pos   map[string]*queuedHold
}

type queuedHold struct {
	id        string
	expiresAt time.Time
	index     int
}

func newExpiryQueue() *expiryQueue {
	return &expiryQueue{pos: make(map[string]*queuedHold)}
}

func (q *expiryQueue) Len() int { return len(q.items) }

func (q *expiryQueue) Less(i, j int) bool {
	if q.items[i].expiresAt.Equal(q.items[j].expiresAt) {
		return q.items[i].id < q.items[j].id
	}
	return q.items[i].expiresAt.Before(q.items[j].expiresAt)
}

func (q *expiryQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *expiryQueue) Push(x any) {
	item := x.(*queuedHold)
	item.index = len(q.items)
	q.items = append(q.items, item)
}

func (q *expiryQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	item.index = -1
	return item
}

// schedule 加入或更新预留的过期时间
func (q *expiryQueue) schedule(id string, expiresAt time.Time) {
	if item, ok := q.pos[id]; ok {
		item.expiresAt = expiresAt
		heap.Fix(q, item.index)
		return
	}
	item := &queuedHold{id: id, expiresAt: expiresAt}
	heap.Push(q, item)
	q.pos[id] = item
}

// remove 预留提交或取消后移出队列
func (q *expiryQueue) remove(id string) {
	item, ok := q.pos[id]
	if !ok {
		return
	}
	heap.Remove(q, item.index)
	delete(q.pos, id)
}

// popDue 弹出所有 expiresAt <= now 的预留 ID
func (q *expiryQueue) popDue(now time.Time) []string {
	var due []string
	for q.Len() > 0 && !q.items[0].expiresAt.After(now) {
		item := heap.Pop(q).(*queuedHold)
		delete(q.pos, item.id)
		due = append(due, item.id)
	}
	return due
}
