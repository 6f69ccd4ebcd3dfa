// README: Priority queue of pending matching work; urgency first, FIFO within tier.
package matching

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"logishare/internal/types"
)

// Item is one unit of matching work. Retries carry the expanded radius and
// the attempt count forward.
type Item struct {
	ShipmentID  types.ID
	UrgencyRank int
	RequestedAt time.Time
	RadiusKm    float64
	Attempt     int
}

// Queue is a concurrency-safe priority queue. Pop blocks until an item is
// available or the context ends.
type Queue struct {
	mu     sync.Mutex
	items  itemHeap
	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

func (q *Queue) Push(it Item) {
	q.mu.Lock()
	heap.Push(&q.items, it)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes the highest-priority item, blocking while the queue is empty.
// Returns false only when ctx is done.
func (q *Queue) Pop(ctx context.Context) (Item, bool) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			it := heap.Pop(&q.items).(Item)
			q.mu.Unlock()
			return it, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Item{}, false
		case <-q.notify:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

type itemHeap []Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].UrgencyRank != h[j].UrgencyRank {
		return h[i].UrgencyRank > h[j].UrgencyRank
	}
	return h[i].RequestedAt.Before(h[j].RequestedAt)
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(Item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
