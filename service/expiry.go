package service

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// expiryScheduler fires a callback when scheduled deadlines come due.
// Deadlines live on a min-heap drained by a single goroutine, so a
// resolved invitation can cancel its entry before the timer fires.
type expiryScheduler struct {
	mu     sync.Mutex
	items  expiryHeap
	byID   map[string]*expiryItem
	wake   chan struct{}
	expire func(id string)
}

type expiryItem struct {
	id        string
	at        time.Time
	index     int
	cancelled bool
}

func newExpiryScheduler(expire func(id string)) *expiryScheduler {
	return &expiryScheduler{
		byID:   make(map[string]*expiryItem),
		wake:   make(chan struct{}, 1),
		expire: expire,
	}
}

// Schedule registers a deadline for id, replacing any existing one
func (s *expiryScheduler) Schedule(id string, at time.Time) {
	s.mu.Lock()
	if existing, ok := s.byID[id]; ok {
		existing.at = at
		heap.Fix(&s.items, existing.index)
	} else {
		item := &expiryItem{id: id, at: at}
		s.byID[id] = item
		heap.Push(&s.items, item)
	}
	s.mu.Unlock()
	s.kick()
}

// Cancel drops the deadline for id; a no-op when none is scheduled
func (s *expiryScheduler) Cancel(id string) {
	s.mu.Lock()
	if item, ok := s.byID[id]; ok {
		item.cancelled = true
		delete(s.byID, id)
	}
	s.mu.Unlock()
}

// Run drains deadlines until ctx is done
func (s *expiryScheduler) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		due, wait := s.collectDue(time.Now())
		for _, id := range due {
			s.expire(id)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// collectDue pops every deadline at or before now and returns the wait
// until the next one
func (s *expiryScheduler) collectDue(now time.Time) ([]string, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []string
	for s.items.Len() > 0 {
		next := s.items[0]
		if next.cancelled {
			heap.Pop(&s.items)
			continue
		}
		if next.at.After(now) {
			return due, next.at.Sub(now)
		}
		heap.Pop(&s.items)
		delete(s.byID, next.id)
		due = append(due, next.id)
	}
	return due, time.Hour
}

func (s *expiryScheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

type expiryHeap []*expiryItem

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x interface{}) {
	item := x.(*expiryItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
