package world

import (
	"container/heap"
	"time"
)

// Timer is a pending run-after-duration callback owned by a TimerQueue.
type Timer struct {
	due     time.Time
	period  time.Duration
	fn      func()
	index   int
	stopped bool
}

func (t *Timer) Stop() { t.stopped = true }

// TimerQueue is the shard loop's scheduling primitive: callbacks run on the
// loop goroutine when Advance passes their due time. No internal locking;
// all calls happen on the loop.
type TimerQueue struct {
	h timerHeap
}

func NewTimerQueue() *TimerQueue { return &TimerQueue{} }

// Schedule runs fn once after d.
func (q *TimerQueue) Schedule(now time.Time, d time.Duration, fn func()) *Timer {
	t := &Timer{due: now.Add(d), fn: fn}
	heap.Push(&q.h, t)
	return t
}

// ScheduleRepeating runs fn every period, first firing after period.
func (q *TimerQueue) ScheduleRepeating(now time.Time, period time.Duration, fn func()) *Timer {
	t := &Timer{due: now.Add(period), period: period, fn: fn}
	heap.Push(&q.h, t)
	return t
}

// Advance fires every timer due at or before now.
func (q *TimerQueue) Advance(now time.Time) {
	for len(q.h) > 0 {
		t := q.h[0]
		if t.stopped {
			heap.Pop(&q.h)
			continue
		}
		if t.due.After(now) {
			return
		}
		heap.Pop(&q.h)
		t.fn()
		if t.period > 0 && !t.stopped {
			t.due = now.Add(t.period)
			heap.Push(&q.h, t)
		}
	}
}

// NextDue reports the earliest pending due time, or zero when idle.
func (q *TimerQueue) NextDue() time.Time {
	for len(q.h) > 0 && q.h[0].stopped {
		heap.Pop(&q.h)
	}
	if len(q.h) == 0 {
		return time.Time{}
	}
	return q.h[0].due
}

type timerHeap []*Timer

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].due.Before(h[j].due) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
