package world

import (
	"testing"
	"time"
)

func TestTimerQueueOneShot(t *testing.T) {
	q := NewTimerQueue()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	fired := 0
	q.Schedule(now, time.Minute, func() { fired++ })

	q.Advance(now.Add(30 * time.Second))
	if fired != 0 {
		t.Fatalf("fired early")
	}
	q.Advance(now.Add(time.Minute))
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	q.Advance(now.Add(time.Hour))
	if fired != 1 {
		t.Fatalf("one-shot fired again")
	}
}

func TestTimerQueueOrderingAndRepeat(t *testing.T) {
	q := NewTimerQueue()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var order []string
	q.Schedule(now, 2*time.Minute, func() { order = append(order, "b") })
	q.Schedule(now, time.Minute, func() { order = append(order, "a") })
	ticks := 0
	q.ScheduleRepeating(now, 5*time.Minute, func() { ticks++ })

	q.Advance(now.Add(3 * time.Minute))
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v", order)
	}
	if ticks != 0 {
		t.Fatalf("repeating fired early")
	}

	q.Advance(now.Add(5 * time.Minute))
	if ticks != 1 {
		t.Fatalf("ticks = %d, want 1", ticks)
	}
	// Period rearms from the advance time.
	q.Advance(now.Add(10 * time.Minute))
	if ticks != 2 {
		t.Fatalf("ticks = %d, want 2", ticks)
	}

	if due := q.NextDue(); !due.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("next due = %v", due)
	}
}

func TestTimerStop(t *testing.T) {
	q := NewTimerQueue()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	fired := false
	timer := q.Schedule(now, time.Minute, func() { fired = true })
	timer.Stop()

	q.Advance(now.Add(time.Hour))
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if !q.NextDue().IsZero() {
		t.Fatalf("idle queue reports a due time")
	}
}

func TestRepeatingTimerStopsFromCallback(t *testing.T) {
	q := NewTimerQueue()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ticks := 0
	var timer *Timer
	timer = q.ScheduleRepeating(now, time.Minute, func() {
		ticks++
		if ticks == 2 {
			timer.Stop()
		}
	})

	for i := 1; i <= 5; i++ {
		q.Advance(now.Add(time.Duration(i) * time.Minute))
	}
	if ticks != 2 {
		t.Fatalf("ticks = %d, want 2", ticks)
	}
}
