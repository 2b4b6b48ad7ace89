package testutil

import (
	"sync"
	"time"
)

// SnapshotEpoch is the instant FixedClock reports: 2024-01-15 10:30:00 UTC.
var SnapshotEpoch = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// StepClock reports start on its first call and moves forward by step on
// every call after that, so consecutive snapshots get distinct, ordered
// timestamps. Safe for concurrent use.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepClock creates a clock starting at start that advances by step per reading.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{next: start, step: step}
}

// FixedClock returns a clock that always reports SnapshotEpoch.
func FixedClock() *StepClock {
	return NewStepClock(SnapshotEpoch, 0)
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}
