package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is where NewDeterministicClock starts.
var DefaultEpoch = time.Date(2022, 6, 22, 10, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe wall clock for tests that advances by a
// fixed step on every reading.
//
// It satisfies ledger.Clock and trace.Clock, so the same scenario run twice
// produces identical timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int64
}

// NewDeterministicClock creates a clock at DefaultEpoch stepping one second.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpoch)
}

// NewDeterministicClockAt creates a clock whose first reading is start.
func NewDeterministicClockAt(start time.Time) *DeterministicClock {
	return &DeterministicClock{start: start.UTC(), step: time.Second}
}

// Now returns the next reading. The first call returns the start time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Readings returns how many times Now has been called.
func (c *DeterministicClock) Readings() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock so the next Now returns the start time again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
