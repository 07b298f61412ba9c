// internal/sched/clock.go

package sched

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic millisecond time source.
type Clock interface {
	NowMS() int64
}

// MonotonicClock reports milliseconds elapsed since it was created.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) NowMS() int64 {
	return time.Since(c.start).Milliseconds()
}

// ManualClock only moves when told to. If Step is non-zero every reading
// advances the clock by Step ms after returning the current value, which
// lets a spinning scheduler make progress in tests.
type ManualClock struct {
	Step  int64
	count atomic.Int64
}

func (c *ManualClock) NowMS() int64 {
	if c.Step != 0 {
		return c.count.Add(c.Step) - c.Step
	}
	return c.count.Load()
}

// Advance moves the clock forward by ms.
func (c *ManualClock) Advance(ms int64) {
	c.count.Add(ms)
}

// Set moves the clock to an absolute reading.
func (c *ManualClock) Set(ms int64) {
	c.count.Store(ms)
}
