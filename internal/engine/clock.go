package engine

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock is a monotonic logical clock used to order journal entries.
// All journal rows are stamped with Clock.Next(); wall time is never used
// for ordering.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Sleeper blocks for a duration or until ctx is done.
// The rate-limit wait loop is built on it so tests can run it instantly.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// WallSleeper sleeps on real timers.
type WallSleeper struct{}

// Sleep returns ctx.Err() if ctx ends first.
func (WallSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
