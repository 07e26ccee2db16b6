package testutil

import (
	"context"
	"sync"
	"time"
)

// FakeSleeper is an engine.Sleeper that returns immediately and records
// every requested duration.
//
// CancelAfter, when positive, cancels the attached context function once
// that many sleeps have completed, which lets tests interrupt a wait loop at
// a precise point.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration

	CancelAfter int
	Cancel      context.CancelFunc
}

// NewFakeSleeper creates a sleeper that never blocks.
func NewFakeSleeper() *FakeSleeper {
	return &FakeSleeper{}
}

// Sleep records d. It honours an already-cancelled context.
func (s *FakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	n := len(s.sleeps)
	s.mu.Unlock()

	if s.CancelAfter > 0 && n >= s.CancelAfter && s.Cancel != nil {
		s.Cancel()
		return ctx.Err()
	}
	return nil
}

// Count returns the number of completed sleeps.
func (s *FakeSleeper) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sleeps)
}

// Total returns the sum of all recorded durations.
func (s *FakeSleeper) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, d := range s.sleeps {
		total += d
	}
	return total
}

// Reset forgets recorded sleeps.
func (s *FakeSleeper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = nil
}
