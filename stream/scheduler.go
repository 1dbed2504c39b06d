package stream

import (
	"sync"
	"time"
)

// Scheduler supplies the current time to operators that need it. Now returns
// milliseconds; the epoch is implementation defined but stays fixed for the
// lifetime of a Scheduler. Implementations must be safe for concurrent use.
type Scheduler interface {
	Now() int64
}

// RealScheduler reads the system clock. Readings are derived from a monotonic
// base captured at construction so that wall clock jumps do not leak into
// intervals.
type RealScheduler struct {
	epoch time.Time
}

var _ Scheduler = (*RealScheduler)(nil)

// NewRealScheduler creates a RealScheduler anchored at the current time.
func NewRealScheduler() *RealScheduler {
	return &RealScheduler{epoch: time.Now()}
}

// Now returns Unix milliseconds advanced by the monotonic time elapsed since
// the scheduler was created.
func (s *RealScheduler) Now() int64 {
	return s.epoch.UnixMilli() + time.Since(s.epoch).Milliseconds()
}

// TestScheduler is a virtual clock for deterministic tests. Time only moves
// when AdvanceTimeBy or AdvanceTimeTo is called and starts at zero.
type TestScheduler struct {
	mu  sync.Mutex
	now time.Duration
}

var _ Scheduler = (*TestScheduler)(nil)

// NewTestScheduler creates a TestScheduler at time zero.
func NewTestScheduler() *TestScheduler {
	return &TestScheduler{}
}

// Now returns the virtual time in milliseconds.
func (s *TestScheduler) Now() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now.Milliseconds()
}

// AdvanceTimeBy moves the virtual clock forward by d.
func (s *TestScheduler) AdvanceTimeBy(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += d
}

// AdvanceTimeTo sets the virtual clock to t. Moving backwards is allowed so
// tests can exercise a clock that is not monotonic.
func (s *TestScheduler) AdvanceTimeTo(t time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}
