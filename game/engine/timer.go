package engine

import (
	"sync"
	"time"
)

// Timer is a cancel handle for a scheduled callback
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already ran.
	Stop() bool
}

// Scheduler runs a callback once after a delay without blocking the caller
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules callbacks on the runtime timer
type RealScheduler struct{}

// AfterFunc implements Scheduler using time.AfterFunc
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler holds callbacks until Flush is called.
// It makes the settle delay deterministic for tests and step-by-step tools.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
	delays  []time.Duration
}

type manualTimer struct {
	mu      sync.Mutex
	fn      func()
	done    bool
	stopped bool
}

// Stop cancels the callback if it has not run yet
func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc records the callback without running it
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{fn: f}
	s.pending = append(s.pending, t)
	s.delays = append(s.delays, d)
	return t
}

// Pending returns the number of callbacks neither run nor stopped
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, t := range s.pending {
		t.mu.Lock()
		if !t.done && !t.stopped {
			count++
		}
		t.mu.Unlock()
	}
	return count
}

// Delays returns every delay requested so far
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	delays := make([]time.Duration, len(s.delays))
	copy(delays, s.delays)
	return delays
}

// Flush runs every pending callback and returns how many ran
func (s *ManualScheduler) Flush() int {
	s.mu.Lock()
	timers := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, t := range timers {
		t.mu.Lock()
		if t.done || t.stopped {
			t.mu.Unlock()
			continue
		}
		t.done = true
		t.mu.Unlock()

		t.fn()
		ran++
	}
	return ran
}
