package interthread

import (
	"sync"
	"time"
)

// Semaphore is a binary flag that one goroutine posts and another consumes.
type Semaphore struct {
	mu     sync.Mutex
	flag   bool
	posted signal
}

// NewSemaphore creates a semaphore with the flag cleared.
func NewSemaphore() *Semaphore {
	return &Semaphore{}
}

// Post sets the flag and wakes one waiter.
func (s *Semaphore) Post() {
	s.mu.Lock()
	s.flag = true
	s.posted.signal()
	s.mu.Unlock()
}

// Get blocks until the flag is set, then clears it.
func (s *Semaphore) Get() {
	s.get(deadlineNone)
}

// GetTimeout waits at most d for the flag and reports whether it was taken.
// A non-positive d does not wait.
func (s *Semaphore) GetTimeout(d time.Duration) bool {
	if d <= 0 {
		return s.TryGet()
	}
	return s.get(deadlineAfter(d))
}

func (s *Semaphore) get(deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.flag {
		if !s.posted.wait(&s.mu, deadline) && !s.flag {
			return false
		}
	}
	s.flag = false
	return true
}

// TryGet clears the flag and returns its previous value.
func (s *Semaphore) TryGet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.flag
	s.flag = false
	return prev
}
