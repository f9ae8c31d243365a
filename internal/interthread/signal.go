// Package interthread implements blocking containers that hand elements from
// one goroutine to another. A container owns an element from Write until a
// read transfers it out or a clear, close or replace releases it.
package interthread

import (
	"sync"
	"time"
)

// signal is a condition variable whose waiters may give up at a deadline.
// Every method must be called with the owning container's mutex held.
type signal struct {
	waiters []chan struct{}
}

// wait releases mu until the signal fires or the deadline passes, then
// reacquires it. A zero deadline waits forever. It reports false on timeout.
func (s *signal) wait(mu *sync.Mutex, deadline time.Time) bool {
	ch := make(chan struct{}, 1)
	s.waiters = append(s.waiters, ch)
	mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ch:
		mu.Lock()
		return true
	case <-timeout:
		mu.Lock()
		// a signal that raced the timer still counts
		return !s.remove(ch)
	}
}

func (s *signal) remove(ch chan struct{}) bool {
	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// signal wakes the longest waiting goroutine.
func (s *signal) signal() {
	if len(s.waiters) == 0 {
		return
	}
	ch := s.waiters[0]
	s.waiters = s.waiters[1:]
	ch <- struct{}{}
}

// broadcast wakes every waiting goroutine.
func (s *signal) broadcast() {
	for _, ch := range s.waiters {
		ch <- struct{}{}
	}
	s.waiters = nil
}

var deadlineNone time.Time

func deadlineAfter(d time.Duration) time.Time {
	return time.Now().Add(d)
}
