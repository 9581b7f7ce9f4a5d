package core

import (
	"container/list"
	"sync"
)

// CountingSemaphore is a non-negative counter with a blocking decrement.
//
// Waiters are resumed in FIFO order. Signal hands the unit directly to the
// oldest waiter when one exists, and only increments the count otherwise, so
// a queued waiter can never lose its wakeup to a later Wait.
type CountingSemaphore struct {
	mu      sync.Mutex
	count   int
	waiters list.List // of chan struct{}
}

// NewCountingSemaphore creates a semaphore holding initial units.
// A negative initial count is a programming error and panics.
func NewCountingSemaphore(initial int) *CountingSemaphore {
	if initial < 0 {
		panic("core: negative semaphore count")
	}
	return &CountingSemaphore{count: initial}
}

// Wait takes one unit, blocking until one is available.
func (s *CountingSemaphore) Wait() {
	s.mu.Lock()
	if s.count > 0 {
		s.count--
		s.mu.Unlock()
		return
	}

	ch := make(chan struct{})
	s.waiters.PushBack(ch)
	s.mu.Unlock()

	<-ch
}

// Signal returns one unit.
func (s *CountingSemaphore) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if front := s.waiters.Front(); front != nil {
		close(s.waiters.Remove(front).(chan struct{}))
		return
	}
	s.count++
}

// PeekCount returns the current count. Diagnostic only.
func (s *CountingSemaphore) PeekCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// PeekWaiters returns the number of blocked waiters. Diagnostic only.
func (s *CountingSemaphore) PeekWaiters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}
