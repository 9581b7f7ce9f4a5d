package core

import (
	"container/list"
	"sync"
)

// MutexToken identifies the current holder of a Mutex. The zero value never
// identifies a holder.
type MutexToken uint64

// Mutex is an exclusive lock whose waiters are granted ownership strictly in
// the order they called Acquire.
//
// Unlike sync.Mutex, ownership is tracked: Acquire returns a token and only
// the matching token may Release. Ownership passes directly from the releaser
// to the oldest waiter, so the lock is never observed free while someone is
// queued for it. The lock is not reentrant.
type Mutex struct {
	mu      sync.Mutex
	held    bool
	owner   MutexToken
	next    MutexToken
	waiters list.List // of chan MutexToken
}

// NewMutex creates an unheld Mutex.
func NewMutex() *Mutex {
	return &Mutex{}
}

// Acquire blocks until the caller owns the lock and returns the ownership token.
func (m *Mutex) Acquire() MutexToken {
	m.mu.Lock()
	if !m.held {
		m.held = true
		m.owner = m.issueLocked()
		tok := m.owner
		m.mu.Unlock()
		return tok
	}

	ch := make(chan MutexToken, 1)
	m.waiters.PushBack(ch)
	m.mu.Unlock()

	return <-ch
}

// Release gives up ownership. If callers are waiting, the oldest one becomes
// the owner before Release returns.
func (m *Mutex) Release(tok MutexToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.held {
		return &ConcurrencyError{Op: "mutex release", Reason: "lock is not held"}
	}
	if tok != m.owner {
		return &ConcurrencyError{Op: "mutex release", Reason: "token does not own the lock"}
	}

	front := m.waiters.Front()
	if front == nil {
		m.held = false
		m.owner = 0
		return nil
	}

	ch := m.waiters.Remove(front).(chan MutexToken)
	m.owner = m.issueLocked()
	ch <- m.owner
	return nil
}

// WithExclusiveAccess runs body while holding the lock. The lock is released
// on every exit path; a panic in body is re-raised after the release.
func (m *Mutex) WithExclusiveAccess(body func() error) (err error) {
	tok := m.Acquire()
	defer func() {
		if rerr := m.Release(tok); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return body()
}

// Held reports whether some caller currently owns the lock.
func (m *Mutex) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// Waiters returns the number of callers blocked in Acquire.
func (m *Mutex) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiters.Len()
}

func (m *Mutex) issueLocked() MutexToken {
	m.next++
	return m.next
}
