package core

// CompletionCoordinator is a one-shot countdown barrier.
//
// It starts with the number of outstanding tasks and closes its done channel
// the moment the count reaches zero. Further TaskCompleted calls are allowed
// and never signal again. A coordinator created with total <= 0 is already
// complete, so waiting on an empty run cannot hang.
type CompletionCoordinator struct {
	lock      *Mutex
	remaining int
	signaled  bool
	done      chan struct{}
}

// NewCompletionCoordinator creates a coordinator expecting total completions.
func NewCompletionCoordinator(total int) *CompletionCoordinator {
	c := &CompletionCoordinator{
		lock:      NewMutex(),
		remaining: total,
		done:      make(chan struct{}),
	}
	if total <= 0 {
		c.signaled = true
		close(c.done)
	}
	return c
}

// TaskCompleted records one finished task and fires the signal when the count
// reaches zero.
func (c *CompletionCoordinator) TaskCompleted() {
	_ = c.lock.WithExclusiveAccess(func() error {
		c.remaining--
		if c.remaining <= 0 && !c.signaled {
			c.signaled = true
			close(c.done)
		}
		return nil
	})
}

// WaitForCompletion blocks until the signal fires. It may be called before or
// after any TaskCompleted call.
func (c *CompletionCoordinator) WaitForCompletion() {
	<-c.done
}

// Done returns a channel that is closed when the signal fires.
func (c *CompletionCoordinator) Done() <-chan struct{} {
	return c.done
}

// RemainingCount returns the number of completions still outstanding.
// It goes negative if TaskCompleted is called more often than expected.
func (c *CompletionCoordinator) RemainingCount() int {
	var n int
	_ = c.lock.WithExclusiveAccess(func() error {
		n = c.remaining
		return nil
	})
	return n
}

// IsCompleted reports whether the signal has fired.
func (c *CompletionCoordinator) IsCompleted() bool {
	var done bool
	_ = c.lock.WithExclusiveAccess(func() error {
		done = c.signaled
		return nil
	})
	return done
}
