package core

import "fmt"

// BoundedQueue is a fixed-capacity FIFO ring buffer.
//
// Enqueue blocks while the queue is full and Dequeue blocks while it is empty.
// Producers first wait on the free-slot semaphore and only then take the lock,
// so a producer never holds the lock while waiting for space. All buffer
// mutation happens under one Mutex, which gives a single FIFO order across
// every producer and consumer.
type BoundedQueue[T any] struct {
	lock  *Mutex
	free  *CountingSemaphore
	items *CountingSemaphore

	buf  []T
	head int
	tail int
	size int
}

// BoundedTaskQueue is the queue the scheduler feeds row tasks through.
type BoundedTaskQueue = BoundedQueue[RowTask]

// NewBoundedQueue creates an empty queue able to hold capacity items.
func NewBoundedQueue[T any](capacity int) (*BoundedQueue[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("bounded queue: capacity must be at least 1, got %d", capacity)
	}
	return &BoundedQueue[T]{
		lock:  NewMutex(),
		free:  NewCountingSemaphore(capacity),
		items: NewCountingSemaphore(0),
		buf:   make([]T, capacity),
	}, nil
}

// NewBoundedTaskQueue creates a BoundedTaskQueue with the given capacity.
func NewBoundedTaskQueue(capacity int) (*BoundedTaskQueue, error) {
	return NewBoundedQueue[RowTask](capacity)
}

// Enqueue appends item at the tail, blocking while the queue is full.
func (q *BoundedQueue[T]) Enqueue(item T) error {
	q.free.Wait()
	err := q.lock.WithExclusiveAccess(func() error {
		q.buf[q.tail] = item
		q.tail = (q.tail + 1) % len(q.buf)
		q.size++
		return nil
	})
	if err != nil {
		return err
	}
	q.items.Signal()
	return nil
}

// Dequeue removes and returns the head item, blocking while the queue is empty.
func (q *BoundedQueue[T]) Dequeue() (T, error) {
	var item T
	q.items.Wait()
	err := q.lock.WithExclusiveAccess(func() error {
		var zero T
		item = q.buf[q.head]
		q.buf[q.head] = zero
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		return nil
	})
	if err != nil {
		return item, err
	}
	q.free.Signal()
	return item, nil
}

// Size returns the number of queued items.
func (q *BoundedQueue[T]) Size() int {
	var n int
	_ = q.lock.WithExclusiveAccess(func() error {
		n = q.size
		return nil
	})
	return n
}

// Capacity returns the fixed capacity.
func (q *BoundedQueue[T]) Capacity() int { return len(q.buf) }

// IsEmpty reports whether no items are queued.
func (q *BoundedQueue[T]) IsEmpty() bool { return q.Size() == 0 }

// IsFull reports whether every slot is occupied.
func (q *BoundedQueue[T]) IsFull() bool { return q.Size() == len(q.buf) }
