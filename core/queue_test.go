package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestBoundedQueue_FIFO verifies single-producer ordering
// Given: A queue of capacity 4
// When: Four tasks are enqueued and then dequeued
// Then: They come out in insertion order and size returns to 0
func TestBoundedQueue_FIFO(t *testing.T) {
	// Arrange
	q, err := NewBoundedTaskQueue(4)
	if err != nil {
		t.Fatalf("NewBoundedTaskQueue: %v", err)
	}
	in := []RowTask{{Start: 0, End: 2}, {Start: 2, End: 4}, {Start: 4, End: 6}, TerminateTask()}

	// Act
	for _, task := range in {
		if err := q.Enqueue(task); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if !q.IsFull() {
		t.Errorf("IsFull = false after %d enqueues", len(in))
	}

	// Assert
	for i, want := range in {
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Step %d: Dequeue: %v", i, err)
		}
		if got != want {
			t.Errorf("Step %d: got %v, want %v", i, got, want)
		}
	}
	if !q.IsEmpty() {
		t.Errorf("size = %d, want 0", q.Size())
	}
}

// TestBoundedQueue_WrapAround verifies ring indices
// Given: A queue of capacity 2
// When: Items are pushed and popped more times than the capacity
// Then: FIFO order is preserved across the wrap
func TestBoundedQueue_WrapAround(t *testing.T) {
	q, err := NewBoundedQueue[int](2)
	if err != nil {
		t.Fatalf("NewBoundedQueue: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got != i {
			t.Errorf("got %d, want %d", got, i)
		}
	}
}

// TestBoundedQueue_InvalidCapacity verifies constructor validation
func TestBoundedQueue_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -3} {
		if _, err := NewBoundedTaskQueue(c); err == nil {
			t.Errorf("capacity %d: expected error", c)
		}
	}
}

// TestBoundedQueue_BlocksWhenFull verifies producer back-pressure
// Given: A full queue of capacity 1
// When: A second Enqueue is attempted
// Then: It blocks until a Dequeue frees the slot
func TestBoundedQueue_BlocksWhenFull(t *testing.T) {
	// Arrange
	q, _ := NewBoundedTaskQueue(1)
	_ = q.Enqueue(RowTask{Start: 0, End: 1})

	// Act
	var enqueued atomic.Bool
	done := make(chan struct{})
	go func() {
		_ = q.Enqueue(RowTask{Start: 1, End: 2})
		enqueued.Store(true)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)

	// Assert
	if enqueued.Load() {
		t.Fatal("Enqueue returned while queue was full")
	}
	first, _ := q.Dequeue()
	if first.Start != 0 {
		t.Errorf("first = %v, want [0,1)", first)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Enqueue never resumed")
	}
	if q.Size() != 1 {
		t.Errorf("size = %d, want 1", q.Size())
	}
}

// TestBoundedQueue_BlocksWhenEmpty verifies consumer waiting
// Given: An empty queue
// When: Dequeue is called before any Enqueue
// Then: It returns the item enqueued later
func TestBoundedQueue_BlocksWhenEmpty(t *testing.T) {
	q, _ := NewBoundedTaskQueue(2)

	got := make(chan RowTask, 1)
	go func() {
		task, _ := q.Dequeue()
		got <- task
	}()
	time.Sleep(10 * time.Millisecond)
	want := RowTask{Start: 3, End: 7}
	_ = q.Enqueue(want)

	select {
	case task := <-got:
		if task != want {
			t.Errorf("got %v, want %v", task, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue never resumed")
	}
}

// TestBoundedQueue_ConcurrentBounds verifies size bounds under contention
// Given: P producers and C consumers sharing a small queue
// When: Every produced item is consumed
// Then: Size never leaves [0, capacity] and every item is seen exactly once
func TestBoundedQueue_ConcurrentBounds(t *testing.T) {
	// Arrange
	const producers, consumers, perProducer, capacity = 4, 4, 250, 3
	q, _ := NewBoundedQueue[int](capacity)
	total := producers * perProducer

	var mu sync.Mutex
	seen := make(map[int]int, total)
	var outOfBounds atomic.Int32

	// Act
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		base := p * perProducer
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Enqueue(base + i)
				if n := q.Size(); n < 0 || n > capacity {
					outOfBounds.Add(1)
				}
			}
		}()
	}
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < total/consumers; i++ {
				v, _ := q.Dequeue()
				if n := q.Size(); n < 0 || n > capacity {
					outOfBounds.Add(1)
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Assert
	if n := outOfBounds.Load(); n != 0 {
		t.Errorf("size observed outside [0, %d] %d times", capacity, n)
	}
	if len(seen) != total {
		t.Fatalf("distinct items = %d, want %d", len(seen), total)
	}
	for v, n := range seen {
		if n != 1 {
			t.Errorf("item %d seen %d times", v, n)
		}
	}
}

// TestBoundedQueue_PerProducerOrder verifies FIFO for a single consumer
// Given: Two producers each enqueuing an increasing sequence
// When: One consumer dequeues everything
// Then: Each producer's items appear in increasing order
func TestBoundedQueue_PerProducerOrder(t *testing.T) {
	const perProducer = 200
	q, _ := NewBoundedQueue[[2]int](5)

	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		id := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Enqueue([2]int{id, i})
			}
		}()
	}

	last := [2]int{-1, -1}
	for i := 0; i < 2*perProducer; i++ {
		v, _ := q.Dequeue()
		if v[1] <= last[v[0]] {
			t.Fatalf("producer %d: %d dequeued after %d", v[0], v[1], last[v[0]])
		}
		last[v[0]] = v[1]
	}
	wg.Wait()
}
