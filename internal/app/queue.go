package app

import "sync"

// Queue is an unbounded FIFO of saved file paths.
// It decouples the accept loop, which enqueues each received file, from any
// number of consumers that poll it without blocking.
type Queue struct {
	mu    sync.Mutex
	items []string
	head  int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a path to the tail of the queue.
func (q *Queue) Enqueue(path string) {
	q.mu.Lock()
	q.items = append(q.items, path)
	q.mu.Unlock()
}

// TryDequeue removes and returns the oldest path. It never blocks; ok is
// false when the queue is empty.
func (q *Queue) TryDequeue() (path string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return "", false
	}
	path = q.items[q.head]
	q.items[q.head] = ""
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return path, true
}

// Len returns the number of queued paths.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
