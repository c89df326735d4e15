package session

import "sync"

// Queue serializes work per user id. Jobs for the same user run strictly
// one at a time in enqueue order; jobs for different users run in
// parallel. This is the single-writer boundary that keeps the session
// state machine safe without a global lock.
type Queue struct {
	mu      sync.Mutex
	pending map[string][]func()
	running map[string]bool
}

// NewQueue creates an empty per-user work queue.
func NewQueue() *Queue {
	return &Queue{
		pending: make(map[string][]func()),
		running: make(map[string]bool),
	}
}

// Do enqueues fn for userID and returns immediately. A worker goroutine
// drains each user's queue in FIFO order and exits once the queue is empty.
func (q *Queue) Do(userID string, fn func()) {
	q.mu.Lock()
	q.pending[userID] = append(q.pending[userID], fn)
	if q.running[userID] {
		q.mu.Unlock()
		return
	}
	q.running[userID] = true
	q.mu.Unlock()

	go q.drain(userID)
}

func (q *Queue) drain(userID string) {
	for {
		q.mu.Lock()
		jobs := q.pending[userID]
		if len(jobs) == 0 {
			q.running[userID] = false
			delete(q.pending, userID)
			q.mu.Unlock()
			return
		}
		fn := jobs[0]
		q.pending[userID] = jobs[1:]
		q.mu.Unlock()

		fn()
	}
}
