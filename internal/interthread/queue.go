package interthread

// Queue is an unbounded FIFO.
type Queue[T any] struct {
	base[T]
}

// NewQueue creates an empty queue.
func NewQueue[T any](opts ...Option) *Queue[T] {
	q := &Queue[T]{}
	q.init(&ring[T]{}, opts)
	return q
}

// QueueWithWait is a FIFO whose producers can wait for readers to drain it.
type QueueWithWait[T any] struct {
	base[T]
}

// NewQueueWithWait creates an empty queue.
func NewQueueWithWait[T any](opts ...Option) *QueueWithWait[T] {
	q := &QueueWithWait[T]{}
	q.init(&ring[T]{}, opts)
	return q
}

// Wait blocks until the queue holds lowWater elements or fewer.
func (q *QueueWithWait[T]) Wait(lowWater int) {
	if lowWater < 0 {
		lowWater = 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.len() > lowWater {
		q.drained.wait(&q.mu, deadlineNone)
	}
}
