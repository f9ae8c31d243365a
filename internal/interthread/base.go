package interthread

import (
	"sync"
	"time"
)

// store is the element ordering behind a queue.
type store[T any] interface {
	push(v T)
	pop() (T, bool)
	len() int
	drain() []T
}

// base holds the locking, waiting and ownership rules shared by the queues.
type base[T any] struct {
	mu       sync.Mutex
	items    store[T]
	notEmpty signal
	// drained is broadcast after every successful read and every clear
	drained signal
	// epoch advances on every clear so blocked readers give up
	epoch  uint64
	closed bool
	opts   options
}

func (b *base[T]) init(items store[T], opts []Option) {
	b.items = items
	b.opts = newOptions(opts)
}

// Write appends v and wakes one reader. It never blocks. After Close the
// element is released immediately.
func (b *base[T]) Write(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		releaseAll(&b.opts, []T{v})
		return
	}
	b.items.push(v)
	b.opts.setDepth(b.items.len())
	b.notEmpty.signal()
	b.mu.Unlock()
}

// Read blocks until an element is available. It returns false when the
// container is cleared or closed while waiting.
func (b *base[T]) Read() (T, bool) {
	return b.read(time.Time{}, true)
}

// ReadTimeout waits at most d. A non-positive d does not wait at all.
func (b *base[T]) ReadTimeout(d time.Duration) (T, bool) {
	if d <= 0 {
		return b.ReadNoBlock()
	}
	return b.read(deadlineAfter(d), true)
}

// ReadNoBlock returns the next element if there is one.
func (b *base[T]) ReadNoBlock() (T, bool) {
	return b.read(time.Time{}, false)
}

func (b *base[T]) read(deadline time.Time, block bool) (T, bool) {
	var zero T
	b.mu.Lock()
	defer b.mu.Unlock()

	epoch := b.epoch
	for b.items.len() == 0 {
		if !block || b.closed || b.epoch != epoch {
			return zero, false
		}
		if !b.notEmpty.wait(&b.mu, deadline) && b.items.len() == 0 {
			return zero, false
		}
	}
	v, _ := b.items.pop()
	b.opts.setDepth(b.items.len())
	b.drained.broadcast()
	return v, true
}

// Size returns the number of owned elements.
func (b *base[T]) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.len()
}

// Clear releases every owned element and wakes every blocked call. It
// returns the number of released elements.
func (b *base[T]) Clear() int {
	b.mu.Lock()
	items := b.items.drain()
	b.epoch++
	b.opts.setDepth(0)
	b.notEmpty.broadcast()
	b.drained.broadcast()
	b.mu.Unlock()

	releaseAll(&b.opts, items)
	return len(items)
}

// Close clears the container and releases every element written afterwards.
func (b *base[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.Clear()
}
