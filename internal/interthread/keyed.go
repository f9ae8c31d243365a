package interthread

import (
	"sync"
	"time"
)

// Map is a keyed store holding at most one element per key. Get calls remove
// and return the element, Read calls return a borrowed view that stays owned
// by the map.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]V
	written signal
	epoch   uint64
	closed  bool
	opts    options
}

// NewMap creates an empty keyed store.
func NewMap[K comparable, V any](opts ...Option) *Map[K, V] {
	return &Map[K, V]{
		items: make(map[K]V),
		opts:  newOptions(opts),
	}
}

// Write stores v under k, releasing the element it replaces, and wakes every
// waiter.
func (m *Map[K, V]) Write(k K, v V) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		releaseAll(&m.opts, []V{v})
		return
	}
	prev, replaced := m.items[k]
	m.items[k] = v
	m.opts.setDepth(len(m.items))
	m.written.broadcast()
	m.mu.Unlock()

	if replaced {
		releaseAll(&m.opts, []V{prev})
	}
}

// Get blocks until k is present, then removes and returns its element.
func (m *Map[K, V]) Get(k K) (V, bool) {
	return m.lookup(k, deadlineNone, true, true)
}

// GetTimeout waits at most d for k. A non-positive d does not wait.
func (m *Map[K, V]) GetTimeout(k K, d time.Duration) (V, bool) {
	if d <= 0 {
		return m.GetNoBlock(k)
	}
	return m.lookup(k, deadlineAfter(d), true, true)
}

// GetNoBlock removes and returns the element under k if present.
func (m *Map[K, V]) GetNoBlock(k K) (V, bool) {
	return m.lookup(k, deadlineNone, false, true)
}

// Read blocks until k is present and returns its element without removing it.
func (m *Map[K, V]) Read(k K) (V, bool) {
	return m.lookup(k, deadlineNone, true, false)
}

// ReadTimeout waits at most d for k. A non-positive d does not wait.
func (m *Map[K, V]) ReadTimeout(k K, d time.Duration) (V, bool) {
	if d <= 0 {
		return m.ReadNoBlock(k)
	}
	return m.lookup(k, deadlineAfter(d), true, false)
}

// ReadNoBlock returns the element under k if present, without removing it.
func (m *Map[K, V]) ReadNoBlock(k K) (V, bool) {
	return m.lookup(k, deadlineNone, false, false)
}

func (m *Map[K, V]) lookup(k K, deadline time.Time, block, remove bool) (V, bool) {
	var zero V
	m.mu.Lock()
	defer m.mu.Unlock()

	epoch := m.epoch
	for {
		if v, ok := m.items[k]; ok {
			if remove {
				delete(m.items, k)
				m.opts.setDepth(len(m.items))
			}
			return v, true
		}
		if !block || m.closed || m.epoch != epoch {
			return zero, false
		}
		if !m.written.wait(&m.mu, deadline) {
			if v, ok := m.items[k]; ok {
				if remove {
					delete(m.items, k)
					m.opts.setDepth(len(m.items))
				}
				return v, true
			}
			return zero, false
		}
	}
}

// Remove releases the element under k. It reports whether k was present.
func (m *Map[K, V]) Remove(k K) bool {
	m.mu.Lock()
	v, ok := m.items[k]
	if ok {
		delete(m.items, k)
		m.opts.setDepth(len(m.items))
	}
	m.mu.Unlock()

	if ok {
		releaseAll(&m.opts, []V{v})
	}
	return ok
}

// Size returns the number of keys.
func (m *Map[K, V]) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Clear releases every element and wakes every waiter. It returns the number
// of released elements.
func (m *Map[K, V]) Clear() int {
	m.mu.Lock()
	items := make([]V, 0, len(m.items))
	for _, v := range m.items {
		items = append(items, v)
	}
	m.items = make(map[K]V)
	m.epoch++
	m.opts.setDepth(0)
	m.written.broadcast()
	m.mu.Unlock()

	releaseAll(&m.opts, items)
	return len(items)
}

// Close clears the store and releases every element written afterwards.
func (m *Map[K, V]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Clear()
}
