package interthread

const minRingSize = 16

// ring is an unbounded FIFO backed by a growing circular slice.
type ring[T any] struct {
	data   []T
	start  int
	length int
}

func (r *ring[T]) push(v T) {
	if r.length == len(r.data) {
		r.grow()
	}
	r.data[(r.start+r.length)%len(r.data)] = v
	r.length++
}

func (r *ring[T]) grow() {
	size := 2 * len(r.data)
	if size < minRingSize {
		size = minRingSize
	}
	data := make([]T, size)
	for i := 0; i < r.length; i++ {
		data[i] = r.data[(r.start+i)%len(r.data)]
	}
	r.data = data
	r.start = 0
}

func (r *ring[T]) pop() (T, bool) {
	var zero T
	if r.length == 0 {
		return zero, false
	}
	v := r.data[r.start]
	r.data[r.start] = zero
	r.start = (r.start + 1) % len(r.data)
	r.length--
	return v, true
}

func (r *ring[T]) len() int {
	return r.length
}

func (r *ring[T]) drain() []T {
	out := make([]T, 0, r.length)
	for r.length > 0 {
		v, _ := r.pop()
		out = append(out, v)
	}
	r.start = 0
	return out
}
