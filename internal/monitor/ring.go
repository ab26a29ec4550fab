package monitor

// ring is a fixed-capacity queue with O(1) amortized append-plus-evict.
// Once full, each push evicts the oldest entry. Not safe for concurrent use;
// callers hold the Monitor lock.
type ring[T any] struct {
	buf  []T
	head int
	n    int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v, evicting and returning the oldest entry when full.
func (r *ring[T]) push(v T) (evicted T, wasFull bool) {
	if r.n == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return evicted, true
	}
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
	return evicted, false
}

func (r *ring[T]) len() int { return r.n }

// at returns the i-th entry in insertion order (0 = oldest).
func (r *ring[T]) at(i int) T {
	return r.buf[(r.head+i)%len(r.buf)]
}

// lastN returns up to n newest entries in chronological order.
func (r *ring[T]) lastN(n int) []T {
	if n > r.n {
		n = r.n
	}
	out := make([]T, 0, n)
	for i := r.n - n; i < r.n; i++ {
		out = append(out, r.at(i))
	}
	return out
}
