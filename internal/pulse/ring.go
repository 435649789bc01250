package pulse

// Ring is a fixed-capacity ring buffer of float64 samples with FIFO
// eviction. Once the buffer is full every push overwrites the oldest
// value, so the contents always form a sliding window over the most
// recent samples in arrival order.
//
// Ring is not safe for concurrent use; Monitor provides the locked
// access path.
type Ring struct {
	data  []float64
	pos   int // next write position, also the oldest element when full
	count int
}

// NewRing returns an empty ring buffer. Capacity must be positive,
// callers are expected to validate configuration before construction.
func NewRing(capacity int) *Ring {
	return &Ring{data: make([]float64, capacity)}
}

// Push appends a value, evicting the oldest one when at capacity.
func (r *Ring) Push(x float64) {
	r.data[r.pos] = x
	r.pos = (r.pos + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// Len returns the number of values currently held.
func (r *Ring) Len() int { return r.count }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.data) }

// Full reports whether the buffer has reached capacity.
func (r *Ring) Full() bool { return r.count == len(r.data) }

// Values returns a copy of the contents in temporal order, oldest
// first. The live backing array is never exposed.
func (r *Ring) Values() []float64 {
	out := make([]float64, r.count)
	if r.count < len(r.data) {
		copy(out, r.data[:r.count])
		return out
	}
	n := copy(out, r.data[r.pos:])
	copy(out[n:], r.data[:r.pos])
	return out
}

// Last returns the most recently pushed value. The second return is
// false when the buffer is empty.
func (r *Ring) Last() (float64, bool) {
	if r.count == 0 {
		return 0, false
	}
	i := r.pos - 1
	if i < 0 {
		i = len(r.data) - 1
	}
	return r.data[i], true
}

// Clear empties the buffer without releasing the backing array.
func (r *Ring) Clear() {
	r.pos = 0
	r.count = 0
}
