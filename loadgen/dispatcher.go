package loadgen

import "sync/atomic"

// Dispatcher hands out traversal positions in [0, n), each exactly once.
type Dispatcher struct {
	cursor atomic.Int64
	n      int64
}

// NewDispatcher creates a dispatcher for n positions.
func NewDispatcher(n int) *Dispatcher {
	return &Dispatcher{n: int64(n)}
}

// ClaimNext returns the next unclaimed position, ok is false when exhausted.
func (d *Dispatcher) ClaimNext() (int, bool) {
	for {
		c := d.cursor.Load()
		if c >= d.n {
			return 0, false
		}

		if d.cursor.CompareAndSwap(c, c+1) {
			return int(c), true
		}
	}
}

// Exhaust moves cursor to the end so that no more positions can be claimed.
func (d *Dispatcher) Exhaust() {
	d.cursor.Store(d.n)
}

// Claimed returns number of claimed positions.
func (d *Dispatcher) Claimed() int {
	return int(d.cursor.Load())
}

// Len returns total number of positions.
func (d *Dispatcher) Len() int {
	return int(d.n)
}
