package core

import "sync/atomic"

// RingBuffer is a fixed-capacity circular buffer shared between one producer
// and one consumer (typically the TWI interrupt handler and foreground code).
//
// The producer owns head. The consumer owns tail and mark. Each side only reads
// the other's index, so no lock is needed as long as every index store is
// atomic. One slot is sacrificed so that head == tail always means empty.
//
// mark is the last confirmed-consumed position. Pushes never overwrite data
// between mark and tail, which is what lets ResetReadCursor replay bytes that
// were popped but not yet committed.
type RingBuffer[T any] struct {
	buf  []T
	size uint32
	head atomic.Uint32 // next write slot
	tail atomic.Uint32 // next read slot
	mark atomic.Uint32 // last committed read position
}

// NewRingBuffer creates a RingBuffer able to hold capacity-1 elements
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBuffer[T]{
		buf:  make([]T, capacity),
		size: uint32(capacity),
	}
}

func (r *RingBuffer[T]) next(i uint32) uint32 {
	i++
	if i == r.size {
		i = 0
	}
	return i
}

// Push appends v. It returns false and drops v if the buffer is full.
func (r *RingBuffer[T]) Push(v T) bool {
	h := r.head.Load()
	n := r.next(h)
	if n == r.mark.Load() {
		return false
	}
	r.buf[h] = v    // 1) write data
	r.head.Store(n) // 2) publish
	return true
}

// Pop removes the oldest element. When the buffer is empty it returns false
// and commits the read position, since everything produced so far has been
// consumed.
func (r *RingBuffer[T]) Pop() (T, bool) {
	var zero T
	t := r.tail.Load()
	if t == r.head.Load() {
		r.mark.Store(t)
		return zero, false
	}
	v := r.buf[t]
	r.tail.Store(r.next(t))
	return v, true
}

// Peek returns the oldest element without consuming it
func (r *RingBuffer[T]) Peek() (T, bool) {
	var zero T
	t := r.tail.Load()
	if t == r.head.Load() {
		return zero, false
	}
	return r.buf[t], true
}

// Commit confirms that everything popped so far has been consumed
func (r *RingBuffer[T]) Commit() {
	r.mark.Store(r.tail.Load())
}

// ResetReadCursor rewinds the read index to the last committed position.
// Popped but uncommitted elements become readable again, in the same order.
func (r *RingBuffer[T]) ResetReadCursor() {
	r.tail.Store(r.mark.Load())
}

// Len returns the number of elements available to Pop
func (r *RingBuffer[T]) Len() int {
	h, t := r.head.Load(), r.tail.Load()
	if h >= t {
		return int(h - t)
	}
	return int(r.size - t + h)
}

// Free returns how many more elements can be pushed
func (r *RingBuffer[T]) Free() int {
	h, m := r.head.Load(), r.mark.Load()
	used := h - m
	if h < m {
		used = r.size - m + h
	}
	return int(r.size-used) - 1
}

// Cap returns the usable capacity (one less than the allocated slots)
func (r *RingBuffer[T]) Cap() int {
	return int(r.size) - 1
}

// Full reports whether the next Push would be refused
func (r *RingBuffer[T]) Full() bool {
	return r.next(r.head.Load()) == r.mark.Load()
}

// Empty reports whether there is nothing to Pop
func (r *RingBuffer[T]) Empty() bool {
	return r.tail.Load() == r.head.Load()
}

// Clear rewinds all indices to zero. Callers must make sure the other side is
// not running (interrupts disabled or peripheral idle).
func (r *RingBuffer[T]) Clear() {
	r.head.Store(0)
	r.tail.Store(0)
	r.mark.Store(0)
}
