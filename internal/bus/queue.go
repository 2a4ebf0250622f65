// SPDX-License-Identifier: MIT
package bus

import (
	"sync/atomic"

	"player/pkg/bitint"
)

// cacheLinePad keeps the producer and consumer cursors on separate cache
// lines.
type cacheLinePad [64]byte

// Queue is a bounded single-producer/single-consumer FIFO. TryPush must only
// be called from one goroutine and TryPop from one (possibly different)
// goroutine. Capacity is rounded up to a power of two so cursors wrap with a
// mask.
type Queue[T any] struct {
	buf  []T
	mask uint64

	_    cacheLinePad
	head atomic.Uint64 // next slot to pop, written by the consumer
	_    cacheLinePad
	tail atomic.Uint64 // next slot to push, written by the producer
	_    cacheLinePad
}

// NewQueue allocates a queue holding at least capacity elements.
func NewQueue[T any](capacity int) *Queue[T] {
	size := bitint.NextPowerOfTwo(capacity)
	return &Queue[T]{
		buf:  make([]T, size),
		mask: bitint.Mask(size),
	}
}

// Cap returns the number of elements the queue can hold.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Len returns an instantaneous element count. It is exact only when called
// from the producer or consumer while the other side is idle.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// TryPush appends v and reports whether it was accepted. A full queue
// rejects v and leaves every accepted entry untouched.
func (q *Queue[T]) TryPush(v T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return true
}

// TryPop removes the oldest element. ok is false when the queue is empty.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return v, false
	}
	v = q.buf[head&q.mask]
	q.head.Store(head + 1)
	return v, true
}
