// SPDX-License-Identifier: MIT
package bus

// DefaultTapDepth is the number of capture buffers in a Tap's pool.
const DefaultTapDepth = 4

// Tap hands the most recent render buffer to the spectrum monitor without
// locks. Buffers circulate between two index queues: the render callback
// pops a free slot, copies into it and pushes it to filled; the consumer
// drains filled, keeps the newest slot and returns the rest to free.
type Tap struct {
	bufs   [][]float32
	lens   []int
	free   *Queue[int]
	filled *Queue[int]
}

// NewTap allocates depth buffers of size samples each.
func NewTap(size, depth int) *Tap {
	if depth < 2 {
		depth = 2
	}
	t := &Tap{
		bufs:   make([][]float32, depth),
		lens:   make([]int, depth),
		free:   NewQueue[int](depth),
		filled: NewQueue[int](depth),
	}
	for i := range t.bufs {
		t.bufs[i] = make([]float32, size)
		t.free.TryPush(i)
	}
	return t
}

// Size returns the capacity of a single capture buffer in samples.
func (t *Tap) Size() int {
	return len(t.bufs[0])
}

// Capture copies samples into a free slot. When the consumer holds every
// slot the buffer is dropped. Called from the render callback only.
func (t *Tap) Capture(samples []float32) {
	idx, ok := t.free.TryPop()
	if !ok {
		return
	}
	t.lens[idx] = copy(t.bufs[idx], samples)
	t.filled.TryPush(idx)
}

// Latest copies the newest captured buffer into dst and returns the number
// of samples copied. ok is false when nothing was captured since the last
// call. Called from the single consumer only.
func (t *Tap) Latest(dst []float32) (n int, ok bool) {
	newest := -1
	for {
		idx, more := t.filled.TryPop()
		if !more {
			break
		}
		if newest >= 0 {
			t.free.TryPush(newest)
		}
		newest = idx
	}
	if newest < 0 {
		return 0, false
	}
	n = copy(dst, t.bufs[newest][:t.lens[newest]])
	t.free.TryPush(newest)
	return n, true
}
