// File: queue/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded MPMC task ring using per-cell sequence numbers, after the
// pattern by Dmitry Vyukov. Producers that find the ring full get a
// false return from TryEnqueue instead of blocking.

package queue

import (
	"sync/atomic"

	"github.com/momentics/taskpool/api"
)

const cacheLinePad = 64

type ringCell struct {
	sequence atomic.Uint64
	task     api.Task
}

// RingQueue is a bounded lock-free MPMC task queue. Capacity is rounded
// up to a power of two.
type RingQueue struct {
	head  uint64
	_     [cacheLinePad]byte
	tail  uint64
	_     [cacheLinePad]byte
	mask  uint64
	cells []ringCell
}

// NewRingQueue creates a ring with at least the given capacity.
func NewRingQueue(capacity int) *RingQueue {
	if capacity < 2 {
		capacity = 2
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	q := &RingQueue{
		mask:  uint64(size - 1),
		cells: make([]ringCell, size),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

// TryEnqueue inserts a task; false means the ring is full.
func (q *RingQueue) TryEnqueue(t api.Task) bool {
	for {
		tail := atomic.LoadUint64(&q.tail)
		c := &q.cells[tail&q.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail)
		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&q.tail, tail, tail+1) {
				c.task = t
				c.sequence.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false
		}
		// tail moved, retry
	}
}

// GetTask pops a task; nil when the ring is empty.
func (q *RingQueue) GetTask() api.Task {
	for {
		head := atomic.LoadUint64(&q.head)
		c := &q.cells[head&q.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head+1)
		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
				t := c.task
				c.task = nil
				c.sequence.Store(head + q.mask + 1)
				return t
			}
		case dif < 0:
			return nil
		}
		// head moved, retry
	}
}

// Empty reports whether the ring appears empty.
func (q *RingQueue) Empty() bool { return q.TrueSize() == 0 }

// TrueSize returns the number of queued tasks.
func (q *RingQueue) TrueSize() int {
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if tail <= head {
		return 0
	}
	return int(tail - head)
}
