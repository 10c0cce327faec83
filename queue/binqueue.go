// File: queue/binqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Default task queue: tasks are spread round-robin over a fixed set of
// bins and a consumer that misses its first bin steals from the others.
// TrueSize is tracked with one atomic across all bins, so it stays
// authoritative while individual bin probes race.

package queue

import (
	"sync"
	"sync/atomic"

	eapache "github.com/eapache/queue"

	"github.com/momentics/taskpool/api"
)

type bin struct {
	mu sync.Mutex
	q  *eapache.Queue
}

// BinQueue is a bin-partitioned FIFO task queue. The zero value is not
// usable; construct with NewBinQueue.
type BinQueue struct {
	bins   []bin
	insert atomic.Uint64
	remove atomic.Uint64
	size   atomic.Int64
}

// NewBinQueue builds a queue with one bin per expected worker; hint
// values below 1 collapse to a single bin.
func NewBinQueue(hint int) *BinQueue {
	if hint < 1 {
		hint = 1
	}
	b := &BinQueue{bins: make([]bin, hint)}
	for i := range b.bins {
		b.bins[i].q = eapache.New()
	}
	return b
}

// Enqueue inserts a task into the next bin round-robin.
func (b *BinQueue) Enqueue(t api.Task) {
	i := b.insert.Add(1) % uint64(len(b.bins))
	bn := &b.bins[i]
	bn.mu.Lock()
	bn.q.Add(t)
	bn.mu.Unlock()
	b.size.Add(1)
}

// GetTask pops from the cursor bin, stealing from the remaining bins on
// a miss. Returns nil when every bin is empty.
func (b *BinQueue) GetTask() api.Task {
	n := len(b.bins)
	start := int(b.remove.Add(1) % uint64(n))
	for k := 0; k < n; k++ {
		bn := &b.bins[(start+k)%n]
		bn.mu.Lock()
		if bn.q.Length() > 0 {
			t := bn.q.Remove().(api.Task)
			bn.mu.Unlock()
			b.size.Add(-1)
			return t
		}
		bn.mu.Unlock()
	}
	return nil
}

// Empty reports whether the queue holds no tasks. The shared counter
// makes the hint converge immediately for this implementation.
func (b *BinQueue) Empty() bool { return b.size.Load() <= 0 }

// TrueSize returns the authoritative task count across all bins.
func (b *BinQueue) TrueSize() int {
	if n := b.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}
