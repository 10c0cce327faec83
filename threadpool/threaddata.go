// File: threadpool/threaddata.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-worker bookkeeping. Each worker goroutine (and the master) owns one
// ThreadData instance for its entire lifetime. Fields are accessed only
// by the owning goroutine; the lookup map has its own mutex and is a leaf
// in the lock order (it is never held while taking the pool's task mutex
// or the registry mutex).

package threadpool

import (
	"sync"

	"github.com/momentics/taskpool/api"
)

// ThreadData is the per-worker context consulted from inside executing
// tasks: the owning pool, the queue the worker is bound to, the
// reentrancy guard and the task nesting depth.
type ThreadData struct {
	// IsMaster is true only on the goroutine that constructed the pool.
	IsMaster bool

	// WithinTask is set while a task body is being invoked. Task bodies
	// that themselves submit and join can inspect it to take an
	// inline-execute path instead of blocking a worker on work only
	// this worker can run.
	WithinTask bool

	// TaskDepth counts nested task execution on this worker.
	TaskDepth int

	// Pool is a lookup-only back-reference; never mutated through.
	Pool *Pool

	// CurrentQueue is the queue this worker is bound to right now.
	CurrentQueue api.TaskQueue

	queueStack []api.TaskQueue
}

// PushQueue temporarily rebinds the worker to q; the previous binding is
// restored by PopQueue.
func (d *ThreadData) PushQueue(q api.TaskQueue) {
	d.queueStack = append(d.queueStack, d.CurrentQueue)
	d.CurrentQueue = q
}

// PopQueue restores the binding saved by the matching PushQueue.
func (d *ThreadData) PopQueue() {
	if n := len(d.queueStack); n > 0 {
		d.CurrentQueue = d.queueStack[n-1]
		d.queueStack = d.queueStack[:n-1]
	}
}

var (
	threadDataMu sync.Mutex
	threadData   = make(map[uint64]*ThreadData)
)

// CurrentThreadData returns the calling goroutine's ThreadData, creating
// an unbound instance on first access. Valid for the goroutine's entire
// lifetime; cross-goroutine access is not legal.
func CurrentThreadData() *ThreadData {
	gid := currentGoroutineID()
	threadDataMu.Lock()
	defer threadDataMu.Unlock()
	d, ok := threadData[gid]
	if !ok {
		d = &ThreadData{}
		threadData[gid] = d
	}
	return d
}

// newThreadData installs a fresh ThreadData bound to p for the calling
// goroutine, replacing any previous instance.
func newThreadData(p *Pool) *ThreadData {
	d := &ThreadData{Pool: p, CurrentQueue: p.queue}
	gid := currentGoroutineID()
	threadDataMu.Lock()
	threadData[gid] = d
	threadDataMu.Unlock()
	return d
}

// dropThreadData erases the ThreadData slot of an exiting worker.
func dropThreadData(gid uint64) {
	threadDataMu.Lock()
	delete(threadData, gid)
	threadDataMu.Unlock()
}
