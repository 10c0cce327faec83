// File: threadpool/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker entry point and run loop. The loop never holds the task mutex
// while invoking user code, and every wake from the condition variable
// rechecks the leave conditions before touching the queue again.

package threadpool

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/momentics/taskpool/affinity"
	"github.com/momentics/taskpool/api"
)

// workerEntry is the body of every spawned worker goroutine: register
// the identity at the assigned index, install a fresh ThreadData bound
// to the pool, report readiness to the master, then run the loop.
func workerEntry(p *Pool, hint int64, h *workerHandle) {
	p.taskMu.Lock()
	affinityFn := p.affinityFn
	p.taskMu.Unlock()

	if affinityFn != nil {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	gid := currentGoroutineID()
	defaultRegistry.Assign(gid, hint)
	data := newThreadData(p)

	defer func() {
		dropThreadData(gid)
		close(h.done)
	}()

	h.started <- gid

	if affinityFn != nil {
		cpu := affinityFn(int(h.index))
		if err := affinity.SetAffinity(cpu); err != nil {
			p.log.Warn("could not pin worker",
				zap.Uint64("index", h.index), zap.Int("cpu", cpu), zap.Error(err))
		} else if p.verbose.Load() > 0 {
			p.log.Info("worker pinned",
				zap.Uint64("index", h.index), zap.Int("cpu", cpu))
		}
	}

	p.executeLoop(gid, data)
}

// leavePool decides whether the worker must exit. Stopped always exits.
// Under Partial the worker takes the pending stop token, records its
// identity for the master and exits. locked tells whether the caller
// already holds taskMu.
func (p *Pool) leavePool(gid uint64, locked bool) bool {
	switch p.state.Load() {
	case StateStopped:
		return true
	case StatePartial:
		if !locked {
			p.taskMu.Lock()
			defer p.taskMu.Unlock()
		}
		if n := len(p.stopTokens); n > 0 && p.stopTokens[n-1] {
			p.stopTokens = p.stopTokens[:n-1]
			p.ackStops = append(p.ackStops, gid)
			p.ackCond.Broadcast()
			return true
		}
	}
	return false
}

// executeLoop is the run loop executed by each worker.
func (p *Pool) executeLoop(gid uint64, data *ThreadData) {
	p.awakeInc()

	p.taskMu.Lock()
	initFn := p.initFn
	p.taskMu.Unlock()
	if initFn != nil {
		initFn()
	}

	q := data.CurrentQueue
	if q == nil {
		p.log.Error("worker queue unbound", zap.Uint64("gid", gid),
			zap.Error(api.ErrQueueUnbound))
		return
	}

	// Warmup dequeue: lets latent per-goroutine initialization inside a
	// task body run before the first condition wait.
	data.WithinTask = true
	if t := q.GetTask(); t != nil {
		p.runTask(t)
	}
	data.WithinTask = false

	for {
		if p.leavePool(gid, false) {
			return
		}

		// Wait discipline. Empty is only a hint; a task living in a bin
		// the probe skipped still shows in TrueSize, so the wait is
		// double-gated and the predicate accepts any plausible reason
		// to wake. Spurious wakes re-check everything.
		for q.Empty() {
			if p.leavePool(gid, false) {
				return
			}
			if q.TrueSize() != 0 {
				break
			}
			p.awakeDec()
			p.taskMu.Lock()
			for q.Empty() && q.TrueSize() == 0 && p.state.Load() <= StateStarted {
				p.taskCond.Wait()
			}
			if p.leavePool(gid, true) {
				p.taskMu.Unlock()
				return
			}
			p.taskMu.Unlock()
			p.awakeInc()
		}

		if p.leavePool(gid, false) {
			return
		}

		// Reentrancy guard around user code; the mutex is never held
		// across GetTask or Execute. Teardown is rechecked between
		// tasks: nothing may be dequeued once Stopped is observed.
		data.WithinTask = true
		for !q.Empty() {
			if p.state.Load() == StateStopped {
				break
			}
			if t := q.GetTask(); t != nil {
				p.runTask(t)
			}
		}
		data.WithinTask = false
	}
}

// runTask executes one task and disposes of it per the group contract.
// Panics are recovered at this boundary so a failing task body does not
// silently shrink the pool.
func (p *Pool) runTask(t api.Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked", zap.Any("panic", r))
		}
	}()
	t.Execute()
	if t.TaskGroup() == nil {
		t.Release()
	}
	p.executed.Add(1)
}
