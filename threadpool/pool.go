// File: threadpool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool lifecycle and membership management. The task mutex guards the
// condition wait, the stop-token and acknowledgement lists and the
// worker bookkeeping slices; the thread registry has its own mutex and
// may be acquired while the task mutex is held, never the reverse.

package threadpool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/momentics/taskpool/api"
	"github.com/momentics/taskpool/control"
	"github.com/momentics/taskpool/queue"
)

// Pool owns the worker goroutines, the wait/wake primitives, the
// shutdown state machine and the shrink lists. Lifecycle methods
// (Initialize, StopOne, Destroy) must be called from the goroutine that
// constructed the pool.
type Pool struct {
	log        *zap.Logger
	verbose    atomic.Int32
	queue      api.TaskQueue
	initFn     func()
	affinityFn func(int) int

	state poolState

	masterIndex uint64

	taskMu   sync.Mutex
	taskCond *sync.Cond
	ackCond  *sync.Cond

	// stopTokens is the list of anonymous "please, one of you, exit"
	// tokens posted by the master; ackStops collects the identities of
	// workers that accepted one. Both are guarded by taskMu.
	stopTokens []bool
	ackStops   []uint64

	// workerGIDs, joined and workers stay index-aligned; divergence of
	// joined from workerGIDs is a fatal programmer error.
	workerGIDs []uint64
	joined     []bool
	workers    []*workerHandle

	size     atomic.Int64
	awake    atomic.Int64 // workers not blocked on taskCond; diagnostic only
	executed atomic.Int64

	runtime runtimeHandle

	config *control.ConfigStore
	probes *control.DebugProbes
}

// workerHandle is the master's ownership of one spawned worker. done is
// closed by the worker on exit; receiving from it is the join.
type workerHandle struct {
	index   uint64
	gid     uint64
	started chan uint64
	done    chan struct{}
}

// New constructs a pool and initializes it to n workers. The calling
// goroutine becomes the pool's master: it gets worker index 0 if it is
// the first to touch the process registry, and its ThreadData carries
// IsMaster.
func New(n int, opts ...Option) *Pool {
	p := &Pool{}
	for _, o := range opts {
		o(p)
	}
	env := control.EnvInt(control.EnvVerbose, 0)
	p.verbose.Store(int32(env))
	if p.log == nil {
		p.log = newLogger(env)
	}
	if p.queue == nil {
		p.queue = queue.NewBinQueue(n)
	}
	p.taskCond = sync.NewCond(&p.taskMu)
	p.ackCond = sync.NewCond(&p.taskMu)
	p.probes = control.NewDebugProbes()

	p.config = control.NewConfigStore()
	p.config.Set(control.KeyVerbose, env)
	p.config.OnReload(func() {
		p.verbose.Store(int32(p.config.Int(control.KeyVerbose, int(p.verbose.Load()))))
	})

	p.masterIndex = defaultRegistry.SelfIndex()
	if p.masterIndex != 0 && env > 1 {
		p.log.Warn("pool created on non-master goroutine",
			zap.Uint64("index", p.masterIndex))
	}

	d := newThreadData(p)
	d.IsMaster = true

	p.probes.RegisterProbe("pool.state", func() any { return p.state.Load().String() })
	p.probes.RegisterProbe("pool.size", func() any { return p.Size() })
	p.probes.RegisterProbe("pool.awake", func() any { return p.awake.Load() })
	p.probes.RegisterProbe("pool.verbose", func() any { return int(p.verbose.Load()) })

	p.Initialize(n)
	return p
}

// Queue returns the queue all workers are bound to.
func (p *Pool) Queue() api.TaskQueue { return p.queue }

// Size returns the current number of live workers, master excluded.
func (p *Pool) Size() int { return int(p.size.Load()) }

// IsInitialized reports whether the pool is alive (state Started or
// Partial): initialized and not yet destroyed. It stays true when StopOne
// has shrunk the pool to zero workers.
func (p *Pool) IsInitialized() bool { return p.state.Load().alive() }

// SetInitFunc installs the per-worker initializer for workers spawned by
// later Initialize calls.
func (p *Pool) SetInitFunc(fn func()) {
	p.taskMu.Lock()
	p.initFn = fn
	p.taskMu.Unlock()
}

// SetAffinityFunc installs the worker-index to CPU mapping used to pin
// workers spawned by later Initialize calls.
func (p *Pool) SetAffinityFunc(fn func(workerIndex int) int) {
	p.taskMu.Lock()
	p.affinityFn = fn
	p.taskMu.Unlock()
}

// Notify wakes one worker blocked on the task condition. Submitters call
// it after inserting a task.
func (p *Pool) Notify() {
	p.taskMu.Lock()
	p.taskCond.Signal()
	p.taskMu.Unlock()
}

// NotifyAll wakes every blocked worker.
func (p *Pool) NotifyAll() {
	p.taskMu.Lock()
	p.taskCond.Broadcast()
	p.taskMu.Unlock()
}

// Initialize grows or shrinks the pool to exactly proposed workers and
// returns the resulting size. Values below 1 return 0 without touching
// state. When the external runtime is enabled the call sizes the runtime
// instead of spawning loop workers.
func (p *Pool) Initialize(proposed int) int {
	if proposed < 1 {
		return 0
	}
	if !p.state.Load().alive() {
		p.state.Store(StateStarted)
	}

	if UseRuntime() {
		return p.initializeRuntime(proposed)
	}

	if p.state.Load() == StateStarted {
		cur := p.Size()
		if cur > proposed {
			for p.Size() > proposed {
				if p.StopOne() == 0 {
					break
				}
			}
			p.logSize()
			return p.Size()
		}
		if cur == proposed {
			p.logSize()
			return cur
		}
	}

	for i := p.Size(); i < proposed; i++ {
		idx := p.masterIndex + uint64(i) + 1
		h := p.spawnWorker(idx)
		p.taskMu.Lock()
		p.workerGIDs = append(p.workerGIDs, h.gid)
		p.joined = append(p.joined, false)
		p.workers = append(p.workers, h)
		p.taskMu.Unlock()
		p.size.Add(1)
	}

	p.taskMu.Lock()
	defer p.taskMu.Unlock()
	p.assertAligned("Initialize")
	p.logSize()
	return len(p.workerGIDs)
}

// spawnWorker starts one worker goroutine and waits for it to report
// its identity. Goroutine creation cannot fail transiently the way OS
// thread creation can, so there is no skip-and-continue branch here.
func (p *Pool) spawnWorker(index uint64) *workerHandle {
	h := &workerHandle{
		index:   index,
		started: make(chan uint64, 1),
		done:    make(chan struct{}),
	}
	go workerEntry(p, int64(index), h)
	h.gid = <-h.started
	return h
}

// StopOne posts a stop token, wakes one waiter and blocks until a
// volunteer worker acknowledges, then joins it and removes it from the
// bookkeeping. Returns the resulting pool size. The volunteer is
// non-deterministic. Master-only.
func (p *Pool) StopOne() int {
	if !p.state.Load().alive() || p.Size() == 0 {
		return 0
	}
	p.state.Store(StatePartial)

	p.taskMu.Lock()
	p.stopTokens = append(p.stopTokens, true)
	p.taskCond.Signal()

	// A worker mid-task has not seen the notification yet; wait for the
	// acknowledgement instead of draining a list that is still empty.
	for len(p.ackStops) == 0 {
		p.ackCond.Wait()
	}

	var stopped []*workerHandle
	for _, gid := range p.ackStops {
		for i, wid := range p.workerGIDs {
			if wid != gid {
				continue
			}
			p.workerGIDs = append(p.workerGIDs[:i], p.workerGIDs[i+1:]...)
			p.joined = p.joined[:len(p.joined)-1]
			stopped = append(stopped, p.workers[i])
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			break
		}
	}
	p.ackStops = nil
	if len(p.stopTokens) == 0 {
		p.state.Store(StateStarted)
	}
	n := len(p.workerGIDs)
	p.size.Store(int64(n))
	p.assertAligned("StopOne")
	p.taskMu.Unlock()

	for _, h := range stopped {
		<-h.done
		defaultRegistry.Forget(h.gid)
	}
	if p.verbose.Load() > 0 {
		p.log.Info("worker stopped", zap.Int("size", n))
	}
	return n
}

// Destroy tears the pool down: stores Stopped, dislodges all waiters,
// releases the external runtime, erases worker registry entries and
// joins every worker in order. Idempotent; returns 0.
func (p *Pool) Destroy() int {
	prev := p.state.Swap(StateStopped)

	// The store above is sequenced before this broadcast; a waking
	// worker therefore observes Stopped on its next state load.
	p.taskMu.Lock()
	p.taskCond.Broadcast()
	p.taskMu.Unlock()

	p.releaseRuntime()

	if !prev.alive() {
		p.state.Store(prev)
		return 0
	}

	p.taskMu.Lock()
	p.assertAligned("Destroy")
	gids := append([]uint64(nil), p.workerGIDs...)
	handles := append([]*workerHandle(nil), p.workers...)
	p.taskMu.Unlock()

	for _, gid := range gids {
		defaultRegistry.Forget(gid)
	}

	// Covers workers that blocked after the first broadcast.
	p.taskMu.Lock()
	p.taskCond.Broadcast()
	p.taskMu.Unlock()

	for i, h := range handles {
		<-h.done
		p.taskMu.Lock()
		if i < len(p.joined) {
			p.joined[i] = true
		}
		p.taskMu.Unlock()
	}

	p.taskMu.Lock()
	p.workerGIDs = nil
	p.joined = nil
	p.workers = nil
	p.stopTokens = nil
	p.ackStops = nil
	p.taskMu.Unlock()

	p.size.Store(0)
	p.awake.Store(0)
	p.state.Store(StateNonInit)
	if p.verbose.Load() > 0 {
		p.log.Info("pool destroyed", zap.Uint64("thread", GetThisThreadID()))
	}
	return 0
}

// Stats returns a snapshot of the pool gauges.
func (p *Pool) Stats() map[string]any {
	return map[string]any{
		"pool_size": p.Size(),
		"awake":     p.awake.Load(),
		"executed":  p.executed.Load(),
		"state":     p.state.Load().String(),
	}
}

// Config returns the pool's runtime configuration store. Raising the
// verbose key on a live pool enables the verbose-gated log sites from the
// next call on. The logger is not rebuilt: a pool whose logger was built
// silent (PTL_VERBOSE 0 and no WithLogger) still emits nothing.
func (p *Pool) Config() *control.ConfigStore { return p.config }

// Probes returns the pool's debug probe registry.
func (p *Pool) Probes() *control.DebugProbes { return p.probes }

// assertAligned panics with a structured invariant error when the joined
// bookkeeping diverged from the worker id list. Caller holds taskMu.
func (p *Pool) assertAligned(op string) {
	if len(p.joined) != len(p.workerGIDs) {
		panic(api.NewError(api.ErrCodeInvariant,
			"joined bookkeeping diverged from worker ids").
			WithContext("op", op).
			WithContext("joined", len(p.joined)).
			WithContext("worker_ids", len(p.workerGIDs)))
	}
}

func (p *Pool) logSize() {
	if p.verbose.Load() > 0 {
		p.log.Info("pool initialized", zap.Int("size", p.Size()))
	}
}

// awakeInc and awakeDec keep the diagnostic gauge clamped to
// [0, pool_size].
func (p *Pool) awakeInc() {
	if p.awake.Load() < p.size.Load() {
		p.awake.Add(1)
	}
}

func (p *Pool) awakeDec() {
	if p.awake.Load() > 0 {
		p.awake.Add(-1)
	}
}
