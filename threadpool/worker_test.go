// File: threadpool/worker_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Run-loop tests: wait discipline, disposal contract, reentrancy guard,
// panic containment.

package threadpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/taskpool/api"
	"github.com/momentics/taskpool/tasking"
	"github.com/momentics/taskpool/threadpool"
)

// fakeTask counts executions and releases; group is an optional stub.
type fakeTask struct {
	executed atomic.Int64
	released atomic.Int64
	group    api.Group
	body     func()
}

func (f *fakeTask) Execute() {
	f.executed.Add(1)
	if f.body != nil {
		f.body()
	}
}

func (f *fakeTask) TaskGroup() api.Group { return f.group }
func (f *fakeTask) Release()             { f.released.Add(1) }

type stubGroup struct{}

func (stubGroup) Wait() {}

// flakyQueue reports Empty()==true for the first few probes after a
// task arrives while TrueSize stays authoritative, mimicking a
// bin-partitioned queue whose emptiness hint races.
type flakyQueue struct {
	mu      sync.Mutex
	tasks   []api.Task
	misses  int
	pending int
}

func (f *flakyQueue) Enqueue(t api.Task) {
	f.mu.Lock()
	f.tasks = append(f.tasks, t)
	f.pending = 3
	f.mu.Unlock()
}

func (f *flakyQueue) GetTask() api.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tasks) == 0 {
		return nil
	}
	t := f.tasks[0]
	f.tasks = f.tasks[1:]
	return t
}

func (f *flakyQueue) Empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending > 0 {
		f.pending--
		return true
	}
	return len(f.tasks) == 0
}

func (f *flakyQueue) TrueSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func TestWorker_StandaloneTaskReleased(t *testing.T) {
	pool := threadpool.New(1)
	defer pool.Destroy()

	ft := &fakeTask{}
	pool.Queue().(api.TaskSink).Enqueue(ft)
	pool.Notify()

	waitFor(t, time.Second, func() bool { return ft.released.Load() == 1 })
	if got := ft.executed.Load(); got != 1 {
		t.Fatalf("executed %d times, want 1", got)
	}
}

func TestWorker_GroupTaskNotReleased(t *testing.T) {
	pool := threadpool.New(1)
	defer pool.Destroy()

	ft := &fakeTask{group: stubGroup{}}
	pool.Queue().(api.TaskSink).Enqueue(ft)
	pool.Notify()

	waitFor(t, time.Second, func() bool { return ft.executed.Load() == 1 })
	time.Sleep(10 * time.Millisecond)
	if got := ft.released.Load(); got != 0 {
		t.Fatalf("worker released a group-owned task %d times", got)
	}
}

func TestWorker_QueueDisagreement(t *testing.T) {
	fq := &flakyQueue{}
	pool := threadpool.New(2, threadpool.WithQueue(fq))
	defer pool.Destroy()

	ft := &fakeTask{}
	fq.Enqueue(ft)
	pool.Notify()

	// The wait predicate must catch TrueSize > 0 despite Empty lying.
	waitFor(t, time.Second, func() bool { return ft.executed.Load() == 1 })
}

func TestWorker_WithinTaskFlag(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Destroy()

	var within, depth atomic.Int64
	sub := tasking.NewSubmitter(pool)
	if err := sub.Submit(func() {
		d := threadpool.CurrentThreadData()
		if d.WithinTask {
			within.Store(1)
		}
		depth.Store(int64(d.TaskDepth))
	}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool { return within.Load() == 1 })
	if got := depth.Load(); got != 1 {
		t.Fatalf("TaskDepth inside task = %d, want 1", got)
	}

	if threadpool.CurrentThreadData().WithinTask {
		t.Fatal("master context claims WithinTask")
	}
}

func TestWorker_ReentrantSubmitRunsInline(t *testing.T) {
	pool := threadpool.New(1)
	defer pool.Destroy()

	sub := tasking.NewSubmitter(pool)
	var inner atomic.Int64
	done := make(chan struct{})
	if err := sub.Submit(func() {
		// With one worker, parking on nested work would deadlock; the
		// submitter must execute it inline.
		if err := sub.Submit(func() { inner.Add(1) }); err != nil {
			t.Error(err)
		}
		if inner.Load() != 1 {
			t.Error("nested task was not executed inline")
		}
		close(done)
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reentrant submission deadlocked the pool")
	}
}

func TestWorker_PanicDoesNotKillWorker(t *testing.T) {
	pool := threadpool.New(1)
	defer pool.Destroy()

	sub := tasking.NewSubmitter(pool)
	if err := sub.Submit(func() { panic("task failure") }); err != nil {
		t.Fatal(err)
	}

	var value atomic.Int64
	if err := sub.Submit(func() { value.Store(1) }); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return value.Load() == 1 })
	if got := pool.Size(); got != 1 {
		t.Fatalf("pool shrank after task panic: Size = %d", got)
	}
}

func TestWorker_WarmupDequeue(t *testing.T) {
	// A task queued before workers exist is picked up by the bootstrap
	// dequeue without any notification.
	fq := &flakyQueue{}
	ft := &fakeTask{}
	fq.Enqueue(ft)
	fq.pending = 0

	pool := threadpool.New(1, threadpool.WithQueue(fq))
	defer pool.Destroy()

	waitFor(t, time.Second, func() bool { return ft.executed.Load() == 1 })
}
