// File: tasking/submit.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tasking

import (
	"golang.org/x/sync/semaphore"

	"github.com/momentics/taskpool/api"
	"github.com/momentics/taskpool/threadpool"
)

// tryEnqueuer is satisfied by bounded queues that can refuse insertion.
type tryEnqueuer interface {
	TryEnqueue(api.Task) bool
}

// Submitter posts tasks into a pool's queue and wakes one waiter per
// post. When the pool runs on the external bulk runtime, submissions are
// delegated to it and the queue is bypassed.
type Submitter struct {
	pool *threadpool.Pool
	sem  *semaphore.Weighted
}

// NewSubmitter builds an unbounded submitter over p.
func NewSubmitter(p *threadpool.Pool) *Submitter {
	return &Submitter{pool: p}
}

// NewBoundedSubmitter builds a submitter that admits at most maxPending
// unfinished queued tasks; further submissions fail with
// ErrResourceExhausted. Submissions delegated to the external runtime and
// tasks executed inline are not counted against the bound.
func NewBoundedSubmitter(p *threadpool.Pool, maxPending int64) *Submitter {
	return &Submitter{pool: p, sem: semaphore.NewWeighted(maxPending)}
}

// Submit posts a standalone task.
func (s *Submitter) Submit(fn Func) error {
	return s.post(NewTask(fn))
}

// SubmitToGroup posts a task owned by g.
func (s *Submitter) SubmitToGroup(g *Group, fn Func) error {
	return s.post(g.New(fn))
}

// discard undoes a task that never reached the queue.
func discard(t *Task) {
	if t.group != nil {
		t.group.memberDone()
		t.group = nil
	}
	t.Release()
}

func (s *Submitter) post(t *Task) error {
	if !s.pool.IsInitialized() {
		discard(t)
		return api.ErrPoolClosed
	}

	if rt := s.pool.Runtime(); rt != nil {
		err := rt.Submit(func() {
			t.Execute()
			if t.group == nil {
				t.Release()
			}
		})
		if err != nil {
			discard(t)
		}
		return err
	}

	// A submitter already inside a task on a pool worker executes
	// inline: parking this worker on work only it can run would
	// deadlock the pool.
	if d := threadpool.CurrentThreadData(); d.WithinTask {
		standalone := t.group == nil
		t.Execute()
		if standalone {
			t.Release()
		}
		return nil
	}

	if s.sem != nil {
		if !s.sem.TryAcquire(1) {
			discard(t)
			return api.ErrResourceExhausted
		}
		t.onDone = func() { s.sem.Release(1) }
	}

	switch q := s.pool.Queue().(type) {
	case api.TaskSink:
		q.Enqueue(t)
	case tryEnqueuer:
		if !q.TryEnqueue(t) {
			if s.sem != nil {
				s.sem.Release(1)
			}
			t.onDone = nil
			discard(t)
			return api.ErrResourceExhausted
		}
	default:
		if s.sem != nil {
			s.sem.Release(1)
		}
		t.onDone = nil
		discard(t)
		return api.ErrNotSupported
	}

	s.pool.Notify()
	return nil
}
