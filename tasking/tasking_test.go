// File: tasking/tasking_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tasking_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/taskpool/api"
	"github.com/momentics/taskpool/tasking"
	"github.com/momentics/taskpool/threadpool"
)

func TestGroup_WaitJoinsAllMembers(t *testing.T) {
	pool := threadpool.New(4)
	defer pool.Destroy()

	sub := tasking.NewSubmitter(pool)
	grp := tasking.NewGroup()
	if grp.ID() == uuid.Nil {
		t.Fatal("group has zero id")
	}

	var done atomic.Int64
	for i := 0; i < 50; i++ {
		if err := sub.SubmitToGroup(grp, func() {
			time.Sleep(time.Millisecond)
			done.Add(1)
		}); err != nil {
			t.Fatal(err)
		}
	}
	grp.Wait()

	if got := done.Load(); got != 50 {
		t.Fatalf("Wait returned with %d/50 tasks finished", got)
	}
	if got := grp.Pending(); got != 0 {
		t.Fatalf("Pending = %d after Wait", got)
	}
}

func TestSubmitter_PoolClosed(t *testing.T) {
	pool := threadpool.New(1)
	sub := tasking.NewSubmitter(pool)
	pool.Destroy()

	if err := sub.Submit(func() {}); !errors.Is(err, api.ErrPoolClosed) {
		t.Fatalf("Submit after Destroy = %v, want ErrPoolClosed", err)
	}
}

func TestSubmitter_BoundedBackpressure(t *testing.T) {
	pool := threadpool.New(1)
	defer pool.Destroy()

	sub := tasking.NewBoundedSubmitter(pool, 2)

	gate := make(chan struct{})
	var started atomic.Int64
	blocker := func() {
		started.Add(1)
		<-gate
	}

	if err := sub.Submit(blocker); err != nil {
		t.Fatal(err)
	}
	// Make sure the worker is parked inside the first task before the
	// second occupies the remaining slot.
	deadline := time.Now().Add(time.Second)
	for started.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := sub.Submit(blocker); err != nil {
		t.Fatal(err)
	}

	if err := sub.Submit(func() {}); !errors.Is(err, api.ErrResourceExhausted) {
		t.Fatalf("over-limit Submit = %v, want ErrResourceExhausted", err)
	}

	close(gate)
	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if err := sub.Submit(func() {}); err == nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("slots never freed after tasks finished")
}

func TestSubmitter_ConcurrentSubmitters(t *testing.T) {
	pool := threadpool.New(4)
	defer pool.Destroy()

	sub := tasking.NewSubmitter(pool)
	var done atomic.Int64

	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			for j := 0; j < 100; j++ {
				if err := sub.Submit(func() { done.Add(1) }); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for done.Load() < 800 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := done.Load(); got != 800 {
		t.Fatalf("executed %d/800 submitted tasks", got)
	}
}

func TestTask_IDsDistinct(t *testing.T) {
	a := tasking.NewTask(func() {})
	b := tasking.NewTask(func() {})
	if a.ID() == b.ID() {
		t.Fatal("two tasks share an id")
	}
	if a.TaskGroup() != nil {
		t.Fatal("standalone task reports a group")
	}
	a.Release()
	b.Release()
}
