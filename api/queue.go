// File: api/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Queue substrate contract consumed by the worker pool. Implementations
// choose their internal structure (per-worker bins, work stealing, rings);
// the pool only relies on the three operations below.

package api

// TaskQueue is the queueing substrate the pool drains.
//
// Empty is observational and may race: a bin-partitioned queue is allowed
// to report true while tasks exist in bins the probe skipped. TrueSize is
// the authoritative total across all bins; the pool's wait predicate uses
// it to defeat stale Empty returns.
type TaskQueue interface {
	// GetTask pops a task without blocking. Returns nil when no task is
	// available. Safe under concurrent callers.
	GetTask() Task

	// Empty reports whether the queue appears empty. Hint only.
	Empty() bool

	// TrueSize returns the authoritative number of queued tasks across
	// all internal bins. Safe under concurrent callers.
	TrueSize() int
}

// TaskSink is implemented by queues that accept external submission.
type TaskSink interface {
	// Enqueue inserts a task. Safe under concurrent callers.
	Enqueue(Task)
}

// Task is a single unit of work. A task is executed exactly once by a
// worker. Ownership after execution follows the group contract: a task
// with no group is released by the worker that ran it, a task with a
// group stays owned by the group.
type Task interface {
	// Execute runs the user's work. Called exactly once.
	Execute()

	// TaskGroup returns the aggregation handle this task belongs to,
	// or nil when the task is standalone.
	TaskGroup() Group

	// Release returns the task's resources to their allocation pool.
	// The pool calls it after executing a standalone task and never calls
	// it for a group-owned task.
	Release()
}

// Group is an external aggregation handle owning its member tasks.
type Group interface {
	// Wait blocks until every task attached to the group has finished.
	Wait()
}
