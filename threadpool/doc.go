// File: threadpool/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package threadpool implements a long-lived task-parallel worker pool.
// Workers cooperatively pull tasks from a shared queue substrate
// (api.TaskQueue), execute them and coordinate lifecycle transitions
// (start, partial shrink, full teardown) with the master, the goroutine
// that constructed the pool.
//
// The pool blocks idle workers on a condition variable paired with a
// single task mutex; the wait predicate is double-gated against the
// queue's observational Empty hint and its authoritative TrueSize so
// bin-partitioned queues cannot strand a submitted task. An optional
// external bulk runtime (github.com/panjf2000/ants) can replace the
// in-package workers entirely, see runtime.go.
package threadpool
