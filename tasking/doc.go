// File: tasking/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package tasking supplies the minimal task representation and
// submission surface over a threadpool.Pool: callable tasks with stable
// ids, groups as join handles owning their member tasks, and a
// Submitter that enqueues, wakes a worker, and optionally bounds the
// number of pending tasks.
package tasking
