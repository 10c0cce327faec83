// File: api/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lifecycle surface of a worker pool.

package api

// Pool is the lifecycle surface of a task-parallel worker pool.
type Pool interface {
	// Initialize grows or shrinks the pool to exactly n workers and
	// returns the resulting size. n < 1 is a no-op returning 0.
	Initialize(n int) int

	// Destroy tears the pool down: every worker observes the stop,
	// finishes its current task and is joined. Idempotent; returns 0.
	Destroy() int

	// StopOne asks one worker, chosen non-deterministically, to exit.
	// Returns the resulting pool size. Must be called from the thread
	// that constructed the pool.
	StopOne() int

	// IsInitialized reports whether the pool is alive: initialized and
	// not yet destroyed. A pool shrunk to zero workers still reports true.
	IsInitialized() bool

	// Size returns the current number of live workers, master excluded.
	Size() int
}
