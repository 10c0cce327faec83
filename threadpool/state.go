// File: threadpool/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import "sync/atomic"

// PoolState describes the pool lifecycle. Values are totally ordered:
// NonInit < Started < Partial < Stopped. Liveness is folded into the
// state itself: the pool is alive exactly while the state is Started or
// Partial, so a single atomic load yields a consistent observation.
type PoolState int32

const (
	// StateNonInit is the state before Initialize and after the final
	// join of Destroy.
	StateNonInit PoolState = iota
	// StateStarted means workers are running or ready to run.
	StateStarted
	// StatePartial means a shrink is in flight: stop tokens are posted
	// and one or more workers will volunteer to exit.
	StatePartial
	// StateStopped means teardown has begun. No worker may continue its
	// loop once it observes this state.
	StateStopped
)

func (s PoolState) String() string {
	switch s {
	case StateNonInit:
		return "noninit"
	case StateStarted:
		return "started"
	case StatePartial:
		return "partial"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// alive reports whether the state counts as an initialized, running pool.
func (s PoolState) alive() bool {
	return s == StateStarted || s == StatePartial
}

// poolState is the atomic cell holding a PoolState.
type poolState struct {
	v atomic.Int32
}

func (p *poolState) Load() PoolState   { return PoolState(p.v.Load()) }
func (p *poolState) Store(s PoolState) { p.v.Store(int32(s)) }

func (p *poolState) Swap(s PoolState) PoolState {
	return PoolState(p.v.Swap(int32(s)))
}
