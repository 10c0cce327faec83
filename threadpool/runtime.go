// File: threadpool/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Optional passthrough to an external bulk goroutine runtime
// (github.com/panjf2000/ants). When enabled before pool construction,
// Initialize sizes an ants pool instead of spawning loop workers and
// submitters route callables straight to it; the queue/condition
// machinery of this package stays idle. Destroy releases the runtime.

package threadpool

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/panjf2000/ants/v2"
)

// useRuntime is process-wide, mirroring the registry: pools built while
// it is set delegate to the external runtime.
var useRuntime atomic.Bool

// SetUseRuntime toggles delegation to the external bulk runtime for
// pools initialized afterwards.
func SetUseRuntime(enable bool) { useRuntime.Store(enable) }

// UseRuntime reports whether external-runtime delegation is enabled.
func UseRuntime() bool { return useRuntime.Load() }

// runtimeHandle wraps the optional ants pool.
type runtimeHandle struct {
	pool *ants.Pool
}

// Runtime returns the active external runtime, or nil when the pool runs
// its own workers.
func (p *Pool) Runtime() *ants.Pool { return p.runtime.pool }

// initializeRuntime sizes the external runtime to proposed workers.
func (p *Pool) initializeRuntime(proposed int) int {
	if p.runtime.pool == nil {
		rt, err := ants.NewPool(proposed)
		if err != nil {
			p.log.Error("external runtime init failed", zap.Error(err))
			return 0
		}
		p.runtime.pool = rt
	} else if p.runtime.pool.Cap() != proposed {
		p.runtime.pool.Tune(proposed)
	}
	p.size.Store(int64(proposed))
	if p.verbose.Load() > 0 {
		p.log.Info("pool initialized on external runtime",
			zap.Int("size", proposed))
	}
	return proposed
}

// releaseRuntime releases the external runtime if active. It does not
// wait for tasks still running on the runtime.
func (p *Pool) releaseRuntime() {
	if p.runtime.pool == nil {
		return
	}
	p.runtime.pool.Release()
	p.runtime.pool = nil
	p.size.Store(0)
	if p.verbose.Load() > 0 {
		p.log.Info("external runtime released")
	}
}
