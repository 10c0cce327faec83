// File: threadpool/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide mapping from goroutine identity to stable worker index.
// The first goroutine to query the registry gets index 0 and is the
// designated master. Contention is negligible: the registry is touched
// on worker start/stop and on explicit identity queries only, so a
// single mutex guards the whole map.

package threadpool

import "sync"

// ThreadRegistry issues stable 0-based worker indices keyed by goroutine
// identity.
type ThreadRegistry struct {
	mu  sync.Mutex
	ids map[uint64]uint64
}

// process-wide registry, lazily populated. The master's entry is created
// by the first SelfIndex call and never removed.
var defaultRegistry = &ThreadRegistry{ids: make(map[uint64]uint64)}

// Registry returns the process-wide thread registry.
func Registry() *ThreadRegistry { return defaultRegistry }

// SelfIndex returns the caller's worker index, assigning the next free
// index when the caller is unknown.
func (r *ThreadRegistry) SelfIndex() uint64 {
	gid := currentGoroutineID()
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.ids[gid]
	if !ok {
		idx = uint64(len(r.ids))
		r.ids[gid] = idx
	}
	return idx
}

// Assign inserts id at the hinted index. A negative hint assigns the
// next free index instead; used by the pool during worker startup.
func (r *ThreadRegistry) Assign(id uint64, hint int64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := uint64(hint)
	if hint < 0 {
		idx = uint64(len(r.ids))
	}
	r.ids[id] = idx
	return idx
}

// Forget removes an entry; called when the pool joins a worker.
func (r *ThreadRegistry) Forget(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, id)
}

// Lookup returns the index registered for id.
func (r *ThreadRegistry) Lookup(id uint64) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.ids[id]
	return idx, ok
}

// Size returns the number of registered goroutines.
func (r *ThreadRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// GetThisThreadID returns the caller's stable worker index, assigning one
// if the caller has never been seen. The constructing goroutine of the
// first pool in the process is guaranteed index 0.
func GetThisThreadID() uint64 {
	return defaultRegistry.SelfIndex()
}
