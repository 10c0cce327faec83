// File: tasking/group.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tasking

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Group aggregates related tasks into one join handle. A task created
// through a group belongs to it: the worker that executes the task does
// not release it, and Wait returns once every member has finished.
type Group struct {
	id      uuid.UUID
	wg      sync.WaitGroup
	pending atomic.Int64
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{id: uuid.New()}
}

// ID returns the group's identity.
func (g *Group) ID() uuid.UUID { return g.id }

// New creates a task bound to the group.
func (g *Group) New(fn Func) *Task {
	t := taskPool.Get().(*Task)
	t.id = uuid.New()
	t.fn = fn
	t.group = g
	t.onDone = nil
	g.wg.Add(1)
	g.pending.Add(1)
	return t
}

// Pending returns the number of member tasks not yet finished.
func (g *Group) Pending() int64 { return g.pending.Load() }

// Wait blocks until every member task has finished.
func (g *Group) Wait() { g.wg.Wait() }

func (g *Group) memberDone() {
	g.pending.Add(-1)
	g.wg.Done()
}
