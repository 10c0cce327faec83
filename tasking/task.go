// File: tasking/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tasking

import (
	"sync"

	"github.com/google/uuid"

	"github.com/momentics/taskpool/api"
	"github.com/momentics/taskpool/threadpool"
)

// Func is a unit of work to execute.
type Func func()

// Task wraps a Func with a stable id and an optional group binding.
// Standalone tasks are recycled by the worker that ran them; group-bound
// tasks stay owned by their group.
type Task struct {
	id     uuid.UUID
	fn     Func
	group  *Group
	onDone func()
}

// taskPool recycles Task shells so steady-state submission does not
// allocate.
var taskPool = sync.Pool{New: func() any { return new(Task) }}

// NewTask builds a standalone task around fn.
func NewTask(fn Func) *Task {
	t := taskPool.Get().(*Task)
	t.id = uuid.New()
	t.fn = fn
	t.group = nil
	t.onDone = nil
	return t
}

// ID returns the task's identity.
func (t *Task) ID() uuid.UUID { return t.id }

// Execute runs the task body once, maintaining the nesting depth of the
// executing worker and notifying the group and completion hook even when
// the body panics.
func (t *Task) Execute() {
	d := threadpool.CurrentThreadData()
	d.TaskDepth++
	defer func() {
		d.TaskDepth--
		if t.group != nil {
			t.group.memberDone()
		}
		if t.onDone != nil {
			t.onDone()
		}
	}()
	if t.fn != nil {
		t.fn()
	}
}

// TaskGroup returns the owning group, nil for standalone tasks.
func (t *Task) TaskGroup() api.Group {
	if t.group == nil {
		return nil
	}
	return t.group
}

// Release clears the task and returns it to the recycling pool.
func (t *Task) Release() {
	t.fn = nil
	t.group = nil
	t.onDone = nil
	taskPool.Put(t)
}
