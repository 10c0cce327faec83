// File: queue/binqueue_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package queue

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/momentics/taskpool/api"
)

type countTask struct {
	runs     atomic.Int64
	releases atomic.Int64
}

func (c *countTask) Execute()            { c.runs.Add(1) }
func (c *countTask) TaskGroup() api.Group { return nil }
func (c *countTask) Release()            { c.releases.Add(1) }

func TestBinQueue_Basic(t *testing.T) {
	q := NewBinQueue(4)
	if !q.Empty() || q.TrueSize() != 0 {
		t.Fatal("fresh queue not empty")
	}
	if q.GetTask() != nil {
		t.Fatal("GetTask on empty queue returned a task")
	}

	tasks := make([]*countTask, 10)
	for i := range tasks {
		tasks[i] = &countTask{}
		q.Enqueue(tasks[i])
	}
	if q.Empty() {
		t.Fatal("queue empty after enqueue")
	}
	if got := q.TrueSize(); got != 10 {
		t.Fatalf("TrueSize = %d, want 10", got)
	}

	for i := 0; i < 10; i++ {
		if q.GetTask() == nil {
			t.Fatalf("GetTask %d returned nil with tasks queued", i)
		}
	}
	if !q.Empty() || q.TrueSize() != 0 {
		t.Fatal("queue not empty after draining")
	}
}

func TestBinQueue_StealsAcrossBins(t *testing.T) {
	// More bins than tasks. A GetTask on the empty queue moves the remove
	// cursor one bin ahead of the insert cursor, so the tasks land in bins
	// 1 and 2 while the pops start at bins 2 and 3: the second pop finds
	// its cursor bin empty and must steal the task stranded in bin 1.
	q := NewBinQueue(8)
	if q.GetTask() != nil {
		t.Fatal("GetTask on empty queue returned a task")
	}
	q.Enqueue(&countTask{})
	q.Enqueue(&countTask{})

	if q.GetTask() == nil || q.GetTask() == nil {
		t.Fatal("steal miss: task stranded in another bin")
	}
}

func TestBinQueue_SmallHint(t *testing.T) {
	q := NewBinQueue(0)
	q.Enqueue(&countTask{})
	if q.GetTask() == nil {
		t.Fatal("single-bin queue lost its task")
	}
}

func TestBinQueue_Concurrent(t *testing.T) {
	const (
		producers = 4
		perProd   = 250
	)
	q := NewBinQueue(4)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProd; j++ {
				q.Enqueue(&countTask{})
			}
		}()
	}

	var got atomic.Int64
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for got.Load() < producers*perProd {
				if q.GetTask() != nil {
					got.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got.Load() != producers*perProd {
		t.Fatalf("drained %d tasks, want %d", got.Load(), producers*perProd)
	}
	if q.TrueSize() != 0 {
		t.Fatalf("TrueSize = %d after drain", q.TrueSize())
	}
}
