package core

import (
	"container/heap"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// TaskPriority defines task urgency levels (lower value means higher priority).
type TaskPriority int

const (
	// TaskPriorityRetry is used for re-queued tasks so a job blocked on a
	// lost partition is unblocked before fresh work is handed out.
	TaskPriorityRetry  TaskPriority = 0
	TaskPriorityNormal TaskPriority = 1
)

// ErrQueueEmpty is returned when Pop() is called on an empty queue.
var ErrQueueEmpty = errors.New("priority queue is empty")

// TaskPriorityQueue is a thread-safe min-heap for tasks, popping highest-priority tasks first.
// Tasks with the same priority are served in FIFO order.
type TaskPriorityQueue interface {
	Push(task *Task, priority TaskPriority) error
	Pop() (*Task, error)
	// RemoveJob drops every queued task of a job and returns them.
	RemoveJob(jobID uuid.UUID) []*Task
	Len() int
}

type heapTaskPriorityQueue struct {
	pq       priorityQueue
	mu       sync.RWMutex
	sequence uint64
}

func NewTaskPriorityQueue() TaskPriorityQueue {
	pq := make(priorityQueue, 0)
	heap.Init(&pq)
	return &heapTaskPriorityQueue{pq: pq}
}

func (tpq *heapTaskPriorityQueue) Push(task *Task, priority TaskPriority) error {
	if task == nil {
		return errors.New("cannot push nil task")
	}

	tpq.mu.Lock()
	defer tpq.mu.Unlock()

	heap.Push(&tpq.pq, &item{
		task:     task,
		priority: priority,
		sequence: tpq.sequence,
	})
	tpq.sequence++
	return nil
}

func (tpq *heapTaskPriorityQueue) Pop() (*Task, error) {
	tpq.mu.Lock()
	defer tpq.mu.Unlock()

	if tpq.pq.Len() == 0 {
		return nil, ErrQueueEmpty
	}
	it := heap.Pop(&tpq.pq).(*item)
	return it.task, nil
}

func (tpq *heapTaskPriorityQueue) RemoveJob(jobID uuid.UUID) []*Task {
	tpq.mu.Lock()
	defer tpq.mu.Unlock()

	var removed []*Task
	kept := tpq.pq[:0]
	for _, it := range tpq.pq {
		if it.task.JobID == jobID {
			removed = append(removed, it.task)
			continue
		}
		kept = append(kept, it)
	}
	clear(tpq.pq[len(kept):])
	tpq.pq = kept
	for i, it := range tpq.pq {
		it.index = i
	}
	heap.Init(&tpq.pq)
	return removed
}

func (tpq *heapTaskPriorityQueue) Len() int {
	tpq.mu.RLock()
	defer tpq.mu.RUnlock()
	return tpq.pq.Len()
}

// item wraps a Task with its priority, sequence number, and index in the heap.
type item struct {
	task     *Task
	priority TaskPriority
	sequence uint64 // Insertion order for FIFO within same priority
	index    int    // Required by heap.Interface
}

// priorityQueue satisfies heap.Interface.
type priorityQueue []*item

func (pq priorityQueue) Len() int {
	return len(pq)
}

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].sequence < pq[j].sequence
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := len(*pq)
	it := x.(*item)
	it.index = n
	*pq = append(*pq, it)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}
