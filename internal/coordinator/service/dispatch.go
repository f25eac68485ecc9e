package service

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

// dispatchTransport scatters a job's partitions as queued tasks and gathers
// the results workers report back through the job service.
type dispatchTransport struct {
	jobID   uuid.UUID
	service *jobService

	mu        sync.Mutex
	expected  int
	results   chan lapcore.LocalResult
	delivered map[int]bool
}

func newDispatchTransport(jobID uuid.UUID, service *jobService) *dispatchTransport {
	return &dispatchTransport{jobID: jobID, service: service}
}

func (t *dispatchTransport) Scatter(ctx context.Context, partitions []lapcore.Partition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tasks := make([]*core.Task, len(partitions))
	for i, p := range partitions {
		tasks[i] = &core.Task{
			ID:        uuid.New(),
			JobID:     t.jobID,
			Status:    core.TaskStatusPending,
			Partition: p,
			Checksum:  lapcore.Checksum(p.Samples),
			Attempt:   1,
		}
	}

	t.mu.Lock()
	t.expected = len(partitions)
	t.results = make(chan lapcore.LocalResult, len(partitions))
	t.delivered = make(map[int]bool, len(partitions))
	t.mu.Unlock()

	return t.service.enqueue(tasks)
}

// Gather waits for one result per partition. A failed partition ends the
// wait early; a done context reports the lowest partition still missing.
func (t *dispatchTransport) Gather(ctx context.Context) ([]lapcore.LocalResult, error) {
	t.mu.Lock()
	expected, results := t.expected, t.results
	t.mu.Unlock()

	collected := make([]lapcore.LocalResult, 0, expected)
	for len(collected) < expected {
		select {
		case res := <-results:
			collected = append(collected, res)
			if res.Err != nil {
				return collected, nil
			}
		case <-ctx.Done():
			missing := slices.IndexFunc(seen(expected, collected), func(ok bool) bool { return !ok })
			return nil, lapcore.NewReduceError(
				lapcore.ErrIncompleteCollection, missing,
				"%d of %d partitions reported: %v", len(collected), expected, ctx.Err(),
			)
		}
	}
	return collected, nil
}

// deliver hands a result to Gather. Only the first result per partition is
// accepted.
func (t *dispatchTransport) deliver(res lapcore.LocalResult) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.results == nil || t.delivered[res.Partition] {
		return false
	}
	t.delivered[res.Partition] = true
	t.results <- res
	return true
}

func seen(n int, results []lapcore.LocalResult) []bool {
	filled := make([]bool, n)
	for _, res := range results {
		if res.Partition >= 0 && res.Partition < n {
			filled[res.Partition] = true
		}
	}
	return filled
}
