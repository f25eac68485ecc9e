package core

import (
	"context"
	"errors"
	"sync"
)

// Transport moves partitions to workers and their results back. Delivery may
// be synchronous, goroutine-based or cross-process; the reducer only relies
// on Gather returning after every dispatched partition has reported, or
// with an error.
type Transport interface {
	Scatter(ctx context.Context, partitions []Partition) error
	Gather(ctx context.Context) ([]LocalResult, error)
}

var errNotScattered = errors.New("gather called before scatter")

// SequentialTransport computes every partition in the caller's goroutine
// during Scatter. It is the single-threaded reference for the other
// transports.
type SequentialTransport struct {
	mu      sync.Mutex
	results []LocalResult
}

func NewSequentialTransport() *SequentialTransport {
	return &SequentialTransport{}
}

func (t *SequentialTransport) Scatter(ctx context.Context, partitions []Partition) error {
	results := make([]LocalResult, 0, len(partitions))
	for _, p := range partitions {
		if err := ctx.Err(); err != nil {
			return err
		}
		results = append(results, p.Compute())
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = results
	return nil
}

func (t *SequentialTransport) Gather(ctx context.Context) ([]LocalResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.results == nil {
		return nil, errNotScattered
	}
	results := t.results
	t.results = nil
	return results, nil
}
