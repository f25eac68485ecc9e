package local

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nemanja-m/lapreduce/pkg/core"
)

var errNotScattered = errors.New("gather called before scatter")

// Transport runs one pool task per partition inside this process. Each task
// reads only its own partition and writes only its own result slot, so the
// parallel phase needs no locks; Gather is the barrier.
type Transport struct {
	tasks  int
	logger core.Logger

	mu    sync.Mutex
	batch *batch
}

type batch struct {
	slots []core.LocalResult
	done  chan struct{}
}

// NewTransport returns a transport running at most tasks partitions at once.
// tasks <= 0 runs one goroutine per partition.
func NewTransport(tasks int, logger core.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{tasks: tasks, logger: logger}
}

func (t *Transport) Scatter(ctx context.Context, partitions []core.Partition) error {
	b := &batch{
		slots: make([]core.LocalResult, len(partitions)),
		done:  make(chan struct{}),
	}

	size := t.tasks
	if size <= 0 || size > len(partitions) {
		size = len(partitions)
	}
	pool := NewPool(size)
	pool.Start()

	go func() {
		defer close(b.done)
		for i, p := range partitions {
			pool.Submit(func(workerID int) {
				b.slots[i] = p.Compute()
				t.logger.Debug("Partition processed", "task", workerID, "partition", p.Index, "name", p.Name)
			})
		}
		pool.Close()
	}()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.batch = b
	return nil
}

func (t *Transport) Gather(ctx context.Context) ([]core.LocalResult, error) {
	t.mu.Lock()
	b := t.batch
	t.batch = nil
	t.mu.Unlock()

	if b == nil {
		return nil, errNotScattered
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return b.slots, nil
	}
}
