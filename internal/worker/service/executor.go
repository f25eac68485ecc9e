package service

import (
	"context"
	"fmt"

	"github.com/nemanja-m/lapreduce/internal/shared/wire"
	"github.com/nemanja-m/lapreduce/internal/worker/core"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

type extremaExecutor struct{}

func NewExtremaExecutor() core.TaskExecutor {
	return &extremaExecutor{}
}

// Execute verifies the partition payload against its checksum and computes
// the partition's local extrema.
func (e *extremaExecutor) Execute(ctx context.Context, task *wire.TaskAssignment) (lapcore.LocalExtrema, error) {
	if err := ctx.Err(); err != nil {
		return lapcore.LocalExtrema{}, err
	}
	if sum := lapcore.Checksum(task.Samples); sum != task.Checksum {
		return lapcore.LocalExtrema{}, fmt.Errorf("checksum mismatch: got %016x, want %016x", sum, task.Checksum)
	}

	p := lapcore.Partition{Index: task.Partition, Name: task.Name, Samples: task.Samples}
	return p.Extrema()
}
