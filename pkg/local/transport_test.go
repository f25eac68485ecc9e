package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nemanja-m/lapreduce/pkg/core"
)

func referenceDataset() core.Dataset {
	return core.NewDataset(
		core.Group{Name: "driver-a", Samples: []float64{85.34, 84.95, 85.11, 92.34, 84.88, 85.05, 84.99, 86.12, 90.50, 85.21}},
		core.Group{Name: "driver-b", Samples: []float64{84.75, 84.91, 85.88, 84.82, 91.60, 85.15, 84.79, 85.33, 89.98, 85.01}},
		core.Group{Name: "driver-c", Samples: []float64{86.10, 85.55, 85.43, 84.92, 88.88, 85.67, 93.10, 85.29, 86.04, 85.77}},
	)
}

func TestTransport_NamedGroupsAsIndependentTasks(t *testing.T) {
	r := core.NewReducer(core.NamedGroups{}, NewTransport(0, nil))

	rep, err := r.Run(context.Background(), referenceDataset())
	require.NoError(t, err)
	require.Equal(t, core.GlobalExtrema{Min: 84.75, Max: 93.10}, rep.Extrema)
}

func TestTransport_MatchesSequential(t *testing.T) {
	ds := referenceDataset()

	for _, workers := range []int{1, 2, 3, 5, 6, 10, 15, 30} {
		partitioner := core.EvenChunks{Workers: workers}

		want, err := core.NewReducer(partitioner, core.NewSequentialTransport()).Run(context.Background(), ds)
		require.NoError(t, err)

		for _, tasks := range []int{0, 1, 4} {
			got, err := core.NewReducer(partitioner, NewTransport(tasks, nil)).Run(context.Background(), ds)
			require.NoError(t, err)
			require.Equal(t, want.Extrema, got.Extrema, "workers=%d tasks=%d", workers, tasks)
			require.Equal(t, want.Locals, got.Locals, "workers=%d tasks=%d", workers, tasks)
		}
	}
}

func TestTransport_EverySlotWrittenOnce(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = float64(i)
	}
	parts, err := core.EvenChunks{Workers: 100}.Partition(core.NewDataset(core.Group{Samples: samples}))
	require.NoError(t, err)

	tr := NewTransport(8, nil)
	require.NoError(t, tr.Scatter(context.Background(), parts))
	results, err := tr.Gather(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 100)

	for i, res := range results {
		require.NoError(t, res.Err)
		require.Equal(t, i, res.Partition)
		require.Equal(t, core.LocalExtrema{Min: float64(i * 10), Max: float64(i*10 + 9)}, res.Extrema)
	}
}

func TestTransport_EmptyPartitionSurfaces(t *testing.T) {
	ds := core.NewDataset(
		core.Group{Name: "a", Samples: []float64{1}},
		core.Group{Name: "b"},
	)

	_, err := core.NewReducer(core.NamedGroups{}, NewTransport(0, nil)).Run(context.Background(), ds)
	require.ErrorIs(t, err, core.ErrEmptyPartition)
}

func TestTransport_GatherBeforeScatter(t *testing.T) {
	_, err := NewTransport(1, nil).Gather(context.Background())
	require.Error(t, err)
}

func TestTransport_GatherHonoursContext(t *testing.T) {
	tr := NewTransport(1, nil)
	tr.batch = &batch{done: make(chan struct{})}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := tr.Gather(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
