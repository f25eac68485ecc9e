package rest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

func resolveQualifying(name string) (lapcore.Dataset, error) {
	if name != "qualifying" {
		return lapcore.Dataset{}, errors.New("unknown dataset " + name)
	}
	return lapcore.NewDataset(lapcore.Group{Name: "VER", Samples: []float64{78.2, 77.9}}), nil
}

func TestSubmitJobRequest_ToJob(t *testing.T) {
	tests := []struct {
		name        string
		req         SubmitJobRequest
		wantErr     bool
		wantName    string
		wantSamples int
		wantGroups  []string
	}{
		{
			name:        "registered dataset",
			req:         SubmitJobRequest{Dataset: "qualifying", Partitioning: PartitioningConfig{Mode: "groups"}},
			wantName:    "qualifying",
			wantSamples: 2,
			wantGroups:  []string{"VER"},
		},
		{
			name: "inline groups with default names",
			req: SubmitJobRequest{
				Groups:       []GroupSpec{{Samples: []float64{90.5}}, {Name: "B", Samples: []float64{88.1}}},
				Partitioning: PartitioningConfig{Mode: "even", Workers: 2},
			},
			wantName:    "inline",
			wantSamples: 2,
			wantGroups:  []string{"group-0", "B"},
		},
		{
			name:    "neither dataset nor groups",
			req:     SubmitJobRequest{Name: "empty"},
			wantErr: true,
		},
		{
			name: "both dataset and groups",
			req: SubmitJobRequest{
				Dataset: "qualifying",
				Groups:  []GroupSpec{{Samples: []float64{1}}},
			},
			wantErr: true,
		},
		{
			name:    "unknown dataset",
			req:     SubmitJobRequest{Dataset: "sprint"},
			wantErr: true,
		},
		{
			name:    "non-finite sample",
			req:     SubmitJobRequest{Groups: []GroupSpec{{Samples: []float64{math.NaN()}}}},
			wantErr: true,
		},
		{
			name:    "infinite sample",
			req:     SubmitJobRequest{Groups: []GroupSpec{{Samples: []float64{math.Inf(1)}}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := tt.req.ToJob(resolveQualifying)
			if tt.wantErr {
				if !errors.Is(err, errValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToJob() error = %v", err)
			}
			if job.Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, job.Name)
			}
			if job.Dataset.Len() != tt.wantSamples {
				t.Errorf("expected %d samples, got %d", tt.wantSamples, job.Dataset.Len())
			}
			if len(job.Dataset.Groups) != len(tt.wantGroups) {
				t.Fatalf("expected %d groups, got %d", len(tt.wantGroups), len(job.Dataset.Groups))
			}
			for i, name := range tt.wantGroups {
				if job.Dataset.Groups[i].Name != name {
					t.Errorf("group %d: expected name %q, got %q", i, name, job.Dataset.Groups[i].Name)
				}
			}
			if job.Partitioning.Mode != tt.req.Partitioning.Mode || job.Partitioning.Workers != tt.req.Partitioning.Workers {
				t.Errorf("partitioning not carried over: %+v", job.Partitioning)
			}
		})
	}
}

func TestToGetJobResponse(t *testing.T) {
	submitted := time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)
	started := submitted.Add(time.Second)
	completed := started.Add(1500 * time.Millisecond)

	job := &core.Job{
		ID:           uuid.New(),
		Name:         "bahrain",
		Status:       core.JobStatusCompleted,
		State:        lapcore.StateReported,
		Partitioning: core.PartitioningSpec{Mode: "even", Workers: 3, Remainder: "spread"},
		Result: &core.JobResult{
			Min: 92.6, Max: 98.4, Samples: 57, Partitions: 3, Checksum: 0xbeef, Elapsed: 1500 * time.Millisecond,
		},
		SubmittedAt: submitted,
		StartedAt:   &started,
		CompletedAt: &completed,
	}

	resp := ToGetJobResponse(job)
	if resp.State != string(lapcore.StateReported) {
		t.Errorf("expected state %s, got %s", lapcore.StateReported, resp.State)
	}
	if resp.Result == nil {
		t.Fatal("expected result")
	}
	if resp.Result.Checksum != "000000000000beef" {
		t.Errorf("expected zero-padded hex checksum, got %q", resp.Result.Checksum)
	}
	if resp.Result.ElapsedMs != 1500 || resp.DurationMs != 1500 {
		t.Errorf("expected 1500ms, got elapsed=%d duration=%d", resp.Result.ElapsedMs, resp.DurationMs)
	}
	if resp.Error != nil {
		t.Errorf("expected no error, got %+v", resp.Error)
	}
}

func TestToGetJobResponse_Failure(t *testing.T) {
	job := &core.Job{
		ID:     uuid.New(),
		Status: core.JobStatusFailed,
		State:  lapcore.StateFailed,
		Error: &core.JobError{
			Kind:      lapcore.KindEmptyPartition,
			Partition: 2,
			Message:   "partition 2 has no samples",
		},
	}

	resp := ToGetJobResponse(job)
	if resp.Result != nil {
		t.Errorf("expected no result, got %+v", resp.Result)
	}
	if resp.Error == nil || resp.Error.Kind != lapcore.KindEmptyPartition {
		t.Fatalf("expected EMPTY_PARTITION error, got %+v", resp.Error)
	}
	if resp.Error.Partition == nil || *resp.Error.Partition != 2 {
		t.Errorf("expected partition 2, got %v", resp.Error.Partition)
	}

	job.Error.Partition = lapcore.NoPartition
	if resp := ToGetJobResponse(job); resp.Error.Partition != nil {
		t.Errorf("expected partition to be omitted, got %d", *resp.Error.Partition)
	}
}

func TestToTaskInfo(t *testing.T) {
	workerID := uuid.New()
	errMsg := "worker lost"
	task := &core.Task{
		ID:        uuid.New(),
		Status:    core.TaskStatusFailed,
		Partition: lapcore.Partition{Index: 1, Name: "B", Samples: []float64{1, 2, 3}},
		WorkerID:  &workerID,
		Attempt:   2,
		Error:     &errMsg,
	}

	info := ToTaskInfo(task)
	if info.Partition != 1 || info.Name != "B" || info.Samples != 3 {
		t.Errorf("unexpected partition fields: %+v", info)
	}
	if info.WorkerID != workerID.String() || info.Attempts != 2 || info.Error != errMsg {
		t.Errorf("unexpected task fields: %+v", info)
	}
	if info.Min != nil || info.Max != nil {
		t.Errorf("expected no extrema for a failed task")
	}

	task.Status = core.TaskStatusCompleted
	task.Error = nil
	task.Result = &lapcore.LocalExtrema{Min: 1, Max: 3}
	info = ToTaskInfo(task)
	if info.Min == nil || *info.Min != 1 || info.Max == nil || *info.Max != 3 {
		t.Errorf("expected extrema (1, 3), got %+v", info)
	}
}
