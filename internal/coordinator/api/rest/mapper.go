package rest

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

// DatasetResolver looks up a registered dataset by name.
type DatasetResolver func(name string) (lapcore.Dataset, error)

var errValidation = errors.New("validation failed")

// ToJob validates the request and builds the job it describes.
func (req *SubmitJobRequest) ToJob(resolve DatasetResolver) (*core.Job, error) {
	if req.Dataset == "" && len(req.Groups) == 0 {
		return nil, fmt.Errorf("%w: either dataset or groups is required", errValidation)
	}
	if req.Dataset != "" && len(req.Groups) > 0 {
		return nil, fmt.Errorf("%w: dataset and groups are mutually exclusive", errValidation)
	}

	var ds lapcore.Dataset
	if req.Dataset != "" {
		resolved, err := resolve(req.Dataset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errValidation, err)
		}
		ds = resolved
	} else {
		groups := make([]lapcore.Group, len(req.Groups))
		for i, g := range req.Groups {
			for j, s := range g.Samples {
				if math.IsNaN(s) || math.IsInf(s, 0) {
					return nil, fmt.Errorf("%w: group %d sample %d is not finite", errValidation, i, j)
				}
			}
			name := g.Name
			if name == "" {
				name = "group-" + strconv.Itoa(i)
			}
			groups[i] = lapcore.Group{Name: name, Samples: g.Samples}
		}
		ds = lapcore.NewDataset(groups...)
	}

	name := req.Name
	if name == "" {
		name = req.Dataset
	}
	if name == "" {
		name = "inline"
	}

	return &core.Job{
		Name:    name,
		Dataset: ds,
		Partitioning: core.PartitioningSpec{
			Mode:      req.Partitioning.Mode,
			Workers:   req.Partitioning.Workers,
			Remainder: req.Partitioning.Remainder,
		},
	}, nil
}

func ToGetJobResponse(job *core.Job) GetJobResponse {
	resp := GetJobResponse{
		JobID:  job.ID.String(),
		Name:   job.Name,
		Status: string(job.Status),
		State:  string(job.State),
		Partitioning: PartitioningConfig{
			Mode:      job.Partitioning.Mode,
			Workers:   job.Partitioning.Workers,
			Remainder: job.Partitioning.Remainder,
		},
		Progress: TaskProgress{
			Total:     job.Progress.Total,
			Pending:   job.Progress.Pending,
			Running:   job.Progress.Running,
			Completed: job.Progress.Completed,
			Failed:    job.Progress.Failed,
		},
		Timestamps: TimestampsInfo{
			Submitted: job.SubmittedAt,
			Started:   job.StartedAt,
			Completed: job.CompletedAt,
		},
		DurationMs: job.Duration().Milliseconds(),
	}

	if r := job.Result; r != nil {
		resp.Result = &ResultInfo{
			Min:        r.Min,
			Max:        r.Max,
			Samples:    r.Samples,
			Partitions: r.Partitions,
			Checksum:   fmt.Sprintf("%016x", r.Checksum),
			ElapsedMs:  r.Elapsed.Milliseconds(),
		}
	}
	if e := job.Error; e != nil {
		resp.Error = &ErrorInfo{
			Kind:      e.Kind,
			Message:   e.Message,
			Timestamp: e.Timestamp,
		}
		if e.Partition != lapcore.NoPartition {
			partition := e.Partition
			resp.Error.Partition = &partition
		}
	}
	return resp
}

func ToJobSummary(job *core.Job) JobSummary {
	return JobSummary{
		JobID:       job.ID.String(),
		Name:        job.Name,
		Status:      string(job.Status),
		SubmittedAt: job.SubmittedAt,
		CompletedAt: job.CompletedAt,
	}
}

func ToTaskInfo(task *core.Task) TaskInfo {
	info := TaskInfo{
		TaskID:    task.ID.String(),
		Partition: task.Partition.Index,
		Name:      task.Partition.Name,
		Samples:   len(task.Partition.Samples),
		Status:    string(task.Status),
		Attempts:  task.Attempt,
		StartTime: task.StartedAt,
		EndTime:   task.EndedAt,
	}
	if task.WorkerID != nil {
		info.WorkerID = task.WorkerID.String()
	}
	if task.Result != nil {
		info.Min = &task.Result.Min
		info.Max = &task.Result.Max
	}
	if task.Error != nil {
		info.Error = *task.Error
	}
	return info
}

func ToWorkerInfo(worker *core.Worker) WorkerInfo {
	return WorkerInfo{
		WorkerID:        worker.ID.String(),
		Address:         worker.Address,
		CPUCores:        worker.CPUCores,
		MemoryBytes:     worker.MemoryBytes,
		Status:          string(worker.Status),
		RegisteredAt:    worker.RegisteredAt,
		LastHeartbeatAt: worker.LastHeartbeatAt,
	}
}
