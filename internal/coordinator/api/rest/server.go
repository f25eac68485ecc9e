package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	"github.com/nemanja-m/lapreduce/internal/shared/config"
	"github.com/nemanja-m/lapreduce/internal/shared/logging"
	"github.com/nemanja-m/lapreduce/pkg/dataset"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	// maxRequestBytes bounds inline datasets submitted over HTTP.
	maxRequestBytes = 32 << 20
)

type API struct {
	jobService    core.JobService
	workerService core.WorkerService
	datasets      DatasetResolver
	logger        logging.Logger
}

func NewAPI(jobService core.JobService, workerService core.WorkerService, logger logging.Logger) *API {
	return &API{
		jobService:    jobService,
		workerService: workerService,
		datasets:      dataset.Get,
		logger:        logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/jobs", a.submitJob)
	mux.HandleFunc("GET /api/jobs", a.listJobs)
	mux.HandleFunc("GET /api/jobs/{id}", a.getJob)
	mux.HandleFunc("GET /api/jobs/{id}/tasks", a.getJobTasks)
	mux.HandleFunc("GET /api/workers", a.listWorkers)
	mux.HandleFunc("GET /api/datasets", a.listDatasets)
}

// submitJob handles POST /api/jobs
func (a *API) submitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	job, err := req.ToJob(a.datasets)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := a.jobService.SubmitJob(job); err != nil {
		if errors.Is(err, core.ErrInvalidJob) {
			a.respondError(w, http.StatusBadRequest, "validation failed", err.Error())
			return
		}
		a.logger.Error("Failed to submit job", "error", err)
		a.respondError(w, http.StatusInternalServerError, "failed to submit job", err.Error())
		return
	}

	self := fmt.Sprintf("/api/jobs/%s", job.ID)
	a.respondJSON(w, http.StatusCreated, SubmitJobResponse{
		JobID:       job.ID.String(),
		Status:      string(job.Status),
		SubmittedAt: job.SubmittedAt,
		Samples:     job.Dataset.Len(),
		Links: Links{
			Self:  self,
			Tasks: self + "/tasks",
		},
	})
}

// getJob handles GET /api/jobs/{id}
func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.parseJobID(w, r)
	if !ok {
		return
	}

	job, err := a.jobService.GetJob(jobID)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, ToGetJobResponse(job))
}

// listJobs handles GET /api/jobs with filters and pagination
func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := core.JobFilter{Limit: defaultLimit}
	if s := query.Get("status"); s != "" {
		status := core.JobStatus(s)
		switch status {
		case core.JobStatusPending, core.JobStatusRunning, core.JobStatusCompleted, core.JobStatusFailed:
			filter.Status = &status
		default:
			a.respondError(w, http.StatusBadRequest, "invalid status filter", s)
			return
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = min(l, maxLimit)
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	jobs, total, err := a.jobService.GetJobs(filter)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	summaries := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, ToJobSummary(job))
	}

	var nextOffset *int
	if end := filter.Offset + len(jobs); end < total {
		nextOffset = &end
	}

	a.respondJSON(w, http.StatusOK, ListJobsResponse{
		Jobs:       summaries,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		NextOffset: nextOffset,
	})
}

// getJobTasks handles GET /api/jobs/{id}/tasks
func (a *API) getJobTasks(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.parseJobID(w, r)
	if !ok {
		return
	}

	tasks, err := a.jobService.GetTasks(jobID)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	infos := make([]TaskInfo, 0, len(tasks))
	for _, task := range tasks {
		infos = append(infos, ToTaskInfo(task))
	}
	a.respondJSON(w, http.StatusOK, GetTasksResponse{Tasks: infos})
}

// listWorkers handles GET /api/workers
func (a *API) listWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := a.workerService.GetWorkers()
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	infos := make([]WorkerInfo, 0, len(workers))
	for _, worker := range workers {
		infos = append(infos, ToWorkerInfo(worker))
	}
	a.respondJSON(w, http.StatusOK, ListWorkersResponse{Workers: infos})
}

// listDatasets handles GET /api/datasets
func (a *API) listDatasets(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, ListDatasetsResponse{Datasets: dataset.List()})
}

func (a *API) parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid job ID", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrJobNotFound) {
		a.respondError(w, http.StatusNotFound, "job not found", "")
		return
	}
	a.logger.Error("Request failed", "error", err)
	a.respondError(w, http.StatusInternalServerError, "internal error", err.Error())
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, error string, message string) {
	resp := ErrorResponse{
		Error:   error,
		Message: message,
		Code:    statusCode,
	}
	a.respondJSON(w, statusCode, resp)
}

func NewServer(
	cfg config.RESTConfig,
	jobService core.JobService,
	workerService core.WorkerService,
	logger logging.Logger,
) *http.Server {
	api := NewAPI(jobService, workerService, logger)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	handler := ChainMiddleware(
		mux,
		RequestIDMiddleware,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
