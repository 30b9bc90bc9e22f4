package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/clinsight/etl-service/internal/etl"
	"github.com/clinsight/etl-service/internal/job"
)

// ETLService exposes the pipeline to HTTP callers: job submission, status
// polling and full job details. Each submitted job runs in its own
// goroutine; the service only ever reports registry state, never raw stage
// errors.
type ETLService struct {
	Pipeline *etl.Pipeline
	Registry job.Registry

	wg sync.WaitGroup
}

func NewETLService(pipeline *etl.Pipeline, registry job.Registry) *ETLService {
	return &ETLService{Pipeline: pipeline, Registry: registry}
}

// JobRequest is the submission payload. JobID is optional; one is generated
// when absent.
type JobRequest struct {
	JobID    string `json:"jobId"`
	Filename string `json:"filename"`
	StudyID  string `json:"studyId,omitempty"`
}

// JobResponse acknowledges a submission.
type JobResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatus is the polling view of a job.
type JobStatus struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// SubmitJob registers a new ETL job and starts it asynchronously.
func (h *ETLService) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if req.Filename == "" {
		http.Error(w, "filename is required", http.StatusBadRequest)
		return
	}
	if req.JobID == "" {
		req.JobID = uuid.New().String()
	}

	j, err := h.Pipeline.Submit(req.JobID, req.Filename, req.StudyID)
	if err != nil {
		if errors.Is(err, job.ErrDuplicateJob) {
			http.Error(w, "Job ID already exists", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to register job", http.StatusInternalServerError)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		// Run never lets a stage error escape the job state machine; the
		// returned error only mirrors the terminal state for logging.
		if err := h.Pipeline.Run(context.Background(), j.ID); err != nil {
			log.Printf("Job %s finished with failure: %v", j.ID, err)
		}
	}()

	writeJSON(w, JobResponse{
		JobID:   j.ID,
		Status:  string(j.Status),
		Message: "Job submitted successfully",
	})
}

// GetJobStatus returns the polling view of a job.
func (h *ETLService) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/jobs/"), "/status")
	j, ok := h.lookupJob(w, jobID)
	if !ok {
		return
	}

	writeJSON(w, JobStatus{
		JobID:    j.ID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Message:  j.Message,
	})
}

// GetJobDetails returns the full job state.
func (h *ETLService) GetJobDetails(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/jobs/")
	j, ok := h.lookupJob(w, jobID)
	if !ok {
		return
	}

	writeJSON(w, j)
}

// HealthCheck reports service liveness.
func (h *ETLService) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy", "service": "etl"})
}

// Wait blocks until all in-flight jobs reach a terminal state. Used on
// shutdown and in tests.
func (h *ETLService) Wait() {
	h.wg.Wait()
}

func (h *ETLService) lookupJob(w http.ResponseWriter, jobID string) (job.Job, bool) {
	if jobID == "" {
		http.Error(w, "Job ID is required", http.StatusBadRequest)
		return job.Job{}, false
	}

	j, err := h.Registry.Get(jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return job.Job{}, false
		}
		http.Error(w, "Failed to fetch job", http.StatusInternalServerError)
		return job.Job{}, false
	}
	return j, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
