package job

import "errors"

// Status enumerates the terminal-or-running states of a pipeline run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress milestones a run passes through. A failed run is forced to 100
// whichever stage broke, so progress alone never identifies the cause; the
// message field does.
const (
	ProgressSubmitted   = 0
	ProgressExtracted   = 25
	ProgressTransformed = 50
	ProgressValidated   = 75
	ProgressDone        = 100
)

var (
	// ErrDuplicateJob is returned by Create when the job ID is already taken.
	ErrDuplicateJob = errors.New("job ID already exists")
	// ErrNotFound is returned by Get and Update for unknown job IDs.
	ErrNotFound = errors.New("job not found")
)

// Job is the tracked state of one pipeline run, keyed by a caller-supplied
// identifier. Only the run that owns the ID mutates it; it is never deleted
// by the pipeline core.
type Job struct {
	ID       string `json:"jobId"`
	Filename string `json:"filename"`
	StudyID  string `json:"studyId,omitempty"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// Patch is a partial job update; nil fields are left untouched.
type Patch struct {
	Status   *Status
	Progress *int
	Message  *string
}

// Apply writes the non-nil patch fields onto a job.
func (p Patch) Apply(j *Job) {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Progress != nil {
		j.Progress = *p.Progress
	}
	if p.Message != nil {
		j.Message = *p.Message
	}
}

// Registry is the keyed job-state store the orchestrator reads and writes.
// Create enforces ID uniqueness; Get returns an atomic snapshot.
type Registry interface {
	Create(j Job) error
	Get(id string) (Job, error)
	Update(id string, p Patch) error
}
