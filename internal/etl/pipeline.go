package etl

import (
	"context"
	"fmt"
	"log"

	"github.com/clinsight/etl-service/internal/job"
)

// Pipeline sequences the four stages for one run and maps their outcomes
// onto the job state machine. Collaborators are injected so the transport,
// registry and storage can all be swapped without touching pipeline logic.
type Pipeline struct {
	reader   SourceReader
	store    MeasurementStore
	registry job.Registry
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(reader SourceReader, store MeasurementStore, registry job.Registry) *Pipeline {
	return &Pipeline{
		reader:   reader,
		store:    store,
		registry: registry,
	}
}

// Submit registers a new job in the running state. It fails with
// job.ErrDuplicateJob when the ID is already taken, leaving the existing
// job untouched.
func (p *Pipeline) Submit(jobID, filename, studyID string) (job.Job, error) {
	j := job.Job{
		ID:       jobID,
		Filename: filename,
		StudyID:  studyID,
		Status:   job.StatusRunning,
		Progress: job.ProgressSubmitted,
		Message:  "Job started",
	}
	if err := p.registry.Create(j); err != nil {
		return job.Job{}, err
	}
	return j, nil
}

// Run executes the submitted job to a terminal state. Every stage failure is
// absorbed into Job.Status=failed with the cause in Job.Message and progress
// forced to 100; no error escapes to the caller beyond the returned value,
// which reports the same outcome for synchronous callers.
func (p *Pipeline) Run(ctx context.Context, jobID string) error {
	j, err := p.registry.Get(jobID)
	if err != nil {
		return fmt.Errorf("cannot run unknown job %s: %w", jobID, err)
	}

	log.Printf("Starting ETL run for job %s (file %s)", jobID, j.Filename)

	p.setMessage(jobID, "Extracting data")
	rs, err := p.reader.Read(ctx, j.Filename)
	if err != nil {
		return p.fail(jobID, err)
	}
	p.setProgress(jobID, job.ProgressExtracted)

	p.setMessage(jobID, "Transforming data")
	measurements, err := Transform(rs)
	if err != nil {
		return p.fail(jobID, err)
	}
	log.Printf("Job %s: %d of %d rows survived transformation", jobID, len(measurements), rs.Len())
	p.setProgress(jobID, job.ProgressTransformed)

	p.setMessage(jobID, "Validating data")
	valid, err := Validate(measurements)
	if err != nil {
		return p.fail(jobID, err)
	}
	if !valid {
		return p.reject(jobID)
	}
	p.setProgress(jobID, job.ProgressValidated)

	p.setMessage(jobID, "Loading data into database")
	if err := Load(ctx, p.store, j.Filename, j.StudyID, measurements); err != nil {
		return p.fail(jobID, err)
	}
	p.setProgress(jobID, job.ProgressDone)

	p.update(jobID, job.Patch{
		Status:  statusPtr(job.StatusCompleted),
		Message: strPtr("ETL process completed successfully"),
	})
	log.Printf("Job %s completed: %d measurements loaded", jobID, len(measurements))
	return nil
}

// fail drives the job to the failed terminal state with the stage error text
// as the user-visible cause.
func (p *Pipeline) fail(jobID string, stageErr error) error {
	log.Printf("Job %s failed (%s): %v", jobID, KindOf(stageErr), stageErr)
	p.update(jobID, job.Patch{
		Status:   statusPtr(job.StatusFailed),
		Progress: intPtr(job.ProgressDone),
		Message:  strPtr(fmt.Sprintf("ETL process failed: %v", stageErr)),
	})
	return stageErr
}

// reject handles the quality-gate outcome: not an error path, but a
// first-class negative verdict.
func (p *Pipeline) reject(jobID string) error {
	log.Printf("Job %s rejected by validation", jobID)
	p.update(jobID, job.Patch{
		Status:   statusPtr(job.StatusFailed),
		Progress: intPtr(job.ProgressDone),
		Message:  strPtr("Data validation failed"),
	})
	return ErrValidationFailed
}

func (p *Pipeline) setMessage(jobID, message string) {
	p.update(jobID, job.Patch{Message: strPtr(message)})
}

func (p *Pipeline) setProgress(jobID string, progress int) {
	p.update(jobID, job.Patch{Progress: intPtr(progress)})
}

func (p *Pipeline) update(jobID string, patch job.Patch) {
	if err := p.registry.Update(jobID, patch); err != nil {
		// A registry write failing mid-run leaves stale status behind but
		// must not abort the data path.
		log.Printf("WARN: failed to update job %s: %v", jobID, err)
	}
}

func statusPtr(s job.Status) *job.Status { return &s }
func intPtr(i int) *int                  { return &i }
func strPtr(s string) *string            { return &s }
