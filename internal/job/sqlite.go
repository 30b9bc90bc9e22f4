package job

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// SQLiteRegistry persists job state in a sqlite database so status survives
// a restart of the service. Uniqueness of job IDs is enforced by the primary
// key.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry opens (or creates) the registry database at dsn and
// ensures the jobs table exists.
func NewSQLiteRegistry(dsn string) (*SQLiteRegistry, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open job registry at %s: %w", dsn, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		study_id TEXT,
		status TEXT NOT NULL,
		progress INTEGER NOT NULL,
		message TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create jobs table: %w", err)
	}

	return &SQLiteRegistry{db: db}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func (r *SQLiteRegistry) Create(j Job) error {
	_, err := r.db.Exec(
		`INSERT INTO jobs (id, filename, study_id, status, progress, message) VALUES (?, ?, ?, ?, ?, ?)`,
		j.ID, j.Filename, j.StudyID, string(j.Status), j.Progress, j.Message,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateJob
		}
		return fmt.Errorf("failed to create job %s: %w", j.ID, err)
	}
	return nil
}

func (r *SQLiteRegistry) Get(id string) (Job, error) {
	var j Job
	var status string
	err := r.db.QueryRow(
		`SELECT id, filename, study_id, status, progress, message FROM jobs WHERE id = ?`, id,
	).Scan(&j.ID, &j.Filename, &j.StudyID, &status, &j.Progress, &j.Message)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	j.Status = Status(status)
	return j, nil
}

func (r *SQLiteRegistry) Update(id string, p Patch) error {
	// Read-apply-write in a transaction keeps partial patches atomic.
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin update for job %s: %w", id, err)
	}
	defer tx.Rollback()

	var j Job
	var status string
	err = tx.QueryRow(
		`SELECT id, filename, study_id, status, progress, message FROM jobs WHERE id = ?`, id,
	).Scan(&j.ID, &j.Filename, &j.StudyID, &status, &j.Progress, &j.Message)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch job %s for update: %w", id, err)
	}
	j.Status = Status(status)
	p.Apply(&j)

	if _, err := tx.Exec(
		`UPDATE jobs SET status = ?, progress = ?, message = ? WHERE id = ?`,
		string(j.Status), j.Progress, j.Message, id,
	); err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return tx.Commit()
}
