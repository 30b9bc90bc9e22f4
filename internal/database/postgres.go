package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinsight/etl-service/internal/etl"
	"github.com/clinsight/etl-service/pkg/checksum"
)

func ConnectDB(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return dbpool, nil
}

// PostgresStore persists validated measurement batches. A batch and its
// file record are committed in a single transaction, so a failed load
// leaves nothing behind.
type PostgresStore struct {
	dbpool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{dbpool: pool}
}

// Setup creates the measurements and file_records tables if they are
// missing.
func (s *PostgresStore) Setup(ctx context.Context) error {
	measurementsTable := `
	CREATE TABLE IF NOT EXISTS measurements (
		id BIGSERIAL PRIMARY KEY,
		study_id VARCHAR(255) NOT NULL,
		participant_id VARCHAR(255) NOT NULL,
		measurement_type VARCHAR(255) NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit VARCHAR(64) NOT NULL,
		measured_at TIMESTAMPTZ NOT NULL,
		site_id VARCHAR(255) NOT NULL,
		quality_score DOUBLE PRECISION NOT NULL,
		file_id INTEGER,
		checksum VARCHAR(64) NOT NULL
	);`
	if _, err := s.dbpool.Exec(ctx, measurementsTable); err != nil {
		return fmt.Errorf("error creating measurements table: %w", err)
	}

	indexQuery := `CREATE UNIQUE INDEX IF NOT EXISTS idx_measurements_checksum ON measurements (checksum);`
	if _, err := s.dbpool.Exec(ctx, indexQuery); err != nil {
		return fmt.Errorf("error creating measurements checksum index: %w", err)
	}

	fileRecordsTable := `
	CREATE TABLE IF NOT EXISTS file_records (
		id SERIAL PRIMARY KEY,
		file_name VARCHAR(255) NOT NULL,
		study_id VARCHAR(255),
		checksum VARCHAR(64),
		row_count INTEGER NOT NULL,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := s.dbpool.Exec(ctx, fileRecordsTable); err != nil {
		return fmt.Errorf("error creating file_records table: %w", err)
	}

	return nil
}

// InsertMeasurements bulk-copies the batch into a transaction-scoped staging
// table and inserts only the rows whose checksum is not already present, so
// re-ingesting an overlapping file never duplicates data.
func (s *PostgresStore) InsertMeasurements(ctx context.Context, filename, studyID string, measurements []etl.Measurement) error {
	tx, err := s.dbpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning load transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var fileID int
	err = tx.QueryRow(ctx,
		`INSERT INTO file_records (file_name, study_id, row_count) VALUES ($1, NULLIF($2, ''), $3) RETURNING id;`,
		filename, studyID, len(measurements),
	).Scan(&fileID)
	if err != nil {
		return fmt.Errorf("error inserting file record for %s: %w", filename, err)
	}

	stagingQuery := `
	CREATE TEMPORARY TABLE measurements_staging
	(LIKE measurements INCLUDING DEFAULTS)
	ON COMMIT DROP;`
	if _, err := tx.Exec(ctx, stagingQuery); err != nil {
		return fmt.Errorf("error creating staging table: %w", err)
	}

	columnNames := []string{
		"study_id", "participant_id", "measurement_type", "value", "unit", "measured_at", "site_id", "quality_score", "file_id", "checksum",
	}

	copySource := pgx.CopyFromSlice(len(measurements), func(i int) ([]interface{}, error) {
		m := measurements[i]
		return []interface{}{
			m.StudyID, m.ParticipantID, m.MeasurementType, m.Value, m.Unit,
			m.Timestamp, m.SiteID, m.QualityScore, fileID, checksum.CalculateHash(m.Fields()),
		}, nil
	})

	log.Printf("Bulk loading %d measurements from %s into staging table", len(measurements), filename)
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"measurements_staging"}, columnNames, copySource); err != nil {
		return fmt.Errorf("unable to copy measurements to staging table: %w", err)
	}

	insertDiffQuery := `
	WITH staging_diff AS (
		SELECT s.study_id, s.participant_id, s.measurement_type, s.value, s.unit, s.measured_at, s.site_id, s.quality_score, s.file_id, s.checksum
		FROM measurements_staging s
		WHERE NOT EXISTS (
			SELECT 1
			FROM measurements m
			WHERE m.checksum = s.checksum
		)
	)
	INSERT INTO measurements (study_id, participant_id, measurement_type, value, unit, measured_at, site_id, quality_score, file_id, checksum)
	SELECT study_id, participant_id, measurement_type, value, unit, measured_at, site_id, quality_score, file_id, checksum
	FROM staging_diff;`

	if _, err := tx.Exec(ctx, insertDiffQuery); err != nil {
		return fmt.Errorf("error inserting measurements from staging table: %w", err)
	}

	return tx.Commit(ctx)
}

// RecordFileChecksum stores the content checksum on the newest file record
// for a filename, letting future runs skip unchanged files.
func (s *PostgresStore) RecordFileChecksum(ctx context.Context, filename, fileChecksum string) error {
	_, err := s.dbpool.Exec(ctx,
		`UPDATE file_records
		 SET checksum = $1
		 WHERE id = (SELECT MAX(id) FROM file_records WHERE file_name = $2);`,
		fileChecksum, filename,
	)
	if err != nil {
		return fmt.Errorf("error recording checksum for %s: %w", filename, err)
	}
	return nil
}

// IsFileAlreadyProcessed reports whether a file with this content checksum
// has been loaded before.
func (s *PostgresStore) IsFileAlreadyProcessed(ctx context.Context, fileChecksum string) (bool, error) {
	var id int
	err := s.dbpool.QueryRow(ctx,
		`SELECT id FROM file_records WHERE checksum = $1;`, fileChecksum,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error finding file record by checksum: %w", err)
	}

	return true, nil
}
