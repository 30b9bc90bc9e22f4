package etl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const measurementHeader = "study_id,participant_id,measurement_type,value,unit,timestamp,site_id,quality_score"

func writeSourceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFileReader_Read(t *testing.T) {
	dataDir := t.TempDir()
	reader := NewFileReader(dataDir)
	ctx := context.Background()

	t.Run("should read a well-formed file", func(t *testing.T) {
		content := strings.Join([]string{
			measurementHeader,
			"STUDY-01,P1,blood_pressure,120,mmHg,2025-06-01T10:00:00Z,SITE-A,0.9",
			"STUDY-01,P2,heart_rate,72,bpm,2025-06-01T10:05:00Z,SITE-A,0.8",
		}, "\n")
		writeSourceFile(t, dataDir, "measurements.csv", content)

		rs, err := reader.Read(ctx, "measurements.csv")

		assert.NoError(t, err)
		assert.Equal(t, DeclaredColumns, rs.Columns)
		assert.Equal(t, 2, rs.Len())
		assert.Equal(t, "P1", rs.Rows[0][1])
	})

	t.Run("should keep short rows for the completeness filter", func(t *testing.T) {
		content := strings.Join([]string{
			measurementHeader,
			"STUDY-01,P1,blood_pressure,120,mmHg,2025-06-01T10:00:00Z,SITE-A,0.9",
			"STUDY-01,P2,heart_rate,72,bpm,2025-06-01T10:05:00Z,SITE-A",
		}, "\n")
		writeSourceFile(t, dataDir, "short.csv", content)

		rs, err := reader.Read(ctx, "short.csv")

		assert.NoError(t, err)
		assert.Equal(t, 2, rs.Len())

		// The truncated row is dropped as incomplete; the batch survives.
		measurements, err := Transform(rs)
		assert.NoError(t, err)
		assert.Len(t, measurements, 1)
		assert.Equal(t, "P1", measurements[0].ParticipantID)
	})

	t.Run("should fail with not found for a missing source", func(t *testing.T) {
		_, err := reader.Read(ctx, "no-such-file.csv")

		assert.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("should fail with empty input for an empty file", func(t *testing.T) {
		writeSourceFile(t, dataDir, "empty.csv", "")

		_, err := reader.Read(ctx, "empty.csv")

		assert.Error(t, err)
		assert.Equal(t, KindEmptyInput, KindOf(err))
	})

	t.Run("should fail with empty input for a header-only file", func(t *testing.T) {
		writeSourceFile(t, dataDir, "header-only.csv", measurementHeader+"\n")

		_, err := reader.Read(ctx, "header-only.csv")

		assert.Error(t, err)
		assert.Equal(t, KindEmptyInput, KindOf(err))
	})

	t.Run("should fail with malformed input for unparseable rows", func(t *testing.T) {
		content := strings.Join([]string{
			measurementHeader,
			`STUDY-01,P1,"blood_pressure,120,mmHg`,
		}, "\n")
		writeSourceFile(t, dataDir, "malformed.csv", content)

		_, err := reader.Read(ctx, "malformed.csv")

		assert.Error(t, err)
		assert.Equal(t, KindMalformedInput, KindOf(err))
	})

	t.Run("should not escape the data directory", func(t *testing.T) {
		_, err := reader.Read(ctx, "../outside.csv")

		assert.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}
