package etl

import (
	"strconv"
	"time"
)

// Declared measurement file columns. Transformation refuses record sets that
// are missing any of these.
const (
	ColStudyID         = "study_id"
	ColParticipantID   = "participant_id"
	ColMeasurementType = "measurement_type"
	ColValue           = "value"
	ColUnit            = "unit"
	ColTimestamp       = "timestamp"
	ColSiteID          = "site_id"
	ColQualityScore    = "quality_score"
)

// DeclaredColumns lists every column a measurement file must carry, in
// schema order.
var DeclaredColumns = []string{
	ColStudyID,
	ColParticipantID,
	ColMeasurementType,
	ColValue,
	ColUnit,
	ColTimestamp,
	ColSiteID,
	ColQualityScore,
}

// RecordSet is the raw tabular form produced by extraction: a header row and
// the data rows beneath it, order preserved, no schema enforcement.
type RecordSet struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// ColumnIndex returns the position of a named column, or -1 when absent.
func (rs *RecordSet) ColumnIndex(name string) int {
	for i, col := range rs.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Measurement is one cleaned clinical measurement row. All string fields are
// non-empty and Timestamp is UTC once transformation has run.
type Measurement struct {
	StudyID         string    `json:"study_id"`
	ParticipantID   string    `json:"participant_id"`
	MeasurementType string    `json:"measurement_type"`
	Value           float64   `json:"value"`
	Unit            string    `json:"unit"`
	Timestamp       time.Time `json:"timestamp"`
	SiteID          string    `json:"site_id"`
	QualityScore    float64   `json:"quality_score"`
}

// Fields returns the measurement as strings in schema order, used for
// checksum-based idempotency keys at load time.
func (m *Measurement) Fields() []string {
	return []string{
		m.StudyID,
		m.ParticipantID,
		m.MeasurementType,
		formatFloat(m.Value),
		m.Unit,
		m.Timestamp.UTC().Format(time.RFC3339Nano),
		m.SiteID,
		formatFloat(m.QualityScore),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
