package etl

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Accepted timestamp layouts, tried in order. Offsets are converted to UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Transform cleans a raw record set into typed measurements: rows with
// missing values are dropped, timestamps are coerced to UTC (unparseable
// ones dropped), numeric fields are coerced, and duplicate
// (participant_id, measurement_type) rows are collapsed to the highest
// quality_score entry.
//
// It fails with KindSchemaViolation when a declared column is absent and
// with KindTypeCoercion when a present numeric field does not parse.
// Running Transform on the string form of its own output is a no-op.
func Transform(rs *RecordSet) ([]Measurement, error) {
	if rs == nil {
		return nil, newError(KindInternal, "transformation invoked on nil record set")
	}

	// Column resolution up front: a record set missing a declared column can
	// never be coerced, whatever its rows contain.
	index := make(map[string]int, len(DeclaredColumns))
	for _, col := range DeclaredColumns {
		i := rs.ColumnIndex(col)
		if i < 0 {
			return nil, newError(KindSchemaViolation, "required column %q is absent", col)
		}
		index[col] = i
	}

	measurements := make([]Measurement, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if rowIncomplete(row, index) {
			continue
		}

		// Unparseable timestamps are treated as missing values, not errors.
		ts, ok := parseTimestamp(trimCell(row[index[ColTimestamp]]))
		if !ok {
			continue
		}

		value, err := parseFloatField(row, index, ColValue)
		if err != nil {
			return nil, err
		}
		quality, err := parseFloatField(row, index, ColQualityScore)
		if err != nil {
			return nil, err
		}

		measurements = append(measurements, Measurement{
			StudyID:         trimCell(row[index[ColStudyID]]),
			ParticipantID:   trimCell(row[index[ColParticipantID]]),
			MeasurementType: trimCell(row[index[ColMeasurementType]]),
			Value:           value,
			Unit:            trimCell(row[index[ColUnit]]),
			Timestamp:       ts,
			SiteID:          trimCell(row[index[ColSiteID]]),
			QualityScore:    quality,
		})
	}

	return deduplicate(measurements), nil
}

// rowIncomplete reports whether any declared field is missing or blank.
// Short rows count as incomplete rather than malformed so a single truncated
// line does not abort the batch.
func rowIncomplete(row []string, index map[string]int) bool {
	for _, i := range index {
		if i >= len(row) || trimCell(row[i]) == "" {
			return true
		}
	}
	return false
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseFloatField(row []string, index map[string]int, col string) (float64, error) {
	raw := trimCell(row[index[col]])
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, newError(KindTypeCoercion, "field %q cannot be coerced to float: %q", col, raw)
	}
	return value, nil
}

// deduplicate keeps one row per (participant_id, measurement_type): the one
// with the maximum quality_score. Ties keep the first-encountered row in
// input order, which the stable sort guarantees.
func deduplicate(measurements []Measurement) []Measurement {
	sort.SliceStable(measurements, func(i, j int) bool {
		return measurements[i].QualityScore > measurements[j].QualityScore
	})

	seen := make(map[[2]string]bool, len(measurements))
	result := measurements[:0]
	for _, m := range measurements {
		key := [2]string{m.ParticipantID, m.MeasurementType}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, m)
	}
	return result
}

func trimCell(s string) string {
	return strings.TrimSpace(s)
}
