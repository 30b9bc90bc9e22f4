package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newMeasurement() Measurement {
	return Measurement{
		StudyID:         "STUDY-01",
		ParticipantID:   "P1",
		MeasurementType: "blood_pressure",
		Value:           120,
		Unit:            "mmHg",
		Timestamp:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		SiteID:          "SITE-A",
		QualityScore:    0.9,
	}
}

func TestValidate(t *testing.T) {
	t.Run("should pass a clean measurement set", func(t *testing.T) {
		m1 := newMeasurement()
		m2 := newMeasurement()
		m2.ParticipantID = "P2"
		m2.MeasurementType = "heart_rate"
		m2.Unit = "bpm"

		valid, err := Validate([]Measurement{m1, m2})

		assert.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("should fail on negative value", func(t *testing.T) {
		m := newMeasurement()
		m.Value = -1

		valid, err := Validate([]Measurement{m})

		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("should fail on quality score outside [0,1]", func(t *testing.T) {
		m := newMeasurement()
		m.QualityScore = 1.2

		valid, err := Validate([]Measurement{m})

		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("should fail on future timestamp", func(t *testing.T) {
		m := newMeasurement()
		m.Timestamp = time.Now().UTC().Add(24 * time.Hour)

		valid, err := Validate([]Measurement{m})

		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("should fail on mixed units for one measurement type", func(t *testing.T) {
		mmhg := newMeasurement()
		kpa := newMeasurement()
		kpa.ParticipantID = "P2"
		kpa.Unit = "kPa"

		valid, err := Validate([]Measurement{mmhg, kpa})

		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("should accept boundary values", func(t *testing.T) {
		zero := newMeasurement()
		zero.Value = 0
		zero.QualityScore = 0
		one := newMeasurement()
		one.ParticipantID = "P2"
		one.QualityScore = 1

		valid, err := Validate([]Measurement{zero, one})

		assert.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("should pass an empty set", func(t *testing.T) {
		valid, err := Validate([]Measurement{})

		assert.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("should error on nil set", func(t *testing.T) {
		_, err := Validate(nil)

		assert.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
	})

	t.Run("should be a pure predicate", func(t *testing.T) {
		bad := newMeasurement()
		bad.Value = -5
		input := []Measurement{newMeasurement(), bad}
		snapshot := make([]Measurement, len(input))
		copy(snapshot, input)

		first, err1 := Validate(input)
		second, err2 := Validate(input)

		assert.NoError(t, err1)
		assert.NoError(t, err2)
		assert.Equal(t, first, second)
		assert.Equal(t, snapshot, input)
	})
}
