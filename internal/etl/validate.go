package etl

import "time"

// Validate applies the domain-consistency rules to a cleaned measurement set
// and reports a verdict. It never mutates its input and raises no error on
// rule violations; the only error it can return is KindInternal, for a set
// the transformation stage should never have produced.
//
// Rules: value >= 0, quality_score in [0,1], timestamp not in the future,
// and a single unit per measurement type. One failing row fails the whole
// batch; there is no row-level quarantine.
func Validate(measurements []Measurement) (bool, error) {
	if measurements == nil {
		return false, newError(KindInternal, "validation invoked on nil measurement set")
	}

	now := time.Now().UTC()
	unitByType := make(map[string]string)

	for _, m := range measurements {
		if m.Value < 0 {
			return false, nil
		}
		if m.QualityScore < 0 || m.QualityScore > 1 {
			return false, nil
		}
		if m.Timestamp.After(now) {
			return false, nil
		}

		unit, ok := unitByType[m.MeasurementType]
		if !ok {
			unitByType[m.MeasurementType] = m.Unit
		} else if unit != m.Unit {
			// Mixed units for one measurement type, e.g. mmHg and kPa.
			return false, nil
		}
	}

	return true, nil
}
