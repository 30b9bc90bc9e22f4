package etl

import "context"

// MeasurementStore is the persistence collaborator the load stage hands a
// validated batch to. Implementations must be all-or-nothing: either every
// row is durable on return, or the batch failed and nothing was committed.
type MeasurementStore interface {
	InsertMeasurements(ctx context.Context, filename, studyID string, measurements []Measurement) error
}

// Load persists a validated measurement set through the store. Any store
// failure is reported as KindPersistence and terminates the run; the core
// performs no partial commit and no row-level retry.
func Load(ctx context.Context, store MeasurementStore, filename, studyID string, measurements []Measurement) error {
	if err := store.InsertMeasurements(ctx, filename, studyID, measurements); err != nil {
		return wrapError(KindPersistence, err, "failed to load %d measurements from %s", len(measurements), filename)
	}
	return nil
}
