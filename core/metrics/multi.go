package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAction forwards the record to all sinks and joins their errors.
func (m *MultiSink) RecordAction(rec ActionRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordAction(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordOccupancy forwards samples to sinks supporting them.
func (m *MultiSink) RecordOccupancy(sample OccupancySample) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(OccupancyRecorder); ok {
			if err := r.RecordOccupancy(sample); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordSnapshot forwards snapshot outcomes to sinks supporting them.
func (m *MultiSink) RecordSnapshot(rec SnapshotRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(SnapshotRecorder); ok {
			if err := r.RecordSnapshot(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
