package metrics

import "time"

// ActionRecord describes one executed or refused action.
type ActionRecord struct {
	SectionID int64
	TrainID   int64
	Train     string
	Action    string
	Actor     int64
	// Outcome is "ok" or the failure kind.
	Outcome  string
	State    string
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records dispatch actions for observability purposes.
type MetricsSink interface {
	RecordAction(rec ActionRecord) error
}

// OccupancySample is the number of directly occupied tracks at one instant.
type OccupancySample struct {
	OccupiedTracks int
	Time           time.Time
}

// OccupancyRecorder records occupancy samples.
type OccupancyRecorder interface {
	RecordOccupancy(s OccupancySample) error
}

// SnapshotRecord is the outcome of a snapshot attempt. Result is "ok",
// "failed" or "dropped".
type SnapshotRecord struct {
	SnapshotID string
	Result     string
	Duration   time.Duration
	Time       time.Time
}

// SnapshotRecorder records snapshot outcomes.
type SnapshotRecorder interface {
	RecordSnapshot(rec SnapshotRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAction(ActionRecord) error       { return nil }
func (NopSink) RecordOccupancy(OccupancySample) error { return nil }
func (NopSink) RecordSnapshot(SnapshotRecord) error   { return nil }
