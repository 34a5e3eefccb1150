package events

import "time"

// PersistEvent reports the outcome of a snapshot save.
type PersistEvent struct {
	SnapshotID string
	Dropped    bool
	Err        error
	Duration   time.Duration
}
