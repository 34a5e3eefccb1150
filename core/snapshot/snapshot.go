// Package snapshot defines the persisted form of the dispatch state and the
// single-flight persister that writes it in the background.
package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/trackdispatch/core/model"
)

// Snapshot is the complete mutable dispatch state at one instant. Version
// counts the actions applied to the state and never decreases between saves.
type Snapshot struct {
	ID       uuid.UUID       `json:"id"`
	TakenAt  time.Time       `json:"taken_at"`
	Version  uint64          `json:"version"`
	LastID   int64           `json:"last_id"`
	Trains   []TrainRecord   `json:"trains"`
	Sections []SectionRecord `json:"sections"`
}

// TrainRecord is the persisted state of a train. The undo step is not
// persisted.
type TrainRecord struct {
	ID    int64            `json:"id"`
	State model.TrainState `json:"state"`
}

// SignalRecord is the passage state at one intermediate signal.
type SignalRecord struct {
	PlaceID  int64                   `json:"place_id"`
	State    model.BlockPassageState `json:"state"`
	PassedAt time.Time               `json:"passed_at,omitempty"`
}

// SectionRecord is the persisted state of a train section.
type SectionRecord struct {
	ID                int64                  `json:"id"`
	TrainID           int64                  `json:"train_id"`
	DispatchStretchID int64                  `json:"dispatch_stretch_id"`
	Direction         model.Direction        `json:"direction"`
	PreviousID        int64                  `json:"previous_id,omitempty"`
	State             model.DispatchState    `json:"state"`
	BlockIndex        int                    `json:"block_index"`
	TrackStretchIndex int                    `json:"track_stretch_index"`
	Signals           []SignalRecord         `json:"signals,omitempty"`
	Departure         model.TrainStationCall `json:"departure"`
	Arrival           model.TrainStationCall `json:"arrival"`
	Updated           time.Time              `json:"updated"`
}

// New stamps a snapshot with a fresh id.
func New(takenAt time.Time, lastID int64, trains []TrainRecord, sections []SectionRecord) Snapshot {
	return Snapshot{ID: uuid.New(), TakenAt: takenAt, LastID: lastID, Trains: trains, Sections: sections}
}

// Store saves and loads snapshots. Only the latest snapshot is kept.
type Store interface {
	Save(ctx context.Context, s Snapshot) error
	// Load returns the latest snapshot; ok is false when none was saved yet.
	Load(ctx context.Context) (s Snapshot, ok bool, err error)
	Close() error
}
