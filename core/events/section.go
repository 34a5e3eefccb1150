package events

import (
	"time"

	"github.com/kilianp07/trackdispatch/core/model"
)

// SectionEvent is published after every successful action.
type SectionEvent struct {
	At             time.Time           `json:"at"`
	SectionID      int64               `json:"section_id"`
	TrainID        int64               `json:"train_id"`
	Train          string              `json:"train"`
	Action         string              `json:"action"`
	Actor          int64               `json:"actor"`
	State          model.DispatchState `json:"-"`
	StateName      string              `json:"state"`
	TrainState     model.TrainState    `json:"-"`
	TrainStateName string              `json:"train_state"`
	BlockIndex     int                 `json:"block_index"`
	Duration       time.Duration       `json:"-"`
}

// ActionFailedEvent is published when an action is refused.
type ActionFailedEvent struct {
	At        time.Time
	SectionID int64
	Action    string
	Actor     int64
	Kind      string
	Err       error
}
