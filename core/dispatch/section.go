package dispatch

import (
	"time"

	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/topology"
)

// SignalPassage is the state of a section at one intermediate signal.
type SignalPassage struct {
	PlaceID  int64                   `json:"place_id"`
	State    model.BlockPassageState `json:"state"`
	PassedAt time.Time               `json:"passed_at,omitempty"`
}

// Section is one train's passage over one dispatch stretch.
type Section struct {
	ID                int64
	TrainID           int64
	DispatchStretchID int64
	Direction         model.Direction
	DepartureCallID   int64
	ArrivalCallID     int64
	PreviousID        int64 // zero for the first section of a journey
	NextID            int64 // zero for the last section
	State             model.DispatchState
	// BlockIndex counts passed signals; the section is in block BlockIndex.
	BlockIndex int
	// TrackStretchIndex is the index in travel order of the first track
	// stretch of the current block.
	TrackStretchIndex int
	Signals           []SignalPassage
	Updated           time.Time

	route topology.Route
}

// First reports whether the section starts the journey.
func (s *Section) First() bool { return s.PreviousID == 0 }

// Last reports whether the section ends the journey.
func (s *Section) Last() bool { return s.NextID == 0 }

// Blocks is the number of blocks of the section's route.
func (s *Section) Blocks() int { return len(s.Signals) + 1 }

// NextSignal returns the signal guarding the exit of the current block.
func (s *Section) NextSignal() (SignalPassage, bool) {
	if s.BlockIndex >= len(s.Signals) {
		return SignalPassage{}, false
	}
	return s.Signals[s.BlockIndex], true
}

func (s *Section) block(i int) []topology.Leg {
	if i < 0 || i >= len(s.route.Blocks) {
		return nil
	}
	return s.route.Blocks[i]
}

func (s *Section) departureStation() int64 { return s.route.DepartureID }
func (s *Section) arrivalStation() int64   { return s.route.ArrivalID }

func (s *Section) copySignals() []SignalPassage {
	return append([]SignalPassage(nil), s.Signals...)
}

// cancelExpected marks every expected signal canceled.
func (s *Section) cancelExpected() {
	for i := range s.Signals {
		if s.Signals[i].State == model.PassageExpected {
			s.Signals[i].State = model.PassageCanceled
		}
	}
}
