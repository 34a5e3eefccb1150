package model

import (
	"fmt"
	"time"
)

// Train identifies one scheduled train.
type Train struct {
	ID       int64
	Operator string
	Number   string
}

// Name returns the operator prefixed train number, e.g. "X100".
func (t Train) Name() string { return fmt.Sprintf("%s%s", t.Operator, t.Number) }

// TrainStationCall is a scheduled stop of a train. Zero times mean "not
// applicable" (scheduled) or "not yet observed" (actual).
type TrainStationCall struct {
	ID                 int64     `json:"id"`
	TrainID            int64     `json:"train_id"`
	StationID          int64     `json:"station_id"`
	Sequence           int       `json:"sequence"`
	ScheduledArrival   time.Time `json:"scheduled_arrival,omitempty"`
	ScheduledDeparture time.Time `json:"scheduled_departure,omitempty"`
	ActualArrival      time.Time `json:"actual_arrival,omitempty"`
	ActualDeparture    time.Time `json:"actual_departure,omitempty"`
	PlannedTrack       string    `json:"planned_track,omitempty"`
	ActualTrack        string    `json:"actual_track,omitempty"`
}

// DepartureDelay compares the observed (or, while pending, the current) time
// with the scheduled departure. Early departures yield zero.
func (c TrainStationCall) DepartureDelay(now time.Time) time.Duration {
	return delay(c.ScheduledDeparture, c.ActualDeparture, now)
}

// ArrivalDelay is DepartureDelay for the arrival side.
func (c TrainStationCall) ArrivalDelay(now time.Time) time.Duration {
	return delay(c.ScheduledArrival, c.ActualArrival, now)
}

func delay(scheduled, actual, now time.Time) time.Duration {
	if scheduled.IsZero() {
		return 0
	}
	ref := actual
	if ref.IsZero() {
		ref = now
	}
	if d := ref.Sub(scheduled); d > 0 {
		return d
	}
	return 0
}
