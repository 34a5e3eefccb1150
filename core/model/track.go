package model

import "fmt"

// Direction is the travel direction relative to an element's From→To
// orientation.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// DirectionMode restricts which directions a track can be used in.
type DirectionMode int

const (
	TrackBidirectional DirectionMode = iota
	TrackForwardOnly
	TrackBackwardOnly
	TrackClosed
)

func (m DirectionMode) String() string {
	switch m {
	case TrackBidirectional:
		return "bidirectional"
	case TrackForwardOnly:
		return "forward"
	case TrackBackwardOnly:
		return "backward"
	case TrackClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParseDirectionMode is the inverse of String. The empty string is
// bidirectional.
func ParseDirectionMode(s string) (DirectionMode, error) {
	switch s {
	case "", "bidirectional":
		return TrackBidirectional, nil
	case "forward":
		return TrackForwardOnly, nil
	case "backward":
		return TrackBackwardOnly, nil
	case "closed":
		return TrackClosed, nil
	default:
		return 0, fmt.Errorf("unknown direction mode %q", s)
	}
}

// Permits reports whether travel in d is allowed.
func (m DirectionMode) Permits(d Direction) bool {
	switch m {
	case TrackBidirectional:
		return true
	case TrackForwardOnly:
		return d == Forward
	case TrackBackwardOnly:
		return d == Backward
	default:
		return false
	}
}

// Track is one physical track of a TrackStretch.
type Track struct {
	ID          int64
	StretchID   int64
	Name        string
	Mode        DirectionMode
	Designation string // "up", "down" or empty
}

// TrackStretch is a physical segment between two places.
type TrackStretch struct {
	ID     int64
	FromID int64
	ToID   int64
	Tracks []Track
}

// FarEnd returns the place reached when travelling the stretch in d.
func (s TrackStretch) FarEnd(d Direction) int64 {
	if d == Forward {
		return s.ToID
	}
	return s.FromID
}

// NearEnd returns the place the stretch is entered from when travelling in d.
func (s TrackStretch) NearEnd(d Direction) int64 { return s.FarEnd(d.Reverse()) }

// Touches reports whether the stretch ends at place.
func (s TrackStretch) Touches(place int64) bool {
	return s.FromID == place || s.ToID == place
}

// Leaving returns the direction that leaves place along the stretch.
func (s TrackStretch) Leaving(place int64) Direction {
	if s.FromID == place {
		return Forward
	}
	return Backward
}

// Track returns the track with the given id.
func (s TrackStretch) Track(id int64) (Track, bool) {
	for _, t := range s.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// DispatchStretch is the logical route between two stations: an ordered
// chain of track stretches with optional intermediate signal places. N
// signals divide it into N+1 blocks.
type DispatchStretch struct {
	ID         int64
	FromID     int64
	ToID       int64
	StretchIDs []int64
	SignalIDs  []int64
}

// Blocks returns the number of blocks of the stretch.
func (d DispatchStretch) Blocks() int { return len(d.SignalIDs) + 1 }

// DirectionFrom returns the travel direction for a train departing station.
func (d DispatchStretch) DirectionFrom(station int64) Direction {
	if station == d.FromID {
		return Forward
	}
	return Backward
}
