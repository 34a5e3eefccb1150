package model

import "fmt"

// PlaceKind distinguishes the place variants of the network.
type PlaceKind int

const (
	// PlaceStation is a manned station with its own dispatcher.
	PlaceStation PlaceKind = iota + 1
	// PlaceSignal controls passage between blocks; hosts meets when it has
	// more than one track.
	PlaceSignal
	// PlaceOther is a halt or an unsignalled junction. Occupancy cascades
	// through it.
	PlaceOther
)

// String returns a human-readable representation of the kind.
func (k PlaceKind) String() string {
	switch k {
	case PlaceStation:
		return "station"
	case PlaceSignal:
		return "signal"
	case PlaceOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParsePlaceKind is the inverse of String.
func ParsePlaceKind(s string) (PlaceKind, error) {
	switch s {
	case "station":
		return PlaceStation, nil
	case "signal":
		return PlaceSignal, nil
	case "other":
		return PlaceOther, nil
	default:
		return 0, fmt.Errorf("unknown place kind %q", s)
	}
}

// Place is a node of the network.
type Place struct {
	ID        int64
	Kind      PlaceKind
	Name      string
	ShortCode string
	Tracks    int // platform or loop tracks at the place

	// ControllerStationID names the station whose dispatcher controls a
	// signal place. It is resolved into ControllerID once dispatchers exist.
	ControllerStationID int64
	ControllerID        int64
}

// IsControlled reports whether passage through the place is protected by an
// actor (station dispatcher or signal controller).
func (p Place) IsControlled() bool {
	return p.Kind == PlaceStation || p.Kind == PlaceSignal
}

// CascadesOccupancy reports whether a claim ending at this place must extend
// to every stretch touching it.
func (p Place) CascadesOccupancy() bool { return p.Kind == PlaceOther }

// CanHostMeet reports whether two trains can pass each other at the place.
func (p Place) CanHostMeet() bool {
	switch p.Kind {
	case PlaceStation:
		return true
	case PlaceSignal:
		return p.Tracks > 1
	default:
		return false
	}
}

// Dispatcher is the actor responsible for a station. Signal places are
// controlled by the dispatcher of their controller station.
type Dispatcher struct {
	ID        int64
	StationID int64
	Name      string
}
