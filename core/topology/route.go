package topology

import (
	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/model"
)

// Leg is one track stretch of a route together with the direction it is
// travelled in.
type Leg struct {
	StretchID int64
	Direction model.Direction
}

// Route is a dispatch stretch resolved for one travel direction.
type Route struct {
	DispatchStretchID int64
	Direction         model.Direction
	DepartureID       int64
	ArrivalID         int64
	Legs              []Leg   // travel order
	Signals           []int64 // intermediate signal places, travel order
	Blocks            [][]Leg // len(Signals)+1 blocks
}

// BlockStart returns the index in Legs of the first leg of block i.
func (r Route) BlockStart(i int) int {
	n := 0
	for b := 0; b < i && b < len(r.Blocks); b++ {
		n += len(r.Blocks[b])
	}
	return n
}

// Route walks the dispatch stretch from its departure station in direction
// dir and splits it into blocks at every intermediate signal.
func (t *Topology) Route(dispatchID int64, dir model.Direction) (Route, error) {
	d, ok := t.dispatch[dispatchID]
	if !ok {
		return Route{}, apperrors.New(apperrors.KindUnknownReference, "unknown dispatch stretch %d", dispatchID)
	}
	r := Route{DispatchStretchID: d.ID, Direction: dir, DepartureID: d.FromID, ArrivalID: d.ToID}
	stretchIDs := d.StretchIDs
	signals := d.SignalIDs
	if dir == model.Backward {
		r.DepartureID, r.ArrivalID = d.ToID, d.FromID
		stretchIDs = reversed(stretchIDs)
		signals = reversed(signals)
	}
	for _, sid := range signals {
		p, ok := t.places[sid]
		if !ok || p.Kind != model.PlaceSignal {
			return Route{}, apperrors.New(apperrors.KindUnknownReference,
				"dispatch stretch %d: %d is not a signal place", d.ID, sid)
		}
	}
	r.Signals = signals

	cur := r.DepartureID
	next := 0
	block := []Leg{}
	for _, id := range stretchIDs {
		s, ok := t.stretches[id]
		if !ok {
			return Route{}, apperrors.New(apperrors.KindUnknownReference,
				"dispatch stretch %d references unknown track stretch %d", d.ID, id)
		}
		if !s.Touches(cur) {
			return Route{}, apperrors.New(apperrors.KindUnknownReference,
				"dispatch stretch %d is not continuous at place %d", d.ID, cur)
		}
		leg := Leg{StretchID: id, Direction: s.Leaving(cur)}
		cur = s.FarEnd(leg.Direction)
		r.Legs = append(r.Legs, leg)
		block = append(block, leg)
		if next < len(signals) && cur == signals[next] {
			r.Blocks = append(r.Blocks, block)
			block = []Leg{}
			next++
		}
	}
	if cur != r.ArrivalID || next != len(signals) || len(block) == 0 {
		return Route{}, apperrors.New(apperrors.KindUnknownReference,
			"dispatch stretch %d does not reach station %d through all signals", d.ID, r.ArrivalID)
	}
	r.Blocks = append(r.Blocks, block)
	return r, nil
}

func reversed(in []int64) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
