package topology

import (
	"context"
	"fmt"
	"sort"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/ids"
	"github.com/kilianp07/trackdispatch/core/model"
)

// Topology is the resolved, read-only network. It is safe for concurrent
// reads once built.
type Topology struct {
	places      map[int64]model.Place
	stretches   map[int64]model.TrackStretch
	dispatch    map[int64]model.DispatchStretch
	dispatchers map[int64]model.Dispatcher

	dispatcherByStation map[int64]int64
	stretchesAt         map[int64][]int64
	betweenStations     map[stationPair]int64
	controlledBy        map[int64][]int64 // dispatcher -> signal places
}

type stationPair struct{ a, b int64 }

func pairOf(a, b int64) stationPair {
	if a > b {
		a, b = b, a
	}
	return stationPair{a, b}
}

// Load reads places, track stretches and dispatch stretches from p and builds
// the topology.
func Load(ctx context.Context, p Provider, alloc *ids.Allocator) (*Topology, error) {
	places, err := p.Places(ctx)
	if err != nil {
		return nil, fmt.Errorf("load places: %w", err)
	}
	stretches, err := p.TrackStretches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load track stretches: %w", err)
	}
	dispatch, err := p.DispatchStretches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dispatch stretches: %w", err)
	}
	return Build(places, stretches, dispatch, alloc)
}

// Build indexes the collections and resolves references. Dispatcher ids are
// drawn from alloc.
//
//gocyclo:ignore
func Build(places []model.Place, stretches []model.TrackStretch, dispatch []model.DispatchStretch, alloc *ids.Allocator) (*Topology, error) {
	if alloc == nil {
		alloc = ids.NewAllocator(0)
	}
	t := &Topology{
		places:              make(map[int64]model.Place, len(places)),
		stretches:           make(map[int64]model.TrackStretch, len(stretches)),
		dispatch:            make(map[int64]model.DispatchStretch, len(dispatch)),
		dispatchers:         make(map[int64]model.Dispatcher),
		dispatcherByStation: make(map[int64]int64),
		stretchesAt:         make(map[int64][]int64),
		betweenStations:     make(map[stationPair]int64),
		controlledBy:        make(map[int64][]int64),
	}

	// Phase one: index by raw id.
	for _, p := range places {
		if _, dup := t.places[p.ID]; dup {
			return nil, fmt.Errorf("duplicate place id %d", p.ID)
		}
		t.places[p.ID] = p
	}
	for _, s := range stretches {
		if _, dup := t.stretches[s.ID]; dup {
			return nil, fmt.Errorf("duplicate track stretch id %d", s.ID)
		}
		s.Tracks = append([]model.Track(nil), s.Tracks...)
		for i := range s.Tracks {
			s.Tracks[i].StretchID = s.ID
		}
		t.stretches[s.ID] = s
	}
	for _, d := range dispatch {
		if _, dup := t.dispatch[d.ID]; dup {
			return nil, fmt.Errorf("duplicate dispatch stretch id %d", d.ID)
		}
		t.dispatch[d.ID] = d
	}

	// Phase two: dispatchers, then references.
	stationIDs := make([]int64, 0)
	for id, p := range t.places {
		if p.Kind == model.PlaceStation {
			stationIDs = append(stationIDs, id)
		}
	}
	sortIDs(stationIDs)
	for _, sid := range stationIDs {
		st := t.places[sid]
		d := model.Dispatcher{ID: alloc.Next(), StationID: sid, Name: st.ShortCode}
		if d.Name == "" {
			d.Name = st.Name
		}
		t.dispatchers[d.ID] = d
		t.dispatcherByStation[sid] = d.ID
	}
	for id, p := range t.places {
		if p.Kind != model.PlaceSignal {
			continue
		}
		did, ok := t.dispatcherByStation[p.ControllerStationID]
		if !ok {
			return nil, apperrors.New(apperrors.KindUnknownReference,
				"signal place %d has no controlling station (got %d)", id, p.ControllerStationID)
		}
		p.ControllerID = did
		t.places[id] = p
		t.controlledBy[did] = append(t.controlledBy[did], id)
	}
	for id, s := range t.stretches {
		for _, end := range []int64{s.FromID, s.ToID} {
			if _, ok := t.places[end]; !ok {
				return nil, apperrors.New(apperrors.KindUnknownReference,
					"track stretch %d references unknown place %d", id, end)
			}
			t.stretchesAt[end] = append(t.stretchesAt[end], id)
		}
	}
	for _, list := range t.stretchesAt {
		sortIDs(list)
	}
	for _, list := range t.controlledBy {
		sortIDs(list)
	}
	dispatchIDs := make([]int64, 0, len(t.dispatch))
	for id := range t.dispatch {
		dispatchIDs = append(dispatchIDs, id)
	}
	sortIDs(dispatchIDs)
	for _, id := range dispatchIDs {
		d := t.dispatch[id]
		for _, end := range []int64{d.FromID, d.ToID} {
			p, ok := t.places[end]
			if !ok || p.Kind != model.PlaceStation {
				return nil, apperrors.New(apperrors.KindUnknownReference,
					"dispatch stretch %d must connect stations (place %d)", id, end)
			}
		}
		if _, err := t.Route(id, model.Forward); err != nil {
			return nil, err
		}
		pair := pairOf(d.FromID, d.ToID)
		if other, ok := t.betweenStations[pair]; ok {
			return nil, fmt.Errorf("dispatch stretches %d and %d both connect places %d and %d", other, id, pair.a, pair.b)
		}
		t.betweenStations[pair] = id
	}
	return t, nil
}

// Place returns the place with the given id.
func (t *Topology) Place(id int64) (model.Place, bool) {
	p, ok := t.places[id]
	return p, ok
}

// Stretch returns the track stretch with the given id.
func (t *Topology) Stretch(id int64) (model.TrackStretch, bool) {
	s, ok := t.stretches[id]
	return s, ok
}

// StretchesAt returns the ids of the track stretches ending at place.
func (t *Topology) StretchesAt(place int64) []int64 { return t.stretchesAt[place] }

// DispatchStretch returns the dispatch stretch with the given id.
func (t *Topology) DispatchStretch(id int64) (model.DispatchStretch, bool) {
	d, ok := t.dispatch[id]
	return d, ok
}

// DispatchStretchBetween finds the dispatch stretch linking two stations in
// either direction.
func (t *Topology) DispatchStretchBetween(a, b int64) (model.DispatchStretch, bool) {
	id, ok := t.betweenStations[pairOf(a, b)]
	if !ok {
		return model.DispatchStretch{}, false
	}
	return t.dispatch[id], true
}

// Dispatcher returns the dispatcher with the given id.
func (t *Topology) Dispatcher(id int64) (model.Dispatcher, bool) {
	d, ok := t.dispatchers[id]
	return d, ok
}

// DispatcherFor returns the dispatcher responsible for a station.
func (t *Topology) DispatcherFor(station int64) (int64, bool) {
	id, ok := t.dispatcherByStation[station]
	return id, ok
}

// Dispatchers lists all dispatchers ordered by id.
func (t *Topology) Dispatchers() []model.Dispatcher {
	out := make([]model.Dispatcher, 0, len(t.dispatchers))
	for _, d := range t.dispatchers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ControlledSignals returns the signal places controlled by a dispatcher.
func (t *Topology) ControlledSignals(dispatcher int64) []int64 {
	return t.controlledBy[dispatcher]
}

// Places lists all places ordered by id.
func (t *Topology) Places() []model.Place {
	out := make([]model.Place, 0, len(t.places))
	for _, p := range t.places {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stretches lists all track stretches ordered by id.
func (t *Topology) Stretches() []model.TrackStretch {
	out := make([]model.TrackStretch, 0, len(t.stretches))
	for _, s := range t.stretches {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortIDs(list []int64) {
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
}
