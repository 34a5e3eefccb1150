package dispatch

import (
	"sort"
	"time"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/model"
)

// SectionView is a read-only copy of a section with everything a dispatcher
// needs to decide what to do next.
type SectionView struct {
	ID                int64                  `json:"id"`
	TrainID           int64                  `json:"train_id"`
	Train             string                 `json:"train"`
	TrainState        string                 `json:"train_state"`
	DispatchStretchID int64                  `json:"dispatch_stretch_id"`
	Direction         string                 `json:"direction"`
	From              string                 `json:"from"`
	To                string                 `json:"to"`
	State             string                 `json:"state"`
	BlockIndex        int                    `json:"block_index"`
	Blocks            int                    `json:"blocks"`
	TrackStretchIndex int                    `json:"track_stretch_index"`
	Signals           []SignalPassage        `json:"signals,omitempty"`
	Departure         model.TrainStationCall `json:"departure"`
	Arrival           model.TrainStationCall `json:"arrival"`
	DepartureDelay    time.Duration          `json:"departure_delay"`
	ArrivalDelay      time.Duration          `json:"arrival_delay"`
	PreviousID        int64                  `json:"previous_id,omitempty"`
	NextID            int64                  `json:"next_id,omitempty"`
	Updated           time.Time              `json:"updated"`
	Undoable          string                 `json:"undoable,omitempty"`
	Actions           []ActionOption         `json:"actions"`
}

// Departures lists the unfinished sections leaving actor's station, by
// scheduled departure.
func (c *Coordinator) Departures(actor int64) []SectionView {
	return c.list(actor, func(s *Section) bool {
		return c.dispatcherAt(s.departureStation()) == actor
	}, func(s *Section) time.Time { return c.calls[s.DepartureCallID].ScheduledDeparture })
}

// Arrivals lists the unfinished sections entering actor's station, by
// scheduled arrival.
func (c *Coordinator) Arrivals(actor int64) []SectionView {
	return c.list(actor, func(s *Section) bool {
		return c.dispatcherAt(s.arrivalStation()) == actor
	}, func(s *Section) time.Time { return c.calls[s.ArrivalCallID].ScheduledArrival })
}

// Passages lists the unfinished sections crossing a signal controlled by
// actor that is still expected.
func (c *Coordinator) Passages(actor int64) []SectionView {
	return c.list(actor, func(s *Section) bool {
		for _, sig := range s.Signals {
			if sig.State != model.PassageExpected {
				continue
			}
			if p, ok := c.topo.Place(sig.PlaceID); ok && p.ControllerID == actor {
				return true
			}
		}
		return false
	}, func(s *Section) time.Time { return c.calls[s.DepartureCallID].ScheduledDeparture })
}

// Section returns the view of one section with the actions open to actor.
// Actor zero yields no actions.
func (c *Coordinator) Section(id, actor int64) (SectionView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sec, ok := c.sections[id]
	if !ok {
		return SectionView{}, apperrors.New(apperrors.KindUnknownReference, "unknown section %d", id)
	}
	return c.view(sec, actor), nil
}

// Train returns the runtime state of a train.
func (c *Coordinator) Train(id int64) (Train, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trains[id]
	if !ok {
		return Train{}, false
	}
	cp := *t
	cp.Sections = append([]int64(nil), t.Sections...)
	return cp, true
}

// Sections lists every section ordered by id, without actions.
func (c *Coordinator) Sections() []SectionView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]SectionView, 0, len(c.sections))
	for _, id := range sortedKeys(c.sections) {
		out = append(out, c.view(c.sections[id], 0))
	}
	return out
}

func (c *Coordinator) list(actor int64, keep func(*Section) bool, when func(*Section) time.Time) []SectionView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var picked []*Section
	for _, s := range c.sections {
		if s.State == model.DispatchArrived || !keep(s) {
			continue
		}
		picked = append(picked, s)
	}
	sort.Slice(picked, func(i, j int) bool {
		ti, tj := when(picked[i]), when(picked[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return picked[i].ID < picked[j].ID
	})
	out := make([]SectionView, 0, len(picked))
	for _, s := range picked {
		out = append(out, c.view(s, actor))
	}
	return out
}

// view builds a SectionView; callers hold the lock.
func (c *Coordinator) view(s *Section, actor int64) SectionView {
	t := c.trains[s.TrainID]
	now := c.clock.Now()
	dep, arr := *c.calls[s.DepartureCallID], *c.calls[s.ArrivalCallID]
	v := SectionView{
		ID: s.ID, TrainID: t.ID, Train: t.Name(), TrainState: t.State.String(),
		DispatchStretchID: s.DispatchStretchID, Direction: s.Direction.String(),
		From: c.placeName(s.departureStation()), To: c.placeName(s.arrivalStation()),
		State: s.State.String(), BlockIndex: s.BlockIndex, Blocks: s.Blocks(),
		TrackStretchIndex: s.TrackStretchIndex, Signals: s.copySignals(),
		Departure: dep, Arrival: arr,
		DepartureDelay: dep.DepartureDelay(now), ArrivalDelay: arr.ArrivalDelay(now),
		PreviousID: s.PreviousID, NextID: s.NextID, Updated: s.Updated,
		Actions: []ActionOption{},
	}
	if a, ok := t.CanUndo(); ok {
		v.Undoable = a.String()
	}
	if actor != 0 {
		if acts := LegalActions(c.authInput(s), actor); acts != nil {
			v.Actions = acts
		}
	}
	return v
}

// authInput snapshots what authorization needs; callers hold the lock.
func (c *Coordinator) authInput(s *Section) AuthInput {
	t := c.trains[s.TrainID]
	in := AuthInput{
		Section:        *s,
		Train:          *t,
		DepartureActor: c.dispatcherAt(s.departureStation()),
		ArrivalActor:   c.dispatcherAt(s.arrivalStation()),
	}
	in.Section.Signals = s.copySignals()
	if s.PreviousID != 0 {
		prev := *c.sections[s.PreviousID]
		in.Previous = &prev
	}
	for _, id := range t.Sections {
		if c.sections[id].State != model.DispatchArrived {
			in.InProgress = id == s.ID
			break
		}
	}
	for _, sig := range s.Signals {
		p, _ := c.topo.Place(sig.PlaceID)
		in.SignalControllers = append(in.SignalControllers, p.ControllerID)
		in.SignalNames = append(in.SignalNames, p.ShortCode)
	}
	return in
}

func (c *Coordinator) dispatcherAt(station int64) int64 {
	id, _ := c.topo.DispatcherFor(station)
	return id
}

func (c *Coordinator) placeName(id int64) string {
	p, ok := c.topo.Place(id)
	if !ok {
		return ""
	}
	if p.ShortCode != "" {
		return p.ShortCode
	}
	return p.Name
}
