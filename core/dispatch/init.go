package dispatch

import (
	"context"
	"fmt"
	"sort"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/occupancy"
	"github.com/kilianp07/trackdispatch/core/snapshot"
	"github.com/kilianp07/trackdispatch/core/topology"
)

func (c *Coordinator) init(ctx context.Context, p topology.Provider, store snapshot.Store) error {
	topo, err := topology.Load(ctx, p, c.ids)
	if err != nil {
		return fmt.Errorf("load topology: %w", err)
	}
	c.topo = topo
	c.occ = occupancy.New(topo, c.clock)
	for _, cyc := range topo.CascadeCycles() {
		c.log.Warnf("uncontrolled places %v form a cycle over stretches %v", cyc.Places, cyc.Stretches)
	}

	trains, err := p.Trains(ctx)
	if err != nil {
		return fmt.Errorf("load trains: %w", err)
	}
	for _, t := range trains {
		c.trains[t.ID] = &Train{Train: t, State: model.TrainPlanned}
	}
	calls, err := p.Calls(ctx)
	if err != nil {
		return fmt.Errorf("load calls: %w", err)
	}
	for i := range calls {
		call := calls[i]
		if _, ok := c.trains[call.TrainID]; !ok {
			return apperrors.New(apperrors.KindUnknownReference, "call %d references unknown train %d", call.ID, call.TrainID)
		}
		c.calls[call.ID] = &call
	}

	snap, ok, err := store.Load(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistenceFailure, err, "load snapshot")
	}
	if ok {
		if err := c.replay(snap); err != nil {
			return fmt.Errorf("replay snapshot %s: %w", snap.ID, err)
		}
		c.log.Infof("restored %d sections from snapshot %s taken %s", len(snap.Sections), snap.ID, snap.TakenAt.Format("15:04:05"))
		return nil
	}
	if err := c.derive(); err != nil {
		return err
	}
	c.log.Infof("derived %d sections for %d trains", len(c.sections), len(c.trains))
	if err := c.persister.Save(ctx, c.capture()); err != nil {
		c.log.Warnf("initial snapshot: %v", err)
	}
	return nil
}

// derive builds one section per pair of consecutive scheduled calls.
func (c *Coordinator) derive() error {
	byTrain := make(map[int64][]*model.TrainStationCall)
	for _, call := range c.calls {
		byTrain[call.TrainID] = append(byTrain[call.TrainID], call)
	}
	trainIDs := make([]int64, 0, len(byTrain))
	for id := range byTrain {
		trainIDs = append(trainIDs, id)
	}
	sort.Slice(trainIDs, func(i, j int) bool { return trainIDs[i] < trainIDs[j] })

	for _, tid := range trainIDs {
		list := byTrain[tid]
		sort.Slice(list, func(i, j int) bool { return list[i].Sequence < list[j].Sequence })
		train := c.trains[tid]
		var prev *Section
		for i := 0; i+1 < len(list); i++ {
			from, to := list[i], list[i+1]
			ds, ok := c.topo.DispatchStretchBetween(from.StationID, to.StationID)
			if !ok {
				return apperrors.New(apperrors.KindUnknownReference,
					"train %s: no dispatch stretch between stations %d and %d", train.Name(), from.StationID, to.StationID)
			}
			dir := ds.DirectionFrom(from.StationID)
			route, err := c.topo.Route(ds.ID, dir)
			if err != nil {
				return err
			}
			sec := &Section{
				ID: c.ids.Next(), TrainID: tid, DispatchStretchID: ds.ID, Direction: dir,
				DepartureCallID: from.ID, ArrivalCallID: to.ID, route: route,
			}
			for _, sig := range route.Signals {
				sec.Signals = append(sec.Signals, SignalPassage{PlaceID: sig})
			}
			if prev != nil {
				sec.PreviousID = prev.ID
				prev.NextID = sec.ID
			}
			c.sections[sec.ID] = sec
			train.Sections = append(train.Sections, sec.ID)
			prev = sec
		}
	}
	return nil
}

// replay restores trains and sections from snap and re-acquires the block
// held by every departed section.
func (c *Coordinator) replay(snap snapshot.Snapshot) error {
	c.ids.Observe(snap.LastID)
	c.version = snap.Version
	for _, tr := range snap.Trains {
		t, ok := c.trains[tr.ID]
		if !ok {
			return apperrors.New(apperrors.KindUnknownReference, "snapshot references unknown train %d", tr.ID)
		}
		t.State = tr.State
	}
	recs := append([]snapshot.SectionRecord(nil), snap.Sections...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	for _, rec := range recs {
		t, ok := c.trains[rec.TrainID]
		if !ok {
			return apperrors.New(apperrors.KindUnknownReference, "section %d references unknown train %d", rec.ID, rec.TrainID)
		}
		route, err := c.topo.Route(rec.DispatchStretchID, rec.Direction)
		if err != nil {
			return err
		}
		if len(rec.Signals) != len(route.Signals) {
			return apperrors.New(apperrors.KindUnknownReference,
				"section %d has %d signals, dispatch stretch %d has %d", rec.ID, len(rec.Signals), rec.DispatchStretchID, len(route.Signals))
		}
		sec := &Section{
			ID: rec.ID, TrainID: rec.TrainID, DispatchStretchID: rec.DispatchStretchID, Direction: rec.Direction,
			DepartureCallID: rec.Departure.ID, ArrivalCallID: rec.Arrival.ID, PreviousID: rec.PreviousID,
			State: rec.State, BlockIndex: rec.BlockIndex, TrackStretchIndex: rec.TrackStretchIndex,
			Updated: rec.Updated, route: route,
		}
		for _, sig := range rec.Signals {
			sec.Signals = append(sec.Signals, SignalPassage{PlaceID: sig.PlaceID, State: sig.State, PassedAt: sig.PassedAt})
		}
		dep, arr := rec.Departure, rec.Arrival
		c.calls[dep.ID] = &dep
		c.calls[arr.ID] = &arr
		c.sections[sec.ID] = sec
		t.Sections = append(t.Sections, sec.ID)
	}
	for _, sec := range c.sections {
		if sec.PreviousID == 0 {
			continue
		}
		prev, ok := c.sections[sec.PreviousID]
		if !ok {
			return apperrors.New(apperrors.KindUnknownReference, "section %d references unknown section %d", sec.ID, sec.PreviousID)
		}
		prev.NextID = sec.ID
	}
	for _, t := range c.trains {
		c.orderJourney(t)
	}
	for _, id := range sortedKeys(c.sections) {
		sec := c.sections[id]
		if sec.State != model.DispatchDeparted || c.trains[sec.TrainID].State.Terminal() {
			continue
		}
		if _, err := c.occ.Acquire(sec.ID, sec.block(sec.BlockIndex)); err != nil {
			return fmt.Errorf("re-acquire block %d of section %d: %w", sec.BlockIndex, sec.ID, err)
		}
	}
	return nil
}

// orderJourney sorts a train's sections by following the previous links.
func (c *Coordinator) orderJourney(t *Train) {
	var first int64
	for _, id := range t.Sections {
		if c.sections[id].PreviousID == 0 {
			first = id
			break
		}
	}
	ordered := make([]int64, 0, len(t.Sections))
	for id := first; id != 0 && len(ordered) < len(t.Sections); id = c.sections[id].NextID {
		ordered = append(ordered, id)
	}
	if len(ordered) == len(t.Sections) {
		t.Sections = ordered
	}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
