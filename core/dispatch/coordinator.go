// Package dispatch coordinates train sections over the network: it owns the
// section and train state machines, gates actions by actor role, drives the
// occupancy engine and persists snapshots in the background.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/trackdispatch/core/clock"
	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/events"
	"github.com/kilianp07/trackdispatch/core/ids"
	"github.com/kilianp07/trackdispatch/core/logger"
	"github.com/kilianp07/trackdispatch/core/metrics"
	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/monitoring"
	"github.com/kilianp07/trackdispatch/core/occupancy"
	"github.com/kilianp07/trackdispatch/core/snapshot"
	"github.com/kilianp07/trackdispatch/core/topology"
	"github.com/kilianp07/trackdispatch/internal/eventbus"
)

// Deps are the collaborators of a Coordinator. Provider is required; every
// other field has a working default.
type Deps struct {
	Provider        topology.Provider
	Store           snapshot.Store
	Clock           clock.Clock
	Logger          logger.Logger
	Metrics         metrics.MetricsSink
	Bus             eventbus.EventBus
	Monitor         monitoring.Monitor
	IDs             *ids.Allocator
	SnapshotTimeout time.Duration
}

// ActionResult is the outcome of a successful action.
type ActionResult struct {
	Section SectionView `json:"section"`
	// Snapshot is "started" or "dropped".
	Snapshot string `json:"snapshot"`
	// Warning carries a persistence failure reported since the previous
	// action. The action itself was applied.
	Warning string `json:"warning,omitempty"`
}

// Coordinator owns all mutable dispatch state. Actions are serialized by its
// lock; queries run concurrently and observe consistent views.
type Coordinator struct {
	mu sync.RWMutex

	topo      *topology.Topology
	occ       *occupancy.Engine
	ids       *ids.Allocator
	clock     clock.Clock
	log       logger.Logger
	metrics   metrics.MetricsSink
	bus       eventbus.EventBus
	monitor   monitoring.Monitor
	persister *snapshot.Persister
	version   uint64

	trains   map[int64]*Train
	sections map[int64]*Section
	calls    map[int64]*model.TrainStationCall
}

// NewCoordinator loads the topology and timetable, then either replays the
// stored snapshot or derives sections from the scheduled calls and saves an
// initial snapshot.
func NewCoordinator(ctx context.Context, deps Deps) (*Coordinator, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("dispatch: nil provider")
	}
	c := &Coordinator{
		ids:      deps.IDs,
		clock:    deps.Clock,
		log:      deps.Logger,
		metrics:  deps.Metrics,
		bus:      deps.Bus,
		monitor:  deps.Monitor,
		trains:   make(map[int64]*Train),
		sections: make(map[int64]*Section),
		calls:    make(map[int64]*model.TrainStationCall),
	}
	if c.ids == nil {
		c.ids = ids.NewAllocator(0)
	}
	if c.clock == nil {
		c.clock = clock.System{}
	}
	if c.log == nil {
		c.log = logger.Nop{}
	}
	if c.metrics == nil {
		c.metrics = metrics.NopSink{}
	}
	if c.monitor == nil {
		c.monitor = monitoring.NopMonitor{}
	}
	store := deps.Store
	if store == nil {
		store = snapshot.NewMemoryStore()
	}
	p, err := snapshot.NewPersister(store, c.log, deps.SnapshotTimeout)
	if err != nil {
		return nil, err
	}
	c.persister = p
	c.persister.OnResult(c.onPersisted)

	if err := c.init(ctx, deps.Provider, store); err != nil {
		return nil, err
	}
	occupiedTracks.Set(float64(c.occ.OccupiedTracks()))
	return c, nil
}

// Execute performs action on the section on behalf of actor. Failures are
// *apperrors.Error values and leave every state untouched.
func (c *Coordinator) Execute(ctx context.Context, sectionID, actor int64, action Action) (ActionResult, error) {
	start := time.Now()
	res, ev, err := c.execute(sectionID, actor, action)
	dur := time.Since(start)
	actionDuration.WithLabelValues(action.String()).Observe(dur.Seconds())
	rec := metrics.ActionRecord{
		SectionID: sectionID, TrainID: ev.TrainID, Train: ev.Train, Action: action.String(),
		Actor: actor, Duration: dur, Time: c.clock.Now(),
	}
	if err != nil {
		kind := apperrors.KindOf(err)
		actionsTotal.WithLabelValues(action.String(), string(kind)).Inc()
		rec.Outcome = string(kind)
		c.log.Debugw("action refused", map[string]any{
			"section": sectionID, "actor": actor, "action": action.String(), "kind": string(kind), "reason": err.Error(),
		})
		c.publish(events.ActionFailedEvent{
			At: rec.Time, SectionID: sectionID, Action: action.String(), Actor: actor, Kind: string(kind), Err: err,
		})
		if merr := c.metrics.RecordAction(rec); merr != nil {
			c.log.Errorf("metrics error: %v", merr)
		}
		return ActionResult{}, err
	}
	actionsTotal.WithLabelValues(action.String(), "ok").Inc()
	rec.Outcome = "ok"
	rec.State = ev.StateName
	ev.Duration = dur
	c.log.Infof("%s %s on section %d by actor %d -> %s", action, ev.Train, sectionID, actor, ev.StateName)
	c.publish(ev)
	if merr := c.metrics.RecordAction(rec); merr != nil {
		c.log.Errorf("metrics error: %v", merr)
	}
	if r, ok := c.metrics.(metrics.OccupancyRecorder); ok {
		if merr := r.RecordOccupancy(metrics.OccupancySample{OccupiedTracks: c.occ.OccupiedTracks(), Time: rec.Time}); merr != nil {
			c.log.Errorf("occupancy metrics error: %v", merr)
		}
	}
	return res, nil
}

func (c *Coordinator) execute(sectionID, actor int64, action Action) (ActionResult, events.SectionEvent, error) {
	c.mu.Lock()
	sec, ok := c.sections[sectionID]
	if !ok {
		c.mu.Unlock()
		return ActionResult{}, events.SectionEvent{}, apperrors.New(apperrors.KindUnknownReference, "unknown section %d", sectionID)
	}
	train := c.trains[sec.TrainID]
	ev := events.SectionEvent{SectionID: sec.ID, TrainID: train.ID, Train: train.Name(), Action: action.String(), Actor: actor}
	if _, ok := c.topo.Dispatcher(actor); !ok {
		c.mu.Unlock()
		return ActionResult{}, ev, apperrors.New(apperrors.KindUnknownReference, "unknown actor %d", actor)
	}
	if err := Authorize(c.authInput(sec), actor, action); err != nil {
		c.mu.Unlock()
		return ActionResult{}, ev, err
	}
	if err := c.apply(sec, train, action); err != nil {
		c.mu.Unlock()
		return ActionResult{}, ev, err
	}
	now := c.clock.Now()
	sec.Updated = now
	ev.At = now
	ev.State, ev.StateName = sec.State, sec.State.String()
	ev.TrainState, ev.TrainStateName = train.State, train.State.String()
	ev.BlockIndex = sec.BlockIndex
	c.version++
	res := ActionResult{Section: c.view(sec, actor), Snapshot: "started"}
	if err := c.persister.TakeError(); err != nil {
		res.Warning = err.Error()
	}
	// Saves start in the order states were reached.
	if !c.persister.Trigger(c.capture()) {
		res.Snapshot = "dropped"
	}
	occupiedTracks.Set(float64(c.occ.OccupiedTracks()))
	c.mu.Unlock()
	return res, ev, nil
}

// Close waits for background saves and writes a final snapshot
// synchronously. The store is not closed.
func (c *Coordinator) Close(ctx context.Context) error {
	c.persister.Wait()
	c.mu.RLock()
	snap := c.capture()
	c.mu.RUnlock()
	return c.persister.Save(ctx, snap)
}

// Topology returns the network the coordinator runs on.
func (c *Coordinator) Topology() *topology.Topology { return c.topo }

// Occupancy lists the current claims, ordered by stretch.
func (c *Coordinator) Occupancy() []occupancy.Claim {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []occupancy.Claim
	for _, s := range c.topo.Stretches() {
		out = append(out, c.occ.Occupancies(s.ID)...)
	}
	return out
}

// Snapshot captures the current state.
func (c *Coordinator) Snapshot() snapshot.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capture()
}

func (c *Coordinator) publish(ev eventbus.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func (c *Coordinator) onPersisted(r snapshot.Result) {
	result := "ok"
	switch {
	case r.Dropped:
		result = "dropped"
	case r.Err != nil:
		result = "failed"
		c.monitor.CaptureException(r.Err, monitoring.Tags(r.Err, map[string]string{"component": "persister"}))
	}
	snapshotsTotal.WithLabelValues(result).Inc()
	c.publish(events.PersistEvent{SnapshotID: r.SnapshotID, Dropped: r.Dropped, Err: r.Err, Duration: r.Duration})
}

// capture builds a snapshot; callers hold the lock.
func (c *Coordinator) capture() snapshot.Snapshot {
	trains := make([]snapshot.TrainRecord, 0, len(c.trains))
	for _, t := range c.trains {
		trains = append(trains, snapshot.TrainRecord{ID: t.ID, State: t.State})
	}
	sort.Slice(trains, func(i, j int) bool { return trains[i].ID < trains[j].ID })
	sections := make([]snapshot.SectionRecord, 0, len(c.sections))
	for _, s := range c.sections {
		rec := snapshot.SectionRecord{
			ID: s.ID, TrainID: s.TrainID, DispatchStretchID: s.DispatchStretchID, Direction: s.Direction,
			PreviousID: s.PreviousID, State: s.State, BlockIndex: s.BlockIndex,
			TrackStretchIndex: s.TrackStretchIndex, Updated: s.Updated,
			Departure: *c.calls[s.DepartureCallID], Arrival: *c.calls[s.ArrivalCallID],
		}
		for _, sig := range s.Signals {
			rec.Signals = append(rec.Signals, snapshot.SignalRecord{PlaceID: sig.PlaceID, State: sig.State, PassedAt: sig.PassedAt})
		}
		sections = append(sections, rec)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
	snap := snapshot.New(c.clock.Now(), c.ids.Last(), trains, sections)
	snap.Version = c.version
	return snap
}
