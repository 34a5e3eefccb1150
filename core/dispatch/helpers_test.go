package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/trackdispatch/core/clock"
	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/snapshot"
	"github.com/kilianp07/trackdispatch/core/topology"
	"github.com/kilianp07/trackdispatch/internal/testnet"
)

type harness struct {
	t     *testing.T
	c     *Coordinator
	clock *clock.Manual
	store snapshot.Store
}

func newHarness(t *testing.T, p *topology.StaticProvider) *harness {
	t.Helper()
	return newHarnessWithStore(t, p, snapshot.NewMemoryStore())
}

func newHarnessWithStore(t *testing.T, p *topology.StaticProvider, store snapshot.Store) *harness {
	t.Helper()
	clk := clock.NewManual(testnet.Base)
	c, err := NewCoordinator(context.Background(), Deps{Provider: p, Store: store, Clock: clk})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	t.Cleanup(func() { c.persister.Wait() })
	return &harness{t: t, c: c, clock: clk, store: store}
}

// actor returns the dispatcher of station.
func (h *harness) actor(station int64) int64 {
	h.t.Helper()
	id, ok := h.c.Topology().DispatcherFor(station)
	if !ok {
		h.t.Fatalf("no dispatcher for station %d", station)
	}
	return id
}

// section returns the i-th section of train's journey.
func (h *harness) section(train int64, i int) int64 {
	h.t.Helper()
	tr, ok := h.c.Train(train)
	if !ok || i >= len(tr.Sections) {
		h.t.Fatalf("train %d has no section %d", train, i)
	}
	return tr.Sections[i]
}

func (h *harness) do(section, actor int64, a Action) ActionResult {
	h.t.Helper()
	res, err := h.c.Execute(context.Background(), section, actor, a)
	if err != nil {
		h.t.Fatalf("%s on section %d by %d: %v", a, section, actor, err)
	}
	return res
}

func (h *harness) refuse(section, actor int64, a Action, kind apperrors.Kind) {
	h.t.Helper()
	_, err := h.c.Execute(context.Background(), section, actor, a)
	if err == nil {
		h.t.Fatalf("%s on section %d by %d: expected %s, got success", a, section, actor, kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		h.t.Fatalf("%s on section %d by %d: expected %s got %s (%v)", a, section, actor, kind, got, err)
	}
}

func (h *harness) view(section int64) SectionView {
	h.t.Helper()
	v, err := h.c.Section(section, 0)
	if err != nil {
		h.t.Fatalf("section %d: %v", section, err)
	}
	return v
}

// dispatch runs a first section from Planned to Departed.
func (h *harness) dispatch(train int64, from, to int64) int64 {
	h.t.Helper()
	sec := h.section(train, 0)
	dep, arr := h.actor(from), h.actor(to)
	h.do(sec, dep, ActionManned)
	h.do(sec, dep, ActionRequest)
	h.do(sec, arr, ActionAccept)
	h.do(sec, dep, ActionDepart)
	return sec
}

type failingStore struct{ snapshot.MemoryStore }

var errDiskFull = errors.New("disk full")

func (*failingStore) Save(context.Context, snapshot.Snapshot) error { return errDiskFull }

// versionStore records the version of every saved snapshot.
type versionStore struct {
	snapshot.MemoryStore
	mu       sync.Mutex
	versions []uint64
}

func (s *versionStore) Save(ctx context.Context, snap snapshot.Snapshot) error {
	time.Sleep(100 * time.Microsecond)
	s.mu.Lock()
	s.versions = append(s.versions, snap.Version)
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, snap)
}

func (s *versionStore) saved() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.versions...)
}
