package topology_test

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/ids"
	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/topology"
	"github.com/kilianp07/trackdispatch/internal/testnet"
)

func TestLoadResolvesDispatchersAndControllers(t *testing.T) {
	p := testnet.SignalLine()
	topo, err := topology.Load(context.Background(), p, ids.NewAllocator(0))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n := len(topo.Dispatchers()); n != 3 {
		t.Fatalf("expected one dispatcher per station, got %d", n)
	}
	aDisp, ok := topo.DispatcherFor(testnet.StationA)
	if !ok {
		t.Fatalf("no dispatcher for A")
	}
	sig, _ := topo.Place(testnet.SignalS42)
	if sig.ControllerID != aDisp {
		t.Fatalf("S42 controller %d, expected A's dispatcher %d", sig.ControllerID, aDisp)
	}
	if got := topo.ControlledSignals(aDisp); len(got) != 1 || got[0] != testnet.SignalS42 {
		t.Fatalf("unexpected controlled signals %v", got)
	}
	d, ok := topo.DispatchStretchBetween(testnet.StationA, testnet.StationG)
	if !ok || d.ID != 1000 {
		t.Fatalf("lookup in reverse order failed: %v %v", d, ok)
	}
}

func TestRouteBlocks(t *testing.T) {
	topo := testnet.MustTopology(testnet.SignalLine())
	fwd, err := topo.Route(1000, model.Forward)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(fwd.Blocks) != 2 || fwd.Blocks[0][0].StretchID != 100 || fwd.Blocks[1][0].StretchID != 101 {
		t.Fatalf("unexpected forward blocks %+v", fwd.Blocks)
	}
	if fwd.BlockStart(1) != 1 {
		t.Fatalf("expected block 1 to start at leg 1")
	}
	back, err := topo.Route(1000, model.Backward)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if back.DepartureID != testnet.StationA || back.ArrivalID != testnet.StationG {
		t.Fatalf("backward endpoints %d→%d", back.DepartureID, back.ArrivalID)
	}
	if back.Blocks[0][0].StretchID != 101 || back.Blocks[0][0].Direction != model.Backward {
		t.Fatalf("unexpected backward first leg %+v", back.Blocks[0][0])
	}
}

func TestBuildUnknownController(t *testing.T) {
	p := testnet.SignalLine()
	for i := range p.PlaceList {
		if p.PlaceList[i].ID == testnet.SignalS42 {
			p.PlaceList[i].ControllerStationID = 999
		}
	}
	_, err := topology.Build(p.PlaceList, p.StretchList, p.DispatchList, nil)
	if !apperrors.IsKind(err, apperrors.KindUnknownReference) {
		t.Fatalf("expected unknown reference got %v", err)
	}
}

func TestBuildDiscontinuousStretch(t *testing.T) {
	p := testnet.SignalLine()
	p.DispatchList[0].StretchIDs = []int64{101, 100}
	if _, err := topology.Build(p.PlaceList, p.StretchList, p.DispatchList, nil); err == nil {
		t.Fatalf("expected discontinuity error")
	}
}

func TestBuildDuplicateStationPair(t *testing.T) {
	p := testnet.SignalLine()
	p.DispatchList = append(p.DispatchList, model.DispatchStretch{
		ID: 1002, FromID: testnet.StationA, ToID: testnet.StationB, StretchIDs: []int64{102},
	})
	_, err := topology.Build(p.PlaceList, p.StretchList, p.DispatchList, nil)
	if err == nil || !strings.Contains(err.Error(), "1001 and 1002") {
		t.Fatalf("expected duplicate station pair error, got %v", err)
	}
}

func TestCascadeCycles(t *testing.T) {
	if got := testnet.MustTopology(testnet.Junction()).CascadeCycles(); len(got) != 0 {
		t.Fatalf("junction has no cycle, got %+v", got)
	}
	got := testnet.MustTopology(testnet.Loop()).CascadeCycles()
	if len(got) != 1 {
		t.Fatalf("expected one cycle got %d", len(got))
	}
	if len(got[0].Places) != 2 || len(got[0].Stretches) != 2 {
		t.Fatalf("unexpected cycle %+v", got[0])
	}
}
