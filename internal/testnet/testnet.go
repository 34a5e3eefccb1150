// Package testnet provides small reference networks shared by the package
// tests.
//
// SingleTrack is a single bidirectional track between G and A with two trains
// scheduled G→A. SignalLine adds signal S42 (controlled from A) between G and
// A and a further station B; train X100 runs G→A→B. Junction splits G's line
// at an unsignalled junction J towards A and C. Loop places two uncontrolled
// junctions joined by parallel stretches between G and A.
package testnet

import (
	"time"

	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/topology"
)

// Place ids.
const (
	StationG  int64 = 1
	StationA  int64 = 2
	StationB  int64 = 3
	StationC  int64 = 4
	SignalS42 int64 = 10
	JunctionJ int64 = 20
	JunctionK int64 = 21
)

// Train ids.
const (
	TrainX100 int64 = 1
	TrainX200 int64 = 2
)

// Base is the reference service day start used for scheduled times.
var Base = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func station(id int64, code string) model.Place {
	return model.Place{ID: id, Kind: model.PlaceStation, Name: "Station " + code, ShortCode: code, Tracks: 2}
}

func stretch(id, from, to int64, tracks ...int64) model.TrackStretch {
	s := model.TrackStretch{ID: id, FromID: from, ToID: to}
	for i, tid := range tracks {
		s.Tracks = append(s.Tracks, model.Track{ID: tid, Name: string(rune('1' + i))})
	}
	return s
}

func trains() []model.Train {
	return []model.Train{
		{ID: TrainX100, Operator: "X", Number: "100"},
		{ID: TrainX200, Operator: "X", Number: "200"},
	}
}

// call builds a call; a zero offset on either side leaves that time unset.
func call(id, train, station int64, seq int, arr, dep time.Duration) model.TrainStationCall {
	c := model.TrainStationCall{ID: id, TrainID: train, StationID: station, Sequence: seq}
	if arr != 0 {
		c.ScheduledArrival = Base.Add(arr)
	}
	if dep != 0 {
		c.ScheduledDeparture = Base.Add(dep)
	}
	return c
}

// SingleTrack returns G-A over one track (stretch 100, track 1001) and
// dispatch stretch 1000. X100 and X200 both run G→A.
func SingleTrack() *topology.StaticProvider {
	return &topology.StaticProvider{
		PlaceList:    []model.Place{station(StationG, "G"), station(StationA, "A")},
		StretchList:  []model.TrackStretch{stretch(100, StationG, StationA, 1001)},
		DispatchList: []model.DispatchStretch{{ID: 1000, FromID: StationG, ToID: StationA, StretchIDs: []int64{100}}},
		TrainList:    trains(),
		CallList: []model.TrainStationCall{
			call(1, TrainX100, StationG, 1, 0, time.Minute),
			call(2, TrainX100, StationA, 2, 20*time.Minute, 0),
			call(3, TrainX200, StationG, 1, 0, 10*time.Minute),
			call(4, TrainX200, StationA, 2, 30*time.Minute, 0),
		},
	}
}

// SignalLine returns G-S42-A-B. Stretch 100 (track 1001) runs G→S42, 101
// (track 1011) S42→A and 102 (track 1021) A→B. Dispatch stretch 1000 covers
// G–A with S42 as its only signal, 1001 covers A–B. X100 runs G→A→B, X200
// runs G→A.
func SignalLine() *topology.StaticProvider {
	s42 := model.Place{ID: SignalS42, Kind: model.PlaceSignal, Name: "Signal 42", ShortCode: "S42", Tracks: 1, ControllerStationID: StationA}
	return &topology.StaticProvider{
		PlaceList: []model.Place{station(StationG, "G"), station(StationA, "A"), station(StationB, "B"), s42},
		StretchList: []model.TrackStretch{
			stretch(100, StationG, SignalS42, 1001),
			stretch(101, SignalS42, StationA, 1011),
			stretch(102, StationA, StationB, 1021),
		},
		DispatchList: []model.DispatchStretch{
			{ID: 1000, FromID: StationG, ToID: StationA, StretchIDs: []int64{100, 101}, SignalIDs: []int64{SignalS42}},
			{ID: 1001, FromID: StationA, ToID: StationB, StretchIDs: []int64{102}},
		},
		TrainList: trains(),
		CallList: []model.TrainStationCall{
			call(1, TrainX100, StationG, 1, 0, time.Minute),
			call(2, TrainX100, StationA, 2, 20*time.Minute, 22*time.Minute),
			call(3, TrainX100, StationB, 3, 40*time.Minute, 0),
			call(4, TrainX200, StationG, 1, 0, 10*time.Minute),
			call(5, TrainX200, StationA, 2, 30*time.Minute, 0),
		},
	}
}

// Junction returns G→J (stretch 100), J→A (101) and J→C (102) where J is an
// unsignalled junction. Dispatch stretch 1000 covers G–A, 1001 covers G–C.
func Junction() *topology.StaticProvider {
	j := model.Place{ID: JunctionJ, Kind: model.PlaceOther, Name: "Junction J", ShortCode: "J"}
	return &topology.StaticProvider{
		PlaceList: []model.Place{station(StationG, "G"), station(StationA, "A"), station(StationC, "C"), j},
		StretchList: []model.TrackStretch{
			stretch(100, StationG, JunctionJ, 1001),
			stretch(101, JunctionJ, StationA, 1011),
			stretch(102, JunctionJ, StationC, 1021),
		},
		DispatchList: []model.DispatchStretch{
			{ID: 1000, FromID: StationG, ToID: StationA, StretchIDs: []int64{100, 101}},
			{ID: 1001, FromID: StationG, ToID: StationC, StretchIDs: []int64{100, 102}},
		},
		TrainList: trains(),
		CallList: []model.TrainStationCall{
			call(1, TrainX100, StationG, 1, 0, time.Minute),
			call(2, TrainX100, StationA, 2, 20*time.Minute, 0),
			call(3, TrainX200, StationA, 1, 0, 5*time.Minute),
			call(4, TrainX200, StationG, 2, 25*time.Minute, 0),
		},
	}
}

// Loop returns G→J (100), J→K (101), K→J (102, parallel to 101) and K→A
// (103), with J and K unsignalled. Dispatch stretch 1000 covers G–A over
// 100, 101 and 103.
func Loop() *topology.StaticProvider {
	j := model.Place{ID: JunctionJ, Kind: model.PlaceOther, Name: "Junction J", ShortCode: "J"}
	k := model.Place{ID: JunctionK, Kind: model.PlaceOther, Name: "Junction K", ShortCode: "K"}
	return &topology.StaticProvider{
		PlaceList: []model.Place{station(StationG, "G"), station(StationA, "A"), j, k},
		StretchList: []model.TrackStretch{
			stretch(100, StationG, JunctionJ, 1001),
			stretch(101, JunctionJ, JunctionK, 1011),
			stretch(102, JunctionK, JunctionJ, 1021),
			stretch(103, JunctionK, StationA, 1031),
		},
		DispatchList: []model.DispatchStretch{
			{ID: 1000, FromID: StationG, ToID: StationA, StretchIDs: []int64{100, 101, 103}},
		},
		TrainList: trains()[:1],
		CallList: []model.TrainStationCall{
			call(1, TrainX100, StationG, 1, 0, time.Minute),
			call(2, TrainX100, StationA, 2, 20*time.Minute, 0),
		},
	}
}

// MustTopology builds the topology of p or panics.
func MustTopology(p *topology.StaticProvider) *topology.Topology {
	t, err := topology.Build(p.PlaceList, p.StretchList, p.DispatchList, nil)
	if err != nil {
		panic(err)
	}
	return t
}
