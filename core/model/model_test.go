package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDirectionModePermits(t *testing.T) {
	cases := []struct {
		mode DirectionMode
		dir  Direction
		want bool
	}{
		{TrackBidirectional, Forward, true},
		{TrackBidirectional, Backward, true},
		{TrackForwardOnly, Forward, true},
		{TrackForwardOnly, Backward, false},
		{TrackBackwardOnly, Backward, true},
		{TrackBackwardOnly, Forward, false},
		{TrackClosed, Forward, false},
		{TrackClosed, Backward, false},
	}
	for _, c := range cases {
		if got := c.mode.Permits(c.dir); got != c.want {
			t.Errorf("%s/%s: expected %v got %v", c.mode, c.dir, c.want, got)
		}
	}
}

func TestPlaceCapabilities(t *testing.T) {
	st := Place{Kind: PlaceStation}
	sig := Place{Kind: PlaceSignal, Tracks: 2}
	single := Place{Kind: PlaceSignal, Tracks: 1}
	other := Place{Kind: PlaceOther}
	if !st.IsControlled() || !sig.IsControlled() || other.IsControlled() {
		t.Fatalf("unexpected controlled flags")
	}
	if !other.CascadesOccupancy() || sig.CascadesOccupancy() {
		t.Fatalf("only other places cascade")
	}
	if !sig.CanHostMeet() || single.CanHostMeet() || other.CanHostMeet() {
		t.Fatalf("unexpected meet capability")
	}
}

func TestStretchEnds(t *testing.T) {
	s := TrackStretch{ID: 1, FromID: 10, ToID: 20}
	if s.FarEnd(Forward) != 20 || s.FarEnd(Backward) != 10 {
		t.Fatalf("far end mismatch")
	}
	if s.NearEnd(Forward) != 10 {
		t.Fatalf("near end mismatch")
	}
	if s.Leaving(20) != Backward || s.Leaving(10) != Forward {
		t.Fatalf("leaving mismatch")
	}
}

func TestCallDelay(t *testing.T) {
	sched := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	c := TrainStationCall{ScheduledDeparture: sched}
	if d := c.DepartureDelay(sched.Add(-time.Minute)); d != 0 {
		t.Fatalf("expected no delay before schedule got %v", d)
	}
	if d := c.DepartureDelay(sched.Add(4 * time.Minute)); d != 4*time.Minute {
		t.Fatalf("expected pending delay got %v", d)
	}
	c.ActualDeparture = sched.Add(2 * time.Minute)
	if d := c.DepartureDelay(sched.Add(time.Hour)); d != 2*time.Minute {
		t.Fatalf("observed time must win got %v", d)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, k := range []PlaceKind{PlaceStation, PlaceSignal, PlaceOther} {
		got, err := ParsePlaceKind(k.String())
		if err != nil || got != k {
			t.Fatalf("place kind %s: %v %v", k, got, err)
		}
	}
	for _, m := range []DirectionMode{TrackBidirectional, TrackForwardOnly, TrackBackwardOnly, TrackClosed} {
		got, err := ParseDirectionMode(m.String())
		if err != nil || got != m {
			t.Fatalf("mode %s: %v %v", m, got, err)
		}
	}
}

func TestStatesEncodeByName(t *testing.T) {
	type record struct {
		Train   TrainState        `json:"train"`
		Section DispatchState     `json:"section"`
		Passage BlockPassageState `json:"passage"`
	}
	b, err := json.Marshal(record{Train: TrainRunning, Section: DispatchDeparted, Passage: PassagePassed})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"train":"running","section":"departed","passage":"passed"}`; string(b) != want {
		t.Fatalf("expected %s got %s", want, b)
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Train != TrainRunning || r.Section != DispatchDeparted || r.Passage != PassagePassed {
		t.Fatalf("decoded %+v", r)
	}
	err = json.Unmarshal([]byte(`{"train":"parked"}`), &r)
	if err == nil || !strings.Contains(err.Error(), "parked") {
		t.Fatalf("expected unknown state error, got %v", err)
	}
}
