package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/trackdispatch/core/metrics"
)

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bodyRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, strings.TrimSpace(string(data)))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordAction(t *testing.T) {
	var rec bodyRecorder
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	err := sink.RecordAction(coremetrics.ActionRecord{
		SectionID: 4, Train: "X100", Action: "accept", Actor: 2, Outcome: "ok",
		State: "accepted", Duration: 1500 * time.Microsecond, Time: now,
	})
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("section_action").
		AddTag("action", "accept").
		AddTag("outcome", "ok").
		AddTag("train", "X100").
		AddTag("component", "coordinator").
		AddField("section_id", int64(4)).
		AddField("actor", int64(2)).
		AddField("duration_ms", 1.5).
		SetTime(now).
		AddField("state", "accepted")
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_RecordSnapshotAndOccupancy(t *testing.T) {
	var rec bodyRecorder
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordOccupancy(coremetrics.OccupancySample{OccupiedTracks: 2, Time: now}); err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	if err := sink.RecordSnapshot(coremetrics.SnapshotRecord{SnapshotID: "s1", Result: "failed", Time: now}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(rec.bodies) != 2 {
		t.Fatalf("expected 2 writes got %d", len(rec.bodies))
	}
	if !strings.HasPrefix(rec.bodies[0], "occupancy,component=occupancy occupied_tracks=2i") {
		t.Errorf("unexpected occupancy line %q", rec.bodies[0])
	}
	for _, part := range []string{"snapshot,", "result=failed", "snapshot_id=s1", "component=persister", "duration_ms=0"} {
		if !strings.Contains(rec.bodies[1], part) {
			t.Errorf("snapshot line %q lacks %q", rec.bodies[1], part)
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
