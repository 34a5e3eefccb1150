package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/trackdispatch/core/events"
	coremetrics "github.com/kilianp07/trackdispatch/core/metrics"
	"github.com/kilianp07/trackdispatch/internal/eventbus"
)

type snapshotSink struct {
	coremetrics.NopSink
	mu   sync.Mutex
	recs []coremetrics.SnapshotRecord
}

func (s *snapshotSink) RecordSnapshot(r coremetrics.SnapshotRecord) error {
	s.mu.Lock()
	s.recs = append(s.recs, r)
	s.mu.Unlock()
	return nil
}

func (s *snapshotSink) results() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.recs {
		out = append(out, r.Result)
	}
	return out
}

func TestEventCollectorRecordsSnapshots(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sink := &snapshotSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink)

	bus.Publish(events.PersistEvent{SnapshotID: "a"})
	bus.Publish(events.PersistEvent{SnapshotID: "b", Dropped: true})
	bus.Publish(events.PersistEvent{SnapshotID: "c", Err: errors.New("disk full")})
	bus.Publish(events.SectionEvent{SectionID: 1})

	deadline := time.Now().Add(time.Second)
	for len(sink.results()) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := sink.results()
	if len(got) != 3 || got[0] != "ok" || got[1] != "dropped" || got[2] != "failed" {
		t.Fatalf("unexpected results %v", got)
	}
	cancel()
	<-done
}

func TestEventCollectorNilBus(t *testing.T) {
	<-StartEventCollector(context.Background(), nil, coremetrics.NopSink{})
}
