package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/trackdispatch/core/events"
	coremetrics "github.com/kilianp07/trackdispatch/core/metrics"
	"github.com/kilianp07/trackdispatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled. The returned channel is closed once
// the collector has unsubscribed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.PersistEvent:
					if r, ok := sink.(coremetrics.SnapshotRecorder); ok {
						_ = r.RecordSnapshot(coremetrics.SnapshotRecord{
							SnapshotID: e.SnapshotID,
							Result:     persistResult(e),
							Duration:   e.Duration,
							Time:       time.Now(),
						})
					}
				}
			}
		}
	}()
	return done
}

func persistResult(e events.PersistEvent) string {
	switch {
	case e.Dropped:
		return "dropped"
	case e.Err != nil:
		return "failed"
	default:
		return "ok"
	}
}
