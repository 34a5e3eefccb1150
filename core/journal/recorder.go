package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/trackdispatch/core/events"
	"github.com/kilianp07/trackdispatch/core/logger"
	"github.com/kilianp07/trackdispatch/internal/eventbus"
)

// Options selects and configures a journal backend.
type Options struct {
	Backend    string // "memory", "jsonl", "sqlite"
	Path       string
	MaxSizeMB  int // enables rotation for jsonl when > 0
	MaxBackups int
	MaxAgeDays int
}

// Open creates the store described by o.
func Open(o Options) (Store, error) {
	switch o.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "jsonl":
		if o.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(o.Path, o.MaxSizeMB, o.MaxBackups, o.MaxAgeDays)
		}
		return NewJSONLStore(o.Path)
	case "sqlite":
		return NewSQLiteStore(o.Path)
	default:
		return nil, fmt.Errorf("unknown journal backend %q", o.Backend)
	}
}

// StartRecorder subscribes to the event bus and appends an entry for every
// section event and refused action. It stops when ctx is canceled or the bus
// is closed; the returned channel is closed once it has.
func StartRecorder(ctx context.Context, bus eventbus.EventBus, store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.Nop{}
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
				e, ok := entryFor(ev)
				if !ok {
					continue
				}
				if err := store.Append(ctx, e); err != nil {
					log.Warnf("journal append for section %d: %v", e.SectionID, err)
				}
			}
		}
	}()
	return done
}

func entryFor(ev eventbus.Event) (Entry, bool) {
	switch e := ev.(type) {
	case events.SectionEvent:
		return Entry{
			Time: e.At, SectionID: e.SectionID, TrainID: e.TrainID, Train: e.Train,
			Action: e.Action, Actor: e.Actor, Outcome: "ok", State: e.StateName,
		}, true
	case events.ActionFailedEvent:
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return Entry{
			Time: e.At, SectionID: e.SectionID, Action: e.Action, Actor: e.Actor,
			Outcome: e.Kind, Message: msg,
		}, true
	default:
		return Entry{}, false
	}
}

// MemoryStore keeps entries in memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Append(ctx context.Context, e Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Entry
	for _, e := range m.entries {
		if q.Match(e) {
			res = append(res, e)
		}
	}
	return res, nil
}

func (m *MemoryStore) Close() error { return nil }

func unixNano(ts int64) time.Time { return time.Unix(0, ts).UTC() }
