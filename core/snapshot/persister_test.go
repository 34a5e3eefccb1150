package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
)

type blockingStore struct {
	MemoryStore
	release chan struct{}
	started chan struct{}
	fail    error
}

func (b *blockingStore) Save(ctx context.Context, s Snapshot) error {
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.release != nil {
		<-b.release
	}
	if b.fail != nil {
		return b.fail
	}
	return b.MemoryStore.Save(ctx, s)
}

func TestPersisterDropsOverlappingSaves(t *testing.T) {
	st := &blockingStore{release: make(chan struct{}), started: make(chan struct{}, 1)}
	p, err := NewPersister(st, nil, time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var mu sync.Mutex
	dropped := 0
	p.OnResult(func(r Result) {
		if r.Dropped {
			mu.Lock()
			dropped++
			mu.Unlock()
		}
	})
	if !p.Trigger(New(time.Now(), 1, nil, nil)) {
		t.Fatalf("first trigger must start")
	}
	<-st.started
	for i := 0; i < 3; i++ {
		if p.Trigger(New(time.Now(), 1, nil, nil)) {
			t.Fatalf("trigger %d must be dropped while a save runs", i)
		}
	}
	close(st.release)
	p.Wait()
	if st.Saves() != 1 {
		t.Fatalf("expected one save, got %d", st.Saves())
	}
	mu.Lock()
	defer mu.Unlock()
	if dropped != 3 {
		t.Fatalf("expected 3 dropped, got %d", dropped)
	}
}

func TestPersisterReportsFailure(t *testing.T) {
	st := &blockingStore{fail: errors.New("disk full")}
	p, _ := NewPersister(st, nil, time.Second)
	p.Trigger(New(time.Now(), 1, nil, nil))
	p.Wait()
	err := p.TakeError()
	if !apperrors.IsKind(err, apperrors.KindPersistenceFailure) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if p.TakeError() != nil {
		t.Fatalf("error must be cleared once taken")
	}
	if err := p.Save(context.Background(), New(time.Now(), 1, nil, nil)); err == nil {
		t.Fatalf("expected sync save error")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	st, err := NewStore(factoryConfig(""))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, ok, err := st.Load(ctx); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	s := New(time.Unix(100, 0).UTC(), 42, []TrainRecord{{ID: 1}}, nil)
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := st.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.ID != s.ID || got.LastID != 42 || len(got.Trains) != 1 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}
