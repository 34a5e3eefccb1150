package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	e := Entry{Time: time.Now(), SectionID: 1, Action: "depart", Outcome: "ok"}
	for i := 0; i < 100; i++ {
		if err := store.Append(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(context.Background(), Query{SectionID: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(out))
	}
}

func TestJSONLStore_Query(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	now := time.Now()
	_ = store.Append(ctx, Entry{Time: now, SectionID: 1, Action: "request", Outcome: "ok"})
	_ = store.Append(ctx, Entry{Time: now, SectionID: 2, Action: "depart", Outcome: "CAPACITY_UNAVAILABLE"})
	out, err := store.Query(ctx, Query{Action: "depart"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].SectionID != 2 {
		t.Fatalf("unexpected entries %+v", out)
	}
}
