package journal

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:journal_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 8, 1, 0, 0, time.UTC)
	if err := store.Append(ctx, Entry{Time: at, SectionID: 7, TrainID: 1, Train: "X100", Action: "depart", Actor: 3, Outcome: "ok", State: "departed"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, Entry{Time: at, SectionID: 8, TrainID: 2, Action: "depart", Outcome: "CAPACITY_UNAVAILABLE"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(ctx, Query{TrainID: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if !out[0].Time.Equal(at) || out[0].Train != "X100" || out[0].State != "departed" {
		t.Fatalf("unexpected entry %+v", out[0])
	}
}
