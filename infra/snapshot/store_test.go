package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/trackdispatch/core/factory"
	"github.com/kilianp07/trackdispatch/core/model"
	coresnap "github.com/kilianp07/trackdispatch/core/snapshot"
)

func sample(lastID int64) coresnap.Snapshot {
	at := time.Date(2024, 5, 1, 8, 5, 0, 0, time.UTC)
	return coresnap.New(at, lastID,
		[]coresnap.TrainRecord{{ID: 1, State: model.TrainRunning}},
		[]coresnap.SectionRecord{{
			ID: 7, TrainID: 1, DispatchStretchID: 1000, State: model.DispatchDeparted,
			Signals:   []coresnap.SignalRecord{{PlaceID: 10, State: model.PassagePassed, PassedAt: at}},
			Departure: model.TrainStationCall{ID: 1, TrainID: 1, StationID: 1, Sequence: 1, ActualDeparture: at},
			Updated:   at,
		}},
	)
}

func roundTrip(t *testing.T, store coresnap.Store) {
	t.Helper()
	ctx := context.Background()
	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, sample(7)))
	want := sample(9)
	require.NoError(t, store.Save(ctx, want))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "snapshot.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	roundTrip(t, store)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	store, err := NewFileStore(path)
	require.NoError(t, err)
	_, _, err = store.Load(context.Background())
	require.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore("file:snapshot_test.db?mode=memory&cache=shared", 2)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	roundTrip(t, store)

	require.NoError(t, store.Save(context.Background(), sample(11)))
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRegisteredStores(t *testing.T) {
	store, err := coresnap.NewStore(factory.ModuleConfig{Type: "json", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "s.json")}})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, store)

	store, err = coresnap.NewStore(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "s.db"), "keep": "3"}})
	require.NoError(t, err)
	require.Equal(t, 3, store.(*SQLiteStore).keep)
	require.NoError(t, store.Close())

	_, err = coresnap.NewStore(factory.ModuleConfig{Type: "json"})
	require.Error(t, err)
}
