package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/trackdispatch/config"
	"github.com/kilianp07/trackdispatch/core/factory"
	"github.com/kilianp07/trackdispatch/core/model"
)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Topology: factory.ModuleConfig{Type: "yaml", Conf: map[string]any{"path": "../infra/topology/testdata/signal_line.yaml"}},
		Snapshot: config.SnapshotConfig{Store: factory.ModuleConfig{Type: "json", Conf: map[string]any{"path": filepath.Join(dir, "snapshot.json")}}},
		Journal:  config.JournalConfig{Backend: "sqlite", Path: filepath.Join(dir, "journal.db")},
		API:      config.APIConfig{Address: "127.0.0.1:0", Token: "tok"},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func call(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestServiceRunAndRestore(t *testing.T) {
	dir := t.TempDir()
	svc, err := New(context.Background(), testConfig(t, dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Run(ctx) }()

	g, ok := svc.Coordinator.Topology().DispatcherFor(1)
	require.True(t, ok)
	base := "http://" + svc.APIAddr()
	sec := svc.Coordinator.Departures(g)[0].ID

	resp := call(t, http.MethodPost, fmt.Sprintf("%s/api/sections/%d/actions", base, sec), fmt.Sprintf(`{"actor":%d,"action":"manned"}`, g))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	require.Eventually(t, func() bool {
		resp := call(t, http.MethodGet, fmt.Sprintf("%s/api/journal?section_id=%d", base, sec), "")
		defer func() { _ = resp.Body.Close() }()
		var entries []map[string]any
		if json.NewDecoder(resp.Body).Decode(&entries) != nil {
			return false
		}
		return len(entries) == 1 && entries[0]["action"] == "manned"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
	svc.Close()

	restored, err := New(context.Background(), testConfig(t, dir))
	require.NoError(t, err)
	defer restored.Close()
	v, err := restored.Coordinator.Section(sec, 0)
	require.NoError(t, err)
	require.Equal(t, model.TrainManned.String(), v.TrainState)
}

func TestNewFailsOnBadTopology(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Topology.Conf["path"] = "missing.yaml"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
