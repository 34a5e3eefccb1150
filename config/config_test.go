package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `topology:
  type: yaml
  conf:
    path: network.yaml
snapshot:
  store:
    type: sqlite
    conf:
      path: state.db
      keep: 5
  timeout: 2s
journal:
  backend: jsonl
  path: journal.jsonl
  max_size_mb: 10
log:
  level: debug
  format: console
clock:
  mode: accelerated
  origin: "2024-05-01T08:00:00Z"
  factor: 60
api:
  address: ":9000"
  token: secret
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic_prefix: "dispatch"
  qos:
    section: 1
metrics:
  prometheus_port: "9090"
  sinks:
    - type: "nop"
sentry:
  dsn: "https://key@example.com/1"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"topology.type", cfg.Topology.Type, "yaml"},
		{"topology.path", cfg.Topology.Conf["path"], "network.yaml"},
		{"snapshot.type", cfg.Snapshot.Store.Type, "sqlite"},
		{"snapshot.timeout", cfg.Snapshot.Timeout, 2 * time.Second},
		{"journal.backend", cfg.Journal.Options().Backend, "jsonl"},
		{"journal.max_size_mb", cfg.Journal.Options().MaxSizeMB, 10},
		{"log.level", cfg.Log.Level, "debug"},
		{"clock.factor", cfg.Clock.Factor, 60.0},
		{"api.address", cfg.API.Address, ":9000"},
		{"api.token", cfg.API.Token, "secret"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "dispatch"},
		{"qos.section", cfg.MQTT.QoS["section"], byte(1)},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, "9090"},
		{"sentry.dsn", cfg.Sentry.DSN, "https://key@example.com/1"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	clk, err := cfg.Clock.New()
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	if clk.Now().Before(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("accelerated clock before origin: %v", clk.Now())
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{"topology": {"conf": {"path": "network.yaml"}}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Topology.Type != "yaml" || cfg.Snapshot.Store.Type != "memory" || cfg.Journal.Backend != "memory" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Snapshot.Timeout != 5*time.Second || cfg.Log.Level != "info" || cfg.Clock.Mode != "system" || cfg.API.Address != ":8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", "topology:\n  conf:\n    path: network.yaml\n")
	t.Setenv("K_API__ADDRESS", "127.0.0.1:7000")
	t.Setenv("K_LOG__LEVEL", "warn")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.API.Address != "127.0.0.1:7000" || cfg.Log.Level != "warn" {
		t.Fatalf("env override not applied: %+v %+v", cfg.API, cfg.Log)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"no topology path": "log:\n  level: info\n",
		"log level":        "topology:\n  conf:\n    path: n.yaml\nlog:\n  level: loud\n",
		"journal backend":  "topology:\n  conf:\n    path: n.yaml\njournal:\n  backend: kafka\n",
		"clock mode":       "topology:\n  conf:\n    path: n.yaml\nclock:\n  mode: sundial\n",
		"clock origin":     "topology:\n  conf:\n    path: n.yaml\nclock:\n  mode: accelerated\n  origin: noon\n",
		"snapshot path":    "topology:\n  conf:\n    path: n.yaml\nsnapshot:\n  store:\n    type: json\n",
		"api address":      "topology:\n  conf:\n    path: n.yaml\napi:\n  address: nowhere\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.yaml", data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
