package factory

import (
	"testing"
	"time"
)

type store struct {
	Path     string
	Interval time.Duration
	Retries  int
}

type storeConf struct {
	Path     string        `json:"path"`
	Interval time.Duration `json:"interval"`
	Retries  int           `json:"retries"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*store]()
	if err := reg.Register("file", func(conf map[string]any) (*store, error) {
		var c storeConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &store{Path: c.Path, Interval: c.Interval, Retries: c.Retries}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "file", Conf: map[string]any{
		"path": "state.json", "interval": "2s", "retries": "3",
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Path != "state.json" || inst.Interval != 2*time.Second || inst.Retries != 3 {
		t.Fatalf("unexpected decode result %+v", inst)
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "z"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	if got := reg.Types(); len(got) != 1 || got[0] != "x" {
		t.Fatalf("unexpected types %v", got)
	}
}
