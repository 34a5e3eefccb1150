package snapshot

import "github.com/kilianp07/trackdispatch/core/factory"

var storeRegistry = factory.NewRegistry[Store]()

func init() {
	_ = RegisterStore("memory", func(map[string]any) (Store, error) { return NewMemoryStore(), nil })
}

// RegisterStore adds a snapshot store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates the store described by cfg. An empty type selects the
// in-memory store.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	return storeRegistry.Create(cfg)
}

// StoreTypes lists the registered store names.
func StoreTypes() []string { return storeRegistry.Types() }
