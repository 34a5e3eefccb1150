package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/trackdispatch/core/factory"
)

// SnapshotConfig selects the snapshot store.
type SnapshotConfig struct {
	Store factory.ModuleConfig `json:"store"`
	// Timeout bounds a single background save.
	Timeout time.Duration `json:"timeout"`
}

func (c *SnapshotConfig) SetDefaults() {
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

func (c SnapshotConfig) Validate() error {
	switch c.Store.Type {
	case "json", "sqlite":
		if c.Store.Conf["path"] == nil {
			return fmt.Errorf("%s store: conf.path is required", c.Store.Type)
		}
	}
	return nil
}
