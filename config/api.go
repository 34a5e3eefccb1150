package config

import (
	"fmt"
	"net"
)

// APIConfig configures the HTTP API.
type APIConfig struct {
	Disabled bool   `json:"disabled"`
	Address  string `json:"address"`
	// Token enables bearer authentication when set.
	Token  string `json:"token"`
	Replay bool   `json:"replay"`
}

func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

func (c APIConfig) Validate() error {
	if c.Disabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	return nil
}
