package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/trackdispatch/core/clock"
)

// ClockConfig selects the time source. The accelerated clock starts at
// Origin (RFC 3339) and advances Factor times faster than the wall clock.
type ClockConfig struct {
	Mode   string  `json:"mode"`
	Origin string  `json:"origin"`
	Factor float64 `json:"factor"`
}

func (c *ClockConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "system"
	}
	if c.Mode == "accelerated" && c.Factor <= 0 {
		c.Factor = 1
	}
}

func (c ClockConfig) Validate() error {
	_, err := c.New()
	return err
}

// New builds the configured clock.
func (c ClockConfig) New() (clock.Clock, error) {
	switch c.Mode {
	case "system":
		return clock.System{}, nil
	case "accelerated":
		origin := time.Now()
		if c.Origin != "" {
			t, err := time.Parse(time.RFC3339, c.Origin)
			if err != nil {
				return nil, fmt.Errorf("origin: %w", err)
			}
			origin = t
		}
		return clock.NewAccelerated(origin, c.Factor), nil
	default:
		return nil, fmt.Errorf("unknown mode %s", c.Mode)
	}
}
