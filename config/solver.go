package config

import (
	"fmt"
	"time"
)

// SolverConfig selects the optimization backend. Conf is decoded by the
// backend factory.
type SolverConfig struct {
	Backend string `json:"backend"`
	// TimeLimit bounds one solve; zero means no limit.
	TimeLimit time.Duration  `json:"time_limit"`
	Conf      map[string]any `json:"conf"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "bnb"
	}
}

// Validate checks mandatory fields.
func (c SolverConfig) Validate() error {
	if c.TimeLimit < 0 {
		return fmt.Errorf("time_limit must be non-negative")
	}
	return nil
}
