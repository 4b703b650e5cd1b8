package lotsizing

import "fmt"

// SetupCostMode selects which setup indicator carries the remanufacturing
// setup cost in the objective.
type SetupCostMode string

const (
	// SetupCostBaseline charges the remanufacturing setup cost on the
	// production setup indicator Gamma. Solutions match the historical
	// formulation.
	SetupCostBaseline SetupCostMode = "baseline"
	// SetupCostCorrected charges it on the remanufacturing indicator Gamma_r.
	SetupCostCorrected SetupCostMode = "corrected"
)

// Linkage selects how setup indicators are tied to quantities.
type Linkage string

const (
	// LinkageIndicator emits native indicator constraints Gamma = 0 ⇒ X = 0.
	LinkageIndicator Linkage = "indicator"
	// LinkageBigM emits X <= M·Gamma with M derived from capacity and demand.
	LinkageBigM Linkage = "big_m"
)

// Config holds model formulation settings.
type Config struct {
	SetupCostMode SetupCostMode `json:"setup_cost_mode"`
	Linkage       Linkage       `json:"linkage"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SetupCostMode == "" {
		c.SetupCostMode = SetupCostBaseline
	}
	if c.Linkage == "" {
		c.Linkage = LinkageIndicator
	}
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.SetupCostMode {
	case SetupCostBaseline, SetupCostCorrected:
	default:
		return fmt.Errorf("unknown setup_cost_mode %q", c.SetupCostMode)
	}
	switch c.Linkage {
	case LinkageIndicator, LinkageBigM:
	default:
		return fmt.Errorf("unknown linkage %q", c.Linkage)
	}
	return nil
}
