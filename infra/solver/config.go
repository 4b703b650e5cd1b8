package solver

import "fmt"

// Config tunes the branch-and-bound search.
type Config struct {
	// Tolerance is the simplex optimality tolerance on reduced costs.
	Tolerance float64 `json:"tolerance"`
	// IntegralityTolerance is how far from an integer a value may be and still
	// count as integral.
	IntegralityTolerance float64 `json:"integrality_tolerance"`
	// FeasibilityTolerance is the slack allowed when checking indicator
	// constraints against a relaxation solution.
	FeasibilityTolerance float64 `json:"feasibility_tolerance"`
	// MaxNodes stops the search after this many nodes. Zero means the default.
	MaxNodes int `json:"max_nodes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Tolerance == 0 {
		c.Tolerance = 1e-9
	}
	if c.IntegralityTolerance == 0 {
		c.IntegralityTolerance = 1e-6
	}
	if c.FeasibilityTolerance == 0 {
		c.FeasibilityTolerance = 1e-6
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = 100000
	}
}

// Validate checks the tolerances.
func (c Config) Validate() error {
	if c.Tolerance <= 0 || c.IntegralityTolerance <= 0 || c.FeasibilityTolerance <= 0 {
		return fmt.Errorf("solver tolerances must be positive")
	}
	if c.IntegralityTolerance >= 0.5 {
		return fmt.Errorf("integrality_tolerance must be below 0.5")
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("max_nodes must not be negative")
	}
	return nil
}
