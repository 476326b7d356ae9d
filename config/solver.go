package config

import "time"

// SolverConfig tunes the search engine and the inactivity monitor.
type SolverConfig struct {
	TimeLimitSeconds         float64 `json:"time_limit_seconds" validate:"gte=0"`
	InactivityTimeoutSeconds float64 `json:"inactivity_timeout_seconds" validate:"gte=0"`
	PollIntervalMS           int     `json:"poll_interval_ms" validate:"gte=0"`
	NodeLimit                int64   `json:"node_limit" validate:"gte=0"`
	// LPBound enables the root LP relaxation bound. Nil means enabled.
	LPBound    *bool `json:"lp_bound"`
	LPMaxCells int   `json:"lp_max_cells" validate:"gte=0"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.LPBound == nil {
		on := true
		c.LPBound = &on
	}
	if c.LPMaxCells == 0 {
		c.LPMaxCells = 250000
	}
}

// TimeLimit returns the wall clock budget. Zero means unlimited.
func (c SolverConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds * float64(time.Second))
}

// InactivityTimeout returns the no-improvement budget. Zero disables it.
func (c SolverConfig) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutSeconds * float64(time.Second))
}

func (c SolverConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// HorizonConfig sets the planning window when scenarios leave it open.
type HorizonConfig struct {
	Ticks     int  `json:"ticks" validate:"gte=0"`
	HoldAtEnd bool `json:"hold_at_end"`
}

func (c *HorizonConfig) SetDefaults() {
	if c.Ticks == 0 {
		c.Ticks = 365
	}
}

// ObjectiveConfig selects what the planner minimizes.
type ObjectiveConfig struct {
	Kind          string `json:"kind" validate:"oneof=unit_movements position_movements"`
	CountBoundary bool   `json:"count_boundary"`
}

func (c *ObjectiveConfig) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "unit_movements"
	}
}

// OutputConfig controls where result tables are written.
type OutputConfig struct {
	Format string `json:"format" validate:"oneof=csv json"`
	Dir    string `json:"dir"`
}

func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Dir == "" {
		c.Dir = "out"
	}
}
