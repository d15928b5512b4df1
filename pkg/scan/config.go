// Package scan reconstructs a coarse profile of the ground in front of the
// robot, either by sweeping one ranging sensor across several head positions
// or by polling a fixed sensor array, and classifies it as clear, obstacle or
// cliff.
package scan

// Position is one head position of a sweep: how long the turn motor runs to
// get there (sign gives direction) and roughly which angle that is.
type Position struct {
	DurationMS float64 `json:"duration_ms"`
	Degrees    float64 `json:"deg"`
}

// Config holds all scan parameters. It is copied at construction and never
// changed afterwards.
type Config struct {
	// Sweep positions. In array mode there must be one distinct angle per
	// sensor.
	Positions []Position `json:"positions"`

	// BiasFactor compensates a direction bias of the turn motor: positive
	// durations are scaled by (1+BiasFactor), the others by (1-BiasFactor).
	BiasFactor float64 `json:"bias_factor"`

	// ConeDeg is the angular width of one reading (used for display).
	ConeDeg float64 `json:"cone_deg"`

	ObstacleCM float64 `json:"obstacle_cm"` // closer is an obstacle
	CliffCM    float64 `json:"cliff_cm"`    // farther is a cliff

	// SmoothWindow smooths array readings per sensor when >= 2.
	SmoothWindow int `json:"smooth_window"`

	ScanSpeed  int     `json:"scan_speed"`
	MinCycleMS float64 `json:"min_cycle_ms"` // array mode returns no sooner

	// Per-cycle head bias sources; at most one may be enabled.
	FindLight           bool    `json:"find_light"`
	WalkStraight        bool    `json:"walk_straight"`
	HeadAdjustFactor    float64 `json:"head_adjust_factor"`
	HeadAdjustThreshold float64 `json:"head_adjust_threshold_deg"`
}

// DefaultConfig returns the left-center-right-center sweep of the orange
// HexBug.
func DefaultConfig() Config {
	return Config{
		Positions: []Position{
			{DurationMS: -300, Degrees: -35},
			{DurationMS: 300, Degrees: 0},
			{DurationMS: 300, Degrees: 35},
			{DurationMS: -300, Degrees: 0},
		},
		BiasFactor:          0,
		ConeDeg:             30,
		ObstacleCM:          9,
		CliffCM:             25,
		SmoothWindow:        0,
		ScanSpeed:           40,
		MinCycleMS:          200, // a third of the back-up delay
		HeadAdjustFactor:    -1,
		HeadAdjustThreshold: 5,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	switch {
	case len(c.Positions) == 0:
		return &ConfigError{Field: "positions", Reason: "at least one scan position is required"}
	case c.ObstacleCM <= 0:
		return &ConfigError{Field: "obstacle_cm", Reason: "must be positive"}
	case c.CliffCM <= c.ObstacleCM:
		return &ConfigError{Field: "cliff_cm", Reason: "must exceed obstacle_cm"}
	case c.SmoothWindow < 0:
		return &ConfigError{Field: "smooth_window", Reason: "must not be negative"}
	case c.BiasFactor <= -1 || c.BiasFactor >= 1:
		return &ConfigError{Field: "bias_factor", Reason: "must lie in (-1, 1)"}
	case c.MinCycleMS < 0:
		return &ConfigError{Field: "min_cycle_ms", Reason: "must not be negative"}
	case c.FindLight && c.WalkStraight:
		return &ConfigError{Field: "find_light", Reason: "find_light and walk_straight are mutually exclusive"}
	}
	return nil
}
