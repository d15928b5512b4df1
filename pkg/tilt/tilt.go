// Package tilt watches the smoothed pitch and roll of the robot and raises
// a safety interlock when it is about to tip over.
package tilt

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/teslashibe/go-hexbug/pkg/filter"
	"github.com/teslashibe/go-hexbug/pkg/robot"
)

// ErrMaxAngle is returned for a non-positive tilt limit.
var ErrMaxAngle = errors.New("tilt: max angle must be positive")

// Config holds the interlock parameters.
type Config struct {
	MaxAngleDeg float64 `json:"max_angle_deg"`
	Window      int     `json:"window"`
}

// DefaultConfig trips at 25 degrees over the last 8 samples.
func DefaultConfig() Config {
	return Config{MaxAngleDeg: 25, Window: 8}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxAngleDeg <= 0 {
		return ErrMaxAngle
	}
	if c.Window < 1 {
		return filter.ErrWindowSize
	}
	return nil
}

// Monitor owns one filter each for pitch and roll. Update is called from a
// single goroutine; Tilted may be read from any.
type Monitor struct {
	max    float64
	pitch  *filter.Temporal
	roll   *filter.Temporal
	tilted atomic.Bool
}

// New returns a monitor with the interlock cleared.
func New(cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Monitor{
		max:   cfg.MaxAngleDeg,
		pitch: filter.MustTemporal(cfg.Window),
		roll:  filter.MustTemporal(cfg.Window),
	}, nil
}

// Update feeds one orientation sample and returns the recomputed interlock.
// Nothing is latched: the flag clears as soon as the smoothed angles drop
// back under the limit.
func (m *Monitor) Update(o robot.Orientation) bool {
	p := m.pitch.Push(o.Pitch)
	r := m.roll.Push(o.Roll)
	tilted := math.Abs(p) > m.max || math.Abs(r) > m.max
	m.tilted.Store(tilted)
	return tilted
}

// Tilted returns the interlock as of the last Update.
func (m *Monitor) Tilted() bool {
	return m.tilted.Load()
}

// Smoothed returns the current filtered pitch and roll.
func (m *Monitor) Smoothed() (pitch, roll float64) {
	return m.pitch.Mean(), m.roll.Mean()
}
