package scan

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-hexbug/pkg/filter"
	"github.com/teslashibe/go-hexbug/pkg/robot"
)

// Class is the outcome of one scan.
type Class int

const (
	None Class = iota
	Obstacle
	Cliff
)

func (c Class) String() string {
	switch c {
	case None:
		return "none"
	case Obstacle:
		return "obstacle"
	case Cliff:
		return "cliff"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Code returns the numeric code used in telemetry: -1 obstacle, 1 cliff,
// 0 clear.
func (c Class) Code() int {
	switch c {
	case Obstacle:
		return -1
	case Cliff:
		return 1
	}
	return 0
}

// Classify combines the accumulated flags. A cliff wins over an obstacle.
func Classify(obstacle, cliff bool) Class {
	switch {
	case cliff:
		return Cliff
	case obstacle:
		return Obstacle
	}
	return None
}

// BiasInput carries the per-cycle values the head bias is derived from.
type BiasInput struct {
	LightDiff     float64 // smoothed right minus left photodiode
	Heading       float64
	TargetHeading float64
}

// Bias returns the head bias in milliseconds of turn-motor time for this
// cycle. Light seeking steers against the light differential; walking
// straight corrects the heading error once it exceeds the threshold.
func (c Config) Bias(in BiasInput) float64 {
	switch {
	case c.FindLight:
		return -in.LightDiff
	case c.WalkStraight:
		dh := HeadingError(in.Heading, in.TargetHeading)
		if math.Abs(dh) > c.HeadAdjustThreshold {
			return dh * c.HeadAdjustFactor
		}
	}
	return 0
}

// HeadingError returns current-target wrapped into [-180, 180].
func HeadingError(current, target float64) float64 {
	return math.Remainder(current-target, 360)
}

// Result is what one scan produced.
type Result struct {
	Class     Class   `json:"class"`
	Obstacle  bool    `json:"obstacle"`
	Cliff     bool    `json:"cliff"`
	Distances []int   `json:"distance_cm"`
	Bias      float64 `json:"bias_ms"`
	// Aborted is set when the interlock or ctx stopped the sweep early;
	// the flags then only cover the positions that were read.
	Aborted bool `json:"aborted,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterlock makes the sweep stop before the next position whenever
// tripped returns true.
func WithInterlock(tripped func() bool) Option {
	return func(e *Engine) { e.interlock = tripped }
}

// Engine runs obstacle and cliff scans. Scan must only be called from the
// foreground loop; Last may be read from anywhere.
type Engine struct {
	cfg       Config
	ranging   robot.Ranging
	turn      robot.Motor
	clk       robot.Clock
	interlock func() bool

	durations []float64 // per-position drive time, motor bias applied
	profile   *Profile
	filters   []*filter.Temporal

	lastBias float64
	last     atomic.Pointer[Result]
}

// New builds an engine for the probed sensor complement.
func New(cfg Config, ranging robot.Ranging, turn robot.Motor, clk robot.Clock, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(ranging.Sensors) == 0 {
		return nil, ErrNoSensors
	}

	cfg.Positions = append([]Position(nil), cfg.Positions...)
	e := &Engine{
		cfg:     cfg,
		ranging: ranging,
		turn:    turn,
		clk:     clk,
		profile: NewProfile(cfg.Positions),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.durations = make([]float64, len(cfg.Positions))
	for i, pos := range cfg.Positions {
		f := 1 - cfg.BiasFactor
		if pos.DurationMS > 0 {
			f = 1 + cfg.BiasFactor
		}
		e.durations[i] = pos.DurationMS * f
	}

	if ranging.Array() {
		if n := len(ranging.Sensors); e.profile.Len() != n {
			return nil, &ConfigError{
				Field:  "positions",
				Reason: fmt.Sprintf("array mode needs one distinct angle per sensor, got %d angles for %d sensors", e.profile.Len(), n),
			}
		}
		if cfg.SmoothWindow >= 2 {
			e.filters = make([]*filter.Temporal, len(ranging.Sensors))
			for i := range e.filters {
				e.filters[i] = filter.MustTemporal(cfg.SmoothWindow)
			}
		}
	}
	return e, nil
}

// Scan samples the ground once and classifies it.
func (e *Engine) Scan(ctx context.Context, in BiasInput) Result {
	bias := e.cfg.Bias(in)

	var obstacle, cliff, aborted bool
	check := func(cm int) {
		obstacle = obstacle || float64(cm) < e.cfg.ObstacleCM
		cliff = cliff || float64(cm) > e.cfg.CliffCM
	}

	if e.ranging.Array() {
		aborted = e.interrupted(ctx)
		if aborted {
			// Aborted scans keep the cycle pace.
			e.spin(e.cfg.MinCycleMS)
		} else {
			for i, s := range e.ranging.Sensors {
				cm := int(s.RangeCM())
				if e.filters != nil {
					cm = int(e.filters[i].Push(float64(cm)))
				}
				e.profile.Set(i, cm)
				check(cm)
			}
			e.nudge(bias)
		}
	} else {
		sensor := e.ranging.Sensors[0]
		last := len(e.durations) - 1
		for i, d := range e.durations {
			if e.interrupted(ctx) {
				aborted = true
				break
			}
			// Only the move back to the final position carries the bias.
			b := 0.0
			if i == last {
				b = bias
			}
			e.turn.SetSpeed(e.speedFor(d))
			e.spin(math.Abs(d) + b)
			e.turn.SetSpeed(0)

			cm := int(sensor.RangeCM())
			e.profile.Set(e.profile.Slot(i), cm)
			check(cm)
		}
	}

	e.lastBias = bias
	res := Result{
		Class:     Classify(obstacle, cliff),
		Obstacle:  obstacle,
		Cliff:     cliff,
		Distances: e.profile.Values(),
		Bias:      bias,
		Aborted:   aborted,
	}
	e.last.Store(&res)
	return res
}

// nudge turns the head slightly to absorb the motor bias and the cycle
// bias, then pads so that array scans always take at least MinCycleMS.
func (e *Engine) nudge(bias float64) {
	td := math.Abs(e.cfg.BiasFactor*200) + bias
	if td > 0 {
		e.turn.SetSpeed(e.speedFor(e.cfg.BiasFactor))
		e.spin(td)
		e.turn.SetSpeed(0)
	}
	if pad := e.cfg.MinCycleMS - td; pad > 0 {
		e.spin(pad)
	}
}

// speedFor maps a signed duration to a turn speed; the turn motor is wired
// so that negative durations need positive speed.
func (e *Engine) speedFor(d float64) int {
	if d < 0 {
		return e.cfg.ScanSpeed
	}
	return -e.cfg.ScanSpeed
}

func (e *Engine) spin(ms float64) {
	if ms <= 0 {
		return
	}
	e.clk.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

func (e *Engine) interrupted(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return e.interlock != nil && e.interlock()
}

// LastBias returns the bias used by the most recent scan, for the caller's
// next turn decision.
func (e *Engine) LastBias() float64 {
	return e.lastBias
}

// Last returns the most recent result, or nil before the first scan.
func (e *Engine) Last() *Result {
	return e.last.Load()
}

// Angles returns the distinct profile angles in slot order.
func (e *Engine) Angles() []float64 {
	return e.profile.Angles()
}

// ProfileLen returns the number of distinct scan angles.
func (e *Engine) ProfileLen() int {
	return e.profile.Len()
}

// Kind returns the sensor complement in use.
func (e *Engine) Kind() robot.RangingKind {
	return e.ranging.Kind
}
