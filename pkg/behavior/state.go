package behavior

import (
	"fmt"

	"github.com/teslashibe/go-hexbug/pkg/robot"
)

// State is the robot's top-level mode. The numeric values are part of the
// telemetry payload.
type State int32

const (
	Idle State = iota
	Walking
	Looking
	OnHold
	Obstacle
	Cliff
	WakingUp
)

var stateNames = [...]string{
	Idle:     "idle",
	Walking:  "walking",
	Looking:  "looking",
	OnHold:   "on_hold",
	Obstacle: "obstacle",
	Cliff:    "cliff",
	WakingUp: "waking_up",
}

// Indicator color per state.
var stateColors = [...]robot.Color{
	Idle:     {R: 10, G: 10, B: 10},
	Walking:  {R: 20, G: 70, B: 0},
	Looking:  {R: 40, G: 30, B: 0},
	OnHold:   {R: 20, G: 0, B: 50},
	Obstacle: {R: 90, G: 30, B: 0},
	Cliff:    {R: 90, G: 0, B: 30},
	WakingUp: {R: 10, G: 60, B: 60},
}

func (s State) valid() bool {
	return s >= Idle && s <= WakingUp
}

func (s State) String() string {
	if !s.valid() {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Color returns the indicator color shown while in s.
func (s State) Color() robot.Color {
	if !s.valid() {
		return stateColors[Idle]
	}
	return stateColors[s]
}
