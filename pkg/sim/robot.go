package sim

import (
	"github.com/teslashibe/go-hexbug/pkg/robot"
)

// Robot is a complete simulated hexbug.
type Robot struct {
	Walk      *Motor
	Turn      *Motor
	Servo     *Servo
	Compass   *Compass
	Indicator *Indicator
	ADC       *ADC
	ToF       robot.RangingSensor
	Sleeper   *Sleeper
	Battery   Battery
	Camera    *Camera
}

// NewRobot assembles a simulated robot. A nil tof leaves the robot with
// analog IR sensors only; clk paces naps.
func NewRobot(clk robot.Clock, tof robot.RangingSensor) *Robot {
	return &Robot{
		Walk:      &Motor{},
		Turn:      &Motor{},
		Servo:     &Servo{},
		Compass:   &Compass{},
		Indicator: &Indicator{},
		ADC:       NewADC(),
		ToF:       tof,
		Sleeper:   NewSleeper(clk),
		Battery:   3.9,
	}
}

// Hardware exposes the simulated parts through the robot interfaces.
func (r *Robot) Hardware() robot.Hardware {
	hw := robot.Hardware{
		WalkMotor: r.Walk,
		TurnMotor: r.Turn,
		Servo:     r.Servo,
		Compass:   r.Compass,
		Indicator: r.Indicator,
		ADC:       r.ADC,
		ToF:       r.ToF,
		Battery:   r.Battery,
		Sleeper:   r.Sleeper,
	}
	if r.Camera != nil {
		hw.Camera = r.Camera
	}
	return hw
}

var (
	_ robot.Motor         = (*Motor)(nil)
	_ robot.Servo         = (*Servo)(nil)
	_ robot.Compass       = (*Compass)(nil)
	_ robot.Indicator     = (*Indicator)(nil)
	_ robot.ADC           = (*ADC)(nil)
	_ robot.Battery       = Battery(0)
	_ robot.Sleeper       = (*Sleeper)(nil)
	_ robot.IRCamera      = Camera{}
	_ robot.RangingSensor = (*Script)(nil)
	_ robot.RangingSensor = (*Ground)(nil)
	_ robot.Clock         = (*Clock)(nil)
)
