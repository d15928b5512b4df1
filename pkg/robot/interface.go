// Package robot defines the hardware collaborators the hexbug behavior core
// drives, plus the small amount of hardware-facing logic that is shared by
// every board: Sharp IR range conversion, ranging sensor selection, servo
// pulse mapping and the background timer.
//
// The interfaces are deliberately small. Consumers should depend only on the
// ones they actually use. Actuator commands are fire-and-forget; none of
// them return errors.
package robot

import "time"

// Motor is a DC motor driven with a signed speed (roughly -100..100).
type Motor interface {
	SetSpeed(speed int)
}

// Servo positions the arm holding the ranging sensor.
type Servo interface {
	SetAngle(degrees float64)
	// Off removes power so the servo stops holding its position.
	Off()
}

// RangingSensor measures the distance to the ground ahead.
type RangingSensor interface {
	RangeCM() float64
	Ready() bool
	Name() string
}

// Orientation is one compass sample in degrees.
type Orientation struct {
	Heading float64 `json:"heading_deg"`
	Pitch   float64 `json:"pitch_deg"`
	Roll    float64 `json:"roll_deg"`
}

// Compass provides heading and tilt.
type Compass interface {
	Heading() float64
	HeadingPitchRoll() Orientation
}

// Color is an RGB triple for the status indicator.
type Color struct {
	R, G, B uint8
}

// Indicator is the status LED (a NeoPixel on the robotling board).
type Indicator interface {
	// Pulse starts (or keeps) pulsing in the given color.
	Pulse(c Color)
	// Dim scales brightness, fraction in [0, 1].
	Dim(fraction float64)
}

// ADCChannels is the channel count of the on-board A/D converter.
const ADCChannels = 8

// ADC is the shared multiplexed analog input bus.
type ADC interface {
	// Update refreshes the buffered readings. Only the background timer
	// calls it, so the bus has a single reader at a time.
	Update()
	// Data returns the buffered raw counts, one per channel.
	Data() []int
	// EnableChannel adds a channel to the set sampled by Update.
	EnableChannel(ch int)
	Ready() bool
}

// Battery reports the supply voltage.
type Battery interface {
	Volts() float64
}

// Sleeper suspends the whole board for a low-power rest.
type Sleeper interface {
	SleepLightly(d time.Duration)
}

// IRCamera is an optional 8x8 thermal camera.
type IRCamera interface {
	Pixels() [64]int
}

// Hardware bundles the collaborators of one robot. ToF, Battery, Sleeper and
// Camera are optional and may be nil.
type Hardware struct {
	WalkMotor Motor
	TurnMotor Motor
	Servo     Servo
	Compass   Compass
	Indicator Indicator
	ADC       ADC
	ToF       RangingSensor
	Battery   Battery
	Sleeper   Sleeper
	Camera    IRCamera
}

// Clock is the time source behaviors use to wait between motion steps.
// github.com/benbjohnson/clock satisfies it.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}
