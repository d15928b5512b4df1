// Package sim provides in-process stand-ins for every hexbug collaborator.
// They back the -sim mode of cmd/hexbug and the tests of the behavior core;
// each one records what it was told so callers can inspect it.
package sim

import (
	"sync"
	"time"

	"github.com/teslashibe/go-hexbug/pkg/robot"
)

// Clock is a virtual clock. Sleep advances time immediately and records the
// duration, so behaviors run instantly under test.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  []time.Duration
	onSleep func(d time.Duration)
}

// NewClock starts a virtual clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2019, 8, 19, 12, 0, 0, 0, time.UTC)}
}

// OnSleep registers a hook run (outside the lock) after every Sleep.
// Tests use it to change the world mid-behavior.
func (c *Clock) OnSleep(fn func(d time.Duration)) {
	c.mu.Lock()
	c.onSleep = fn
	c.mu.Unlock()
}

// Now returns the virtual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the virtual time by d.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
}

// Sleeps returns every recorded Sleep in order.
func (c *Clock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// Elapsed returns the sum of all sleeps.
func (c *Clock) Elapsed() time.Duration {
	var total time.Duration
	for _, d := range c.Sleeps() {
		total += d
	}
	return total
}

// Motor records every speed it is given.
type Motor struct {
	mu      sync.Mutex
	speed   int
	history []int
}

// SetSpeed implements robot.Motor.
func (m *Motor) SetSpeed(speed int) {
	m.mu.Lock()
	m.speed = speed
	m.history = append(m.history, speed)
	m.mu.Unlock()
}

// Speed returns the current speed.
func (m *Motor) Speed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

// History returns all speeds set so far.
func (m *Motor) History() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.history...)
}

// Servo records angles and power state.
type Servo struct {
	mu      sync.Mutex
	angle   float64
	powered bool
	history []float64
	offs    int
}

// SetAngle implements robot.Servo and powers the servo.
func (s *Servo) SetAngle(deg float64) {
	s.mu.Lock()
	s.angle = deg
	s.powered = true
	s.history = append(s.history, deg)
	s.mu.Unlock()
}

// Off implements robot.Servo.
func (s *Servo) Off() {
	s.mu.Lock()
	s.powered = false
	s.offs++
	s.mu.Unlock()
}

// Angle returns the last commanded angle.
func (s *Servo) Angle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// Powered reports whether the servo holds its position.
func (s *Servo) Powered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powered
}

// History returns every commanded angle.
func (s *Servo) History() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.history...)
}

// OffCount returns how often the servo was powered down.
func (s *Servo) OffCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offs
}

// Compass returns whatever orientation it was last given.
type Compass struct {
	mu sync.Mutex
	o  robot.Orientation
}

// Set changes the reported orientation.
func (c *Compass) Set(o robot.Orientation) {
	c.mu.Lock()
	c.o = o
	c.mu.Unlock()
}

// Heading implements robot.Compass.
func (c *Compass) Heading() float64 {
	return c.HeadingPitchRoll().Heading
}

// HeadingPitchRoll implements robot.Compass.
func (c *Compass) HeadingPitchRoll() robot.Orientation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.o
}

// Indicator records colors and brightness.
type Indicator struct {
	mu     sync.Mutex
	color  robot.Color
	pulses int
	dims   []float64
}

// Pulse implements robot.Indicator.
func (i *Indicator) Pulse(c robot.Color) {
	i.mu.Lock()
	i.color = c
	i.pulses++
	i.mu.Unlock()
}

// Dim implements robot.Indicator.
func (i *Indicator) Dim(fraction float64) {
	i.mu.Lock()
	i.dims = append(i.dims, fraction)
	i.mu.Unlock()
}

// Color returns the last pulse color.
func (i *Indicator) Color() robot.Color {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.color
}

// Dims returns every brightness set.
func (i *Indicator) Dims() []float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]float64(nil), i.dims...)
}

// ADC is an A/D converter whose channels are set directly.
type ADC struct {
	mu      sync.Mutex
	data    [robot.ADCChannels]int
	mask    uint8
	ready   bool
	updates int
}

// NewADC returns a ready converter.
func NewADC() *ADC {
	return &ADC{ready: true}
}

// Set writes a raw count to a channel.
func (a *ADC) Set(ch, raw int) {
	a.mu.Lock()
	a.data[ch] = raw
	a.mu.Unlock()
}

// Update implements robot.ADC.
func (a *ADC) Update() {
	a.mu.Lock()
	a.updates++
	a.mu.Unlock()
}

// Data implements robot.ADC.
func (a *ADC) Data() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int, len(a.data))
	copy(out, a.data[:])
	return out
}

// EnableChannel implements robot.ADC.
func (a *ADC) EnableChannel(ch int) {
	a.mu.Lock()
	a.mask |= 1 << ch
	a.mu.Unlock()
}

// Ready implements robot.ADC.
func (a *ADC) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Mask returns the enabled channel mask.
func (a *ADC) Mask() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mask
}

// Updates returns how often Update was called.
func (a *ADC) Updates() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updates
}

// Battery reports a fixed voltage.
type Battery float64

// Volts implements robot.Battery.
func (b Battery) Volts() float64 { return float64(b) }

// Sleeper records naps and advances a clock by their length.
type Sleeper struct {
	mu   sync.Mutex
	clk  robot.Clock
	naps []time.Duration
}

// NewSleeper returns a sleeper that waits on clk.
func NewSleeper(clk robot.Clock) *Sleeper {
	return &Sleeper{clk: clk}
}

// SleepLightly implements robot.Sleeper.
func (s *Sleeper) SleepLightly(d time.Duration) {
	s.mu.Lock()
	s.naps = append(s.naps, d)
	s.mu.Unlock()
	if s.clk != nil {
		s.clk.Sleep(d)
	}
}

// Naps returns every recorded rest.
func (s *Sleeper) Naps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.naps...)
}

// Camera is a flat thermal image.
type Camera struct {
	Temp int
}

// Pixels implements robot.IRCamera.
func (c Camera) Pixels() [64]int {
	var px [64]int
	for i := range px {
		px[i] = c.Temp
	}
	return px
}
