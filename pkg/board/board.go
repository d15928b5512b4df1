// Package board talks to the robotling co-processor over a serial line.
//
// The co-processor owns the motor drivers, the servo, the status LED, the
// compass and the A/D converter. It streams sensor lines continuously:
//
//	A <ch0> <ch1> ... <ch7>   raw A/D counts
//	H <heading> <pitch> <roll>
//	B <millivolts>
//
// and accepts one command per line:
//
//	M <a|b> <speed>   motor a (walk) or b (turn)
//	S <pulse us>      servo position
//	S off             servo power off
//	P <r> <g> <b>     pulse the LED in a color
//	D <fraction>      LED brightness
//	Z <seconds>       light sleep
package board

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.bug.st/serial"

	"github.com/teslashibe/go-hexbug/pkg/robot"
)

// BaudRate is the co-processor's fixed line speed.
const BaudRate = 115200

// ErrClosed is returned by Wait once the board was closed by the caller.
var ErrClosed = errors.New("board: closed")

// Option configures a Board.
type Option func(*Board)

// WithClock sets the clock light sleeps wait on.
func WithClock(clk clock.Clock) Option {
	return func(b *Board) { b.clk = clk }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.log = l }
}

// Board is the host side of the serial link. It implements every robot
// collaborator the co-processor provides.
type Board struct {
	port  io.ReadWriteCloser
	servo robot.ServoMap
	clk   clock.Clock
	log   *slog.Logger

	wmu sync.Mutex // serializes command lines

	mu       sync.Mutex
	pending  [robot.ADCChannels]int
	data     [robot.ADCChannels]int
	mask     uint8
	orient   robot.Orientation
	millivol int

	ready    atomic.Bool // first A/D line seen
	closed   atomic.Bool
	lines    atomic.Uint64
	bad      atomic.Uint64
	commands atomic.Uint64
	failed   atomic.Uint64

	walk *motor
	turn *motor

	done    chan struct{}
	readErr error
}

// Open opens the serial device at path and starts reading from it.
func Open(path string, servo robot.ServoMap, opts ...Option) (*Board, error) {
	if err := servo.Validate(); err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("board: open %s: %w", path, err)
	}
	return New(port, servo, opts...), nil
}

// New runs the protocol over an already open port.
func New(port io.ReadWriteCloser, servo robot.ServoMap, opts ...Option) *Board {
	b := &Board{
		port:  port,
		servo: servo,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.clk == nil {
		b.clk = clock.New()
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	b.walk = &motor{b: b, id: 'a'}
	b.turn = &motor{b: b, id: 'b'}

	go b.read()
	return b
}

func (b *Board) read() {
	defer close(b.done)
	sc := bufio.NewScanner(b.port)
	for sc.Scan() {
		b.handle(sc.Text())
	}
	if err := sc.Err(); err != nil && !b.closed.Load() {
		b.readErr = err
		b.log.Error("serial read failed", "error", err)
	}
}

func (b *Board) handle(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	b.lines.Add(1)

	var err error
	switch fields[0] {
	case "A":
		err = b.handleADC(fields[1:])
	case "H":
		err = b.handleCompass(fields[1:])
	case "B":
		err = b.handleBattery(fields[1:])
	default:
		err = fmt.Errorf("unknown line type %q", fields[0])
	}
	if err != nil {
		b.bad.Add(1)
		b.log.Debug("bad serial line", "line", line, "error", err)
	}
}

func (b *Board) handleADC(fields []string) error {
	if len(fields) == 0 || len(fields) > robot.ADCChannels {
		return fmt.Errorf("want 1 to %d counts, got %d", robot.ADCChannels, len(fields))
	}
	var counts [robot.ADCChannels]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return err
		}
		counts[i] = v
	}
	b.mu.Lock()
	b.pending = counts
	b.mu.Unlock()
	b.ready.Store(true)
	return nil
}

func (b *Board) handleCompass(fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("want heading pitch roll, got %d values", len(fields))
	}
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return err
		}
		v[i] = x
	}
	b.mu.Lock()
	b.orient = robot.Orientation{Heading: v[0], Pitch: v[1], Roll: v[2]}
	b.mu.Unlock()
	return nil
}

func (b *Board) handleBattery(fields []string) error {
	if len(fields) != 1 {
		return fmt.Errorf("want millivolts, got %d values", len(fields))
	}
	mv, err := strconv.Atoi(fields[0])
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.millivol = mv
	b.mu.Unlock()
	return nil
}

// send writes one command line. Write failures are logged and dropped.
func (b *Board) send(format string, args ...any) {
	line := fmt.Sprintf(format, args...) + "\n"

	b.wmu.Lock()
	_, err := io.WriteString(b.port, line)
	b.wmu.Unlock()

	b.commands.Add(1)
	if err != nil {
		b.failed.Add(1)
		b.log.Warn("serial write failed", "command", strings.TrimSpace(line), "error", err)
	}
}

// Update copies the latest streamed A/D counts into the buffer Data reads.
// It never blocks on the serial line.
func (b *Board) Update() {
	b.mu.Lock()
	b.data = b.pending
	b.mu.Unlock()
}

// Data returns the buffered counts. Channels never enabled read as zero.
func (b *Board) Data() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, robot.ADCChannels)
	for ch := range out {
		if b.mask&(1<<ch) != 0 {
			out[ch] = b.data[ch]
		}
	}
	return out
}

// EnableChannel implements robot.ADC.
func (b *Board) EnableChannel(ch int) {
	if ch < 0 || ch >= robot.ADCChannels {
		return
	}
	b.mu.Lock()
	b.mask |= 1 << ch
	b.mu.Unlock()
}

// Ready reports whether the co-processor has streamed A/D counts yet.
func (b *Board) Ready() bool {
	return b.ready.Load()
}

// Heading implements robot.Compass.
func (b *Board) Heading() float64 {
	return b.HeadingPitchRoll().Heading
}

// HeadingPitchRoll implements robot.Compass.
func (b *Board) HeadingPitchRoll() robot.Orientation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orient
}

// Volts implements robot.Battery.
func (b *Board) Volts() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.millivol) / 1000
}

// SetAngle moves the servo, powering it if needed.
func (b *Board) SetAngle(deg float64) {
	b.send("S %d", b.servo.PulseUS(deg))
}

// Off implements robot.Servo.
func (b *Board) Off() {
	b.send("S off")
}

// Pulse implements robot.Indicator.
func (b *Board) Pulse(c robot.Color) {
	b.send("P %d %d %d", c.R, c.G, c.B)
}

// Dim implements robot.Indicator.
func (b *Board) Dim(fraction float64) {
	fraction = min(max(fraction, 0), 1)
	b.send("D %.2f", fraction)
}

// SleepLightly puts the co-processor into light sleep and waits it out.
func (b *Board) SleepLightly(d time.Duration) {
	b.send("Z %.3f", d.Seconds())
	b.clk.Sleep(d)
}

// WalkMotor returns motor a.
func (b *Board) WalkMotor() robot.Motor { return b.walk }

// TurnMotor returns motor b.
func (b *Board) TurnMotor() robot.Motor { return b.turn }

// Hardware exposes the board through the robot interfaces. tof may be nil.
func (b *Board) Hardware(tof robot.RangingSensor) robot.Hardware {
	return robot.Hardware{
		WalkMotor: b.walk,
		TurnMotor: b.turn,
		Servo:     b,
		Compass:   b,
		Indicator: b,
		ADC:       b,
		ToF:       tof,
		Battery:   b,
		Sleeper:   b,
	}
}

// Stats describes the link.
type Stats struct {
	Lines    uint64 `json:"lines"`
	Bad      uint64 `json:"bad"`
	Commands uint64 `json:"commands"`
	Failed   uint64 `json:"failed"`
}

// Stats returns link counters.
func (b *Board) Stats() Stats {
	return Stats{
		Lines:    b.lines.Load(),
		Bad:      b.bad.Load(),
		Commands: b.commands.Load(),
		Failed:   b.failed.Load(),
	}
}

// Wait blocks until the reader stops and returns why: the read error, or
// ErrClosed after Close, or nil when the port reached EOF.
func (b *Board) Wait() error {
	<-b.done
	if b.closed.Load() {
		return ErrClosed
	}
	return b.readErr
}

// Close closes the port and waits for the reader to stop.
func (b *Board) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := b.port.Close()
	<-b.done
	return err
}

type motor struct {
	b  *Board
	id byte
}

func (m *motor) SetSpeed(speed int) {
	m.b.send("M %c %d", m.id, speed)
}

var (
	_ robot.ADC       = (*Board)(nil)
	_ robot.Compass   = (*Board)(nil)
	_ robot.Servo     = (*Board)(nil)
	_ robot.Indicator = (*Board)(nil)
	_ robot.Battery   = (*Board)(nil)
	_ robot.Sleeper   = (*Board)(nil)
	_ robot.Motor     = (*motor)(nil)
)
