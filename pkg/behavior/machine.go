// Package behavior is the hexbug's control core: the state machine, the
// housekeeping run by the background timer, and the compound behaviors the
// foreground loop executes (scan and avoid, look around, nap).
//
// Two goroutines touch a Machine. The background timer calls Tick, which
// refreshes the sensors, evaluates the tilt interlock and publishes a
// Snapshot. The foreground calls Step (or the behaviors directly) and reads
// sensor values only through Snapshot. The state is written by both sides:
// behaviors set their own mode and housekeeping forces OnHold.
package behavior

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/teslashibe/go-hexbug/pkg/filter"
	"github.com/teslashibe/go-hexbug/pkg/robot"
	"github.com/teslashibe/go-hexbug/pkg/scan"
	"github.com/teslashibe/go-hexbug/pkg/telemetry"
	"github.com/teslashibe/go-hexbug/pkg/tilt"
)

// Snapshot is what one housekeeping pass saw. Snapshots are immutable once
// published.
type Snapshot struct {
	At          time.Time         `json:"at"`
	State       State             `json:"state"`
	Orientation robot.Orientation `json:"orientation"`
	Tilted      bool              `json:"tilted"`
	LightDiff   float64           `json:"light_diff"`
	Light       [2]int            `json:"light"`      // left, right
	MotorLoad   [2]int            `json:"motor_load"` // walk, turn
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the clock behaviors wait on. Defaults to the wall clock.
func WithClock(clk robot.Clock) Option {
	return func(m *Machine) { m.clk = clk }
}

// WithRand sets the random source for look-around, nap and turn choices.
func WithRand(rng *rand.Rand) Option {
	return func(m *Machine) { m.rng = rng }
}

// WithReporter enables telemetry through r when Config.Telemetry is set.
func WithReporter(r *telemetry.Reporter) Option {
	return func(m *Machine) { m.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// Machine is the behavior state machine of one robot.
type Machine struct {
	cfg      Config
	hw       robot.Hardware
	clk      robot.Clock
	rng      *rand.Rand // foreground only
	log      *slog.Logger
	reporter *telemetry.Reporter

	tilt   *tilt.Monitor
	engine *scan.Engine
	turns  *TurnMemory

	// Housekeeping state, guarded by hk.
	hk        sync.Mutex
	walkLoad  *filter.Temporal
	turnLoad  *filter.Temporal
	lightDiff *filter.Temporal
	wasTilted bool

	state atomic.Int32
	snap  atomic.Pointer[Snapshot]
	timer *robot.Timer
	start time.Time

	// Foreground only.
	targetHeading float64
	lastTurn      int
}

// New builds a machine for hw using the already probed ranging sensors.
// The machine starts Idle with the servo at its scan angle.
func New(cfg Config, hw robot.Hardware, ranging robot.Ranging, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkHardware(hw); err != nil {
		return nil, err
	}

	cfg.RangingChannels = append([]int(nil), cfg.RangingChannels...)
	m := &Machine{cfg: cfg, hw: hw}
	for _, opt := range opts {
		opt(m)
	}
	if m.clk == nil {
		m.clk = clock.New()
	}
	if m.rng == nil {
		seed := uint64(time.Now().UnixNano())
		m.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	m.start = m.clk.Now()

	var err error
	if m.tilt, err = tilt.New(cfg.Tilt); err != nil {
		return nil, err
	}
	if m.engine, err = scan.New(cfg.Scan, ranging, hw.TurnMotor, m.clk, scan.WithInterlock(m.tilt.Tilted)); err != nil {
		return nil, err
	}
	m.turns = NewTurnMemory(cfg.TurnMemoryInc, m.rng)

	if cfg.LoadSensing {
		m.walkLoad = filter.MustTemporal(cfg.LoadWindow)
		m.turnLoad = filter.MustTemporal(cfg.LoadWindow)
		hw.ADC.EnableChannel(WalkLoadChannel)
		hw.ADC.EnableChannel(TurnLoadChannel)
	}
	if cfg.Scan.FindLight {
		m.lightDiff = filter.MustTemporal(cfg.LightWindow)
		hw.ADC.EnableChannel(cfg.LightRightChannel)
		hw.ADC.EnableChannel(cfg.LightLeftChannel)
	}
	if cfg.Scan.WalkStraight {
		m.targetHeading = hw.Compass.Heading()
	}

	m.state.Store(int32(Idle))
	m.snap.Store(&Snapshot{At: m.start, State: Idle})
	hw.Servo.SetAngle(cfg.ScanServoDeg)

	m.log.Info("behavior ready",
		"ranging", ranging.Kind,
		"sensors", len(ranging.Sensors),
		"angles", m.engine.ProfileLen(),
		"telemetry", m.telemetryOn())
	return m, nil
}

func checkHardware(hw robot.Hardware) error {
	missing := ""
	switch {
	case hw.WalkMotor == nil:
		missing = "walk motor"
	case hw.TurnMotor == nil:
		missing = "turn motor"
	case hw.Servo == nil:
		missing = "servo"
	case hw.Compass == nil:
		missing = "compass"
	case hw.Indicator == nil:
		missing = "indicator"
	case hw.ADC == nil:
		missing = "ADC"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s", ErrMissingHardware, missing)
	}
	return nil
}

func (m *Machine) telemetryOn() bool {
	return m.cfg.Telemetry && m.reporter != nil
}

// NewBackground returns the timer that drives Tick at the configured
// period. A nil clk means the wall clock. Nap pauses this timer while the
// board rests. Call it once, before the timer or any behavior runs.
func (m *Machine) NewBackground(clk clock.Clock) *robot.Timer {
	m.timer = robot.NewTimer(clk, m.cfg.TimerPeriod(), m.Tick, m.log.With("component", "timer"))
	return m.timer
}

// Tick is the background callback: refresh the analog bus, sample the
// compass and run housekeeping.
func (m *Machine) Tick(time.Time) {
	m.hk.Lock()
	defer m.hk.Unlock()

	m.hw.ADC.Update()
	m.housekeeping(m.hw.Compass.HeadingPitchRoll(), m.hw.ADC.Data())
}

// Housekeeping runs one housekeeping pass on the given samples and returns
// the snapshot it published. Tick calls it with fresh samples.
func (m *Machine) Housekeeping(o robot.Orientation, analog []int) Snapshot {
	m.hk.Lock()
	defer m.hk.Unlock()
	return m.housekeeping(o, analog)
}

func (m *Machine) housekeeping(o robot.Orientation, analog []int) Snapshot {
	tilted := m.tilt.Update(o)
	if tilted {
		m.hw.TurnMotor.SetSpeed(0)
		m.hw.WalkMotor.SetSpeed(0)
		m.hw.Servo.Off()
		m.setState(OnHold)
	}
	if tilted != m.wasTilted {
		p, r := m.tilt.Smoothed()
		if tilted {
			m.log.Warn("tilt interlock engaged", "pitch", p, "roll", r)
		} else {
			m.log.Info("tilt interlock cleared", "pitch", p, "roll", r)
		}
		m.wasTilted = tilted
	}

	snap := Snapshot{
		At:          m.clk.Now(),
		Orientation: o,
		Tilted:      tilted,
	}
	if m.walkLoad != nil {
		snap.MotorLoad[0] = int(m.walkLoad.Push(float64(channel(analog, WalkLoadChannel))))
		snap.MotorLoad[1] = int(m.turnLoad.Push(float64(channel(analog, TurnLoadChannel))))
	}
	if m.lightDiff != nil {
		r := channel(analog, m.cfg.LightRightChannel)
		l := channel(analog, m.cfg.LightLeftChannel)
		snap.Light = [2]int{l, r}
		snap.LightDiff = float64(int(m.lightDiff.Push(float64(r - l))))
	}
	snap.State = m.State()
	m.snap.Store(&snap)

	if m.telemetryOn() {
		m.reporter.Report(m.frame(snap))
	}
	m.hw.Indicator.Pulse(snap.State.Color())
	return snap
}

func channel(analog []int, ch int) int {
	if ch < 0 || ch >= len(analog) {
		return 0
	}
	return analog[ch]
}

// frame assembles the telemetry frame for a snapshot.
func (m *Machine) frame(s Snapshot) telemetry.Frame {
	f := telemetry.Frame{
		State:       int(s.State),
		TimestampS:  s.At.Sub(m.start).Seconds(),
		Orientation: s.Orientation,
	}
	if last := m.engine.Last(); last != nil {
		f.Distances = last.Distances
	} else {
		f.Distances = make([]int, m.engine.ProfileLen())
	}
	if m.hw.Battery != nil {
		f.BatteryV = m.hw.Battery.Volts()
	}
	if m.walkLoad != nil {
		f.MotorLoad = s.MotorLoad[:]
	}
	if m.lightDiff != nil {
		f.Light = s.Light[:]
	}
	if m.hw.Camera != nil {
		px := m.hw.Camera.Pixels()
		f.IRImage = px[:]
	}
	return f
}

// State returns the current mode.
func (m *Machine) State() State {
	return State(m.state.Load())
}

// setState switches mode and returns the previous one.
func (m *Machine) setState(s State) State {
	prev := State(m.state.Swap(int32(s)))
	if prev != s {
		m.log.Info("state", "from", prev, "to", s)
	}
	return prev
}

// Tilted reports the tilt interlock as of the last housekeeping pass.
func (m *Machine) Tilted() bool {
	return m.tilt.Tilted()
}

// Snapshot returns the most recent housekeeping snapshot.
func (m *Machine) Snapshot() Snapshot {
	return *m.snap.Load()
}

// LastScan returns the most recent scan result, or nil.
func (m *Machine) LastScan() *scan.Result {
	return m.engine.Last()
}

// TurnTally returns the turn memory's current tally.
func (m *Machine) TurnTally() int {
	return m.turns.Value()
}

// Ranging returns the sensor complement in use.
func (m *Machine) Ranging() robot.RangingKind {
	return m.engine.Kind()
}

// Angles returns the distinct scan angles.
func (m *Machine) Angles() []float64 {
	return m.engine.Angles()
}

// Debug queues a value for the next telemetry snapshot.
func (m *Machine) Debug(v any) {
	if m.telemetryOn() {
		m.reporter.AddDebug(v)
	}
}

// Stop halts both motors and powers the servo down.
func (m *Machine) Stop() {
	m.hw.WalkMotor.SetSpeed(0)
	m.hw.TurnMotor.SetSpeed(0)
	m.hw.Servo.Off()
}

func (m *Machine) sleepMS(ms float64) {
	if ms <= 0 {
		return
	}
	m.clk.Sleep(time.Duration(ms * float64(time.Millisecond)))
}
