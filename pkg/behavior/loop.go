package behavior

import (
	"context"

	"github.com/teslashibe/go-hexbug/pkg/scan"
)

// Step runs one cycle of the control loop: maybe look around, maybe nap,
// then scan the ground and react. The tilt interlock is checked on entry
// and again after every compound behavior; while it holds, the robot stays
// still and the cycle only waits one timer period.
func (m *Machine) Step(ctx context.Context) scan.Result {
	if m.Tilted() {
		return m.hold()
	}

	if m.chance(m.cfg.LookAroundPermille) {
		m.LookAround(ctx)
		if m.Tilted() {
			return m.hold()
		}
	}
	if m.chance(m.cfg.NapPermille) {
		if _, err := m.Nap(ctx, m.cfg.NapMinS, m.cfg.NapMaxS); err != nil {
			m.log.Debug("nap", "error", err)
		}
		if m.Tilted() {
			return m.hold()
		}
	}

	res := m.Scan(ctx)
	if m.Tilted() {
		m.hold()
		res.Aborted = true
		return res
	}
	if res.Aborted {
		m.hw.WalkMotor.SetSpeed(0)
		return res
	}

	switch res.Class {
	case scan.None:
		m.setState(Walking)
		m.hw.WalkMotor.SetSpeed(m.cfg.WalkSpeed)
		m.lastTurn = 0

	case scan.Obstacle:
		m.setState(Obstacle)
		m.turn(res)

	case scan.Cliff:
		m.setState(Cliff)
		m.hw.WalkMotor.SetSpeed(-m.cfg.WalkSpeed)
		m.sleepMS(m.cfg.BackDelayMS)
		m.turn(res)
	}
	return res
}

// hold keeps a tipped robot still: motors stopped, servo unpowered, OnHold.
func (m *Machine) hold() scan.Result {
	m.hw.WalkMotor.SetSpeed(0)
	m.hw.TurnMotor.SetSpeed(0)
	m.hw.Servo.Off()
	m.setState(OnHold)
	m.clk.Sleep(m.cfg.TimerPeriod())
	return scan.Result{Aborted: true}
}

// turn walks while swinging the head toward the direction the turn memory
// picks. The last scan's bias lengthens or shortens the turn.
func (m *Machine) turn(res scan.Result) {
	dir := m.turns.Next(m.lastTurn)
	m.hw.WalkMotor.SetSpeed(m.cfg.WalkSpeed)
	m.hw.TurnMotor.SetSpeed(m.cfg.TurnSpeed * dir)
	m.sleepMS(m.cfg.TurnDelayMS + m.engine.LastBias())
	m.hw.TurnMotor.SetSpeed(0)
	m.lastTurn = dir

	m.Debug(map[string]any{
		"turn":  dir,
		"class": res.Class.String(),
		"tally": m.turns.Value(),
	})
}

// Scan runs one obstacle and cliff scan with this cycle's head bias.
func (m *Machine) Scan(ctx context.Context) scan.Result {
	s := m.Snapshot()
	return m.engine.Scan(ctx, scan.BiasInput{
		LightDiff:     s.LightDiff,
		Heading:       s.Orientation.Heading,
		TargetHeading: m.targetHeading,
	})
}

// Run loops Step until ctx is done, then stops the motors.
func (m *Machine) Run(ctx context.Context) error {
	defer func() {
		m.hw.WalkMotor.SetSpeed(0)
		m.hw.TurnMotor.SetSpeed(0)
	}()
	for ctx.Err() == nil {
		m.Step(ctx)
	}
	return ctx.Err()
}

func (m *Machine) chance(permille int) bool {
	return permille > 0 && m.rng.IntN(1000) < permille
}
