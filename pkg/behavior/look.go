package behavior

import (
	"context"
	"math"
)

// Look-around saccade limits.
const (
	minSaccades     = 4
	maxSaccades     = 10
	maxYawMS        = 800 // turn motor time per saccade, either direction
	minPitchStepDeg = -10
	maxPitchStepDeg = 15
	maxPauseMS      = 500
)

// LookAround makes the robot look around: a few random head turns with the
// sensor arm bobbing up and down. The tilt interlock and ctx are checked
// before each saccade. Whatever happens, the turn motor ends stopped, the
// arm ends at its scan angle and the previous state is restored. It returns
// the number of completed saccades.
func (m *Machine) LookAround(ctx context.Context) (saccades int) {
	m.hw.WalkMotor.SetSpeed(0)
	m.hw.TurnMotor.SetSpeed(0)
	prev := m.setState(Looking)

	defer func() {
		m.hw.TurnMotor.SetSpeed(0)
		m.hw.Servo.SetAngle(m.cfg.ScanServoDeg)
		m.setState(prev)
		if m.cfg.Scan.WalkStraight {
			m.targetHeading = m.hw.Compass.Heading()
		}
	}()

	n := minSaccades + m.rng.IntN(maxSaccades-minSaccades+1)
	lo, hi := m.cfg.Servo.Bounds()
	pitch := m.cfg.ScanServoDeg
	for range n {
		if m.Tilted() || ctx.Err() != nil {
			m.log.Debug("look around interrupted", "saccades", saccades, "of", n)
			return saccades
		}
		yaw := m.rng.IntN(2*maxYawMS+1) - maxYawMS
		dir := 1
		if yaw < 0 {
			dir = -1
		}
		pitch += float64(minPitchStepDeg + m.rng.IntN(maxPitchStepDeg-minPitchStepDeg+1))
		pitch = math.Min(math.Max(pitch, lo), hi)

		m.hw.Servo.SetAngle(pitch)
		m.hw.TurnMotor.SetSpeed(m.cfg.TurnSpeed * dir)
		m.sleepMS(math.Abs(float64(yaw)))
		m.hw.TurnMotor.SetSpeed(0)
		m.sleepMS(float64(m.rng.IntN(maxPauseMS + 1)))
		saccades++
	}
	return saccades
}
