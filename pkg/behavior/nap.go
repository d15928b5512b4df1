package behavior

import (
	"context"
	"math"
	"time"
)

// Nap choreography.
const (
	dimSteps      = 10
	dimStepDelay  = 250 * time.Millisecond
	armStepDeg    = 1.0
	armStepDelay  = 10 * time.Millisecond
	flashDuration = 100 * time.Millisecond
)

// Nap takes a low-power rest of a random whole number of seconds in
// [minS, maxS]. The robot parks, dims the indicator, lowers its arm, flashes
// once and suspends the board; on waking it restores the previous state and
// brings the indicator back up. The background timer is paused for the
// suspension. If ctx is canceled before the suspension it is skipped, but
// the wake-up sequence always runs. It returns the chosen rest duration.
func (m *Machine) Nap(ctx context.Context, minS, maxS int) (time.Duration, error) {
	if minS < 0 || maxS < minS {
		return 0, ErrNapBounds
	}

	prev := m.setState(WakingUp)
	m.Tick(m.clk.Now())
	m.hw.WalkMotor.SetSpeed(0)
	m.hw.TurnMotor.SetSpeed(0)
	m.hw.Servo.SetAngle(0)

	for i := dimSteps; i >= 0; i-- {
		m.hw.Indicator.Dim(float64(i) / dimSteps)
		m.clk.Sleep(dimStepDelay)
	}

	// Lower the arm from 0 toward the scan angle in small steps.
	step := -armStepDeg
	if m.cfg.ScanServoDeg > 0 {
		step = armStepDeg
	}
	for a := 0.0; math.Abs(a-m.cfg.ScanServoDeg) >= armStepDeg; a += step {
		m.hw.Servo.SetAngle(a)
		m.clk.Sleep(armStepDelay)
	}

	m.hw.Indicator.Dim(1)
	m.clk.Sleep(flashDuration)
	m.hw.Indicator.Dim(0)

	rest := time.Duration(minS+m.rng.IntN(maxS-minS+1)) * time.Second

	defer func() {
		m.setState(prev)
		m.hw.Servo.SetAngle(m.cfg.ScanServoDeg)
		m.Tick(m.clk.Now())
		for i := 0; i <= dimSteps; i++ {
			m.hw.Indicator.Dim(float64(i) / dimSteps)
			m.clk.Sleep(dimStepDelay)
		}
	}()

	if ctx.Err() != nil {
		m.log.Debug("nap canceled before rest")
		return 0, ctx.Err()
	}

	m.log.Info("napping", "duration", rest)
	if m.timer != nil {
		m.timer.Pause()
		defer m.timer.Resume()
	}
	if m.hw.Sleeper != nil {
		m.hw.Sleeper.SleepLightly(rest)
	} else {
		m.clk.Sleep(rest)
	}
	return rest, nil
}
