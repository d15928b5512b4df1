package behavior

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hexbug/pkg/robot"
)

func TestLookAround_Completes(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.m.setState(Walking)
	r.bot.Walk.SetSpeed(-55)

	var during []State
	r.clk.OnSleep(func(time.Duration) { during = append(during, r.m.State()) })

	n := r.m.LookAround(context.Background())

	assert.GreaterOrEqual(t, n, minSaccades)
	assert.LessOrEqual(t, n, maxSaccades)
	assert.Zero(t, r.bot.Walk.Speed())
	assert.Zero(t, r.bot.Turn.Speed())
	assert.Equal(t, -25.0, r.bot.Servo.Angle())
	assert.Equal(t, Walking, r.m.State())
	for _, s := range during {
		assert.Equal(t, Looking, s)
	}

	lo, hi := r.m.cfg.Servo.Bounds()
	for _, a := range r.bot.Servo.History() {
		assert.GreaterOrEqual(t, a, lo)
		assert.LessOrEqual(t, a, hi)
	}
	for _, s := range r.bot.Turn.History() {
		assert.Contains(t, []int{0, 35, -35}, s)
	}
}

func TestLookAround_SaccadeTiming(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.m.LookAround(context.Background())

	for _, d := range r.clk.Sleeps() {
		assert.LessOrEqual(t, d, maxYawMS*time.Millisecond)
		assert.Positive(t, d)
	}
}

func TestLookAround_RefreshesTargetHeading(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.WalkStraight = true
	r := newRig(t, cfg, []float64{15})
	assert.Zero(t, r.m.targetHeading)

	r.bot.Compass.Set(robot.Orientation{Heading: 137})
	r.m.LookAround(context.Background())
	assert.Equal(t, 137.0, r.m.targetHeading)
}

func TestLookAround_TiltInterlock(t *testing.T) {
	// Whenever the robot tips over, the sequence ends with the head stopped,
	// the arm back at its scan angle and no saccade started afterwards.
	for tiltAt := 1; tiltAt <= 6; tiltAt++ {
		t.Run(fmt.Sprintf("after sleep %d", tiltAt), func(t *testing.T) {
			r := newRig(t, DefaultConfig(), []float64{15})

			sleeps, turnsAtTilt := 0, -1
			r.clk.OnSleep(func(time.Duration) {
				sleeps++
				if sleeps == tiltAt {
					r.bot.Compass.Set(robot.Orientation{Pitch: 90})
					r.m.Tick(r.clk.Now())
					turnsAtTilt = len(r.bot.Turn.History())
				}
			})

			n := r.m.LookAround(context.Background())

			require.GreaterOrEqual(t, turnsAtTilt, 0, "tilt was never injected")
			assert.Less(t, n, maxSaccades+1)
			for _, s := range r.bot.Turn.History()[turnsAtTilt:] {
				assert.Zero(t, s, "turn motor moved after the tilt")
			}
			assert.Zero(t, r.bot.Turn.Speed())
			assert.Zero(t, r.bot.Walk.Speed())
			assert.Equal(t, -25.0, r.bot.Servo.Angle())
			assert.Equal(t, Idle, r.m.State())
			assert.True(t, r.m.Tilted())

			// The next housekeeping pass puts the robot back on hold.
			r.m.Tick(r.clk.Now())
			assert.Equal(t, OnHold, r.m.State())
		})
	}
}

func TestLookAround_TiltedBeforeStart(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.m.Housekeeping(robot.Orientation{Roll: 80}, nil)

	n := r.m.LookAround(context.Background())

	assert.Zero(t, n)
	assert.Empty(t, r.clk.Sleeps())
	assert.Equal(t, -25.0, r.bot.Servo.Angle())
	assert.Equal(t, OnHold, r.m.State())
}

func TestLookAround_Canceled(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Zero(t, r.m.LookAround(ctx))
	assert.Zero(t, r.bot.Turn.Speed())
	assert.Equal(t, Idle, r.m.State())
}
