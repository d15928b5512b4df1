package behavior

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hexbug/pkg/robot"
	"github.com/teslashibe/go-hexbug/pkg/sim"
	"github.com/teslashibe/go-hexbug/pkg/telemetry"
)

func TestNew_MissingHardware(t *testing.T) {
	clk := sim.NewClock()
	bot := sim.NewRobot(clk, sim.NewScript(15))
	ranging, err := DefaultConfig().Probe(bot.Hardware())
	require.NoError(t, err)

	tests := []struct {
		name string
		drop func(*robot.Hardware)
	}{
		{"walk motor", func(hw *robot.Hardware) { hw.WalkMotor = nil }},
		{"turn motor", func(hw *robot.Hardware) { hw.TurnMotor = nil }},
		{"servo", func(hw *robot.Hardware) { hw.Servo = nil }},
		{"compass", func(hw *robot.Hardware) { hw.Compass = nil }},
		{"indicator", func(hw *robot.Hardware) { hw.Indicator = nil }},
		{"ADC", func(hw *robot.Hardware) { hw.ADC = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hw := bot.Hardware()
			tt.drop(&hw)
			_, err := New(DefaultConfig(), hw, ranging, WithClock(clk), WithLogger(quiet()))
			assert.ErrorIs(t, err, ErrMissingHardware)
			assert.ErrorContains(t, err, tt.name)
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	clk := sim.NewClock()
	bot := sim.NewRobot(clk, sim.NewScript(15))
	ranging, err := DefaultConfig().Probe(bot.Hardware())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.TimerPeriodMS = -5
	_, err = New(cfg, bot.Hardware(), ranging, WithLogger(quiet()))
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestNew_StartsIdleAtScanAngle(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})

	assert.Equal(t, Idle, r.m.State())
	assert.Equal(t, -25.0, r.bot.Servo.Angle())
	assert.True(t, r.bot.Servo.Powered())
	assert.Equal(t, robot.RangingToF, r.m.Ranging())
	assert.Equal(t, []float64{-35, 0, 35}, r.m.Angles())
	assert.Nil(t, r.m.LastScan())
	assert.Zero(t, r.m.TurnTally())

	s := r.m.Snapshot()
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, r.clk.Now(), s.At)
}

func TestNew_EnablesSenseChannels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoadSensing = true
	cfg.Scan.FindLight = true
	r := newRig(t, cfg, []float64{15})

	want := uint8(1<<WalkLoadChannel | 1<<TurnLoadChannel | 1<<cfg.LightRightChannel | 1<<cfg.LightLeftChannel)
	assert.Equal(t, want, r.bot.ADC.Mask())
}

func TestHousekeeping_TiltForcesOnHold(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.bot.Walk.SetSpeed(-55)
	r.bot.Turn.SetSpeed(35)

	s := r.m.Housekeeping(robot.Orientation{Pitch: 60}, nil)

	assert.True(t, s.Tilted)
	assert.True(t, r.m.Tilted())
	assert.Equal(t, OnHold, s.State)
	assert.Equal(t, OnHold, r.m.State())
	assert.Zero(t, r.bot.Walk.Speed())
	assert.Zero(t, r.bot.Turn.Speed())
	assert.False(t, r.bot.Servo.Powered())
	assert.Equal(t, OnHold.Color(), r.bot.Indicator.Color())
}

func TestHousekeeping_TiltRecovery(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.m.Housekeeping(robot.Orientation{Roll: -60}, nil)

	// The window still averages the tilted sample.
	s := r.m.Housekeeping(robot.Orientation{}, nil)
	assert.True(t, s.Tilted, "mean 30 is above the limit")

	s = r.m.Housekeeping(robot.Orientation{}, nil)
	assert.False(t, s.Tilted, "mean 20 is below the limit")
	assert.False(t, r.m.Tilted())

	// Leaving OnHold is up to the behaviors.
	assert.Equal(t, OnHold, r.m.State())
}

func TestHousekeeping_LevelLeavesStateAlone(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.m.setState(Walking)

	s := r.m.Housekeeping(robot.Orientation{Heading: 120, Pitch: 10, Roll: -5}, nil)
	assert.False(t, s.Tilted)
	assert.Equal(t, Walking, s.State)
	assert.Equal(t, robot.Orientation{Heading: 120, Pitch: 10, Roll: -5}, s.Orientation)
	assert.Equal(t, Walking.Color(), r.bot.Indicator.Color())
	assert.Zero(t, r.bot.Servo.OffCount())
}

func TestHousekeeping_LightDifference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.FindLight = true
	cfg.LightWindow = 2
	r := newRig(t, cfg, []float64{15})

	analog := make([]int, robot.ADCChannels)
	analog[cfg.LightLeftChannel] = 100
	analog[cfg.LightRightChannel] = 300
	s := r.m.Housekeeping(robot.Orientation{}, analog)
	assert.Equal(t, [2]int{100, 300}, s.Light)
	assert.Equal(t, 200.0, s.LightDiff)

	// Smoothed over the window and truncated: (200 + 101) / 2.
	analog[cfg.LightRightChannel] = 201
	s = r.m.Housekeeping(robot.Orientation{}, analog)
	assert.Equal(t, 150.0, s.LightDiff)
}

func TestHousekeeping_LightOffByDefault(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	analog := make([]int, robot.ADCChannels)
	analog[3] = 900
	s := r.m.Housekeeping(robot.Orientation{}, analog)
	assert.Zero(t, s.LightDiff)
	assert.Equal(t, [2]int{}, s.Light)
}

func TestHousekeeping_MotorLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoadSensing = true
	cfg.LoadWindow = 2
	r := newRig(t, cfg, []float64{15})

	analog := make([]int, robot.ADCChannels)
	analog[WalkLoadChannel] = 400
	analog[TurnLoadChannel] = 200
	s := r.m.Housekeeping(robot.Orientation{}, analog)
	assert.Equal(t, [2]int{400, 200}, s.MotorLoad)

	analog[WalkLoadChannel] = 0
	s = r.m.Housekeeping(robot.Orientation{}, analog)
	assert.Equal(t, [2]int{200, 200}, s.MotorLoad)

	// Short analog data reads as zero.
	s = r.m.Housekeeping(robot.Orientation{}, []int{1, 2})
	assert.Equal(t, [2]int{0, 100}, s.MotorLoad)
}

func TestHousekeeping_Telemetry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry = true
	r := newRig(t, cfg, []float64{15}, withTelemetry())

	r.clk.Sleep(1500 * time.Millisecond)
	r.m.Housekeeping(robot.Orientation{Heading: 90}, nil)

	p := r.sink.last()
	require.NotNil(t, p)
	assert.Equal(t, int(Idle), p[telemetry.KeyState])
	assert.Equal(t, 1.5, p[telemetry.KeyTimestamp])

	power, ok := p[telemetry.KeyPower].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3.9, power[telemetry.KeyBattery])
	assert.NotContains(t, power, telemetry.KeyMotorLoad)

	sensor, ok := p[telemetry.KeySensor].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 0}, sensor[telemetry.KeyDistance], "no scan yet")
	assert.NotContains(t, sensor, telemetry.KeyPhotodiode)
	compass := sensor[telemetry.KeyCompass].(map[string]any)
	assert.Equal(t, 90.0, compass[telemetry.KeyHeading])
}

func TestHousekeeping_TelemetryCarriesLastScan(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry = true
	cfg.LookAroundPermille = 0
	r := newRig(t, cfg, []float64{12, 20, 18, 20}, withTelemetry())

	r.m.Step(context.Background())
	r.m.Housekeeping(robot.Orientation{}, nil)

	sensor := r.sink.last()[telemetry.KeySensor].(map[string]any)
	assert.Equal(t, []int{12, 20, 18}, sensor[telemetry.KeyDistance])
}

func TestHousekeeping_TelemetryDisabled(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15}, withTelemetry())
	r.m.Debug("ignored")
	r.m.Housekeeping(robot.Orientation{}, nil)
	assert.Nil(t, r.sink.last())
}

func TestHousekeeping_DebugFlushed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry = true
	r := newRig(t, cfg, []float64{15}, withTelemetry())

	r.m.Debug("turn left")
	r.m.Housekeeping(robot.Orientation{}, nil)
	assert.Equal(t, []any{"turn left"}, r.sink.last()[telemetry.KeyDebug])

	r.m.Housekeeping(robot.Orientation{}, nil)
	assert.NotContains(t, r.sink.last(), telemetry.KeyDebug)
}

func TestTick_SamplesHardware(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.bot.Compass.Set(robot.Orientation{Heading: 45, Pitch: 3})

	r.m.Tick(r.clk.Now())

	assert.Equal(t, 1, r.bot.ADC.Updates())
	assert.Equal(t, 45.0, r.m.Snapshot().Orientation.Heading)
}

func TestBackground_DrivesHousekeeping(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	mock := clock.NewMock()
	timer := r.m.NewBackground(mock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timer.Run(ctx)
	time.Sleep(10 * time.Millisecond)

	r.bot.Compass.Set(robot.Orientation{Pitch: 80})
	mock.Add(50 * time.Millisecond)

	require.Eventually(t, r.m.Tilted, time.Second, 5*time.Millisecond)
	assert.Equal(t, OnHold, r.m.State())
	assert.GreaterOrEqual(t, timer.Ticks(), uint64(1))
	assert.GreaterOrEqual(t, r.bot.ADC.Updates(), 1)
}

func TestStop(t *testing.T) {
	r := newRig(t, DefaultConfig(), []float64{15})
	r.bot.Walk.SetSpeed(-55)
	r.bot.Turn.SetSpeed(-35)

	r.m.Stop()

	assert.Zero(t, r.bot.Walk.Speed())
	assert.Zero(t, r.bot.Turn.Speed())
	assert.False(t, r.bot.Servo.Powered())
}
