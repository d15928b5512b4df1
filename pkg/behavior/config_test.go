package behavior

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hexbug/pkg/filter"
	"github.com/teslashibe/go-hexbug/pkg/robot"
	"github.com/teslashibe/go-hexbug/pkg/sim"
	"github.com/teslashibe/go-hexbug/pkg/tilt"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, -25.0, cfg.ScanServoDeg)
	assert.Equal(t, -55, cfg.WalkSpeed)
	assert.Equal(t, 50*time.Millisecond, cfg.TimerPeriod())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
		err   error
	}{
		{"scan servo outside range", func(c *Config) { c.ScanServoDeg = 60 }, "scan_servo_deg", nil},
		{"unknown ranging model", func(c *Config) { c.RangingModel = "GP2Y9999" }, "ranging_model", nil},
		{"ranging channel", func(c *Config) { c.RangingChannels = []int{8} }, "ranging_channels", nil},
		{"light channels equal", func(c *Config) {
			c.Scan.FindLight = true
			c.LightLeftChannel = c.LightRightChannel
		}, "light_right_channel", nil},
		{"light window", func(c *Config) { c.LightWindow = 0 }, "light_window", nil},
		{"load window", func(c *Config) { c.LoadWindow = 0 }, "load_window", nil},
		{"turn delay", func(c *Config) { c.TurnDelayMS = -1 }, "turn_delay_ms", nil},
		{"back delay", func(c *Config) { c.BackDelayMS = -1 }, "back_delay_ms", nil},
		{"timer period", func(c *Config) { c.TimerPeriodMS = 0 }, "timer_period_ms", nil},
		{"look around permille", func(c *Config) { c.LookAroundPermille = 1001 }, "look_around_permille", nil},
		{"nap permille", func(c *Config) { c.NapPermille = -1 }, "nap_permille", nil},
		{"nap bounds", func(c *Config) { c.NapMinS, c.NapMaxS = 10, 5 }, "nap_min_s", nil},
		{"turn memory", func(c *Config) { c.TurnMemoryInc = 0 }, "turn_memory_inc", nil},
		{"tilt", func(c *Config) { c.Tilt.MaxAngleDeg = 0 }, "", tilt.ErrMaxAngle},
		{"tilt window", func(c *Config) { c.Tilt.Window = 0 }, "", filter.ErrWindowSize},
		{"servo", func(c *Config) { c.Servo.MaxUS = c.Servo.MinUS }, "", robot.ErrServoRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestConfig_ScanErrorsPassThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.FindLight = true
	cfg.Scan.WalkStraight = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find_light")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexbug.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"walk_speed": -70,
		"scan": {"obstacle_cm": 8, "cliff_cm": 30},
		"nap_permille": 5
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, -70, cfg.WalkSpeed)
	assert.Equal(t, 5, cfg.NapPermille)
	assert.Equal(t, 8.0, cfg.Scan.ObstacleCM)
	assert.Equal(t, 30.0, cfg.Scan.CliffCM)

	// Untouched fields keep their defaults.
	def := DefaultConfig()
	assert.Equal(t, def.TurnSpeed, cfg.TurnSpeed)
	assert.Equal(t, def.Servo, cfg.Servo)
	assert.Equal(t, def.Scan.Positions, cfg.Scan.Positions)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"walk_speed": `), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "parse")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"timer_period_ms": 0}`), 0o644))
	_, err = LoadConfig(invalid)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestConfig_Probe(t *testing.T) {
	clk := sim.NewClock()

	tof := sim.NewScript(15)
	r, err := DefaultConfig().Probe(sim.NewRobot(clk, tof).Hardware())
	require.NoError(t, err)
	assert.Equal(t, robot.RangingToF, r.Kind)

	// A silent time-of-flight sensor falls back to the Sharp IR channel.
	tof.SetReady(false)
	r, err = DefaultConfig().Probe(sim.NewRobot(clk, tof).Hardware())
	require.NoError(t, err)
	assert.Equal(t, robot.RangingIRSweep, r.Kind)

	cfg := DefaultConfig()
	cfg.RangingChannels = []int{0, 1, 4}
	r, err = cfg.Probe(sim.NewRobot(clk, nil).Hardware())
	require.NoError(t, err)
	assert.Equal(t, robot.RangingIRArray, r.Kind)
	assert.Len(t, r.Sensors, 3)
}
