package behavior

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/teslashibe/go-hexbug/pkg/robot"
	"github.com/teslashibe/go-hexbug/pkg/scan"
	"github.com/teslashibe/go-hexbug/pkg/tilt"
)

// A/D channels of the motor load sense lines (robotling board >= 1.2).
const (
	WalkLoadChannel = 6
	TurnLoadChannel = 7
)

// Config is the complete robot configuration. It is read once at startup
// and copied into the machine; nothing changes it afterwards.
type Config struct {
	Scan  scan.Config    `json:"scan"`
	Tilt  tilt.Config    `json:"tilt"`
	Servo robot.ServoMap `json:"servo"`

	// ScanServoDeg is the arm angle the ranging sensor scans at.
	ScanServoDeg float64 `json:"scan_servo_deg"`

	// Analog ranging fallback when no time-of-flight sensor answers.
	// One channel sweeps the head, several form a fixed array.
	RangingModel    string `json:"ranging_model"`
	RangingChannels []int  `json:"ranging_channels"`

	// Photodiodes for light seeking.
	LightRightChannel int `json:"light_right_channel"`
	LightLeftChannel  int `json:"light_left_channel"`
	LightWindow       int `json:"light_window"`

	LoadSensing bool `json:"load_sensing"`
	LoadWindow  int  `json:"load_window"`

	WalkSpeed   int     `json:"walk_speed"`
	TurnSpeed   int     `json:"turn_speed"`
	TurnDelayMS float64 `json:"turn_delay_ms"`
	BackDelayMS float64 `json:"back_delay_ms"`

	TimerPeriodMS int `json:"timer_period_ms"`

	// Probabilities per control cycle in permille.
	LookAroundPermille int `json:"look_around_permille"`
	NapPermille        int `json:"nap_permille"`
	NapMinS            int `json:"nap_min_s"`
	NapMaxS            int `json:"nap_max_s"`

	TurnMemoryInc int `json:"turn_memory_inc"`

	Telemetry bool `json:"telemetry"`
}

// DefaultConfig returns the orange HexBug profile.
func DefaultConfig() Config {
	return Config{
		Scan: scan.DefaultConfig(),
		Tilt: tilt.DefaultConfig(),
		Servo: robot.ServoMap{
			MinUS:    1172,
			MaxUS:    2033,
			MinAngle: 45,
			MaxAngle: -45,
		},
		ScanServoDeg: -25,

		RangingModel:    robot.GP2Y0A41SK0F.Name,
		RangingChannels: []int{0},

		LightRightChannel: 3,
		LightLeftChannel:  2,
		LightWindow:       5,

		LoadSensing: false,
		LoadWindow:  5,

		WalkSpeed:   -55,
		TurnSpeed:   35,
		TurnDelayMS: 500,
		BackDelayMS: 600,

		TimerPeriodMS: 50,

		LookAroundPermille: 30,
		NapPermille:        0,
		NapMinS:            5,
		NapMaxS:            20,

		TurnMemoryInc: 1,

		Telemetry: false,
	}
}

// LoadConfig reads a JSON file over DefaultConfig and validates the result.
// Fields missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if err := c.Scan.Validate(); err != nil {
		return err
	}
	if err := c.Tilt.Validate(); err != nil {
		return err
	}
	if err := c.Servo.Validate(); err != nil {
		return err
	}

	lo, hi := c.Servo.Bounds()
	if c.ScanServoDeg < lo || c.ScanServoDeg > hi {
		return &ConfigError{Field: "scan_servo_deg", Reason: fmt.Sprintf("%g outside servo range [%g, %g]", c.ScanServoDeg, lo, hi)}
	}
	if _, err := robot.ModelByName(c.RangingModel); err != nil {
		return &ConfigError{Field: "ranging_model", Reason: err.Error()}
	}
	for _, ch := range c.RangingChannels {
		if !validChannel(ch) {
			return &ConfigError{Field: "ranging_channels", Reason: fmt.Sprintf("channel %d out of range", ch)}
		}
	}
	if c.Scan.FindLight {
		if !validChannel(c.LightRightChannel) || !validChannel(c.LightLeftChannel) || c.LightRightChannel == c.LightLeftChannel {
			return &ConfigError{Field: "light_right_channel", Reason: "light sensing needs two distinct channels"}
		}
	}
	switch {
	case c.LightWindow < 1:
		return &ConfigError{Field: "light_window", Reason: "must be at least 1"}
	case c.LoadWindow < 1:
		return &ConfigError{Field: "load_window", Reason: "must be at least 1"}
	case c.TurnDelayMS < 0:
		return &ConfigError{Field: "turn_delay_ms", Reason: "must not be negative"}
	case c.BackDelayMS < 0:
		return &ConfigError{Field: "back_delay_ms", Reason: "must not be negative"}
	case c.TimerPeriodMS <= 0:
		return &ConfigError{Field: "timer_period_ms", Reason: "must be positive"}
	case !validPermille(c.LookAroundPermille):
		return &ConfigError{Field: "look_around_permille", Reason: "must lie in [0, 1000]"}
	case !validPermille(c.NapPermille):
		return &ConfigError{Field: "nap_permille", Reason: "must lie in [0, 1000]"}
	case c.NapMinS < 0 || c.NapMaxS < c.NapMinS:
		return &ConfigError{Field: "nap_min_s", Reason: fmt.Sprintf("nap bounds [%d, %d] are inverted or negative", c.NapMinS, c.NapMaxS)}
	case c.TurnMemoryInc <= 0:
		return &ConfigError{Field: "turn_memory_inc", Reason: "must be positive"}
	}
	return nil
}

// TimerPeriod returns the housekeeping cadence.
func (c Config) TimerPeriod() time.Duration {
	return time.Duration(c.TimerPeriodMS) * time.Millisecond
}

// Probe selects the ranging sensors for hw: the time-of-flight sensor if it
// answers, the configured Sharp IR channels otherwise.
func (c Config) Probe(hw robot.Hardware) (robot.Ranging, error) {
	model, err := robot.ModelByName(c.RangingModel)
	if err != nil {
		return robot.Ranging{}, err
	}
	return robot.ProbeRanging(hw.ToF, hw.ADC, model, c.RangingChannels)
}

func validChannel(ch int) bool {
	return ch >= 0 && ch < robot.ADCChannels
}

func validPermille(p int) bool {
	return p >= 0 && p <= 1000
}
