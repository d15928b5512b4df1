// Package config provides environment helpers for go-hexbug commands.
package config

import (
	"os"

	"github.com/google/uuid"
)

// Defaults used when the environment is silent.
const (
	DefaultSerialPort    = "/dev/ttyUSB0"
	DefaultHTTPPort      = "8080"
	DefaultCollectorPort = "8090"
	DefaultDBPath        = "hexbug-telemetry.db"
)

// RobotID returns the robot identity from HEXBUG_ID.
// Falls back to a fresh random UUID so telemetry from two unnamed robots
// never collides.
func RobotID() string {
	if id := os.Getenv("HEXBUG_ID"); id != "" {
		return id
	}
	return "hexbug-" + uuid.NewString()[:8]
}

// SerialPort returns the co-processor serial device from HEXBUG_SERIAL.
func SerialPort() string {
	return envOr("HEXBUG_SERIAL", DefaultSerialPort)
}

// HTTPPort returns the local dashboard port from HEXBUG_HTTP_PORT.
func HTTPPort() string {
	return envOr("HEXBUG_HTTP_PORT", DefaultHTTPPort)
}

// CollectorURL returns the telemetry uplink from HEXBUG_COLLECTOR_URL.
// Empty means no uplink.
func CollectorURL() string {
	return os.Getenv("HEXBUG_COLLECTOR_URL")
}

// LogLevel returns LOG_LEVEL, defaulting to "info".
func LogLevel() string {
	return envOr("LOG_LEVEL", "info")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
