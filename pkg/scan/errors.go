package scan

import (
	"errors"
	"fmt"
)

// ErrNoSensors is returned when the engine is built without a sensor.
var ErrNoSensors = errors.New("scan: no ranging sensors")

// ConfigError reports an inconsistent scan configuration.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("scan: invalid config %s: %s", e.Field, e.Reason)
}
