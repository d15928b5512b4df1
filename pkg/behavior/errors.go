package behavior

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingHardware is returned when a required collaborator is nil.
	ErrMissingHardware = errors.New("behavior: missing hardware")

	// ErrNapBounds is returned for nap bounds with min > max or min < 0.
	ErrNapBounds = errors.New("behavior: invalid nap bounds")
)

// ConfigError reports an inconsistent behavior configuration.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("behavior: invalid config %s: %s", e.Field, e.Reason)
}
