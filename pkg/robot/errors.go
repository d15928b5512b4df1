package robot

import "errors"

var (
	// ErrNoRangingSensor is returned when neither the preferred sensor nor
	// any analog channel is available.
	ErrNoRangingSensor = errors.New("robot: no ranging sensor available")

	// ErrBadChannel is returned for an A/D channel outside 0..ADCChannels-1.
	ErrBadChannel = errors.New("robot: invalid A/D channel")

	// ErrUnknownModel is returned for an unrecognized Sharp IR model name.
	ErrUnknownModel = errors.New("robot: unknown IR sensor model")

	// ErrServoRange is returned when a servo range has zero width.
	ErrServoRange = errors.New("robot: degenerate servo range")
)
