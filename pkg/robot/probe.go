package robot

// RangingKind tells how the ground ahead is sampled.
type RangingKind int

const (
	// RangingToF is a single time-of-flight sensor swept with the head.
	RangingToF RangingKind = iota
	// RangingIRSweep is a single analog IR sensor swept with the head.
	RangingIRSweep
	// RangingIRArray is a fixed array of analog IR sensors; no sweeping.
	RangingIRArray
)

func (k RangingKind) String() string {
	switch k {
	case RangingToF:
		return "tof"
	case RangingIRSweep:
		return "ir-sweep"
	case RangingIRArray:
		return "ir-array"
	default:
		return "unknown"
	}
}

// Ranging is the sensor complement chosen once at startup.
type Ranging struct {
	Kind    RangingKind
	Sensors []RangingSensor
}

// Array reports whether the sensors form a fixed array.
func (r Ranging) Array() bool {
	return r.Kind == RangingIRArray
}

// ProbeRanging picks the ranging sensors. The preferred time-of-flight
// sensor wins if present and ready; otherwise one Sharp IR sensor is created
// per A/D channel. One channel means the head sweeps, several mean a fixed
// array.
func ProbeRanging(preferred RangingSensor, adc ADC, model SharpModel, channels []int) (Ranging, error) {
	if preferred != nil && preferred.Ready() {
		return Ranging{Kind: RangingToF, Sensors: []RangingSensor{preferred}}, nil
	}
	if adc == nil || len(channels) == 0 {
		return Ranging{}, ErrNoRangingSensor
	}

	sensors := make([]RangingSensor, 0, len(channels))
	for _, ch := range channels {
		s, err := NewSharpIR(adc, ch, model)
		if err != nil {
			return Ranging{}, err
		}
		sensors = append(sensors, s)
	}

	kind := RangingIRSweep
	if len(sensors) > 1 {
		kind = RangingIRArray
	}
	return Ranging{Kind: kind, Sensors: sensors}, nil
}
