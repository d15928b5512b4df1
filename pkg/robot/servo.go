package robot

import "math"

// ServoMap converts arm angles to pulse widths. The angle range may be
// inverted (MinAngle > MaxAngle) when the servo is mounted mirrored.
type ServoMap struct {
	MinUS    int     `json:"min_us"`
	MaxUS    int     `json:"max_us"`
	MinAngle float64 `json:"min_deg"`
	MaxAngle float64 `json:"max_deg"`
}

// Validate rejects zero-width ranges.
func (m ServoMap) Validate() error {
	if m.MinUS == m.MaxUS || m.MinAngle == m.MaxAngle {
		return ErrServoRange
	}
	return nil
}

// Clamp limits an angle to the servo's travel.
func (m ServoMap) Clamp(deg float64) float64 {
	lo, hi := m.Bounds()
	return math.Min(math.Max(deg, lo), hi)
}

// Bounds returns the travel as (lowest, highest) angle.
func (m ServoMap) Bounds() (lo, hi float64) {
	return math.Min(m.MinAngle, m.MaxAngle), math.Max(m.MinAngle, m.MaxAngle)
}

// PulseUS returns the pulse width for an angle, clamped to the travel.
func (m ServoMap) PulseUS(deg float64) int {
	deg = m.Clamp(deg)
	f := (deg - m.MinAngle) / (m.MaxAngle - m.MinAngle)
	return int(math.Round(float64(m.MinUS) + f*float64(m.MaxUS-m.MinUS)))
}
