package robot

import (
	"fmt"
	"math"
)

// SharpModel holds the calibration of one Sharp IR sensor type.
// RangeCM = c0 + c1*exp(-c2*x) + c3*exp(-c4*x) for a raw A/D count x,
// a double exponential fit of the datasheet curve.
type SharpModel struct {
	Name string
	Coef [5]float64
}

// Supported Sharp IR sensors.
var (
	// GP2Y0A41SK0F covers 4 to 30 cm.
	GP2Y0A41SK0F = SharpModel{
		Name: "GP2Y0A41SK0F",
		Coef: [5]float64{-1.995, 12.9, 0.000329958, 93.928, 0.003793},
	}
	// GP2Y0AF15X covers 1.5 to 15 cm.
	GP2Y0AF15X = SharpModel{
		Name: "GP2Y0AF15X",
		Coef: [5]float64{1.3249, 20.436, 0.0021805, 24.613, 0.064151},
	}
)

// ModelByName resolves a model name; the empty name selects GP2Y0A41SK0F.
func ModelByName(name string) (SharpModel, error) {
	switch name {
	case "", GP2Y0A41SK0F.Name:
		return GP2Y0A41SK0F, nil
	case GP2Y0AF15X.Name:
		return GP2Y0AF15X, nil
	}
	return SharpModel{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// CM converts a raw count to centimeters.
func (m SharpModel) CM(raw int) float64 {
	c := m.Coef
	x := float64(raw)
	return c[0] + c[1]*math.Exp(-c[2]*x) + c[3]*math.Exp(-c[4]*x)
}

// SharpIR is an analog Sharp IR ranging sensor on one A/D channel.
type SharpIR struct {
	adc   ADC
	ch    int
	model SharpModel
}

// NewSharpIR registers ch with the A/D converter and returns the sensor.
func NewSharpIR(adc ADC, ch int, model SharpModel) (*SharpIR, error) {
	if ch < 0 || ch >= ADCChannels {
		return nil, fmt.Errorf("%w: %d", ErrBadChannel, ch)
	}
	adc.EnableChannel(ch)
	return &SharpIR{adc: adc, ch: ch, model: model}, nil
}

// Raw returns the buffered count of the sensor's channel.
func (s *SharpIR) Raw() int {
	data := s.adc.Data()
	if s.ch >= len(data) {
		return 0
	}
	return data[s.ch]
}

// RangeCM returns the calibrated distance from the last A/D update.
func (s *SharpIR) RangeCM() float64 {
	return s.model.CM(s.Raw())
}

// Ready reports whether the A/D converter is delivering data.
func (s *SharpIR) Ready() bool {
	return s.adc.Ready()
}

// Name identifies the sensor model.
func (s *SharpIR) Name() string {
	return s.model.Name
}

// Channel returns the A/D channel.
func (s *SharpIR) Channel() int {
	return s.ch
}
