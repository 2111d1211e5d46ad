package rcdrive

import (
	"errors"
	"math"
	"strconv"
)

var ErrInvalidCalibration = errors.New("invalid calibration")

// CalibrationError is returned for a Calibration that does not satisfy min < mid < max
type CalibrationError struct {
	Calibration Calibration
}

func (err CalibrationError) Error() string {
	return ErrInvalidCalibration.Error() + " " + err.Calibration.String() + ": require min < mid < max"
}

func (err CalibrationError) Unwrap() error {
	return ErrInvalidCalibration
}

// Calibration is the min/mid/max pulse width of one channel. Mid is the neutral point
type Calibration struct {
	Min PulseWidth `yaml:"min"`
	Mid PulseWidth `yaml:"mid"`
	Max PulseWidth `yaml:"max"`
}

var (
	CalibrationSteering = Calibration{Min: 1100, Mid: 1450, Max: 1800}
	CalibrationThrottle = Calibration{Min: 1050, Mid: 1400, Max: 1850}
	CalibrationStandard = Calibration{Min: 1000, Mid: 1500, Max: 2000}
)

// NewCalibration returns a Calibration after checking that min < mid < max
func NewCalibration(min, mid, max PulseWidth) (Calibration, error) {
	c := Calibration{Min: min, Mid: mid, Max: max}
	return c, c.Validate()
}

// Preset returns one of the known calibration tables, numbered 1 to 3
func Preset(n int) (Calibration, bool) {
	switch n {
	case 1:
		return CalibrationSteering, true
	case 2:
		return CalibrationThrottle, true
	case 3:
		return CalibrationStandard, true
	default:
		return Calibration{}, false
	}
}

func (c Calibration) Validate() error {
	if c.Min < c.Mid && c.Mid < c.Max {
		return nil
	}
	return CalibrationError{c}
}

func (c Calibration) String() string {
	return "{" + strconv.Itoa(int(c.Min)) + "," + strconv.Itoa(int(c.Mid)) + "," + strconv.Itoa(int(c.Max)) + "}"
}

// Map converts a pulse width to a signed value. [Min, Mid] maps to [-1, 0] and [Mid, Max] maps to [0, 1].
// Pulses outside the calibrated range are extrapolated, not clamped.
func (c Calibration) Map(pulse PulseWidth) float32 {
	offset := int64(pulse) - int64(c.Mid)
	if pulse <= c.Mid {
		return float32(offset) / float32(c.Mid-c.Min)
	}
	return float32(offset) / float32(c.Max-c.Mid)
}

// Pulse is the inverse of Map, rounded to the nearest microsecond
func (c Calibration) Pulse(v float32) PulseWidth {
	span := c.Max - c.Mid
	if v <= 0 {
		span = c.Mid - c.Min
	}
	return c.Mid + PulseWidth(math.Round(float64(v)*float64(span)))
}
