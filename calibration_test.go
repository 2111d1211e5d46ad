package rcdrive

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestCalibrationMap(t *testing.T) {
	tests := []struct {
		name     string
		cal      Calibration
		pulse    PulseWidth
		expected float32
	}{
		{"SteeringMin", CalibrationSteering, 1100, -1},
		{"SteeringMid", CalibrationSteering, 1450, 0},
		{"SteeringMax", CalibrationSteering, 1800, 1},
		{"SteeringHalfUp", CalibrationSteering, 1625, 0.5},
		{"StandardHalfDown", CalibrationStandard, 1250, -0.5},
		{"StandardHalfUp", CalibrationStandard, 1750, 0.5},
		{"ThrottleAsymmetricUpper", CalibrationThrottle, 1625, 0.5},
		{"ThrottleAsymmetricLower", CalibrationThrottle, 1225, -0.5},
		{"ExtrapolateAboveMax", CalibrationStandard, 2500, 2},
		{"ExtrapolateBelowMin", CalibrationStandard, 0, -3},
		{"Negative", CalibrationStandard, -500, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cal.Map(tt.pulse)
			if !almostEqual(got, tt.expected) {
				t.Errorf("expected=%v, got=%v", tt.expected, got)
			}
		})
	}
}

func TestCalibrationMapExactZeroAtMid(t *testing.T) {
	for _, cal := range []Calibration{CalibrationSteering, CalibrationThrottle, CalibrationStandard} {
		if got := cal.Map(cal.Mid); got != 0 {
			t.Errorf("%v: expected exactly 0 at mid, got=%v", cal, got)
		}
	}
}

func TestCalibrationMapMonotonic(t *testing.T) {
	for _, cal := range []Calibration{CalibrationSteering, CalibrationThrottle, CalibrationStandard} {
		prev := cal.Map(cal.Min - 200)
		for p := cal.Min - 199; p <= cal.Max+200; p++ {
			got := cal.Map(p)
			if got <= prev {
				t.Fatalf("%v: not increasing at %d: %v <= %v", cal, p, got, prev)
			}
			prev = got
		}
	}
}

func TestCalibrationMapContinuousAtMid(t *testing.T) {
	cal := CalibrationThrottle
	below := cal.Map(cal.Mid - 1)
	above := cal.Map(cal.Mid + 1)
	if below >= 0 || above <= 0 {
		t.Errorf("expected sign change around mid, got below=%v above=%v", below, above)
	}
	if below < -0.01 || above > 0.01 {
		t.Errorf("expected values near 0 around mid, got below=%v above=%v", below, above)
	}
}

func TestCalibrationPulseRoundTrip(t *testing.T) {
	for _, cal := range []Calibration{CalibrationSteering, CalibrationThrottle, CalibrationStandard} {
		for p := cal.Min; p <= cal.Max; p++ {
			got := cal.Pulse(cal.Map(p))
			if diff := got - p; diff > 1 || diff < -1 {
				t.Fatalf("%v: expected=%d, got=%d", cal, p, got)
			}
		}
	}
}

func TestNewCalibration(t *testing.T) {
	tests := []struct {
		name          string
		min, mid, max PulseWidth
		valid         bool
	}{
		{"Valid", 1000, 1500, 2000, true},
		{"MidEqualsMin", 1000, 1000, 2000, false},
		{"MidEqualsMax", 1000, 2000, 2000, false},
		{"Reversed", 2000, 1500, 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalibration(tt.min, tt.mid, tt.max)
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidCalibration) {
				t.Errorf("expected ErrInvalidCalibration, got %v", err)
			}
		})
	}
}

func TestPreset(t *testing.T) {
	tests := []struct {
		n        int
		expected Calibration
		ok       bool
	}{
		{1, CalibrationSteering, true},
		{2, CalibrationThrottle, true},
		{3, CalibrationStandard, true},
		{0, Calibration{}, false},
		{4, Calibration{}, false},
	}

	for _, tt := range tests {
		got, ok := Preset(tt.n)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("Preset(%d): expected=%v/%v, got=%v/%v", tt.n, tt.expected, tt.ok, got, ok)
		}
	}
}
