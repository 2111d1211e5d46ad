package rcdrive

import (
	"errors"
	"testing"
)

func TestTelemetryLine(t *testing.T) {
	tests := []struct {
		name     string
		in       Telemetry
		expected string
	}{
		{
			"Neutral",
			Telemetry{SteeringPulse: 1450, ThrottlePulse: 1400},
			"T s=1450 t=1400 st=0.000 th=0.000 l=0.000 r=0.000 a=0",
		},
		{
			"ArmedForwardRight",
			Telemetry{
				SteeringPulse: 1625,
				ThrottlePulse: 1625,
				Steering:      0.5,
				Throttle:      FromPercent(0.5),
				Left:          FromPercent(1),
				Right:         FromPercent(0),
				Armed:         true,
			},
			"T s=1625 t=1625 st=0.500 th=0.500 l=1.000 r=0.000 a=1",
		},
		{
			"Reverse",
			Telemetry{SteeringPulse: 1100, ThrottlePulse: 1050, Steering: -1, Throttle: MaxReverse, Left: MaxReverse, Right: FromPercent(-0.25)},
			"T s=1100 t=1050 st=-1.000 th=-1.000 l=-1.000 r=-0.250 a=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.String()
			if got != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, got)
			}

			parsed, err := ParseTelemetry(got + "\r\n")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed != tt.in {
				t.Errorf("expected=%+v, got=%+v", tt.in, parsed)
			}
		})
	}
}

func TestParseTelemetryErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"NotTelemetry", "rcdrive 0.1.0"},
		{"MissingValue", "T s"},
		{"UnknownField", "T s=1 x=2"},
		{"BadNumber", "T s=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTelemetry(tt.in)
			if err == nil {
				t.Errorf("expected error")
			}
		})
	}

	_, err := ParseTelemetry("armed")
	if !errors.Is(err, ErrNotTelemetry) {
		t.Errorf("expected ErrNotTelemetry, got %v", err)
	}
}
