package rcdrive

import (
	"math"
	"testing"
)

func TestFromPercent(t *testing.T) {
	tests := []struct {
		name     string
		in       float32
		expected Speed
	}{
		{"AboveMax", 1.5, FromPercent(1)},
		{"BelowMin", -2, FromPercent(-1)},
		{"Max", 1, MaxForward},
		{"Min", -1, MaxReverse},
		{"Zero", 0, Off},
		{"InRange", 0.25, Speed{0.25}},
		{"PositiveInf", float32(math.Inf(1)), MaxForward},
		{"NegativeInf", float32(math.Inf(-1)), MaxReverse},
		{"NaN", float32(math.NaN()), Off},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromPercent(tt.in)
			if got != tt.expected {
				t.Errorf("expected=%v, got=%v", tt.expected, got)
			}
		})
	}
}

func TestSpeedIsOff(t *testing.T) {
	if !FromPercent(0).IsOff() {
		t.Errorf("expected 0 to be off")
	}
	if FromPercent(0.01).IsOff() || FromPercent(-0.01).IsOff() {
		t.Errorf("expected nonzero speed to not be off")
	}
}

func TestChannel(t *testing.T) {
	tests := []struct {
		in       byte
		expected Channel
		str      string
	}{
		{'S', ChannelSteering, "Steering"},
		{'t', ChannelThrottle, "Throttle"},
		{'x', ChannelUnknown, "Unknown"},
	}

	for _, tt := range tests {
		got := ParseChannel(tt.in)
		if got != tt.expected {
			t.Errorf("ParseChannel(%q): expected=%v, got=%v", tt.in, tt.expected, got)
		}
		if got.String() != tt.str {
			t.Errorf("expected=%q, got=%q", tt.str, got.String())
		}
	}
}
