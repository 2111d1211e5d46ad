package drive

import (
	"testing"

	"github.com/calvinmclean/rcdrive"
)

func TestMix(t *testing.T) {
	tests := []struct {
		name          string
		throttle      float32
		steering      float32
		expectedLeft  float32
		expectedRight float32
	}{
		{"Neutral", 0, 0, 0, 0},
		{"Straight", 0.5, 0, 0.5, 0.5},
		{"Reverse", -0.5, 0, -0.5, -0.5},
		{"SpinRight", 0, 0.5, 0.5, -0.5},
		{"SpinLeft", 0, -1, -1, 1},
		{"ArcRight", 0.5, 0.25, 0.75, 0.25},
		{"ClampedOuterWheel", 1, 0.5, 1, 0.5},
		{"ClampedBothWheels", 1, -1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := Mix(rcdrive.FromPercent(tt.throttle), tt.steering)
			if left.Value() != tt.expectedLeft || right.Value() != tt.expectedRight {
				t.Errorf("expected=%v/%v, got=%v/%v", tt.expectedLeft, tt.expectedRight, left, right)
			}
		})
	}
}
