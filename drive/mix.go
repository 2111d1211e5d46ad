package drive

import "github.com/calvinmclean/rcdrive"

// Mix converts throttle and steering into left and right wheel speeds for a differential drive. Positive steering
// speeds up the left wheel and slows the right one. Each side is clamped separately, so a full turn at full
// throttle keeps the outer wheel at MaxForward.
func Mix(throttle rcdrive.Speed, steering float32) (left, right rcdrive.Speed) {
	t := throttle.Value()
	return rcdrive.FromPercent(t + steering), rcdrive.FromPercent(t - steering)
}
