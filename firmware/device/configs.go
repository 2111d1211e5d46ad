//go:build tinygo

package device

import (
	"machine"
	"time"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/sampler"

	"tinygo.org/x/drivers/servo"
)

// MotorConfig is one H-bridge on a single PWM slice
type MotorConfig struct {
	PWM     servo.PWM
	Forward machine.Pin
	Reverse machine.Pin
}

// CarrierConfig has the motor PWM frequency and divider shared by both slices
type CarrierConfig struct {
	FreqHz  uint32
	Divider uint8
}

// InputConfig has the RC receiver pins and how they are sampled
type InputConfig struct {
	Steering machine.Pin
	Throttle machine.Pin
	Strategy sampler.Strategy

	// EdgeTimeout bounds edge sampling. 0 waits forever
	EdgeTimeout time.Duration

	// CounterFreqHz and CounterDivider set the wrap of the level-gated counters
	CounterFreqHz  uint32
	CounterDivider uint8
}

// ServoConfig has device-level values for setting up the optional steering Servo
type ServoConfig struct {
	Pin         machine.Pin
	PWM         servo.PWM
	Calibration rcdrive.Calibration
}

// CalibrationConfig has the per-channel receiver calibrations
type CalibrationConfig struct {
	Steering rcdrive.Calibration
	Throttle rcdrive.Calibration
}

type Config struct {
	Left        MotorConfig
	Right       MotorConfig
	Carrier     CarrierConfig
	Input       InputConfig
	Servo       ServoConfig
	Calibration CalibrationConfig
	Interval    time.Duration
}
