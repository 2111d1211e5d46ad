//go:build tinygo

package device

import (
	"errors"

	"github.com/calvinmclean/rcdrive"

	"tinygo.org/x/drivers/servo"
)

// Servo steers with a hobby servo. The steering value is mapped through the servo's calibration
type Servo struct {
	servo servo.Servo
	cal   rcdrive.Calibration
}

func NewServo(cfg ServoConfig) (*Servo, error) {
	if err := cfg.Calibration.Validate(); err != nil {
		return nil, err
	}

	s, err := servo.New(cfg.PWM, cfg.Pin)
	if err != nil {
		return nil, errors.New("error creating servo: " + err.Error())
	}

	steerer := &Servo{servo: s, cal: cfg.Calibration}
	return steerer, steerer.Steer(0)
}

// Steer implements drive.Steerer
func (s *Servo) Steer(v float32) error {
	s.servo.SetMicroseconds(int16(s.cal.Pulse(rcdrive.FromPercent(v).Value())))
	return nil
}
