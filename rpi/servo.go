//go:build linux

package rpi

import (
	"errors"
	"strconv"

	"github.com/calvinmclean/rcdrive"

	"github.com/stianeikeland/go-rpio/v4"
)

const (
	ServoFreq  = 50    // Hz
	ServoCycle = 20000 // one step per microsecond at ServoFreq
)

// Raspberry Pi pins with hardware PWM. 12/18 and 13/19 share a channel
var supportPWM = map[int]bool{
	12: true,
	13: true,
	18: true,
	19: true,
}

// Servo is a steering servo on a hardware PWM pin. rpio.Open must be called first
type Servo struct {
	pin rpio.Pin
	cal rcdrive.Calibration
}

// NewServo centers the servo on pinNumber. cal maps steering values to pulse widths
func NewServo(pinNumber int, cal rcdrive.Calibration) (*Servo, error) {
	if !supportPWM[pinNumber] {
		return nil, errors.New("pin " + strconv.Itoa(pinNumber) + " does not support hardware PWM")
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	s := &Servo{pin: rpio.Pin(pinNumber), cal: cal}
	s.pin.Mode(rpio.Pwm)
	s.pin.Freq(ServoFreq * ServoCycle)

	return s, s.Steer(0)
}

// Steer implements drive.Steerer
func (s *Servo) Steer(v float32) error {
	s.pin.DutyCycle(servoDuty(s.cal, v), ServoCycle)
	return nil
}

// servoDuty is the high time in microseconds for steering value v, clamped to the calibration
func servoDuty(cal rcdrive.Calibration, v float32) uint32 {
	return uint32(cal.Pulse(rcdrive.FromPercent(v).Value()))
}
