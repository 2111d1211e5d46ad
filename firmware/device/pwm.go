//go:build tinygo

package device

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/volatile"
	"strconv"

	"github.com/calvinmclean/rcdrive/motor"

	"tinygo.org/x/drivers/servo"
)

// sliceRegisters are the timing registers of one PWM slice
type sliceRegisters struct {
	div *volatile.Register32
	top *volatile.Register32
	ctr *volatile.Register32
}

var slices = [8]sliceRegisters{
	{&rp.PWM.CH0_DIV, &rp.PWM.CH0_TOP, &rp.PWM.CH0_CTR},
	{&rp.PWM.CH1_DIV, &rp.PWM.CH1_TOP, &rp.PWM.CH1_CTR},
	{&rp.PWM.CH2_DIV, &rp.PWM.CH2_TOP, &rp.PWM.CH2_CTR},
	{&rp.PWM.CH3_DIV, &rp.PWM.CH3_TOP, &rp.PWM.CH3_CTR},
	{&rp.PWM.CH4_DIV, &rp.PWM.CH4_TOP, &rp.PWM.CH4_CTR},
	{&rp.PWM.CH5_DIV, &rp.PWM.CH5_TOP, &rp.PWM.CH5_CTR},
	{&rp.PWM.CH6_DIV, &rp.PWM.CH6_TOP, &rp.PWM.CH6_CTR},
	{&rp.PWM.CH7_DIV, &rp.PWM.CH7_TOP, &rp.PWM.CH7_CTR},
}

// pwmSlice is the slice that drives pin. GPn belongs to slice (n/2) mod 8
func pwmSlice(pin machine.Pin) uint8 {
	return uint8(pin>>1) & 7
}

// PWMOutput is one channel of a PWM slice running the shared motor carrier
type PWMOutput struct {
	pwm     servo.PWM
	channel uint8
	carrier motor.Carrier
}

var _ motor.Output = &PWMOutput{}

// NewHBridge sets up cfg's slice with the carrier's divider and top and returns its two pins as an H-bridge.
// Call StartInPhase once every H-bridge is created.
func NewHBridge(cfg MotorConfig, carrier motor.Carrier) (motor.HBridge, error) {
	slice := pwmSlice(cfg.Forward)
	if pwmSlice(cfg.Reverse) != slice {
		return motor.HBridge{}, errors.New("forward and reverse pins must share a PWM slice")
	}

	// Configure enables the slice and muxes the pins; the timing it picks is replaced below
	err := cfg.PWM.Configure(machine.PWMConfig{Period: carrier.Period()})
	if err != nil {
		return motor.HBridge{}, errors.New("error configuring motor PWM: " + err.Error())
	}

	regs := slices[slice]
	regs.div.Set(uint32(carrier.Divider) << rp.PWM_CH0_DIV_INT_Pos)
	regs.top.Set(uint32(carrier.Top))

	forward, err := newPWMOutput(cfg.PWM, cfg.Forward, carrier)
	if err != nil {
		return motor.HBridge{}, err
	}
	reverse, err := newPWMOutput(cfg.PWM, cfg.Reverse, carrier)
	if err != nil {
		return motor.HBridge{}, err
	}

	return motor.HBridge{Forward: forward, Reverse: reverse}, nil
}

// StartInPhase restarts the slices driving pins from a zero count at the same instant
func StartInPhase(pins ...machine.Pin) {
	var mask uint32
	for _, pin := range pins {
		mask |= 1 << pwmSlice(pin)
	}

	rp.PWM.EN.ClearBits(mask)
	for _, pin := range pins {
		slices[pwmSlice(pin)].ctr.Set(0)
	}
	rp.PWM.EN.SetBits(mask)
}

func newPWMOutput(pwm servo.PWM, pin machine.Pin, carrier motor.Carrier) (*PWMOutput, error) {
	ch, err := pwm.Channel(pin)
	if err != nil {
		return nil, errors.New("error getting PWM channel: " + err.Error())
	}

	o := &PWMOutput{pwm: pwm, channel: ch, carrier: carrier}
	return o, o.SetFullyOff()
}

// SetDutyPercent implements motor.Output. 100 is a compare value above top, which keeps the pin high
func (o *PWMOutput) SetDutyPercent(percent uint8) error {
	if percent > 100 {
		return errors.New("invalid duty cycle: " + strconv.Itoa(int(percent)))
	}
	o.pwm.Set(o.channel, o.carrier.Duty(percent))
	return nil
}

// SetFullyOff implements motor.Output
func (o *PWMOutput) SetFullyOff() error {
	o.pwm.Set(o.channel, 0)
	return nil
}
