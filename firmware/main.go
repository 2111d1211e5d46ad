//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/commands"
	"github.com/calvinmclean/rcdrive/firmware/device"
	"github.com/calvinmclean/rcdrive/motor"
	"github.com/calvinmclean/rcdrive/sampler"
)

// strategy selects how the RC pulses are measured
const strategy = sampler.StrategyEdge

func main() {
	cfg := device.Config{
		Left: device.MotorConfig{
			PWM:     machine.PWM2,
			Forward: machine.GP4,
			Reverse: machine.GP5,
		},
		Right: device.MotorConfig{
			PWM:     machine.PWM3,
			Forward: machine.GP6,
			Reverse: machine.GP7,
		},
		Carrier: device.CarrierConfig{
			FreqHz:  motor.DefaultFrequency,
			Divider: motor.DefaultDivider,
		},
		Input: device.InputConfig{
			Steering:       machine.GP9,
			Throttle:       machine.GP11,
			Strategy:       strategy,
			EdgeTimeout:    100 * time.Millisecond,
			CounterFreqHz:  100,
			CounterDivider: 32,
		},
		Calibration: device.CalibrationConfig{
			Steering: rcdrive.CalibrationSteering,
			Throttle: rcdrive.CalibrationThrottle,
		},
		Interval: 10 * time.Millisecond,
	}

	d, err := device.New(cfg)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	go commands.Run(ctx, d.Loop, machine.Serial)

	err = d.Loop.Run(ctx)
	if err != nil {
		panic(err)
	}
}
