//go:build tinygo

package device

import (
	"errors"
	"machine"

	"github.com/calvinmclean/rcdrive/controller"
	"github.com/calvinmclean/rcdrive/drive"
	"github.com/calvinmclean/rcdrive/motor"
	"github.com/calvinmclean/rcdrive/sampler"
)

// Device is the assembled drive: motors, RC inputs and the loop that connects them
type Device struct {
	Loop *drive.Loop
}

// New initializes the hardware with the provided config
func New(cfg Config) (*Device, error) {
	carrier, err := motor.NewCarrier(machine.CPUFrequency(), cfg.Carrier.FreqHz, cfg.Carrier.Divider)
	if err != nil {
		return nil, errors.New("error computing motor carrier: " + err.Error())
	}

	left, err := NewHBridge(cfg.Left, carrier)
	if err != nil {
		return nil, errors.New("error creating left motor: " + err.Error())
	}
	right, err := NewHBridge(cfg.Right, carrier)
	if err != nil {
		return nil, errors.New("error creating right motor: " + err.Error())
	}
	StartInPhase(cfg.Left.Forward, cfg.Right.Forward)
	motors := motor.New(left, right)

	steering, err := newSampler(cfg.Input, cfg.Input.Steering)
	if err != nil {
		return nil, errors.New("error creating steering sampler: " + err.Error())
	}
	throttle, err := newSampler(cfg.Input, cfg.Input.Throttle)
	if err != nil {
		return nil, errors.New("error creating throttle sampler: " + err.Error())
	}

	c, err := controller.New(
		controller.Channel{Sampler: steering, Calibration: cfg.Calibration.Steering},
		controller.Channel{Sampler: throttle, Calibration: cfg.Calibration.Throttle},
	)
	if err != nil {
		return nil, err
	}

	opts := []drive.Option{
		drive.WithTelemetry(machine.Serial),
		drive.WithInterval(cfg.Interval),
	}
	if cfg.Servo.PWM != nil {
		s, err := NewServo(cfg.Servo)
		if err != nil {
			return nil, err
		}
		opts = append(opts, drive.WithSteerer(s))
	}

	return &Device{
		Loop: drive.New(c, motors, opts...),
	}, nil
}

func newSampler(cfg InputConfig, pin machine.Pin) (sampler.Sampler, error) {
	switch cfg.Strategy {
	case sampler.StrategyCounter:
		counterCfg, err := sampler.NewCounterConfig(machine.CPUFrequency(), cfg.CounterFreqHz, cfg.CounterDivider)
		if err != nil {
			return nil, err
		}
		counter, err := NewLevelCounter(pin, counterCfg)
		if err != nil {
			return nil, err
		}
		return sampler.NewCounterSampler(counter, counterCfg, sampler.WithReset())
	default:
		src, err := NewPinEdgeSource(pin)
		if err != nil {
			return nil, err
		}
		return sampler.NewEdgeSampler(src, sampler.WithTimeout(cfg.EdgeTimeout)), nil
	}
}
