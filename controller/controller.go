package controller

import (
	"context"
	"errors"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/sampler"

	"golang.org/x/sync/errgroup"
)

// Channel pairs the sampler of one RC input with its calibration
type Channel struct {
	Sampler     sampler.Sampler
	Calibration rcdrive.Calibration
}

// Controller reads the steering and throttle channels of an RC receiver. Whether reads block until a new pulse
// completes or return the latest hardware counter value depends only on the samplers it was built with.
type Controller struct {
	steering Channel
	throttle Channel

	verbose bool
}

// Reading is one sample of both channels
type Reading struct {
	SteeringPulse rcdrive.PulseWidth
	ThrottlePulse rcdrive.PulseWidth
	Steering      float32
	Throttle      rcdrive.Speed
}

// New initializes the Controller with the provided channels
func New(steering, throttle Channel) (*Controller, error) {
	if steering.Sampler == nil || throttle.Sampler == nil {
		return nil, errors.New("steering and throttle samplers are required")
	}
	if err := steering.Calibration.Validate(); err != nil {
		return nil, errors.New("error in steering calibration: " + err.Error())
	}
	if err := throttle.Calibration.Validate(); err != nil {
		return nil, errors.New("error in throttle calibration: " + err.Error())
	}

	return &Controller{
		steering: steering,
		throttle: throttle,
	}, nil
}

// Steering returns the steering input mapped to [-1, 1]. Pulses outside the calibration are clamped
func (c *Controller) Steering(ctx context.Context) (float32, error) {
	_, v, err := c.readSteering(ctx)
	return v, err
}

// Throttle returns the throttle input as a Speed
func (c *Controller) Throttle(ctx context.Context) (rcdrive.Speed, error) {
	_, v, err := c.readThrottle(ctx)
	return v, err
}

// Read samples both channels concurrently. The channels are not synchronized: one pulse may be up to
// a frame ahead of the other.
func (c *Controller) Read(ctx context.Context) (Reading, error) {
	var r Reading
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		r.SteeringPulse, r.Steering, err = c.readSteering(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		r.ThrottlePulse, r.Throttle, err = c.readThrottle(gctx)
		return err
	})

	err := g.Wait()
	if err != nil {
		return Reading{}, err
	}

	if c.verbose {
		println("pulse_us:", r.SteeringPulse, r.ThrottlePulse)
	}

	return r, nil
}

// Calibration returns the calibration currently used for ch
func (c *Controller) Calibration(ch rcdrive.Channel) rcdrive.Calibration {
	if ch == rcdrive.ChannelThrottle {
		return c.throttle.Calibration
	}
	return c.steering.Calibration
}

// SetCalibration replaces the calibration of one channel. It must not be called concurrently with reads
func (c *Controller) SetCalibration(ch rcdrive.Channel, cal rcdrive.Calibration) error {
	if err := cal.Validate(); err != nil {
		return err
	}

	switch ch {
	case rcdrive.ChannelSteering:
		c.steering.Calibration = cal
	case rcdrive.ChannelThrottle:
		c.throttle.Calibration = cal
	default:
		return errors.New("unknown channel: " + ch.String())
	}

	if c.verbose {
		println("calibration", ch.String(), cal.String())
	}
	return nil
}

// Verbose sets the Controller to Verbose mode and logs every pulse
func (c *Controller) Verbose() {
	c.verbose = true
}

func (c *Controller) readSteering(ctx context.Context) (rcdrive.PulseWidth, float32, error) {
	pulse, err := c.steering.Sampler.Sample(ctx)
	if err != nil {
		return 0, 0, err
	}
	return pulse, clamp(c.steering.Calibration.Map(pulse)), nil
}

func (c *Controller) readThrottle(ctx context.Context) (rcdrive.PulseWidth, rcdrive.Speed, error) {
	pulse, err := c.throttle.Sampler.Sample(ctx)
	if err != nil {
		return 0, rcdrive.Off, err
	}
	return pulse, rcdrive.FromPercent(c.throttle.Calibration.Map(pulse)), nil
}

func clamp(v float32) float32 {
	return rcdrive.FromPercent(v).Value()
}
