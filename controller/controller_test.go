package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/sampler"
	. "github.com/smartystreets/goconvey/convey"
)

// testSampler returns pulses in order and repeats the last one
type testSampler struct {
	pulses []rcdrive.PulseWidth
	calls  atomic.Int32
}

func (s *testSampler) Sample(ctx context.Context) (rcdrive.PulseWidth, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	i := int(s.calls.Add(1)) - 1
	if i >= len(s.pulses) {
		i = len(s.pulses) - 1
	}
	return s.pulses[i], nil
}

// blockingSampler never sees a pulse
type blockingSampler struct{}

func (blockingSampler) Sample(ctx context.Context) (rcdrive.PulseWidth, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// testCounter is a counter that always holds the same value
type testCounter uint32

func (c testCounter) Counter() uint32  { return uint32(c) }
func (c testCounter) SetCounter(uint32) {}

func steady(p rcdrive.PulseWidth) *testSampler {
	return &testSampler{pulses: []rcdrive.PulseWidth{p}}
}

func TestNew(t *testing.T) {
	Convey("samplers are required", t, func() {
		_, err := New(Channel{Calibration: rcdrive.CalibrationSteering}, Channel{Sampler: steady(1), Calibration: rcdrive.CalibrationThrottle})
		So(err, ShouldBeError)
	})

	Convey("calibrations are validated", t, func() {
		_, err := New(
			Channel{Sampler: steady(1), Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: steady(1), Calibration: rcdrive.Calibration{Min: 2000, Mid: 1500, Max: 1000}},
		)
		So(err, ShouldBeError)
	})
}

func TestController(t *testing.T) {
	ctx := context.Background()

	Convey("with steady neutral inputs", t, func() {
		c, err := New(
			Channel{Sampler: steady(1450), Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: steady(1400), Calibration: rcdrive.CalibrationThrottle},
		)
		So(err, ShouldBeNil)

		steering, err := c.Steering(ctx)
		So(err, ShouldBeNil)
		So(steering, ShouldEqual, float32(0))

		throttle, err := c.Throttle(ctx)
		So(err, ShouldBeNil)
		So(throttle, ShouldResemble, rcdrive.Off)
	})

	Convey("steering is clamped to the calibrated travel", t, func() {
		c, _ := New(
			Channel{Sampler: &testSampler{pulses: []rcdrive.PulseWidth{2200, 600, 1625}}, Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: steady(1400), Calibration: rcdrive.CalibrationThrottle},
		)

		high, _ := c.Steering(ctx)
		low, _ := c.Steering(ctx)
		half, _ := c.Steering(ctx)
		So(high, ShouldEqual, float32(1))
		So(low, ShouldEqual, float32(-1))
		So(half, ShouldAlmostEqual, 0.5, 1e-6)
	})

	Convey("throttle becomes a clamped Speed", t, func() {
		c, _ := New(
			Channel{Sampler: steady(1450), Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: &testSampler{pulses: []rcdrive.PulseWidth{1850, 2500, 1050, 0}}, Calibration: rcdrive.CalibrationThrottle},
		)

		for _, expected := range []rcdrive.Speed{rcdrive.MaxForward, rcdrive.MaxForward, rcdrive.MaxReverse, rcdrive.MaxReverse} {
			got, err := c.Throttle(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, expected)
		}
	})

	Convey("Read samples both channels", t, func() {
		c, _ := New(
			Channel{Sampler: steady(1625), Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: steady(1625), Calibration: rcdrive.CalibrationThrottle},
		)

		r, err := c.Read(ctx)
		So(err, ShouldBeNil)
		So(r.SteeringPulse, ShouldEqual, rcdrive.PulseWidth(1625))
		So(r.ThrottlePulse, ShouldEqual, rcdrive.PulseWidth(1625))
		So(r.Steering, ShouldAlmostEqual, 0.5, 1e-6)
		So(r.Throttle.Value(), ShouldAlmostEqual, 0.5, 1e-6)
	})

	Convey("a stalled channel blocks Read until the context ends", t, func() {
		throttle := steady(1400)
		c, _ := New(
			Channel{Sampler: blockingSampler{}, Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: throttle, Calibration: rcdrive.CalibrationThrottle},
		)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.Read(ctx)
		So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)

		Convey("the other channel is still sampled", func() {
			So(throttle.calls.Load(), ShouldEqual, int32(1))
		})
	})

	Convey("a counter sampler gives an immediate composition", t, func() {
		cfg := sampler.CounterConfig{ClockHz: 1_000_000, Divider: 1, Top: 0xFFFF}
		steering, err := sampler.NewCounterSampler(testCounter(1800), cfg)
		So(err, ShouldBeNil)
		throttle, err := sampler.NewCounterSampler(testCounter(1050), cfg)
		So(err, ShouldBeNil)

		c, err := New(
			Channel{Sampler: steering, Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: throttle, Calibration: rcdrive.CalibrationThrottle},
		)
		So(err, ShouldBeNil)

		r, err := c.Read(ctx)
		So(err, ShouldBeNil)
		So(r.Steering, ShouldEqual, float32(1))
		So(r.Throttle, ShouldResemble, rcdrive.MaxReverse)
	})

	Convey("SetCalibration", t, func() {
		c, _ := New(
			Channel{Sampler: steady(1500), Calibration: rcdrive.CalibrationSteering},
			Channel{Sampler: steady(1500), Calibration: rcdrive.CalibrationThrottle},
		)

		Convey("replaces the calibration of one channel", func() {
			So(c.SetCalibration(rcdrive.ChannelSteering, rcdrive.CalibrationStandard), ShouldBeNil)
			So(c.Calibration(rcdrive.ChannelSteering), ShouldResemble, rcdrive.CalibrationStandard)
			So(c.Calibration(rcdrive.ChannelThrottle), ShouldResemble, rcdrive.CalibrationThrottle)

			steering, _ := c.Steering(ctx)
			So(steering, ShouldEqual, float32(0))
		})

		Convey("rejects invalid calibrations", func() {
			err := c.SetCalibration(rcdrive.ChannelThrottle, rcdrive.Calibration{Min: 1, Mid: 1, Max: 1})
			So(errors.Is(err, rcdrive.ErrInvalidCalibration), ShouldBeTrue)
			So(c.Calibration(rcdrive.ChannelThrottle), ShouldResemble, rcdrive.CalibrationThrottle)
		})

		Convey("rejects unknown channels", func() {
			So(c.SetCalibration(rcdrive.ChannelUnknown, rcdrive.CalibrationStandard), ShouldBeError)
		})
	})
}
