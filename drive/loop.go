// Package drive runs the loop that turns RC input into motor commands.
package drive

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/controller"
)

const DefaultInterval = 10 * time.Millisecond

var ErrReconfigureBusy = errors.New("too many pending reconfigurations")

// Motors is the pair of drive motors. motor.Driver implements it
type Motors interface {
	Drive(left, right rcdrive.Speed)
}

// Steerer is a steering actuator, such as a servo, that takes the steering value directly
type Steerer interface {
	Steer(v float32) error
}

// Loop owns the Controller, the Motors and the optional Steerer after it is created. Only Run may use them;
// everything else goes through the methods on Loop, which are safe to call from other goroutines.
type Loop struct {
	controller *controller.Controller
	motors     Motors
	steerer    Steerer
	telemetry  io.Writer
	interval   time.Duration

	armed       atomic.Bool
	verbose     atomic.Bool
	reconfigure chan func(*controller.Controller) error

	mu       sync.Mutex
	snapshot rcdrive.Telemetry

	cancelMu   sync.Mutex
	cancelRead context.CancelFunc

	line []byte
}

type Option func(*Loop)

// WithSteerer sends the steering input to s and drives both motors with the throttle
func WithSteerer(s Steerer) Option {
	return func(l *Loop) {
		l.steerer = s
	}
}

// WithTelemetry writes a telemetry line to w each cycle while the Loop is verbose
func WithTelemetry(w io.Writer) Option {
	return func(l *Loop) {
		l.telemetry = w
	}
}

func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// New creates a disarmed Loop
func New(c *controller.Controller, motors Motors, opts ...Option) *Loop {
	l := &Loop{
		controller:  c,
		motors:      motors,
		interval:    DefaultInterval,
		reconfigure: make(chan func(*controller.Controller) error, 4),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives the motors until ctx ends, then stops them. A failed read stops the motors for that cycle
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer l.motors.Drive(rcdrive.Off, rcdrive.Off)

	for {
		l.applyReconfigure()

		err := l.cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, context.Canceled) {
				println("error reading controller:", err.Error())
			}
			l.motors.Drive(rcdrive.Off, rcdrive.Off)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// cycle runs one step with a read that Disarm can cancel. A disarmed Loop drives Off before reading,
// so a stalled channel cannot hold the last armed command.
func (l *Loop) cycle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.cancelMu.Lock()
	l.cancelRead = cancel
	l.cancelMu.Unlock()
	defer func() {
		l.cancelMu.Lock()
		l.cancelRead = nil
		l.cancelMu.Unlock()
	}()

	if !l.armed.Load() {
		l.motors.Drive(rcdrive.Off, rcdrive.Off)
	}

	return l.step(ctx)
}

// Arm lets the motors follow the throttle from the next cycle
func (l *Loop) Arm() {
	l.armed.Store(true)
}

// Disarm turns the motors off. A read in progress is abandoned so the loop can stop the motors right away
func (l *Loop) Disarm() {
	l.armed.Store(false)

	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()
	if l.cancelRead != nil {
		l.cancelRead()
	}
}

func (l *Loop) Armed() bool {
	return l.armed.Load()
}

func (l *Loop) SetVerbose(v bool) {
	l.verbose.Store(v)
}

func (l *Loop) Verbose() bool {
	return l.verbose.Load()
}

// Snapshot returns the last completed cycle
func (l *Loop) Snapshot() rcdrive.Telemetry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Reconfigure queues f to run on the loop goroutine before the next read
func (l *Loop) Reconfigure(f func(*controller.Controller) error) error {
	select {
	case l.reconfigure <- f:
		return nil
	default:
		return ErrReconfigureBusy
	}
}

// SetCalibration validates cal and queues it for ch
func (l *Loop) SetCalibration(ch rcdrive.Channel, cal rcdrive.Calibration) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	if ch != rcdrive.ChannelSteering && ch != rcdrive.ChannelThrottle {
		return errors.New("unknown channel: " + ch.String())
	}
	return l.Reconfigure(func(c *controller.Controller) error {
		return c.SetCalibration(ch, cal)
	})
}

func (l *Loop) applyReconfigure() {
	for {
		select {
		case f := <-l.reconfigure:
			if err := f(l.controller); err != nil {
				println("error reconfiguring controller:", err.Error())
			}
		default:
			return
		}
	}
}

func (l *Loop) step(ctx context.Context) error {
	r, err := l.controller.Read(ctx)
	if err != nil {
		return err
	}

	t := rcdrive.Telemetry{
		SteeringPulse: r.SteeringPulse,
		ThrottlePulse: r.ThrottlePulse,
		Steering:      r.Steering,
		Throttle:      r.Throttle,
		Armed:         l.armed.Load(),
	}

	steer := r.Steering
	if l.steerer != nil {
		t.Left, t.Right = r.Throttle, r.Throttle
	} else {
		t.Left, t.Right = Mix(r.Throttle, r.Steering)
	}
	if !t.Armed {
		t.Left, t.Right = rcdrive.Off, rcdrive.Off
		steer = 0
	}

	l.motors.Drive(t.Left, t.Right)

	if l.steerer != nil {
		if err := l.steerer.Steer(steer); err != nil {
			println("error steering:", err.Error())
		}
	}

	l.mu.Lock()
	l.snapshot = t
	l.mu.Unlock()

	if l.telemetry != nil && l.verbose.Load() {
		l.line = append(t.AppendLine(l.line[:0]), '\n')
		_, err = l.telemetry.Write(l.line)
		if err != nil {
			println("error writing telemetry:", err.Error())
		}
	}

	return nil
}
