package sampler

import (
	"context"
	"errors"
	"math"
	"math/bits"
	"strconv"

	"github.com/calvinmclean/rcdrive"
)

const maxTop = 0xFFFF

// Counter is a hardware counter that counts divided clock ticks while the input is high and wraps after Top
type Counter interface {
	Counter() uint32
	SetCounter(uint32)
}

// CounterConfig describes the capture peripheral's clock. Top is the wrap value of the counter.
type CounterConfig struct {
	ClockHz uint32
	Divider uint8
	Top     uint16
}

// NewCounterConfig chooses Top so that the counter wraps at freqHz, which should be no faster than one RC frame
func NewCounterConfig(clockHz, freqHz uint32, divider uint8) (CounterConfig, error) {
	if freqHz == 0 || divider == 0 {
		return CounterConfig{}, errors.New("frequency and divider must be positive")
	}

	top := uint64(clockHz)/(uint64(freqHz)*uint64(divider)) - 1
	if top == 0 || top > maxTop {
		return CounterConfig{}, errors.New("counter top out of range: " + strconv.FormatUint(top, 10))
	}

	cfg := CounterConfig{
		ClockHz: clockHz,
		Divider: divider,
		Top:     uint16(top),
	}
	return cfg, cfg.Validate()
}

// Validate makes sure that converting any counter value to microseconds cannot overflow
func (c CounterConfig) Validate() error {
	if c.ClockHz == 0 {
		return errors.New("clock frequency must be positive")
	}
	if c.Divider == 0 {
		return errors.New("divider must be positive")
	}
	if c.Top == 0 {
		return errors.New("counter top must be positive")
	}

	hi, lo := bits.Mul64(uint64(c.Top)*uint64(c.Divider), 1_000_000)
	if hi != 0 {
		return errors.New("tick conversion overflows")
	}
	if lo/uint64(c.ClockHz) > math.MaxInt32 {
		return errors.New("maximum pulse width does not fit")
	}

	return nil
}

// Micros converts counter ticks to microseconds: ticks * divider * 1e6 / clock
func (c CounterConfig) Micros(ticks uint32) rcdrive.PulseWidth {
	return rcdrive.PulseWidth(uint64(ticks) * uint64(c.Divider) * 1_000_000 / uint64(c.ClockHz))
}

// CounterSampler reads a Counter without blocking.
//
// By default the counter is never reset, so two reads without a completed pulse in between return the same
// (or an aliased) value. WithReset clears the counter after every read, turning each Sample into a measurement
// of the time spent high since the previous Sample.
type CounterSampler struct {
	counter Counter
	cfg     CounterConfig
	reset   bool
}

var _ Sampler = &CounterSampler{}

type CounterOption func(*CounterSampler)

// WithReset zeroes the counter right after each read
func WithReset() CounterOption {
	return func(s *CounterSampler) {
		s.reset = true
	}
}

func NewCounterSampler(counter Counter, cfg CounterConfig, opts ...CounterOption) (*CounterSampler, error) {
	if counter == nil {
		return nil, errors.New("counter is required")
	}
	err := cfg.Validate()
	if err != nil {
		return nil, errors.New("invalid counter config: " + err.Error())
	}

	s := &CounterSampler{counter: counter, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sample implements Sampler. It never blocks and only fails if ctx is already done.
func (s *CounterSampler) Sample(ctx context.Context) (rcdrive.PulseWidth, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.cfg.Micros(s.ReadTicks()), nil
}

// ReadTicks returns the raw counter value, resetting it if the sampler was built WithReset
func (s *CounterSampler) ReadTicks() uint32 {
	ticks := s.counter.Counter()
	if s.reset {
		s.counter.SetCounter(0)
	}
	return ticks
}
