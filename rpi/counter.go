//go:build linux

package rpi

import (
	"fmt"
	"sync"
	"time"

	"github.com/calvinmclean/rcdrive/sampler"

	"github.com/warthog618/go-gpiocdev"
)

// CounterClockHz is the tick rate of LineCounter
const CounterClockHz = 1_000_000

// LineCounter accumulates the time a GPIO line is high in microsecond ticks and wraps after top, like a
// PWM slice in level-gated input mode. Only completed high periods are counted.
type LineCounter struct {
	line *gpiocdev.Line
	top  uint32

	mu    sync.Mutex
	ticks uint32
	rise  time.Duration
	high  bool
}

var _ sampler.Counter = &LineCounter{}

// CounterConfig is the sampler config matching a LineCounter with the given top
func CounterConfig(top uint16) sampler.CounterConfig {
	return sampler.CounterConfig{ClockHz: CounterClockHz, Divider: 1, Top: top}
}

func NewLineCounter(chip string, offset int, top uint16) (*LineCounter, error) {
	c := newLineCounter(top)

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(c.handle))
	if err != nil {
		return nil, fmt.Errorf("error requesting line %d on %s: %w", offset, chip, err)
	}
	c.line = line

	return c, nil
}

func newLineCounter(top uint16) *LineCounter {
	return &LineCounter{top: uint32(top)}
}

func (c *LineCounter) handle(evt gpiocdev.LineEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		c.rise = evt.Timestamp
		c.high = true
	case gpiocdev.LineEventFallingEdge:
		if c.high {
			c.add(uint64((evt.Timestamp - c.rise) / time.Microsecond))
		}
		c.high = false
	}
}

func (c *LineCounter) add(ticks uint64) {
	c.ticks = uint32((uint64(c.ticks) + ticks) % (uint64(c.top) + 1))
}

// Counter implements sampler.Counter
func (c *LineCounter) Counter() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// SetCounter implements sampler.Counter
func (c *LineCounter) SetCounter(v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = v % (c.top + 1)
}

func (c *LineCounter) Close() error {
	if c.line == nil {
		return nil
	}
	return c.line.Close()
}
