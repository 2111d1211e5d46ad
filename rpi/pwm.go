//go:build linux

package rpi

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/rcdrive/motor"

	"github.com/warthog618/go-gpiocdev"
)

// CarrierClockHz is the tick rate of the software motor carrier
const CarrierClockHz = 1_000_000

// NewCarrier is the motor carrier for a LineBank running at freqHz with 1 µs ticks
func NewCarrier(freqHz uint32) (motor.Carrier, error) {
	return motor.NewCarrier(CarrierClockHz, freqHz, 1)
}

type lineSetter interface {
	SetValues(values []int) error
	Close() error
}

// LineBank is a software PWM over several GPIO lines that share one carrier. Each period, every line with
// a non-zero duty rises at tick 0 and falls at its own compare value, so all outputs stay in phase.
type LineBank struct {
	lines   lineSetter
	carrier motor.Carrier
	tick    time.Duration
	compare []atomic.Uint32

	stop chan struct{}
	done chan struct{}
}

// NewLineBank requests offsets as outputs, initially low, and starts the carrier
func NewLineBank(chip string, offsets []int, carrier motor.Carrier) (*LineBank, error) {
	if len(offsets) == 0 {
		return nil, errors.New("at least one line is required")
	}

	lines, err := gpiocdev.RequestLines(chip, offsets, gpiocdev.AsOutput(make([]int, len(offsets))...))
	if err != nil {
		return nil, fmt.Errorf("error requesting lines %v on %s: %w", offsets, chip, err)
	}

	return newLineBank(lines, len(offsets), carrier), nil
}

func newLineBank(lines lineSetter, n int, carrier motor.Carrier) *LineBank {
	b := &LineBank{
		lines:   lines,
		carrier: carrier,
		tick:    time.Duration(uint64(carrier.Divider) * uint64(time.Second) / uint64(carrier.ClockHz)),
		compare: make([]atomic.Uint32, n),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

// Output is the motor.Output for the line at index i of the offsets the bank was created with
func (b *LineBank) Output(i int) *LineOutput {
	return &LineOutput{bank: b, index: i}
}

// Close stops the carrier, drives every line low and releases them
func (b *LineBank) Close() error {
	close(b.stop)
	<-b.done

	err := b.lines.SetValues(make([]int, len(b.compare)))
	if err != nil {
		return fmt.Errorf("error setting lines low: %w", err)
	}
	return b.lines.Close()
}

func (b *LineBank) run() {
	defer close(b.done)

	period := uint32(b.carrier.Top) + 1
	compare := make([]uint32, len(b.compare))
	values := make([]int, len(compare))
	written := make([]int, len(compare))
	var falls []uint32

	write := func() {
		if slices.Equal(values, written) {
			return
		}
		if err := b.lines.SetValues(values); err != nil {
			return
		}
		copy(written, values)
	}

	for {
		select {
		case <-b.stop:
			return
		default:
		}

		start := time.Now()
		for i := range b.compare {
			compare[i] = b.compare[i].Load()
		}

		levels(values, compare, 0)
		write()

		falls = edges(falls[:0], compare, period)
		for _, at := range falls {
			time.Sleep(time.Until(start.Add(time.Duration(at) * b.tick)))
			levels(values, compare, at)
			write()
		}

		time.Sleep(time.Until(start.Add(time.Duration(period) * b.tick)))
	}
}

// edges appends the distinct compare values inside one period to dst, in order. Lines fall at these ticks
func edges(dst []uint32, compare []uint32, period uint32) []uint32 {
	for _, c := range compare {
		if c > 0 && c < period {
			dst = append(dst, c)
		}
	}
	slices.Sort(dst)
	return slices.Compact(dst)
}

// levels sets each value to the level of its line at tick
func levels(values []int, compare []uint32, tick uint32) {
	for i, c := range compare {
		if c > tick {
			values[i] = 1
		} else {
			values[i] = 0
		}
	}
}

// LineOutput is one line of a LineBank
type LineOutput struct {
	bank  *LineBank
	index int
}

var _ motor.Output = &LineOutput{}

// SetDutyPercent implements motor.Output
func (o *LineOutput) SetDutyPercent(percent uint8) error {
	if percent > 100 {
		return errors.New("invalid duty cycle: " + strconv.Itoa(int(percent)))
	}
	o.bank.compare[o.index].Store(o.bank.carrier.Duty(percent))
	return nil
}

// SetFullyOff implements motor.Output
func (o *LineOutput) SetFullyOff() error {
	o.bank.compare[o.index].Store(0)
	return nil
}
