package motor

import (
	"errors"
	"strconv"
)

const (
	// DefaultFrequency is above the audible range so the motors don't whine
	DefaultFrequency = 25_000
	DefaultDivider   = 16
)

// Carrier is the PWM timing shared by every motor output. It is computed once so that all slices
// run with the same divider and top and stay in phase.
type Carrier struct {
	ClockHz uint32
	FreqHz  uint32
	Divider uint8
	Top     uint16
}

// NewCarrier computes top = clock / (freq * divider) - 1
func NewCarrier(clockHz, freqHz uint32, divider uint8) (Carrier, error) {
	if freqHz == 0 || divider == 0 {
		return Carrier{}, errors.New("frequency and divider must be positive")
	}

	ticks := uint64(clockHz) / (uint64(freqHz) * uint64(divider))
	if ticks < 2 || ticks-1 > 0xFFFF {
		return Carrier{}, errors.New("carrier top out of range: " + strconv.FormatUint(ticks, 10))
	}

	return Carrier{
		ClockHz: clockHz,
		FreqHz:  freqHz,
		Divider: divider,
		Top:     uint16(ticks - 1),
	}, nil
}

// Period is the length of one PWM cycle in nanoseconds, as produced by Top and Divider
func (c Carrier) Period() uint64 {
	return (uint64(c.Top) + 1) * uint64(c.Divider) * 1_000_000_000 / uint64(c.ClockHz)
}

// Duty converts a 0-100 percentage to a compare value for this carrier
func (c Carrier) Duty(percent uint8) uint32 {
	return (uint32(c.Top) + 1) * uint32(percent) / 100
}
