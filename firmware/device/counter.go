//go:build tinygo

package device

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/volatile"

	"github.com/calvinmclean/rcdrive/sampler"
)

// LevelCounter is a PWM slice in level-gated mode: its counter advances only while the B pin is high
type LevelCounter struct {
	csr *volatile.Register32
	div *volatile.Register32
	ctr *volatile.Register32
	top *volatile.Register32
}

var _ sampler.Counter = &LevelCounter{}

// NewLevelCounter takes over the slice whose B input is pin. GP9 (slice 4) and GP11 (slice 5) are supported
func NewLevelCounter(pin machine.Pin, cfg sampler.CounterConfig) (*LevelCounter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var c LevelCounter
	switch pin {
	case machine.GP9:
		c = LevelCounter{&rp.PWM.CH4_CSR, &rp.PWM.CH4_DIV, &rp.PWM.CH4_CTR, &rp.PWM.CH4_TOP}
	case machine.GP11:
		c = LevelCounter{&rp.PWM.CH5_CSR, &rp.PWM.CH5_DIV, &rp.PWM.CH5_CTR, &rp.PWM.CH5_TOP}
	default:
		return nil, errors.New("pin is not the B input of PWM slice 4 or 5")
	}

	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})

	c.csr.Set(0)
	c.div.Set(uint32(cfg.Divider) << rp.PWM_CH0_DIV_INT_Pos)
	c.top.Set(uint32(cfg.Top))
	c.ctr.Set(0)
	c.csr.Set(rp.PWM_CH0_CSR_DIVMODE_LEVEL<<rp.PWM_CH0_CSR_DIVMODE_Pos | rp.PWM_CH0_CSR_EN)

	return &c, nil
}

// Counter implements sampler.Counter
func (c *LevelCounter) Counter() uint32 {
	return c.ctr.Get() & 0xFFFF
}

// SetCounter implements sampler.Counter
func (c *LevelCounter) SetCounter(v uint32) {
	c.ctr.Set(v & 0xFFFF)
}
