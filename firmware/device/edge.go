//go:build tinygo

package device

import (
	"context"
	"errors"
	"machine"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/rcdrive/sampler"
)

const edgePollInterval = 50 * time.Microsecond

var boot = time.Now()

type edgeState struct {
	seq atomic.Uint32
	at  atomic.Int64
}

// PinEdgeSource timestamps edges from a pin interrupt
type PinEdgeSource struct {
	pin   machine.Pin
	edges [2]edgeState
}

var _ sampler.EdgeSource = &PinEdgeSource{}

func NewPinEdgeSource(pin machine.Pin) (*PinEdgeSource, error) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})

	s := &PinEdgeSource{pin: pin}
	err := pin.SetInterrupt(machine.PinRising|machine.PinFalling, s.handle)
	if err != nil {
		return nil, errors.New("error setting pin interrupt: " + err.Error())
	}
	return s, nil
}

// handle runs in interrupt context
func (s *PinEdgeSource) handle(p machine.Pin) {
	e := &s.edges[sampler.Falling]
	if p.Get() {
		e = &s.edges[sampler.Rising]
	}
	e.at.Store(int64(time.Since(boot)))
	e.seq.Add(1)
}

// WaitForEdge implements sampler.EdgeSource by polling for an edge newer than the call
func (s *PinEdgeSource) WaitForEdge(ctx context.Context, edge sampler.Edge) (time.Duration, error) {
	e := &s.edges[edge]
	seq := e.seq.Load()

	for {
		if e.seq.Load() != seq {
			return time.Duration(e.at.Load()), nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		time.Sleep(edgePollInterval)
	}
}
