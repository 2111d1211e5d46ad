// Package sampler measures the active pulse width of one RC channel.
//
// Two strategies share the Sampler interface:
//   - EdgeSampler timestamps a rising and the following falling edge on an input line. Sample blocks until
//     a full pulse completes.
//   - CounterSampler reads a free-running hardware counter that only advances while the input is high.
//     Sample never blocks.
package sampler

import (
	"context"
	"errors"

	"github.com/calvinmclean/rcdrive"
)

// Sampler returns the most recent pulse width of one channel. A non-nil error is only returned when ctx is done.
// Noise and disconnected inputs are not errors: they show up as zero or implausible widths.
type Sampler interface {
	Sample(ctx context.Context) (rcdrive.PulseWidth, error)
}

// Edge is a transition of an input line
type Edge int

const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	if e == Falling {
		return "Falling"
	}
	return "Rising"
}

// Strategy selects how a channel is sampled
type Strategy int

const (
	StrategyEdge Strategy = iota
	StrategyCounter
)

func (s Strategy) String() string {
	if s == StrategyCounter {
		return "counter"
	}
	return "edge"
}

// ParseStrategy accepts "edge" or "counter"
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "edge":
		return StrategyEdge, nil
	case "counter":
		return StrategyCounter, nil
	default:
		return StrategyEdge, errors.New("unknown sampling strategy: " + s)
	}
}
