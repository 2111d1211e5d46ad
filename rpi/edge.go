//go:build linux

package rpi

import (
	"context"
	"fmt"
	"time"

	"github.com/calvinmclean/rcdrive/sampler"

	"github.com/warthog618/go-gpiocdev"
)

const eventBuffer = 64

// LineEdgeSource reports edges on one GPIO line using kernel event timestamps
type LineEdgeSource struct {
	line   *gpiocdev.Line
	events chan gpiocdev.LineEvent
}

var _ sampler.EdgeSource = &LineEdgeSource{}

// NewLineEdgeSource requests both edges of offset on chip
func NewLineEdgeSource(chip string, offset int) (*LineEdgeSource, error) {
	s := &LineEdgeSource{
		events: make(chan gpiocdev.LineEvent, eventBuffer),
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handle))
	if err != nil {
		return nil, fmt.Errorf("error requesting line %d on %s: %w", offset, chip, err)
	}
	s.line = line

	return s, nil
}

// handle drops events when nobody is waiting long enough to fill the buffer
func (s *LineEdgeSource) handle(evt gpiocdev.LineEvent) {
	select {
	case s.events <- evt:
	default:
	}
}

// WaitForEdge implements sampler.EdgeSource. Buffered events are discarded before waiting for a rising edge
// so that a pulse is never measured from a stale start.
func (s *LineEdgeSource) WaitForEdge(ctx context.Context, edge sampler.Edge) (time.Duration, error) {
	if edge == sampler.Rising {
		s.drain()
	}

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case evt := <-s.events:
			if toEdge(evt.Type) == edge {
				return evt.Timestamp, nil
			}
		}
	}
}

func (s *LineEdgeSource) drain() {
	for {
		select {
		case <-s.events:
		default:
			return
		}
	}
}

func (s *LineEdgeSource) Close() error {
	if s.line == nil {
		return nil
	}
	return s.line.Close()
}

func toEdge(t gpiocdev.LineEventType) sampler.Edge {
	if t == gpiocdev.LineEventFallingEdge {
		return sampler.Falling
	}
	return sampler.Rising
}
