package sampler

import (
	"context"
	"errors"
	"time"

	"github.com/calvinmclean/rcdrive"
)

// EdgeSource is an input line that can report when it next changes level
type EdgeSource interface {
	// WaitForEdge blocks until the next transition of the given kind after the call and returns its timestamp.
	// Timestamps only need to be comparable with each other.
	WaitForEdge(ctx context.Context, edge Edge) (time.Duration, error)
}

// EdgeSampler measures one pulse per Sample: it waits for a rising edge and then the next falling edge.
//
// Without a timeout, Sample waits forever when no pulse arrives; only ctx can stop it.
// Pulses shorter than the source's edge detection latency are merged or missed.
type EdgeSampler struct {
	src     EdgeSource
	timeout time.Duration
	last    rcdrive.PulseWidth
}

var _ Sampler = &EdgeSampler{}

type EdgeOption func(*EdgeSampler)

// WithTimeout bounds each Sample. When it expires, Sample returns the last measured pulse width
// (0 before the first pulse) instead of waiting.
func WithTimeout(d time.Duration) EdgeOption {
	return func(s *EdgeSampler) {
		s.timeout = d
	}
}

func NewEdgeSampler(src EdgeSource, opts ...EdgeOption) *EdgeSampler {
	s := &EdgeSampler{src: src}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample implements Sampler.
func (s *EdgeSampler) Sample(ctx context.Context) (rcdrive.PulseWidth, error) {
	if s.timeout <= 0 {
		return s.measure(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pulse, err := s.measure(waitCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return s.last, nil
	}
	return pulse, err
}

func (s *EdgeSampler) measure(ctx context.Context) (rcdrive.PulseWidth, error) {
	start, err := s.src.WaitForEdge(ctx, Rising)
	if err != nil {
		return 0, err
	}

	end, err := s.src.WaitForEdge(ctx, Falling)
	if err != nil {
		return 0, err
	}

	pulse := rcdrive.PulseWidth((end - start) / time.Microsecond)
	s.last = pulse

	return pulse, nil
}
