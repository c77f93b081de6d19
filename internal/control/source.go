package control

import (
	"context"
	"time"
)

// Source delivers raw input samples.
type Source interface {
	Name() string
	Poll() (float64, error)
}

// Opener is implemented by sources that need to acquire a device before
// the first poll.
type Opener interface {
	Open(ctx context.Context) error
}

// SmoothedInput is the value published by the sampler.
type SmoothedInput struct {
	Value     float64
	Timestamp time.Time
	Seq       uint64
	Source    string
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
