package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fiberlight/internal/metrics"
	"github.com/san-kum/fiberlight/internal/optics"
)

var ErrInvalidSweep = errors.New("sim: invalid sweep")

// Sample is one traced input value of a sweep.
type Sample struct {
	Value    float64      `json:"value"`
	AngleDeg float64      `json:"angle_deg"`
	Stats    optics.Stats `json:"stats"`
	Vertices int          `json:"vertices"`
}

// SweepConfig describes the input range of a sweep.
type SweepConfig struct {
	From    float64
	To      float64
	Steps   int
	Workers int // 0 means runtime.NumCPU()
}

func (cfg SweepConfig) validate() error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidSweep, cfg.Steps)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidSweep, cfg.Workers)
	}
	return nil
}

// SweepResult holds the samples in input order and the final metric values.
type SweepResult struct {
	Config  SweepConfig
	Samples []Sample
	Metrics map[string]float64
}

// Sweep traces Steps evenly spaced input values from From to To inclusive.
// Tracing runs on up to Workers goroutines; metrics are fed in input order
// afterwards. The context's cache is bypassed.
func Sweep(ctx context.Context, c *Context, cfg SweepConfig, ms ...metrics.Metric) (*SweepResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	samples := make([]Sample, cfg.Steps)
	nocache := &Context{Geometry: c.Geometry, Tracer: c.Tracer, Mapping: c.Mapping}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range samples {
		i := i
		v := sweepValue(cfg, i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := nocache.Trace(v)
			samples[i] = Sample{
				Value:    v,
				AngleDeg: f.AngleDeg,
				Stats:    f.Stats,
				Vertices: len(f.Path.Vertices),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &SweepResult{Config: cfg, Samples: samples, Metrics: make(map[string]float64, len(ms))}
	for _, m := range ms {
		m.Reset()
		for _, s := range samples {
			m.Observe(s.Stats)
		}
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}

func sweepValue(cfg SweepConfig, i int) float64 {
	if cfg.Steps == 1 {
		return cfg.From
	}
	return cfg.From + (cfg.To-cfg.From)*float64(i)/float64(cfg.Steps-1)
}
