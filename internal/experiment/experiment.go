// Package experiment assembles a runnable setup from the configuration.
package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/fiberlight/internal/config"
	"github.com/san-kum/fiberlight/internal/control"
	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/optics"
	"github.com/san-kum/fiberlight/internal/sim"
)

// Experiment owns every component built from one configuration.
type Experiment struct {
	cfg *config.Config
	reg *Registry
	log *zap.Logger

	geometry *fiber.Geometry
	tracer   *optics.Tracer
	mapping  sim.Mapping
	cache    *optics.PathCache
	manual   *control.ManualSource
	sampler  *control.Sampler
}

func New(cfg *config.Config, reg *Registry, log *zap.Logger) *Experiment {
	if reg == nil {
		reg = NewRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Experiment{cfg: cfg, reg: reg, log: log}
}

// Setup validates the configuration and builds the components. Geometry
// errors are returned as *fiber.ValidationError.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	g, err := e.cfg.Geometry()
	if err != nil {
		return err
	}
	tr, err := optics.New(e.cfg.TracerConfig())
	if err != nil {
		return err
	}
	m, err := e.reg.GetMapping(e.cfg.Mapping)
	if err != nil {
		return err
	}
	sm, err := e.reg.GetSmoother(e.cfg.Sampler)
	if err != nil {
		return err
	}

	e.geometry = g
	e.tracer = tr
	e.mapping = m
	e.cache = optics.NewPathCache(e.cfg.Render.CacheSize, e.cfg.Render.CachePrecision)
	e.manual = control.NewManual(e.cfg.Sampler.Initial)

	var primary control.Source
	if e.cfg.Input.Device != "" {
		dev := control.NewLineDevice(e.cfg.Input.Device)
		primary = control.NewEncoder(dev, e.cfg.Input.Sensitivity, e.cfg.Sampler.Initial)
	}
	e.sampler = control.NewSampler(primary, e.manual, sm, e.cfg.SamplerConfig(), e.log)

	e.log.Debug("experiment ready",
		zap.Int("segments", g.Len()),
		zap.String("mapping", m.Name()),
		zap.String("smoothing", sm.Name()))
	return nil
}

func (e *Experiment) ready() error {
	if e.geometry == nil {
		return fmt.Errorf("experiment not setup")
	}
	return nil
}

// Start launches the input sampler.
func (e *Experiment) Start(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.sampler.Start(ctx)
}

// Stop halts the input sampler.
func (e *Experiment) Stop() {
	if e.sampler != nil {
		e.sampler.Stop()
	}
}

// Context returns the per-frame simulation context reading from the sampler.
func (e *Experiment) Context() *sim.Context {
	return &sim.Context{
		Geometry: e.geometry,
		Tracer:   e.tracer,
		Input:    e.sampler,
		Mapping:  e.mapping,
		Cache:    e.cache,
	}
}

// Sweep traces a range of inputs and records the default metrics.
func (e *Experiment) Sweep(ctx context.Context, cfg sim.SweepConfig) (*sim.SweepResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return sim.Sweep(ctx, e.Context(), cfg, e.reg.DefaultMetrics()...)
}

func (e *Experiment) Config() *config.Config        { return e.cfg }
func (e *Experiment) Geometry() *fiber.Geometry     { return e.geometry }
func (e *Experiment) Manual() *control.ManualSource { return e.manual }
func (e *Experiment) Sampler() *control.Sampler     { return e.sampler }
func (e *Experiment) Cache() *optics.PathCache      { return e.cache }
