package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/fiberlight/internal/config"
	"github.com/san-kum/fiberlight/internal/control"
	"github.com/san-kum/fiberlight/internal/metrics"
	"github.com/san-kum/fiberlight/internal/sim"
)

var ErrUnknown = errors.New("experiment: unknown component")

// Registry maps configuration names to component constructors.
type Registry struct {
	smoothers map[string]func(config.SamplerConfig) control.Smoother
	mappings  map[string]func(config.MappingConfig) sim.Mapping
}

func NewRegistry() *Registry {
	r := &Registry{
		smoothers: make(map[string]func(config.SamplerConfig) control.Smoother),
		mappings:  make(map[string]func(config.MappingConfig) sim.Mapping),
	}

	r.smoothers["mean"] = func(config.SamplerConfig) control.Smoother { return control.Mean{} }
	r.smoothers["median"] = func(config.SamplerConfig) control.Smoother { return control.Median{} }
	r.smoothers["ema"] = func(cfg config.SamplerConfig) control.Smoother {
		return control.NewEMA(cfg.EMAAlpha, cfg.EMASnap)
	}

	r.mappings["tilt"] = func(cfg config.MappingConfig) sim.Mapping {
		return sim.TiltMapping{MaxTiltDeg: cfg.MaxTiltDeg}
	}
	r.mappings["incidence"] = func(cfg config.MappingConfig) sim.Mapping {
		return sim.IncidenceMapping{MinDeg: cfg.MinIncidenceDeg, MaxDeg: cfg.MaxIncidenceDeg}
	}

	return r
}

// RegisterSmoother adds or replaces a smoothing strategy.
func (r *Registry) RegisterSmoother(name string, fn func(config.SamplerConfig) control.Smoother) {
	r.smoothers[name] = fn
}

// RegisterMapping adds or replaces an input mapping.
func (r *Registry) RegisterMapping(name string, fn func(config.MappingConfig) sim.Mapping) {
	r.mappings[name] = fn
}

func (r *Registry) GetSmoother(cfg config.SamplerConfig) (control.Smoother, error) {
	fn, ok := r.smoothers[cfg.Smoothing]
	if !ok {
		return nil, fmt.Errorf("%w: smoother %q", ErrUnknown, cfg.Smoothing)
	}
	return fn(cfg), nil
}

func (r *Registry) GetMapping(cfg config.MappingConfig) (sim.Mapping, error) {
	fn, ok := r.mappings[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: mapping %q", ErrUnknown, cfg.Kind)
	}
	return fn(cfg), nil
}

func (r *Registry) ListSmoothers() []string { return sortedKeys(r.smoothers) }

func (r *Registry) ListMappings() []string { return sortedKeys(r.mappings) }

// DefaultMetrics returns the metrics recorded for every sweep.
func (r *Registry) DefaultMetrics() []metrics.Metric {
	return metrics.Default()
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
