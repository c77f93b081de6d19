// Package automation runs scripted sweep scenarios described in YAML.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fiberlight/internal/config"
	"github.com/san-kum/fiberlight/internal/experiment"
	"github.com/san-kum/fiberlight/internal/logger"
	"github.com/san-kum/fiberlight/internal/sim"
	"github.com/san-kum/fiberlight/internal/storage"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario defines a scripted sequence of sweeps
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single sweep. Fields left empty inherit from the base
// configuration the scenario runs against.
type ScenarioStep struct {
	Name      string                 `yaml:"name"`
	Preset    string                 `yaml:"preset"`
	Segments  []config.SegmentConfig `yaml:"segments"`
	Tracer    *config.TracerConfig   `yaml:"tracer"`
	Mapping   *config.MappingConfig  `yaml:"mapping"`
	From      float64                `yaml:"from"`
	To        float64                `yaml:"to"`
	Steps     int                    `yaml:"steps"`
	Workers   int                    `yaml:"workers"`
	Save      bool                   `yaml:"save"`
	Tolerance *ToleranceConfig       `yaml:"tolerance"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name      string
	Fiber     string
	Sweep     *sim.SweepResult
	RunID     string // empty unless the step was saved
	Tolerance *ToleranceResult
}

// Saver persists sweep results. *storage.Store implements it.
type Saver interface {
	Save(meta storage.RunMetadata, res *sim.SweepResult) (string, error)
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Validate checks the parts of each step that do not need the base config.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	for i, step := range s.Steps {
		if step.Steps < 1 {
			return fmt.Errorf("%w: step %d: steps must be >= 1", ErrInvalidScenario, i+1)
		}
		if t := step.Tolerance; t != nil && t.Trials < 1 {
			return fmt.Errorf("%w: step %d: tolerance trials must be >= 1", ErrInvalidScenario, i+1)
		}
	}
	return nil
}

// stepConfig layers a step's overrides on a copy of base.
func stepConfig(base *config.Config, step ScenarioStep) *config.Config {
	cfg := *base
	cfg.Fiber.Segments = append([]config.SegmentConfig(nil), base.Fiber.Segments...)
	if step.Preset != "" {
		cfg.Fiber.Preset = step.Preset
		cfg.Fiber.Segments = nil
	}
	if len(step.Segments) > 0 {
		cfg.Fiber.Segments = step.Segments
	}
	if step.Tracer != nil {
		cfg.Tracer = *step.Tracer
	}
	if step.Mapping != nil {
		cfg.Mapping = *step.Mapping
	}
	return &cfg
}

// RunScenario executes all steps in order. A nil saver skips persistence
// even for steps marked save.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, reg *experiment.Registry, saver Saver, log *zap.Logger) ([]StepResult, error) {
	log = logger.OrNop(log).Named("scenario")
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg := stepConfig(base, step)
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		log.Info("running step",
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", name),
			zap.String("fiber", cfg.FiberName()))

		exp := experiment.New(cfg, reg, log)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res, err := exp.Sweep(ctx, sim.SweepConfig{From: step.From, To: step.To, Steps: step.Steps, Workers: step.Workers})
		if err != nil {
			return results, fmt.Errorf("step %d sweep: %w", i+1, err)
		}
		out := StepResult{Name: name, Fiber: cfg.FiberName(), Sweep: res}

		if step.Save && saver != nil {
			id, err := saver.Save(storage.RunMetadata{
				Fiber:   out.Fiber,
				Mapping: cfg.Mapping.Kind,
				Tracer:  cfg.TracerConfig(),
			}, res)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			out.RunID = id
			log.Info("step saved", zap.String("run", id))
		}

		if step.Tolerance != nil {
			tr, err := RunTolerance(ctx, exp.Context(), *step.Tolerance)
			if err != nil {
				return results, fmt.Errorf("step %d tolerance: %w", i+1, err)
			}
			out.Tolerance = tr
		}

		results = append(results, out)
	}

	return results, nil
}

// ToleranceConfig perturbs the input around Value to estimate how forgiving
// the launch alignment is.
type ToleranceConfig struct {
	Value  float64 `yaml:"value"`
	Jitter float64 `yaml:"jitter"` // uniform half-width added to Value
	Trials int     `yaml:"trials"`
	Seed   int64   `yaml:"seed"` // 0 seeds from the clock
}

// ToleranceResult holds statistics from the perturbed traces.
type ToleranceResult struct {
	Trials         int
	Transmitted    int
	Fraction       float64
	MeanEfficiency float64 // over transmitted trials
	MinAngleDeg    float64 // launch angle range that was sampled
	MaxAngleDeg    float64
}

// RunTolerance traces Trials inputs drawn uniformly from
// [Value-Jitter, Value+Jitter], bypassing the path cache.
func RunTolerance(ctx context.Context, c *sim.Context, cfg ToleranceConfig) (*ToleranceResult, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: tolerance trials must be >= 1", ErrInvalidScenario)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	plain := *c
	plain.Cache = nil

	res := &ToleranceResult{Trials: cfg.Trials}
	var effSum float64
	for trial := 0; trial < cfg.Trials; trial++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := cfg.Value + (rng.Float64()-0.5)*2*cfg.Jitter
		f := plain.Trace(v)

		if trial == 0 || f.AngleDeg < res.MinAngleDeg {
			res.MinAngleDeg = f.AngleDeg
		}
		if trial == 0 || f.AngleDeg > res.MaxAngleDeg {
			res.MaxAngleDeg = f.AngleDeg
		}
		if f.Stats.Transmitted {
			res.Transmitted++
			effSum += f.Stats.Efficiency
		}
	}

	res.Fraction = float64(res.Transmitted) / float64(res.Trials)
	if res.Transmitted > 0 {
		res.MeanEfficiency = effSum / float64(res.Transmitted)
	}
	return res, nil
}
