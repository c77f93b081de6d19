// Package config loads the YAML configuration and the named fiber presets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fiberlight/internal/control"
	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/geom"
	"github.com/san-kum/fiberlight/internal/optics"
)

const (
	DefaultPreset         = "straight"
	DefaultSmoothing      = "ema"
	DefaultMapping        = "tilt"
	DefaultMinIncidence   = 30.0
	DefaultMaxIncidence   = 89.0
	DefaultFPS            = 60
	DefaultTheme          = "default"
	DefaultLogLevel       = "info"
	DefaultConfigFileName = "fiberlight.yaml"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Fiber   FiberConfig   `yaml:"fiber"`
	Tracer  TracerConfig  `yaml:"tracer"`
	Sampler SamplerConfig `yaml:"sampler"`
	Input   InputConfig   `yaml:"input"`
	Mapping MappingConfig `yaml:"mapping"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// FiberConfig selects the geometry. Explicit segments win over the preset.
type FiberConfig struct {
	Preset       string          `yaml:"preset"`
	AmbientIndex float64         `yaml:"ambient_index"`
	Segments     []SegmentConfig `yaml:"segments,omitempty"`
}

type SegmentConfig struct {
	Start         [2]float64 `yaml:"start,flow"`
	End           [2]float64 `yaml:"end,flow"`
	Radius        float64    `yaml:"radius"`
	CoreIndex     float64    `yaml:"core_index"`
	CladdingIndex float64    `yaml:"cladding_index"`
}

type TracerConfig struct {
	MaxBounces         int     `yaml:"max_bounces"`
	TransmissionFactor float64 `yaml:"transmission_factor"`
	MinIntensity       float64 `yaml:"min_intensity"`
	ReflectionLoss     float64 `yaml:"reflection_loss"`
}

type SamplerConfig struct {
	Window       int           `yaml:"window"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Smoothing    string        `yaml:"smoothing"`
	EMAAlpha     float64       `yaml:"ema_alpha"`
	EMASnap      float64       `yaml:"ema_snap"`
	Initial      float64       `yaml:"initial"`
}

// InputConfig describes the hardware encoder. An empty device means the
// manual fallback is used directly.
type InputConfig struct {
	Device      string        `yaml:"device"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
	Sensitivity float64       `yaml:"sensitivity"`
}

type MappingConfig struct {
	Kind            string  `yaml:"kind"`
	MaxTiltDeg      float64 `yaml:"max_tilt_deg"`
	MinIncidenceDeg float64 `yaml:"min_incidence_deg"`
	MaxIncidenceDeg float64 `yaml:"max_incidence_deg"`
}

type RenderConfig struct {
	FPS            int     `yaml:"fps"`
	CacheSize      int     `yaml:"cache_size"`
	CachePrecision float64 `yaml:"cache_precision"`
	Theme          string  `yaml:"theme"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Fiber: FiberConfig{
			Preset:       DefaultPreset,
			AmbientIndex: fiber.DefaultAmbientIndex,
		},
		Tracer: TracerConfig{
			MaxBounces:         optics.DefaultMaxBounces,
			TransmissionFactor: optics.DefaultTransmissionFactor,
			MinIntensity:       optics.DefaultMinIntensity,
		},
		Sampler: SamplerConfig{
			Window:       control.DefaultWindowSize,
			PollInterval: control.DefaultPollInterval,
			Smoothing:    DefaultSmoothing,
			EMAAlpha:     control.DefaultEMAAlpha,
			EMASnap:      control.DefaultEMASnap,
			Initial:      control.DefaultInitial,
		},
		Input: InputConfig{
			OpenTimeout: control.DefaultOpenTimeout,
			Sensitivity: control.DefaultSensitivity,
		},
		Mapping: MappingConfig{
			Kind:            DefaultMapping,
			MaxTiltDeg:      87,
			MinIncidenceDeg: DefaultMinIncidence,
			MaxIncidenceDeg: DefaultMaxIncidence,
		},
		Render: RenderConfig{
			FPS:            DefaultFPS,
			CacheSize:      optics.DefaultCacheSize,
			CachePrecision: optics.DefaultCachePrecision,
			Theme:          DefaultTheme,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads path over the defaults. An empty path searches the standard
// locations and falls back to the defaults when nothing is found.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func findConfigFile() string {
	candidates := []string{
		"./" + DefaultConfigFileName,
		filepath.Join(ConfigDir(), "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Fiberlight")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Fiberlight")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "fiberlight")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "fiberlight")
	}
}

// Validate checks the settings that are not covered by the component
// constructors.
func (c *Config) Validate() error {
	if err := c.TracerConfig().Validate(); err != nil {
		return err
	}
	switch {
	case c.Sampler.Window <= 0:
		return fmt.Errorf("%w: sampler.window must be positive, got %d", ErrInvalid, c.Sampler.Window)
	case c.Sampler.PollInterval <= 0:
		return fmt.Errorf("%w: sampler.poll_interval must be positive, got %s", ErrInvalid, c.Sampler.PollInterval)
	case c.Sampler.Initial < 0 || c.Sampler.Initial > 1:
		return fmt.Errorf("%w: sampler.initial must be in [0, 1], got %f", ErrInvalid, c.Sampler.Initial)
	case c.Render.FPS <= 0:
		return fmt.Errorf("%w: render.fps must be positive, got %d", ErrInvalid, c.Render.FPS)
	case c.Mapping.Kind == "incidence" && c.Mapping.MinIncidenceDeg >= c.Mapping.MaxIncidenceDeg:
		return fmt.Errorf("%w: mapping.min_incidence_deg must be below max_incidence_deg", ErrInvalid)
	}
	return nil
}

// TracerConfig converts the tracer section.
func (c *Config) TracerConfig() optics.Config {
	return optics.Config{
		MaxBounces:         c.Tracer.MaxBounces,
		TransmissionFactor: c.Tracer.TransmissionFactor,
		MinIntensity:       c.Tracer.MinIntensity,
		ReflectionLoss:     c.Tracer.ReflectionLoss,
	}
}

// SamplerConfig converts the sampler and input sections.
func (c *Config) SamplerConfig() control.SamplerConfig {
	return control.SamplerConfig{
		PollInterval: c.Sampler.PollInterval,
		WindowSize:   c.Sampler.Window,
		Initial:      c.Sampler.Initial,
		OpenTimeout:  c.Input.OpenTimeout,
	}
}

// Geometry builds and validates the configured fiber.
func (c *Config) Geometry() (*fiber.Geometry, error) {
	segs, err := c.Fiber.segments()
	if err != nil {
		return nil, err
	}
	ambient := c.Fiber.AmbientIndex
	if ambient == 0 {
		ambient = fiber.DefaultAmbientIndex
	}
	return fiber.Load(segs, fiber.WithAmbientIndex(ambient))
}

// FiberName names the configured fiber: the preset, or "custom" when
// explicit segments are given.
func (c *Config) FiberName() string {
	if len(c.Fiber.Segments) > 0 {
		return "custom"
	}
	return c.Fiber.Preset
}

// segments returns the explicit list when present, otherwise the preset's.
func (f FiberConfig) segments() ([]fiber.Segment, error) {
	if len(f.Segments) > 0 {
		segs := make([]fiber.Segment, len(f.Segments))
		for i, s := range f.Segments {
			segs[i] = fiber.Segment{
				Start:         geom.V(s.Start[0], s.Start[1]),
				End:           geom.V(s.End[0], s.End[1]),
				Radius:        s.Radius,
				CoreIndex:     s.CoreIndex,
				CladdingIndex: s.CladdingIndex,
			}
		}
		return segs, nil
	}

	p, ok := GetPreset(f.Preset)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, f.Preset, ListPresets())
	}
	return p.Segments(), nil
}

// SegmentConfigs converts segments back into their YAML form.
func SegmentConfigs(segs []fiber.Segment) []SegmentConfig {
	out := make([]SegmentConfig, len(segs))
	for i, s := range segs {
		out[i] = SegmentConfig{
			Start:         [2]float64{s.Start.X, s.Start.Y},
			End:           [2]float64{s.End.X, s.End.Y},
			Radius:        s.Radius,
			CoreIndex:     s.CoreIndex,
			CladdingIndex: s.CladdingIndex,
		}
	}
	return out
}
